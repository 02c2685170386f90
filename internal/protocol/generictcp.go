package protocol

import (
	"context"
	"fmt"

	"github.com/d0ssh1/Auto-Aquarium/internal/device"
)

// GenericTCP is the fallback adapter for devices whose only known
// capability is reachability: it supports no power actions, only a
// connect-and-disconnect probe used to answer QueryPower as "on" when
// the TCP port accepts a connection.
type GenericTCP struct{}

func (GenericTCP) PowerOn(ctx context.Context, d *device.Device) error {
	return fmt.Errorf("%w: generic_tcp devices do not support power_on", ErrProtocol)
}

func (GenericTCP) PowerOff(ctx context.Context, d *device.Device) error {
	return fmt.Errorf("%w: generic_tcp devices do not support power_off", ErrProtocol)
}

func (GenericTCP) QueryPower(ctx context.Context, d *device.Device) (PowerState, error) {
	port := d.Port
	if port == 0 {
		return PowerUnknown, fmt.Errorf("%w: generic_tcp device missing port", ErrProtocol)
	}
	conn, err := dial(ctx, d.Host, port)
	if err != nil {
		return PowerUnknown, err
	}
	conn.Close()
	return PowerOn, nil
}
