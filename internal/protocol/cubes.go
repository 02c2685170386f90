package protocol

import (
	"context"
	"fmt"
	"strings"

	"github.com/d0ssh1/Auto-Aquarium/internal/device"
)

// CubesTCP drives LED-cube style display walls over a simple line-based
// TCP protocol. This device family is a supplement: the original system
// carried a CUBES_CUSTOM device type it never implemented a driver for.
type CubesTCP struct{}

const defaultCubesPort = 7000

func (CubesTCP) PowerOn(ctx context.Context, d *device.Device) error {
	return cubesCommand(ctx, d, "CUBE:ON\n", "OK")
}

func (CubesTCP) PowerOff(ctx context.Context, d *device.Device) error {
	return cubesCommand(ctx, d, "CUBE:OFF\n", "OK")
}

func (CubesTCP) QueryPower(ctx context.Context, d *device.Device) (PowerState, error) {
	port := d.Port
	if port == 0 {
		port = defaultCubesPort
	}
	conn, err := dial(ctx, d.Host, port)
	if err != nil {
		return PowerUnknown, err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("CUBE:STATUS\n")); err != nil {
		return PowerUnknown, classifyDialError(err)
	}
	reply, err := readLine(ctx, conn, 64)
	if err != nil {
		return PowerUnknown, err
	}
	switch strings.TrimSpace(reply) {
	case "ON":
		return PowerOn, nil
	case "OFF":
		return PowerOff, nil
	default:
		return PowerUnknown, fmt.Errorf("%w: unrecognised status reply %q", ErrProtocol, reply)
	}
}

func cubesCommand(ctx context.Context, d *device.Device, cmd, wantAck string) error {
	port := d.Port
	if port == 0 {
		port = defaultCubesPort
	}
	conn, err := dial(ctx, d.Host, port)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(cmd)); err != nil {
		return classifyDialError(err)
	}
	reply, err := readLine(ctx, conn, 64)
	if err != nil {
		return err
	}
	if strings.TrimSpace(reply) != wantAck {
		return fmt.Errorf("%w: unexpected ack %q", ErrProtocol, reply)
	}
	return nil
}
