package protocol

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"strings"

	"github.com/d0ssh1/Auto-Aquarium/internal/device"
)

// PCWake drives a PC's network interface card via Wake-on-LAN for power
// on, and a small TCP management agent for graceful power off. Query is
// unsupported: a sleeping or powered-off PC does not answer WoL.
type PCWake struct{}

const defaultWakePort = 9

func (PCWake) PowerOn(ctx context.Context, d *device.Device) error {
	if d.Credentials == nil || d.Credentials.MAC == "" {
		return fmt.Errorf("%w: pc_wake device missing mac address", ErrProtocol)
	}
	packet, err := magicPacket(d.Credentials.MAC)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	port := d.Credentials.WakePort
	if port == 0 {
		port = defaultWakePort
	}
	broadcast := &net.UDPAddr{IP: net.IPv4bcast, Port: port}
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}

	// The magic packet is sent repeatedly since UDP broadcast delivery is
	// unreliable and WoL listeners tolerate duplicates.
	for i := 0; i < 16; i++ {
		if _, err := conn.WriteToUDP(packet, broadcast); err != nil {
			return classifyDialError(err)
		}
	}
	return nil
}

func (PCWake) PowerOff(ctx context.Context, d *device.Device) error {
	port := d.Port
	if port == 0 {
		return fmt.Errorf("%w: pc_wake device missing management port for shutdown", ErrProtocol)
	}
	conn, err := dial(ctx, d.Host, port)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("SHUTDOWN\n")); err != nil {
		return classifyDialError(err)
	}
	reply, err := readLine(ctx, conn, 128)
	if err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(reply), "ok") {
		return fmt.Errorf("%w: unexpected shutdown ack %q", ErrProtocol, reply)
	}
	return nil
}

func (PCWake) QueryPower(ctx context.Context, d *device.Device) (PowerState, error) {
	return PowerUnknown, fmt.Errorf("%w: pc_wake does not support power query", ErrProtocol)
}

// magicPacket builds the standard WoL payload: 6 bytes of 0xFF followed by
// the target MAC address repeated 16 times.
func magicPacket(mac string) ([]byte, error) {
	clean := strings.ReplaceAll(strings.ReplaceAll(mac, ":", ""), "-", "")
	raw, err := hex.DecodeString(clean)
	if err != nil || len(raw) != 6 {
		return nil, fmt.Errorf("invalid mac address %q", mac)
	}
	packet := make([]byte, 0, 6+16*6)
	packet = append(packet, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
	for i := 0; i < 16; i++ {
		packet = append(packet, raw...)
	}
	return packet, nil
}
