package protocol

import (
	"context"
	"fmt"
	"strings"

	"github.com/d0ssh1/Auto-Aquarium/internal/device"
)

// TelnetProjector drives RS232-over-TCP projectors such as the Optoma
// family: a username/password login banner followed by single-line
// vendor commands, grounded on the original system's telnet client
// (power on "~0000 1", power off "~0000 0", status query "~00124 1").
type TelnetProjector struct{}

const (
	telnetPowerOnCmd    = "~0000 1\r"
	telnetPowerOffCmd   = "~0000 0\r"
	telnetPowerQueryCmd = "~00124 1\r"
)

func (TelnetProjector) PowerOn(ctx context.Context, d *device.Device) error {
	return telnetSendCommand(ctx, d, telnetPowerOnCmd)
}

func (TelnetProjector) PowerOff(ctx context.Context, d *device.Device) error {
	return telnetSendCommand(ctx, d, telnetPowerOffCmd)
}

func (TelnetProjector) QueryPower(ctx context.Context, d *device.Device) (PowerState, error) {
	reply, err := telnetExchange(ctx, d, telnetPowerQueryCmd)
	if err != nil {
		return PowerUnknown, err
	}
	switch {
	case strings.Contains(reply, "1"):
		return PowerOn, nil
	case strings.Contains(reply, "0"):
		return PowerOff, nil
	default:
		return PowerUnknown, fmt.Errorf("%w: unrecognised power query reply %q", ErrProtocol, reply)
	}
}

func telnetSendCommand(ctx context.Context, d *device.Device, cmd string) error {
	reply, err := telnetExchange(ctx, d, cmd)
	if err != nil {
		return err
	}
	if !strings.Contains(reply, "P") && !strings.Contains(reply, "ok") {
		return fmt.Errorf("%w: unexpected ack %q", ErrProtocol, reply)
	}
	return nil
}

// telnetExchange opens a session, logs in if credentials call for it, sends
// a single command, and returns the first response line.
func telnetExchange(ctx context.Context, d *device.Device, cmd string) (string, error) {
	port := d.Port
	if port == 0 {
		port = 23
	}
	conn, err := dial(ctx, d.Host, port)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if d.Credentials != nil && d.Credentials.Username != "" {
		// Drain the login banner, then present the username/password pair.
		// The Optoma banner is not a fixed string, so we read one line and
		// discard it rather than matching its content.
		if _, err := readLine(ctx, conn, 256); err != nil {
			return "", err
		}
		if _, err := conn.Write([]byte(d.Credentials.Username + "\r")); err != nil {
			return "", classifyDialError(err)
		}
		if d.Credentials.Password != "" {
			if _, err := readLine(ctx, conn, 256); err != nil {
				return "", err
			}
			if _, err := conn.Write([]byte(d.Credentials.Password + "\r")); err != nil {
				return "", classifyDialError(err)
			}
		}
	}

	if _, err := conn.Write([]byte(cmd)); err != nil {
		return "", classifyDialError(err)
	}
	return readLine(ctx, conn, 256)
}
