// Package protocol implements the Protocol Adapters: one driver per
// device family, each opening a short-lived network session to issue a
// power command or a status query. Adapters never pool connections and
// never retry internally — retrying is the Retry Executor's job
// (internal/retry).
package protocol

import (
	"context"
	"errors"
	"fmt"

	"github.com/d0ssh1/Auto-Aquarium/internal/device"
)

// PowerState is the result of a query_power call.
type PowerState string

const (
	PowerOn      PowerState = "on"
	PowerOff     PowerState = "off"
	PowerUnknown PowerState = "unknown"
)

// Sentinel errors. Adapters classify every failure into exactly one of
// these so the Retry Executor and Action Log can report a stable outcome
// kind without inspecting adapter-specific error text.
var (
	// ErrUnreachable classifies connection refused, no route to host,
	// or a connection closed before any reply as UnreachableError.
	ErrUnreachable = errors.New("protocol: device unreachable")

	// ErrTimeout maps to TimeoutError: a deadline elapsed, either while
	// connecting or mid-exchange after the session opened.
	ErrTimeout = errors.New("protocol: timeout")

	// ErrProtocol maps to ProtocolError: the device responded, but not
	// with an expected acknowledgement, or the action is unsupported by
	// this device family (e.g. generic_tcp power_on/off).
	ErrProtocol = errors.New("protocol: unexpected response")
)

// Adapter is the capability set every device family implements.
type Adapter interface {
	PowerOn(ctx context.Context, d *device.Device) error
	PowerOff(ctx context.Context, d *device.Device) error
	QueryPower(ctx context.Context, d *device.Device) (PowerState, error)
}

// ForType returns the Adapter implementation for a device type. The
// Device Manager looks up the adapter by the device's own type tag.
func ForType(t device.Type) (Adapter, error) {
	switch t {
	case device.TypeTelnetProjector:
		return TelnetProjector{}, nil
	case device.TypeJSONRPCProjector:
		return JSONRPCProjector{}, nil
	case device.TypePCWake:
		return PCWake{}, nil
	case device.TypeGenericTCP:
		return GenericTCP{}, nil
	case device.TypeCubesTCP:
		return CubesTCP{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown device type %q", ErrProtocol, t)
	}
}
