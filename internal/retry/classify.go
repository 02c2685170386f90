package retry

import (
	"context"
	"errors"
	"strings"

	"github.com/d0ssh1/Auto-Aquarium/internal/protocol"
)

// ClassifyProtocolError maps a Protocol Adapter error to a retry Outcome.
func ClassifyProtocolError(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, protocol.ErrUnreachable):
		return Unreachable
	case errors.Is(err, protocol.ErrTimeout):
		return Timeout
	case errors.Is(err, protocol.ErrProtocol):
		return ProtocolErr
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	default:
		return Fail
	}
}

// NonRetriableMisconfiguration reports true for ProtocolError outcomes
// that stem from missing device configuration rather than a transient
// wire-protocol hiccup — e.g. a pc_wake device with no MAC address.
// These are surfaced after exactly one attempt, never retried.
func NonRetriableMisconfiguration(err error) bool {
	if !errors.Is(err, protocol.ErrProtocol) {
		return false
	}
	msg := err.Error()
	for _, sub := range []string{"missing mac address", "missing management port", "missing port"} {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}
