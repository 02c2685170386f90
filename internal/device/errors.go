package device

import "errors"

// Domain errors for the device package. Check with errors.Is.
var (
	// ErrDeviceNotFound is returned when a device id does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrGroupNotFound is returned when a group id does not exist.
	ErrGroupNotFound = errors.New("device: group not found")

	// ErrInvalidDevice is returned when device validation fails
	// (missing required field, bad type, malformed probe spec).
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrDuplicateID is returned when two devices or two groups share an id.
	ErrDuplicateID = errors.New("device: duplicate id")

	// ErrUnknownTarget is returned when a scheduler/API target string does
	// not parse as device:<id>, group:<id>, or all.
	ErrUnknownTarget = errors.New("device: unresolvable target")
)
