package devicemgr

import "errors"

var (
	// ErrUnresolvedTarget is returned when a target string ("all",
	// "device:<id>", "group:<id>") matches nothing in the Registry.
	// This is the one case where a bulk operation returns an error
	// instead of an ExecutionReport.
	ErrUnresolvedTarget = errors.New("devicemgr: target does not resolve to any device")

	// ErrBusy is returned when admission into the shared semaphore would
	// block for longer than the backpressure threshold.
	ErrBusy = errors.New("devicemgr: engine busy, try again later")
)
