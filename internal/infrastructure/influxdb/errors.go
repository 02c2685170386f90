package influxdb

import "errors"

// Sentinel errors for time-series database operations. Check with
// errors.Is.
var (
	// ErrNotConnected indicates the client is not connected.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled indicates the sink is disabled in configuration.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
