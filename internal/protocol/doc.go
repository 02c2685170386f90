// Package protocol implements the Protocol Adapters named in the device
// catalogue's type tag: telnet_projector, jsonrpc_projector, pc_wake,
// generic_tcp, and the supplemented cubes_tcp. Every adapter opens a
// single short-lived connection per call, classifies failures into
// ErrUnreachable, ErrTimeout, or ErrProtocol, and never retries — the
// Retry Executor owns retry policy.
package protocol
