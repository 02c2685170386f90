// Package devicemgr implements the Device Manager: target
// resolution, bounded-parallel fan-out through the Retry Executor, and
// ExecutionReport assembly. See manager.go.
package devicemgr
