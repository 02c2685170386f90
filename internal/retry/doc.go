// Package retry implements the Retry Executor: bounded attempts with
// exponential backoff around a single adapter call,
// producing one outcome classification that the Device Manager turns
// into an ActionRecord.
package retry
