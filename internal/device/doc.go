// Package device provides the device/group catalogue for the AV
// device-control engine.
//
// The Registry is the in-memory, read-only-after-load source of truth for
// which devices and groups exist. It is loaded once from the configuration
// document at startup and mirrored into SQLite (Repository) so the
// catalogue survives restarts. Registry.Load validates a snapshot fully
// before swapping it in; a failed Load leaves the previous snapshot
// untouched. The engine has no SIGHUP reload.
package device
