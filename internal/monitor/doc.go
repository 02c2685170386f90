// Package monitor implements the Monitor: a periodic probe cycle over
// the device Registry that maintains a debounced per-device
// health state machine and derives at most one fleet alert per cycle,
// appended to the Action Log and the Report Store.
package monitor
