// Package health implements the Health Prober: a single
// probe(device) operation that reaches a device through whichever of
// ICMP echo, TCP connect, or HTTP GET its ProbeSpec names, and reports
// reachability and latency without ever retrying internally — retry
// policy belongs to the caller (the Monitor's debounce state machine).
package health
