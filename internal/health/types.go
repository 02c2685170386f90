package health

import "time"

// probeTimeout is the fixed per-probe ceiling; a probe that
// hasn't answered by then is reported unreachable, never retried here.
const probeTimeout = 3 * time.Second

// Result is the outcome of a single probe attempt against one device.
type Result struct {
	Reachable bool
	LatencyMS int64
	Detail    string
}
