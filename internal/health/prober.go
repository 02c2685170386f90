package health

import (
	"context"

	"github.com/d0ssh1/Auto-Aquarium/internal/device"
)

// Prober is the Health Prober. It holds no state of its own — every
// probe is a fresh, independent attempt — so a single Prober is safe
// to share across the Monitor's probe cycle goroutines.
type Prober struct{}

// New returns a Prober.
func New() *Prober { return &Prober{} }

// Probe reaches d according to its ProbeSpec and reports reachability
// and latency. It never retries: the Monitor's debounce state machine
// is responsible for how repeated failures are interpreted.
func (p *Prober) Probe(ctx context.Context, d *device.Device) Result {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	spec := d.ProbeSpec
	switch spec.Kind {
	case device.ProbeICMP, "":
		if result, attempted := probeICMP(ctx, d.Host); attempted {
			return result
		}
		// Raw socket unavailable (no CAP_NET_RAW) — fall back to a TCP
		// connect probe on the device's configured port, or 80 if none.
		port := spec.Port
		if port == 0 {
			port = d.Port
		}
		if port == 0 {
			port = 80
		}
		return probeTCP(ctx, d.Host, port)
	case device.ProbeHTTP:
		port := spec.Port
		if port == 0 {
			port = d.Port
		}
		if port == 0 {
			port = 80
		}
		return probeHTTP(ctx, d.Host, port, spec.Path)
	case device.ProbeTCP:
		fallthrough
	default:
		port := spec.Port
		if port == 0 {
			port = d.Port
		}
		return probeTCP(ctx, d.Host, port)
	}
}
