package health

import (
	"context"
	"fmt"
	"net"
	"time"
)

// probeTCP reports a device reachable if a TCP connection to host:port
// completes within probeTimeout.
func probeTCP(ctx context.Context, host string, port int) Result {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
	if err != nil {
		return Result{Detail: err.Error()}
	}
	conn.Close()
	return Result{Reachable: true, LatencyMS: time.Since(start).Milliseconds()}
}
