package health

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// probeHTTP reports a device reachable if a GET against host:port/path
// returns a 2xx or 3xx status within probeTimeout.
func probeHTTP(ctx context.Context, host string, port int, path string) Result {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if path == "" {
		path = "/"
	}
	url := fmt.Sprintf("http://%s:%d%s", host, port, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Detail: err.Error()}
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{Detail: err.Error()}
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return Result{Reachable: true, LatencyMS: latency}
	}
	return Result{Detail: fmt.Sprintf("unexpected status %d", resp.StatusCode), LatencyMS: latency}
}
