// Package influxdb provides an optional time-series sink for fleet
// health and device-probe samples, backed by
// github.com/influxdata/influxdb-client-go/v2.
//
// # Purpose
//
// This package handles time-series storage for:
//   - Monitor gauge emissions via EmitGauge, which satisfies
//     monitor.MetricsSink: the Monitor emits the fleet's online and
//     offline device counts once per probe cycle; it emits no
//     per-device failure counts or probe latency
//   - Arbitrary custom points via WritePoint/WritePointWithTime, for
//     anything that doesn't fit the gauge shape
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "...",
//	    Org:     "avengine",
//	    Bucket:  "fleet_metrics",
//	}
//
//	client, err := influxdb.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.EmitGauge("device_response_ms", 12.5, map[string]string{"device_id": "rack-a-amp-1"})
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
//
// # Error Handling
//
// Writes go through the client library's non-blocking write API; async
// write errors surface through the callback registered with SetOnError.
// Connect and HealthCheck errors are returned directly.
package influxdb
