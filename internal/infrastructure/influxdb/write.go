package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// EmitGauge writes a single gauge sample, satisfying monitor.MetricsSink.
// tags are carried onto the point verbatim; name becomes the
// measurement.
func (c *Client) EmitGauge(name string, value float64, tags map[string]string) {
	if !c.IsConnected() {
		return
	}
	point := write.NewPoint(
		name,
		tags,
		map[string]interface{}{"value": value},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and
// fields, timestamped now. Use this for samples that don't fit the
// single-value gauge shape.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom point with an explicit timestamp,
// for samples recorded after the fact (e.g. a backfilled probe result).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
