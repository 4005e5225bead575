package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePanelEvent records one dispatched panel change.
//
// The write is non-blocking; points are batched and sent asynchronously.
// Tags stay low-cardinality (subject and number), the boolean value is
// the field.
//
// Parameters:
//   - subject: The fact that changed (e.g. "armed", "zone_open")
//   - number: 1-based partition or zone number, 0 for panel-wide facts
//   - value: The new value
//
// Example:
//
//	client.WritePanelEvent("zone_open", 5, true)
//	client.WritePanelEvent("power", 0, false)
func (c *Client) WritePanelEvent(subject string, number int, value bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"panel_event",
		map[string]string{
			"subject": subject,
			"number":  strconv.Itoa(number),
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WritePanelEvent.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
