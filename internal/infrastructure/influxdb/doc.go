// Package influxdb provides optional panel-event telemetry.
//
// When enabled, every dispatched panel change is recorded as a point in
// the panel_event measurement, tagged by subject and partition/zone
// number. Writes are non-blocking and batched by the InfluxDB v2 client,
// so a slow or unreachable server never stalls panel processing; async
// write errors surface through the SetOnError callback and are logged.
//
// Example configuration (in config.yaml):
//
//	influxdb:
//	  enabled: true
//	  url: "http://localhost:8086"
//	  token: "your-token"
//	  org: "home"
//	  bucket: "dsc"
//	  batch_size: 100
//	  flush_interval: 10
//
// Disabled by default; Connect returns ErrDisabled and the bridge runs
// without telemetry.
package influxdb
