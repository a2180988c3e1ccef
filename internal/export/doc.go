// Package export renders device snapshots for external consumers.
//
// Three surfaces share one field layout:
//
//   - JSON and InfluxDB line protocol strings for the query command
//   - A batching InfluxDB v2 push writer for watch mode
//   - A Prometheus collector for serve mode
//
// Field names are identical across surfaces so dashboards can switch
// between pull and push ingestion without remapping.
package export
