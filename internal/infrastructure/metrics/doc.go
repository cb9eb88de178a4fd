// Package metrics exposes expvar-published counters and gauges for the
// flowchart pipeline (instructions, merges, renders, sessions). It
// intentionally avoids external dependencies and is consumed by the
// optional server for /debug/vars and /metrics endpoints.
package metrics
