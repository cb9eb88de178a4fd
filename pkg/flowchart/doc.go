// Package flowchart provides a minimal public façade for building
// flowcharts from instructions without importing internal packages. It
// re-exports the core graph and delta types for convenience and exposes
// a Runtime with simple methods to open sessions, apply steps, and read
// back the DOT text.
package flowchart
