// Package metrics keeps the ingestion counters of the standings server as
// Prometheus metric families and serves them in the text exposition format.
package metrics
