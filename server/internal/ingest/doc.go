// Package ingest runs one admin load from request to committed standings.
//
// Service.Load checks the admin password, fetches the latest (or a named)
// session through a Fetcher, applies it through the standings Aggregator in
// a single transaction and, once committed, updates the metrics registry,
// wakes the websocket hub and hands a notification to the webhook notifier.
// A failure at any step before the commit leaves the table untouched.
package ingest
