// Package api implements the HTTP surface of the standings server on a
// gorilla/mux router.
//
// Routes:
//
//	POST /load-result             ingest the latest race session
//	POST /load-result-qualifier   ingest the latest qualifying session
//	GET  /standings?limit=N       standings as JSON, points descending
//	GET  /standings.txt?limit=N   the same rows as a text table
//	GET  /healthz                 database reachability
//	GET  /metrics                 Prometheus exposition (when mounted)
//	GET  /ws/standings            websocket stream (when mounted)
//
// Load bodies are {"admin_password": "...", "result": "optional.json"} and
// succeed with the JSON string "OK". Every error body is {"detail": "..."}.
// Rows with equal points are returned in whatever order the store produces.
package api
