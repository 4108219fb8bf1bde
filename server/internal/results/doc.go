// Package results fetches session result documents from the racing-server
// HTTP API.
//
// Latest(kind) reads GET {base}/api/results/list.json?q=R|Q, takes the first
// (most recent) entry and downloads its results_json_url. Download(name)
// fetches {base}/results/download/{name} directly. Both decode the document
// into a Session whose Entries are ordered by finishing position.
//
// Failures map onto sentinels: ErrUpstreamUnavailable (transport error or
// non-200, the latter as *UpstreamError with the status), ErrNoResultsFound
// (empty listing), ErrMalformedData (missing fields or bad JSON). There is no
// retry and no cache; each call is bounded by the client timeout.
package results
