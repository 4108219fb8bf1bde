package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	listPath     = "/api/results/list.json"
	downloadPath = "/results/download/"

	// maxDocumentBytes bounds how much of an upstream body is decoded.
	maxDocumentBytes = 16 << 20
)

var (
	// ErrUpstreamUnavailable is returned when the results API cannot be
	// reached or answers with a non-success status.
	ErrUpstreamUnavailable = errors.New("results: upstream unavailable")

	// ErrNoResultsFound is returned when the listing has no entries.
	ErrNoResultsFound = errors.New("results: no results found")

	// ErrMalformedData is returned when a document lacks expected fields.
	ErrMalformedData = errors.New("results: malformed upstream data")

	// ErrInvalidResultName is returned by Download for names that are not
	// a .json result file.
	ErrInvalidResultName = errors.New("results: result json is required")
)

// UpstreamError records the non-success status returned by the results API.
// It matches ErrUpstreamUnavailable with errors.Is.
type UpstreamError struct {
	URL        string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("results: GET %s returned HTTP %d", e.URL, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstreamUnavailable }

// Client fetches result listings and documents from the racing-server API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for baseURL whose requests are bounded by timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Latest returns the most recent result document of the given kind. The
// listing is assumed to be ordered most recent first.
func (c *Client) Latest(ctx context.Context, kind Kind) (*Session, error) {
	listURL := c.baseURL + listPath + "?" + url.Values{"q": {string(kind)}}.Encode()

	var list listResponse
	if err := c.getJSON(ctx, listURL, &list); err != nil {
		return nil, err
	}
	if len(list.Results) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoResultsFound, kind)
	}

	ref := list.Results[0].ResultsJSONURL
	if ref == "" {
		return nil, fmt.Errorf("%w: listing entry without results_json_url", ErrMalformedData)
	}

	docURL, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}
	return c.fetchSession(ctx, kind, docURL)
}

// Download fetches a named result file from the server's download area.
// name must end in ".json".
func (c *Client) Download(ctx context.Context, kind Kind, name string) (*Session, error) {
	if !strings.HasSuffix(name, ".json") || strings.ContainsAny(name, "/\\") || name == ".json" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResultName, name)
	}
	return c.fetchSession(ctx, kind, c.baseURL+downloadPath+url.PathEscape(name))
}

func (c *Client) fetchSession(ctx context.Context, kind Kind, docURL string) (*Session, error) {
	var doc resultDocument
	if err := c.getJSON(ctx, docURL, &doc); err != nil {
		return nil, err
	}

	sess, err := parseSession(&doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedData, docURL, err)
	}
	sess.Kind = kind
	sess.Source = docURL

	slog.Debug("results: session fetched",
		"kind", kind.String(),
		"url", docURL,
		"entries", len(sess.Entries),
		"best_lap", sess.BestLap,
	)
	return sess, nil
}

// resolve turns a results_json_url into an absolute URL. Relative references
// are appended to the base URL verbatim.
func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: results_json_url %q: %v", ErrMalformedData, ref, err)
	}
	if u.IsAbs() {
		return ref, nil
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return c.baseURL + ref, nil
}

// getJSON performs an HTTP GET to rawURL and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, rawURL string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("results: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrUpstreamUnavailable, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return &UpstreamError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentBytes)).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformedData, rawURL, err)
	}
	return nil
}

// parseSession validates the raw document and flattens it into a Session.
func parseSession(doc *resultDocument) (*Session, error) {
	sr := doc.SessionResult
	if sr == nil {
		return nil, errors.New("missing sessionResult")
	}
	if sr.LeaderBoardLines == nil {
		return nil, errors.New("missing sessionResult.leaderBoardLines")
	}
	if sr.BestLap == nil {
		return nil, errors.New("missing sessionResult.bestlap")
	}

	lines := *sr.LeaderBoardLines
	sess := &Session{
		BestLap: *sr.BestLap,
		Entries: make([]Entry, 0, len(lines)),
	}
	for i, line := range lines {
		if line.CurrentDriver == nil {
			return nil, fmt.Errorf("leaderBoardLines[%d]: missing currentDriver", i)
		}
		if len(line.CurrentDriver.PlayerID) < 2 {
			return nil, fmt.Errorf("leaderBoardLines[%d]: invalid playerId %q", i, line.CurrentDriver.PlayerID)
		}
		if line.Timing == nil || line.Timing.BestLap == nil {
			return nil, fmt.Errorf("leaderBoardLines[%d]: missing timing.bestLap", i)
		}
		d := line.CurrentDriver
		sess.Entries = append(sess.Entries, Entry{
			Position:  i + 1,
			PlayerID:  d.PlayerID,
			FirstName: d.FirstName,
			LastName:  d.LastName,
			ShortName: d.ShortName,
			BestLap:   *line.Timing.BestLap,
		})
	}
	return sess, nil
}
