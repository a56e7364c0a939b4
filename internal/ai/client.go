// Package ai is the thin client for the external "core engine" that
// interprets and normalizes free-text clinical entries. The engine does not
// perform any interpretation itself — it consumes the normalized term the
// core engine returns and classifies it against the code catalog.
//
// The package exposes a narrow Normalizer interface so services can be
// tested with stubs; the HTTP implementation keeps no state beyond its
// http.Client and is safe for concurrent use.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable wraps transport-level failures talking to the core engine
// so callers can map them to a distinct HTTP error code.
var ErrUnavailable = errors.New("core engine unavailable")

// Interpretation is the core engine's answer for one clinical entry.
type Interpretation struct {
	// Term is the normalized, spelling-corrected medical term to classify.
	Term string `json:"term"`
	// Summary is the engine's free-text interpretation of the entry.
	Summary string `json:"summary"`
}

// Normalizer is the contract services depend on. Implementations must honor
// the provided context for cancellation and timeouts.
type Normalizer interface {
	// Normalize interprets raw clinical text of the given kind
	// ("diagnosis", "procedure", "medication").
	Normalize(ctx context.Context, kind, text string) (*Interpretation, error)
}

// Client calls the core engine over HTTP/JSON.
type Client struct {
	// BaseURL is the engine root, e.g. "http://core-engine:9000".
	BaseURL string
	// HTTPClient defaults to a client with a 15s timeout when nil.
	HTTPClient *http.Client
}

// NewClient constructs a Client with a sane default timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// normalizeRequest is the wire payload for POST /v1/normalize.
type normalizeRequest struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Normalize posts the entry to the core engine and decodes its
// interpretation. Transport failures and 5xx responses are wrapped in
// ErrUnavailable; a 4xx response is returned verbatim since it indicates a
// caller bug rather than an outage.
func (c *Client) Normalize(ctx context.Context, kind, text string) (*Interpretation, error) {
	body, err := json.Marshal(normalizeRequest{Kind: kind, Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/normalize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("core engine rejected request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out Interpretation
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: bad response body: %v", ErrUnavailable, err)
	}
	if strings.TrimSpace(out.Term) == "" {
		// fall back to the operator's text so classification still runs
		out.Term = text
	}
	return &out, nil
}
