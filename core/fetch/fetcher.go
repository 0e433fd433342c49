// Package fetch retrieves single BioC documents from the remote service.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gaurav-prasanna/biocpipe/core"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "biocpipe/1.0 (https://github.com/gaurav-prasanna/biocpipe)"
)

// Placeholder is replaced by the path-escaped identifier in URL templates.
const Placeholder = "{id}"

// Options configures a Client.
type Options struct {
	URLTemplate string
	UserAgent   string
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Client fetches BioC JSON documents by identifier.
type Client struct {
	client    *http.Client
	template  string
	userAgent string
}

// New creates a Client. The URL template must contain {id}.
func New(opts Options) (*Client, error) {
	if !strings.Contains(opts.URLTemplate, Placeholder) {
		return nil, fmt.Errorf("%w: url template %q has no %s placeholder", core.ErrInvalidConfig, opts.URLTemplate, Placeholder)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{client: hc, template: opts.URLTemplate, userAgent: opts.UserAgent}, nil
}

// URL returns the document URL for id.
func (c *Client) URL(id string) string {
	return strings.ReplaceAll(c.template, Placeholder, url.PathEscape(id))
}

// FetchDocument retrieves the raw payload for id. The payload is returned
// as served once it is known to be JSON and not an error envelope.
func (c *Client) FetchDocument(ctx context.Context, id string) ([]byte, error) {
	target := c.URL(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &core.StatusError{URL: target, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if err := checkPayload(id, body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkPayload rejects non-JSON bodies and error envelopes. The service
// answers unknown identifiers with 200 and a body such as
// {"error": "...", "pmcid": "..."}, so envelopes are detected by shape.
func checkPayload(id string, body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return fmt.Errorf("%w: response for %s is not JSON", core.ErrMalformedPayload, id)
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return fmt.Errorf("%w: %v", core.ErrMalformedPayload, err)
	}
	rawErr, hasErr := probe["error"]
	if _, hasDocs := probe["documents"]; hasDocs || !hasErr {
		return nil
	}

	msg := string(rawErr)
	var s string
	if json.Unmarshal(rawErr, &s) == nil {
		msg = s
	}
	return &core.EnvelopeError{ID: id, Message: msg}
}
