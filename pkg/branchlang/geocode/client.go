// Package geocode resolves postal codes to county names through a
// radius-search geocoding service.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/tidwall/gjson"
)

// DefaultEndpoint is the radius-search endpoint used when none is configured.
const DefaultEndpoint = "https://www.mapquestapi.com/search/v2/radius"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// Config holds the radius-search parameters.
type Config struct {
	Endpoint   string
	APIKey     string
	Radius     int
	MaxMatches int
	Timeout    time.Duration
}

// DefaultConfig returns the parameters of the reference run.
func DefaultConfig() Config {
	return Config{
		Endpoint:   DefaultEndpoint,
		Radius:     10,
		MaxMatches: 10,
		Timeout:    5 * time.Second,
	}
}

// Client queries the radius-search endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient returns a Client using a clean pooled transport and cfg.Timeout.
func NewClient(cfg Config) *Client {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = cfg.Timeout
	return NewClientWithHTTP(cfg, hc)
}

// NewClientWithHTTP returns a Client that sends requests through hc.
func NewClientWithHTTP(cfg Config, hc *http.Client) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &Client{cfg: cfg, http: hc}
}

// RequestURL builds the radius-search URL for postalCode. Parameters are
// encoded sorted by name, so equal inputs always give the same URL.
func (c *Client) RequestURL(postalCode string) (string, error) {
	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint %q: %w", c.cfg.Endpoint, err)
	}

	q := url.Values{}
	q.Set("key", c.cfg.APIKey)
	q.Set("origin", postalCode)
	q.Set("radius", strconv.Itoa(c.cfg.Radius))
	q.Set("maxMatches", strconv.Itoa(c.cfg.MaxMatches))
	q.Set("ambiguities", "ignore")
	q.Set("outFormat", "json")

	// Encode sorts by key.
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// County returns origin.adminArea4 for postalCode. Transport failures,
// non-2xx responses, a non-zero info.statuscode, and invalid JSON are
// NetworkErrors; an empty county is a LookupError.
func (c *Client) County(ctx context.Context, postalCode string) (string, error) {
	reqURL, err := c.RequestURL(postalCode)
	if err != nil {
		return "", &NetworkError{PostalCode: postalCode, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", &NetworkError{PostalCode: postalCode, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &NetworkError{PostalCode: postalCode, Err: redactKey(err, c.cfg.APIKey)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &NetworkError{PostalCode: postalCode, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &NetworkError{
			PostalCode: postalCode,
			Status:     resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	return parseCounty(postalCode, body)
}

// parseCounty extracts the county from a radius-search response body.
func parseCounty(postalCode string, body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", &NetworkError{PostalCode: postalCode, Err: errors.New("malformed JSON response")}
	}

	doc := gjson.ParseBytes(body)

	if status := doc.Get("info.statuscode"); status.Exists() && status.Int() != 0 {
		messages := make([]string, 0)
		for _, m := range doc.Get("info.messages").Array() {
			messages = append(messages, m.String())
		}
		return "", &NetworkError{
			PostalCode: postalCode,
			Err:        fmt.Errorf("service status %d: %s", status.Int(), strings.Join(messages, "; ")),
		}
	}

	county := strings.TrimSpace(doc.Get("origin.adminArea4").String())
	if county == "" {
		return "", &LookupError{PostalCode: postalCode}
	}

	return county, nil
}

// redactKey strips the API credential from transport errors, which embed
// the request URL. The original error stays reachable through Unwrap.
func redactKey(err error, key string) error {
	if key == "" {
		return err
	}
	msg := err.Error()
	for _, k := range []string{url.QueryEscape(key), key} {
		msg = strings.ReplaceAll(msg, k, "REDACTED")
	}
	if msg == err.Error() {
		return err
	}
	return &redactedError{msg: msg, err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }
