package genclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// transport performs JSON requests against one service.
type transport struct {
	cfg  ServiceConfig
	http *http.Client
}

func (t *transport) url(path string) string {
	return strings.TrimRight(t.cfg.BaseURL, "/") + path
}

// postJSON marshals body, POSTs it to path within timeout and returns the
// raw response body of a 2xx response.
func (t *transport) postJSON(ctx context.Context, op, path string, timeout time.Duration, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("genclient: %s %s: marshal request: %w", t.cfg.Name, op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url(path), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("genclient: %s %s: create request: %w", t.cfg.Name, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return t.do(req, op)
}

// getJSON GETs path within timeout and returns the raw 2xx response body.
func (t *transport) getJSON(ctx context.Context, op, path string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url(path), nil)
	if err != nil {
		return nil, fmt.Errorf("genclient: %s %s: create request: %w", t.cfg.Name, op, err)
	}
	req.Header.Set("Accept", "application/json")

	return t.do(req, op)
}

func (t *transport) do(req *http.Request, op string) ([]byte, error) {
	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genclient: %s %s: %w", t.cfg.Name, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("genclient: %s %s: read response: %w", t.cfg.Name, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{
			Service:    t.cfg.Name,
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       truncate(body),
		}
	}
	return body, nil
}

// decode unmarshals a response body, wrapping failures in ErrMalformedResponse.
func decode(service string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, service, err)
	}
	return nil
}
