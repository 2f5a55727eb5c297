package itglue

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
)

const contentTypeJSONAPI = "application/vnd.api+json"

// listEnvelope / singleEnvelope are the JSON:API response shapes. Attributes
// stay a loose map because the registry's schema is operator-extensible.
type listEnvelope struct {
	Data []resourceData `json:"data"`
}

type singleEnvelope struct {
	Data resourceData `json:"data"`
}

type resourceData struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes"`
}

func (r resourceData) stringAttr(key string) string {
	value, _ := r.Attributes[key].(string)
	return value
}

func (r resourceData) mapAttr(key string) map[string]any {
	value, _ := r.Attributes[key].(map[string]any)
	return value
}

// getJSON performs a read through the rate limiter, retry budget and
// breaker.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any, operation string) error {
	start := time.Now()
	err := c.executor.Execute(ctx, operation, func(callCtx context.Context) error {
		return c.do(callCtx, http.MethodGet, path, query, nil, out, operation)
	}, classifyRegistryError)
	err = wrapRegistryError(operation, err)
	c.observe(operation, start, err)
	return err
}

// postJSON performs a mutating call. It still waits on the rate limiter but
// deliberately bypasses the retry executor.
func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	start := time.Now()
	err = wrapRegistryError(operation, c.do(ctx, http.MethodPost, path, nil, body, out, operation))
	c.observe(operation, start, err)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any, operation string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", contentTypeJSONAPI)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSONAPI)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("registry %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newStatusError(operation, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) observe(operation string, start time.Time, err error) {
	if c.observer == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = outcomeOf(err)
	}
	c.observer.ObserveRegistryCall(operation, outcome, time.Since(start))
}

type httpStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func newStatusError(operation string, resp *http.Response) *httpStatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &httpStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}

func (e *httpStatusError) Error() string {
	if e == nil {
		return "registry status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("registry %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("registry %s status: %s: %s", e.Operation, e.Status, e.Body)
}
