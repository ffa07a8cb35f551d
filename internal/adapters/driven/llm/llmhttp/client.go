// Package llmhttp is the JSON-over-HTTP transport the LLM adapters share.
// Every failure it returns wraps domain.ErrLLMUnavailable.
package llmhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// maxErrorBody caps how much of a failed response ends up in an error.
const maxErrorBody = 2048

// Client sends requests to one provider. Header is added to every request.
type Client struct {
	provider string
	baseURL  string
	header   http.Header
	http     *http.Client
}

func New(provider, baseURL string, timeout time.Duration, header http.Header) *Client {
	if header == nil {
		header = http.Header{}
	}
	return &Client{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		header:   header,
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Post encodes in as JSON and decodes a 2xx response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", c.provider, err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), out)
}

// Get decodes a 2xx response into out, or discards it when out is nil.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, http.NoBody, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrLLMUnavailable, c.provider, err)
	}
	for k, vs := range c.header {
		req.Header[k] = vs
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrLLMUnavailable, c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s %s returned %d: %s",
			domain.ErrLLMUnavailable, c.provider, path, resp.StatusCode, ErrorMessage(raw))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decoding %s response: %v", domain.ErrLLMUnavailable, c.provider, path, err)
	}
	return nil
}

// ErrorMessage pulls the human-readable message out of a provider error
// body. It understands {"error":{"message":...}} and {"error":"..."} and
// falls back to the trimmed body.
func ErrorMessage(raw []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && len(envelope.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if json.Unmarshal(envelope.Error, &flat) == nil && flat != "" {
			return flat
		}
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return "(empty body)"
	}
	return msg
}
