package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// transport wraps an HTTP client with an optional per-policy rate limiter.
// One transport is built per adapter run so the limiter tracks the active
// policy's maxReqPerMin ceiling.
type transport struct {
	client  *http.Client
	limiter *rate.Limiter
	headers map[string]string
}

func newTransport(client *http.Client, maxReqPerMin int, headers map[string]string) *transport {
	t := &transport{client: client, headers: headers}
	if maxReqPerMin > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(float64(maxReqPerMin)/60.0), 1)
	}
	return t
}

func (t *transport) do(ctx context.Context, method, url string, body, out interface{}) error {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, url, resp.StatusCode, bytes.TrimSpace(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response from %s: %w", url, err)
		}
	}
	return nil
}

func (t *transport) getJSON(ctx context.Context, url string, out interface{}) error {
	return t.do(ctx, http.MethodGet, url, nil, out)
}

func (t *transport) postJSON(ctx context.Context, url string, body, out interface{}) error {
	return t.do(ctx, http.MethodPost, url, body, out)
}

// defaultHTTPClient is shared by all adapters; per-request deadlines come
// from the job context, per-phase ceilings from each adapter's poll policy.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
