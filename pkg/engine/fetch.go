package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// DefaultClient is the HTTP client shared by adapters that don't need a
// customized transport. Adapters requiring per-domain connection pooling
// (the recrawler's fetch pool) construct their own.
var DefaultClient = &http.Client{}

// Fetch executes cfg against client and returns the response body. It is
// the shared second half of Engine.Search: BuildRequest produces cfg,
// Fetch performs the I/O, ParseResponse consumes the body.
func Fetch(ctx context.Context, client *http.Client, cfg RequestConfig) ([]byte, error) {
	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(cfg.Body) > 0 {
		body = bytes.NewReader(cfg.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, body)
	if err != nil {
		return nil, fmt.Errorf("engine: build request for %s: %w", cfg.URL, err)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range cfg.Cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	if client == nil {
		client = DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch %s: %w", cfg.URL, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("engine: read body from %s: %w", cfg.URL, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("engine: %s returned status %d", cfg.URL, resp.StatusCode)
	}
	return data, nil
}
