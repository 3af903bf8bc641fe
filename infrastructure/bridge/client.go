package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"seedflow/infrastructure/config"
)

const maxBodyBytes = 8 << 20

// Client talks to the plant's HTTP bridge in front of SAP and the CLP. Every
// endpoint is a GET with query parameters.
type Client struct {
	base   *url.URL
	paths  config.BridgeConfig
	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg config.BridgeConfig, logger *zap.Logger) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("bridge base url is required")
	}
	base, err := url.Parse(raw + "/")
	if err != nil {
		return nil, fmt.Errorf("parse bridge base url: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base:   base,
		paths:  cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger.Named("bridge"),
	}, nil
}

// get issues the request and returns the raw body of a 2xx answer.
func (c *Client) get(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("bridge %s: bad path %q: %w", op, path, err)
	}
	u := c.base.ResolveReference(ref)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// *url.Error carries the full URL, which includes credentials for some calls.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		c.logger.Warn("bridge request failed", zap.String("op", op), zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		c.logger.Warn("bridge returned error status", zap.String("op", op), zap.Int("status", resp.StatusCode), zap.String("body", snippet))
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", snippet)}
	}

	c.logger.Debug("bridge request", zap.String("op", op), zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)), zap.Duration("elapsed", time.Since(started)))
	return body, nil
}

// decodeArray accepts only a JSON array; null or an object is malformed.
func decodeArray[T any](op string, body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, malformed(op, nil)
	}
	out := make([]T, 0)
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, malformed(op, err)
	}
	return out, nil
}
