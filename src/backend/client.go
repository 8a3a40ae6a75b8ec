package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"folio-server/src/models"

	"github.com/rs/zerolog"
)

const maxErrorBody = 64 << 10

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// Retries applies to GET requests only.
	Retries    int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client talks to the portfolio backend. It is safe for concurrent use.
type Client struct {
	base    string
	token   string
	http    *http.Client
	retries int
	backoff time.Duration
	log     zerolog.Logger
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 250 * time.Millisecond
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		base:    opts.BaseURL,
		token:   opts.Token,
		http:    hc,
		retries: opts.Retries,
		backoff: opts.Backoff,
		log:     opts.Logger.With().Str("component", "backend").Logger(),
	}
}

// get issues an idempotent request, retrying transient failures.
func (c *Client) get(ctx context.Context, path string, out any) error {
	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(attempt)
			c.log.Warn().Err(err).Str("path", path).Int("attempt", attempt).Dur("wait", wait).Msg("retrying backend read")
			select {
			case <-ctx.Done():
				return &APIError{Kind: KindNetwork, Method: http.MethodGet, Path: path, Err: ctx.Err()}
			case <-time.After(wait):
			}
		}
		err = c.do(ctx, http.MethodGet, path, nil, "", out)
		var apiErr *APIError
		if err == nil || ctx.Err() != nil || !errors.As(err, &apiErr) || !apiErr.Transient() {
			return err
		}
	}
	return err
}

// send issues a mutation exactly once.
func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return &APIError{Kind: KindDecode, Method: method, Path: path, Err: err}
		}
		body = bytes.NewReader(buf)
	}
	return c.do(ctx, method, path, body, "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return &APIError{Kind: KindNetwork, Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Kind: KindNetwork, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).Msg("backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Kind:   kindForStatus(resp.StatusCode),
			Status: resp.StatusCode,
			Method: method,
			Path:   path,
			Detail: parseDetail(raw),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) || ctx.Err() != nil {
			return &APIError{Kind: KindNetwork, Method: method, Path: path, Err: err}
		}
		return &APIError{Kind: KindDecode, Method: method, Path: path, Err: err}
	}
	return nil
}

func invalidPayload(method, path string, err error) error {
	return &APIError{Kind: KindDecode, Method: method, Path: path, Err: fmt.Errorf("payload failed validation: %w", err)}
}

// getList fetches a JSON array and validates every element.
func getList[T any, PT interface {
	*T
	Validate() error
}](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	if err := models.ValidateAll[T, PT](out); err != nil {
		return nil, invalidPayload(http.MethodGet, path, err)
	}
	return out, nil
}

// getOne fetches a JSON object and validates it.
func getOne[T any, PT interface {
	*T
	Validate() error
}](ctx context.Context, c *Client, path string) (*T, error) {
	var out T
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	if err := PT(&out).Validate(); err != nil {
		return nil, invalidPayload(http.MethodGet, path, err)
	}
	return &out, nil
}

// sendOne issues a mutation and validates the returned entity.
func sendOne[T any, PT interface {
	*T
	Validate() error
}](ctx context.Context, c *Client, method, path string, in any) (*T, error) {
	var out T
	if err := c.send(ctx, method, path, in, &out); err != nil {
		return nil, err
	}
	if err := PT(&out).Validate(); err != nil {
		return nil, invalidPayload(method, path, err)
	}
	return &out, nil
}

func idPath(prefix string, id int) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}
