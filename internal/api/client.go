// Package api holds the typed clients for the external catalog REST API.
// Every response arrives in the {success, successMessage, errorMessage, data}
// envelope; every request carries the stored bearer token when one exists.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	applog "samsonix/internal/log"
)

// ErrUnauthorized marks a 401 from the backend. The token slot has already
// been cleared by the time a caller sees it; the only sane reaction is a
// redirect to the login page.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is an envelope-level failure (success=false or a non-2xx status).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// NetworkError is a request that failed before any envelope was obtained.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "catalog api unreachable: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// TokenSource yields the current bearer token, "" when logged out.
type TokenSource interface {
	Get() (string, error)
}

type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource

	// Fired once per 401 response, before the call returns ErrUnauthorized.
	// Wired to the session manager's forced logout.
	onUnauthorized func()
}

func NewClient(base string, tokens TokenSource) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: 30 * time.Second},
		tokens: tokens,
	}
}

func (c *Client) OnUnauthorized(fn func()) { c.onUnauthorized = fn }

type envelope struct {
	Success        bool            `json:"success"`
	SuccessMessage string          `json:"successMessage"`
	ErrorMessage   string          `json:"errorMessage"`
	Data           json.RawMessage `json:"data"`
}

// do runs one backend call and decodes the envelope. A missing token is not
// a client-side short circuit: the request simply goes out unauthenticated.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*envelope, error) {
	url := c.base + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok, err := c.tokens.Get(); err == nil && tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		applog.Backend(method, url, 0, time.Since(start), err)
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	applog.Backend(method, url, resp.StatusCode, time.Since(start), nil)

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, ErrUnauthorized
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	var env envelope
	if jerr := json.Unmarshal(raw, &env); jerr != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("request failed with status %d", resp.StatusCode)}
		}
		return nil, &NetworkError{Err: jerr}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Success {
		msg := env.ErrorMessage
		if msg == "" {
			msg = "Request failed"
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	return &env, nil
}

// getJSON runs a call and unmarshals the envelope data into out (skipped when
// out is nil or the data is empty).
func (c *Client) getJSON(ctx context.Context, method, path, contentType string, body io.Reader, out any) (string, error) {
	env, err := c.do(ctx, method, path, contentType, body)
	if err != nil {
		return "", err
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", &NetworkError{Err: err}
		}
	}
	return env.SuccessMessage, nil
}
