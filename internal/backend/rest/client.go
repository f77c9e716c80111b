// Package rest talks to a hosted backend over HTTP: PostgREST style
// table endpoints under /rest/v1 and GoTrue style auth under /auth/v1.
package rest

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

	"github.com/01moynul/storefront-golang/internal/backend"
)

// Client holds what both the data and auth sides need.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
	schema  *backend.Schema
}

// New builds a client for the backend at rawURL. apiKey is the public
// (anon) key sent on every request.
func New(rawURL, apiKey string, timeout time.Duration, schema *backend.Schema) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: scheme must be http or https", rawURL)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("backend api key is required")
	}
	return &Client{
		baseURL: u,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		schema:  schema,
	}, nil
}

// Backend returns the data and auth sides as one backend.Client.
func (c *Client) Backend() backend.Client {
	return backend.Client{DB: &DB{c: c}, Auth: &Auth{c: c}}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()
	return u.String()
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	token  string
	header map[string]string
}

func (c *Client) do(ctx context.Context, r request) (*http.Response, []byte, error) {
	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.endpoint(r.path, r.query), body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	token := r.token
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.header {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return resp, data, decodeError(resp.StatusCode, data)
	}
	return resp, data, nil
}

// decodeError turns an error body into *backend.Error. Both PostgREST
// ({code, message, details, hint}) and GoTrue ({error, error_description}
// or {msg}) shapes are understood.
func decodeError(status int, data []byte) error {
	var body struct {
		Code             any    `json:"code"`
		Message          string `json:"message"`
		Details          string `json:"details"`
		Hint             string `json:"hint"`
		Msg              string `json:"msg"`
		ErrorCode        string `json:"error_code"`
		ErrorName        string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(data, &body)

	e := &backend.Error{
		Status:  status,
		Message: body.Message,
		Details: body.Details,
		Hint:    body.Hint,
	}
	switch code := body.Code.(type) {
	case string:
		e.Code = code
	case float64:
		e.Code = fmt.Sprint(int(code))
	}
	if e.Code == "" {
		e.Code = body.ErrorCode
	}
	if e.Code == "" {
		e.Code = body.ErrorName
	}
	if e.Message == "" {
		e.Message = body.Msg
	}
	if e.Message == "" {
		e.Message = body.ErrorDescription
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(data))
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
