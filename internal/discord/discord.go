// Copyright (c) 2021-2026 Rustam Gilyazov and Contributors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package discord provides a limited implementation of the Discord web API
// necessary to list servers and channels, read and send messages, and
// enumerate DM conversations on behalf of a user account.  It mimics the
// requests that the Discord web client makes, including its identification
// headers, and authenticates with the user's bearer token.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	apiURL = "https://discord.com/api/v9"

	defTimeout = 30 * time.Second

	// perPageMax is the API page size cap for message listing.
	perPageMax = 100

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"

	// superProperties is the base64-encoded client identification blob that
	// the web client sends with every request.
	superProperties = "eyJvcyI6Ik1hYyBPUyBYIiwiYnJvd3NlciI6IkNocm9tZSIsImRldmljZSI6IiIsInN5c3RlbV9sb2NhbGUiOiJlbi1VUyIsImhhc19jbGllbnRfbW9kcyI6ZmFsc2UsImJyb3dzZXJfdXNlcl9hZ2VudCI6Ik1vemlsbGEvNS4wIChNYWNpbnRvc2g7IEludGVsIE1hYyBPUyBYIDEwXzE1XzcpIEFwcGxlV2ViS2l0LzUzNy4zNiAoS0hUTUwsIGxpa2UgR2Vja28pIENocm9tZS8xNDMuMC4wLjAgU2FmYXJpLzUzNy4zNiIsImJyb3dzZXJfdmVyc2lvbiI6IjE0My4wLjAuMCIsIm9zX3ZlcnNpb24iOiIxMC4xNS43IiwicmVmZXJyZXIiOiIiLCJyZWZlcnJpbmdfZG9tYWluIjoiIiwicmVmZXJyZXJfY3VycmVudCI6IiIsInJlZmVycmluZ19kb21haW5fY3VycmVudCI6IiIsInJlbGVhc2VfY2hhbm5lbCI6InN0YWJsZSIsImNsaWVudF9idWlsZF9udW1iZXIiOjQ4NDIxMiwiY2xpZW50X2V2ZW50X3NvdXJjZSI6bnVsbH0="
)

// Client is the Discord web API client.  A client is cheap to construct and
// is created fresh for every operation; it holds no state besides the token
// and the HTTP client.
type Client struct {
	cl     *http.Client
	apiURL string
	token  string
	lim    *rate.Limiter
	lg     *slog.Logger
}

// Option is a client construction option.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(cl *http.Client) Option {
	return func(c *Client) {
		if cl != nil {
			c.cl = cl
		}
	}
}

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.apiURL = u
		}
	}
}

// WithLimiter sets the rate limiter shared by requests of this client.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		if l != nil {
			c.lim = l
		}
	}
}

// WithLogger sets the logger.
func WithLogger(lg *slog.Logger) Option {
	return func(c *Client) {
		if lg != nil {
			c.lg = lg
		}
	}
}

// New creates a new client that authorises its requests with token.
func New(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("token is empty")
	}
	c := &Client{
		cl:     &http.Client{Timeout: defTimeout},
		apiURL: apiURL,
		token:  token,
		lim:    rate.NewLimiter(rate.Every(time.Second), 5),
		lg:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// get performs a GET request on path and decodes the response into v.
func (cl *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	u := cl.apiURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return cl.do(req, v)
}

// postJSON performs a POST request with a JSON body and decodes the response
// into v.
func (cl *Client) postJSON(ctx context.Context, path string, payload any, v any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cl.apiURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return cl.do(req, v)
}

// postMultipart performs a multipart/form-data POST with the message payload
// in the payload_json field and the file contents in files[0], which is the
// format the message attachment endpoint expects.
func (cl *Client) postMultipart(ctx context.Context, path string, payload any, filename string, file io.Reader, v any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	pj, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := mw.WriteField("payload_json", string(pj)); err != nil {
		return err
	}
	fw, err := mw.CreateFormFile("files[0]", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, file); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cl.apiURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return cl.do(req, v)
}

// do sends the request with the web-client identification headers and decodes
// the JSON response into v (which may be nil).  Non-2xx statuses are mapped
// to the package error types.
func (cl *Client) do(req *http.Request, v any) error {
	cl.setHeaders(req)
	cl.lg.DebugContext(req.Context(), "api request", "method", req.Method, "url", req.URL.String())

	resp, err := cl.cl.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return cl.apiError(resp)
	}
	if v == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	return dec.Decode(v)
}

// apiError converts an error response to the appropriate error type.
func (cl *Client) apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	case http.StatusTooManyRequests:
		var rl struct {
			RetryAfter float64 `json:"retry_after"`
		}
		if err := json.Unmarshal(body, &rl); err == nil && rl.RetryAfter > 0 {
			return &RateLimitedError{RetryAfter: time.Duration(rl.RetryAfter * float64(time.Second))}
		}
		return &RateLimitedError{RetryAfter: 5 * time.Second}
	default:
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
}

// setHeaders sets the headers that the Discord web client sends, so that the
// request is indistinguishable from one made by the browser.
func (cl *Client) setHeaders(req *http.Request) {
	h := req.Header
	h.Set("Authorization", cl.token)
	h.Set("Accept", "*/*")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Origin", "https://discord.com")
	h.Set("Referer", "https://discord.com/channels/@me")
	h.Set("User-Agent", userAgent)
	h.Set("X-Discord-Locale", "en-US")
	h.Set("X-Super-Properties", superProperties)
}

// Limiter returns the client's rate limiter, for use with network.WithRetry.
func (cl *Client) Limiter() *rate.Limiter {
	return cl.lim
}
