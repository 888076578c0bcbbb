// Package supabase talks to a Supabase project: PostgREST for data, GoTrue for authentication.
package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/shubhammm008/Infosys-Team5/core"
)

var ErrNotConfigured = errors.New("supabase: project URL or key missing")

// Client holds the project endpoint and the HTTP transport shared by the backend and the auth provider.
type Client struct {
	url     string
	anonKey string
	http    *rest.Client
}

func NewClient(url, anonKey string, timeout time.Duration) *Client {
	return &Client{
		url:     strings.TrimRight(url, "/"),
		anonKey: anonKey,
		http:    &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
	}
}

// NewClientFromConfig fails with ErrNotConfigured for placeholder settings.
func NewClientFromConfig(conf *core.Config) (*Client, error) {
	if !conf.RemoteConfigured() {
		return nil, ErrNotConfigured
	}
	return NewClient(conf.SupabaseURL, conf.SupabaseAnonKey, conf.RequestTimeout), nil
}

func (c *Client) headers(accessToken string) map[string]string {
	bearer := c.anonKey
	if accessToken != "" {
		bearer = accessToken
	}
	return map[string]string{
		"apikey":        c.anonKey,
		"Authorization": "Bearer " + bearer,
		"Accept":        "application/json",
		"Content-Type":  "application/json",
	}
}

type call struct {
	method      rest.Method
	path        string
	query       map[string]string
	headers     map[string]string
	accessToken string
	body        interface{}
}

// do sends the call and decodes a 2xx JSON answer into out (when not nil).
// Anything else becomes a *core.RemoteError.
func (c *Client) do(ctx context.Context, cl call, out interface{}) error {
	req := rest.Request{
		Method:      cl.method,
		BaseURL:     c.url + cl.path,
		Headers:     c.headers(cl.accessToken),
		QueryParams: cl.query,
	}
	for k, v := range cl.headers {
		req.Headers[k] = v
	}
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		req.Body = data
	}

	res, err := c.http.SendWithContext(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &core.RemoteError{Err: err}
	}
	if res.StatusCode >= http.StatusBadRequest {
		return remoteError(res.StatusCode, res.Body)
	}
	if out == nil || strings.TrimSpace(res.Body) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(res.Body), out); err != nil {
		return &core.DecodeError{Entity: "response", Err: err}
	}
	return nil
}

// errorBody covers the PostgREST and both GoTrue error shapes.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Error            string          `json:"error"`
	Message          string          `json:"message"`
	Msg              string          `json:"msg"`
	ErrorDescription string          `json:"error_description"`
}

func remoteError(status int, body string) *core.RemoteError {
	re := &core.RemoteError{Status: status, Message: strings.TrimSpace(body)}
	var eb errorBody
	if err := json.Unmarshal([]byte(body), &eb); err != nil {
		return re
	}
	var code string
	_ = json.Unmarshal(eb.Code, &code) // GoTrue sends the HTTP status as a number here
	for _, c := range []string{eb.ErrorCode, code, eb.Error} {
		if c != "" {
			re.Code = c
			break
		}
	}
	for _, m := range []string{eb.Msg, eb.Message, eb.ErrorDescription} {
		if m != "" {
			re.Message = m
			break
		}
	}
	return re
}
