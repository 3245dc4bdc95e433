package wati

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Credentials are the provider API key and base URL read from settings.
type Credentials struct {
	APIKey string
	APIURL string
}

// Response is the provider's answer, relayed to the caller unchanged.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type Client struct {
	HTTP *http.Client
}

func NewClient() *Client {
	return &Client{HTTP: &http.Client{}}
}

// URL joins the base URL and the request path.
func (c *Client) URL(creds Credentials, req Request) string {
	return strings.TrimRight(creds.APIURL, "/") + req.Path
}

// Do sends exactly one request. Provider error statuses are returned as a
// Response, not an error; only transport failures and non-JSON bodies fail.
func (c *Client) Do(ctx context.Context, creds Credentials, req Request) (*Response, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.URL(creds, req), bodyReader)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", creds.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		respBody = []byte("null")
	}
	if !json.Valid(respBody) {
		return &Response{StatusCode: resp.StatusCode}, fmt.Errorf("provider returned non-JSON body (%s)", resp.Status)
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}
