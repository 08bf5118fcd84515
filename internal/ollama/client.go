// Package ollama is a small client for the Ollama generate and tags endpoints.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"imagesaid/pkg/types"
)

const maxErrorBody = 4096

// Client talks to an Ollama server. The base URL is passed per call so a
// single Client (and its connection pool) can serve any endpoint the user
// configures. A Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	reqTimeout time.Duration
}

// NewClient constructs a Client. reqTimeout bounds each call (0 disables);
// connectTimeout bounds TCP dialing.
func NewClient(reqTimeout, connectTimeout time.Duration) *Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout stays 0: deadlines come from the request context.
	return &Client{
		httpClient: &http.Client{Transport: tr, Timeout: 0},
		reqTimeout: reqTimeout,
	}
}

// Endpoint joins baseURL (trailing slashes trimmed) and path.
func Endpoint(baseURL, path string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + path
}

// Generate sends a non-streaming generate request and returns the model's
// raw text response.
func (c *Client) Generate(ctx context.Context, baseURL string, req types.GenerateRequest) (string, error) {
	start := time.Now()
	text, err := c.generate(ctx, baseURL, req)
	observe("generate", start, err)
	return text, err
}

func (c *Client) generate(ctx context.Context, baseURL string, req types.GenerateRequest) (string, error) {
	req.Stream = false
	body, err := json.Marshal(req)
	if err != nil {
		return "", &ParseError{Op: "encode generate request", Err: err}
	}
	url := Endpoint(baseURL, "/api/generate")
	resp, cancel, err := c.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", err
	}
	defer cancel()
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}
	var out types.GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ParseError{Op: "decode generate response", Err: err}
	}
	return out.Response, nil
}

// ListModels returns the models reported by GET /api/tags, in server order.
func (c *Client) ListModels(ctx context.Context, baseURL string) ([]types.ModelInfo, error) {
	start := time.Now()
	models, err := c.listModels(ctx, baseURL)
	observe("tags", start, err)
	return models, err
}

func (c *Client) listModels(ctx context.Context, baseURL string) ([]types.ModelInfo, error) {
	resp, cancel, err := c.do(ctx, http.MethodGet, Endpoint(baseURL, "/api/tags"), nil)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var out types.TagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ParseError{Op: "decode model list", Err: err}
	}
	if out.Models == nil {
		out.Models = []types.ModelInfo{}
	}
	return out.Models, nil
}

// Ping checks that the server answers GET /api/tags with a 2xx status. The
// body is not inspected.
func (c *Client) Ping(ctx context.Context, baseURL string) error {
	start := time.Now()
	err := c.ping(ctx, baseURL)
	observe("ping", start, err)
	return err
}

func (c *Client) ping(ctx context.Context, baseURL string) error {
	resp, cancel, err := c.do(ctx, http.MethodGet, Endpoint(baseURL, "/api/tags"), nil)
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// do sends the request with the configured timeout applied to ctx. The
// returned cancel func must be called once the body has been consumed.
func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, context.CancelFunc, error) {
	cancel := context.CancelFunc(func() {})
	if c.reqTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.reqTimeout)
	}
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		cancel()
		return nil, nil, &NetworkError{Op: method, URL: url, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, nil, &NetworkError{Op: method, URL: url, Err: err}
	}
	return resp, cancel, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}
