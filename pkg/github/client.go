// Package github is the outbound adapter to the GitHub Actions REST API.
//
// It issues exactly one HTTP request per Call: no retries, no pagination,
// no caching. Non-2xx responses come back as *APIError; transport and
// decode failures as *errmodel.Error.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wilhg/mcp-ci/pkg/errmodel"
)

// APIVersion is the pinned X-GitHub-Api-Version header value.
const APIVersion = "2022-11-28"

// DefaultBaseURL is the public GitHub API.
const DefaultBaseURL = "https://api.github.com"

// maxResponseBytes bounds how much of a response body is read. Larger
// bodies are rejected rather than cut short.
var maxResponseBytes int64 = 16 << 20

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Token is sent as a bearer token on every request. Required.
	Token string
	// Timeout bounds each request. Zero means no client-side deadline
	// beyond the caller's context.
	Timeout time.Duration
	// HTTPClient defaults to a client whose transport is instrumented
	// with otelhttp.
	HTTPClient *http.Client
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client executes authenticated GitHub API calls.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("github: token is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "https://") && !strings.HasPrefix(baseURL, "http://") {
		return nil, fmt.Errorf("github: base url must be http(s) (got %q)", baseURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Call is one outbound request: method, path relative to the base URL
// (including any query string) and an optional JSON body.
type Call struct {
	Method string
	Path   string
	Body   any
}

func (c Call) String() string { return c.Method + " " + c.Path }

// Do executes call and returns the response body. An empty body is
// returned as "{}" so callers can always decode a JSON object.
func (client *Client) Do(ctx context.Context, call Call) ([]byte, error) {
	if client.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, client.timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if call.Body != nil {
		encoded, err := json.Marshal(call.Body)
		if err != nil {
			return nil, errmodel.System("encode_body", fmt.Sprintf("encoding request body: %v", err), nil, err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	endpoint := client.baseURL + call.Path
	request, err := http.NewRequestWithContext(ctx, call.Method, endpoint, bodyReader)
	if err != nil {
		return nil, errmodel.System("build_request", fmt.Sprintf("creating request: %v", err), nil, err)
	}
	request.Header.Set("Authorization", "Bearer "+client.token)
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", APIVersion)
	if call.Body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, errmodel.Network("transport", fmt.Sprintf("%s: %v", call, unwrapURLError(err)),
			map[string]any{"method": call.Method, "path": call.Path}, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes+1))
	if err != nil {
		return nil, errmodel.Network("read_body", fmt.Sprintf("reading response body: %v", err), nil, err)
	}
	if int64(len(body)) > maxResponseBytes {
		return nil, errmodel.Upstream("response_too_large",
			fmt.Sprintf("%s: response too large (over %d bytes)", call, maxResponseBytes),
			map[string]any{"status": response.StatusCode, "limit": maxResponseBytes}, nil)
	}
	client.logger.Debug("github call",
		"method", call.Method,
		"path", call.Path,
		"status", response.StatusCode,
		"duration", time.Since(started),
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, newAPIError(response, body)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return []byte("{}"), nil
	}
	return body, nil
}

// Decode unmarshals a response body, reporting failures as upstream decode errors.
func Decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return errmodel.Upstream("decode", fmt.Sprintf("decoding response: %v", err), nil, err)
	}
	return nil
}

// unwrapURLError strips the *url.Error wrapper, which repeats the method
// and URL that Call.String already reports.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
