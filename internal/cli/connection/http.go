package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/opslab-go/internal/infra/buildinfo"
	"github.com/yndnr/opslab-go/internal/infra/tlsroots"
)

// DefaultTimeout bounds a single request. It must exceed the longest
// load simulation.
const DefaultTimeout = 30 * time.Second

// Options configures an HTTPClient.
type Options struct {
	// Server is a base URL or host:port; http:// is assumed without a scheme.
	Server string
	// Token is sent as a bearer token when set.
	Token string
	// CAFile adds a PEM bundle to the system roots.
	CAFile  string
	Timeout time.Duration
}

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a new HTTP client.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	baseURL := strings.TrimRight(opts.Server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.CAFile != "" {
		pool := tlsroots.NewPool()
		if err := pool.AddCertFile(opts.CAFile); err != nil {
			return nil, err
		}
		transport.TLSClientConfig = pool.TLSConfig()
	}

	return &HTTPClient{
		baseURL: baseURL,
		token:   opts.Token,
		client:  &http.Client{Timeout: timeout, Transport: transport},
	}, nil
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.addHeaders(req)
	return c.client.Do(req)
}

func (c *HTTPClient) addHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", "opslab-cli/"+buildinfo.Version)
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// StatusError is returned for responses the caller did not accept.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s (HTTP %d)", e.Code, e.Message, e.Status)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// ParseResponse decodes a JSON body into target. Statuses outside accept
// (2xx when accept is empty) become a *StatusError built from the
// server's {"error": ...} body and X-Error-Code header.
func ParseResponse(resp *http.Response, target any, accept ...int) error {
	defer resp.Body.Close()

	if !accepted(resp.StatusCode, accept) {
		return statusError(resp)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

// ReadText returns the body of a 2xx response.
func ReadText(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	if !accepted(resp.StatusCode, nil) {
		return "", statusError(resp)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(b), nil
}

func accepted(status int, accept []int) bool {
	if len(accept) == 0 {
		return status >= 200 && status < 300
	}
	for _, s := range accept {
		if s == status {
			return true
		}
	}
	return false
}

func statusError(resp *http.Response) error {
	se := &StatusError{Status: resp.StatusCode, Code: resp.Header.Get("X-Error-Code")}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		se.Message = body.Error
	}
	return se
}
