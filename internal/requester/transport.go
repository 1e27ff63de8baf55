package requester

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brizzai/swapi/internal/config"
	"github.com/go-resty/resty/v2"
)

// Transport performs a single HTTP exchange. A non-nil error means no
// response was obtained.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Decoder turns a response body into a value
type Decoder interface {
	Decode(data []byte, v any) error
}

// JSONDecoder decodes JSON bodies
type JSONDecoder struct{}

func (JSONDecoder) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// HTTPTransport sends requests with a net/http client
type HTTPTransport struct {
	client    *http.Client
	userAgent string
}

// NewHTTPTransport creates a new HTTPTransport with the given timeout
func NewHTTPTransport(timeout time.Duration, userAgent string) *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// SetTimeout sets the timeout for the HTTP client
func (t *HTTPTransport) SetTimeout(timeout time.Duration) {
	t.client.Timeout = timeout
}

func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return nil, err
	}
	if t.userAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       bodyBytes,
	}, nil
}

// RestyTransport sends requests with a resty client
type RestyTransport struct {
	client *resty.Client
}

// NewRestyTransport creates a RestyTransport with the specified timeout
func NewRestyTransport(timeout time.Duration, userAgent string) *RestyTransport {
	c := resty.New()
	c.SetTimeout(timeout)
	if userAgent != "" {
		c.SetHeader("User-Agent", userAgent)
	}
	return &RestyTransport{client: c}
}

func (t *RestyTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	r := t.client.R().SetContext(ctx)
	for key, values := range req.Header {
		for _, value := range values {
			r.Header.Add(key, value)
		}
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(string(req.Method), req.URL.String())
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

const (
	TransportNetHTTP = "net_http"
	TransportResty   = "resty"
)

// NewTransport builds the transport selected in the configuration
func NewTransport(cfg *config.RequesterConfig) (Transport, error) {
	switch cfg.Transport {
	case TransportNetHTTP, "":
		return NewHTTPTransport(cfg.Timeout, cfg.UserAgent), nil
	case TransportResty:
		return NewRestyTransport(cfg.Timeout, cfg.UserAgent), nil
	default:
		return nil, fmt.Errorf("unsupported transport: %s", cfg.Transport)
	}
}
