package requester

import (
	"context"
	"sync/atomic"

	"github.com/brizzai/swapi/internal/logger"
	"go.uber.org/zap"
)

// Requester turns endpoints into HTTP exchanges and classifies the outcome.
// It is safe for concurrent use; the only mutable state is the debug
// logging flag.
type Requester struct {
	transport Transport
	decoder   Decoder
	log       *zap.Logger
	debug     atomic.Bool
}

// Option configures a Requester
type Option func(*Requester)

// WithDecoder replaces the JSON decoder used by Request and Do
func WithDecoder(d Decoder) Option {
	return func(r *Requester) { r.decoder = d }
}

// WithLogger sets the logger used for debug diagnostics
func WithLogger(l *zap.Logger) Option {
	return func(r *Requester) { r.log = l }
}

// WithDebugLogging sets the initial value of the debug logging flag
func WithDebugLogging(enabled bool) Option {
	return func(r *Requester) { r.debug.Store(enabled) }
}

// NewRequester creates a Requester sending through transport
func NewRequester(transport Transport, opts ...Option) *Requester {
	r := &Requester{
		transport: transport,
		decoder:   JSONDecoder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetDebugLogging toggles verbose diagnostics for in-flight and future requests
func (r *Requester) SetDebugLogging(enabled bool) {
	r.debug.Store(enabled)
}

// DebugLogging reports whether verbose diagnostics are on
func (r *Requester) DebugLogging() bool {
	return r.debug.Load()
}

func (r *Requester) logDebug(msg string, fields ...zap.Field) {
	if !r.debug.Load() {
		return
	}
	l := r.log
	if l == nil {
		l = logger.GetLogger()
	}
	l.Info(msg, fields...)
}

// send builds the request, performs the exchange and classifies it. The
// returned body is nil whenever classification drops it.
func (r *Requester) send(ctx context.Context, ep Endpoint) ([]byte, *Response, *APIError) {
	req, err := BuildRequest(ep)
	if err != nil {
		r.logDebug("Invalid endpoint definition", zap.String("path", ep.Path()), zap.Error(err))
		if apiErr, ok := AsAPIError(err); ok {
			return nil, nil, apiErr
		}
		return nil, nil, newAPIError(InvalidEndpointAPIDefinition, nil, nil)
	}

	url := req.URL.String()
	r.logDebug("API url", zap.String("url", url), zap.String("method", string(req.Method)))

	resp, err := r.transport.Send(ctx, req)
	apiErr := Classify(resp, err)
	if err != nil {
		r.logDebug("Error while calling", zap.String("url", url), zap.Error(err))
		return nil, nil, apiErr
	}

	r.logDebug("HTTP response", zap.String("url", url), zap.Int("status", resp.StatusCode))

	if !retainsBody(apiErr) {
		return nil, resp, apiErr
	}
	return resp.Body, resp, apiErr
}

// DoRaw performs the request and returns the body, response and error as
// they come out of classification. It blocks until the exchange completes.
func (r *Requester) DoRaw(ctx context.Context, ep Endpoint) RawResult {
	body, resp, apiErr := r.send(ctx, ep)
	return RawResult{Body: body, Response: resp, Err: apiErr}
}

// RequestRaw is the asynchronous form of DoRaw. The channel receives exactly
// one result and is then closed.
func (r *Requester) RequestRaw(ctx context.Context, ep Endpoint) <-chan RawResult {
	out := make(chan RawResult, 1)
	go func() {
		defer close(out)
		out <- r.DoRaw(ctx, ep)
	}()
	return out
}

// Do performs the request and decodes a successful body into T. An empty
// body on success yields a nil Value.
func Do[T any](ctx context.Context, r *Requester, ep Endpoint) Result[T] {
	body, _, apiErr := r.send(ctx, ep)
	if apiErr != nil {
		return Result[T]{Err: apiErr}
	}
	if len(body) == 0 {
		return Result[T]{}
	}

	var v T
	if err := r.decoder.Decode(body, &v); err != nil {
		r.logDebug("Error while deserializing response", zap.String("path", ep.Path()), zap.Error(err))
		return Result[T]{Err: newAPIError(JSONDecodingError, nil, err)}
	}
	return Result[T]{Value: &v}
}

// RequestAsync is the asynchronous form of Do. The channel receives exactly one
// result and is then closed.
func RequestAsync[T any](ctx context.Context, r *Requester, ep Endpoint) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		defer close(out)
		out <- Do[T](ctx, r, ep)
	}()
	return out
}
