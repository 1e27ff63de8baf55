package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brizzai/swapi/internal/config"
	"github.com/brizzai/swapi/internal/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type searchResponse struct {
	Count   int               `json:"count"`
	Results []json.RawMessage `json:"results"`
}

func searchEndpoint() *requester.Definition {
	return &requester.Definition{
		HTTPMethod:  requester.MethodGet,
		URLOverride: "https://api.example.com/search",
		Params:      requester.ParamsQueryString,
		Parameter:   map[string]string{"term": "rock"},
	}
}

// mockTransport records calls and answers with a canned response or error
type mockTransport struct {
	calls atomic.Int32
	resp  *requester.Response
	err   error
	seen  *requester.Request
	mu    sync.Mutex
}

func (m *mockTransport) Send(_ context.Context, req *requester.Request) (*requester.Response, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.seen = req
	m.mu.Unlock()
	return m.resp, m.err
}

func okResponse(body string) *requester.Response {
	return &requester.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(body),
	}
}

func TestRequest_SuccessDecodes(t *testing.T) {
	transport := &mockTransport{resp: okResponse(`{"count":1,"results":[]}`)}
	r := requester.NewRequester(transport)

	res := <-requester.RequestAsync[searchResponse](context.Background(), r, searchEndpoint())

	require.True(t, res.OK(), "unexpected error: %v", res.Err)
	require.NotNil(t, res.Value)
	assert.Equal(t, 1, res.Value.Count)
	assert.Empty(t, res.Value.Results)
	assert.Equal(t, int32(1), transport.calls.Load())
	assert.Equal(t, "rock", transport.seen.URL.Query().Get("term"))
}

func TestRequest_NoInternet(t *testing.T) {
	transport := &mockTransport{err: requester.ErrNetworkUnreachable}
	r := requester.NewRequester(transport)

	res := <-requester.RequestAsync[searchResponse](context.Background(), r, searchEndpoint())

	require.NotNil(t, res.Err)
	assert.Equal(t, requester.NoInternetConnection, res.Err.Kind)
	assert.Nil(t, res.Value)
	assert.Nil(t, res.Err.Response)
}

func TestRequest_NotFoundKeepsResponse(t *testing.T) {
	resp := &requester.Response{StatusCode: http.StatusNotFound, Body: []byte(`{"error":"missing"}`)}
	transport := &mockTransport{resp: resp}
	r := requester.NewRequester(transport)

	res := <-requester.RequestAsync[searchResponse](context.Background(), r, searchEndpoint())

	require.NotNil(t, res.Err)
	assert.Equal(t, requester.NotFound, res.Err.Kind)
	assert.Same(t, resp, res.Err.Response)
	assert.Nil(t, res.Value)

	_, err := res.Unwrap()
	assert.ErrorIs(t, err, requester.ErrNotFound)
}

func TestRequest_InvalidEndpointSkipsTransport(t *testing.T) {
	transport := &mockTransport{resp: okResponse(`{}`)}
	r := requester.NewRequester(transport)

	ep := searchEndpoint()
	ep.URLOverride = ""

	res := <-requester.RequestAsync[searchResponse](context.Background(), r, ep)
	require.NotNil(t, res.Err)
	assert.Equal(t, requester.InvalidEndpointAPIDefinition, res.Err.Kind)

	raw := <-r.RequestRaw(context.Background(), ep)
	require.NotNil(t, raw.Err)
	assert.Equal(t, requester.InvalidEndpointAPIDefinition, raw.Err.Kind)

	assert.Equal(t, int32(0), transport.calls.Load())
}

func TestRequest_DecodeFailure(t *testing.T) {
	transport := &mockTransport{resp: okResponse(`{"count":"one"}`)}
	r := requester.NewRequester(transport)

	res := requester.Do[searchResponse](context.Background(), r, searchEndpoint())

	require.NotNil(t, res.Err)
	assert.Equal(t, requester.JSONDecodingError, res.Err.Kind)
	assert.NotNil(t, res.Err.Cause)
	assert.Nil(t, res.Err.Response)
}

func TestRequest_EmptyBodyIsSuccessWithoutValue(t *testing.T) {
	transport := &mockTransport{resp: &requester.Response{StatusCode: http.StatusNoContent}}
	r := requester.NewRequester(transport)

	res := requester.Do[searchResponse](context.Background(), r, searchEndpoint())

	assert.True(t, res.OK())
	assert.Nil(t, res.Value)
}

func TestRequest_DeliversExactlyOnce(t *testing.T) {
	transport := &mockTransport{resp: okResponse(`{"count":2,"results":[]}`)}
	r := requester.NewRequester(transport)

	ch := requester.RequestAsync[searchResponse](context.Background(), r, searchEndpoint())

	var received int
	for res := range ch {
		received++
		assert.True(t, res.OK())
	}
	assert.Equal(t, 1, received)
}

func TestRequestRaw(t *testing.T) {
	tests := []struct {
		name     string
		resp     *requester.Response
		err      error
		wantKind requester.ErrorKind
		wantBody string
	}{
		{
			name:     "success keeps body",
			resp:     okResponse(`<xml/>`),
			wantBody: `<xml/>`,
		},
		{
			name:     "client error keeps body",
			resp:     &requester.Response{StatusCode: http.StatusUnprocessableEntity, Body: []byte(`{"field":"term"}`)},
			wantKind: requester.UnprocessableEntity,
			wantBody: `{"field":"term"}`,
		},
		{
			name:     "server error drops body",
			resp:     &requester.Response{StatusCode: http.StatusBadGateway, Body: []byte(`upstream down`)},
			wantKind: requester.ResponseUnsuccessful,
		},
		{
			name:     "transport error",
			err:      context.DeadlineExceeded,
			wantKind: requester.Other,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := requester.NewRequester(&mockTransport{resp: tt.resp, err: tt.err})

			res := <-r.RequestRaw(context.Background(), searchEndpoint())

			if tt.wantKind == 0 {
				assert.NoError(t, res.Error())
			} else {
				require.NotNil(t, res.Err)
				assert.Equal(t, tt.wantKind, res.Err.Kind)
			}
			if tt.wantBody == "" {
				assert.Nil(t, res.Body)
			} else {
				assert.Equal(t, tt.wantBody, string(res.Body))
			}
			if tt.err == nil {
				assert.Same(t, tt.resp, res.Response)
			} else {
				assert.Nil(t, res.Response)
			}
		})
	}
}

func TestRequester_DebugLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	transport := &mockTransport{resp: okResponse(`{"count":0,"results":[]}`)}
	r := requester.NewRequester(transport, requester.WithLogger(zap.New(core)))

	assert.False(t, r.DebugLogging())
	requester.Do[searchResponse](context.Background(), r, searchEndpoint())
	assert.Zero(t, logs.Len())

	r.SetDebugLogging(true)
	assert.True(t, r.DebugLogging())
	requester.Do[searchResponse](context.Background(), r, searchEndpoint())
	assert.Equal(t, 1, logs.FilterMessage("API url").Len())
	assert.Equal(t, 1, logs.FilterMessage("HTTP response").Len())

	r.SetDebugLogging(false)
	requester.Do[searchResponse](context.Background(), r, searchEndpoint())
	assert.Equal(t, 2, logs.Len())
}

func TestRequester_ConcurrentCallsAreIndependent(t *testing.T) {
	transport := requester.TransportFunc(func(_ context.Context, req *requester.Request) (*requester.Response, error) {
		term := req.URL.Query().Get("term")
		body, _ := json.Marshal(map[string]any{"count": len(term), "results": []any{}})
		return okResponse(string(body)), nil
	})
	r := requester.NewRequester(transport)

	terms := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	chans := make([]<-chan requester.Result[searchResponse], len(terms))
	for i, term := range terms {
		ep := searchEndpoint()
		ep.Parameter = map[string]string{"term": term}
		chans[i] = requester.RequestAsync[searchResponse](context.Background(), r, ep)
	}

	for i, ch := range chans {
		res := <-ch
		require.True(t, res.OK())
		assert.Equal(t, len(terms[i]), res.Value.Count)
	}
}

func TestTransports(t *testing.T) {
	for _, name := range []string{requester.TransportNetHTTP, requester.TransportResty} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "POST", r.Method)
				assert.Equal(t, "/items", r.URL.Path)
				assert.Equal(t, "1", r.URL.Query().Get("dry_run"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, []string{"a", "b"}, r.Header.Values("X-Multi"))
				assert.Equal(t, "swapi-test", r.Header.Get("User-Agent"))

				var body map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "value1", body["key1"])

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"count":7,"results":[]}`))
			}))
			defer server.Close()

			transport, err := requester.NewTransport(&config.RequesterConfig{
				Transport: name,
				Timeout:   5 * time.Second,
				UserAgent: "swapi-test",
			})
			require.NoError(t, err)
			r := requester.NewRequester(transport)

			res := requester.Do[searchResponse](context.Background(), r, &requester.Definition{
				HTTPMethod:   requester.MethodPost,
				Base:         server.URL,
				RoutePath:    "/items",
				Params:       requester.ParamsJSONBody,
				Parameter:    map[string]string{"key1": "value1"},
				ExtraQuery:   map[string]string{"dry_run": "1"},
				Header:       map[string]string{"X-Multi": "a"},
				SharedHeader: map[string]string{"X-Multi": "b"},
			})

			require.True(t, res.OK(), "unexpected error: %v", res.Err)
			assert.Equal(t, 7, res.Value.Count)
		})
	}
}

func TestTransport_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := requester.NewRequester(requester.NewHTTPTransport(50*time.Millisecond, ""))
	raw := r.DoRaw(context.Background(), &requester.Definition{
		HTTPMethod: requester.MethodGet,
		Base:       server.URL,
		RoutePath:  "/slow",
	})

	require.NotNil(t, raw.Err)
	assert.Equal(t, requester.Other, raw.Err.Kind)
	assert.Nil(t, raw.Response)
}

func TestTransport_ServerStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"who are you"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	r := requester.NewRequester(requester.NewHTTPTransport(5*time.Second, ""))
	raw := r.DoRaw(context.Background(), &requester.Definition{
		HTTPMethod: requester.MethodGet,
		Base:       server.URL,
	})

	require.NotNil(t, raw.Err)
	assert.Equal(t, requester.Unauthorized, raw.Err.Kind)
	assert.Equal(t, http.StatusUnauthorized, raw.Err.StatusCode())
	assert.Contains(t, string(raw.Body), "who are you")
}

func TestNewTransport_Unknown(t *testing.T) {
	_, err := requester.NewTransport(&config.RequesterConfig{Transport: "carrier-pigeon"})
	assert.Error(t, err)
}
