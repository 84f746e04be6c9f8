package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/fd1az/pool-service/internal/circuitbreaker"
)

func newTestClient(t *testing.T, baseURL string, opts ...ClientOption) *InstrumentedClient {
	t.Helper()
	opts = append([]ClientOption{WithProviderName("test"), WithBaseURL(baseURL)}, opts...)
	c, err := NewInstrumentedClient(opts...)
	if err != nil {
		t.Fatalf("NewInstrumentedClient: %v", err)
	}
	return c
}

func TestGet_DecodesResultAndQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if r.URL.Path != "/api/v1/pools/info" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"name":"pool"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/")
	var out struct {
		Name string `json:"name"`
	}
	_, err := c.NewRequest().
		SetQueryParam("pools", "0x1,0x2").
		SetResult(&out).
		Get(context.Background(), "/api/v1/pools/info")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Name != "pool" {
		t.Errorf("name = %q", out.Name)
	}
	if gotQuery != "pools=0x1,0x2" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestGet_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	resp, err := c.NewRequest().Get(context.Background(), "/x")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d", statusErr.StatusCode)
	}
	if resp == nil || resp.StatusCode != http.StatusBadGateway {
		t.Errorf("response should be returned alongside the error")
	}
}

func TestGet_CustomErrorHandler(t *testing.T) {
	sentinel := errors.New("empty")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.NewRequestWithOptions(
		WithLabels(NewLabel("endpoint", "x")),
		WithResponseErrorHandler(func(status int, body []byte) error {
			if string(body) == "[]" {
				return sentinel
			}
			return nil
		}),
	).Get(context.Background(), "/x")

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
}

func TestGet_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	var out map[string]any
	_, err := c.NewRequest().SetResult(&out).Get(context.Background(), "/")
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestPost_JSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %s", ct)
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.NewRequest().SetBody(map[string]int{"a": 1}).Post(context.Background(), "/"); err != nil {
		t.Fatalf("Post: %v", err)
	}
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, WithRequestTimeout(20*time.Millisecond))
	if _, err := c.NewRequest().Get(context.Background(), "/"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestCircuitBreaker_OpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, WithCircuitBreaker())
	for i := 0; i < 5; i++ {
		c.NewRequest().Get(context.Background(), "/")
	}

	_, err := c.NewRequest().Get(context.Background(), "/")
	if !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if hits.Load() != 5 {
		t.Errorf("server hits = %d, want 5", hits.Load())
	}
}

func TestCircuitBreaker_IgnoresClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, WithCircuitBreaker())
	for i := 0; i < 10; i++ {
		_, err := c.NewRequest().Get(context.Background(), "/")
		if errors.Is(err, circuitbreaker.ErrOpen) {
			t.Fatalf("breaker opened on 404 at call %d", i)
		}
	}
}

func TestTraceOptions_RecordBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	c := newTestClient(t, srv.URL, WithTraceOptions(tracer, TraceRequest, TraceResponse))
	if _, err := c.NewRequest().SetBody(map[string]string{"pool": "0x1"}).Post(context.Background(), "/pools"); err != nil {
		t.Fatalf("Post: %v", err)
	}

	events := map[string]string{}
	for _, span := range recorder.Ended() {
		for _, ev := range span.Events() {
			for _, attr := range ev.Attributes {
				events[ev.Name] = attr.Value.AsString()
			}
		}
	}
	if events["request.body"] != `{"pool":"0x1"}` {
		t.Errorf("request body event = %q", events["request.body"])
	}
	if events["response.body"] != `{"ok":true}` {
		t.Errorf("response body event = %q", events["response.body"])
	}
}

func TestTraceOptions_OffByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if c.logRequest || c.logResponse {
		t.Fatal("body recording should be off")
	}
}
