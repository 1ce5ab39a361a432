package mesclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/config"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestClient(t *testing.T, h http.HandlerFunc, cfg config.MESConfig, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL + "/api/v1"
	return NewClient(cfg, nil, opts...), srv
}

func TestRequestAddsHeadersAndCacheBust(t *testing.T) {
	var got *http.Request
	fixed := time.UnixMilli(1700000000123)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Write([]byte(`[{"id":1}]`))
	}, config.MESConfig{Token: "tok", CacheBust: true}, WithClock(func() time.Time { return fixed }))

	resp, err := c.Request(context.Background(), http.MethodGet, "/materials",
		RequestOptions{Params: url.Values{"skip": {"10"}}})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if string(resp.Data) != `[{"id":1}]` {
		t.Errorf("Unexpected data %s", resp.Data)
	}
	if got.URL.Path != "/api/v1/materials" {
		t.Errorf("Unexpected path %s", got.URL.Path)
	}
	if got.URL.Query().Get("_t") != "1700000000123" {
		t.Errorf("Expected cache bust param, got %q", got.URL.RawQuery)
	}
	if got.URL.Query().Get("skip") != "10" {
		t.Errorf("Expected skip param, got %q", got.URL.RawQuery)
	}
	if got.Header.Get("Authorization") != "Bearer tok" {
		t.Errorf("Unexpected auth header %q", got.Header.Get("Authorization"))
	}
	if got.Header.Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}
}

func TestRequestNoCacheBustOnWrite(t *testing.T) {
	var query string
	var body map[string]interface{}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusNoContent)
	}, config.MESConfig{CacheBust: true})

	resp, err := c.Request(context.Background(), http.MethodPost, "/uoms",
		RequestOptions{Body: map[string]interface{}{"code": "PCS"}})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if query != "" {
		t.Errorf("Expected no query on POST, got %q", query)
	}
	if body["code"] != "PCS" {
		t.Errorf("Expected body to be forwarded, got %v", body)
	}
	if string(resp.Data) != "null" {
		t.Errorf("Expected empty body to read as null, got %s", resp.Data)
	}
}

func TestRequestTranslatesErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		kind    ErrorKind
		message string
	}{
		{"string detail", 400, `{"detail":"Only draft work orders can be released"}`, KindClient, "Only draft work orders can be released"},
		{"validation list", 422, `{"detail":[{"loc":["body","code"],"msg":"field required","type":"value_error.missing"}]}`, KindClient, "field required"},
		{"not found without detail", 404, `not json`, KindClient, "请求的资源不存在"},
		{"unknown 4xx", 418, `{}`, KindClient, "请求失败(状态码 418)"},
		{"server error ignores detail", 500, `{"detail":"Traceback ..."}`, KindServer, serverMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}, config.MESConfig{})

			_, err := c.Request(context.Background(), http.MethodPost, "/work-orders/7/release", RequestOptions{})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *APIError, got %v", err)
			}
			if apiErr.Kind != tc.kind {
				t.Errorf("Expected kind %s, got %s", tc.kind, apiErr.Kind)
			}
			if apiErr.StatusCode != tc.status {
				t.Errorf("Expected status %d, got %d", tc.status, apiErr.StatusCode)
			}
			if apiErr.Message != tc.message {
				t.Errorf("Expected message %q, got %q", tc.message, apiErr.Message)
			}
			if Message(err) != tc.message {
				t.Errorf("Message helper returned %q", Message(err))
			}
		})
	}
}

func TestRequestNetworkFailure(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, config.MESConfig{})
	srv.Close()

	_, err := c.Request(context.Background(), http.MethodGet, "/uoms", RequestOptions{})
	if !IsNetwork(err) {
		t.Fatalf("Expected network error, got %v", err)
	}
	if StatusCode(err) != 0 {
		t.Errorf("Expected no status code, got %d", StatusCode(err))
	}
	if Message(err) != networkMessage {
		t.Errorf("Unexpected message %q", Message(err))
	}
}

func TestRequestTimeout(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}, config.MESConfig{Timeout: 20 * time.Millisecond})

	_, err := c.Request(context.Background(), http.MethodGet, "/schedule", RequestOptions{})
	if !IsNetwork(err) {
		t.Fatalf("Expected timeout to surface as network error, got %v", err)
	}
}

func TestMetricsRecorded(t *testing.T) {
	m := NewMetrics("test", nil)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/materials/99" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{}`))
	}, config.MESConfig{}, WithMetrics(m))

	c.Request(context.Background(), http.MethodGet, "/materials/42", RequestOptions{})
	c.Request(context.Background(), http.MethodGet, "/materials/43", RequestOptions{})
	c.Request(context.Background(), http.MethodGet, "/materials/99", RequestOptions{})

	if v := promtest.ToFloat64(m.requests.WithLabelValues("GET", "/materials/:id", "200")); v != 2 {
		t.Errorf("Expected 2 successful requests, got %v", v)
	}
	if v := promtest.ToFloat64(m.requests.WithLabelValues("GET", "/materials/:id", "404")); v != 1 {
		t.Errorf("Expected 1 not-found request, got %v", v)
	}
}

func TestRouteOf(t *testing.T) {
	cases := map[string]string{
		"/work-orders/7/release":        "/work-orders/:id/release",
		"/boms/by-product/12":           "/boms/by-product/:id",
		"/wip-tracking/batch/B-001":     "/wip-tracking/batch/B-001",
		"materials":                     "/materials",
		"/material-picks/3/confirm?x=1": "/material-picks/:id/confirm",
	}
	for in, want := range cases {
		if got := routeOf(in); got != want {
			t.Errorf("routeOf(%q) = %q, want %q", in, got, want)
		}
	}
}
