package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/btraven00/phishguard/internal/auth"
	"github.com/btraven00/phishguard/internal/metrics"
)

func newTestGateway(endpoint string, tokens auth.Provider) (*Gateway, *metrics.Metrics) {
	m := metrics.New()
	g := New(Options{Endpoint: endpoint, Tokens: tokens, Metrics: m, Timeout: 2 * time.Second})

	return g, m
}

func TestGateway_Call_Success(t *testing.T) {
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}

		if r.URL.Path != "/api/scan/url" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}

		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}

		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}

		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"RiskLevel":"HIGH","URL":"https://login.test"}`))
	}))
	defer server.Close()

	g, m := newTestGateway(server.URL+"/api/", auth.Static("tok-1"))

	data, err := g.Call(context.Background(), "/scan/url", map[string]string{"url": "https://login.test"})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	if gotBody["url"] != "https://login.test" {
		t.Errorf("server received %v", gotBody)
	}

	if string(data) != `{"RiskLevel":"HIGH","URL":"https://login.test"}` {
		t.Errorf("response not passed through: %s", data)
	}

	if got := testutil.ToFloat64(m.GatewayRequests.WithLabelValues("/scan/url", metrics.OutcomeSuccess)); got != 1 {
		t.Errorf("expected 1 success sample, got %v", got)
	}
}

func TestGateway_Call_NoSessionSendsNothing(t *testing.T) {
	var hits int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	tests := []struct {
		name   string
		tokens auth.Provider
	}{
		{name: "empty static token", tokens: auth.Static("")},
		{name: "provider reports no session", tokens: auth.ProviderFunc(func(context.Context) (string, bool, error) {
			return "", false, nil
		})},
		{name: "nil provider", tokens: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, m := newTestGateway(server.URL, tt.tokens)

			_, err := g.Call(context.Background(), "/scan/url", map[string]string{"url": "https://x.test"})
			if !errors.Is(err, ErrAuthMissing) {
				t.Fatalf("expected ErrAuthMissing, got %v", err)
			}

			if Classify(err) != KindAuthMissing {
				t.Errorf("Classify = %s", Classify(err))
			}

			if got := testutil.ToFloat64(m.GatewayRequests.WithLabelValues("/scan/url", metrics.OutcomeAuthMissing)); got != 1 {
				t.Errorf("expected auth_missing sample, got %v", got)
			}
		})
	}

	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("expected no requests dispatched, server saw %d", n)
	}
}

func TestGateway_Call_ProviderFault(t *testing.T) {
	g, _ := newTestGateway("http://127.0.0.1:1", auth.ProviderFunc(func(context.Context) (string, bool, error) {
		return "", false, errors.New("keychain locked")
	}))

	_, err := g.Call(context.Background(), "/scan/url", nil)

	var setup *RequestSetupError
	if !errors.As(err, &setup) {
		t.Fatalf("expected RequestSetupError, got %T %v", err, err)
	}

	if !strings.Contains(err.Error(), "keychain locked") {
		t.Errorf("detail lost: %v", err)
	}
}

func TestGateway_Call_RemoteRejected(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		contentLength string
		wantMessage   string
	}{
		{name: "body message", status: 500, body: `{"message":"server down"}`, wantMessage: "server down"},
		{name: "no body falls back to status text", status: 500, body: ``, wantMessage: "Internal Server Error"},
		{name: "body without message", status: 403, body: `{"error":"nope"}`, wantMessage: "Forbidden"},
		{name: "blank message", status: 404, body: `{"message":"  "}`, wantMessage: "Not Found"},
		{name: "non-json body", status: 502, body: `<html>bad gateway</html>`, wantMessage: "Bad Gateway"},
		{name: "unknown status", status: 599, body: ``, wantMessage: "Unknown error"},
		{name: "structured message", status: 400, body: `{"message":{"field":"url"}}`, wantMessage: `{"field":"url"}`},
		{name: "truncated body", status: 403, body: `{"message":"blo`, contentLength: "100", wantMessage: "Forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.contentLength != "" {
					w.Header().Set("Content-Length", tt.contentLength)
				}

				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			g, m := newTestGateway(server.URL, auth.Static("tok"))

			_, err := g.Call(context.Background(), "/scan/url", map[string]string{"url": "https://x.test"})

			var rejected *RemoteRejectedError
			if !errors.As(err, &rejected) {
				t.Fatalf("expected RemoteRejectedError, got %T %v", err, err)
			}

			if rejected.Status != tt.status || rejected.Message != tt.wantMessage {
				t.Errorf("got {%d, %q}, want {%d, %q}", rejected.Status, rejected.Message, tt.status, tt.wantMessage)
			}

			if Classify(err) != KindRemoteRejected {
				t.Errorf("Classify = %s", Classify(err))
			}

			if got := testutil.ToFloat64(m.GatewayRequests.WithLabelValues("/scan/url", metrics.OutcomeRejected)); got != 1 {
				t.Errorf("expected rejected sample, got %v", got)
			}
		})
	}
}

func TestGateway_Call_UntrustedCertificate(t *testing.T) {
	var hits int32

	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	g, m := newTestGateway(server.URL, auth.Static("tok"))

	_, err := g.Call(context.Background(), "/scan/url", map[string]string{"url": "https://x.test"})
	if !errors.Is(err, ErrNetworkUnreachable) {
		t.Fatalf("expected network error, got %T %v", err, err)
	}

	if Classify(err) != KindNetworkUnreachable {
		t.Errorf("Classify = %s", Classify(err))
	}

	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("handler reached despite untrusted certificate")
	}

	if got := testutil.ToFloat64(m.GatewayRequests.WithLabelValues("/scan/url", metrics.OutcomeUnreachable)); got != 1 {
		t.Errorf("expected unreachable sample, got %v", got)
	}
}

func TestRemoteRejectedError_Format(t *testing.T) {
	err := &RemoteRejectedError{Status: 403, Message: "blocked"}
	if err.Error() != "Error 403: blocked" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestGateway_Call_NetworkUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	g, m := newTestGateway(addr, auth.Static("tok"))

	_, err := g.Call(context.Background(), "/scan/url", map[string]string{"url": "https://x.test"})
	if !errors.Is(err, ErrNetworkUnreachable) {
		t.Fatalf("expected ErrNetworkUnreachable, got %T %v", err, err)
	}

	if err.Error() != "Network error: No response from API." {
		t.Errorf("Error() = %q", err.Error())
	}

	var netErr *NetworkError
	if !errors.As(err, &netErr) || netErr.Err == nil {
		t.Error("expected underlying cause to be kept")
	}

	if got := testutil.ToFloat64(m.GatewayRequests.WithLabelValues("/scan/url", metrics.OutcomeUnreachable)); got != 1 {
		t.Errorf("expected unreachable sample, got %v", got)
	}
}

func TestGateway_Call_Timeout(t *testing.T) {
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	g := New(Options{Endpoint: server.URL, Tokens: auth.Static("tok"), Timeout: 100 * time.Millisecond})

	_, err := g.Call(context.Background(), "/scan/url", map[string]string{"url": "https://x.test"})
	if Classify(err) != KindNetworkUnreachable {
		t.Fatalf("expected network classification for timeout, got %s (%v)", Classify(err), err)
	}
}

func TestGateway_Call_RequestSetupFailed(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		payload  any
	}{
		{name: "unsupported scheme", endpoint: "ftp://scanner.test", payload: map[string]string{"url": "https://x.test"}},
		{name: "unencodable payload", endpoint: "http://127.0.0.1:1", payload: map[string]any{"ch": make(chan int)}},
		{name: "malformed endpoint", endpoint: "http://bad host", payload: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, m := newTestGateway(tt.endpoint, auth.Static("tok"))

			_, err := g.Call(context.Background(), "/scan/url", tt.payload)

			var setup *RequestSetupError
			if !errors.As(err, &setup) {
				t.Fatalf("expected RequestSetupError, got %T %v", err, err)
			}

			if !strings.HasPrefix(err.Error(), "An unexpected error occurred: ") {
				t.Errorf("Error() = %q", err.Error())
			}

			if got := testutil.ToFloat64(m.GatewayRequests.WithLabelValues("/scan/url", metrics.OutcomeSetupFailed)); got != 1 {
				t.Errorf("expected setup_failed sample, got %v", got)
			}
		})
	}
}

func TestGateway_Call_TokenFetchedPerCall(t *testing.T) {
	var calls int32

	tokens := auth.ProviderFunc(func(context.Context) (string, bool, error) {
		n := atomic.AddInt32(&calls, 1)
		return "tok-" + string(rune('0'+n)), true, nil
	})

	var seen []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	g, _ := newTestGateway(server.URL, tokens)

	for i := 0; i < 3; i++ {
		if _, err := g.Call(context.Background(), "/scan/url", map[string]string{}); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"Bearer tok-1", "Bearer tok-2", "Bearer tok-3"}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("request %d Authorization = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestPassthrough(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "object", input: `{"a":1}`, expected: `{"a":1}`},
		{name: "padded", input: "  [1,2]\n", expected: `[1,2]`},
		{name: "empty", input: "", expected: `null`},
		{name: "plain text", input: `scan queued`, expected: `"scan queued"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(passthrough([]byte(tt.input))); got != tt.expected {
				t.Errorf("passthrough(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err      error
		expected Kind
	}{
		{nil, KindNone},
		{ErrAuthMissing, KindAuthMissing},
		{&RemoteRejectedError{Status: 500}, KindRemoteRejected},
		{&NetworkError{Err: io.EOF}, KindNetworkUnreachable},
		{&RequestSetupError{Detail: "x"}, KindRequestSetupFailed},
		{errors.New("raw"), KindRequestSetupFailed},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			if got := Classify(tt.err); got != tt.expected {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.expected)
			}
		})
	}
}
