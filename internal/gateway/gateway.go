// Package gateway performs authenticated JSON POSTs against the scanner API
// and folds every failure into a small error taxonomy (see Classify).
package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/btraven00/phishguard/internal/auth"
	"github.com/btraven00/phishguard/internal/logx"
	"github.com/btraven00/phishguard/internal/metrics"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// Caller is the contract the orchestrator and subscription manager depend on.
type Caller interface {
	Call(ctx context.Context, path string, payload any) (json.RawMessage, error)
}

// Options configures a Gateway.
type Options struct {
	Tokens    auth.Provider
	Metrics   *metrics.Metrics
	Client    *http.Client // overrides the default client when set
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
}

// Gateway issues authenticated POST requests to the scanner API.
type Gateway struct {
	client    *http.Client
	tokens    auth.Provider
	metrics   *metrics.Metrics
	endpoint  string
	userAgent string
}

// New creates a Gateway. A zero Timeout means 30 seconds.
func New(opts Options) *Gateway {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}

		client = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects: %d", len(via))
				}
				return nil
			},
		}
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "phishguard-cli"
	}

	return &Gateway{
		client:    client,
		tokens:    opts.Tokens,
		metrics:   opts.Metrics,
		endpoint:  strings.TrimRight(opts.Endpoint, "/"),
		userAgent: ua,
	}
}

// Call POSTs payload as JSON to endpoint+path with a fresh bearer token and
// returns the response body untouched on 2xx.
//
// Errors are always one of ErrAuthMissing, *RemoteRejectedError,
// *NetworkError or *RequestSetupError.
func (g *Gateway) Call(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	requestID := uuid.NewString()
	ctx = logx.With(ctx, "request_id", requestID, "path", path)
	log := logx.FromContext(ctx)

	start := time.Now()
	body, err := g.call(ctx, path, payload, requestID)
	elapsed := time.Since(start)

	g.observe(path, err, elapsed)

	if err != nil {
		log.Warn("scanner call failed",
			"kind", Classify(err).String(),
			"error", err,
			"cause", errors.Unwrap(err),
			"duration_ms", elapsed.Milliseconds(),
		)

		return nil, err
	}

	log.Debug("scanner call succeeded", "duration_ms", elapsed.Milliseconds(), "bytes", len(body))

	return body, nil
}

func (g *Gateway) call(ctx context.Context, path string, payload any, requestID string) (json.RawMessage, error) {
	if g.tokens == nil {
		return nil, ErrAuthMissing
	}

	token, ok, err := g.tokens.Token(ctx)
	if err != nil {
		return nil, &RequestSetupError{Detail: "failed to retrieve authentication session: " + err.Error(), Err: err}
	}

	if !ok || token == "" {
		return nil, ErrAuthMissing
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &RequestSetupError{Detail: "encode request body: " + err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+path, bytes.NewReader(data))
	if err != nil {
		return nil, &RequestSetupError{Detail: err.Error(), Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	// A received non-2xx status is a rejection even when its body is cut short.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteRejectedError{Status: resp.StatusCode, Message: rejectionMessage(resp.StatusCode, raw)}
	}

	if readErr != nil {
		return nil, &NetworkError{Err: readErr}
	}

	return passthrough(raw), nil
}

// classifyTransport splits http.Client.Do failures into network failures
// (the request went out, nothing usable came back) and setup failures.
// Failed TLS handshakes count as network failures.
func classifyTransport(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return &RequestSetupError{Detail: err.Error(), Err: err}
	}

	inner := urlErr.Err

	var (
		netErr       net.Error
		verifyErr    *tls.CertificateVerificationError
		recordErr    tls.RecordHeaderError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)

	switch {
	case urlErr.Timeout(),
		errors.As(inner, &netErr),
		errors.As(inner, &verifyErr),
		errors.As(inner, &recordErr),
		errors.As(inner, &authorityErr),
		errors.As(inner, &hostnameErr),
		errors.As(inner, &invalidErr),
		errors.Is(inner, io.EOF),
		errors.Is(inner, io.ErrUnexpectedEOF),
		errors.Is(inner, context.DeadlineExceeded),
		errors.Is(inner, context.Canceled),
		errors.Is(inner, syscall.ECONNRESET),
		errors.Is(inner, syscall.ECONNREFUSED):
		return &NetworkError{Err: err}
	default:
		return &RequestSetupError{Detail: inner.Error(), Err: err}
	}
}

// rejectionMessage picks the body's message field, then the status text,
// then a generic fallback.
func rejectionMessage(status int, body []byte) string {
	var envelope struct {
		Message any `json:"message"`
	}

	if err := json.Unmarshal(body, &envelope); err == nil {
		switch m := envelope.Message.(type) {
		case string:
			if strings.TrimSpace(m) != "" {
				return m
			}
		case nil:
		default:
			if b, err := json.Marshal(m); err == nil {
				return string(b)
			}
		}
	}

	if text := http.StatusText(status); text != "" {
		return text
	}

	return "Unknown error"
}

// passthrough returns body as JSON: empty becomes null and non-JSON text
// is wrapped into a JSON string.
func passthrough(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage("null")
	}

	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}

	quoted, _ := json.Marshal(string(trimmed))

	return json.RawMessage(quoted)
}

func (g *Gateway) observe(path string, err error, elapsed time.Duration) {
	if g.metrics == nil {
		return
	}

	g.metrics.GatewayRequests.WithLabelValues(path, Outcome(err)).Inc()
	g.metrics.GatewayDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

// Outcome returns the metrics outcome label for err.
func Outcome(err error) string {
	switch Classify(err) {
	case KindAuthMissing:
		return metrics.OutcomeAuthMissing
	case KindRemoteRejected:
		return metrics.OutcomeRejected
	case KindNetworkUnreachable:
		return metrics.OutcomeUnreachable
	case KindRequestSetupFailed:
		return metrics.OutcomeSetupFailed
	default:
		return metrics.OutcomeSuccess
	}
}
