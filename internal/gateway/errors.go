package gateway

import (
	"errors"
	"fmt"
)

// Kind is the gateway error classification callers branch their messaging on.
type Kind int

const (
	KindNone Kind = iota
	KindAuthMissing
	KindRemoteRejected
	KindNetworkUnreachable
	KindRequestSetupFailed
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuthMissing:
		return "auth_missing"
	case KindRemoteRejected:
		return "remote_rejected"
	case KindNetworkUnreachable:
		return "network_unreachable"
	case KindRequestSetupFailed:
		return "request_setup_failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrAuthMissing means no credential was available; no request was sent.
var ErrAuthMissing = errors.New("Authentication token not found. Please sign in again.") //nolint:staticcheck // shown to users verbatim

// ErrNetworkUnreachable matches every NetworkError through errors.Is.
var ErrNetworkUnreachable = errors.New("Network error: No response from API.") //nolint:staticcheck // shown to users verbatim

// RemoteRejectedError is a non-2xx response from the scanner API.
type RemoteRejectedError struct {
	Message string
	Status  int
}

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("Error %d: %s", e.Status, e.Message)
}

// NetworkError wraps a transport failure where the request went out but no
// response came back.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return ErrNetworkUnreachable.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is reports ErrNetworkUnreachable as a match.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetworkUnreachable
}

// RequestSetupError covers failures building or dispatching a request.
type RequestSetupError struct {
	Err    error
	Detail string
}

func (e *RequestSetupError) Error() string {
	return "An unexpected error occurred: " + e.Detail
}

func (e *RequestSetupError) Unwrap() error { return e.Err }

// Classify returns the Kind of err. Errors that did not come from a
// Gateway are reported as KindRequestSetupFailed.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		rejected *RemoteRejectedError
		setup    *RequestSetupError
	)

	switch {
	case errors.Is(err, ErrAuthMissing):
		return KindAuthMissing
	case errors.As(err, &rejected):
		return KindRemoteRejected
	case errors.Is(err, ErrNetworkUnreachable):
		return KindNetworkUnreachable
	case errors.As(err, &setup):
		return KindRequestSetupFailed
	default:
		return KindRequestSetupFailed
	}
}

// Hint returns the user-facing advice for an error kind.
func Hint(k Kind) string {
	switch k {
	case KindAuthMissing:
		return "please sign in again"
	case KindNetworkUnreachable:
		return "check your network connection"
	case KindRemoteRejected:
		return "the scanner refused the request"
	case KindRequestSetupFailed:
		return "unexpected error"
	default:
		return ""
	}
}
