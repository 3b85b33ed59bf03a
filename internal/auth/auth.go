// Package auth supplies bearer credentials for outbound scanner calls.
//
// A Provider is asked for a token before every request. Tokens are never
// cached here: the identity provider's sign-in helper owns their lifetime,
// and a provider only reports what is currently available.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/btraven00/phishguard/internal/config"
)

// Provider returns the current bearer credential.
//
// ok is false with a nil error when there is no active session. err is
// reserved for unexpected faults inside the provider itself.
type Provider interface {
	Token(ctx context.Context) (token string, ok bool, err error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (string, bool, error)

// Token calls f(ctx).
func (f ProviderFunc) Token(ctx context.Context) (string, bool, error) {
	return f(ctx)
}

// Static serves a fixed token, typically injected through the environment.
type Static string

// Token returns the static token; an empty value means no session.
func (s Static) Token(context.Context) (string, bool, error) {
	tok := strings.TrimSpace(string(s))
	return tok, tok != "", nil
}

// New builds the provider selected by cfg.Provider.
func New(cfg config.AuthConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderStatic:
		return Static(cfg.Token), nil
	case config.ProviderFile:
		return NewSessionFile(cfg.SessionFile, cfg.TokenUse), nil
	case config.ProviderRedis:
		return NewRedis(cfg.Redis), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Provider)
	}
}

var unverifiedParser = jwt.NewParser()

// expired reports whether tok is a JWT whose exp claim lies before now.
// Signatures are not checked; the remote authorizer does that. Tokens
// that are not JWTs are treated as opaque and never considered expired.
func expired(tok string, now time.Time) bool {
	parsed, _, err := unverifiedParser.ParseUnverified(tok, jwt.MapClaims{})
	if err != nil {
		return false
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return !now.Before(exp.Time)
}

// Closer is implemented by providers holding connections.
type Closer interface {
	Close() error
}

// Close releases p's resources when it holds any.
func Close(p Provider) error {
	if c, ok := p.(Closer); ok {
		return c.Close()
	}

	return nil
}
