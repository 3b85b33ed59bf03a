package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/btraven00/phishguard/internal/config"
)

// Session is the on-disk format written by the sign-in helper.
type Session struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
}

// SessionFile reads tokens from a session file on every call.
type SessionFile struct {
	now      func() time.Time
	path     string
	tokenUse string
}

// NewSessionFile returns a provider reading path. tokenUse selects the ID
// token ("id") or the access token ("access").
func NewSessionFile(path, tokenUse string) *SessionFile {
	if tokenUse == "" {
		tokenUse = config.TokenUseID
	}

	return &SessionFile{path: path, tokenUse: tokenUse, now: time.Now}
}

// Token implements Provider. A missing file, an empty token or an expired
// JWT all mean there is no active session.
func (s *SessionFile) Token(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("read session file: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return "", false, nil
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return "", false, fmt.Errorf("decode session file %s: %w", s.path, err)
	}

	tok := sess.IDToken
	if s.tokenUse == config.TokenUseAccess {
		tok = sess.AccessToken
	}

	tok = strings.TrimSpace(tok)
	if tok == "" || expired(tok, s.now()) {
		return "", false, nil
	}

	return tok, true, nil
}
