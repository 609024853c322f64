// Package auth provides OAuth2 credentials for the calendar service, backed by
// a client secret file and a cached token file.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"gcalctl/internal/apperr"
	"gcalctl/internal/config"
	appLog "gcalctl/internal/log"
)

// FileProvider implements gateway.CredentialProvider.
type FileProvider struct {
	CredentialsFile string
	TokenFile       string
	Scopes          []string

	// Interactive runs the browser login when no token is cached. Otherwise a
	// missing token is an authentication error.
	Interactive bool

	// Prompt receives the consent URL. Defaults to stderr.
	Prompt io.Writer

	// OpenURL, if set, is called with the consent URL (e.g. to launch a
	// browser).
	OpenURL func(url string)
}

// Credentials returns a token source that refreshes itself and writes
// refreshed tokens back to TokenFile. A token is obtained eagerly so broken
// credentials fail here rather than on the first request.
func (p *FileProvider) Credentials(ctx context.Context) (oauth2.TokenSource, error) {
	cfg, err := p.oauthConfig()
	if err != nil {
		return nil, err
	}

	tok, err := LoadToken(p.TokenFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !p.Interactive {
			return nil, apperr.New(apperr.CodeAuthentication, "no cached token at "+p.TokenFile+"; run `gcalctl login`")
		}
		if tok, err = p.Login(ctx); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, apperr.Wrap(err, apperr.CodeAuthentication, "read token file")
	}

	ts := &savingSource{
		base: cfg.TokenSource(ctx, tok),
		path: p.TokenFile,
		last: tok.AccessToken,
	}
	if _, err := ts.Token(); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeAuthentication, "refresh token")
	}
	return ts, nil
}

func (p *FileProvider) oauthConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(p.CredentialsFile)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeAuthentication, "read client credentials")
	}
	cfg, err := google.ConfigFromJSON(data, p.Scopes...)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeAuthentication, "parse client credentials")
	}
	return cfg, nil
}

func (p *FileProvider) prompt() io.Writer {
	if p.Prompt != nil {
		return p.Prompt
	}
	return os.Stderr
}

// LoadToken reads a cached token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", path, err)
	}
	return &tok, nil
}

// SaveToken writes tok to path with 0600 permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return config.WriteAtomic(path, data)
}

// savingSource persists every token that differs from the last one seen.
type savingSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := SaveToken(s.path, tok); err != nil {
			appLog.Error("auth: failed to cache refreshed token", err, "path", s.path)
		} else {
			appLog.Debug("auth: refreshed token cached", "path", s.path, "expiry", tok.Expiry)
		}
	}
	return tok, nil
}
