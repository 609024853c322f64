package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"gcalctl/internal/apperr"
	appLog "gcalctl/internal/log"
)

const callbackPath = "/callback"

// Login runs the installed-app flow: it listens on a loopback port, prints
// the consent URL, waits for the redirect carrying the code and exchanges it
// (with PKCE) for a token, which is cached in TokenFile.
func (p *FileProvider) Login(ctx context.Context) (*oauth2.Token, error) {
	cfg, err := p.oauthConfig()
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback: %w", err)
	}
	cfg.RedirectURL = "http://" + ln.Addr().String() + callbackPath

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce, oauth2.S256ChallengeOption(verifier))

	type result struct {
		code string
		err  error
	}
	done := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res result
		switch {
		case q.Get("state") != state:
			res.err = errors.New("state mismatch in oauth callback")
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("oauth callback without code")
		default:
			res.code = q.Get("code")
		}
		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "gcalctl is authorized. You can close this window.")
		}
		select {
		case done <- res:
		default:
		}
	})

	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("auth: callback server stopped", err)
		}
	}()
	defer srv.Close()

	fmt.Fprintf(p.prompt(), "Open this URL in your browser to authorize gcalctl:\n\n%s\n\n", authURL)
	if p.OpenURL != nil {
		go p.OpenURL(authURL)
	}
	appLog.Debug("auth: waiting for oauth callback", "redirect_url", cfg.RedirectURL)

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		return nil, apperr.Wrap(ctx.Err(), apperr.CodeAuthentication, "login aborted")
	}
	if res.err != nil {
		return nil, apperr.Wrap(res.err, apperr.CodeAuthentication, "login")
	}

	tok, err := cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeAuthentication, "exchange authorization code")
	}
	if err := SaveToken(p.TokenFile, tok); err != nil {
		return nil, fmt.Errorf("cache token: %w", err)
	}

	appLog.Info("auth: login complete", "token_file", p.TokenFile)
	return tok, nil
}
