// Package auth obtains the OAuth credentials used for Gmail and Google Sheets.
// Tokens are cached on disk; the first run goes through the installed-app
// loopback flow in the browser.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/sheets/v4"
)

const callbackPath = "/oauth-callback"

// Scopes requested for the session: reading mail and editing spreadsheets.
var Scopes = []string{
	gmail.GmailModifyScope,
	gmail.GmailReadonlyScope,
	sheets.SpreadsheetsScope,
}

// LoadConfig reads an installed-app client secret downloaded from the Google Cloud console.
func LoadConfig(credentialsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("failed to read credentials %s", credentialsPath), Cause: err}
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, &AuthError{Message: "invalid credentials file", Cause: err}
	}
	return cfg, nil
}

// LoadToken reads a cached token. A missing file yields an error wrapping os.ErrNotExist.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("failed to parse token %s", path), Cause: err}
	}
	return &tok, nil
}

// SaveToken writes tok to path, readable only by the owner.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// HTTPClient returns an authorized client for the Google APIs. The cached token at
// tokenPath is used when present; otherwise the browser flow runs and prints its
// URL to out. Refreshed tokens are written back to tokenPath.
func HTTPClient(ctx context.Context, credentialsPath, tokenPath string, out io.Writer) (*http.Client, error) {
	cfg, err := LoadConfig(credentialsPath)
	if err != nil {
		return nil, err
	}

	tok, err := LoadToken(tokenPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if tok, err = Authorize(ctx, cfg, out); err != nil {
			return nil, err
		}
		if err := SaveToken(tokenPath, tok); err != nil {
			return nil, &AuthError{Message: "failed to cache token", Cause: err}
		}
	}

	src := &savingTokenSource{
		base: cfg.TokenSource(ctx, tok),
		path: tokenPath,
		last: tok,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// Authorize runs the installed-app flow: a loopback listener receives the code that
// the consent page redirects back with.
func Authorize(ctx context.Context, cfg *oauth2.Config, out io.Writer) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, &AuthError{Message: "failed to open callback listener", Cause: err}
	}

	flow := *cfg
	flow.RedirectURL = fmt.Sprintf("http://%s%s", listener.Addr().String(), callbackPath)
	state := uuid.NewString()

	result := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.Handle(callbackPath, callbackHandler(state, result))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case result <- callbackResult{err: err}:
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(out, "Open the following link in your browser to authorize access:\n%s\n",
		flow.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")))

	select {
	case r := <-result:
		if r.err != nil {
			return nil, &AuthError{Message: "authorization failed", Cause: r.err}
		}
		tok, err := flow.Exchange(ctx, r.code)
		if err != nil {
			return nil, &AuthError{Message: "failed to exchange authorization code", Cause: err}
		}
		return tok, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type callbackResult struct {
	code string
	err  error
}

// callbackHandler reports the first callback it sees on result and answers the browser.
func callbackHandler(expectedState string, result chan<- callbackResult) http.Handler {
	var once sync.Once
	report := func(r callbackResult) {
		once.Do(func() { result <- r })
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != expectedState:
			http.Error(w, "Invalid state", http.StatusBadRequest)
			report(callbackResult{err: errors.New("invalid state received")})
		case q.Get("error") != "":
			http.Error(w, "Authorization failed: "+q.Get("error"), http.StatusBadRequest)
			report(callbackResult{err: fmt.Errorf("consent denied: %s", q.Get("error"))})
		case q.Get("code") == "":
			http.Error(w, "No code received", http.StatusBadRequest)
			report(callbackResult{err: errors.New("no code received")})
		default:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = io.WriteString(w, "Authorization complete. You can close this tab and return to the terminal.")
			report(callbackResult{code: q.Get("code")})
		}
	})
}

// savingTokenSource writes each newly minted token back to disk.
type savingTokenSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || s.last.AccessToken != tok.AccessToken {
		if err := SaveToken(s.path, tok); err != nil {
			return nil, &AuthError{Message: "failed to cache refreshed token", Cause: err}
		}
		s.last = tok
	}
	return tok, nil
}
