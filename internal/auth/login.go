package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hrmless/adapter/internal/log"
)

// CallbackPath is where the identity provider redirects after login.
const CallbackPath = "/callback"

// NewState returns a random OAuth state value.
func NewState() string {
	return uuid.NewString()
}

type callbackResult struct {
	code string
	err  error
}

// LoginServer receives the authorization code on a loopback address.
type LoginServer struct {
	state    string
	listener net.Listener
	server   *http.Server
	results  chan callbackResult
	logger   *slog.Logger
}

// NewLoginServer listens on addr (e.g. "127.0.0.1:0") and accepts one
// callback carrying state.
func NewLoginServer(addr, state string, logger *slog.Logger) (*LoginServer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for login callback: %w", err)
	}

	s := &LoginServer{
		state:    state,
		listener: ln,
		results:  make(chan callbackResult, 1),
		logger:   log.WithComponent(logger, "login"),
	}
	s.server = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	return s, nil
}

// RedirectURI is the callback URL to register with the authorize request.
func (s *LoginServer) RedirectURI() string {
	return "http://" + s.listener.Addr().String() + CallbackPath
}

// Handler serves the callback route.
func (s *LoginServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get(CallbackPath, s.handleCallback)
	return r
}

// Start serves in the background until Shutdown.
func (s *LoginServer) Start() {
	go func() {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("login callback server stopped", log.Error(err))
		}
	}()
}

// Wait blocks until a callback arrives or ctx is done.
func (s *LoginServer) Wait(ctx context.Context) (string, error) {
	select {
	case res := <-s.results:
		return res.code, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Shutdown stops the server.
func (s *LoginServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *LoginServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("state") != s.state {
		http.Error(w, "state mismatch", http.StatusBadRequest)
		s.deliver(callbackResult{err: fmt.Errorf("login callback state mismatch")})
		return
	}
	if e := q.Get("error"); e != "" {
		http.Error(w, "authorization failed: "+e, http.StatusBadRequest)
		s.deliver(callbackResult{err: fmt.Errorf("authorization failed: %s %s", e, q.Get("error_description"))})
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		s.deliver(callbackResult{err: fmt.Errorf("login callback without code")})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, "HRMLESS login complete. You can close this window.")
	s.deliver(callbackResult{code: code})
}

// deliver keeps the first result only.
func (s *LoginServer) deliver(res callbackResult) {
	select {
	case s.results <- res:
	default:
	}
}
