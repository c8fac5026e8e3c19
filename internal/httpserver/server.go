// internal/httpserver/server.go
//
// HTTP server wiring for the flag quiz backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/flags", "/flags/{name}".
//   - Game endpoints: mounted under /game (see routes_game.go).
//   - Session token extraction (Authorization: Bearer or cookie).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Every client owns exactly one in-memory session; nothing survives a restart.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guesstheflag/internal/flags"
	"github.com/robalobadob/guesstheflag/internal/game"
	"github.com/robalobadob/guesstheflag/internal/store"
	"github.com/robalobadob/guesstheflag/internal/token"
)

// Options carries the transport settings from config.
type Options struct {
	ClientOrigin string
	CookieName   string
	SessionTTL   time.Duration
	Secure       bool  // Secure + SameSite=None cookies
	Seed         int64 // fixed seed for new sessions; 0 draws one per session
	DailySalt    string
}

// Server bundles router, session store, catalog and token issuer.
type Server struct {
	r       *chi.Mux
	store   store.Store
	catalog *flags.Catalog
	tokens  *token.Issuer
	opts    Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, cat *flags.Catalog, tokens *token.Issuer, opts Options) *Server {
	if opts.CookieName == "" {
		opts.CookieName = "flag_session"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	s := &Server{r: chi.NewRouter(), store: st, catalog: cat, tokens: tokens, opts: opts}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)                       // one zerolog line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(s.cors)                          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "guesstheflag-go",
			"endpoints": []string{
				"/health", "/flags", "/flags/{name}",
				"POST /game/new", "GET /game", "POST /game/select",
				"POST /game/continue", "POST /game/reset",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	// --- catalog ---
	s.r.Get("/flags", s.handleFlags)
	s.r.Get("/flags/{name}", s.handleFlag)

	// --- game ---
	s.mountGame(s.r)

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.opts.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one structured line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("reqId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// ------------------------------ CATALOG ------------------------------------

type flagsRes struct {
	Countries []flags.Flag `json:"countries"`
}

func (s *Server) handleFlags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, flagsRes{Countries: s.catalog.All()})
}

type flagRes struct {
	Name  string `json:"name"`
	Asset string `json:"asset"`
	Label string `json:"label"`
	Known bool   `json:"known"`
}

// handleFlag describes one country. Unknown names still answer 200 with the
// "Unknown flag" label so a front end can render whatever it was given.
func (s *Server) handleFlag(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	_, known := s.catalog.Lookup(name)
	writeJSON(w, http.StatusOK, flagRes{
		Name:  name,
		Asset: s.catalog.Asset(name),
		Label: s.catalog.Describe(name),
		Known: known,
	})
}

// ----------------------------- sessions ------------------------------------

// ctxSessionKey is the context key type for the authenticated session ID.
type ctxSessionKey struct{}

// requireSession verifies the session token and stores its ID in the request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := s.bearerOrCookie(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		sid, err := s.tokens.Parse(tok)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(r *http.Request) string {
	sid, _ := r.Context().Value(ctxSessionKey{}).(string)
	return sid
}

// setSessionCookie writes the session token cookie with appropriate security attributes.
func (s *Server) setSessionCookie(w http.ResponseWriter, tok string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.opts.Secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// clearSessionCookie expires the session token cookie.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a token from the Authorization header or the session cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.opts.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// ------------------------------- small util --------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeGameError maps engine and store errors to HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "session_not_found")
	case errors.Is(err, game.ErrInvalidChoice):
		writeError(w, http.StatusBadRequest, "invalid_choice")
	case errors.Is(err, game.ErrWrongPhase):
		writeError(w, http.StatusConflict, "wrong_phase")
	default:
		log.Error().Err(err).Msg("game request failed")
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}
