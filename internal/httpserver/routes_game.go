// internal/httpserver/routes_game.go
//
// HTTP routes for playing a game.
// Exposes under /game:
//   - POST /game/new      → create a session, hand out its token
//                           {"mode":"daily"} deals today's shared rounds
//   - GET  /game          → current view
//   - POST /game/select   → tap a flag  {"index": 0..2}
//   - POST /game/continue → dismiss the result (next round or game over)
//   - POST /game/reset    → "New Game" within the same session
//                           daily and fixed-seed games replay their deal
//   - DELETE /game        → end the session and clear the cookie
//
// All routes except /game/new require the session token. Every mutation goes
// through store.Update so one session handles one request at a time; GET
// /game only reads and does not keep an idle session alive.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guesstheflag/internal/daily"
	"github.com/robalobadob/guesstheflag/internal/game"
	"github.com/robalobadob/guesstheflag/internal/random"
)

const (
	modeNormal = "normal"
	modeDaily  = "daily"
)

// mountGame registers all /game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNew)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/", s.handleView)
			r.Delete("/", s.handleEnd)
			r.Post("/select", s.handleSelect)
			r.Post("/continue", s.handleContinue)
			r.Post("/reset", s.handleReset)
		})
	})
}

// -----------------------------------------------------------------------------
// /game/new

// newReq is the optional body of POST /game/new.
type newReq struct {
	Mode string `json:"mode"` // "" | "normal" | "daily"
}

type newRes struct {
	Mode      string    `json:"mode"`
	Date      string    `json:"date,omitempty"` // set for daily games
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	View      game.View `json:"view"`
}

// handleNew creates a session, prunes idle ones, and returns the first round.
// An empty body starts a normal game.
func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	var req newReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	res := newRes{Mode: modeNormal}
	switch req.Mode {
	case "", modeNormal:
	case modeDaily:
		res.Mode = modeDaily
	default:
		writeError(w, http.StatusBadRequest, "unknown_mode")
		return
	}

	if n, err := s.store.Prune(r.Context(), time.Now().Add(-s.opts.SessionTTL)); err != nil {
		log.Warn().Err(err).Msg("prune sessions")
	} else if n > 0 {
		log.Info().Int("pruned", n).Msg("dropped idle sessions")
	}

	now := time.Now()
	seed := s.opts.Seed
	if res.Mode == modeDaily {
		seed = daily.Seed(now, s.opts.DailySalt)
		res.Date = daily.DateKey(now)
	}
	sess, err := s.newSession(seed)
	if err != nil {
		log.Error().Err(err).Msg("create session")
		writeError(w, http.StatusInternalServerError, "session_failed")
		return
	}
	sess.Subscribe(logEvent)

	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	tok, exp, err := s.tokens.Sign(sess.ID)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.setSessionCookie(w, tok, exp)
	log.Info().Str("session", sess.ID).Str("mode", res.Mode).Msg("game started")

	res.Token, res.ExpiresAt, res.View = tok, exp, sess.View()
	writeJSON(w, http.StatusOK, res)
}

// newSession deals a game. A non-zero seed (daily or GAME_SEED) gives a
// replay session whose Reset rewinds to the same rounds; zero draws a fresh
// seed and every reset deals anew.
func (s *Server) newSession(seed int64) (*game.Session, error) {
	if seed != 0 {
		return game.NewReplaySession(s.catalog, seed)
	}
	rng, err := random.New(0)
	if err != nil {
		return nil, err
	}
	return game.NewSession(s.catalog, rng)
}

// -----------------------------------------------------------------------------
// /game

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	var view game.View
	err := s.store.Read(r.Context(), sessionID(r), func(sess *game.Session) error {
		view = sess.View()
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleEnd drops the caller's session. Ending an unknown session is not an error.
func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if err := s.store.Delete(r.Context(), sid); err != nil {
		writeGameError(w, err)
		return
	}
	s.clearSessionCookie(w)
	log.Info().Str("session", sid).Msg("game ended")
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// -----------------------------------------------------------------------------
// /game/select

type selectReq struct {
	Index *int `json:"index"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, "missing_index")
		return
	}
	s.apply(w, r, func(sess *game.Session) error {
		_, err := sess.SelectAnswer(*req.Index)
		return err
	})
}

// -----------------------------------------------------------------------------
// /game/continue, /game/reset

func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, (*game.Session).AcknowledgeResult)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, func(sess *game.Session) error {
		sess.Reset()
		return nil
	})
}

// apply runs fn on the caller's session and writes the resulting view.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, fn func(*game.Session) error) {
	var view game.View
	err := s.store.Update(r.Context(), sessionID(r), func(sess *game.Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		view = sess.View()
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// logEvent mirrors session transitions into the log.
func logEvent(ev game.Event) {
	e := log.Debug()
	if ev.Type == game.EventGameOver {
		e = log.Info()
	}
	e.Str("session", ev.View.SessionID).
		Str("event", string(ev.Type)).
		Int("round", ev.View.Round).
		Int("score", ev.View.Score).
		Msg("game event")
}
