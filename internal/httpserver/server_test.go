package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/guesstheflag/internal/flags"
	"github.com/robalobadob/guesstheflag/internal/game"
	"github.com/robalobadob/guesstheflag/internal/store"
	"github.com/robalobadob/guesstheflag/internal/token"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cat, err := flags.Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	iss, err := token.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	return New(store.NewMemoryStore(), cat, iss, Options{Seed: 7, DailySalt: "test-salt"})
}

func do(t *testing.T, s *Server, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func startGame(t *testing.T, s *Server) (string, game.View) {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/game/new", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("new game: status %d body %s", rec.Code, rec.Body.String())
	}
	res := decode[newRes](t, rec)
	if res.Token == "" {
		t.Fatal("expected token")
	}
	return res.Token, res.View
}

func correctIndex(t *testing.T, v game.View) int {
	t.Helper()
	for i, c := range v.Choices {
		if c.Country == v.Target {
			return i
		}
	}
	t.Fatalf("target %q not among choices %+v", v.Target, v.Choices)
	return -1
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestFlagsEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/flags", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	list := decode[flagsRes](t, rec)
	if len(list.Countries) != 11 {
		t.Fatalf("expected 11 countries, got %d", len(list.Countries))
	}

	rec = do(t, s, http.MethodGet, "/flags/France", "", nil)
	fr := decode[flagRes](t, rec)
	if !fr.Known || fr.Asset != "France" || fr.Label == flags.UnknownDescription {
		t.Fatalf("unexpected France entry %+v", fr)
	}

	rec = do(t, s, http.MethodGet, "/flags/Atlantis", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown flag, got %d", rec.Code)
	}
	un := decode[flagRes](t, rec)
	if un.Known || un.Label != "Unknown flag" {
		t.Fatalf("unexpected unknown entry %+v", un)
	}
}

func TestNewGameSetsCookie(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/game/new", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "flag_session" && c.Value != "" && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Fatal("expected flag_session cookie")
	}
	res := decode[newRes](t, rec)
	v := res.View
	if v.Phase != game.PhaseAwaitingSelection || v.Round != 0 || v.Score != 0 {
		t.Fatalf("unexpected initial view %+v", v)
	}
	if v.TotalRounds != game.TotalRounds || len(v.Choices) != game.ChoicesPerRound {
		t.Fatalf("unexpected round shape %+v", v)
	}
	if v.Prompt != "Tap the flag of" {
		t.Fatalf("unexpected prompt %q", v.Prompt)
	}
}

func TestCookieAuth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/game/new", "", nil)
	cookies := rec.Result().Cookies()

	req := httptest.NewRequest(http.MethodGet, "/game", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	out := httptest.NewRecorder()
	s.Router().ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("expected 200 with cookie, got %d body %s", out.Code, out.Body.String())
	}
}

func TestPerfectGameOverHTTP(t *testing.T) {
	s := newTestServer(t)
	tok, v := startGame(t, s)

	for i := 0; i < game.TotalRounds; i++ {
		idx := correctIndex(t, v)
		rec := do(t, s, http.MethodPost, "/game/select", tok, map[string]int{"index": idx})
		if rec.Code != http.StatusOK {
			t.Fatalf("round %d select: status %d body %s", i, rec.Code, rec.Body.String())
		}
		v = decode[game.View](t, rec)
		if v.Phase != game.PhaseShowingResult || v.Result == nil || !v.Result.Correct {
			t.Fatalf("round %d: unexpected view %+v", i, v)
		}
		if v.Selected == nil || *v.Selected != idx {
			t.Fatalf("round %d: expected selected %d", i, idx)
		}
		if v.Score != i+1 || v.Round != i+1 {
			t.Fatalf("round %d: expected %d/%d, got %d/%d", i, i+1, i+1, v.Score, v.Round)
		}

		rec = do(t, s, http.MethodPost, "/game/continue", tok, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("round %d continue: status %d", i, rec.Code)
		}
		v = decode[game.View](t, rec)
	}

	if v.Phase != game.PhaseGameOver || v.Summary == nil {
		t.Fatalf("expected game over view, got %+v", v)
	}
	if v.Summary.Judgment != "Perfect! You know your countries!" {
		t.Fatalf("unexpected judgment %q", v.Summary.Judgment)
	}

	rec := do(t, s, http.MethodPost, "/game/select", tok, map[string]int{"index": 0})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 after game over, got %d", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/game/reset", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: status %d", rec.Code)
	}
	v = decode[game.View](t, rec)
	if v.Phase != game.PhaseAwaitingSelection || v.Score != 0 || v.Round != 0 || v.Summary != nil {
		t.Fatalf("unexpected view after reset %+v", v)
	}
}

func TestWrongAnswerHTTP(t *testing.T) {
	s := newTestServer(t)
	tok, v := startGame(t, s)
	idx := (correctIndex(t, v) + 1) % game.ChoicesPerRound

	rec := do(t, s, http.MethodPost, "/game/select", tok, map[string]int{"index": idx})
	if rec.Code != http.StatusOK {
		t.Fatalf("select: status %d", rec.Code)
	}
	got := decode[game.View](t, rec)
	if got.Score != 0 || got.Round != 1 {
		t.Fatalf("expected 0/1, got %d/%d", got.Score, got.Round)
	}
	want := "That's the flag of " + v.Choices[idx].Country
	if got.Result == nil || got.Result.Title != "Wrong" || got.Result.Message != want {
		t.Fatalf("unexpected result %+v", got.Result)
	}
}

func TestGameRequestErrors(t *testing.T) {
	s := newTestServer(t)
	tok, _ := startGame(t, s)

	other, err := token.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	orphan, _, err := other.Sign("no-such-session")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		tok    string
		body   any
		status int
	}{
		{"no token", http.MethodGet, "/game", "", nil, http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/game", "junk", nil, http.StatusUnauthorized},
		{"unknown session", http.MethodGet, "/game", orphan, nil, http.StatusNotFound},
		{"missing index", http.MethodPost, "/game/select", tok, map[string]string{}, http.StatusBadRequest},
		{"out of range", http.MethodPost, "/game/select", tok, map[string]int{"index": 3}, http.StatusBadRequest},
		{"continue too early", http.MethodPost, "/game/continue", tok, nil, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.tok, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d body %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/game/select", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	s := newTestServer(t)
	tokA, vA := startGame(t, s)
	tokB, _ := startGame(t, s)

	rec := do(t, s, http.MethodPost, "/game/select", tokA, map[string]int{"index": correctIndex(t, vA)})
	if rec.Code != http.StatusOK {
		t.Fatalf("select: status %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/game", tokB, nil)
	vB := decode[game.View](t, rec)
	if vB.Score != 0 || vB.Round != 0 || vB.Phase != game.PhaseAwaitingSelection {
		t.Fatalf("session B affected by A: %+v", vB)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodOptions, "/game/new", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected origin header %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestDailyGamesShareRounds(t *testing.T) {
	s := newTestServer(t)
	s.opts.Seed = 0 // normal games draw fresh seeds; daily must not

	first := do(t, s, http.MethodPost, "/game/new", "", map[string]string{"mode": "daily"})
	second := do(t, s, http.MethodPost, "/game/new", "", map[string]string{"mode": "daily"})
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("daily new: status %d/%d", first.Code, second.Code)
	}
	a := decode[newRes](t, first)
	b := decode[newRes](t, second)
	if a.Mode != "daily" || a.Date == "" || a.Date != b.Date {
		t.Fatalf("unexpected daily metadata %q/%q %q", a.Mode, a.Date, b.Date)
	}
	if a.View.SessionID == b.View.SessionID {
		t.Fatal("daily games must still get separate sessions")
	}
	if a.View.Target != b.View.Target {
		t.Fatalf("daily targets differ: %q vs %q", a.View.Target, b.View.Target)
	}
	for i := range a.View.Choices {
		if a.View.Choices[i].Country != b.View.Choices[i].Country {
			t.Fatalf("daily choice %d differs", i)
		}
	}
}

func TestNewGameRejectsUnknownMode(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/game/new", "", map[string]string{"mode": "hard"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func sameDeal(a, b game.View) bool {
	if a.Target != b.Target || len(a.Choices) != len(b.Choices) {
		return false
	}
	for i := range a.Choices {
		if a.Choices[i].Country != b.Choices[i].Country {
			return false
		}
	}
	return true
}

func TestDailyResetReplaysTodaysDeal(t *testing.T) {
	s := newTestServer(t)
	s.opts.Seed = 0

	rec := do(t, s, http.MethodPost, "/game/new", "", map[string]string{"mode": "daily"})
	if rec.Code != http.StatusOK {
		t.Fatalf("daily new: status %d", rec.Code)
	}
	started := decode[newRes](t, rec)

	// play into the second round so the session's rng has moved on
	rec = do(t, s, http.MethodPost, "/game/select", started.Token, map[string]int{"index": correctIndex(t, started.View)})
	if rec.Code != http.StatusOK {
		t.Fatalf("select: status %d", rec.Code)
	}
	rec = do(t, s, http.MethodPost, "/game/continue", started.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("continue: status %d", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/game/reset", started.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: status %d", rec.Code)
	}
	reset := decode[game.View](t, rec)
	if reset.Round != 0 || reset.Score != 0 || reset.Phase != game.PhaseAwaitingSelection {
		t.Fatalf("unexpected view after reset %+v", reset)
	}

	rec = do(t, s, http.MethodPost, "/game/new", "", map[string]string{"mode": "daily"})
	if rec.Code != http.StatusOK {
		t.Fatalf("second daily new: status %d", rec.Code)
	}
	fresh := decode[newRes](t, rec)
	if !sameDeal(reset, fresh.View) {
		t.Fatalf("reset dealt %q %+v, fresh daily dealt %q %+v",
			reset.Target, reset.Choices, fresh.View.Target, fresh.View.Choices)
	}
}

func TestFixedSeedResetReplaysDeal(t *testing.T) {
	s := newTestServer(t)
	tok, first := startGame(t, s)

	rec := do(t, s, http.MethodPost, "/game/select", tok, map[string]int{"index": 0})
	if rec.Code != http.StatusOK {
		t.Fatalf("select: status %d", rec.Code)
	}
	rec = do(t, s, http.MethodPost, "/game/reset", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: status %d", rec.Code)
	}
	if v := decode[game.View](t, rec); !sameDeal(first, v) {
		t.Fatalf("expected reset to replay %q, got %q", first.Target, v.Target)
	}
}

func TestNewGameAcceptsEmptyBodyOfUnknownLength(t *testing.T) {
	s := newTestServer(t)
	for _, body := range []string{"", "  \n"} {
		req := httptest.NewRequest(http.MethodPost, "/game/new", strings.NewReader(body))
		req.ContentLength = -1 // as for a chunked request
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("body %q: expected 200, got %d body %s", body, rec.Code, rec.Body.String())
		}
		if res := decode[newRes](t, rec); res.Mode != "normal" {
			t.Fatalf("body %q: expected normal mode, got %q", body, res.Mode)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/game/new", strings.NewReader(`{"mode":`))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for truncated json, got %d", rec.Code)
	}
}

func TestEndGame(t *testing.T) {
	s := newTestServer(t)
	tok, _ := startGame(t, s)

	rec := do(t, s, http.MethodDelete, "/game", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("end: status %d body %s", rec.Code, rec.Body.String())
	}
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == s.opts.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected session cookie to be cleared")
	}

	rec = do(t, s, http.MethodGet, "/game", tok, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after end, got %d", rec.Code)
	}
	rec = do(t, s, http.MethodDelete, "/game", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ending twice: status %d", rec.Code)
	}
}
