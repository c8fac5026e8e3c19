// internal/game/engine.go
//
// Core game engine for a single flag quiz session.
// Responsibilities:
//   - Deal rounds: shuffle the catalog, show the first three, pick a target.
//   - Score taps and produce the Correct/Wrong feedback text.
//   - Track state transitions: awaiting_selection → showing_result → game_over.
//   - Notify registered listeners after every transition.
//
// Notes:
//   - The catalog is shared and read-only; each session keeps its own
//     shuffled copy of the names.
//   - Randomness comes from the injected Rand. A replay session (seeded)
//     rewinds to the same deal on every Reset.
//   - A session is not safe for concurrent use; callers serialise access
//     (see the store package).
package game

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mrand "math/rand"

	"github.com/robalobadob/guesstheflag/internal/flags"
)

// Prompt is shown above the target country name.
const Prompt = "Tap the flag of"

var (
	// ErrWrongPhase is returned when a transition is not valid in the current phase.
	ErrWrongPhase = errors.New("game: action not allowed in current phase")
	// ErrInvalidChoice is returned for a tap outside 0..ChoicesPerRound-1.
	ErrInvalidChoice = errors.New("game: choice out of range")
)

// Session holds the mutable state of one game.
type Session struct {
	ID string

	catalog *flags.Catalog
	rng     Rand
	names   []string
	seed    int64
	replay  bool

	phase    Phase
	score    int
	round    int
	current  Round
	selected int
	result   *Result
	summary  *Summary

	listeners []Listener
}

// NewSession constructs a session over cat and deals the first round.
// Reset keeps drawing from rng, so every new game is a fresh deal.
func NewSession(cat *flags.Catalog, rng Rand) (*Session, error) {
	id, err := randomID()
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:      id,
		catalog: cat,
		rng:     rng,
		names:   cat.Names(),
	}
	s.startRound()
	return s, nil
}

// NewReplaySession constructs a session whose deal is fixed by seed.
// Reset rewinds to the same eight rounds.
func NewReplaySession(cat *flags.Catalog, seed int64) (*Session, error) {
	s, err := NewSession(cat, mrand.New(mrand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	s.seed, s.replay = seed, true
	return s, nil
}

// Seed reports the replay seed, if the session has one.
func (s *Session) Seed() (int64, bool) { return s.seed, s.replay }

// Subscribe registers l for all future events.
func (s *Session) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// StartRound deals a fresh round without touching score or round number.
// It fails once all rounds have been answered.
func (s *Session) StartRound() error {
	if s.round >= TotalRounds {
		return ErrWrongPhase
	}
	s.startRound()
	return nil
}

func (s *Session) startRound() {
	s.rng.Shuffle(len(s.names), func(i, j int) {
		s.names[i], s.names[j] = s.names[j], s.names[i]
	})
	var r Round
	copy(r.Countries[:], s.names[:ChoicesPerRound])
	r.Correct = s.rng.Intn(ChoicesPerRound)

	s.current = r
	s.selected = NoSelection
	s.result = nil
	s.summary = nil
	s.phase = PhaseAwaitingSelection
	s.emit(EventRoundStarted)
}

// SelectAnswer applies a tap on the flag at index.
//
// Correct taps add one point; wrong taps leave the score alone. Either way
// the round counter advances and the session moves to showing_result.
func (s *Session) SelectAnswer(index int) (Result, error) {
	if s.phase != PhaseAwaitingSelection {
		return Result{}, ErrWrongPhase
	}
	if index < 0 || index >= ChoicesPerRound {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidChoice, index)
	}

	s.selected = index
	tapped := s.current.Countries[index]
	res := Result{Tapped: tapped}
	if index == s.current.Correct {
		s.score++
		res.Correct = true
		res.Title = "Correct"
		res.Message = fmt.Sprintf("Your score is %d", s.score)
	} else {
		res.Title = "Wrong"
		res.Message = fmt.Sprintf("That's the flag of %s", tapped)
	}
	s.round++
	s.result = &res
	s.phase = PhaseShowingResult
	s.emit(EventAnswerResult)
	return res, nil
}

// AcknowledgeResult dismisses the result: the game ends after the last
// round, otherwise the next round is dealt.
func (s *Session) AcknowledgeResult() error {
	if s.phase != PhaseShowingResult {
		return ErrWrongPhase
	}
	if s.round >= TotalRounds {
		sum := SummaryFor(s.score)
		s.summary = &sum
		s.phase = PhaseGameOver
		s.emit(EventGameOver)
		return nil
	}
	s.startRound()
	return nil
}

// Reset starts a new game from any phase.
func (s *Session) Reset() {
	s.score = 0
	s.round = 0
	if s.replay {
		s.rng = mrand.New(mrand.NewSource(s.seed))
		s.names = s.catalog.Names()
	}
	s.startRound()
}

// Phase reports the current state machine position.
func (s *Session) Phase() Phase { return s.phase }

// Score reports the number of correct answers so far.
func (s *Session) Score() int { return s.score }

// RoundNumber reports how many rounds have been answered.
func (s *Session) RoundNumber() int { return s.round }

// Current returns the round on screen.
func (s *Session) Current() Round { return s.current }

// Selected returns the tapped index, if any.
func (s *Session) Selected() (int, bool) {
	return s.selected, s.selected != NoSelection
}

// LastResult returns the feedback for the latest tap while it is shown.
func (s *Session) LastResult() (Result, bool) {
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

// Summary returns the game over text once the game has ended.
func (s *Session) Summary() (Summary, bool) {
	if s.summary == nil {
		return Summary{}, false
	}
	return *s.summary, true
}

// View builds a rendering snapshot.
func (s *Session) View() View {
	v := View{
		SessionID:   s.ID,
		Phase:       s.phase,
		Round:       s.round,
		TotalRounds: TotalRounds,
		Score:       s.score,
		Prompt:      Prompt,
		Target:      s.current.Target(),
		Choices:     make([]Choice, 0, ChoicesPerRound),
	}
	for _, name := range s.current.Countries {
		v.Choices = append(v.Choices, Choice{
			Country: name,
			Asset:   s.catalog.Asset(name),
			Label:   s.catalog.Describe(name),
		})
	}
	if s.selected != NoSelection {
		sel := s.selected
		v.Selected = &sel
	}
	if s.result != nil {
		r := *s.result
		v.Result = &r
	}
	if s.summary != nil {
		sum := *s.summary
		v.Summary = &sum
	}
	return v
}

func (s *Session) emit(t EventType) {
	if len(s.listeners) == 0 {
		return
	}
	ev := Event{Type: t, View: s.View()}
	for _, l := range s.listeners {
		l(ev)
	}
}

// Judgment maps a final score to its closing message.
func Judgment(score int) string {
	switch {
	case score == TotalRounds:
		return "Perfect! You know your countries!"
	case score > 4:
		return "Well done, nearly there!"
	default:
		return "Nice try. Keep practicing and soon you'll get them all!"
	}
}

// SummaryFor builds the game over text for score.
func SummaryFor(score int) Summary {
	j := Judgment(score)
	return Summary{
		Title:    "Game Over!",
		Message:  fmt.Sprintf("You got %d of %d correct.\n\n%s", score, TotalRounds, j),
		Judgment: j,
		Score:    score,
		Rounds:   TotalRounds,
	}
}

// randomID returns a compact 16-hex-char identifier.
func randomID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
