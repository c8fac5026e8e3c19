// internal/game/types.go
//
// Core type definitions for the flag quiz engine.
// Defines:
//   - Phase: where a session sits in the round state machine.
//   - Round: the three displayed countries and the correct index.
//   - Result / Summary: presentation text for answers and game over.
//   - Rand: the injected random source.
//   - Event / Listener: notifications pushed to the presentation layer.
//   - View: JSON snapshot of a session.

package game

// Phase is the state machine position of a session.
type Phase string

const (
	PhaseAwaitingSelection Phase = "awaiting_selection"
	PhaseShowingResult     Phase = "showing_result"
	PhaseGameOver          Phase = "game_over"
)

const (
	// TotalRounds is the number of answers in one game.
	TotalRounds = 8
	// ChoicesPerRound is the number of flags shown per round.
	ChoicesPerRound = 3
	// NoSelection marks that no flag has been tapped this round.
	NoSelection = -1
)

// Round is one set of displayed flags.
type Round struct {
	Countries [ChoicesPerRound]string `json:"countries"`
	Correct   int                     `json:"correct"`
}

// Target returns the country the player is asked to find.
func (r Round) Target() string { return r.Countries[r.Correct] }

// Result is the feedback shown after a tap.
type Result struct {
	Correct bool   `json:"correct"`
	Title   string `json:"title"`   // "Correct" | "Wrong"
	Message string `json:"message"` // score line or the tapped country
	Tapped  string `json:"tapped"`
}

// Summary is the game over text.
type Summary struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Judgment string `json:"judgment"`
	Score    int    `json:"score"`
	Rounds   int    `json:"rounds"`
}

// Rand is the random source a session draws from.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// EventType names a session notification.
type EventType string

const (
	EventRoundStarted EventType = "round_started"
	EventAnswerResult EventType = "answer_result"
	EventGameOver     EventType = "game_over"
)

// Event is delivered to listeners after a transition completes.
type Event struct {
	Type EventType `json:"type"`
	View View      `json:"view"`
}

// Listener receives session events synchronously.
type Listener func(Event)

// Choice is one displayed flag with its presentation data.
type Choice struct {
	Country string `json:"country"`
	Asset   string `json:"asset"`
	Label   string `json:"label"`
}

// View is a read-only snapshot for rendering.
type View struct {
	SessionID   string   `json:"sessionId"`
	Phase       Phase    `json:"phase"`
	Round       int      `json:"round"`
	TotalRounds int      `json:"totalRounds"`
	Score       int      `json:"score"`
	Prompt      string   `json:"prompt"`
	Target      string   `json:"target"`
	Choices     []Choice `json:"choices"`
	Selected    *int     `json:"selected"`
	Result      *Result  `json:"result,omitempty"`
	Summary     *Summary `json:"summary,omitempty"`
}
