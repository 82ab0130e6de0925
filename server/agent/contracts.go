package agent

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"

	"poker-arena/server/engine"
)

// Decision is what a seat wants to do. Amount only matters for bet and
// raise: a bet is the chips put in, a raise is the increment above the call.
type Decision struct {
	Action  engine.ActionKind `json:"action"`
	Amount  int               `json:"amount"`
	Comment string            `json:"comment,omitempty"`
}

// Decider picks an action for the observing seat out of legal.
type Decider interface {
	Decide(ctx context.Context, obs engine.Observation, legal []engine.ActionKind) (Decision, error)
}

// DeciderFunc adapts a plain function to Decider.
type DeciderFunc func(ctx context.Context, obs engine.Observation, legal []engine.ActionKind) (Decision, error)

func (f DeciderFunc) Decide(ctx context.Context, obs engine.Observation, legal []engine.ActionKind) (Decision, error) {
	return f(ctx, obs, legal)
}

var ErrNoLegalAction = errors.New("no legal action")

// Fallback is the conservative move used when an agent errors, times out or
// returns something unusable: check when free, fold otherwise.
func Fallback(legal []engine.ActionKind) Decision {
	if slices.Contains(legal, engine.Check) {
		return Decision{Action: engine.Check, Comment: "fallback"}
	}
	return Decision{Action: engine.Fold, Comment: "fallback"}
}

// Validate the decision against the observation.
func Validate(obs engine.Observation, legal []engine.ActionKind, d Decision) error {
	if len(legal) == 0 {
		return ErrNoLegalAction
	}
	if !slices.Contains(legal, d.Action) {
		return fmt.Errorf("illegal action %q (legals: %v)", d.Action, legal)
	}

	switch d.Action {
	case engine.Bet, engine.Raise:
		stack := obs.Stack()
		if d.Amount <= 0 || d.Amount > stack {
			return fmt.Errorf("%s amount %d out of bounds [1, %d]", d.Action, d.Amount, stack)
		}
	}
	return nil
}

const maxComment = 120

// Normalize fixes the harmless mistakes models make, then validates. A call
// with nothing owed becomes a check.
func Normalize(obs engine.Observation, legal []engine.ActionKind, d Decision) (Decision, error) {
	if d.Action == engine.Call && obs.ToCall == 0 && slices.Contains(legal, engine.Check) {
		d.Action = engine.Check
	}
	if d.Action != engine.Bet && d.Action != engine.Raise {
		d.Amount = 0
	}
	if utf8.RuneCountInString(d.Comment) > maxComment {
		d.Comment = string([]rune(d.Comment)[:maxComment])
	}
	return d, Validate(obs, legal, d)
}
