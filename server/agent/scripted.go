package agent

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"

	"poker-arena/server/engine"
)

// Script replays a fixed list of decisions, then falls back once it runs
// dry. Useful for reproducing a hand from a log.
type Script struct {
	mu    sync.Mutex
	steps []Decision
}

func NewScript(steps ...Decision) *Script { return &Script{steps: steps} }

func (s *Script) Decide(_ context.Context, _ engine.Observation, legal []engine.ActionKind) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steps) == 0 {
		return Fallback(legal), nil
	}
	d := s.steps[0]
	s.steps = s.steps[1:]
	return d, nil
}

// Remaining reports how many scripted steps have not been used.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// CallStation never folds and never puts in more than it has to.
type CallStation struct{}

func (CallStation) Decide(_ context.Context, _ engine.Observation, legal []engine.ActionKind) (Decision, error) {
	for _, k := range []engine.ActionKind{engine.Check, engine.Call, engine.AllIn} {
		if slices.Contains(legal, k) {
			return Decision{Action: k}, nil
		}
	}
	return Fallback(legal), nil
}

// Folder gives up every hand it can.
type Folder struct{}

func (Folder) Decide(_ context.Context, _ engine.Observation, legal []engine.ActionKind) (Decision, error) {
	return Fallback(legal), nil
}

// Random picks uniformly among the legal actions with a seeded source, so
// a match between Random agents is reproducible.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *Random) Decide(_ context.Context, obs engine.Observation, legal []engine.ActionKind) (Decision, error) {
	if len(legal) == 0 {
		return Decision{}, ErrNoLegalAction
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k := legal[r.rng.IntN(len(legal))]
	d := Decision{Action: k}
	if k == engine.Bet || k == engine.Raise {
		stack := obs.Stack()
		if stack <= 0 {
			return Fallback(legal), nil
		}
		// keep sizes mostly small so hands reach showdown
		d.Amount = 1 + r.rng.IntN(max(1, stack/4))
	}
	return d, nil
}
