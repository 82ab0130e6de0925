package match

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"poker-arena/server/agent"
	"poker-arena/server/engine"
)

// Recorder receives every completed hand.
type Recorder interface {
	Record(ctx context.Context, snap engine.Snapshot) error
}

type RecorderFunc func(ctx context.Context, snap engine.Snapshot) error

func (f RecorderFunc) Record(ctx context.Context, snap engine.Snapshot) error { return f(ctx, snap) }

// Table describes one independent game: who sits where, the blinds and
// stacks, and an optional seed prefix that makes every deck reproducible.
type Table struct {
	Name    string
	Players []string
	Config  engine.Config
	Seed    string
}

type Result struct {
	Table  string         `json:"table"`
	Hands  int            `json:"hands"`
	Stacks map[string]int `json:"stacks"`
}

// Runner drives engines with agents. The zero value is usable: no decision
// timeout, PHEvaluator scoring, a discarded log.
type Runner struct {
	Log       *log.Logger
	Timeout   time.Duration
	Eval      engine.Evaluator
	Recorders []Recorder

	// MaxActions caps a single hand. Zero means 10000.
	MaxActions int

	// OnFallback, if set, is told about every decision replaced by
	// agent.Fallback.
	OnFallback func(playerID string, err error)
}

func (r *Runner) logger() *log.Logger {
	if r.Log == nil {
		return log.New(io.Discard)
	}
	return r.Log
}

// PlayHand starts a hand on eng and asks deciders for actions until it
// completes. Agent errors, timeouts and illegal choices are replaced with
// agent.Fallback. The finished hand goes to every recorder.
func (r *Runner) PlayHand(ctx context.Context, eng *engine.Engine, deciders map[string]agent.Decider, seed string) (engine.Snapshot, error) {
	start, err := eng.StartHand(seed)
	if err != nil {
		return engine.Snapshot{}, err
	}
	lg := r.logger().With("hand", start.HandID)
	lg.Debug("hand started", "seed", start.DeckSeed, "button", eng.Button())

	limit := r.MaxActions
	if limit <= 0 {
		limit = 10000
	}
	for n := 0; eng.Phase() != engine.Completed; n++ {
		if err := ctx.Err(); err != nil {
			return eng.Serialize(), err
		}
		if n >= limit {
			return eng.Serialize(), fmt.Errorf("hand %s: exceeded %d actions", start.HandID, limit)
		}
		if err := r.step(ctx, lg, eng, deciders); err != nil {
			return eng.Serialize(), err
		}
	}

	snap := eng.Serialize()
	if len(snap.PotHistory) > 0 {
		last := snap.PotHistory[len(snap.PotHistory)-1]
		lg.Info("hand complete", "pot", last.Amount, "winners", last.Winners, "showdown", last.Evaluated)
	}
	for _, rec := range r.Recorders {
		if err := rec.Record(ctx, snap); err != nil {
			lg.Error("record hand", "err", err)
		}
	}
	return snap, nil
}

func (r *Runner) step(ctx context.Context, lg *log.Logger, eng *engine.Engine, deciders map[string]agent.Decider) error {
	id := eng.ToAct()
	legal, err := eng.LegalActions(id)
	if err != nil {
		return err
	}
	obs, err := eng.Observe(id)
	if err != nil {
		return err
	}

	var d agent.Decision
	dec, ok := deciders[id]
	if !ok {
		lg.Warn("no agent for seat, using fallback", "player", id)
		d = agent.Fallback(legal)
		r.fallback(id, fmt.Errorf("no agent for %s", id))
	} else {
		d, err = r.decide(ctx, dec, obs, legal)
		if err == nil {
			d, err = agent.Normalize(obs, legal, d)
		}
		if err != nil {
			lg.Warn("decision rejected, using fallback", "player", id, "err", err)
			d = agent.Fallback(legal)
			r.fallback(id, err)
		}
	}

	res, err := eng.Apply(id, d.Action, d.Amount)
	if err != nil {
		// normalized and fallback decisions are always in the legal set
		return fmt.Errorf("apply %s %s %d: %w", id, d.Action, d.Amount, err)
	}
	lg.Debug("action", "player", id, "action", d.Action, "amount", d.Amount, "phase", res.Phase, "pot", res.Pot)
	return nil
}

func (r *Runner) fallback(id string, err error) {
	if r.OnFallback != nil {
		r.OnFallback(id, err)
	}
}

type reply struct {
	d   agent.Decision
	err error
}

// decide bounds one agent call by Timeout even when the agent ignores its
// context.
func (r *Runner) decide(ctx context.Context, dec agent.Decider, obs engine.Observation, legal []engine.ActionKind) (agent.Decision, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	ch := make(chan reply, 1)
	go func() {
		d, err := dec.Decide(ctx, obs, legal)
		ch <- reply{d, err}
	}()
	select {
	case rp := <-ch:
		return rp.d, rp.err
	case <-ctx.Done():
		return agent.Decision{}, ctx.Err()
	}
}

// PlayMatch plays up to hands hands at one table, rotating the button and
// carrying stacks over. It stops early once fewer than two seats have chips.
func (r *Runner) PlayMatch(ctx context.Context, t Table, deciders map[string]agent.Decider, hands int) (Result, error) {
	eval := r.Eval
	if eval == nil {
		eval = engine.PHEvaluator{}
	}
	eng, err := engine.New(t.Players, t.Config, eval)
	if err != nil {
		return Result{}, err
	}
	lg := r.logger().With("table", t.Name)
	sub := *r
	sub.Log = lg

	res := Result{Table: t.Name}
	for i := 0; i < hands; i++ {
		seed := ""
		if t.Seed != "" {
			seed = fmt.Sprintf("%s-%d", t.Seed, i)
		}
		_, err := sub.PlayHand(ctx, eng, deciders, seed)
		if errors.Is(err, engine.ErrNotEnoughPlayers) {
			lg.Info("match over, one stack left", "hands", res.Hands)
			break
		}
		if err != nil {
			res.Stacks = stacks(eng)
			return res, err
		}
		res.Hands++
		eng.MoveButton()
	}
	res.Stacks = stacks(eng)
	return res, nil
}

// PlayTables runs every table concurrently, one engine per goroutine. Deciders
// are shared across tables and must be safe for concurrent use.
func (r *Runner) PlayTables(ctx context.Context, tables []Table, deciders map[string]agent.Decider, hands int) ([]Result, error) {
	out := make([]Result, len(tables))
	g, ctx := errgroup.WithContext(ctx)
	for i, t := range tables {
		g.Go(func() error {
			res, err := r.PlayMatch(ctx, t, deciders, hands)
			out[i] = res
			if err != nil {
				return fmt.Errorf("table %s: %w", t.Name, err)
			}
			return nil
		})
	}
	return out, g.Wait()
}

func stacks(eng *engine.Engine) map[string]int {
	m := map[string]int{}
	for _, p := range eng.Players() {
		m[p.ID] = p.Stack
	}
	return m
}
