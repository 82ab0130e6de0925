package agent

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"slices"

	"golang.org/x/sync/errgroup"

	"poker-arena/server/engine"
)

// EquityAgent plays by estimated showdown equity against one random hand.
// Equity comes from seeded Monte-Carlo rollouts, so the same observation
// always yields the same decision.
type EquityAgent struct {
	Eval    engine.Evaluator
	Samples int     // rollouts per decision
	Shards  int     // goroutines the rollouts are split over
	Seed    uint64  // mixed with the observation to seed each shard
	Margin  float64 // equity needed above pot odds before calling
	Raise   float64 // equity at which it bets or raises
}

func NewEquityAgent(seed uint64) *EquityAgent {
	return &EquityAgent{
		Eval:    engine.PHEvaluator{},
		Samples: 2000,
		Shards:  4,
		Seed:    seed,
		Margin:  0.02,
		Raise:   0.65,
	}
}

func (a *EquityAgent) Decide(ctx context.Context, obs engine.Observation, legal []engine.ActionKind) (Decision, error) {
	if len(legal) == 0 {
		return Decision{}, ErrNoLegalAction
	}
	eq, err := a.Equity(ctx, obs)
	if err != nil {
		return Decision{}, err
	}
	comment := fmt.Sprintf("equity %.2f", eq)
	stack := obs.Stack()
	pot := obs.Pot

	if obs.ToCall == 0 {
		if eq >= a.Raise && slices.Contains(legal, engine.Bet) {
			return Decision{Action: engine.Bet, Amount: sizing(pot, stack), Comment: comment}, nil
		}
		return Decision{Action: engine.Check, Comment: comment}, nil
	}

	odds := float64(obs.ToCall) / float64(pot+obs.ToCall)
	switch {
	case eq >= a.Raise && slices.Contains(legal, engine.Raise):
		return Decision{Action: engine.Raise, Amount: sizing(pot, stack-obs.ToCall), Comment: comment}, nil
	case eq >= odds+a.Margin && slices.Contains(legal, engine.Call):
		return Decision{Action: engine.Call, Comment: comment}, nil
	case eq >= odds+a.Margin && slices.Contains(legal, engine.AllIn):
		// short of the call; all-in is the only way to continue
		return Decision{Action: engine.AllIn, Comment: comment}, nil
	}
	return Decision{Action: engine.Fold, Comment: comment}, nil
}

// sizing bets half the pot, at least one chip, never more than behind.
func sizing(pot, behind int) int {
	return max(1, min(pot/2, behind))
}

// Equity estimates the observing seat's share of the pot at showdown
// against a single random hand. Ties count half.
func (a *EquityAgent) Equity(ctx context.Context, obs engine.Observation) (float64, error) {
	hole, err := engine.ParseCards(obs.HoleCards...)
	if err != nil {
		return 0, err
	}
	board, err := engine.ParseCards(obs.Board...)
	if err != nil {
		return 0, err
	}
	if len(hole) != 2 || len(board) > 5 {
		return 0, fmt.Errorf("equity: need 2 hole cards and at most 5 board cards, have %d and %d", len(hole), len(board))
	}

	used := map[engine.Card]bool{}
	for _, c := range hole {
		used[c] = true
	}
	for _, c := range board {
		used[c] = true
	}
	avail := make([]engine.Card, 0, 52)
	for _, c := range engine.StandardDeck() {
		if !used[c] {
			avail = append(avail, c)
		}
	}

	shards := max(1, a.Shards)
	per := max(1, a.Samples/shards)
	wins := make([]float64, shards)
	base := a.Seed ^ obsHash(obs)

	g, ctx := errgroup.WithContext(ctx)
	for s := 0; s < shards; s++ {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(base, uint64(s)))
			deck := slices.Clone(avail)
			need := 2 + (5 - len(board))
			full := make([]engine.Card, 5)
			copy(full, board)
			for i := 0; i < per; i++ {
				if i%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				// partial Fisher-Yates: only the cards we draw
				for j := 0; j < need; j++ {
					k := j + rng.IntN(len(deck)-j)
					deck[j], deck[k] = deck[k], deck[j]
				}
				villain := deck[:2]
				copy(full[len(board):], deck[2:need])
				hero := a.Eval.Evaluate(full, hole)
				vil := a.Eval.Evaluate(full, villain)
				switch {
				case hero < vil:
					wins[s]++
				case hero == vil:
					wins[s] += 0.5
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total float64
	for _, w := range wins {
		total += w
	}
	return total / float64(per*shards), nil
}

func obsHash(obs engine.Observation) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%v|%v", obs.HandID, obs.PlayerID, obs.Phase, obs.HoleCards, obs.Board)
	return h.Sum64()
}
