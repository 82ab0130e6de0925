package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poker-arena/server/agent"
	"poker-arena/server/engine"
	"poker-arena/server/match"
	"poker-arena/server/store"
)

func foldedOutHand(t *testing.T) engine.Snapshot {
	t.Helper()
	e, err := engine.New([]string{"A", "B"}, engine.DefaultConfig(), engine.PHEvaluator{})
	require.NoError(t, err)
	_, err = e.StartHand("stats")
	require.NoError(t, err)
	_, err = e.Apply("A", engine.Fold, 0)
	require.NoError(t, err)
	return e.Serialize()
}

func TestHandNetFoldOut(t *testing.T) {
	assert.Equal(t, map[string]int{"A": -5, "B": 5}, HandNet(foldedOutHand(t)))
}

func TestHandNetSplitAndBusted(t *testing.T) {
	snap := engine.Snapshot{
		Phase: engine.Completed,
		Players: []engine.PlayerState{
			{ID: "A", Committed: 101, Stack: 0, AllIn: true},
			{ID: "B", Committed: 101, Stack: 50},
			{ID: "C", Committed: 101, Folded: true, Stack: 10},
			{ID: "D", Folded: true},
		},
		PotHistory: []engine.PotRecord{{Winners: []string{"A", "B"}, Amount: 303, Split: 151, Remainder: 1, Evaluated: true}},
	}
	assert.Equal(t, map[string]int{"A": 51, "B": 50, "C": -101}, HandNet(snap))
}

func TestStatsRecord(t *testing.T) {
	s := NewStats(10)
	require.NoError(t, s.Record(context.Background(), foldedOutHand(t)))

	a, b := s.Player("A"), s.Player("B")
	assert.Equal(t, 1, a.Hands)
	assert.Equal(t, 1, a.Folds)
	assert.Equal(t, -5, a.NetChips)
	assert.Equal(t, 0, a.VPIP)
	assert.Equal(t, 1, b.Won)
	assert.Equal(t, 0, b.WTSD)
	assert.Equal(t, []string{"B", "A"}, s.IDs())

	err := s.Record(context.Background(), engine.Snapshot{HandID: "live", Phase: engine.Flop})
	require.Error(t, err)
}

func TestStatsOverAMatch(t *testing.T) {
	ids := []string{"p1", "p2", "p3", "p4"}
	deciders := map[string]agent.Decider{}
	for i, id := range ids {
		deciders[id] = agent.NewRandom(uint64(i + 1))
	}
	cfg := engine.DefaultConfig()
	cfg.StartingStacks = []int{300, 300, 300, 300}

	s := NewStats(cfg.BigBlind)
	r := &match.Runner{Recorders: []match.Recorder{s}, OnFallback: func(id string, _ error) { s.NoteFallback(id) }}
	res, err := r.PlayMatch(context.Background(), match.Table{Name: "t", Players: ids, Config: cfg, Seed: "stats"}, deciders, 30)
	require.NoError(t, err)
	require.Positive(t, res.Hands)

	net, hands := 0, 0
	for _, id := range ids {
		p := s.Player(id)
		net += p.NetChips
		hands += p.Hands
		assert.Equal(t, res.Stacks[id]-300, p.NetChips, id)
		assert.Zero(t, p.Fallbacks, id)
	}
	assert.Zero(t, net)
	assert.GreaterOrEqual(t, hands, 2*res.Hands)

	rs := s.Ratings()
	require.Len(t, rs, 4)
	for i := 1; i < len(rs); i++ {
		assert.GreaterOrEqual(t, rs[i-1].Elo, rs[i].Elo)
	}
	out := s.Standings()
	for _, id := range ids {
		assert.Contains(t, out, id)
	}
}

func TestStatsStartsFromSeededRating(t *testing.T) {
	s := NewStats(10)
	s.SeedRating(store.Rating{PlayerID: "A", Elo: 1700, Glicko: 1800, GlickoRD: 80, GlickoSigma: 0.06, Hands: 900})
	require.NoError(t, s.Record(context.Background(), foldedOutHand(t)))

	byID := map[string]store.Rating{}
	for _, r := range s.Ratings() {
		byID[r.PlayerID] = r
	}
	a, b := byID["A"], byID["B"]
	assert.Less(t, a.Elo, 1700.0)
	assert.Greater(t, a.Elo, 1680.0)
	assert.Greater(t, b.Elo, 1500.0)
	assert.InDelta(t, 0, (a.Elo-1700)+(b.Elo-1500), 1e-9)

	assert.Less(t, a.Glicko, 1800.0)
	assert.Greater(t, a.Glicko, 1750.0)
	assert.Less(t, a.GlickoRD, 100.0)
	assert.Equal(t, 1, a.Hands, "hands are this run's delta")
	assert.Equal(t, -5, a.NetChips)
}

func TestSeedIgnoresEmptyGlicko(t *testing.T) {
	s := NewStats(10)
	s.SeedRating(store.Rating{PlayerID: "A", Elo: 1600})
	assert.Equal(t, 1600.0, s.elo.Rating("A"))
	assert.Equal(t, *NewGlicko2(), s.glicko.Get("A"))
}

type ratingRows map[string]store.Rating

func (r ratingRows) Rating(_ context.Context, id string) (store.Rating, error) {
	if id == "broken" {
		return store.Rating{}, errors.New("connection reset")
	}
	row, ok := r[id]
	if !ok {
		return store.Rating{}, store.ErrNotFound
	}
	return row, nil
}

func TestLoadRatings(t *testing.T) {
	rows := ratingRows{"A": {PlayerID: "A", Elo: 1620, Glicko: 1640, GlickoRD: 90, GlickoSigma: 0.05}}
	s := NewStats(10)
	n, err := s.LoadRatings(context.Background(), rows, []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1620.0, s.elo.Rating("A"))
	assert.Equal(t, 1500.0, s.elo.Rating("B"))
	assert.Equal(t, 90.0, s.glicko.Get("A").RD)

	_, err = s.LoadRatings(context.Background(), rows, []string{"broken"})
	require.Error(t, err)
}

func TestEloUpdateHand(t *testing.T) {
	e := NewEloTable(1500, 24)
	d := e.UpdateHand(map[string]int{"a": 40, "b": -20, "c": -20}, 60, 10)
	assert.Positive(t, d["a"])
	assert.Negative(t, d["b"])
	assert.InDelta(t, d["b"], d["c"], 1e-9)
	assert.InDelta(t, 0, d["a"]+d["b"]+d["c"], 1e-9)
	assert.Greater(t, e.Rating("a"), e.Rating("b"))
	assert.Equal(t, 1, e.Games("c"))

	flat := NewEloTable(1500, 24)
	flat.UpdateHand(map[string]int{"a": 0, "b": 0}, 20, 10)
	assert.InDelta(t, 1500, flat.Rating("a"), 1e-9)

	assert.Empty(t, flat.UpdateHand(map[string]int{"solo": 5}, 10, 10))
}

func TestPotScaleAndSoftScore(t *testing.T) {
	assert.Equal(t, 0.5, potScale(5, 10))
	assert.Equal(t, 3.0, potScale(1000, 10))
	assert.Equal(t, 1.0, potScale(0, 10))
	assert.InDelta(t, 0.5, softScore(0, 10), 1e-12)
	assert.Greater(t, softScore(600, 10), 0.99)
	assert.Less(t, softScore(-600, 10), 0.01)
}

func TestGlickoUpdateHand(t *testing.T) {
	g := NewGlickoTable()
	for i := 0; i < 10; i++ {
		g.UpdateHand(map[string]int{"win": 30, "lose": -30}, 10)
	}
	w, l := g.Get("win"), g.Get("lose")
	assert.Greater(t, w.Rating, 1500.0)
	assert.Less(t, l.Rating, 1500.0)
	assert.Less(t, w.RD, 350.0)
	assert.Equal(t, 10, w.Games)
	assert.Equal(t, 1500.0, g.Get("nobody").Rating)
}

// Worked example from Glickman's Glicko-2 paper: a 1500/200 player beats a
// 1400/30, loses to a 1550/100 and loses to a 1700/300.
func TestGlickoPaperExample(t *testing.T) {
	p := &Glicko2{Rating: 1500, RD: 200, Volatility: 0.06}
	p.UpdateBatch([]OpponentResult{
		{Opp: Glicko2{Rating: 1400, RD: 30}, S: 1},
		{Opp: Glicko2{Rating: 1550, RD: 100}, S: 0},
		{Opp: Glicko2{Rating: 1700, RD: 300}, S: 0},
	}, 0.5)
	assert.InDelta(t, 1464.06, p.Rating, 0.1)
	assert.InDelta(t, 151.52, p.RD, 0.1)
	assert.InDelta(t, 0.05999, p.Volatility, 1e-4)
}

func TestGlickoAge(t *testing.T) {
	p := NewGlicko2()
	p.RD = 50
	p.UpdateBatch(nil, g2Tau)
	assert.Greater(t, p.RD, 50.0)
	assert.Equal(t, 1500.0, p.Rating)
}

func TestConfidenceIntervals(t *testing.T) {
	lo, hi := WilsonCI95(50, 0, 100)
	assert.Less(t, lo, 0.5)
	assert.Greater(t, hi, 0.5)
	lo, hi = WilsonCI95(0, 0, 0)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	vals := []float64{1, 1, 1, 1}
	lo, hi = BootstrapCI95(vals, 200, 1)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 1.0, hi)

	spread := make([]float64, 50)
	for i := range spread {
		spread[i] = float64(i % 7)
	}
	l1, h1 := BootstrapCI95(spread, 500, 3)
	l2, h2 := BootstrapCI95(spread, 500, 3)
	assert.Equal(t, l1, l2, "same seed, same interval")
	assert.Equal(t, h1, h2)
	assert.LessOrEqual(t, l1, h1)
	lo, hi = BootstrapCI95(nil, 10, 1)
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}
