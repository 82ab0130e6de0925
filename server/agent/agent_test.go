package agent

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poker-arena/server/engine"
)

func obsFor(hole, board []string, stack, pot, toCall int) engine.Observation {
	return engine.Observation{
		HandID:    "h1",
		Phase:     engine.River,
		PlayerID:  "hero",
		HoleCards: hole,
		Board:     board,
		Players: []engine.SeatView{
			{PlayerID: "hero", Stack: stack},
			{PlayerID: "villain", Stack: 500},
		},
		Pot:    pot,
		ToCall: toCall,
	}
}

func TestFallback(t *testing.T) {
	assert.Equal(t, engine.Check, Fallback([]engine.ActionKind{engine.Check, engine.Bet, engine.AllIn}).Action)
	assert.Equal(t, engine.Fold, Fallback([]engine.ActionKind{engine.Fold, engine.Call}).Action)
	assert.Equal(t, engine.Fold, Fallback(nil).Action)
}

func TestValidate(t *testing.T) {
	obs := obsFor([]string{"As", "Ad"}, nil, 100, 15, 5)
	legal := []engine.ActionKind{engine.Fold, engine.Call, engine.Raise, engine.AllIn}

	tests := []struct {
		name    string
		d       Decision
		wantErr bool
	}{
		{name: "call", d: Decision{Action: engine.Call}},
		{name: "raise in range", d: Decision{Action: engine.Raise, Amount: 100}},
		{name: "raise zero", d: Decision{Action: engine.Raise}, wantErr: true},
		{name: "raise above stack", d: Decision{Action: engine.Raise, Amount: 101}, wantErr: true},
		{name: "check not offered", d: Decision{Action: engine.Check}, wantErr: true},
		{name: "unknown", d: Decision{Action: "shove"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(obs, legal, tt.d)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	require.ErrorIs(t, Validate(obs, nil, Decision{Action: engine.Fold}), ErrNoLegalAction)
}

func TestNormalize(t *testing.T) {
	obs := obsFor([]string{"As", "Ad"}, nil, 100, 20, 0)
	legal := []engine.ActionKind{engine.Check, engine.Bet, engine.AllIn}

	d, err := Normalize(obs, legal, Decision{Action: engine.Call, Amount: 40})
	require.NoError(t, err)
	assert.Equal(t, Decision{Action: engine.Check}, d)

	_, err = Normalize(obs, legal, Decision{Action: engine.Bet, Amount: 500})
	require.Error(t, err)
}

func TestNormalizeTruncatesCommentByRune(t *testing.T) {
	obs := obsFor([]string{"As", "Ad"}, nil, 100, 20, 0)
	legal := []engine.ActionKind{engine.Check, engine.Bet, engine.AllIn}

	long := strings.Repeat("é", 150)
	d, err := Normalize(obs, legal, Decision{Action: engine.Check, Comment: long})
	require.NoError(t, err)
	assert.Equal(t, 120, utf8.RuneCountInString(d.Comment))
	assert.True(t, utf8.ValidString(d.Comment))

	d, err = Normalize(obs, legal, Decision{Action: engine.Check, Comment: "pot control"})
	require.NoError(t, err)
	assert.Equal(t, "pot control", d.Comment)
}

func TestScriptReplaysThenFallsBack(t *testing.T) {
	s := NewScript(Decision{Action: engine.Raise, Amount: 20}, Decision{Action: engine.Call})
	legal := []engine.ActionKind{engine.Fold, engine.Call, engine.Raise}
	ctx := context.Background()

	d, err := s.Decide(ctx, engine.Observation{}, legal)
	require.NoError(t, err)
	assert.Equal(t, engine.Raise, d.Action)
	assert.Equal(t, 1, s.Remaining())

	d, _ = s.Decide(ctx, engine.Observation{}, legal)
	assert.Equal(t, engine.Call, d.Action)

	d, _ = s.Decide(ctx, engine.Observation{}, legal)
	assert.Equal(t, engine.Fold, d.Action)
}

func TestCallStation(t *testing.T) {
	ctx := context.Background()
	d, _ := CallStation{}.Decide(ctx, engine.Observation{}, []engine.ActionKind{engine.Fold, engine.Call, engine.Raise})
	assert.Equal(t, engine.Call, d.Action)
	d, _ = CallStation{}.Decide(ctx, engine.Observation{}, []engine.ActionKind{engine.Check, engine.Bet})
	assert.Equal(t, engine.Check, d.Action)
	d, _ = CallStation{}.Decide(ctx, engine.Observation{}, []engine.ActionKind{engine.Fold, engine.AllIn})
	assert.Equal(t, engine.AllIn, d.Action)
}

func TestRandomIsReproducibleAndLegal(t *testing.T) {
	obs := obsFor([]string{"2c", "7d"}, nil, 80, 15, 5)
	legal := []engine.ActionKind{engine.Fold, engine.Call, engine.Raise, engine.AllIn}

	a, b := NewRandom(42), NewRandom(42)
	for i := 0; i < 50; i++ {
		da, err := a.Decide(context.Background(), obs, legal)
		require.NoError(t, err)
		db, _ := b.Decide(context.Background(), obs, legal)
		assert.Equal(t, da, db)
		assert.NoError(t, Validate(obs, legal, da))
	}
}

func TestEquityNutsAndAir(t *testing.T) {
	a := NewEquityAgent(1)
	board := []string{"Ts", "Js", "Qs", "2d", "7c"}

	nuts, err := a.Equity(context.Background(), obsFor([]string{"Ks", "As"}, board, 100, 50, 0))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, nuts, 1e-9)

	air, err := a.Equity(context.Background(), obsFor([]string{"3h", "4c"}, board, 100, 50, 0))
	require.NoError(t, err)
	assert.Less(t, air, 0.2)
}

func TestEquityIsDeterministic(t *testing.T) {
	obs := obsFor([]string{"9h", "9d"}, []string{"2c", "8s", "Kd"}, 100, 50, 0)
	obs.Phase = engine.Flop
	e1, err := NewEquityAgent(9).Equity(context.Background(), obs)
	require.NoError(t, err)
	e2, err := NewEquityAgent(9).Equity(context.Background(), obs)
	require.NoError(t, err)
	assert.Equal(t, e1, e2)
	assert.Greater(t, e1, 0.5)
}

func TestEquityAgentDecisions(t *testing.T) {
	a := NewEquityAgent(3)
	board := []string{"Ts", "Js", "Qs", "2d", "7c"}
	ctx := context.Background()

	d, err := a.Decide(ctx, obsFor([]string{"Ks", "As"}, board, 100, 40, 0), []engine.ActionKind{engine.Check, engine.Bet, engine.AllIn})
	require.NoError(t, err)
	assert.Equal(t, engine.Bet, d.Action)
	assert.Equal(t, 20, d.Amount)

	d, err = a.Decide(ctx, obsFor([]string{"3h", "4c"}, board, 100, 40, 40), []engine.ActionKind{engine.Fold, engine.Call, engine.Raise, engine.AllIn})
	require.NoError(t, err)
	assert.Equal(t, engine.Fold, d.Action)
}

func TestEquityRejectsBadCards(t *testing.T) {
	_, err := NewEquityAgent(1).Equity(context.Background(), obsFor([]string{"Zz", "As"}, nil, 100, 10, 0))
	require.Error(t, err)
}

func TestEquityHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEquityAgent(1).Equity(ctx, obsFor([]string{"As", "Ad"}, nil, 100, 10, 0))
	require.ErrorIs(t, err, context.Canceled)
}
