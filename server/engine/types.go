package engine

import "fmt"

// Phase is the position of a hand in its lifecycle. The zero value means no
// hand has been started yet.
type Phase uint8

const (
	NoHand Phase = iota
	PreFlop
	Flop
	Turn
	River
	Showdown
	Completed
)

var phaseNames = [...]string{
	NoHand:    "",
	PreFlop:   "preflop",
	Flop:      "flop",
	Turn:      "turn",
	River:     "river",
	Showdown:  "showdown",
	Completed: "completed",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

type ActionKind string

const (
	Fold   ActionKind = "fold"
	Check  ActionKind = "check"
	Call   ActionKind = "call"
	Bet    ActionKind = "bet"
	Raise  ActionKind = "raise"
	AllIn  ActionKind = "allin"
	PostSB ActionKind = "post_sb"
	PostBB ActionKind = "post_bb"
)

// Action is one entry of the hand log. Amount is what actually moved, which
// can be less than what was asked for.
type Action struct {
	PlayerID string     `json:"player_id"`
	Kind     ActionKind `json:"action"`
	Amount   int        `json:"amount"`
}

// PlayerState is the per-seat ledger. Committed is cumulative for the hand.
type PlayerState struct {
	ID        string `json:"player_id"`
	Seat      int    `json:"seat"`
	Stack     int    `json:"stack"`
	Committed int    `json:"committed"`
	Hole      []Card `json:"hole_cards"`
	Folded    bool   `json:"is_folded"`
	AllIn     bool   `json:"is_all_in"`
}

func (p *PlayerState) canAct() bool { return !p.Folded && !p.AllIn }

// PotRecord describes one distribution of the pot.
type PotRecord struct {
	Winners   []string `json:"winners"`
	Amount    int      `json:"amount"`
	Split     int      `json:"split"`
	Remainder int      `json:"remainder"`
	Evaluated bool     `json:"evaluated"`
}

type Config struct {
	SmallBlind     int
	BigBlind       int
	StartingStacks []int
}

// DefaultConfig matches the blinds and stacks the arena uses when nothing is
// configured.
func DefaultConfig() Config { return Config{SmallBlind: 5, BigBlind: 10} }

type HandStart struct {
	HandID   string `json:"hand_id"`
	DeckSeed string `json:"deck_seed"`
}

type Result struct {
	Phase Phase `json:"phase"`
	Pot   int   `json:"total_pot"`
}
