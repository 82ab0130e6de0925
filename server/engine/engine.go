package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// MaxPlayers is the most seats that can be dealt in with a full board left.
const MaxPlayers = 22

// Engine runs one hand at a time for a fixed set of seats. It is not safe for
// concurrent use; run one Engine per table.
type Engine struct {
	cfg     Config
	eval    Evaluator
	players []*PlayerState

	button  int
	current int
	phase   Phase

	handID     string
	deckSeed   string
	deck       []Card
	board      []Card
	pot        int
	actions    []Action
	potHistory []PotRecord
}

// New seats playerIDs in order. Stacks default to 1000 each when
// cfg.StartingStacks is empty.
func New(playerIDs []string, cfg Config, eval Evaluator) (*Engine, error) {
	if len(playerIDs) < 2 {
		return nil, fmt.Errorf("engine: %w", ErrNotEnoughPlayers)
	}
	if len(playerIDs) > MaxPlayers {
		return nil, fmt.Errorf("engine: at most %d players fit one deck", MaxPlayers)
	}
	if eval == nil {
		return nil, fmt.Errorf("engine: evaluator is required")
	}
	if cfg.SmallBlind < 0 || cfg.BigBlind < 0 {
		return nil, fmt.Errorf("engine: blinds must be non-negative")
	}
	stacks := cfg.StartingStacks
	if len(stacks) == 0 {
		stacks = make([]int, len(playerIDs))
		for i := range stacks {
			stacks[i] = 1000
		}
	}
	if len(stacks) != len(playerIDs) {
		return nil, fmt.Errorf("engine: %d stacks for %d players", len(stacks), len(playerIDs))
	}

	e := &Engine{cfg: cfg, eval: eval}
	seen := make(map[string]bool, len(playerIDs))
	for i, id := range playerIDs {
		if id == "" || seen[id] {
			return nil, fmt.Errorf("engine: player id %q is empty or duplicated", id)
		}
		if stacks[i] < 0 {
			return nil, fmt.Errorf("engine: negative stack for %s", id)
		}
		seen[id] = true
		e.players = append(e.players, &PlayerState{ID: id, Seat: i, Stack: stacks[i]})
	}
	return e, nil
}

// StartHand shuffles with seed (a fresh one when empty), posts blinds, deals
// hole cards and hands the action to the seat left of the big blind.
func (e *Engine) StartHand(seed string) (HandStart, error) {
	if e.phase != NoHand && e.phase != Completed {
		return HandStart{}, fmt.Errorf("start hand: %w", ErrHandInProgress)
	}
	funded := 0
	for _, p := range e.players {
		if p.Stack > 0 {
			funded++
		}
	}
	if funded < 2 {
		return HandStart{}, fmt.Errorf("start hand: %w", ErrNotEnoughPlayers)
	}

	if seed == "" {
		seed = uuid.NewString()
	}
	e.handID = uuid.NewString()
	e.deckSeed = seed
	e.deck = Shuffle(seed)
	e.board = nil
	e.pot = 0
	e.actions = nil
	e.potHistory = nil

	for _, p := range e.players {
		p.Hole = nil
		p.Committed = 0
		p.AllIn = false
		// busted seats sit the hand out
		p.Folded = p.Stack == 0
	}

	n := len(e.players)
	// busted seats never hold the button or a blind
	e.button = e.nextFunded(e.button)
	sb := e.button
	bb := e.nextFunded((sb + 1) % n)
	e.postBlind(sb, e.cfg.SmallBlind, PostSB)
	e.postBlind(bb, e.cfg.BigBlind, PostBB)

	start := (e.button + 1) % n
	for pass := 0; pass < 2; pass++ {
		for i := 0; i < n; i++ {
			p := e.players[(start+i)%n]
			p.Hole = append(p.Hole, e.pop())
		}
	}

	e.phase = PreFlop
	e.current = (bb + 1) % n
	for i := 0; i < n; i++ {
		idx := (e.current + i) % n
		if e.players[idx].canAct() {
			e.current = idx
			break
		}
	}

	if e.roundComplete() && e.countCanAct() <= 1 {
		e.runOut()
	}
	return HandStart{HandID: e.handID, DeckSeed: e.deckSeed}, nil
}

func (e *Engine) postBlind(idx, amount int, kind ActionKind) {
	p := e.players[idx]
	if p.Folded {
		return
	}
	actual := min(p.Stack, amount)
	e.pay(p, actual)
	e.actions = append(e.actions, Action{PlayerID: p.ID, Kind: kind, Amount: actual})
}

// pay moves chips from a stack into the pot and flags the seat all-in once
// the stack is gone.
func (e *Engine) pay(p *PlayerState, amount int) {
	p.Stack -= amount
	p.Committed += amount
	e.pot += amount
	if p.Stack == 0 {
		p.AllIn = true
	}
}

func (e *Engine) pop() Card { c := e.deck[0]; e.deck = e.deck[1:]; return c }

// MoveButton passes the button clockwise to the next seat that still has
// chips.
func (e *Engine) MoveButton() { e.button = e.nextFunded((e.button + 1) % len(e.players)) }

// nextFunded returns the first seat from idx onwards, clockwise, with a
// non-zero stack, or idx when every stack is empty.
func (e *Engine) nextFunded(idx int) int {
	n := len(e.players)
	for i := 0; i < n; i++ {
		if j := (idx + i) % n; e.players[j].Stack > 0 {
			return j
		}
	}
	return idx
}

func (e *Engine) SetButton(seat int) error {
	if seat < 0 || seat >= len(e.players) {
		return fmt.Errorf("button seat %d: %w", seat, ErrUnknownSeat)
	}
	e.button = seat
	return nil
}

func (e *Engine) find(playerID string) (*PlayerState, error) {
	for _, p := range e.players {
		if p.ID == playerID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSeat, playerID)
}

func (e *Engine) maxCommitted() int {
	highest := 0
	for _, p := range e.players {
		if p.Committed > highest {
			highest = p.Committed
		}
	}
	return highest
}

func (e *Engine) countCanAct() int {
	n := 0
	for _, p := range e.players {
		if p.canAct() {
			n++
		}
	}
	return n
}

func (e *Engine) Phase() Phase       { return e.phase }
func (e *Engine) HandID() string     { return e.handID }
func (e *Engine) DeckSeed() string   { return e.deckSeed }
func (e *Engine) Pot() int           { return e.pot }
func (e *Engine) Button() int        { return e.button }
func (e *Engine) Board() []Card      { return append([]Card(nil), e.board...) }
func (e *Engine) Actions() []Action  { return append([]Action(nil), e.actions...) }
func (e *Engine) DeckRemaining() int { return len(e.deck) }

func (e *Engine) PotHistory() []PotRecord {
	return append([]PotRecord(nil), e.potHistory...)
}

// ToAct is the id of the seat holding the action, or "" when no hand is live.
func (e *Engine) ToAct() string {
	if e.phase == NoHand || e.phase == Completed {
		return ""
	}
	return e.players[e.current].ID
}

// Players returns copies of the seat records in seat order.
func (e *Engine) Players() []PlayerState {
	out := make([]PlayerState, len(e.players))
	for i, p := range e.players {
		out[i] = *p
		out[i].Hole = append([]Card(nil), p.Hole...)
	}
	return out
}

// Player returns a copy of one seat record.
func (e *Engine) Player(playerID string) (PlayerState, error) {
	p, err := e.find(playerID)
	if err != nil {
		return PlayerState{}, err
	}
	out := *p
	out.Hole = append([]Card(nil), p.Hole...)
	return out, nil
}
