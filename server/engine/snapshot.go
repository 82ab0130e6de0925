package engine

// SeatView is what every seat may see about every other seat.
type SeatView struct {
	PlayerID  string `json:"player_id"`
	Stack     int    `json:"stack"`
	Committed int    `json:"committed"`
	Folded    bool   `json:"is_folded"`
	AllIn     bool   `json:"is_all_in"`
}

// Observation is the state handed to the agent sitting in one seat. It never
// carries another seat's hole cards.
type Observation struct {
	HandID    string     `json:"hand_id"`
	Phase     Phase      `json:"phase"`
	PlayerID  string     `json:"player_id"`
	HoleCards []string   `json:"your_hole_cards"`
	Board     []string   `json:"community_cards"`
	Players   []SeatView `json:"players"`
	Pot       int        `json:"total_pot"`
	ToCall    int        `json:"to_call"`
	ToAct     string     `json:"to_act_player_id,omitempty"`
	DeckSeed  string     `json:"deck_seed"`
}

// Stack returns the observing seat's own stack.
func (o Observation) Stack() int {
	for _, s := range o.Players {
		if s.PlayerID == o.PlayerID {
			return s.Stack
		}
	}
	return 0
}

func (e *Engine) Observe(playerID string) (Observation, error) {
	p, err := e.find(playerID)
	if err != nil {
		return Observation{}, err
	}
	seats := make([]SeatView, len(e.players))
	for i, q := range e.players {
		seats[i] = SeatView{PlayerID: q.ID, Stack: q.Stack, Committed: q.Committed, Folded: q.Folded, AllIn: q.AllIn}
	}
	return Observation{
		HandID:    e.handID,
		Phase:     e.phase,
		PlayerID:  p.ID,
		HoleCards: cardsToStr(p.Hole),
		Board:     cardsToStr(e.board),
		Players:   seats,
		Pot:       e.pot,
		ToCall:    e.maxCommitted() - p.Committed,
		ToAct:     e.ToAct(),
		DeckSeed:  e.deckSeed,
	}, nil
}

// Snapshot is the full audit record of a hand, every hole card included.
// Callers must not show it to players while the hand is live.
type Snapshot struct {
	HandID     string        `json:"hand_id"`
	Phase      Phase         `json:"phase"`
	Button     int           `json:"button"`
	Players    []PlayerState `json:"players"`
	Board      []Card        `json:"community_cards"`
	Pot        int           `json:"total_pot"`
	ToAct      string        `json:"to_act_player_id,omitempty"`
	DeckSeed   string        `json:"deck_seed"`
	Actions    []Action      `json:"actions"`
	PotHistory []PotRecord   `json:"pot_history"`
}

func (e *Engine) Serialize() Snapshot {
	return Snapshot{
		HandID:     e.handID,
		Phase:      e.phase,
		Button:     e.button,
		Players:    e.Players(),
		Board:      e.Board(),
		Pot:        e.pot,
		ToAct:      e.ToAct(),
		DeckSeed:   e.deckSeed,
		Actions:    e.Actions(),
		PotHistory: e.PotHistory(),
	}
}
