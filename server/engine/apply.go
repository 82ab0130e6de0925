package engine

import "fmt"

// Apply validates and applies one action for playerID. Amount is only read
// for bet (chips to put in) and raise (chips on top of the call). Nothing is
// mutated when an error is returned.
func (e *Engine) Apply(playerID string, kind ActionKind, amount int) (Result, error) {
	if e.phase == NoHand || e.phase == Completed {
		return Result{}, ErrNoActiveHand
	}
	p, err := e.find(playerID)
	if err != nil {
		return Result{}, err
	}
	if !p.canAct() {
		return Result{}, fmt.Errorf("%w: %s", ErrCannotAct, playerID)
	}
	if e.players[e.current] != p {
		return Result{}, fmt.Errorf("%w: %s (to act: %s)", ErrOutOfTurn, playerID, e.players[e.current].ID)
	}
	legal := e.legalFor(p)
	if !containsKind(legal, kind) {
		return Result{}, fmt.Errorf("%w: %s. Allowed: %v", ErrIllegalAction, kind, legal)
	}

	toCall := e.maxCommitted() - p.Committed
	moved := 0
	switch kind {
	case Fold:
		p.Folded = true
	case Check:
	case Call:
		moved = min(p.Stack, toCall)
		e.pay(p, moved)
	case Bet:
		if amount <= 0 || amount > p.Stack {
			return Result{}, fmt.Errorf("%w: %d (stack %d)", ErrInvalidBetAmount, amount, p.Stack)
		}
		moved = amount
		e.pay(p, moved)
	case Raise:
		if amount <= 0 || amount > p.Stack {
			return Result{}, fmt.Errorf("%w: %d (stack %d)", ErrInvalidRaiseAmount, amount, p.Stack)
		}
		moved = min(p.Stack, toCall+amount)
		e.pay(p, moved)
	case AllIn:
		moved = p.Stack
		e.pay(p, moved)
		p.AllIn = true
	}
	e.actions = append(e.actions, Action{PlayerID: p.ID, Kind: kind, Amount: moved})

	e.advanceTurn()
	if e.roundComplete() {
		e.advancePhase()
	}
	return Result{Phase: e.phase, Pot: e.pot}, nil
}
