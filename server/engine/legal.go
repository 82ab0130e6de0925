package engine

// LegalActions lists what playerID may do right now. Folded and all-in seats,
// and seats outside a live hand, get an empty set. Check is only offered
// when nothing is owed.
func (e *Engine) LegalActions(playerID string) ([]ActionKind, error) {
	p, err := e.find(playerID)
	if err != nil {
		return nil, err
	}
	return e.legalFor(p), nil
}

func (e *Engine) legalFor(p *PlayerState) []ActionKind {
	if !p.canAct() || e.phase == NoHand || e.phase == Completed {
		return nil
	}

	toCall := e.maxCommitted() - p.Committed
	if toCall > 0 {
		out := []ActionKind{Fold}
		if p.Stack >= toCall {
			out = append(out, Call)
		}
		if p.Stack > toCall {
			out = append(out, Raise)
		}
		if p.Stack > 0 {
			out = append(out, AllIn)
		}
		return out
	}

	out := []ActionKind{Check}
	if p.Stack > 0 {
		out = append(out, Bet, AllIn)
	}
	return out
}

// ToCall is the gap between the hand-wide highest commitment and playerID's.
func (e *Engine) ToCall(playerID string) (int, error) {
	p, err := e.find(playerID)
	if err != nil {
		return 0, err
	}
	return e.maxCommitted() - p.Committed, nil
}

func containsKind(ks []ActionKind, k ActionKind) bool {
	for _, x := range ks {
		if x == k {
			return true
		}
	}
	return false
}
