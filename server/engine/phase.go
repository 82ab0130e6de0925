package engine

// phaseOrder is the only legal successor of each phase.
var phaseOrder = map[Phase]Phase{
	PreFlop:  Flop,
	Flop:     Turn,
	Turn:     River,
	River:    Showdown,
	Showdown: Completed,
}

// streetDeal is what entering a street takes from the deck.
var streetDeal = map[Phase]struct{ burn, reveal int }{
	Flop:  {burn: 1, reveal: 3},
	Turn:  {burn: 1, reveal: 1},
	River: {burn: 1, reveal: 1},
}

// roundComplete reports whether betting on the current street is over: no
// seat can act, or every seat that can act has matched the highest
// commitment in the hand.
func (e *Engine) roundComplete() bool {
	if e.countCanAct() == 0 {
		return true
	}
	highest := e.maxCommitted()
	for _, p := range e.players {
		if p.canAct() && p.Committed != highest {
			return false
		}
	}
	return true
}

// advancePhase moves one step along phaseOrder. When the step leaves at most
// one seat able to act, the rest of the board is run out without waiting for
// input.
func (e *Engine) advancePhase() {
	e.step()
	if e.phase == Completed {
		return
	}
	if e.countCanAct() <= 1 {
		e.runOut()
	}
}

// runOut walks the remaining phases, dealing exactly what the street by
// street path would, until the pot is distributed.
func (e *Engine) runOut() {
	for e.phase != Completed && e.phase != NoHand {
		e.step()
	}
}

func (e *Engine) step() {
	next, ok := phaseOrder[e.phase]
	if !ok {
		return
	}
	e.phase = next

	if d, ok := streetDeal[next]; ok {
		for i := 0; i < d.burn; i++ {
			_ = e.pop()
		}
		for i := 0; i < d.reveal; i++ {
			e.board = append(e.board, e.pop())
		}
		return
	}
	if next == Showdown {
		e.distribute()
		e.phase = Completed
	}
}
