package engine

// Evaluator scores a finished hand. Lower scores are stronger and equal
// scores tie. Implementations must be pure.
type Evaluator interface {
	Evaluate(board, hole []Card) int
}

// EvaluatorFunc adapts a plain function to Evaluator.
type EvaluatorFunc func(board, hole []Card) int

func (f EvaluatorFunc) Evaluate(board, hole []Card) int { return f(board, hole) }

// distribute pays out the whole pot. A lone survivor takes it unevaluated;
// otherwise the best score wins and ties split, with the odd chips going to
// the lowest seat among the tied.
//
// There are no side pots: a short all-in winner collects the entire pot.
func (e *Engine) distribute() {
	var live []*PlayerState
	for _, p := range e.players {
		if !p.Folded {
			live = append(live, p)
		}
	}
	if len(live) == 0 {
		return
	}

	if len(live) == 1 {
		w := live[0]
		w.Stack += e.pot
		e.potHistory = append(e.potHistory, PotRecord{
			Winners: []string{w.ID},
			Amount:  e.pot,
			Split:   e.pot,
		})
		e.pot = 0
		return
	}

	var winners []*PlayerState
	best := 0
	for _, p := range live {
		score := e.eval.Evaluate(e.Board(), append([]Card(nil), p.Hole...))
		switch {
		case len(winners) == 0 || score < best:
			best = score
			winners = []*PlayerState{p}
		case score == best:
			winners = append(winners, p)
		}
	}

	share := e.pot / len(winners)
	remainder := e.pot % len(winners)
	ids := make([]string, len(winners))
	for i, w := range winners {
		w.Stack += share
		ids[i] = w.ID
	}
	// live is in seat order, so winners[0] has the lowest seat
	winners[0].Stack += remainder

	e.potHistory = append(e.potHistory, PotRecord{
		Winners:   ids,
		Amount:    e.pot,
		Split:     share,
		Remainder: remainder,
		Evaluated: true,
	})
	e.pot = 0
}
