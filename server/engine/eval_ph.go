package engine

import (
	"fmt"

	poker "github.com/paulhankin/poker"
)

// PHEvaluator scores hands with the paulhankin/poker tables. The library
// ranks stronger hands higher, so scores are negated to fit Evaluator.
type PHEvaluator struct{}

func (PHEvaluator) Evaluate(board, hole []Card) int {
	return -int(best5of7(append(append([]Card{}, hole...), board...)))
}

// Describe names the made hand, e.g. "two pair, kings and fives".
func (PHEvaluator) Describe(board, hole []Card) (string, error) {
	all := append(append([]Card{}, hole...), board...)
	if len(all) < 5 || len(all) > 7 {
		return "", fmt.Errorf("describe: need 5 to 7 cards, have %d", len(all))
	}
	pcs := make([]poker.Card, len(all))
	for i, c := range all {
		pcs[i] = toPH(c)
	}
	return poker.Describe(pcs)
}

// Convert our engine.Card -> library card.
func toPH(c Card) poker.Card {
	var s poker.Suit
	switch c.Suit {
	case 'c':
		s = poker.Club
	case 'd':
		s = poker.Diamond
	case 'h':
		s = poker.Heart
	case 's':
		s = poker.Spade
	default:
		s = poker.Club
	}
	// Our ranks: 2..14 (Ace=14). Library: 1..13 (Ace=1).
	var r poker.Rank
	if c.Rank == 14 {
		r = poker.Rank(1)
	} else {
		r = poker.Rank(c.Rank)
	}
	card, _ := poker.MakeCard(s, r)
	return card
}

// best5of7 returns the library score of the best five-card hand, higher is
// stronger.
func best5of7(cards []Card) int16 {
	n := len(cards)
	pcs := make([]poker.Card, n)
	for i, c := range cards {
		pcs[i] = toPH(c)
	}
	switch n {
	case 7:
		var a7 [7]poker.Card
		copy(a7[:], pcs)
		return poker.Eval7(&a7)
	case 5:
		var a5 [5]poker.Card
		copy(a5[:], pcs)
		return poker.Eval5(&a5)
	default:
		return bestOfFiveSubsets(pcs)
	}
}

func bestOfFiveSubsets(pcs []poker.Card) int16 {
	n := len(pcs)
	if n < 5 {
		var a5 [5]poker.Card
		copy(a5[:n], pcs)
		return poker.Eval5(&a5) // shouldn't happen in normal flow
	}
	best := int16(-32768)
	choose := [5]int{}
	var five [5]poker.Card
	var rec func(start, k int)
	rec = func(start, k int) {
		if k == 5 {
			for i := 0; i < 5; i++ {
				five[i] = pcs[choose[i]]
			}
			if score := poker.Eval5(&five); score > best {
				best = score
			}
			return
		}
		for i := start; i <= n-(5-k); i++ {
			choose[k] = i
			rec(i+1, k+1)
		}
	}
	rec(0, 0)
	return best
}
