package engine

// advanceTurn hands the action to the next seat clockwise that is neither
// folded nor all-in. With no such seat the pointer stays put and the round
// is treated as complete.
func (e *Engine) advanceTurn() {
	if e.countCanAct() == 0 {
		return
	}
	n := len(e.players)
	for i := 1; i <= n; i++ {
		idx := (e.current + i) % n
		if e.players[idx].canAct() {
			e.current = idx
			return
		}
	}
}
