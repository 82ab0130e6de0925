package main

import (
	"math"
	"sort"
)

// EloTable rates any number of players. Each hand is scored as a set of
// pairwise games between the seats that were dealt in.
type EloTable struct {
	K       float64
	Start   float64
	ratings map[string]float64
	games   map[string]int
}

func NewEloTable(start, k float64) *EloTable {
	return &EloTable{K: k, Start: start, ratings: map[string]float64{}, games: map[string]int{}}
}

func (e *EloTable) Rating(id string) float64 {
	if r, ok := e.ratings[id]; ok {
		return r
	}
	return e.Start
}

func (e *EloTable) Games(id string) int { return e.games[id] }

// Seed sets a player's starting rating, e.g. one carried over from an
// earlier run.
func (e *EloTable) Seed(id string, rating float64) { e.ratings[id] = rating }

func expectScore(ra, rb float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (rb-ra)/400.0))
}

// softScore maps a chip margin to [0,1]; a margin of a few big blinds is
// already most of a win.
func softScore(margin, bb int) float64 {
	const lambdaBB = 6.0
	if bb <= 0 {
		bb = 1
	}
	return 0.5 + 0.5*math.Tanh(float64(margin)/(lambdaBB*float64(bb)))
}

// UpdateHand applies one hand. net holds each participant's chip result.
// K is split over the n-1 opponents and scaled by pot size, so a hand moves
// a rating about as much as one heads-up game would.
func (e *EloTable) UpdateHand(net map[string]int, pot, bb int) map[string]float64 {
	ids := make([]string, 0, len(net))
	for id := range net {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	deltas := make(map[string]float64, len(ids))
	if len(ids) < 2 {
		return deltas
	}

	k := e.K * potScale(pot, bb) / float64(len(ids)-1)
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]
			ea := expectScore(e.Rating(a), e.Rating(b))
			sa := softScore(net[a]-net[b], bb)
			d := k * (sa - ea)
			deltas[a] += d
			deltas[b] -= d
		}
	}
	for _, id := range ids {
		e.ratings[id] = e.Rating(id) + deltas[id]
		e.games[id]++
	}
	return deltas
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func potScale(pot, bb int) float64 {
	if bb <= 0 || pot <= 0 {
		return 1.0
	}
	return clamp(float64(pot)/(2.0*float64(bb)), 0.5, 3.0)
}
