package main

import "math"

const (
	g2Scale = 173.7178 // r <-> mu
	pi2     = math.Pi * math.Pi
	g2Tau   = 0.5
)

// Glicko2 is one player's rating on the public 1500 scale.
type Glicko2 struct {
	Rating     float64
	RD         float64
	Volatility float64
	Games      int
}

func NewGlicko2() *Glicko2 {
	return &Glicko2{Rating: 1500, RD: 350, Volatility: 0.06}
}

func toMuPhi(r, rd float64) (mu, phi float64)   { return (r - 1500.0) / g2Scale, rd / g2Scale }
func fromMuPhi(mu, phi float64) (r, rd float64) { return mu*g2Scale + 1500.0, phi * g2Scale }

// g and E are in mu/phi units; no ln(10)/400 factor belongs here.
func g(phi float64) float64 { return 1.0 / math.Sqrt(1.0+3.0*phi*phi/pi2) }
func gExp(mu, muj, phij float64) float64 {
	return 1.0 / (1.0 + math.Exp(-g(phij)*(mu-muj)))
}

// OpponentResult is one opponent as rated at the start of the period and
// the score S in [0,1] against them.
type OpponentResult struct {
	Opp Glicko2
	S   float64
}

// Age is the no-games step: RD grows, the rating stays.
func (a *Glicko2) Age() {
	mu, phi := toMuPhi(a.Rating, a.RD)
	a.Rating, a.RD = fromMuPhi(mu, math.Sqrt(phi*phi+a.Volatility*a.Volatility))
	a.Games++
}

// UpdateBatch is the Glicko-2 rating-period update against several
// opponents.
func (a *Glicko2) UpdateBatch(results []OpponentResult, tau float64) {
	if len(results) == 0 {
		a.Age()
		return
	}

	mu, phi := toMuPhi(a.Rating, a.RD)
	var sumG2E, sumGSE float64
	for _, r := range results {
		muB, phiB := toMuPhi(r.Opp.Rating, r.Opp.RD)
		gB := g(phiB)
		e := gExp(mu, muB, phiB)
		sumG2E += gB * gB * e * (1.0 - e)
		sumGSE += gB * (r.S - e)
	}
	v := 1.0 / sumG2E
	delta := v * sumGSE

	sigma := a.Volatility
	if math.Abs(delta) >= 1e-12 {
		sigma = solveVolatility(phi, v, delta, a.Volatility, tau)
	}

	phiStar := math.Sqrt(phi*phi + sigma*sigma)
	phiNew := 1.0 / math.Sqrt(1.0/(phiStar*phiStar)+1.0/v)
	muNew := mu + phiNew*phiNew*sumGSE

	a.Rating, a.RD = fromMuPhi(muNew, phiNew)
	a.Volatility = sigma
	a.Games++
}

// solveVolatility finds sigma' with the Illinois iteration from the paper.
func solveVolatility(phi, v, delta, sigma, tau float64) float64 {
	a0 := math.Log(sigma * sigma)
	f := func(x float64) float64 {
		ex := math.Exp(x)
		num := ex * (delta*delta - phi*phi - v - ex)
		den := 2.0 * (phi*phi + v + ex) * (phi*phi + v + ex)
		return num/den - (x-a0)/(tau*tau)
	}

	lo := a0
	var hi float64
	if delta*delta > phi*phi+v {
		hi = math.Log(delta*delta - phi*phi - v)
	} else {
		k := 1.0
		for f(a0-k) < 0 && k < 1e6 {
			k *= 2.0
		}
		hi = a0 - k
	}
	fLo, fHi := f(lo), f(hi)
	for it := 0; it < 60 && math.Abs(hi-lo) > 1e-6; it++ {
		c := lo + (lo-hi)*fLo/(fHi-fLo)
		fC := f(c)
		if math.IsNaN(fC) || math.IsInf(fC, 0) {
			break
		}
		if fC*fHi < 0 {
			lo, fLo = hi, fHi
		} else {
			fLo /= 2
		}
		hi, fHi = c, fC
	}
	return math.Exp(hi / 2.0)
}

// GlickoTable holds one Glicko2 per player and treats each hand as a rating
// period.
type GlickoTable struct {
	players map[string]*Glicko2
}

func NewGlickoTable() *GlickoTable { return &GlickoTable{players: map[string]*Glicko2{}} }

func (t *GlickoTable) Get(id string) Glicko2 {
	if p, ok := t.players[id]; ok {
		return *p
	}
	return *NewGlicko2()
}

// Seed sets a player's starting rating. Rows without a positive RD are
// ignored and the player keeps the defaults.
func (t *GlickoTable) Seed(id string, g Glicko2) {
	if g.RD <= 0 || g.Volatility <= 0 {
		return
	}
	t.players[id] = &g
}

// UpdateHand rates every participant against every other using the same
// chip-margin score as the Elo table. Opponents are read before any update.
func (t *GlickoTable) UpdateHand(net map[string]int, bb int) {
	if len(net) < 2 {
		return
	}
	before := make(map[string]Glicko2, len(net))
	for id := range net {
		before[id] = t.Get(id)
	}
	for id := range net {
		var results []OpponentResult
		for opp := range net {
			if opp == id {
				continue
			}
			results = append(results, OpponentResult{Opp: before[opp], S: softScore(net[id]-net[opp], bb)})
		}
		p := before[id]
		p.UpdateBatch(results, g2Tau)
		t.players[id] = &p
	}
}
