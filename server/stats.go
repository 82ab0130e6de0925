package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"poker-arena/server/engine"
	"poker-arena/server/store"
)

type PlayerStats struct {
	Hands     int
	Won       int
	VPIP      int
	WTSD      int
	WSD       int
	Folds     int
	Checks    int
	Calls     int
	Aggr      int
	Fallbacks int
	NetChips  int
	perHand   []float64 // net chips in big blinds, one per hand
}

func (s *PlayerStats) AF() float64 {
	if s.Calls == 0 {
		if s.Aggr == 0 {
			return 0
		}
		return float64(s.Aggr)
	}
	return float64(s.Aggr) / float64(s.Calls)
}

func (s *PlayerStats) BBPer100(bb int) float64 {
	h := s.Hands
	if h == 0 || bb <= 0 {
		return 0
	}
	return (float64(s.NetChips) / float64(bb)) / (float64(h) / 100.0)
}

// Stats tallies every recorded hand and feeds the rating tables. It is a
// match.Recorder and is safe to share between tables.
type Stats struct {
	mu      sync.Mutex
	bb      int
	players map[string]*PlayerStats
	elo     *EloTable
	glicko  *GlickoTable
}

func NewStats(bigBlind int) *Stats {
	return &Stats{
		bb:      bigBlind,
		players: map[string]*PlayerStats{},
		elo:     NewEloTable(1500, 24),
		glicko:  NewGlickoTable(),
	}
}

func (s *Stats) player(id string) *PlayerStats {
	p, ok := s.players[id]
	if !ok {
		p = &PlayerStats{}
		s.players[id] = p
	}
	return p
}

// HandNet returns each dealt-in seat's chip result for a finished hand.
// Seats that were busted before the deal are left out.
func HandNet(snap engine.Snapshot) map[string]int {
	won := map[string]int{}
	for _, pr := range snap.PotHistory {
		for i, w := range pr.Winners {
			won[w] += pr.Split
			if i == 0 {
				won[w] += pr.Remainder
			}
		}
	}
	net := map[string]int{}
	for _, p := range snap.Players {
		if p.Folded && p.Committed == 0 && p.Stack == 0 && won[p.ID] == 0 {
			continue
		}
		net[p.ID] = won[p.ID] - p.Committed
	}
	return net
}

func (s *Stats) Record(_ context.Context, snap engine.Snapshot) error {
	if snap.Phase != engine.Completed {
		return fmt.Errorf("stats: hand %s is not complete", snap.HandID)
	}
	net := HandNet(snap)
	showdown := false
	winners := map[string]bool{}
	for _, pr := range snap.PotHistory {
		showdown = showdown || pr.Evaluated
		for _, w := range pr.Winners {
			winners[w] = true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range snap.Players {
		n, dealt := net[p.ID]
		if !dealt {
			continue
		}
		ps := s.player(p.ID)
		ps.Hands++
		ps.NetChips += n
		ps.perHand = append(ps.perHand, float64(n)/float64(max(s.bb, 1)))
		if winners[p.ID] {
			ps.Won++
		}
		if showdown && !p.Folded {
			ps.WTSD++
			if winners[p.ID] {
				ps.WSD++
			}
		}
	}

	vpip := map[string]bool{}
	for _, a := range snap.Actions {
		ps := s.player(a.PlayerID)
		switch a.Kind {
		case engine.Fold:
			ps.Folds++
		case engine.Check:
			ps.Checks++
		case engine.Call:
			ps.Calls++
			vpip[a.PlayerID] = true
		case engine.Bet, engine.Raise, engine.AllIn:
			ps.Aggr++
			vpip[a.PlayerID] = true
		}
	}
	for id := range vpip {
		s.player(id).VPIP++
	}

	pot := 0
	for _, pr := range snap.PotHistory {
		pot += pr.Amount
	}
	s.elo.UpdateHand(net, pot, s.bb)
	s.glicko.UpdateHand(net, s.bb)
	return nil
}

// SeedRating starts a player from a stored rating instead of the defaults.
// It does not count as a hand played.
func (s *Stats) SeedRating(r store.Rating) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elo.Seed(r.PlayerID, r.Elo)
	s.glicko.Seed(r.PlayerID, Glicko2{Rating: r.Glicko, RD: r.GlickoRD, Volatility: r.GlickoSigma})
}

// RatingReader is the store lookup LoadRatings needs.
type RatingReader interface {
	Rating(ctx context.Context, playerID string) (store.Rating, error)
}

// LoadRatings seeds s with every stored rating among ids. Players with no
// row start from the defaults.
func (s *Stats) LoadRatings(ctx context.Context, db RatingReader, ids []string) (int, error) {
	loaded := 0
	for _, id := range ids {
		r, err := db.Rating(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return loaded, fmt.Errorf("load rating %s: %w", id, err)
		}
		s.SeedRating(r)
		loaded++
	}
	return loaded, nil
}

// NoteFallback counts a decision that was replaced by the fallback policy.
func (s *Stats) NoteFallback(playerID string) {
	s.mu.Lock()
	s.player(playerID).Fallbacks++
	s.mu.Unlock()
}

func (s *Stats) Player(id string) PlayerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[id]; ok {
		cp := *p
		cp.perHand = slices.Clone(p.perHand)
		return cp
	}
	return PlayerStats{}
}

// IDs lists every player seen, best Elo first.
func (s *Stats) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ri, rj := s.elo.Rating(ids[i]), s.elo.Rating(ids[j])
		if ri != rj {
			return ri > rj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Ratings converts the session's ratings into store rows. Hands and net
// chips are this session's deltas.
func (s *Stats) Ratings() []store.Rating {
	ids := s.IDs()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Rating, 0, len(ids))
	for _, id := range ids {
		g := s.glicko.Get(id)
		p := s.players[id]
		out = append(out, store.Rating{
			PlayerID:    id,
			Elo:         s.elo.Rating(id),
			Glicko:      g.Rating,
			GlickoRD:    g.RD,
			GlickoSigma: g.Volatility,
			Hands:       p.Hands,
			NetChips:    p.NetChips,
		})
	}
	return out
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Standings renders the session summary table.
func (s *Stats) Standings() string {
	rows := [][]string{}
	for _, r := range s.Ratings() {
		p := s.Player(r.PlayerID)
		lo, hi := BootstrapCI95(p.perHand, 1000, 7)
		wlo, whi := WilsonCI95(p.Won, 0, p.Hands)
		rows = append(rows, []string{
			r.PlayerID,
			fmt.Sprintf("%d", p.Hands),
			fmt.Sprintf("%+d", p.NetChips),
			fmt.Sprintf("%+.1f [%+.1f, %+.1f]", p.BBPer100(s.bb), lo*100, hi*100),
			fmt.Sprintf("%.0f%% [%.0f, %.0f]", pct(p.Won, p.Hands), wlo*100, whi*100),
			fmt.Sprintf("%.0f%%", pct(p.VPIP, p.Hands)),
			fmt.Sprintf("%.2f", p.AF()),
			fmt.Sprintf("%d", p.Fallbacks),
			fmt.Sprintf("%.0f", r.Elo),
			fmt.Sprintf("%.0f±%.0f", r.Glicko, 2*r.GlickoRD),
		})
	}
	t := table.New().
		Headers("player", "hands", "net", "bb/100 [95%]", "won [95%]", "vpip", "af", "fallbacks", "elo", "glicko").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

func pct(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return 100 * float64(n) / float64(d)
}

// WilsonCI95 for a Bernoulli win rate, ties counting half.
func WilsonCI95(wins, ties, total int) (low, hi float64) {
	if total <= 0 {
		return 0, 1
	}
	z := 1.96
	n := float64(total)
	p := (float64(wins) + 0.5*float64(ties)) / n
	den := 1 + (z*z)/n
	center := p + (z*z)/(2*n)
	half := z * math.Sqrt((p*(1-p))/n+(z*z)/(4*n*n))
	return (center - half) / den, (center + half) / den
}

// BootstrapCI95 for the mean of vals, resampled B times from a fixed seed so
// reports are reproducible.
func BootstrapCI95(vals []float64, B int, seed uint64) (low, hi float64) {
	n := len(vals)
	if n == 0 || B <= 1 {
		return 0, 0
	}
	rng := rand.New(rand.NewPCG(seed, uint64(n)))
	res := make([]float64, B)
	for b := 0; b < B; b++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += vals[rng.IntN(n)]
		}
		res[b] = sum / float64(n)
	}
	sort.Float64s(res)
	l := int(0.025 * float64(B-1))
	h := int(0.975 * float64(B-1))
	return res[l], res[h]
}
