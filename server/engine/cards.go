package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strings"
)

// Card is e.g. "As" => rank 14, suit 's'.
type Card struct {
	Rank int
	Suit byte
}

const (
	rankChars = "  23456789TJQKA"
	suitChars = "cdhs"
)

func (c Card) String() string {
	if c.Rank < 2 || c.Rank > 14 {
		return "??"
	}
	return fmt.Sprintf("%c%c", rankChars[c.Rank], c.Suit)
}

func (c Card) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Card) UnmarshalText(b []byte) error {
	parsed, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard reads the two character notation used by String.
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) != 2 {
		return Card{}, fmt.Errorf("bad card %q", s)
	}
	rank := strings.IndexByte(rankChars, strings.ToUpper(s[:1])[0])
	if rank < 2 {
		return Card{}, fmt.Errorf("bad rank in card %q", s)
	}
	suit := strings.ToLower(s[1:])[0]
	if strings.IndexByte(suitChars, suit) < 0 {
		return Card{}, fmt.Errorf("bad suit in card %q", s)
	}
	return Card{Rank: rank, Suit: suit}, nil
}

func ParseCards(ss ...string) ([]Card, error) {
	out := make([]Card, 0, len(ss))
	for _, s := range ss {
		c, err := ParseCard(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// StandardDeck lists the 52 cards rank-major: 2c 2d 2h 2s 3c ... As.
func StandardDeck() []Card {
	deck := make([]Card, 0, 52)
	for rnk := 2; rnk <= 14; rnk++ {
		for s := 0; s < 4; s++ {
			deck = append(deck, Card{Rank: rnk, Suit: suitChars[s]})
		}
	}
	return deck
}

// Shuffle returns the deck permuted by a Fisher-Yates pass over a PCG stream
// derived from seed. Equal seeds give equal orderings.
func Shuffle(seed string) []Card {
	sum := sha256.Sum256([]byte(seed))
	s1 := binary.LittleEndian.Uint64(sum[0:8])
	s2 := binary.LittleEndian.Uint64(sum[8:16])
	r := rand.New(rand.NewPCG(mix(s1), mix(s2^0x9E3779B97F4A7C15)))

	deck := StandardDeck()
	for i := len(deck) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

func mix(z uint64) uint64 {
	z ^= z >> 30
	z *= 0xBF58476D1CE4E5B9
	z ^= z >> 27
	z *= 0x94D049BB133111EB
	z ^= z >> 31
	return z
}

func cardsToStr(cs []Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}
