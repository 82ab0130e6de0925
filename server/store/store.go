package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poker-arena/server/engine"
)

//go:embed schema.sql
var schema embed.FS

var ErrNotFound = errors.New("not found")

type DB struct{ *pgxpool.Pool }

func Open(ctx context.Context, dsn string) (*DB, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close()                         { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

/* -----------------------------
   Hands
------------------------------*/

// Record saves a completed hand; it lets DB serve as a match recorder.
func (db *DB) Record(ctx context.Context, snap engine.Snapshot) error {
	return db.SaveHand(ctx, snap)
}

// SaveHand writes the hand, its seats, actions and pot records atomically.
// Saving the same hand twice replaces it.
func (db *DB) SaveHand(ctx context.Context, snap engine.Snapshot) error {
	if snap.HandID == "" {
		return fmt.Errorf("save hand: missing hand id")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	potTotal := 0
	var winners []string
	showdown := false
	for _, pr := range snap.PotHistory {
		potTotal += pr.Amount
		winners = append(winners, pr.Winners...)
		showdown = showdown || pr.Evaluated
	}

	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // safe if already committed

	if _, err := tx.Exec(ctx, `DELETE FROM hands WHERE id = $1`, snap.HandID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO hands(id, deck_seed, button, board, pot_total, winners, showdown, snapshot)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, snap.HandID, snap.DeckSeed, snap.Button, cardStrings(snap.Board), potTotal,
		nonNil(winners), showdown, string(raw)); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, p := range snap.Players {
		batch.Queue(`
			INSERT INTO hand_players(hand_id, player_id, seat, hole, committed, final_stack, folded, all_in)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, snap.HandID, p.ID, p.Seat, cardStrings(p.Hole), p.Committed, p.Stack, p.Folded, p.AllIn)
	}
	for i, a := range snap.Actions {
		batch.Queue(`
			INSERT INTO hand_actions(hand_id, seq, player_id, action, amount)
			VALUES ($1,$2,$3,$4,$5)
		`, snap.HandID, i, a.PlayerID, string(a.Kind), a.Amount)
	}
	for i, pr := range snap.PotHistory {
		batch.Queue(`
			INSERT INTO pot_records(hand_id, seq, winners, amount, split, remainder, evaluated)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, snap.HandID, i, nonNil(pr.Winners), pr.Amount, pr.Split, pr.Remainder, pr.Evaluated)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// HandSummary is one row of the hand list.
type HandSummary struct {
	ID        string    `json:"hand_id"`
	DeckSeed  string    `json:"deck_seed"`
	Button    int       `json:"button"`
	Board     []string  `json:"community_cards"`
	Pot       int       `json:"total_pot"`
	Winners   []string  `json:"winners"`
	Showdown  bool      `json:"showdown"`
	CreatedAt time.Time `json:"created_at"`
}

// RecentHands lists the newest hands first. limit is clamped to [1, 500].
func (db *DB) RecentHands(ctx context.Context, limit int) ([]HandSummary, error) {
	limit = min(max(limit, 1), 500)
	rows, err := db.Query(ctx, `
		SELECT id, deck_seed, button, board, pot_total, winners, showdown, created_at
		  FROM hands
		 ORDER BY created_at DESC, id
		 LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []HandSummary{}
	for rows.Next() {
		var h HandSummary
		if err := rows.Scan(&h.ID, &h.DeckSeed, &h.Button, &h.Board, &h.Pot, &h.Winners, &h.Showdown, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetHand returns the full audit snapshot of one hand.
func (db *DB) GetHand(ctx context.Context, id string) (engine.Snapshot, error) {
	var raw []byte
	err := db.QueryRow(ctx, `SELECT snapshot FROM hands WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return engine.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return engine.Snapshot{}, err
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return engine.Snapshot{}, fmt.Errorf("decode hand %s: %w", id, err)
	}
	return snap, nil
}

/* -----------------------------
   Ratings
------------------------------*/

type Rating struct {
	PlayerID    string    `json:"player_id"`
	Elo         float64   `json:"elo"`
	Glicko      float64   `json:"glicko"`
	GlickoRD    float64   `json:"glicko_rd"`
	GlickoSigma float64   `json:"glicko_sigma"`
	Hands       int       `json:"hands"`
	NetChips    int       `json:"net_chips"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpsertRatings stores the latest ratings; hands and net chips are added to
// what is already there.
func (db *DB) UpsertRatings(ctx context.Context, rs []Rating) error {
	if len(rs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range rs {
		batch.Queue(`
			INSERT INTO player_ratings(player_id, elo, glicko, glicko_rd, glicko_sigma, hands, net_chips)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (player_id) DO UPDATE SET
				elo          = EXCLUDED.elo,
				glicko       = EXCLUDED.glicko,
				glicko_rd    = EXCLUDED.glicko_rd,
				glicko_sigma = EXCLUDED.glicko_sigma,
				hands        = player_ratings.hands + EXCLUDED.hands,
				net_chips    = player_ratings.net_chips + EXCLUDED.net_chips,
				updated_at   = now()
		`, r.PlayerID, r.Elo, r.Glicko, r.GlickoRD, r.GlickoSigma, r.Hands, r.NetChips)
	}
	return db.SendBatch(ctx, batch).Close()
}

// Ratings lists every rated player, best Elo first.
func (db *DB) Ratings(ctx context.Context) ([]Rating, error) {
	rows, err := db.Query(ctx, `
		SELECT player_id, elo, glicko, glicko_rd, glicko_sigma, hands, net_chips, updated_at
		  FROM player_ratings
		 ORDER BY elo DESC, player_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Rating{}
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.PlayerID, &r.Elo, &r.Glicko, &r.GlickoRD, &r.GlickoSigma, &r.Hands, &r.NetChips, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Rating returns one player's stored rating.
func (db *DB) Rating(ctx context.Context, playerID string) (Rating, error) {
	var r Rating
	err := db.QueryRow(ctx, `
		SELECT player_id, elo, glicko, glicko_rd, glicko_sigma, hands, net_chips, updated_at
		  FROM player_ratings WHERE player_id = $1
	`, playerID).Scan(&r.PlayerID, &r.Elo, &r.Glicko, &r.GlickoRD, &r.GlickoSigma, &r.Hands, &r.NetChips, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rating{}, ErrNotFound
	}
	return r, err
}

func cardStrings(cs []engine.Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
