package main

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"poker-arena/server/agent"
	"poker-arena/server/config"
	"poker-arena/server/engine"
	"poker-arena/server/llm"
	"poker-arena/server/match"
	"poker-arena/server/store"
)

var cli struct {
	LogLevel string `help:"log level (debug, info, warn, error); overrides LOG_LEVEL"`

	Play    PlayCmd    `cmd:"" default:"1" help:"play hands between the configured agents"`
	Serve   ServeCmd   `cmd:"" help:"serve recorded hands and ratings over HTTP"`
	Migrate MigrateCmd `cmd:"" help:"apply the database schema and exit"`
}

type PlayCmd struct {
	Players string `help:"seat list, id[:agent-or-model],...; overrides PLAYERS"`
	Hands   int    `help:"hands per table; overrides HANDS"`
	Tables  int    `help:"number of tables; overrides TABLES"`
	Seed    string `help:"deck seed prefix for reproducible runs; overrides DECK_SEED"`
	Arena   string `help:"HCL arena file; overrides ARENA_FILE" type:"existingfile"`
}

type ServeCmd struct {
	Port string `help:"listen port; overrides PORT"`
}

type MigrateCmd struct{}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("poker-arena"),
		kong.Description("No-limit Texas Hold'em arena for LLM and scripted agents"),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	kctx.FatalIfErrorf(err)
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch kctx.Command() {
	case "play":
		err = cli.Play.Run(ctx, cfg, logger)
	case "serve":
		err = cli.Serve.Run(ctx, cfg, logger)
	case "migrate":
		err = cli.Migrate.Run(ctx, cfg, logger)
	default:
		err = fmt.Errorf("unknown command: %s", kctx.Command())
	}
	if err != nil {
		logger.Fatal("failed", "cmd", kctx.Command(), "err", err)
	}
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.StampMilli,
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", level)
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func (c *PlayCmd) Run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	if c.Players != "" {
		ps, err := config.ParsePlayers(c.Players)
		if err != nil {
			return err
		}
		cfg.Players = ps
	}
	if c.Hands > 0 {
		cfg.Hands = c.Hands
	}
	if c.Tables > 0 {
		cfg.Tables = c.Tables
	}
	if c.Seed != "" {
		cfg.DeckSeed = c.Seed
	}
	if c.Arena != "" {
		cfg.ArenaFile = c.Arena
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var arena *config.Arena
	if cfg.ArenaFile != "" {
		a, err := config.LoadArena(cfg.ArenaFile, cfg)
		if err != nil {
			return err
		}
		arena = a
	} else {
		arena = config.ArenaFromEnv(cfg)
		if err := arena.Validate(); err != nil {
			return err
		}
	}

	runID := uuid.NewString()
	logger = logger.With("run", runID[:8])

	deciders := map[string]agent.Decider{}
	var tables []match.Table
	for _, t := range arena.Tables {
		mt := match.Table{
			Name: t.Name,
			Seed: t.Seed,
			Config: engine.Config{
				SmallBlind: t.SmallBlind,
				BigBlind:   t.BigBlind,
			},
		}
		for _, p := range t.Specs() {
			d, err := newDecider(p, cfg, logger)
			if err != nil {
				return fmt.Errorf("player %s: %w", p.ID, err)
			}
			deciders[p.ID] = d
			mt.Players = append(mt.Players, p.ID)
			mt.Config.StartingStacks = append(mt.Config.StartingStacks, p.Stack)
		}
		tables = append(tables, mt)
	}

	stats := NewStats(tables[0].Config.BigBlind)
	runner := &match.Runner{
		Log:        logger,
		Timeout:    cfg.DecisionTimeout,
		Eval:       engine.PHEvaluator{},
		Recorders:  []match.Recorder{stats},
		OnFallback: func(id string, _ error) { stats.NoteFallback(id) },
	}

	db := openOptionalDB(ctx, cfg, logger)
	if db != nil {
		defer db.Close()
		runner.Recorders = append(runner.Recorders, db)
		ids := make([]string, 0, len(deciders))
		for _, t := range tables {
			ids = append(ids, t.Players...)
		}
		n, err := stats.LoadRatings(ctx, db, ids)
		if err != nil {
			return err
		}
		logger.Info("loaded ratings", "players", n)
	}

	logger.Info("starting", "tables", len(tables), "hands", arena.Hands, "players", len(deciders))
	results, err := runner.PlayTables(ctx, tables, deciders, arena.Hands)
	for _, res := range results {
		logger.Info("table finished", "table", res.Table, "hands", res.Hands, "stacks", res.Stacks)
	}
	fmt.Println(stats.Standings())

	if db != nil {
		// the run context may already be cancelled; ratings are still worth keeping
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.UpsertRatings(saveCtx, stats.Ratings()); err != nil {
			logger.Error("save ratings", "err", err)
		}
	}
	if errors.Is(err, context.Canceled) {
		logger.Warn("interrupted")
		return nil
	}
	return err
}

// newDecider builds the agent for one seat. Seeds for the built-in agents
// derive from the deck seed and player id so seeded runs replay exactly.
func newDecider(p config.PlayerSpec, cfg config.Config, logger *log.Logger) (agent.Decider, error) {
	seed := agentSeed(cfg.DeckSeed, p.ID)
	switch p.Agent {
	case config.AgentLLM:
		return llm.NewAgent(p.Model, logger.With("player", p.ID))
	case config.AgentEquity:
		a := agent.NewEquityAgent(seed)
		if cfg.EquitySamples > 0 {
			a.Samples = cfg.EquitySamples
		}
		return a, nil
	case config.AgentRandom:
		return agent.NewRandom(seed), nil
	case config.AgentCall:
		return agent.CallStation{}, nil
	case config.AgentFold:
		return agent.Folder{}, nil
	}
	return nil, fmt.Errorf("unknown agent %q", p.Agent)
}

func agentSeed(deckSeed, id string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(deckSeed))
	h.Write([]byte{0})
	h.Write([]byte(id))
	return h.Sum64()
}

// openOptionalDB connects when DATABASE_URL is set. A play run goes on
// without persistence if the database is unavailable.
func openOptionalDB(ctx context.Context, cfg config.Config, logger *log.Logger) *store.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err == nil {
		err = db.Ping(ctx)
	}
	if err == nil && cfg.AutoMigrate {
		err = store.Migrate(ctx, db)
	}
	if err != nil {
		logger.Warn("database disabled", "err", err)
		if db != nil {
			db.Close()
		}
		return nil
	}
	return db
}

func (c *ServeCmd) Run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("serve needs DATABASE_URL")
	}
	port := cfg.Port
	if c.Port != "" {
		port = c.Port
	}

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := store.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("migrated")
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      Router(db, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	logger.Info("listening", "addr", "http://localhost:"+port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (c *MigrateCmd) Run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("migrate needs DATABASE_URL")
	}
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := store.Migrate(ctx, db); err != nil {
		return err
	}
	logger.Info("migrated")
	return nil
}
