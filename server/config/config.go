package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the arena reads from the environment. Command-line
// flags are applied on top by main.
type Config struct {
	Players         []PlayerSpec
	SmallBlind      int
	BigBlind        int
	StartStack      int
	Hands           int
	Tables          int
	DeckSeed        string
	DecisionTimeout time.Duration
	EquitySamples   int
	DatabaseURL     string
	AutoMigrate     bool
	Port            string
	LogLevel        string
	ArenaFile       string
}

// PlayerSpec seats one agent. Agent is one of the Agent* kinds; Model only
// matters for AgentLLM.
type PlayerSpec struct {
	ID    string
	Agent string
	Model string
	Stack int
}

const (
	AgentLLM    = "llm"
	AgentEquity = "equity"
	AgentRandom = "random"
	AgentCall   = "call"
	AgentFold   = "fold"
)

var builtinAgents = map[string]bool{
	AgentEquity: true,
	AgentRandom: true,
	AgentCall:   true,
	AgentFold:   true,
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		SmallBlind:      atoiDef(os.Getenv("SB"), 5),
		BigBlind:        atoiDef(os.Getenv("BB"), 10),
		StartStack:      atoiDef(os.Getenv("START_STACK"), 1000),
		Hands:           atoiDef(os.Getenv("HANDS"), 1),
		Tables:          atoiDef(os.Getenv("TABLES"), 1),
		DeckSeed:        strings.TrimSpace(os.Getenv("DECK_SEED")),
		DecisionTimeout: time.Duration(atoiDef(os.Getenv("DECISION_TIMEOUT_MS"), 30000)) * time.Millisecond,
		EquitySamples:   atoiDef(os.Getenv("EQUITY_SAMPLES"), 2000),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AutoMigrate:     asBool(os.Getenv("AUTO_MIGRATE")),
		Port:            getenv("PORT", "8080"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		ArenaFile:       strings.TrimSpace(os.Getenv("ARENA_FILE")),
	}
	if v := strings.TrimSpace(os.Getenv("PLAYERS")); v != "" {
		ps, err := ParsePlayers(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Players = ps
	}
	return cfg, nil
}

// ParsePlayers reads a comma list of id[:agent-or-model]. A built-in agent
// name (equity, random, call, fold) seats that agent; anything else is taken
// as a chat model. A bare id gets the equity agent.
func ParsePlayers(s string) ([]PlayerSpec, error) {
	var out []PlayerSpec
	seen := map[string]bool{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		id, kind, _ := strings.Cut(item, ":")
		id = strings.TrimSpace(id)
		kind = strings.TrimSpace(kind)
		if id == "" {
			return nil, fmt.Errorf("players: empty id in %q", item)
		}
		if seen[id] {
			return nil, fmt.Errorf("players: duplicate id %q", id)
		}
		seen[id] = true

		p := PlayerSpec{ID: id, Agent: AgentEquity}
		switch {
		case kind == "":
		case builtinAgents[strings.ToLower(kind)]:
			p.Agent = strings.ToLower(kind)
		default:
			p.Agent = AgentLLM
			p.Model = kind
		}
		out = append(out, p)
	}
	return out, nil
}

// Validate checks the settings a match needs.
func (c Config) Validate() error {
	if c.SmallBlind < 0 || c.BigBlind < c.SmallBlind {
		return fmt.Errorf("blinds %d/%d: big blind must be at least the small blind", c.SmallBlind, c.BigBlind)
	}
	if c.StartStack <= 0 {
		return fmt.Errorf("start stack must be positive, got %d", c.StartStack)
	}
	if c.Hands <= 0 || c.Tables <= 0 {
		return fmt.Errorf("hands and tables must be positive, got %d and %d", c.Hands, c.Tables)
	}
	if c.ArenaFile == "" && len(c.Players) < 2 {
		return fmt.Errorf("need at least two players: set PLAYERS or ARENA_FILE")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
