package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Arena is an HCL description of several tables, for runs where PLAYERS and
// TABLES are not expressive enough:
//
//	hands = 50
//
//	table "main" {
//	  small_blind = 5
//	  big_blind   = 10
//	  seed        = "demo-seed-4player"
//
//	  player "gpt4o" {
//	    agent = "llm"
//	    model = "gpt-4o"
//	    stack = 500
//	  }
//	  player "house" {
//	    agent = "equity"
//	  }
//	}
type Arena struct {
	Hands  int           `hcl:"hands,optional"`
	Tables []TableConfig `hcl:"table,block"`
}

type TableConfig struct {
	Name       string         `hcl:"name,label"`
	SmallBlind int            `hcl:"small_blind,optional"`
	BigBlind   int            `hcl:"big_blind,optional"`
	Seed       string         `hcl:"seed,optional"`
	Players    []PlayerConfig `hcl:"player,block"`
}

type PlayerConfig struct {
	ID    string `hcl:"id,label"`
	Agent string `hcl:"agent,optional"`
	Model string `hcl:"model,optional"`
	Stack int    `hcl:"stack,optional"`
}

// LoadArena parses filename and fills unset values from defaults.
func LoadArena(filename string, defaults Config) (*Arena, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("arena file: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var arena Arena
	diags = gohcl.DecodeBody(file.Body, nil, &arena)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if arena.Hands == 0 {
		arena.Hands = defaults.Hands
	}
	for i := range arena.Tables {
		t := &arena.Tables[i]
		if t.SmallBlind == 0 && t.BigBlind == 0 {
			t.SmallBlind, t.BigBlind = defaults.SmallBlind, defaults.BigBlind
		}
		if t.Seed == "" && defaults.DeckSeed != "" {
			t.Seed = fmt.Sprintf("%s-%s", defaults.DeckSeed, t.Name)
		}
		for j := range t.Players {
			p := &t.Players[j]
			if p.Agent == "" {
				if p.Model != "" {
					p.Agent = AgentLLM
				} else {
					p.Agent = AgentEquity
				}
			}
			if p.Stack == 0 {
				p.Stack = defaults.StartStack
			}
		}
	}
	return &arena, arena.Validate()
}

// Validate checks table shapes and that player ids are unique across the
// whole arena, since agents are looked up by id.
func (a *Arena) Validate() error {
	if len(a.Tables) == 0 {
		return fmt.Errorf("at least one table must be configured")
	}
	if a.Hands <= 0 {
		return fmt.Errorf("hands must be positive, got %d", a.Hands)
	}
	seen := map[string]string{}
	for _, t := range a.Tables {
		if len(t.Players) < 2 {
			return fmt.Errorf("table %s: need at least two players", t.Name)
		}
		if t.SmallBlind < 0 || t.BigBlind < t.SmallBlind {
			return fmt.Errorf("table %s: big blind must be at least the small blind", t.Name)
		}
		for _, p := range t.Players {
			if prev, ok := seen[p.ID]; ok {
				return fmt.Errorf("player %s: seated at both %s and %s", p.ID, prev, t.Name)
			}
			seen[p.ID] = t.Name
			if p.Agent != AgentLLM && !builtinAgents[p.Agent] {
				return fmt.Errorf("player %s: unknown agent %q", p.ID, p.Agent)
			}
			if p.Agent == AgentLLM && p.Model == "" {
				return fmt.Errorf("player %s: llm agent needs a model", p.ID)
			}
			if p.Stack < 0 {
				return fmt.Errorf("player %s: negative stack", p.ID)
			}
		}
	}
	return nil
}

// Specs flattens the table's players into PlayerSpecs.
func (t TableConfig) Specs() []PlayerSpec {
	out := make([]PlayerSpec, len(t.Players))
	for i, p := range t.Players {
		out[i] = PlayerSpec{ID: p.ID, Agent: p.Agent, Model: p.Model, Stack: p.Stack}
	}
	return out
}

// ArenaFromEnv builds the equivalent arena for a PLAYERS/TABLES run: the
// same line-up copied to every table, ids suffixed with the table number
// when there is more than one.
func ArenaFromEnv(c Config) *Arena {
	a := &Arena{Hands: c.Hands}
	for i := 0; i < c.Tables; i++ {
		t := TableConfig{
			Name:       fmt.Sprintf("table%d", i+1),
			SmallBlind: c.SmallBlind,
			BigBlind:   c.BigBlind,
		}
		if c.DeckSeed != "" {
			t.Seed = fmt.Sprintf("%s-%s", c.DeckSeed, t.Name)
		}
		for _, p := range c.Players {
			id := p.ID
			if c.Tables > 1 {
				id = fmt.Sprintf("%s@%d", p.ID, i+1)
			}
			stack := p.Stack
			if stack == 0 {
				stack = c.StartStack
			}
			t.Players = append(t.Players, PlayerConfig{ID: id, Agent: p.Agent, Model: p.Model, Stack: stack})
		}
		a.Tables = append(a.Tables, t)
	}
	return a
}
