package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"poker-arena/server/agent"
	"poker-arena/server/engine"
)

const systemPrompt = `You are an autonomous poker agent playing No-Limit Texas Hold'em at a table of two or more players.
Every turn you must choose a legal action and a valid amount.

ACTION RULES
1. Do not fold preflop unless your hand is very weak and someone has raised.
2. "bet" is only legal when nothing is owed. Amount is the chips you put in; about 30% of your stack is a sound default.
3. "raise" is legal when facing a bet. Amount is how much you add ON TOP of the call,
   e.g. max(round(stack * 0.3), 10).
4. If only "call" and "fold" are available, call unless your hand is trash and the table is aggressive.
5. If "check" is available prefer it, except to value bet a strong made hand or semi-bluff a strong draw.
6. Go "allin" only with top pair good kicker, overpairs, two pair or better, or draws with 12+ outs.

STRATEGY
Preflop: raise any ace, king, queen or jack, any pair, suited connectors 54s+, any two broadways.
Call with 65o+, most suited hands, one-gappers and medium offsuit hands. Fold only trash such as 32o, 42o, 83o, 93o.
Postflop: continuation bet often as the preflop aggressor, value bet strong hands, semi-bluff good draws,
check marginal hands, fold weak air facing aggression.

AMOUNTS
All amounts are integers. Never exceed your stack. Never go negative. Use 0 for fold, check, call and allin.

OUTPUT
Return ONLY {"action": "<action>", "amount": <int>} with no other words.`

// Agent asks a chat model for each decision.
type Agent struct {
	client *Client
	log    *log.Logger
}

func NewAgent(model string, logger *log.Logger) (*Agent, error) {
	c, err := NewClient(model)
	if err != nil {
		return nil, err
	}
	return &Agent{client: c, log: logger.With("model", c.Model(), "provider", c.Provider())}, nil
}

func (a *Agent) Decide(ctx context.Context, obs engine.Observation, legal []engine.ActionKind) (agent.Decision, error) {
	names := make([]string, len(legal))
	for i, k := range legal {
		names[i] = string(k)
	}

	choice, err := a.client.ChooseAction(ctx, systemPrompt, userPrompt(obs, names), names, obs.Stack())
	if err != nil {
		a.log.Warn("model reply unusable", "player", obs.PlayerID, "err", err, "raw", truncate(choice.Raw, 200))
		return agent.Decision{}, err
	}
	a.log.Debug("model reply", "player", obs.PlayerID, "action", choice.Action, "amount", choice.Amount)
	return agent.Decision{Action: engine.ActionKind(choice.Action), Amount: choice.Amount}, nil
}

func userPrompt(obs engine.Observation, legal []string) string {
	players, _ := json.Marshal(obs.Players)
	var b strings.Builder
	fmt.Fprintf(&b, "GAME STATE\n\n")
	fmt.Fprintf(&b, "Phase: %s\n", obs.Phase)
	fmt.Fprintf(&b, "Your ID: %s\n\n", obs.PlayerID)
	fmt.Fprintf(&b, "Your Hole Cards: %s\n", strings.Join(obs.HoleCards, " "))
	fmt.Fprintf(&b, "Community Cards: %s\n\n", strings.Join(obs.Board, " "))
	fmt.Fprintf(&b, "Pot: %d\n", obs.Pot)
	fmt.Fprintf(&b, "Players: %s\n", players)
	fmt.Fprintf(&b, "LEGAL ACTIONS: %s\n\n", strings.Join(legal, ", "))
	fmt.Fprintf(&b, "Your Stack: %d\n", obs.Stack())
	fmt.Fprintf(&b, "To-Call amount: %d\n\n", obs.ToCall)
	b.WriteString("Return JSON only.\n")
	return b.String()
}
