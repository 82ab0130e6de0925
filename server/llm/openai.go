package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Options controls JSON mode, reasoning and sampling knobs.
type Options struct {
	ReasoningEffort string
	MaxOutputTokens int
	Temperature     *float64
	TopP            *float64
	TopK            int
}

// Client talks to an OpenAI-compatible chat/completions endpoint.
type Client struct {
	cfg  apiConfig
	http *http.Client
	opts Options
}

// NewClient resolves provider settings for model from the environment.
func NewClient(model string) (*Client, error) {
	cfg, err := resolveAPIConfig(model)
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 45 * time.Second},
		opts: envOptions(cfg.Kind == providerOpenRouter, cfg.Model),
	}, nil
}

func (c *Client) Model() string    { return c.cfg.Model }
func (c *Client) Provider() string { return c.cfg.Kind.String() }

type jsonSchema struct {
	Name   string
	Schema map[string]any
	Strict bool
}

// Complete sends one system+user exchange and returns the reply text. With a
// nil schema the model is still asked for a JSON object.
func (c *Client) Complete(ctx context.Context, system, user string, schema *jsonSchema) (string, error) {
	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	if c.opts.MaxOutputTokens > 0 {
		payload["max_tokens"] = c.opts.MaxOutputTokens
	}
	if c.opts.ReasoningEffort != "" {
		payload["reasoning"] = map[string]any{"effort": c.opts.ReasoningEffort}
	}
	if c.opts.Temperature != nil {
		payload["temperature"] = *c.opts.Temperature
	}
	if c.opts.TopP != nil {
		payload["top_p"] = *c.opts.TopP
	}
	if c.opts.TopK > 0 {
		payload["top_k"] = c.opts.TopK
	}
	if schema != nil {
		payload["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   coalesce(schema.Name, "structured"),
				"strict": schema.Strict,
				"schema": schema.Schema,
			},
		}
	} else {
		payload["response_format"] = map[string]any{"type": "json_object"}
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	c.cfg.apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s http %d: %s", c.cfg.Kind, resp.StatusCode, truncate(string(body), 800))
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &cc); err != nil {
		return "", err
	}
	if len(cc.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return cc.Choices[0].Message.Content, nil
}

// Choice is a parsed model action. Raw is kept for logs.
type Choice struct {
	Action string
	Amount int
	Raw    string
}

// ChooseAction requests a structured {"action","amount"} reply. Amount must
// land in [1, maxAmount] for bet and raise and is zeroed otherwise.
func (c *Client) ChooseAction(ctx context.Context, system, user string, legal []string, maxAmount int) (Choice, error) {
	schema := &jsonSchema{
		Name:   "poker_action",
		Strict: true,
		Schema: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"action": map[string]any{
					"type":        "string",
					"enum":        legal,
					"description": "One of the legal poker actions",
				},
				"amount": map[string]any{
					"type":        "integer",
					"minimum":     0,
					"maximum":     max(0, maxAmount),
					"description": "Chips to bet, or the increment above the call for a raise; 0 otherwise",
				},
			},
			"required": []string{"action", "amount"},
		},
	}

	text, err := c.Complete(ctx, system, user, schema)
	if err != nil {
		return Choice{Raw: text}, err
	}
	return parseChoice(text, legal, maxAmount)
}

func parseChoice(text string, legal []string, maxAmount int) (Choice, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return Choice{}, errors.New("empty response")
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		cleaned := extractJSONObject(raw)
		if cleaned == "" {
			return Choice{Raw: raw}, err
		}
		if err2 := json.Unmarshal([]byte(cleaned), &parsed); err2 != nil {
			return Choice{Raw: raw}, err
		}
	}
	act, amt, ok := coerceActionMap(parsed, legal, maxAmount)
	if !ok {
		return Choice{Raw: raw}, errors.New("no valid action in response")
	}
	return Choice{Action: act, Amount: amt, Raw: raw}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func coalesce(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		return ""
	}
	return strings.TrimSpace(s[start : end+1])
}

func coerceActionMap(parsed map[string]any, legal []string, maxAmount int) (string, int, bool) {
	var act string
	if v, ok := parsed["action"].(string); ok {
		act = strings.ToLower(strings.TrimSpace(v))
	}
	switch act {
	case "all-in", "all_in", "all in", "shove":
		act = "allin"
	case "bet":
		if !slices.Contains(legal, "bet") && slices.Contains(legal, "raise") {
			act = "raise"
		}
	case "raise":
		if !slices.Contains(legal, "raise") && slices.Contains(legal, "bet") {
			act = "bet"
		}
	}
	if !slices.Contains(legal, act) {
		return "", 0, false
	}

	amount := -1
	if rawAmt, ok := parsed["amount"]; ok && rawAmt != nil {
		switch t := rawAmt.(type) {
		case float64:
			amount = int(t)
		case json.Number:
			if n, err := t.Int64(); err == nil {
				amount = int(n)
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
				amount = n
			}
		}
	}
	if act == "bet" || act == "raise" {
		if amount < 1 || amount > maxAmount {
			return "", 0, false
		}
		return act, amount, true
	}
	return act, 0, true
}

// envOptions reads tuning knobs. Reasoning models (o1, o3, ...) reject a
// temperature, everything else defaults to 0.
func envOptions(preferOpenRouter bool, model string) Options {
	opts := Options{}
	if v := envWithFallback(preferOpenRouter, "OPENAI_REASONING_EFFORT", "OPENROUTER_REASONING_EFFORT"); v != "" {
		opts.ReasoningEffort = v
	}
	if v := envWithFallback(preferOpenRouter, "OPENAI_MAX_OUTPUT_TOKENS", "OPENROUTER_MAX_OUTPUT_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.MaxOutputTokens = n
		}
	}
	if !isReasoningModel(model) {
		zero := 0.0
		opts.Temperature = &zero
	}
	if v := envWithFallback(preferOpenRouter, "OPENAI_TEMPERATURE", "OPENROUTER_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			opts.Temperature = &f
		}
	}
	if v := envWithFallback(preferOpenRouter, "OPENAI_TOP_P", "OPENROUTER_TOP_P"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			opts.TopP = &f
		}
	}
	if v := envWithFallback(preferOpenRouter, "OPENAI_TOP_K", "OPENROUTER_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.TopK = n
		}
	}
	return opts
}

func isReasoningModel(model string) bool {
	m := strings.ToLower(model)
	if i := strings.LastIndex(m, "/"); i >= 0 {
		m = m[i+1:]
	}
	return len(m) >= 2 && m[0] == 'o' && m[1] >= '0' && m[1] <= '9'
}
