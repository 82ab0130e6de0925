package llm

import (
	"errors"
	"net/http"
	"os"
	"strings"
)

type providerKind int

const (
	providerOpenAI providerKind = iota
	providerOpenRouter
)

func (k providerKind) String() string {
	if k == providerOpenRouter {
		return "openrouter"
	}
	return "openai"
}

const defaultOpenRouterTitle = "poker-arena"

type apiConfig struct {
	Kind         providerKind
	APIKey       string
	Model        string
	BaseURL      string
	HeaderName   string
	HeaderPrefix string
	Organization string
	ExtraHeaders map[string]string
}

type providerDefaults struct {
	baseURL  string
	modelEnv string
}

var providers = map[providerKind]providerDefaults{
	providerOpenAI: {
		baseURL:  "https://api.openai.com/v1",
		modelEnv: "OPENAI_MODEL",
	},
	providerOpenRouter: {
		baseURL:  "https://openrouter.ai/api/v1",
		modelEnv: "OPENROUTER_MODEL",
	},
}

// resolveAPIConfig works out provider, key, base URL and auth header for
// model from the environment. LLM_PROVIDER forces the provider; otherwise an
// "openrouter/" model prefix or an openrouter base URL selects OpenRouter.
func resolveAPIConfig(model string) (apiConfig, error) {
	kind, forced := forcedProvider()
	if !forced && preferOpenRouterEnv() {
		kind = providerOpenRouter
	}

	model = strings.TrimSpace(model)
	if model == "" {
		model = firstNonEmpty(os.Getenv(providers[kind].modelEnv), os.Getenv("OPENAI_MODEL"))
	}
	if model == "" {
		return apiConfig{}, errors.New("model missing: set OPENAI_MODEL/OPENROUTER_MODEL or pass a value")
	}

	base := firstNonEmpty(
		os.Getenv("OPENAI_API_BASE"),
		os.Getenv("OPENAI_BASE_URL"),
		os.Getenv("OPENROUTER_API_BASE"),
		os.Getenv("OPENROUTER_BASE_URL"),
	)
	if !forced && (isOpenRouterModel(model) || strings.Contains(strings.ToLower(base), "openrouter")) {
		kind = providerOpenRouter
	}
	d := providers[kind]

	cfg := apiConfig{
		Kind:         kind,
		Model:        model,
		BaseURL:      strings.TrimRight(firstNonEmpty(base, d.baseURL), "/"),
		Organization: strings.TrimSpace(os.Getenv("OPENAI_ORG")),
		ExtraHeaders: map[string]string{},
	}
	cfg.APIKey = envWithFallback(kind == providerOpenRouter, "OPENAI_API_KEY", "OPENROUTER_API_KEY")
	if cfg.APIKey == "" {
		return apiConfig{}, errors.New("API key missing: set OPENAI_API_KEY or OPENROUTER_API_KEY")
	}
	cfg.HeaderName, cfg.HeaderPrefix = authHeader()

	if kind == providerOpenRouter {
		if site := strings.TrimSpace(os.Getenv("OPENROUTER_SITE_URL")); site != "" {
			cfg.ExtraHeaders["HTTP-Referer"] = site
			cfg.ExtraHeaders["Referer"] = site
		}
		cfg.ExtraHeaders["X-Title"] = firstNonEmpty(os.Getenv("OPENROUTER_TITLE"), defaultOpenRouterTitle)
	}
	return cfg, nil
}

// forcedProvider reads LLM_PROVIDER. The bool reports whether it named a
// known provider.
func forcedProvider() (providerKind, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))) {
	case "openrouter":
		return providerOpenRouter, true
	case "openai":
		return providerOpenAI, true
	}
	return providerOpenAI, false
}

// authHeader defaults to "Authorization: Bearer <key>"; a custom header name
// gets no prefix unless one is configured.
func authHeader() (name, prefix string) {
	name = firstNonEmpty(os.Getenv("OPENAI_API_KEY_HEADER"), os.Getenv("OPENROUTER_API_KEY_HEADER"), "Authorization")
	prefix = os.Getenv("OPENAI_API_KEY_PREFIX")
	if prefix == "" {
		prefix = os.Getenv("OPENROUTER_API_KEY_PREFIX")
	}
	if name == "Authorization" && strings.TrimSpace(prefix) == "" {
		prefix = "Bearer "
	}
	return name, prefix
}

// apply sets auth and provider headers on req.
func (c apiConfig) apply(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	setHeaderPreserveCase(req.Header, c.HeaderName, c.HeaderPrefix+c.APIKey)
	if c.Organization != "" {
		req.Header.Set("OpenAI-Organization", c.Organization)
	}
	for k, v := range c.ExtraHeaders {
		setHeaderPreserveCase(req.Header, k, v)
	}
}

// setHeaderPreserveCase keeps the exact spelling of keys like HTTP-Referer,
// which some gateways match case-sensitively. Blank keys or values are
// skipped.
func setHeaderPreserveCase(hdr http.Header, key, value string) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return
	}
	if http.CanonicalHeaderKey(key) == key {
		hdr.Set(key, value)
		return
	}
	hdr[key] = []string{value}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func isOpenRouterModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "openrouter/")
}

func preferOpenRouterEnv() bool {
	if os.Getenv("OPENROUTER_API_KEY") != "" && os.Getenv("OPENAI_API_KEY") == "" {
		return true
	}
	if os.Getenv("OPENROUTER_MODEL") != "" && os.Getenv("OPENAI_MODEL") == "" {
		return true
	}
	if os.Getenv("OPENROUTER_API_BASE") != "" || os.Getenv("OPENROUTER_BASE_URL") != "" {
		return true
	}
	for _, k := range []string{"OPENAI_API_BASE", "OPENAI_BASE_URL"} {
		if strings.Contains(strings.ToLower(os.Getenv(k)), "openrouter") {
			return true
		}
	}
	return false
}

func envWithFallback(preferOpenRouter bool, openAIKey, openRouterKey string) string {
	keys := []string{openAIKey, openRouterKey}
	if preferOpenRouter {
		keys[0], keys[1] = keys[1], keys[0]
	}
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}
