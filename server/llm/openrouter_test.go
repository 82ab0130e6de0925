package llm

import "testing"

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_API_KEY", "OPENROUTER_API_KEY", "OPENAI_MODEL", "OPENROUTER_MODEL",
		"OPENAI_API_BASE", "OPENAI_BASE_URL", "OPENROUTER_API_BASE", "OPENROUTER_BASE_URL",
		"OPENAI_API_KEY_HEADER", "OPENROUTER_API_KEY_HEADER", "OPENAI_API_KEY_PREFIX", "OPENROUTER_API_KEY_PREFIX",
		"OPENAI_ORG", "OPENROUTER_SITE_URL", "OPENROUTER_TITLE", "LLM_PROVIDER",
		"OPENAI_TEMPERATURE", "OPENROUTER_TEMPERATURE", "OPENAI_TOP_P", "OPENAI_TOP_K",
		"OPENAI_REASONING_EFFORT", "OPENAI_MAX_OUTPUT_TOKENS",
	} {
		t.Setenv(k, "")
	}
}

func TestResolveAPIConfigOpenRouterDefaults(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("OPENAI_API_BASE", "https://openrouter.ai/api/v1")
	t.Setenv("OPENAI_API_KEY", "test-key")
	cfg, err := resolveAPIConfig("meta-llama/llama-3.1-70b-instruct")
	if err != nil {
		t.Fatalf("resolveAPIConfig returned error: %v", err)
	}
	if cfg.Kind != providerOpenRouter {
		t.Fatalf("expected providerOpenRouter, got %v", cfg.Kind)
	}
	if _, ok := cfg.ExtraHeaders["HTTP-Referer"]; ok {
		t.Fatalf("HTTP-Referer should only be sent when OPENROUTER_SITE_URL is set")
	}
	if got := cfg.ExtraHeaders["X-Title"]; got != defaultOpenRouterTitle {
		t.Fatalf("unexpected X-Title: %q", got)
	}
	if cfg.HeaderName != "Authorization" || cfg.HeaderPrefix != "Bearer " {
		t.Fatalf("unexpected auth header %q %q", cfg.HeaderName, cfg.HeaderPrefix)
	}
}

func TestResolveAPIConfigOpenRouterOverrides(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("OPENAI_API_BASE", "https://openrouter.ai/api/v1")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENROUTER_SITE_URL", "https://example.com/app")
	t.Setenv("OPENROUTER_TITLE", "Custom Title")
	cfg, err := resolveAPIConfig("meta-llama/llama-3.1-70b-instruct")
	if err != nil {
		t.Fatalf("resolveAPIConfig returned error: %v", err)
	}
	if got := cfg.ExtraHeaders["HTTP-Referer"]; got != "https://example.com/app" {
		t.Fatalf("unexpected HTTP-Referer: %q", got)
	}
	if got := cfg.ExtraHeaders["Referer"]; got != "https://example.com/app" {
		t.Fatalf("unexpected Referer: %q", got)
	}
	if got := cfg.ExtraHeaders["X-Title"]; got != "Custom Title" {
		t.Fatalf("unexpected X-Title: %q", got)
	}
}

func TestResolveAPIConfigOpenAI(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	cfg, err := resolveAPIConfig("")
	if err != nil {
		t.Fatalf("resolveAPIConfig returned error: %v", err)
	}
	if cfg.Kind != providerOpenAI || cfg.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.BaseURL != "https://api.openai.com/v1" {
		t.Fatalf("unexpected base %q", cfg.BaseURL)
	}
	if len(cfg.ExtraHeaders) != 0 {
		t.Fatalf("openai should not get openrouter headers: %+v", cfg.ExtraHeaders)
	}
}

func TestResolveAPIConfigProviderOverride(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_PROVIDER", "openrouter")
	cfg, err := resolveAPIConfig("gpt-4o")
	if err != nil {
		t.Fatalf("resolveAPIConfig returned error: %v", err)
	}
	if cfg.Kind != providerOpenRouter || cfg.BaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("override ignored: %+v", cfg)
	}
}

func TestResolveAPIConfigMissing(t *testing.T) {
	clearLLMEnv(t)
	if _, err := resolveAPIConfig(""); err == nil {
		t.Fatalf("expected missing model error")
	}
	if _, err := resolveAPIConfig("gpt-4o"); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestResolveAPIConfigModelPrefix(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENROUTER_API_KEY", "or-test")
	cfg, err := resolveAPIConfig("openrouter/auto")
	if err != nil {
		t.Fatalf("resolveAPIConfig returned error: %v", err)
	}
	if cfg.Kind != providerOpenRouter || cfg.BaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("prefix should select openrouter: %+v", cfg)
	}
	if cfg.APIKey != "or-test" {
		t.Fatalf("openrouter key should win, got %q", cfg.APIKey)
	}
}

func TestResolveAPIConfigForcedOpenAIKeepsCustomBase(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_API_BASE", "https://openrouter.ai/api/v1/")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY_HEADER", "api-key")
	cfg, err := resolveAPIConfig("openrouter/auto")
	if err != nil {
		t.Fatalf("resolveAPIConfig returned error: %v", err)
	}
	if cfg.Kind != providerOpenAI {
		t.Fatalf("LLM_PROVIDER should win, got %v", cfg.Kind)
	}
	if cfg.BaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("unexpected base %q", cfg.BaseURL)
	}
	if cfg.HeaderName != "api-key" || cfg.HeaderPrefix != "" {
		t.Fatalf("unexpected auth header %q %q", cfg.HeaderName, cfg.HeaderPrefix)
	}
}
