package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"RAG_TOP_K", "RAG_KEYWORD_LIMIT", "VECTOR_BACKEND", "HISTORY_BACKEND",
		"NATS_URL", "API_RATE_LIMIT_RPS", "CORS_ALLOWED_ORIGINS", "UPSTREAM_RETRY_MAX_ATTEMPTS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.RAGTopK != 2 {
		t.Fatalf("expected default top k 2, got %d", cfg.RAGTopK)
	}
	if cfg.RAGKeywordLimit != 10 {
		t.Fatalf("expected default keyword limit 10, got %d", cfg.RAGKeywordLimit)
	}
	if cfg.VectorBackend != "memory" || cfg.HistoryBackend != "memory" {
		t.Fatalf("expected memory backends, got %q/%q", cfg.VectorBackend, cfg.HistoryBackend)
	}
	if cfg.NATSURL != "" {
		t.Fatalf("expected events disabled by default, got %q", cfg.NATSURL)
	}
	if cfg.APIRateLimitRPS != 0 {
		t.Fatalf("expected rate limit disabled, got %v", cfg.APIRateLimitRPS)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.UpstreamRetryMaxAttempts != 1 {
		t.Fatalf("expected single upstream attempt, got %d", cfg.UpstreamRetryMaxAttempts)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("RAG_TOP_K", "4")
	t.Setenv("VECTOR_BACKEND", "Qdrant")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("UPSTREAM_BREAKER_ENABLED", "false")

	cfg := Load()
	if cfg.RAGTopK != 4 {
		t.Fatalf("expected top k 4, got %d", cfg.RAGTopK)
	}
	if cfg.VectorBackend != "qdrant" {
		t.Fatalf("expected lowercased backend, got %q", cfg.VectorBackend)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.UpstreamBreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("RAG_TOP_K", "two")
	t.Setenv("API_RATE_LIMIT_RPS", "fast")

	cfg := Load()
	if cfg.RAGTopK != 2 || cfg.APIRateLimitRPS != 0 {
		t.Fatalf("expected fallbacks, got top k %d rps %v", cfg.RAGTopK, cfg.APIRateLimitRPS)
	}
}
