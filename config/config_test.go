package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"BACKEND_URL", "REQUEST_TIMEOUT", "UPLOAD_TIMEOUT", "STORE_BACKEND", "DEFAULT_QUESTIONS", "EVENT_BUS"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	if cfg.RequestTimeout != 15*time.Second || cfg.UploadTimeout != 60*time.Second {
		t.Fatalf("timeouts=%s,%s", cfg.RequestTimeout, cfg.UploadTimeout)
	}
	if len(cfg.DefaultQuestions) != 0 {
		t.Fatalf("questions=%v", cfg.DefaultQuestions)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://mazi.example.org/api/")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("UPLOAD_TIMEOUT", "nonsense")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DEFAULT_QUESTIONS", "Who are you? | What do you do, and why?||")

	cfg := LoadConfig()
	if cfg.BackendURL != "https://mazi.example.org/api" {
		t.Fatalf("backend=%q", cfg.BackendURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("request timeout=%s", cfg.RequestTimeout)
	}
	if cfg.UploadTimeout != 60*time.Second {
		t.Fatalf("upload timeout=%s", cfg.UploadTimeout)
	}
	if cfg.StoreBackend != BackendRedis || cfg.Redis.DB != 3 {
		t.Fatalf("backend=%q db=%d", cfg.StoreBackend, cfg.Redis.DB)
	}
	if len(cfg.DefaultQuestions) != 2 || cfg.DefaultQuestions[1] != "What do you do, and why?" {
		t.Fatalf("questions=%q", cfg.DefaultQuestions)
	}
}
