package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"EXAM_DURATION_SECONDS", "RESULTS_ENABLED", "ALLOWED_ORIGINS", "TYPING_SPEED_MS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.ExamDuration != 60*time.Second {
		t.Errorf("ExamDuration = %v, want 60s", cfg.ExamDuration)
	}
	if cfg.ResultsEnabled {
		t.Error("ResultsEnabled = true, want false by default")
	}
	if cfg.AllowedOrigins != nil {
		t.Errorf("AllowedOrigins = %v, want nil", cfg.AllowedOrigins)
	}
	if cfg.TypingSpeed != 20*time.Millisecond {
		t.Errorf("TypingSpeed = %v, want 20ms", cfg.TypingSpeed)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("EXAM_DURATION_SECONDS", "90")
	t.Setenv("RESULTS_ENABLED", "true")
	t.Setenv("REDUCED_MOTION", "1")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("SESSION_IDLE_MINUTES", "not-a-number")

	cfg := Load()
	if cfg.ExamDuration != 90*time.Second {
		t.Errorf("ExamDuration = %v, want 90s", cfg.ExamDuration)
	}
	if !cfg.ResultsEnabled || !cfg.ReducedMotion {
		t.Errorf("ResultsEnabled = %v, ReducedMotion = %v, want both true", cfg.ResultsEnabled, cfg.ReducedMotion)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.SessionIdle != 30*time.Minute {
		t.Errorf("SessionIdle = %v, want fallback 30m", cfg.SessionIdle)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG", "maybe")
	if got := getEnvBool("FLAG", true); !got {
		t.Error("getEnvBool with unparsable value should return fallback")
	}
}
