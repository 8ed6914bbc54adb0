package config

import "testing"

func TestLoad_DefaultsWhenNoFileOrEnv(t *testing.T) {
	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("want default worker count 4, got %d", cfg.WorkerCount)
	}
	if cfg.Method != "targeted" {
		t.Errorf("want default method 'targeted', got %q", cfg.Method)
	}
}

func TestLoadEnv_OverridesDefaults(t *testing.T) {
	t.Setenv("FLFP_WORKER_COUNT", "16")
	t.Setenv("FLFP_METHOD", "general")
	t.Setenv("FLFP_UNIQUENESS_THRESHOLD", "0.8")

	cfg := Load()
	if cfg.WorkerCount != 16 {
		t.Errorf("want env-overridden worker count 16, got %d", cfg.WorkerCount)
	}
	if cfg.Method != "general" {
		t.Errorf("want env-overridden method 'general', got %q", cfg.Method)
	}
	if cfg.UniquenessThreshold != 0.8 {
		t.Errorf("want env-overridden uniqueness threshold 0.8, got %f", cfg.UniquenessThreshold)
	}
}

func TestLoadEnv_IgnoresInvalidNumericOverride(t *testing.T) {
	t.Setenv("FLFP_WORKER_COUNT", "not-a-number")

	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("want invalid env override to leave default worker count 4, got %d", cfg.WorkerCount)
	}
}
