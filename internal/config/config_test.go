package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.App.Name != "paichan" {
		t.Errorf("Expected app name paichan, got %s", cfg.App.Name)
	}
	if cfg.App.Port != 7031 {
		t.Errorf("Expected port 7031, got %d", cfg.App.Port)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected db port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Planner.MaxHoursPerLineDay != 24 {
		t.Errorf("Expected max hours 24, got %f", cfg.Planner.MaxHoursPerLineDay)
	}
	if len(cfg.Planner.AvailableLines) != 5 {
		t.Errorf("Expected 5 default lines, got %d", len(cfg.Planner.AvailableLines))
	}
	if cfg.Planner.MaxIterations != 10 {
		t.Errorf("Expected 10 iterations, got %d", cfg.Planner.MaxIterations)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Unexpected metrics defaults: %+v", cfg.Metrics)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("PLANNER_MAX_HOURS_PER_LINE_DAY", "20")
	t.Setenv("PLANNER_AVAILABLE_LINES", "hohl2, hohl3 ,massiv2")
	t.Setenv("PLANNER_PERSONNEL_TERMS", "mini,riegel")
	t.Setenv("DB_CONN_MAX_LIFETIME", "10m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.App.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.App.Port)
	}
	if !cfg.IsProduction() || cfg.IsDevelopment() {
		t.Error("Expected production environment")
	}
	if cfg.Planner.MaxHoursPerLineDay != 20 {
		t.Errorf("Expected max hours 20, got %f", cfg.Planner.MaxHoursPerLineDay)
	}
	// 列表解析去除空白
	if len(cfg.Planner.AvailableLines) != 3 || cfg.Planner.AvailableLines[1] != "hohl3" {
		t.Errorf("Unexpected lines: %v", cfg.Planner.AvailableLines)
	}
	if cfg.Database.ConnMaxLifetime != 10*time.Minute {
		t.Errorf("Expected 10m lifetime, got %v", cfg.Database.ConnMaxLifetime)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("APP_PORT", "not-a-number")
	t.Setenv("PLANNER_PEAK_THRESHOLD", "abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.App.Port != 7031 {
		t.Errorf("Invalid port should fall back to default, got %d", cfg.App.Port)
	}
	if cfg.Planner.PeakThreshold != 0.5 {
		t.Errorf("Invalid threshold should fall back to default, got %f", cfg.Planner.PeakThreshold)
	}
}

func TestConstraintsConversion(t *testing.T) {
	t.Setenv("PLANNER_MAX_HOURS_PER_LINE_DAY", "20")
	t.Setenv("PLANNER_PERSONNEL_TERMS", "mini")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	c := cfg.Constraints()
	if c.MaxHoursPerLineDay != 20 {
		t.Errorf("Expected max hours 20, got %f", c.MaxHoursPerLineDay)
	}
	if len(c.PersonnelIntensiveTerms) != 1 || c.PersonnelIntensiveTerms[0] != "mini" {
		t.Errorf("Unexpected terms: %v", c.PersonnelIntensiveTerms)
	}
	// 转换结果已归一化，调参字段齐全
	if c.MaxTransferFraction <= 0 || c.MaxTransferFraction > 1 {
		t.Errorf("Constraints should be normalized, fraction %f", c.MaxTransferFraction)
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &DatabaseConfig{
		Host: "db.local", Port: 5433, Name: "plans", User: "svc", Password: "secret", SSLMode: "require",
	}
	want := "host=db.local port=5433 user=svc password=secret dbname=plans sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
