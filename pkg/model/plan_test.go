package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestScheduleEntryIsIdle(t *testing.T) {
	idle := &ScheduleEntry{Product: ProductIdle}
	if !idle.IsIdle() {
		t.Error("Idle entry should report IsIdle")
	}

	productive := &ScheduleEntry{Product: "alpha"}
	if productive.IsIdle() {
		t.Error("Productive entry should not report IsIdle")
	}
}

func TestCloneScheduleIsDeep(t *testing.T) {
	original := []*ScheduleEntry{
		{ID: uuid.New(), Date: "2026-03-02", Line: "hohl2", Product: "alpha", AssignedHours: 10},
	}

	cloned := CloneSchedule(original)
	cloned[0].AssignedHours = 99

	if original[0].AssignedHours != 10 {
		t.Errorf("Clone should not mutate original, got %f", original[0].AssignedHours)
	}
	if cloned[0].ID != original[0].ID {
		t.Error("Clone should preserve entry identity")
	}
}

func TestConstraintConfigNormalize(t *testing.T) {
	cfg := &ConstraintConfig{}
	cfg.Normalize()

	def := DefaultConstraintConfig()
	if cfg.MaxHoursPerLineDay != def.MaxHoursPerLineDay {
		t.Errorf("Expected default max hours %f, got %f", def.MaxHoursPerLineDay, cfg.MaxHoursPerLineDay)
	}
	if cfg.PeakThreshold != def.PeakThreshold {
		t.Errorf("Expected default peak threshold %f, got %f", def.PeakThreshold, cfg.PeakThreshold)
	}
	if len(cfg.AvailableLines) == 0 {
		t.Error("Normalize should fill default lines")
	}

	// 非法比例回落到默认
	cfg2 := &ConstraintConfig{MaxTransferFraction: 1.5}
	cfg2.Normalize()
	if cfg2.MaxTransferFraction != def.MaxTransferFraction {
		t.Errorf("Invalid fraction should fall back to default, got %f", cfg2.MaxTransferFraction)
	}

	// 已设置的字段不被覆盖
	cfg3 := &ConstraintConfig{MaxHoursPerLineDay: 20}
	cfg3.Normalize()
	if cfg3.MaxHoursPerLineDay != 20 {
		t.Errorf("Explicit value should be kept, got %f", cfg3.MaxHoursPerLineDay)
	}
}
