package model

import (
	"testing"
	"time"
)

func TestWeekdayIndex(t *testing.T) {
	cases := []struct {
		weekday Weekday
		index   int
	}{
		{WeekdayMon, 0},
		{WeekdayTue, 1},
		{WeekdayWed, 2},
		{WeekdayThu, 3},
		{WeekdayFri, 4},
		{Weekday("Sat"), -1},
		{Weekday(""), -1},
	}

	for _, c := range cases {
		if got := c.weekday.Index(); got != c.index {
			t.Errorf("Index(%q) = %d, want %d", c.weekday, got, c.index)
		}
	}
}

func TestWeekdayBefore(t *testing.T) {
	if !WeekdayMon.Before(WeekdayFri) {
		t.Error("Mon should be before Fri")
	}
	if !WeekdayWed.Before(WeekdayWed) {
		t.Error("Before is inclusive, Wed should be before Wed")
	}
	if WeekdayFri.Before(WeekdayMon) {
		t.Error("Fri should not be before Mon")
	}
}

func TestPriorityRank(t *testing.T) {
	if PriorityHigh.Rank() >= PriorityMedium.Rank() {
		t.Error("High should rank before Medium")
	}
	if PriorityMedium.Rank() >= PriorityLow.Rank() {
		t.Error("Medium should rank before Low")
	}
	if Priority("Unknown").Rank() <= PriorityLow.Rank() {
		t.Error("Unknown priority should rank last")
	}
}

func TestWorkDaysSkipsWeekends(t *testing.T) {
	// 2026-03-02 是周一，覆盖到下周一共8天，应只有6个工作日
	dr := DateRange{StartDate: "2026-03-02", EndDate: "2026-03-09"}
	days, err := dr.WorkDays()
	if err != nil {
		t.Fatalf("WorkDays failed: %v", err)
	}
	if len(days) != 6 {
		t.Fatalf("Expected 6 work days, got %d", len(days))
	}
	if days[0].Weekday != WeekdayMon || days[0].Date != "2026-03-02" {
		t.Errorf("First day should be Mon 2026-03-02, got %s %s", days[0].Weekday, days[0].Date)
	}
	if days[4].Weekday != WeekdayFri {
		t.Errorf("Fifth day should be Fri, got %s", days[4].Weekday)
	}
	if days[5].Date != "2026-03-09" {
		t.Errorf("Weekend should be skipped, sixth day should be 2026-03-09, got %s", days[5].Date)
	}
}

func TestWorkDaysInvalidDate(t *testing.T) {
	dr := DateRange{StartDate: "02.03.2026", EndDate: "2026-03-06"}
	if _, err := dr.WorkDays(); err == nil {
		t.Error("Expected error for invalid date format")
	}
}

func TestPlanningWeek(t *testing.T) {
	// 2026-03-04 是周三，规划周应顺延到下周一
	start, _ := time.Parse(DateFormat, "2026-03-04")
	week := PlanningWeek(start)
	if week.StartDate != "2026-03-09" {
		t.Errorf("Expected start 2026-03-09, got %s", week.StartDate)
	}
	if week.EndDate != "2026-03-13" {
		t.Errorf("Expected end 2026-03-13, got %s", week.EndDate)
	}

	// 周一不顺延
	monday, _ := time.Parse(DateFormat, "2026-03-02")
	week = PlanningWeek(monday)
	if week.StartDate != "2026-03-02" || week.EndDate != "2026-03-06" {
		t.Errorf("Monday should not advance, got %s..%s", week.StartDate, week.EndDate)
	}
}
