package profile

import (
	"math"
	"testing"

	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/model"
)

func TestBuildEmptyInput(t *testing.T) {
	_, err := Build(nil)
	if err == nil {
		t.Fatal("Expected error for empty input")
	}
	if !errors.Is(err, errors.CodeInsufficientData) {
		t.Errorf("Expected INSUFFICIENT_DATA, got %s", errors.GetCode(err))
	}
}

func TestBuildSingleSample(t *testing.T) {
	records := []*model.HistoricalRecord{
		{Date: "2026-03-02", Weekday: model.WeekdayMon, Line: "hohl2", TotalHours: 12, PersonnelIntensive: true},
	}

	profiles, err := Build(records)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("Expected 1 profile, got %d", len(profiles))
	}

	p := profiles[0]
	if p.AvgHours != 12 || p.MinHours != 12 || p.MaxHours != 12 {
		t.Errorf("Single sample avg/min/max should all be 12, got %f/%f/%f", p.AvgHours, p.MinHours, p.MaxHours)
	}
	// 单样本标准差无定义，按0处理
	if p.StdHours != 0 {
		t.Errorf("Single sample std should be 0, got %f", p.StdHours)
	}
	if p.PersonnelIntensiveRate != 1 {
		t.Errorf("Expected rate 1, got %f", p.PersonnelIntensiveRate)
	}
	if p.SampleCount != 1 {
		t.Errorf("Expected sample count 1, got %d", p.SampleCount)
	}
}

func TestBuildStatistics(t *testing.T) {
	// 同一（周一×hohl2）分组的三个样本: 10, 14, 18
	records := []*model.HistoricalRecord{
		{Date: "2026-02-02", Weekday: model.WeekdayMon, Line: "hohl2", TotalHours: 10, PersonnelIntensive: false},
		{Date: "2026-02-09", Weekday: model.WeekdayMon, Line: "hohl2", TotalHours: 14, PersonnelIntensive: true},
		{Date: "2026-02-16", Weekday: model.WeekdayMon, Line: "hohl2", TotalHours: 18, PersonnelIntensive: true},
	}

	profiles, err := Build(records)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	p := profiles[0]
	if p.AvgHours != 14 {
		t.Errorf("Expected avg 14, got %f", p.AvgHours)
	}
	if p.MinHours != 10 || p.MaxHours != 18 {
		t.Errorf("Expected min 10 max 18, got %f/%f", p.MinHours, p.MaxHours)
	}
	// 样本标准差: sqrt(((10-14)²+(14-14)²+(18-14)²)/2) = 4
	if math.Abs(p.StdHours-4) > 1e-9 {
		t.Errorf("Expected std 4, got %f", p.StdHours)
	}
	if math.Abs(p.PersonnelIntensiveRate-2.0/3.0) > 1e-9 {
		t.Errorf("Expected rate 2/3, got %f", p.PersonnelIntensiveRate)
	}
}

func TestBuildIdempotent(t *testing.T) {
	records := []*model.HistoricalRecord{
		{Date: "2026-02-02", Weekday: model.WeekdayMon, Line: "massiv2", TotalHours: 8},
		{Date: "2026-02-03", Weekday: model.WeekdayTue, Line: "hohl2", TotalHours: 16},
		{Date: "2026-02-02", Weekday: model.WeekdayMon, Line: "hohl2", TotalHours: 12},
	}

	first, err := Build(records)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := Build(records)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Builds differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Weekday != second[i].Weekday || first[i].Line != second[i].Line ||
			first[i].AvgHours != second[i].AvgHours {
			t.Errorf("Build is not deterministic at index %d", i)
		}
	}

	// 输出顺序: 工作日序号优先，产线名次之
	if first[0].Line != "hohl2" || first[0].Weekday != model.WeekdayMon {
		t.Errorf("Expected Mon/hohl2 first, got %s/%s", first[0].Weekday, first[0].Line)
	}
	if first[1].Line != "massiv2" {
		t.Errorf("Expected Mon/massiv2 second, got %s/%s", first[1].Weekday, first[1].Line)
	}
}

func TestLookup(t *testing.T) {
	profiles := []*model.WeekdayLineProfile{
		{Weekday: model.WeekdayMon, Line: "hohl2", AvgHours: 12},
	}
	lookup := NewLookup(profiles)

	if p := lookup.Get(model.WeekdayMon, "hohl2"); p == nil || p.AvgHours != 12 {
		t.Error("Lookup should find existing profile")
	}
	if p := lookup.Get(model.WeekdayTue, "hohl2"); p != nil {
		t.Error("Lookup should return nil for missing combination")
	}
}
