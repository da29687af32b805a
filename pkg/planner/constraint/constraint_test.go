package constraint

import (
	"testing"

	"github.com/paichan/paichan/pkg/model"
)

func testConfig() *model.ConstraintConfig {
	cfg := model.DefaultConstraintConfig()
	cfg.PersonnelIntensiveTerms = []string{"mini", "riegel"}
	cfg.Aliases = map[string]string{"kleinformat": "mini"}
	return cfg
}

func TestMatcherSubstring(t *testing.T) {
	m := NewMatcher(testConfig())

	cases := []struct {
		product string
		want    bool
	}{
		{"Mini Schoko", true},     // 大小写不敏感
		{"schoko-riegel 100", true},
		{"Kleinformat Spezial", true}, // 别名
		{"Vollmilch Tafel", false},
		{"", false},
	}

	for _, c := range cases {
		if got := m.IsPersonnelIntensive(c.product); got != c.want {
			t.Errorf("IsPersonnelIntensive(%q) = %v, want %v", c.product, got, c.want)
		}
	}
}

func TestMatcherMemoized(t *testing.T) {
	m := NewMatcher(testConfig())

	// 首次判定后结果进入缓存，重复查询返回一致结果
	first := m.IsPersonnelIntensive("Mini Schoko")
	if _, ok := m.memo["Mini Schoko"]; !ok {
		t.Error("Result should be memoized after first lookup")
	}
	second := m.IsPersonnelIntensive("Mini Schoko")
	if first != second {
		t.Error("Memoized result should be consistent")
	}
}

func TestBuildDayStatesSkipsIdle(t *testing.T) {
	entries := []*model.ScheduleEntry{
		{Date: "2026-03-02", Weekday: model.WeekdayMon, Line: "hohl2", Product: "alpha", AssignedHours: 10},
		{Date: "2026-03-02", Weekday: model.WeekdayMon, Line: "hohl3", Product: "beta", AssignedHours: 6, PersonnelIntensive: true},
		{Date: "2026-03-02", Weekday: model.WeekdayMon, Line: "hohl4", Product: model.ProductIdle, AssignedHours: 24},
	}

	states := BuildDayStates(entries)
	ds := states["2026-03-02"]
	if ds == nil {
		t.Fatal("Expected day state for 2026-03-02")
	}

	// Idle 占位不计入负载
	if ds.Total != 16 {
		t.Errorf("Expected total 16, got %f", ds.Total)
	}
	if ds.LineHours["hohl4"] != 0 {
		t.Errorf("Idle line should carry no productive hours, got %f", ds.LineHours["hohl4"])
	}
	if !ds.PersonnelLines["hohl3"] {
		t.Error("hohl3 should be flagged personnel-intensive")
	}
}

func TestDayStateIdleLines(t *testing.T) {
	ds := &DayState{
		LineHours: map[string]float64{"hohl2": 10, "hohl3": 0.5},
	}
	lines := []string{"hohl2", "hohl3", "hohl4"}

	// 工时 < 1h 视为空闲: hohl3 和完全未用的 hohl4
	if got := ds.IdleLines(lines); got != 2 {
		t.Errorf("Expected 2 idle lines, got %d", got)
	}
}

func TestDayStateCheck(t *testing.T) {
	cfg := testConfig()

	ok := &DayState{
		Date:           "2026-03-02",
		LineHours:      map[string]float64{"hohl2": 20, "hohl3": 10},
		PersonnelLines: map[string]bool{"hohl2": true},
	}
	c := ok.Check(cfg)
	if !c.AllOK {
		t.Errorf("Expected compliant day, got %+v", c)
	}

	// 单线超产能
	overCap := &DayState{
		Date:      "2026-03-03",
		LineHours: map[string]float64{"hohl2": 25},
	}
	c = overCap.Check(cfg)
	if c.CapacityOK || c.AllOK {
		t.Error("Expected capacity violation")
	}

	// 人力密集产线超限
	tooManyPersonnel := &DayState{
		Date:           "2026-03-04",
		LineHours:      map[string]float64{"hohl2": 10, "hohl3": 10},
		PersonnelLines: map[string]bool{"hohl2": true, "hohl3": true},
	}
	c = tooManyPersonnel.Check(cfg)
	if c.PersonnelOK {
		t.Error("Expected personnel violation")
	}

	// 所有产线投产，无空闲产线
	noIdle := &DayState{
		Date: "2026-03-05",
		LineHours: map[string]float64{
			"hohl2": 10, "hohl3": 10, "hohl4": 10, "massiv2": 10, "massiv3": 10,
		},
	}
	c = noIdle.Check(cfg)
	if c.IdleOK {
		t.Error("Expected idle-line violation")
	}
}
