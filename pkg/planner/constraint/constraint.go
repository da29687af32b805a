// Package constraint 提供排产约束的检查与每日负载快照
package constraint

import (
	"sort"
	"strings"

	"github.com/paichan/paichan/pkg/model"
)

// IdleHoursCutoff 产线视为空闲的工时上限（小于 1 小时按空闲计）
const IdleHoursCutoff = 1.0

// Matcher 人力密集产品分类器
// 按词表与别名做大小写不敏感的子串匹配，会话内按产品名缓存结果
type Matcher struct {
	terms []string
	memo  map[string]bool
}

// NewMatcher 创建分类器，别名展开为附加匹配词
func NewMatcher(cfg *model.ConstraintConfig) *Matcher {
	terms := make([]string, 0, len(cfg.PersonnelIntensiveTerms)+len(cfg.Aliases))
	for _, t := range cfg.PersonnelIntensiveTerms {
		if t != "" {
			terms = append(terms, strings.ToLower(t))
		}
	}
	for alias := range cfg.Aliases {
		if alias != "" {
			terms = append(terms, strings.ToLower(alias))
		}
	}
	return &Matcher{
		terms: terms,
		memo:  make(map[string]bool),
	}
}

// IsPersonnelIntensive 判断产品是否人力密集
func (m *Matcher) IsPersonnelIntensive(product string) bool {
	if v, ok := m.memo[product]; ok {
		return v
	}
	name := strings.ToLower(product)
	matched := false
	for _, t := range m.terms {
		if strings.Contains(name, t) {
			matched = true
			break
		}
	}
	m.memo[product] = matched
	return matched
}

// DayState 某日的负载快照（仅统计生产性条目，Idle 占位不计入负载）
type DayState struct {
	Date           string
	Weekday        model.Weekday
	LineHours      map[string]float64 // 产线 -> 当日生产工时
	PersonnelLines map[string]bool    // 当日运行人力密集任务的产线
	Total          float64            // 当日全产线生产工时合计
}

// BuildDayStates 从排产条目构建按日期索引的负载快照
func BuildDayStates(entries []*model.ScheduleEntry) map[string]*DayState {
	states := make(map[string]*DayState)
	for _, e := range entries {
		if e.IsIdle() {
			continue
		}
		ds, ok := states[e.Date]
		if !ok {
			ds = &DayState{
				Date:           e.Date,
				Weekday:        e.Weekday,
				LineHours:      make(map[string]float64),
				PersonnelLines: make(map[string]bool),
			}
			states[e.Date] = ds
		}
		ds.LineHours[e.Line] += e.AssignedHours
		ds.Total += e.AssignedHours
		if e.PersonnelIntensive && e.AssignedHours > 0 {
			ds.PersonnelLines[e.Line] = true
		}
	}
	return states
}

// SortedDates 返回快照覆盖的日期，升序
func SortedDates(states map[string]*DayState) []string {
	dates := make([]string, 0, len(states))
	for d := range states {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// IdleLines 统计可用产线中处于空闲的数量（工时 < 1h 视为空闲）
func (d *DayState) IdleLines(lines []string) int {
	idle := 0
	for _, line := range lines {
		if d.LineHours[line] < IdleHoursCutoff {
			idle++
		}
	}
	return idle
}

// PersonnelCount 统计当日人力密集产线数量
func (d *DayState) PersonnelCount() int {
	return len(d.PersonnelLines)
}

// MaxLineHours 返回当日单产线最大工时
func (d *DayState) MaxLineHours() float64 {
	var max float64
	for _, h := range d.LineHours {
		if h > max {
			max = h
		}
	}
	return max
}

// Compliance 某日的约束达标情况
type Compliance struct {
	Date        string `json:"date"`
	CapacityOK  bool   `json:"capacity_ok"`
	IdleOK      bool   `json:"idle_ok"`
	PersonnelOK bool   `json:"personnel_ok"`
	AllOK       bool   `json:"all_ok"`
}

// Check 检查某日快照是否满足全部硬约束
func (d *DayState) Check(cfg *model.ConstraintConfig) Compliance {
	c := Compliance{
		Date:        d.Date,
		CapacityOK:  d.MaxLineHours() <= cfg.MaxHoursPerLineDay+hoursEpsilon,
		IdleOK:      d.IdleLines(cfg.AvailableLines) >= cfg.MinIdleLinesPerDay,
		PersonnelOK: d.PersonnelCount() <= cfg.MaxPersonnelIntensiveLines,
	}
	c.AllOK = c.CapacityOK && c.IdleOK && c.PersonnelOK
	return c
}

// hoursEpsilon 浮点工时比较容差
const hoursEpsilon = 1e-6
