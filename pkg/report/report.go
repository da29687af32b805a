// Package report 提供排产方案的统计与合规分析
package report

import (
	"sort"
	"time"

	"github.com/paichan/paichan/pkg/model"
	"github.com/paichan/paichan/pkg/planner/constraint"
	"github.com/paichan/paichan/pkg/stats"
)

// DaySummary 单日汇总
type DaySummary struct {
	Date           string                `json:"date"`
	Weekday        model.Weekday         `json:"weekday"`
	TotalHours     float64               `json:"total_hours"` // 当日生产工时合计（跨产线求和）
	IdleHours      float64               `json:"idle_hours"`
	ActiveLines    int                   `json:"active_lines"`
	IdleLines      int                   `json:"idle_lines"`
	PersonnelLines int                   `json:"personnel_lines"`
	Compliance     constraint.Compliance `json:"compliance"`
}

// BalanceMetrics 负载均衡指标
type BalanceMetrics struct {
	MeanDayHours float64 `json:"mean_day_hours"`
	StdDayHours  float64 `json:"std_day_hours"`
	Variance     float64 `json:"variance"`
	Gini         float64 `json:"gini"` // 日负载基尼系数（0=完全均衡）
	MaxDayHours  float64 `json:"max_day_hours"`
	MinDayHours  float64 `json:"min_day_hours"`
	HoursRange   float64 `json:"hours_range"`
}

// Report 排产分析报告
type Report struct {
	Days    []DaySummary   `json:"days"`
	Balance BalanceMetrics `json:"balance"`

	// 平滑前后对比，仅分析单方案时 Before/After 相同
	VarianceBefore       float64 `json:"variance_before"`
	VarianceAfter        float64 `json:"variance_after"`
	VarianceReductionPct float64 `json:"variance_reduction_pct"`
	PeakBefore           float64 `json:"peak_before"`
	PeakAfter            float64 `json:"peak_after"`

	Transfers        int     `json:"transfers"`
	TransferredHours float64 `json:"transferred_hours"`

	TotalProductiveHours float64 `json:"total_productive_hours"`
	TotalIdleHours       float64 `json:"total_idle_hours"`

	// 合规：全部硬约束达标的天数占比
	CompliantDays  int     `json:"compliant_days"`
	ComplianceRate float64 `json:"compliance_rate"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Analyzer 排产分析器
type Analyzer struct {
	cfg *model.ConstraintConfig
}

// NewAnalyzer 创建排产分析器
func NewAnalyzer(cfg *model.ConstraintConfig) *Analyzer {
	return &Analyzer{cfg: cfg.Normalize()}
}

// Analyze 分析单个排产方案
func (a *Analyzer) Analyze(entries []*model.ScheduleEntry) *Report {
	return a.Compare(entries, entries, nil)
}

// Compare 对比平滑前后两个方案，生成完整报告
// 日汇总、均衡指标与合规均基于平滑后的方案计算
func (a *Analyzer) Compare(before, after []*model.ScheduleEntry, transfers []*model.TransferRecord) *Report {
	r := &Report{GeneratedAt: time.Now()}

	r.Days = a.buildDaySummaries(after)

	totals := make([]float64, len(r.Days))
	for i, d := range r.Days {
		totals[i] = d.TotalHours
		r.TotalProductiveHours += d.TotalHours
		r.TotalIdleHours += d.IdleHours
		if d.Compliance.AllOK {
			r.CompliantDays++
		}
	}
	if len(r.Days) > 0 {
		r.ComplianceRate = float64(r.CompliantDays) / float64(len(r.Days)) * 100
	}

	r.Balance.MeanDayHours, r.Balance.StdDayHours = stats.MeanStd(totals)
	r.Balance.Variance = stats.Variance(totals)
	r.Balance.Gini = stats.Gini(totals)
	r.Balance.MaxDayHours, r.Balance.MinDayHours = stats.Range(totals)
	r.Balance.HoursRange = r.Balance.MaxDayHours - r.Balance.MinDayHours

	r.VarianceBefore = dailyVariance(before)
	r.VarianceAfter = dailyVariance(after)
	if r.VarianceBefore > 0 {
		r.VarianceReductionPct = (r.VarianceBefore - r.VarianceAfter) / r.VarianceBefore * 100
	}
	r.PeakBefore = peakDayHours(before)
	r.PeakAfter = peakDayHours(after)

	r.Transfers = len(transfers)
	for _, t := range transfers {
		r.TransferredHours += t.Hours
	}

	return r
}

// buildDaySummaries 按日期聚合方案为日汇总，日期升序
func (a *Analyzer) buildDaySummaries(entries []*model.ScheduleEntry) []DaySummary {
	states := constraint.BuildDayStates(entries)

	// Idle 工时与仅含 Idle 的日期也要出现在报告里
	idleByDate := make(map[string]float64)
	weekdayByDate := make(map[string]model.Weekday)
	for _, e := range entries {
		weekdayByDate[e.Date] = e.Weekday
		if e.IsIdle() {
			idleByDate[e.Date] += e.AssignedHours
		}
	}

	dates := make([]string, 0, len(weekdayByDate))
	for d := range weekdayByDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	summaries := make([]DaySummary, 0, len(dates))
	for _, date := range dates {
		s := DaySummary{
			Date:      date,
			Weekday:   weekdayByDate[date],
			IdleHours: idleByDate[date],
			IdleLines: len(a.cfg.AvailableLines),
		}
		if ds, ok := states[date]; ok {
			s.TotalHours = ds.Total
			s.IdleLines = ds.IdleLines(a.cfg.AvailableLines)
			s.ActiveLines = len(a.cfg.AvailableLines) - s.IdleLines
			s.PersonnelLines = ds.PersonnelCount()
			s.Compliance = ds.Check(a.cfg)
		} else {
			// 全天空闲也是合规的一天
			s.Compliance = (&constraint.DayState{
				Date:      date,
				Weekday:   weekdayByDate[date],
				LineHours: map[string]float64{},
			}).Check(a.cfg)
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// dailyVariance 方案日总量方差
func dailyVariance(entries []*model.ScheduleEntry) float64 {
	return stats.Variance(dayTotals(entries))
}

// peakDayHours 方案最大日总量
func peakDayHours(entries []*model.ScheduleEntry) float64 {
	max, _ := stats.Range(dayTotals(entries))
	return max
}

// dayTotals 日总量向量，含仅 Idle 的零负载日，日期升序
func dayTotals(entries []*model.ScheduleEntry) []float64 {
	totals := make(map[string]float64)
	for _, e := range entries {
		if _, ok := totals[e.Date]; !ok {
			totals[e.Date] = 0
		}
		if !e.IsIdle() {
			totals[e.Date] += e.AssignedHours
		}
	}
	dates := make([]string, 0, len(totals))
	for d := range totals {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	values := make([]float64, len(dates))
	for i, d := range dates {
		values[i] = totals[d]
	}
	return values
}
