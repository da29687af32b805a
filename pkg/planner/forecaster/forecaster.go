// Package forecaster 提供初始排产方案构建
//
// 可行性优先：在优先级、截止日、产能与人力密集约束下把需求工时
// 落到具体（日期×产线），不做负载均衡，均衡交给平滑优化器
package forecaster

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/logger"
	"github.com/paichan/paichan/pkg/model"
	"github.com/paichan/paichan/pkg/planner/constraint"
	"github.com/paichan/paichan/pkg/planner/validator"
	"github.com/paichan/paichan/pkg/profile"
)

// idleFillCutoff 剩余产能低于该值时不生成 Idle 占位条目
const idleFillCutoff = 0.1

// Statistics 排产统计
type Statistics struct {
	TotalDemands int     `json:"total_demands"`
	PlacedHours  float64 `json:"placed_hours"`
	IdleHours    float64 `json:"idle_hours"`
	Days         int     `json:"days"`
	Lines        int     `json:"lines"`
	Fallback     bool    `json:"fallback"` // 是否走了历史画像兜底
}

// Result 排产结果
type Result struct {
	Entries    []*model.ScheduleEntry `json:"entries"`
	Statistics *Statistics            `json:"statistics"`
	Duration   time.Duration          `json:"-"` // 调用方按需格式化，不以纳秒数序列化
}

// Forecaster 初始排产器
type Forecaster struct {
	cfg    *model.ConstraintConfig
	logger *logger.PlannerLogger
}

// New 创建初始排产器
func New(cfg *model.ConstraintConfig) *Forecaster {
	return &Forecaster{
		cfg:    cfg.Normalize(),
		logger: logger.NewPlannerLogger(),
	}
}

// BuildSchedule 构建初始排产方案
//
// 有需求时：先做产能校验，再按确定性顺序放置需求，最后用 Idle 条目
// 补齐剩余产能。任一需求无法在截止日前排完则整体失败，不返回半成品。
// 无需求时：按历史画像均值生成基线负载
func (f *Forecaster) BuildSchedule(demands []*model.Demand, profiles []*model.WeekdayLineProfile, horizon model.DateRange) (*Result, error) {
	start := time.Now()

	days, err := horizon.WorkDays()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidHorizon, "规划周期日期解析失败")
	}
	if len(days) == 0 {
		return nil, errors.New(errors.CodeInvalidHorizon, "规划周期内没有工作日")
	}

	f.logger.StartPlan(horizon.StartDate, len(demands), len(f.cfg.AvailableLines))

	if len(demands) == 0 {
		result := f.buildFromProfiles(profiles, days)
		result.Duration = time.Since(start)
		f.logger.PlanComplete(horizon.StartDate, len(result.Entries), result.Duration)
		return result, nil
	}

	// 产能门禁必须先于任何可变状态的构建
	if err := validator.ValidateDemands(demands, f.cfg); err != nil {
		return nil, err
	}

	// 截止日语义绑定单个规划周，多余的天不参与需求排产
	if len(days) > len(model.Weekdays) {
		days = days[:len(model.Weekdays)]
	}

	result, err := f.placeDemands(demands, days)
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	f.logger.PlanComplete(horizon.StartDate, len(result.Entries), result.Duration)
	return result, nil
}

// sortDemands 需求放置顺序：优先级 -> 截止日升序 -> 工时降序
// 大需求先放以减少后续碎片化；该顺序决定输出的确定性，不可更改
func sortDemands(demands []*model.Demand) []*model.Demand {
	sorted := make([]*model.Demand, len(demands))
	copy(sorted, demands)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority.Rank() != sorted[j].Priority.Rank() {
			return sorted[i].Priority.Rank() < sorted[j].Priority.Rank()
		}
		if sorted[i].Deadline.Index() != sorted[j].Deadline.Index() {
			return sorted[i].Deadline.Index() < sorted[j].Deadline.Index()
		}
		return sorted[i].TotalHours > sorted[j].TotalHours
	})
	return sorted
}

// capacityState 排产会话的可变产能状态
// 每次规划新建，随会话结束丢弃，绝不跨会话共享
type capacityState struct {
	remaining map[string]map[string]float64 // 日期 -> 产线 -> 剩余产能
	touched   map[string]map[string]bool    // 日期 -> 已投产的产线
	personnel map[string]map[string]bool    // 日期 -> 运行人力密集任务的产线
}

func newCapacityState(days []model.PlanDay, lines []string, maxHours float64) *capacityState {
	s := &capacityState{
		remaining: make(map[string]map[string]float64, len(days)),
		touched:   make(map[string]map[string]bool, len(days)),
		personnel: make(map[string]map[string]bool, len(days)),
	}
	for _, day := range days {
		s.remaining[day.Date] = make(map[string]float64, len(lines))
		s.touched[day.Date] = make(map[string]bool)
		s.personnel[day.Date] = make(map[string]bool)
		for _, line := range lines {
			s.remaining[day.Date][line] = maxHours
		}
	}
	return s
}

// untouchedCount 当日尚未投产的产线数
func (s *capacityState) untouchedCount(date string) int {
	return len(s.remaining[date]) - len(s.touched[date])
}

// placeDemands 按扫描顺序放置全部需求并补齐 Idle
func (f *Forecaster) placeDemands(demands []*model.Demand, days []model.PlanDay) (*Result, error) {
	state := newCapacityState(days, f.cfg.AvailableLines, f.cfg.MaxHoursPerLineDay)
	matcher := constraint.NewMatcher(f.cfg)
	sorted := sortDemands(demands)

	var entries []*model.ScheduleEntry
	var placedTotal float64

	for _, demand := range sorted {
		remaining := demand.TotalHours
		isPersonnel := matcher.IsPersonnelIntensive(demand.Product)

		// 固定扫描顺序：日期从早到晚，产线按声明顺序
		for _, day := range days {
			if remaining <= 0 {
				break
			}
			if day.Weekday.Index() > demand.Deadline.Index() {
				break
			}

			for _, line := range f.cfg.AvailableLines {
				if remaining <= 0 {
					break
				}
				avail := state.remaining[day.Date][line]
				if avail <= 0 {
					continue
				}

				// 空闲产线约束：不得把当日最后的预留空闲产线投入生产
				if !state.touched[day.Date][line] &&
					state.untouchedCount(day.Date) <= f.cfg.MinIdleLinesPerDay {
					continue
				}

				// 人力密集约束：当日运行人力密集任务的产线数不得超限
				if isPersonnel && !state.personnel[day.Date][line] &&
					len(state.personnel[day.Date]) >= f.cfg.MaxPersonnelIntensiveLines {
					continue
				}

				place := remaining
				if place > avail {
					place = avail
				}

				entries = append(entries, &model.ScheduleEntry{
					ID:                 uuid.New(),
					Date:               day.Date,
					Weekday:            day.Weekday,
					Line:               line,
					Product:            demand.Product,
					AssignedHours:      place,
					PersonnelIntensive: isPersonnel,
					Priority:           demand.Priority,
					Deadline:           demand.Deadline,
				})

				state.remaining[day.Date][line] -= place
				state.touched[day.Date][line] = true
				if isPersonnel {
					state.personnel[day.Date][line] = true
				}
				remaining -= place
				placedTotal += place
			}
		}

		// 产能校验通过仍可能因人力密集/空闲产线挤占而排不下
		// 整体失败，调用方决定是否放宽约束后重试；不返回半成品
		if remaining > 1e-6 {
			return nil, errors.SchedulingInfeasible(demand.Product, remaining, demand.Deadline)
		}
	}

	idleHours := f.fillIdle(&entries, days, state)

	return &Result{
		Entries: entries,
		Statistics: &Statistics{
			TotalDemands: len(demands),
			PlacedHours:  placedTotal,
			IdleHours:    idleHours,
			Days:         len(days),
			Lines:        len(f.cfg.AvailableLines),
		},
	}, nil
}

// fillIdle 把剩余产能显式记为 Idle 条目，保证每个（日期×产线）可追溯
func (f *Forecaster) fillIdle(entries *[]*model.ScheduleEntry, days []model.PlanDay, state *capacityState) float64 {
	var idleHours float64
	for _, day := range days {
		for _, line := range f.cfg.AvailableLines {
			residual := state.remaining[day.Date][line]
			if residual <= idleFillCutoff {
				continue
			}
			*entries = append(*entries, &model.ScheduleEntry{
				ID:            uuid.New(),
				Date:          day.Date,
				Weekday:       day.Weekday,
				Line:          line,
				Product:       model.ProductIdle,
				AssignedHours: residual,
			})
			idleHours += residual
		}
	}
	return idleHours
}

// buildFromProfiles 无需求兜底：按画像均值生成基线负载
// 人力密集标记用确定性阈值（占比 ≥ 0.5），不做随机采样
func (f *Forecaster) buildFromProfiles(profiles []*model.WeekdayLineProfile, days []model.PlanDay) *Result {
	lookup := profile.NewLookup(profiles)

	var entries []*model.ScheduleEntry
	var placedTotal, idleHours float64

	for _, day := range days {
		for _, line := range f.cfg.AvailableLines {
			p := lookup.Get(day.Weekday, line)
			hours := 0.0
			if p != nil {
				hours = p.AvgHours
			}
			if hours > f.cfg.MaxHoursPerLineDay {
				hours = f.cfg.MaxHoursPerLineDay
			}
			if hours > 0 {
				entries = append(entries, &model.ScheduleEntry{
					ID:                 uuid.New(),
					Date:               day.Date,
					Weekday:            day.Weekday,
					Line:               line,
					Product:            model.ProductBaseline,
					AssignedHours:      hours,
					PersonnelIntensive: p.PersonnelIntensiveRate >= 0.5,
				})
				placedTotal += hours
			}
			if residual := f.cfg.MaxHoursPerLineDay - hours; residual > idleFillCutoff {
				entries = append(entries, &model.ScheduleEntry{
					ID:            uuid.New(),
					Date:          day.Date,
					Weekday:       day.Weekday,
					Line:          line,
					Product:       model.ProductIdle,
					AssignedHours: residual,
				})
				idleHours += residual
			}
		}
	}

	return &Result{
		Entries: entries,
		Statistics: &Statistics{
			PlacedHours: placedTotal,
			IdleHours:   idleHours,
			Days:        len(days),
			Lines:       len(f.cfg.AvailableLines),
			Fallback:    true,
		},
	}
}
