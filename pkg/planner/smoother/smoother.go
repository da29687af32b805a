// Package smoother 提供贪心负载平滑优化
//
// 在固定约束集内把工时从峰值日搬到谷值日，降低日总量方差。
// 显式三态状态机：Scanning（找候选）-> Validating（校验候选）->
// Applying（提交转移）-> 回到 Scanning，直到迭代预算耗尽或无候选可用，
// 两种终止原因在结果中可区分
package smoother

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/logger"
	"github.com/paichan/paichan/pkg/model"
	"github.com/paichan/paichan/pkg/planner/constraint"
	"github.com/paichan/paichan/pkg/stats"
)

// State 状态机状态
type State string

const (
	StateScanning   State = "scanning"   // 扫描转移候选
	StateValidating State = "validating" // 校验候选约束
	StateApplying   State = "applying"   // 提交转移
	StateDone       State = "done"       // 终态
)

// DoneReason 终止原因
type DoneReason string

const (
	// ReasonNoCandidates 无可用候选（正常终态，非错误）
	ReasonNoCandidates DoneReason = "no_candidates"
	// ReasonBudgetExhausted 迭代预算耗尽
	ReasonBudgetExhausted DoneReason = "budget_exhausted"
)

// DefaultMaxIterations 默认迭代预算，同时是事实上的超时机制
const DefaultMaxIterations = 10

// hoursEpsilon 浮点工时比较容差
const hoursEpsilon = 1e-9

// Result 平滑结果
type Result struct {
	Entries         []*model.ScheduleEntry  `json:"entries"`
	Transfers       []*model.TransferRecord `json:"transfers"`
	Iterations      int                     `json:"iterations"`
	Reason          DoneReason              `json:"reason"`
	InitialVariance float64                 `json:"initial_variance"`
	FinalVariance   float64                 `json:"final_variance"`
	Duration        time.Duration           `json:"-"` // 调用方按需格式化，不以纳秒数序列化
}

// Smoother 负载平滑优化器
type Smoother struct {
	cfg    *model.ConstraintConfig
	logger *logger.PlannerLogger
}

// New 创建负载平滑优化器
func New(cfg *model.ConstraintConfig) *Smoother {
	return &Smoother{
		cfg:    cfg.Normalize(),
		logger: logger.NewPlannerLogger(),
	}
}

// candidate 一次待评估的转移
type candidate struct {
	peakDate      string
	valleyDate    string
	valleyWeekday model.Weekday
	donor         *model.ScheduleEntry
	amount        float64
	varianceDelta float64 // 若应用，日总量方差的下降量
}

// Smooth 对排产方案执行负载平滑
//
// 输入方案不被修改，返回深拷贝后的平滑方案与转移审计记录。
// 保证：总工时守恒；方差单调不升；不违反输入方案已满足的任何约束
func (s *Smoother) Smooth(schedule []*model.ScheduleEntry, maxIterations int) (*Result, error) {
	start := time.Now()
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	entries := model.CloneSchedule(schedule)
	result := &Result{
		Transfers:       make([]*model.TransferRecord, 0),
		InitialVariance: scheduleVariance(entries),
	}

	state := StateScanning
	for state != StateDone {
		if result.Iterations >= maxIterations {
			result.Reason = ReasonBudgetExhausted
			state = StateDone
			break
		}

		// Scanning：基于当前负载构建排序后的候选集
		candidates := s.scan(entries)
		if len(candidates) == 0 {
			result.Reason = ReasonNoCandidates
			state = StateDone
			break
		}

		// Validating：按收益顺序逐个校验，取第一个可行候选
		state = StateValidating
		var accepted *candidate
		for _, c := range candidates {
			if ok, reason := s.validate(entries, c); ok {
				accepted = c
				break
			} else {
				s.logger.CandidateRejected(c.peakDate, c.valleyDate, c.donor.Line, reason)
			}
		}
		if accepted == nil {
			// 所有候选都被约束拒绝，属正常终态而非错误
			result.Reason = ReasonNoCandidates
			state = StateDone
			break
		}

		// Applying：提交转移并记录审计
		state = StateApplying
		entries = s.apply(entries, accepted, result)
		state = StateScanning
	}

	result.Entries = entries
	result.FinalVariance = scheduleVariance(entries)
	result.Duration = time.Since(start)
	s.logger.SmoothingDone(string(result.Reason), len(result.Transfers),
		result.InitialVariance, result.FinalVariance)
	return result, nil
}

// dailyLoad 日负载视图：日期集合取自全部条目（含 Idle），
// 总量只累计生产性工时
func dailyLoad(entries []*model.ScheduleEntry) (dates []string, totals map[string]float64, weekdays map[string]model.Weekday) {
	totals = make(map[string]float64)
	weekdays = make(map[string]model.Weekday)
	for _, e := range entries {
		if _, ok := weekdays[e.Date]; !ok {
			weekdays[e.Date] = e.Weekday
			totals[e.Date] = 0
			dates = append(dates, e.Date)
		}
		if !e.IsIdle() {
			totals[e.Date] += e.AssignedHours
		}
	}
	sort.Strings(dates)
	return dates, totals, weekdays
}

// scheduleVariance 方案日总量方差
func scheduleVariance(entries []*model.ScheduleEntry) float64 {
	dates, totals, _ := dailyLoad(entries)
	values := make([]float64, len(dates))
	for i, d := range dates {
		values[i] = totals[d]
	}
	return stats.Variance(values)
}

// scan 构建候选转移集，按方差收益降序排序
func (s *Smoother) scan(entries []*model.ScheduleEntry) []*candidate {
	dates, totals, weekdays := dailyLoad(entries)
	if len(dates) < 2 {
		return nil
	}

	values := make([]float64, len(dates))
	for i, d := range dates {
		values[i] = totals[d]
	}
	mean, std := stats.MeanStd(values)

	// 峰谷判定：均值 ± α·标准差；低方差数据可能没有任何峰谷，
	// 此时零转移是正确结果
	peakThreshold := mean + s.cfg.PeakThreshold*std
	valleyThreshold := mean - s.cfg.PeakThreshold*std

	var peaks, valleys []string
	for _, d := range dates {
		if totals[d] > peakThreshold {
			peaks = append(peaks, d)
		} else if totals[d] < valleyThreshold {
			valleys = append(valleys, d)
		}
	}
	if len(peaks) == 0 || len(valleys) == 0 {
		return nil
	}

	// 峰值日的条目按日期索引，供选取转移来源
	donorsByDate := make(map[string][]*model.ScheduleEntry)
	for _, e := range entries {
		if e.IsIdle() {
			continue
		}
		donorsByDate[e.Date] = append(donorsByDate[e.Date], e)
	}

	// 优先搬非人力密集工时；仅当完全没有其他来源时才考虑人力密集条目
	candidates := s.buildCandidates(peaks, valleys, donorsByDate, totals, weekdays, mean, std, false)
	if len(candidates) == 0 {
		candidates = s.buildCandidates(peaks, valleys, donorsByDate, totals, weekdays, mean, std, true)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].varianceDelta != candidates[j].varianceDelta {
			return candidates[i].varianceDelta > candidates[j].varianceDelta
		}
		if candidates[i].amount != candidates[j].amount {
			return candidates[i].amount > candidates[j].amount
		}
		return candidates[i].peakDate < candidates[j].peakDate
	})
	return candidates
}

// buildCandidates 枚举（峰值日×谷值日×来源条目）组合
func (s *Smoother) buildCandidates(peaks, valleys []string, donorsByDate map[string][]*model.ScheduleEntry,
	totals map[string]float64, weekdays map[string]model.Weekday, mean, std float64, allowPersonnel bool) []*candidate {

	var candidates []*candidate
	for _, peak := range peaks {
		for _, valley := range valleys {
			// 同一自然工作日之间转移对单周平滑没有意义
			if weekdays[peak] == weekdays[valley] {
				continue
			}
			for _, donor := range donorsByDate[peak] {
				if donor.PersonnelIntensive && !allowPersonnel {
					continue
				}
				if donor.AssignedHours < s.cfg.MinTransferHours {
					continue
				}

				amount := s.transferAmount(donor, totals[peak], totals[valley], mean, std)
				if amount < s.cfg.MinTransferHours {
					continue
				}

				delta := varianceReduction(totals, peak, valley, amount)
				if delta <= 0 {
					continue
				}

				candidates = append(candidates, &candidate{
					peakDate:      peak,
					valleyDate:    valley,
					valleyWeekday: weekdays[valley],
					donor:         donor,
					amount:        amount,
					varianceDelta: delta,
				})
			}
		}
	}
	return candidates
}

// transferAmount 计算单次转移量
// 上限取三者最小：来源条目工时的固定比例、单次转移上限、
// 把两日都拉回均值一个标准差带内所需的量，避免一次转移矫枉过正
func (s *Smoother) transferAmount(donor *model.ScheduleEntry, peakTotal, valleyTotal, mean, std float64) float64 {
	byFraction := donor.AssignedHours * s.cfg.MaxTransferFraction

	peakExcess := peakTotal - (mean + std)
	valleyDeficit := (mean - std) - valleyTotal
	byDistance := math.Max(peakExcess, valleyDeficit)
	if byDistance <= 0 {
		// 两日已在带内（α < 1 时可能），退化为对半拉平
		byDistance = (peakTotal - valleyTotal) / 2
	}

	return math.Min(byFraction, math.Min(s.cfg.MaxTransferHours, byDistance))
}

// varianceReduction 假想应用转移后的方差下降量（精确算术，非启发式）
func varianceReduction(totals map[string]float64, peak, valley string, amount float64) float64 {
	before := make([]float64, 0, len(totals))
	after := make([]float64, 0, len(totals))
	for d, t := range totals {
		before = append(before, t)
		switch d {
		case peak:
			after = append(after, t-amount)
		case valley:
			after = append(after, t+amount)
		default:
			after = append(after, t)
		}
	}
	return stats.Variance(before) - stats.Variance(after)
}

// validate 校验候选转移在假想应用后不违反任何硬约束
func (s *Smoother) validate(entries []*model.ScheduleEntry, c *candidate) (bool, string) {
	states := constraint.BuildDayStates(entries)
	dest := states[c.valleyDate]

	destLineHours := 0.0
	idleLines := len(s.cfg.AvailableLines)
	personnelCount := 0
	destLinePersonnel := false
	if dest != nil {
		destLineHours = dest.LineHours[c.donor.Line]
		idleLines = dest.IdleLines(s.cfg.AvailableLines)
		personnelCount = dest.PersonnelCount()
		destLinePersonnel = dest.PersonnelLines[c.donor.Line]
	}

	// 目标产线日产能上限
	if destLineHours+c.amount > s.cfg.MaxHoursPerLineDay+hoursEpsilon {
		return false, "超出目标产线日产能上限"
	}

	// 目标日空闲产线数下限：唤醒一条空闲产线后仍需满足
	if destLineHours < constraint.IdleHoursCutoff &&
		destLineHours+c.amount >= constraint.IdleHoursCutoff &&
		idleLines-1 < s.cfg.MinIdleLinesPerDay {
		return false, "目标日空闲产线不足"
	}

	// 目标日人力密集产线数上限
	if c.donor.PersonnelIntensive && !destLinePersonnel &&
		personnelCount+1 > s.cfg.MaxPersonnelIntensiveLines {
		return false, "目标日人力密集产线超限"
	}

	// 截止日保护：转移只能发生在产品可行窗口内，绝不越过截止日
	if c.donor.Deadline != "" && c.valleyWeekday.Index() > c.donor.Deadline.Index() {
		return false, fmt.Sprintf("越过产品截止日 %s", c.donor.Deadline)
	}

	return true, ""
}

// apply 提交转移：扣减来源条目，累加或新建目标条目，维护 Idle 镜像
func (s *Smoother) apply(entries []*model.ScheduleEntry, c *candidate, result *Result) []*model.ScheduleEntry {
	c.donor.AssignedHours -= c.amount

	// 目标日同产品同产线条目存在则累加，否则新建
	var dest *model.ScheduleEntry
	for _, e := range entries {
		if e.Date == c.valleyDate && e.Line == c.donor.Line && e.Product == c.donor.Product && !e.IsIdle() {
			dest = e
			break
		}
	}
	if dest != nil {
		dest.AssignedHours += c.amount
	} else {
		entries = append(entries, &model.ScheduleEntry{
			ID:                 uuid.New(),
			Date:               c.valleyDate,
			Weekday:            c.valleyWeekday,
			Line:               c.donor.Line,
			Product:            c.donor.Product,
			AssignedHours:      c.amount,
			PersonnelIntensive: c.donor.PersonnelIntensive,
			Priority:           c.donor.Priority,
			Deadline:           c.donor.Deadline,
		})
	}

	// Idle 镜像随转移同步增减，保持（日期×产线）工时合计不超产能
	entries = adjustIdle(entries, c.valleyDate, c.valleyWeekday, c.donor.Line, -c.amount)
	entries = adjustIdle(entries, c.peakDate, c.donor.Weekday, c.donor.Line, c.amount)

	// 来源条目搬空后移除
	if c.donor.AssignedHours <= hoursEpsilon {
		entries = removeEntry(entries, c.donor.ID)
	}

	result.Iterations++
	result.Transfers = append(result.Transfers, &model.TransferRecord{
		Iteration:     result.Iterations,
		FromDate:      c.peakDate,
		ToDate:        c.valleyDate,
		Line:          c.donor.Line,
		Product:       c.donor.Product,
		Hours:         c.amount,
		VarianceDelta: c.varianceDelta,
	})
	s.logger.TransferApplied(result.Iterations, c.peakDate, c.valleyDate, c.donor.Line, c.amount)
	return entries
}

// adjustIdle 调整某（日期×产线）的 Idle 占位工时，归零则移除
func adjustIdle(entries []*model.ScheduleEntry, date string, weekday model.Weekday, line string, delta float64) []*model.ScheduleEntry {
	for _, e := range entries {
		if e.Date == date && e.Line == line && e.IsIdle() {
			e.AssignedHours += delta
			if e.AssignedHours <= hoursEpsilon {
				return removeEntry(entries, e.ID)
			}
			return entries
		}
	}
	if delta > 0 {
		entries = append(entries, &model.ScheduleEntry{
			ID:            uuid.New(),
			Date:          date,
			Weekday:       weekday,
			Line:          line,
			Product:       model.ProductIdle,
			AssignedHours: delta,
		})
	}
	return entries
}

// removeEntry 按ID移除条目
func removeEntry(entries []*model.ScheduleEntry, id uuid.UUID) []*model.ScheduleEntry {
	for i, e := range entries {
		if e.ID == id {
			return append(entries[:i], entries[i+1:]...)
		}
	}
	return entries
}
