// Package validator 提供排产前的需求可行性校验
package validator

import (
	"sort"

	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/model"
)

// ValidateDemands 校验需求集是否超出原始产能
//
// 对需求列表中出现的每个截止日 D，累计所有截止日不晚于 D 的需求工时，
// 与周一至 D 的理论产能（可用产线数 × 单线日产能 × 天数）比较。
// 任一窗口超限即返回 CapacityExceeded，并注明截止日与缺口。
// 该检查必须在构建任何可变排产状态之前执行，快速失败
func ValidateDemands(demands []*model.Demand, cfg *model.ConstraintConfig) error {
	if err := validateFields(demands); err != nil {
		return err
	}
	if len(demands) == 0 {
		return nil
	}

	// 按截止日聚合需求工时
	hoursByDeadline := make(map[model.Weekday]float64)
	for _, d := range demands {
		hoursByDeadline[d.Deadline] += d.TotalHours
	}

	deadlines := make([]model.Weekday, 0, len(hoursByDeadline))
	for d := range hoursByDeadline {
		deadlines = append(deadlines, d)
	}
	sort.Slice(deadlines, func(i, j int) bool {
		return deadlines[i].Index() < deadlines[j].Index()
	})

	dailyCapacity := float64(len(cfg.AvailableLines)) * cfg.MaxHoursPerLineDay

	var cumulative float64
	for _, deadline := range deadlines {
		cumulative += hoursByDeadline[deadline]
		available := dailyCapacity * float64(deadline.Index()+1)
		if cumulative > available {
			return errors.CapacityExceeded(deadline, cumulative, available)
		}
	}

	return nil
}

// validateFields 校验单条需求字段
func validateFields(demands []*model.Demand) error {
	for i, d := range demands {
		if d.Product == "" {
			return errors.InvalidInput("product", "产品名不能为空").WithField("index", i)
		}
		if d.TotalHours <= 0 {
			return errors.InvalidInput("total_hours", "需求工时必须大于 0").
				WithField("product", d.Product)
		}
		if !d.Priority.IsValid() {
			return errors.InvalidInput("priority", "优先级必须为 High/Medium/Low").
				WithField("product", d.Product)
		}
		if !d.Deadline.IsValid() {
			return errors.InvalidInput("deadline", "截止日必须为 Mon..Fri").
				WithField("product", d.Product)
		}
	}
	return nil
}
