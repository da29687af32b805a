// Package model 定义排产规划引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// Weekday 工作日（周一至周五）
type Weekday string

const (
	WeekdayMon Weekday = "Mon" // 周一
	WeekdayTue Weekday = "Tue" // 周二
	WeekdayWed Weekday = "Wed" // 周三
	WeekdayThu Weekday = "Thu" // 周四
	WeekdayFri Weekday = "Fri" // 周五
)

// Weekdays 按周内顺序排列的全部工作日
var Weekdays = []Weekday{WeekdayMon, WeekdayTue, WeekdayWed, WeekdayThu, WeekdayFri}

// Index 返回工作日在一周内的序号（周一=0，周五=4），未知返回 -1
func (w Weekday) Index() int {
	switch w {
	case WeekdayMon:
		return 0
	case WeekdayTue:
		return 1
	case WeekdayWed:
		return 2
	case WeekdayThu:
		return 3
	case WeekdayFri:
		return 4
	}
	return -1
}

// IsValid 检查是否为有效工作日
func (w Weekday) IsValid() bool {
	return w.Index() >= 0
}

// Before 检查当前工作日是否早于或等于另一工作日
func (w Weekday) Before(other Weekday) bool {
	return w.Index() <= other.Index()
}

// WeekdayOf 返回日期对应的工作日，周末返回空串
func WeekdayOf(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Monday:
		return WeekdayMon
	case time.Tuesday:
		return WeekdayTue
	case time.Wednesday:
		return WeekdayWed
	case time.Thursday:
		return WeekdayThu
	case time.Friday:
		return WeekdayFri
	}
	return ""
}

// Priority 生产需求优先级
type Priority string

const (
	PriorityHigh   Priority = "High"   // 高优先级
	PriorityMedium Priority = "Medium" // 中优先级
	PriorityLow    Priority = "Low"    // 低优先级
)

// Rank 返回优先级序号，数字越小优先级越高，未知返回 3
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// IsValid 检查是否为有效优先级
func (p Priority) IsValid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// DateFormat 日期序列化格式
const DateFormat = "2006-01-02"

// DateRange 规划周期（闭区间）
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// PlanDay 规划周期内的一个工作日
type PlanDay struct {
	Date    string  `json:"date"`
	Weekday Weekday `json:"weekday"`
}

// WorkDays 展开规划周期内的工作日列表（跳过周末），按日期升序
func (dr DateRange) WorkDays() ([]PlanDay, error) {
	start, err := time.Parse(DateFormat, dr.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(DateFormat, dr.EndDate)
	if err != nil {
		return nil, err
	}

	var days []PlanDay
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		wd := WeekdayOf(d)
		if wd == "" {
			continue
		}
		days = append(days, PlanDay{Date: d.Format(DateFormat), Weekday: wd})
	}
	return days, nil
}

// PlanningWeek 返回从 start 起的下一个完整规划周（周一至周五）
// start 不是周一时顺延至下一个周一
func PlanningWeek(start time.Time) DateRange {
	for WeekdayOf(start) != WeekdayMon {
		start = start.AddDate(0, 0, 1)
	}
	return DateRange{
		StartDate: start.Format(DateFormat),
		EndDate:   start.AddDate(0, 0, 4).Format(DateFormat),
	}
}

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
