package model

import "github.com/google/uuid"

// 特殊产品标记
const (
	ProductIdle     = "Idle"     // 空闲占位，记录产线剩余产能
	ProductBaseline = "Baseline" // 无需求时按历史画像生成的基线负载
)

// Demand 生产需求（调用方按规划会话提交，核心不持久化）
type Demand struct {
	Product    string   `json:"product"`
	TotalHours float64  `json:"total_hours"` // 必须 > 0
	Priority   Priority `json:"priority"`
	Deadline   Weekday  `json:"deadline"` // 周内交付截止日
}

// ScheduleEntry 排产条目，一条对应一次（产品×产线×日期）投放决策
// 由初始排产器创建，优化器原地增减工时，优化结束后不再变更
type ScheduleEntry struct {
	ID                 uuid.UUID `json:"id"`
	Date               string    `json:"date"` // YYYY-MM-DD
	Weekday            Weekday   `json:"weekday"`
	Line               string    `json:"line"`
	Product            string    `json:"product"`
	AssignedHours      float64   `json:"assigned_hours"`
	PersonnelIntensive bool      `json:"personnel_intensive_flag"`
	Priority           Priority  `json:"priority,omitempty"`
	Deadline           Weekday   `json:"deadline,omitempty"` // Idle/Baseline 条目为空
}

// IsIdle 检查是否为空闲占位条目
func (e *ScheduleEntry) IsIdle() bool {
	return e.Product == ProductIdle
}

// Clone 深拷贝排产条目
func (e *ScheduleEntry) Clone() *ScheduleEntry {
	c := *e
	return &c
}

// CloneSchedule 深拷贝整个排产方案
func CloneSchedule(entries []*ScheduleEntry) []*ScheduleEntry {
	out := make([]*ScheduleEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

// TransferRecord 工时转移审计记录，每次被接受的转移追加一条
type TransferRecord struct {
	Iteration     int     `json:"iteration"`
	FromDate      string  `json:"from_date"`
	ToDate        string  `json:"to_date"`
	Line          string  `json:"line"`
	Product       string  `json:"product"`
	Hours         float64 `json:"hours"`
	VarianceDelta float64 `json:"variance_delta"` // 转移带来的日总量方差下降
}

// ConstraintConfig 约束配置（按会话提供，所有下游组件只读引用）
type ConstraintConfig struct {
	MaxHoursPerLineDay         float64           `json:"max_hours_per_line_per_day"`
	MinIdleLinesPerDay         int               `json:"min_idle_lines_per_day"`
	MaxPersonnelIntensiveLines int               `json:"max_personnel_intensive_lines_per_day"`
	PersonnelIntensiveTerms    []string          `json:"personnel_intensive_terms,omitempty"`
	Aliases                    map[string]string `json:"aliases,omitempty"` // 别名 -> 标准词
	AvailableLines             []string          `json:"available_lines"`

	// 平滑调参
	PeakThreshold       float64 `json:"peak_threshold"`        // 峰谷判定阈值 α（均值 ± α·标准差）
	MinTransferHours    float64 `json:"min_transfer_hours"`    // 最小转移量，低于此值视为无效搬动
	MaxTransferHours    float64 `json:"max_transfer_hours"`    // 单次转移上限
	MaxTransferFraction float64 `json:"max_transfer_fraction"` // 单次最多转移来源条目工时的比例
}

// DefaultConstraintConfig 返回默认约束配置
// 注意：24h 为理论产能，实际约 20h，调用方应按现场情况校准
func DefaultConstraintConfig() *ConstraintConfig {
	return &ConstraintConfig{
		MaxHoursPerLineDay:         24,
		MinIdleLinesPerDay:         1,
		MaxPersonnelIntensiveLines: 1,
		AvailableLines:             []string{"hohl2", "hohl3", "hohl4", "massiv2", "massiv3"},
		PeakThreshold:              0.5,
		MinTransferHours:           4,
		MaxTransferHours:           8,
		MaxTransferFraction:        0.4,
	}
}

// Normalize 补齐未设置的调参字段，返回自身便于链式使用
func (c *ConstraintConfig) Normalize() *ConstraintConfig {
	def := DefaultConstraintConfig()
	if c.MaxHoursPerLineDay <= 0 {
		c.MaxHoursPerLineDay = def.MaxHoursPerLineDay
	}
	if c.PeakThreshold <= 0 {
		c.PeakThreshold = def.PeakThreshold
	}
	if c.MinTransferHours <= 0 {
		c.MinTransferHours = def.MinTransferHours
	}
	if c.MaxTransferHours <= 0 {
		c.MaxTransferHours = def.MaxTransferHours
	}
	if c.MaxTransferFraction <= 0 || c.MaxTransferFraction > 1 {
		c.MaxTransferFraction = def.MaxTransferFraction
	}
	if len(c.AvailableLines) == 0 {
		c.AvailableLines = def.AvailableLines
	}
	return c
}
