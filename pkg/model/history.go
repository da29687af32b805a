package model

// HistoricalRecord 历史生产记录（由上游 ETL 产出的归一化日×产线数据）
// 核心只读取不修改
type HistoricalRecord struct {
	Date               string  `json:"date" db:"date"` // YYYY-MM-DD
	Weekday            Weekday `json:"weekday" db:"weekday"`
	Line               string  `json:"line" db:"line"`
	TotalHours         float64 `json:"total_hours" db:"total_hours"` // [0, 24]
	PersonnelIntensive bool    `json:"personnel_intensive_flag" db:"personnel_intensive_flag"`
}

// WeekdayLineProfile 按（工作日×产线）聚合的历史统计画像
// 构建后不可变，仅作为无需求时的兜底信号
type WeekdayLineProfile struct {
	Weekday                Weekday `json:"weekday"`
	Line                   string  `json:"line"`
	AvgHours               float64 `json:"avg_hours"`
	StdHours               float64 `json:"std_hours"`
	MinHours               float64 `json:"min_hours"`
	MaxHours               float64 `json:"max_hours"`
	PersonnelIntensiveRate float64 `json:"personnel_intensive_rate"` // [0, 1]
	SampleCount            int     `json:"sample_count"`
}
