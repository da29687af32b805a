// Package profile 提供历史生产画像构建
package profile

import (
	"math"
	"sort"

	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/model"
)

// Build 按（工作日×产线）聚合历史记录，计算均值/标准差/极值/人力密集占比
// 历史中缺失的组合不产出画像条目，由调用方按零基线处理
// 仅在输入整体为空时返回 InsufficientData；稀疏但非空的输入有效
func Build(records []*model.HistoricalRecord) ([]*model.WeekdayLineProfile, error) {
	if len(records) == 0 {
		return nil, errors.InsufficientData("没有任何历史生产记录")
	}

	type key struct {
		weekday model.Weekday
		line    string
	}
	groups := make(map[key][]*model.HistoricalRecord)
	for _, r := range records {
		if !r.Weekday.IsValid() {
			continue
		}
		k := key{weekday: r.Weekday, line: r.Line}
		groups[k] = append(groups[k], r)
	}
	if len(groups) == 0 {
		return nil, errors.InsufficientData("历史记录均不在工作日范围内")
	}

	profiles := make([]*model.WeekdayLineProfile, 0, len(groups))
	for k, rs := range groups {
		profiles = append(profiles, buildOne(k.weekday, k.line, rs))
	}

	// 固定输出顺序，保证同一输入两次构建结果一致
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].Weekday != profiles[j].Weekday {
			return profiles[i].Weekday.Index() < profiles[j].Weekday.Index()
		}
		return profiles[i].Line < profiles[j].Line
	})

	return profiles, nil
}

// buildOne 计算单个（工作日×产线）分组的统计量
func buildOne(weekday model.Weekday, line string, rs []*model.HistoricalRecord) *model.WeekdayLineProfile {
	n := len(rs)
	p := &model.WeekdayLineProfile{
		Weekday:     weekday,
		Line:        line,
		MinHours:    math.MaxFloat64,
		SampleCount: n,
	}

	var sum float64
	personnelCount := 0
	for _, r := range rs {
		sum += r.TotalHours
		if r.TotalHours < p.MinHours {
			p.MinHours = r.TotalHours
		}
		if r.TotalHours > p.MaxHours {
			p.MaxHours = r.TotalHours
		}
		if r.PersonnelIntensive {
			personnelCount++
		}
	}
	p.AvgHours = sum / float64(n)
	p.PersonnelIntensiveRate = float64(personnelCount) / float64(n)

	// 样本标准差，单样本时无定义按 0 处理
	if n > 1 {
		var sq float64
		for _, r := range rs {
			d := r.TotalHours - p.AvgHours
			sq += d * d
		}
		p.StdHours = math.Sqrt(sq / float64(n-1))
	}

	return p
}

// Lookup 画像索引，便于排产器按（工作日×产线）查询
type Lookup map[model.Weekday]map[string]*model.WeekdayLineProfile

// NewLookup 构建画像索引
func NewLookup(profiles []*model.WeekdayLineProfile) Lookup {
	idx := make(Lookup)
	for _, p := range profiles {
		if idx[p.Weekday] == nil {
			idx[p.Weekday] = make(map[string]*model.WeekdayLineProfile)
		}
		idx[p.Weekday][p.Line] = p
	}
	return idx
}

// Get 查询画像，缺失返回 nil
func (l Lookup) Get(weekday model.Weekday, line string) *model.WeekdayLineProfile {
	if m, ok := l[weekday]; ok {
		return m[line]
	}
	return nil
}
