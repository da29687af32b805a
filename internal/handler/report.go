// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"

	"github.com/paichan/paichan/internal/config"
	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/model"
	"github.com/paichan/paichan/pkg/report"
)

// ReportHandler 排产报告处理器
type ReportHandler struct {
	cfg *config.Config
}

// NewReportHandler 创建排产报告处理器
func NewReportHandler(cfg *config.Config) *ReportHandler {
	return &ReportHandler{cfg: cfg}
}

// ReportRequest 报告请求
// Before 缺省时只分析 Entries 单方案，不产出对比指标
type ReportRequest struct {
	Entries     []*model.ScheduleEntry  `json:"entries"`
	Before      []*model.ScheduleEntry  `json:"before,omitempty"`
	Transfers   []*model.TransferRecord `json:"transfers,omitempty"`
	Constraints *model.ConstraintConfig `json:"constraints,omitempty"`
}

// Report 生成排产统计与合规报告
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if len(req.Entries) == 0 {
		respondError(w, errors.InvalidInput("entries", "排产条目不能为空"))
		return
	}

	cfg := req.Constraints
	if cfg == nil {
		cfg = h.cfg.Constraints()
	}

	analyzer := report.NewAnalyzer(cfg)
	before := req.Before
	if len(before) == 0 {
		before = req.Entries
	}

	respondJSON(w, http.StatusOK, analyzer.Compare(before, req.Entries, req.Transfers))
}
