// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"

	"github.com/paichan/paichan/internal/repository"
	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/model"
	"github.com/paichan/paichan/pkg/profile"
)

// ProfileHandler 历史画像处理器
type ProfileHandler struct {
	history repository.HistoryRepositoryInterface // 可为空，此时只接受内联记录
}

// NewProfileHandler 创建历史画像处理器
func NewProfileHandler(history repository.HistoryRepositoryInterface) *ProfileHandler {
	return &ProfileHandler{history: history}
}

// BuildRequest 画像构建请求
// Records 为空且配置了历史仓储时，按日期范围从库里加载
type BuildRequest struct {
	Records   []*model.HistoricalRecord `json:"records,omitempty"`
	StartDate string                    `json:"start_date,omitempty"`
	EndDate   string                    `json:"end_date,omitempty"`
}

// BuildResponse 画像构建响应
type BuildResponse struct {
	Profiles []*model.WeekdayLineProfile `json:"profiles"`
	Records  int                         `json:"records"`
}

// Build 构建历史画像
func (h *ProfileHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	records := req.Records
	if len(records) == 0 && h.history != nil {
		var err error
		if req.StartDate != "" && req.EndDate != "" {
			records, err = h.history.ListByDateRange(r.Context(), req.StartDate, req.EndDate)
		} else {
			records, err = h.history.ListAll(r.Context())
		}
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "加载历史记录失败"))
			return
		}
	}

	profiles, err := profile.Build(records)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, BuildResponse{
		Profiles: profiles,
		Records:  len(records),
	})
}

// ImportRequest 历史记录导入请求
type ImportRequest struct {
	Records []*model.HistoricalRecord `json:"records"`
}

// Import 批量导入历史记录
func (h *ProfileHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if h.history == nil {
		respondError(w, errors.New(errors.CodeInternal, "未配置历史数据存储"))
		return
	}
	if len(req.Records) == 0 {
		respondError(w, errors.InvalidInput("records", "记录列表不能为空"))
		return
	}
	for _, rec := range req.Records {
		if !rec.Weekday.IsValid() {
			respondError(w, errors.InvalidInput("weekday", "工作日必须为 Mon..Fri").
				WithField("date", rec.Date))
			return
		}
		if rec.TotalHours < 0 || rec.TotalHours > 24 {
			respondError(w, errors.InvalidInput("total_hours", "工时必须在 [0, 24] 内").
				WithField("date", rec.Date).WithField("line", rec.Line))
			return
		}
	}

	if err := h.history.InsertBatch(r.Context(), req.Records); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "导入历史记录失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"imported": len(req.Records),
	})
}
