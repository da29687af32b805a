// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/internal/config"
	"github.com/paichan/paichan/internal/metrics"
	"github.com/paichan/paichan/internal/repository"
	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/model"
	"github.com/paichan/paichan/pkg/planner/forecaster"
	"github.com/paichan/paichan/pkg/planner/smoother"
	"github.com/paichan/paichan/pkg/planner/validator"
	"github.com/paichan/paichan/pkg/profile"
	"github.com/paichan/paichan/pkg/report"
)

// PlanHandler 排产规划处理器
type PlanHandler struct {
	cfg     *config.Config
	history repository.HistoryRepositoryInterface // 可为空
	plans   repository.PlanRepositoryInterface    // 可为空，此时不持久化
}

// NewPlanHandler 创建排产规划处理器
func NewPlanHandler(cfg *config.Config, history repository.HistoryRepositoryInterface, plans repository.PlanRepositoryInterface) *PlanHandler {
	return &PlanHandler{cfg: cfg, history: history, plans: plans}
}

// DemandInput 需求输入
type DemandInput struct {
	Product    string  `json:"product"`
	TotalHours float64 `json:"total_hours"`
	Priority   string  `json:"priority"` // High/Medium/Low
	Deadline   string  `json:"deadline"` // Mon..Fri
}

// toDemands 转换为领域需求模型
func toDemands(inputs []DemandInput) []*model.Demand {
	demands := make([]*model.Demand, len(inputs))
	for i, d := range inputs {
		demands[i] = &model.Demand{
			Product:    d.Product,
			TotalHours: d.TotalHours,
			Priority:   model.Priority(d.Priority),
			Deadline:   model.Weekday(d.Deadline),
		}
	}
	return demands
}

// constraints 会话约束：请求可整体覆盖，否则用服务配置
func (h *PlanHandler) constraints(override *model.ConstraintConfig) *model.ConstraintConfig {
	if override != nil {
		return override.Normalize()
	}
	return h.cfg.Constraints()
}

// ValidateRequest 产能校验请求
type ValidateRequest struct {
	Demands     []DemandInput           `json:"demands"`
	Constraints *model.ConstraintConfig `json:"constraints,omitempty"`
}

// ValidateResponse 产能校验响应
type ValidateResponse struct {
	Valid   bool `json:"valid"`
	Demands int  `json:"demands"`
}

// Validate 校验需求可行性
func (h *PlanHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validator.ValidateDemands(toDemands(req.Demands), h.constraints(req.Constraints)); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ValidateResponse{Valid: true, Demands: len(req.Demands)})
}

// GenerateRequest 排产生成请求
type GenerateRequest struct {
	StartDate     string                      `json:"start_date,omitempty"` // 缺省为下一个周一
	Demands       []DemandInput               `json:"demands"`
	Profiles      []*model.WeekdayLineProfile `json:"profiles,omitempty"` // 无需求兜底用，缺省从历史库构建
	Constraints   *model.ConstraintConfig     `json:"constraints,omitempty"`
	Smooth        *bool                       `json:"smooth,omitempty"` // 缺省开启
	MaxIterations int                         `json:"max_iterations,omitempty"`
	Persist       bool                        `json:"persist,omitempty"`
}

// GenerateResponse 排产生成响应
type GenerateResponse struct {
	Success    bool                    `json:"success"`
	PlanID     string                  `json:"plan_id,omitempty"`
	Horizon    model.DateRange         `json:"horizon"`
	Entries    []*model.ScheduleEntry  `json:"entries"`
	Transfers  []*model.TransferRecord `json:"transfers,omitempty"`
	Statistics *forecaster.Statistics  `json:"statistics"`
	Smoothing  *SmoothingSummary       `json:"smoothing,omitempty"`
	Report     *report.Report          `json:"report"`
	Duration   string                  `json:"duration"`
}

// SmoothingSummary 平滑摘要
type SmoothingSummary struct {
	Iterations      int     `json:"iterations"`
	Reason          string  `json:"reason"`
	InitialVariance float64 `json:"initial_variance"`
	FinalVariance   float64 `json:"final_variance"`
}

// Generate 生成排产方案：产能校验 + 初始排产 + 可选负载平滑 + 报告
func (h *PlanHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	start := time.Now()
	cfg := h.constraints(req.Constraints)

	horizon, err := h.resolveHorizon(req.StartDate)
	if err != nil {
		respondError(w, err)
		return
	}

	demands := toDemands(req.Demands)

	// 无需求时走画像兜底，画像缺省从历史库构建
	profiles := req.Profiles
	if len(demands) == 0 && len(profiles) == 0 {
		profiles, err = h.buildProfiles(r)
		if err != nil {
			metrics.RecordPlanGeneration(false, time.Since(start))
			respondError(w, err)
			return
		}
	}

	result, err := forecaster.New(cfg).BuildSchedule(demands, profiles, horizon)
	if err != nil {
		metrics.RecordPlanGeneration(false, time.Since(start))
		respondError(w, err)
		return
	}

	entries := result.Entries
	var transfers []*model.TransferRecord
	var smoothing *SmoothingSummary

	if req.Smooth == nil || *req.Smooth {
		smoothed, err := smoother.New(cfg).Smooth(entries, req.MaxIterations)
		if err != nil {
			metrics.RecordPlanGeneration(false, time.Since(start))
			respondError(w, err)
			return
		}
		entries = smoothed.Entries
		transfers = smoothed.Transfers
		smoothing = &SmoothingSummary{
			Iterations:      smoothed.Iterations,
			Reason:          string(smoothed.Reason),
			InitialVariance: smoothed.InitialVariance,
			FinalVariance:   smoothed.FinalVariance,
		}
	}

	rep := report.NewAnalyzer(cfg).Compare(result.Entries, entries, transfers)

	duration := time.Since(start)
	metrics.RecordPlanGeneration(true, duration)
	metrics.RecordSmoothing(len(transfers), rep.VarianceReductionPct)
	metrics.SetActiveLines(avgActiveLines(rep))

	resp := GenerateResponse{
		Success:    true,
		Horizon:    horizon,
		Entries:    entries,
		Transfers:  transfers,
		Statistics: result.Statistics,
		Smoothing:  smoothing,
		Report:     rep,
		Duration:   duration.String(),
	}

	if req.Persist && h.plans != nil {
		planID, err := h.persistPlan(r, horizon, entries, transfers, result, rep, smoothing != nil)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存排产方案失败"))
			return
		}
		resp.PlanID = planID.String()
	}

	respondJSON(w, http.StatusOK, resp)
}

// SmoothRequest 负载平滑请求
type SmoothRequest struct {
	Entries       []*model.ScheduleEntry  `json:"entries"`
	Constraints   *model.ConstraintConfig `json:"constraints,omitempty"`
	MaxIterations int                     `json:"max_iterations,omitempty"`
}

// SmoothResponse 负载平滑响应
type SmoothResponse struct {
	Entries   []*model.ScheduleEntry  `json:"entries"`
	Transfers []*model.TransferRecord `json:"transfers"`
	Smoothing SmoothingSummary        `json:"smoothing"`
	Report    *report.Report          `json:"report"`
	Duration  string                  `json:"duration"`
}

// Smooth 对既有方案执行负载平滑
func (h *PlanHandler) Smooth(w http.ResponseWriter, r *http.Request) {
	var req SmoothRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if len(req.Entries) == 0 {
		respondError(w, errors.InvalidInput("entries", "排产条目不能为空"))
		return
	}

	cfg := h.constraints(req.Constraints)
	result, err := smoother.New(cfg).Smooth(req.Entries, req.MaxIterations)
	if err != nil {
		respondError(w, err)
		return
	}

	rep := report.NewAnalyzer(cfg).Compare(req.Entries, result.Entries, result.Transfers)
	metrics.RecordSmoothing(len(result.Transfers), rep.VarianceReductionPct)

	respondJSON(w, http.StatusOK, SmoothResponse{
		Entries:   result.Entries,
		Transfers: result.Transfers,
		Smoothing: SmoothingSummary{
			Iterations:      result.Iterations,
			Reason:          string(result.Reason),
			InitialVariance: result.InitialVariance,
			FinalVariance:   result.FinalVariance,
		},
		Report:   rep,
		Duration: result.Duration.String(),
	})
}

// GetLatest 获取规划周的最新已保存方案
func (h *PlanHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	if h.plans == nil {
		respondError(w, errors.New(errors.CodeInternal, "未配置方案存储"))
		return
	}

	startDate := r.URL.Query().Get("start_date")
	if startDate == "" {
		respondError(w, errors.InvalidInput("start_date", "必须提供规划周起始日"))
		return
	}

	plan, err := h.plans.GetLatest(r.Context(), startDate)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询方案失败"))
		return
	}
	if plan == nil {
		respondError(w, errors.New(errors.CodeNotFound, "该规划周没有已保存的方案"))
		return
	}

	entries, err := h.plans.GetEntries(r.Context(), plan.ID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询方案条目失败"))
		return
	}
	transfers, err := h.plans.GetTransfers(r.Context(), plan.ID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询转移记录失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"plan":      plan,
		"entries":   entries,
		"transfers": transfers,
	})
}

// resolveHorizon 解析规划周期：缺省取下一个完整规划周
func (h *PlanHandler) resolveHorizon(startDate string) (model.DateRange, error) {
	if startDate == "" {
		return model.PlanningWeek(time.Now()), nil
	}
	start, err := time.Parse(model.DateFormat, startDate)
	if err != nil {
		return model.DateRange{}, errors.Wrap(err, errors.CodeInvalidHorizon, "起始日期格式无效，应为YYYY-MM-DD")
	}
	return model.PlanningWeek(start), nil
}

// buildProfiles 从历史库构建画像
func (h *PlanHandler) buildProfiles(r *http.Request) ([]*model.WeekdayLineProfile, error) {
	if h.history == nil {
		return nil, errors.InsufficientData("没有需求且未配置历史数据存储")
	}
	records, err := h.history.ListAll(r.Context())
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载历史记录失败")
	}
	return profile.Build(records)
}

// persistPlan 持久化方案、条目与转移审计
func (h *PlanHandler) persistPlan(r *http.Request, horizon model.DateRange,
	entries []*model.ScheduleEntry, transfers []*model.TransferRecord,
	result *forecaster.Result, rep *report.Report, smoothed bool) (uuid.UUID, error) {

	plan := &repository.Plan{
		StartDate:      horizon.StartDate,
		EndDate:        horizon.EndDate,
		Status:         "draft",
		Smoothed:       smoothed,
		TotalHours:     rep.TotalProductiveHours,
		IdleHours:      rep.TotalIdleHours,
		VarianceBefore: rep.VarianceBefore,
		VarianceAfter:  rep.VarianceAfter,
		Transfers:      len(transfers),
		GeneratedAt:    time.Now(),
		GeneratedBy:    "system",
		Metadata: map[string]any{
			"fallback":        result.Statistics.Fallback,
			"compliance_rate": rep.ComplianceRate,
		},
	}

	ctx := r.Context()
	if err := h.plans.Create(ctx, plan); err != nil {
		return uuid.Nil, err
	}
	if err := h.plans.CreateEntries(ctx, plan.ID, entries); err != nil {
		return uuid.Nil, err
	}
	if len(transfers) > 0 {
		if err := h.plans.CreateTransfers(ctx, plan.ID, transfers); err != nil {
			return uuid.Nil, err
		}
	}
	return plan.ID, nil
}

// avgActiveLines 方案平均每日投产产线数
func avgActiveLines(rep *report.Report) float64 {
	if len(rep.Days) == 0 {
		return 0
	}
	total := 0
	for _, d := range rep.Days {
		total += d.ActiveLines
	}
	return float64(total) / float64(len(rep.Days))
}
