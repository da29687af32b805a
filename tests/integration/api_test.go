// Package integration 提供处理器层集成测试
package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/paichan/paichan/internal/config"
	"github.com/paichan/paichan/internal/handler"
	"github.com/paichan/paichan/pkg/model"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load config failed: %v", err)
	}
	return cfg
}

// post 向处理器发起JSON请求并解析响应体
func post(t *testing.T, h http.HandlerFunc, path string, payload interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal request failed: %v", err)
	}

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)

	var parsed map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	return rec, parsed
}

func TestValidateEndpoint(t *testing.T) {
	h := handler.NewPlanHandler(loadConfig(t), nil, nil)

	rec, resp := post(t, h.Validate, "/api/v1/plan/validate", map[string]interface{}{
		"demands": []map[string]interface{}{
			{"product": "alpha", "total_hours": 60, "priority": "High", "deadline": "Fri"},
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp["valid"] != true {
		t.Errorf("Expected valid=true, got %v", resp["valid"])
	}
}

func TestValidateEndpointCapacityExceeded(t *testing.T) {
	h := handler.NewPlanHandler(loadConfig(t), nil, nil)

	// 200h 截止周一，超出 5×24=120h 原始产能
	rec, resp := post(t, h.Validate, "/api/v1/plan/validate", map[string]interface{}{
		"demands": []map[string]interface{}{
			{"product": "alpha", "total_hours": 200, "priority": "High", "deadline": "Mon"},
		},
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", rec.Code)
	}
	if resp["code"] != "CAPACITY_EXCEEDED" {
		t.Errorf("Expected CAPACITY_EXCEEDED, got %v", resp["code"])
	}
	fields, _ := resp["fields"].(map[string]interface{})
	if fields["shortfall_hours"] != 80.0 {
		t.Errorf("Expected shortfall 80, got %v", fields["shortfall_hours"])
	}
}

func TestGenerateEndpoint(t *testing.T) {
	h := handler.NewPlanHandler(loadConfig(t), nil, nil)

	rec, resp := post(t, h.Generate, "/api/v1/plan/generate", map[string]interface{}{
		"start_date": "2026-03-02",
		"demands": []map[string]interface{}{
			{"product": "alpha", "total_hours": 60, "priority": "High", "deadline": "Fri"},
			{"product": "beta", "total_hours": 30, "priority": "Medium", "deadline": "Wed"},
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp["success"] != true {
		t.Errorf("Expected success=true, got %v", resp["success"])
	}

	horizon, _ := resp["horizon"].(map[string]interface{})
	if horizon["start_date"] != "2026-03-02" || horizon["end_date"] != "2026-03-06" {
		t.Errorf("Unexpected horizon: %v", horizon)
	}

	entries, _ := resp["entries"].([]interface{})
	if len(entries) == 0 {
		t.Fatal("Expected schedule entries")
	}

	statistics, _ := resp["statistics"].(map[string]interface{})
	if statistics["placed_hours"] != 90.0 {
		t.Errorf("Expected 90 placed hours, got %v", statistics["placed_hours"])
	}

	// 平滑缺省开启，响应必须带平滑摘要与报告
	if resp["smoothing"] == nil {
		t.Error("Expected smoothing summary")
	}
	report, _ := resp["report"].(map[string]interface{})
	if report["compliance_rate"] != 100.0 {
		t.Errorf("Expected 100%% compliance, got %v", report["compliance_rate"])
	}
}

func TestGenerateEndpointRejectsGet(t *testing.T) {
	h := handler.NewPlanHandler(loadConfig(t), nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/plan/generate", nil)
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for GET, got %d", rec.Code)
	}
}

func TestSmoothEndpoint(t *testing.T) {
	h := handler.NewPlanHandler(loadConfig(t), nil, nil)

	entries := []*model.ScheduleEntry{
		{ID: uuid.New(), Date: "2026-03-02", Weekday: model.WeekdayMon, Line: "hohl2", Product: "alpha", AssignedHours: 20, Deadline: model.WeekdayFri},
		{ID: uuid.New(), Date: "2026-03-02", Weekday: model.WeekdayMon, Line: "hohl3", Product: "beta", AssignedHours: 20, Deadline: model.WeekdayFri},
		{ID: uuid.New(), Date: "2026-03-03", Weekday: model.WeekdayTue, Line: "hohl2", Product: "alpha", AssignedHours: 10, Deadline: model.WeekdayFri},
	}

	rec, resp := post(t, h.Smooth, "/api/v1/plan/smooth", map[string]interface{}{
		"entries": entries,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	transfers, _ := resp["transfers"].([]interface{})
	if len(transfers) == 0 {
		t.Error("Expected at least one transfer")
	}
	smoothing, _ := resp["smoothing"].(map[string]interface{})
	if smoothing["reason"] == "" || smoothing["reason"] == nil {
		t.Error("Expected termination reason in smoothing summary")
	}
}

func TestSmoothEndpointEmptyEntries(t *testing.T) {
	h := handler.NewPlanHandler(loadConfig(t), nil, nil)

	rec, resp := post(t, h.Smooth, "/api/v1/plan/smooth", map[string]interface{}{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if resp["code"] != "INVALID_INPUT" {
		t.Errorf("Expected INVALID_INPUT, got %v", resp["code"])
	}
}

func TestProfileBuildEndpoint(t *testing.T) {
	h := handler.NewProfileHandler(nil)

	rec, resp := post(t, h.Build, "/api/v1/profile/build", map[string]interface{}{
		"records": []map[string]interface{}{
			{"date": "2026-02-02", "weekday": "Mon", "line": "hohl2", "total_hours": 10},
			{"date": "2026-02-09", "weekday": "Mon", "line": "hohl2", "total_hours": 14},
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	profiles, _ := resp["profiles"].([]interface{})
	if len(profiles) != 1 {
		t.Fatalf("Expected 1 profile, got %d", len(profiles))
	}
	p, _ := profiles[0].(map[string]interface{})
	if p["avg_hours"] != 12.0 {
		t.Errorf("Expected avg 12, got %v", p["avg_hours"])
	}
}

func TestProfileBuildEndpointNoData(t *testing.T) {
	h := handler.NewProfileHandler(nil)

	rec, resp := post(t, h.Build, "/api/v1/profile/build", map[string]interface{}{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if resp["code"] != "INSUFFICIENT_DATA" {
		t.Errorf("Expected INSUFFICIENT_DATA, got %v", resp["code"])
	}
}

func TestReportEndpoint(t *testing.T) {
	h := handler.NewReportHandler(loadConfig(t))

	entries := []*model.ScheduleEntry{
		{ID: uuid.New(), Date: "2026-03-02", Weekday: model.WeekdayMon, Line: "hohl2", Product: "alpha", AssignedHours: 20},
		{ID: uuid.New(), Date: "2026-03-03", Weekday: model.WeekdayTue, Line: "hohl2", Product: "alpha", AssignedHours: 20},
	}

	rec, resp := post(t, h.Report, "/api/v1/plan/report", map[string]interface{}{
		"entries": entries,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	days, _ := resp["days"].([]interface{})
	if len(days) != 2 {
		t.Errorf("Expected 2 day summaries, got %d", len(days))
	}
	if resp["compliance_rate"] != 100.0 {
		t.Errorf("Expected 100%% compliance, got %v", resp["compliance_rate"])
	}
}
