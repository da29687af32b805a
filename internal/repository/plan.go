// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/model"
)

// Plan 排产方案记录
type Plan struct {
	ID              uuid.UUID      `json:"id"`
	StartDate       string         `json:"start_date"`
	EndDate         string         `json:"end_date"`
	Status          string         `json:"status"` // draft/published/archived
	Smoothed        bool           `json:"smoothed"`
	TotalHours      float64        `json:"total_hours"`
	IdleHours       float64        `json:"idle_hours"`
	VarianceBefore  float64        `json:"variance_before"`
	VarianceAfter   float64        `json:"variance_after"`
	Transfers       int            `json:"transfers"`
	GeneratedAt     time.Time      `json:"generated_at"`
	GeneratedBy     string         `json:"generated_by"` // system/manual
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// PlanRepositoryInterface 排产方案仓储接口
type PlanRepositoryInterface interface {
	Create(ctx context.Context, plan *Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	Update(ctx context.Context, plan *Plan) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]*Plan, int, error)
	GetLatest(ctx context.Context, startDate string) (*Plan, error)

	CreateEntries(ctx context.Context, planID uuid.UUID, entries []*model.ScheduleEntry) error
	GetEntries(ctx context.Context, planID uuid.UUID) ([]*model.ScheduleEntry, error)
	DeleteEntries(ctx context.Context, planID uuid.UUID) error

	CreateTransfers(ctx context.Context, planID uuid.UUID, transfers []*model.TransferRecord) error
	GetTransfers(ctx context.Context, planID uuid.UUID) ([]*model.TransferRecord, error)
}

// PlanRepository 排产方案仓储实现
type PlanRepository struct {
	db DB
}

// NewPlanRepository 创建排产方案仓储
func NewPlanRepository(db DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create 创建排产方案记录
func (r *PlanRepository) Create(ctx context.Context, plan *Plan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	metadataJSON, _ := json.Marshal(plan.Metadata)

	query := `
		INSERT INTO plans (
			id, start_date, end_date, status, smoothed,
			total_hours, idle_hours, variance_before, variance_after, transfers,
			generated_at, generated_by, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		plan.ID, plan.StartDate, plan.EndDate, plan.Status, plan.Smoothed,
		plan.TotalHours, plan.IdleHours, plan.VarianceBefore, plan.VarianceAfter, plan.Transfers,
		plan.GeneratedAt, plan.GeneratedBy, metadataJSON, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建排产方案失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取排产方案
func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	query := planSelectColumns + " FROM plans WHERE id = $1"
	return r.scanPlan(r.db.QueryRowContext(ctx, query, id))
}

// Update 更新排产方案
func (r *PlanRepository) Update(ctx context.Context, plan *Plan) error {
	plan.UpdatedAt = time.Now()
	metadataJSON, _ := json.Marshal(plan.Metadata)

	query := `
		UPDATE plans SET
			status = $2, smoothed = $3, total_hours = $4, idle_hours = $5,
			variance_before = $6, variance_after = $7, transfers = $8,
			metadata = $9, updated_at = $10
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		plan.ID, plan.Status, plan.Smoothed, plan.TotalHours, plan.IdleHours,
		plan.VarianceBefore, plan.VarianceAfter, plan.Transfers,
		metadataJSON, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新排产方案失败: %w", err)
	}

	return nil
}

// Delete 删除排产方案及其条目和转移记录
func (r *PlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM plan_transfers WHERE plan_id = $1", id); err != nil {
		return fmt.Errorf("删除转移记录失败: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM plan_entries WHERE plan_id = $1", id); err != nil {
		return fmt.Errorf("删除排产条目失败: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM plans WHERE id = $1", id); err != nil {
		return fmt.Errorf("删除排产方案失败: %w", err)
	}
	return nil
}

// List 列出排产方案
func (r *PlanRepository) List(ctx context.Context, filter ListFilter) ([]*Plan, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}

	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("start_date >= $%d", argNum))
		args = append(args, filter.StartDate)
		argNum++
	}

	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("end_date <= $%d", argNum))
		args = append(args, filter.EndDate)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM plans %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计排产方案数量失败: %w", err)
	}

	query := fmt.Sprintf("%s FROM plans %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		planSelectColumns, whereClause, filter.OrderBy, filter.OrderDir, argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询排产方案列表失败: %w", err)
	}
	defer rows.Close()

	var plans []*Plan
	for rows.Next() {
		p, err := r.scanPlanFromRows(rows)
		if err != nil {
			return nil, 0, err
		}
		plans = append(plans, p)
	}

	return plans, total, nil
}

// GetLatest 获取指定规划周起始日的最新方案
func (r *PlanRepository) GetLatest(ctx context.Context, startDate string) (*Plan, error) {
	query := planSelectColumns + `
		FROM plans
		WHERE start_date = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanPlan(r.db.QueryRowContext(ctx, query, startDate))
}

// CreateEntries 批量写入排产条目
func (r *PlanRepository) CreateEntries(ctx context.Context, planID uuid.UUID, entries []*model.ScheduleEntry) error {
	query := `
		INSERT INTO plan_entries (
			id, plan_id, date, weekday, line, product,
			assigned_hours, personnel_intensive, priority, deadline, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	now := time.Now()
	for _, e := range entries {
		id := e.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err := r.db.ExecContext(ctx, query,
			id, planID, e.Date, string(e.Weekday), e.Line, e.Product,
			e.AssignedHours, e.PersonnelIntensive, string(e.Priority), string(e.Deadline), now,
		)
		if err != nil {
			return fmt.Errorf("写入排产条目失败 (%s/%s): %w", e.Date, e.Line, err)
		}
	}
	return nil
}

// GetEntries 获取排产条目
func (r *PlanRepository) GetEntries(ctx context.Context, planID uuid.UUID) ([]*model.ScheduleEntry, error) {
	query := `
		SELECT id, date, weekday, line, product,
			assigned_hours, personnel_intensive, priority, deadline
		FROM plan_entries
		WHERE plan_id = $1
		ORDER BY date, line, product
	`

	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("查询排产条目失败: %w", err)
	}
	defer rows.Close()

	var entries []*model.ScheduleEntry
	for rows.Next() {
		e := &model.ScheduleEntry{}
		var weekday, priority, deadline string
		if err := rows.Scan(
			&e.ID, &e.Date, &weekday, &e.Line, &e.Product,
			&e.AssignedHours, &e.PersonnelIntensive, &priority, &deadline,
		); err != nil {
			return nil, fmt.Errorf("扫描排产条目失败: %w", err)
		}
		e.Weekday = model.Weekday(weekday)
		e.Priority = model.Priority(priority)
		e.Deadline = model.Weekday(deadline)
		entries = append(entries, e)
	}

	return entries, nil
}

// DeleteEntries 删除方案的排产条目
func (r *PlanRepository) DeleteEntries(ctx context.Context, planID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM plan_entries WHERE plan_id = $1", planID)
	if err != nil {
		return fmt.Errorf("删除排产条目失败: %w", err)
	}
	return nil
}

// CreateTransfers 批量写入转移审计记录
func (r *PlanRepository) CreateTransfers(ctx context.Context, planID uuid.UUID, transfers []*model.TransferRecord) error {
	query := `
		INSERT INTO plan_transfers (
			id, plan_id, iteration, from_date, to_date, line, product, hours, variance_delta, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	now := time.Now()
	for _, t := range transfers {
		_, err := r.db.ExecContext(ctx, query,
			uuid.New(), planID, t.Iteration, t.FromDate, t.ToDate,
			t.Line, t.Product, t.Hours, t.VarianceDelta, now,
		)
		if err != nil {
			return fmt.Errorf("写入转移记录失败 (迭代 %d): %w", t.Iteration, err)
		}
	}
	return nil
}

// GetTransfers 获取转移审计记录
func (r *PlanRepository) GetTransfers(ctx context.Context, planID uuid.UUID) ([]*model.TransferRecord, error) {
	query := `
		SELECT iteration, from_date, to_date, line, product, hours, variance_delta
		FROM plan_transfers
		WHERE plan_id = $1
		ORDER BY iteration
	`

	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("查询转移记录失败: %w", err)
	}
	defer rows.Close()

	var transfers []*model.TransferRecord
	for rows.Next() {
		t := &model.TransferRecord{}
		if err := rows.Scan(
			&t.Iteration, &t.FromDate, &t.ToDate, &t.Line, &t.Product, &t.Hours, &t.VarianceDelta,
		); err != nil {
			return nil, fmt.Errorf("扫描转移记录失败: %w", err)
		}
		transfers = append(transfers, t)
	}

	return transfers, nil
}

// planSelectColumns 方案查询列
const planSelectColumns = `
	SELECT id, start_date, end_date, status, smoothed,
		total_hours, idle_hours, variance_before, variance_after, transfers,
		generated_at, generated_by, metadata, created_at, updated_at`

// scanPlan 扫描单行方案
func (r *PlanRepository) scanPlan(row *sql.Row) (*Plan, error) {
	p := &Plan{}
	var metadataJSON []byte

	err := row.Scan(
		&p.ID, &p.StartDate, &p.EndDate, &p.Status, &p.Smoothed,
		&p.TotalHours, &p.IdleHours, &p.VarianceBefore, &p.VarianceAfter, &p.Transfers,
		&p.GeneratedAt, &p.GeneratedBy, &metadataJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描排产方案失败: %w", err)
	}

	if len(metadataJSON) > 0 {
		json.Unmarshal(metadataJSON, &p.Metadata)
	}

	return p, nil
}

// scanPlanFromRows 从多行结果扫描
func (r *PlanRepository) scanPlanFromRows(rows *sql.Rows) (*Plan, error) {
	p := &Plan{}
	var metadataJSON []byte

	err := rows.Scan(
		&p.ID, &p.StartDate, &p.EndDate, &p.Status, &p.Smoothed,
		&p.TotalHours, &p.IdleHours, &p.VarianceBefore, &p.VarianceAfter, &p.Transfers,
		&p.GeneratedAt, &p.GeneratedBy, &metadataJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描排产方案失败: %w", err)
	}

	if len(metadataJSON) > 0 {
		json.Unmarshal(metadataJSON, &p.Metadata)
	}

	return p, nil
}
