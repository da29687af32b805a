// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/paichan/paichan/pkg/model"
)

// HistoryRepositoryInterface 历史记录仓储接口
type HistoryRepositoryInterface interface {
	InsertBatch(ctx context.Context, records []*model.HistoricalRecord) error
	ListByDateRange(ctx context.Context, startDate, endDate string) ([]*model.HistoricalRecord, error)
	ListAll(ctx context.Context) ([]*model.HistoricalRecord, error)
	DistinctLines(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	DeleteByDateRange(ctx context.Context, startDate, endDate string) (int64, error)
}

// HistoryRepository 历史记录仓储实现
// 归一化日×产线生产记录由上游 ETL 写入，这里只做查询和批量导入
type HistoryRepository struct {
	db DB
}

// NewHistoryRepository 创建历史记录仓储
func NewHistoryRepository(db DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// InsertBatch 批量写入历史记录，按（日期×产线）幂等覆盖
func (r *HistoryRepository) InsertBatch(ctx context.Context, records []*model.HistoricalRecord) error {
	query := `
		INSERT INTO production_history (date, weekday, line, total_hours, personnel_intensive_flag)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date, line) DO UPDATE SET
			weekday = EXCLUDED.weekday,
			total_hours = EXCLUDED.total_hours,
			personnel_intensive_flag = EXCLUDED.personnel_intensive_flag
	`

	for _, rec := range records {
		_, err := r.db.ExecContext(ctx, query,
			rec.Date, string(rec.Weekday), rec.Line, rec.TotalHours, rec.PersonnelIntensive,
		)
		if err != nil {
			return fmt.Errorf("写入历史记录失败 (%s/%s): %w", rec.Date, rec.Line, err)
		}
	}
	return nil
}

// ListByDateRange 按日期范围查询历史记录
func (r *HistoryRepository) ListByDateRange(ctx context.Context, startDate, endDate string) ([]*model.HistoricalRecord, error) {
	query := `
		SELECT date, weekday, line, total_hours, personnel_intensive_flag
		FROM production_history
		WHERE date >= $1 AND date <= $2
		ORDER BY date, line
	`

	rows, err := r.db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询历史记录失败: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListAll 查询全部历史记录
func (r *HistoryRepository) ListAll(ctx context.Context) ([]*model.HistoricalRecord, error) {
	query := `
		SELECT date, weekday, line, total_hours, personnel_intensive_flag
		FROM production_history
		ORDER BY date, line
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询历史记录失败: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// DistinctLines 返回历史中出现过的产线
func (r *HistoryRepository) DistinctLines(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT line FROM production_history ORDER BY line")
	if err != nil {
		return nil, fmt.Errorf("查询产线列表失败: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("扫描产线失败: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Count 统计历史记录数
func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM production_history").Scan(&count); err != nil {
		return 0, fmt.Errorf("统计历史记录失败: %w", err)
	}
	return count, nil
}

// DeleteByDateRange 删除日期范围内的历史记录
func (r *HistoryRepository) DeleteByDateRange(ctx context.Context, startDate, endDate string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM production_history WHERE date >= $1 AND date <= $2", startDate, endDate)
	if err != nil {
		return 0, fmt.Errorf("删除历史记录失败: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

// scanRecords 扫描历史记录行集
func scanRecords(rows *sql.Rows) ([]*model.HistoricalRecord, error) {
	var records []*model.HistoricalRecord
	for rows.Next() {
		rec := &model.HistoricalRecord{}
		var weekday string
		if err := rows.Scan(&rec.Date, &weekday, &rec.Line, &rec.TotalHours, &rec.PersonnelIntensive); err != nil {
			return nil, fmt.Errorf("扫描历史记录失败: %w", err)
		}
		rec.Weekday = model.Weekday(weekday)
		records = append(records, rec)
	}
	return records, nil
}
