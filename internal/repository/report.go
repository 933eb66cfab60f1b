package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"carepulse/pkg/model"
)

// ReportRepository persists generated report records
type ReportRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *sql.DB, logger *zap.Logger) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// Save stores a report record
func (r *ReportRepository) Save(ctx context.Context, report *model.Report) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reports (id, user_id, file_path, generated_at)
		VALUES (?, ?, ?, ?)
	`, report.ID, report.UserID, report.FilePath, report.GeneratedAt)
	if err != nil {
		r.logger.Error("failed to save report",
			zap.Error(err),
			zap.String("report_id", report.ID),
		)
		return fmt.Errorf("failed to save report: %w", err)
	}

	return nil
}

// FindByID retrieves a report record by id
func (r *ReportRepository) FindByID(ctx context.Context, reportID string) (*model.Report, error) {
	var report model.Report
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, file_path, generated_at
		FROM reports
		WHERE id = ?
	`, reportID).Scan(&report.ID, &report.UserID, &report.FilePath, &report.GeneratedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("report not found: %s", reportID)
		}
		r.logger.Error("failed to find report", zap.Error(err), zap.String("report_id", reportID))
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	return &report, nil
}
