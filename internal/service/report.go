package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"carepulse/internal/audit"
	"carepulse/internal/pdf"
	"carepulse/pkg/model"
)

// reportPeriodDays is the window a generated report covers
const reportPeriodDays = 30

// ReportStore is the persistence seam for report records
type ReportStore interface {
	Save(ctx context.Context, report *model.Report) error
	FindByID(ctx context.Context, reportID string) (*model.Report, error)
}

// ReportService assembles health reports from the other stores,
// renders them as PDF, and keeps the files on local storage
type ReportService struct {
	repo        ReportStore
	medications *MedicationService
	checkIns    *CheckInService
	sources     *HealthSourceService
	metrics     *MetricsService
	generator   *pdf.Generator
	fs          afero.Fs
	reportDir   string
	audit       Auditor
	logger      *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	repo ReportStore,
	medications *MedicationService,
	checkIns *CheckInService,
	sources *HealthSourceService,
	metrics *MetricsService,
	generator *pdf.Generator,
	fs afero.Fs,
	reportDir string,
	auditLogger Auditor,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		repo:        repo,
		medications: medications,
		checkIns:    checkIns,
		sources:     sources,
		metrics:     metrics,
		generator:   generator,
		fs:          fs,
		reportDir:   reportDir,
		audit:       auditLogger,
		logger:      logger,
	}
}

// Generate builds a report over the past thirty days for the user,
// writes the PDF to the report directory, and records it
func (s *ReportService) Generate(ctx context.Context, userID, userName string) (*model.Report, error) {
	now := time.Now()
	start := now.AddDate(0, 0, -reportPeriodDays)

	checkIns, err := s.checkIns.History(ctx, userID, reportPeriodDays)
	if err != nil {
		return nil, fmt.Errorf("failed to gather check-ins: %w", err)
	}
	distribution, err := s.checkIns.MoodDistribution(ctx, userID, reportPeriodDays)
	if err != nil {
		return nil, fmt.Errorf("failed to gather mood distribution: %w", err)
	}

	active := s.sources.Active()
	data := &pdf.ReportData{
		UserName:         userName,
		DateRange:        fmt.Sprintf("%s to %s", start.Format("2006-01-02"), now.Format("2006-01-02")),
		Source:           active.Name,
		Snapshot:         s.metrics.Snapshot(active.Type),
		Medications:      s.medications.List(),
		CheckIns:         checkIns,
		MoodDistribution: distribution,
	}

	pdfBytes, err := s.generator.Generate(data)
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	report := &model.Report{
		ID:          uuid.New().String(),
		UserID:      userID,
		GeneratedAt: now,
	}
	report.FilePath = filepath.Join(s.reportDir, fmt.Sprintf("report-%s.pdf", report.ID))

	if err := s.fs.MkdirAll(s.reportDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, report.FilePath, pdfBytes, 0o640); err != nil {
		return nil, fmt.Errorf("failed to write report file: %w", err)
	}

	if err := s.repo.Save(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to record report: %w", err)
	}

	s.logger.Info("report generated",
		zap.String("report_id", report.ID),
		zap.String("user_id", userID),
		zap.Int("size_bytes", len(pdfBytes)),
	)
	s.auditLog(ctx, userID, report.ID)

	return report, nil
}

// Open returns the report record and its PDF content
func (s *ReportService) Open(ctx context.Context, reportID string) (*model.Report, []byte, error) {
	report, err := s.repo.FindByID(ctx, reportID)
	if err != nil {
		return nil, nil, err
	}

	content, err := afero.ReadFile(s.fs, report.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read report file: %w", err)
	}

	return report, content, nil
}

func (s *ReportService) auditLog(ctx context.Context, userID, reportID string) {
	entry := audit.Entry{
		UserID:        userID,
		OperationType: audit.OperationCreate,
		ResourceType:  audit.ResourceReport,
		ResourceID:    reportID,
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit entry", zap.Error(err))
	}
}
