package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"carepulse/pkg/model"
)

// Generator renders health reports as PDF documents
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a new Generator
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{
		logger: logger,
	}
}

// ReportData contains all data needed for report generation
type ReportData struct {
	UserName         string
	DateRange        string
	Source           string
	Snapshot         model.MetricSnapshot
	Medications      []model.Medication
	CheckIns         []model.CheckIn
	MoodDistribution map[string]int
}

// Generate creates a PDF report from the provided data
func (g *Generator) Generate(data *ReportData) ([]byte, error) {
	g.logger.Info("generating PDF report",
		zap.String("user_name", data.UserName),
		zap.String("date_range", data.DateRange),
	)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	g.addTitle(pdf, "Health Report", data.UserName, data.DateRange)
	g.addVitalsSnapshot(pdf, data.Source, data.Snapshot)
	g.addMedicationList(pdf, data.Medications)
	g.addMoodDistribution(pdf, data.MoodDistribution)
	g.addCheckInTimeline(pdf, data.CheckIns)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		g.logger.Error("failed to generate PDF", zap.Error(err))
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	g.logger.Info("PDF report generated successfully",
		zap.Int("size_bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}

// addTitle adds the report title and header information
func (g *Generator) addTitle(pdf *gofpdf.Fpdf, title, userName, dateRange string) {
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Patient: %s", userName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Period: %s", dateRange), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(10)
}

// addSectionHeader adds a section header
func (g *Generator) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, 10, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
	pdf.SetFont("Arial", "", 10)
}

// addVitalsSnapshot adds the current vitals section
func (g *Generator) addVitalsSnapshot(pdf *gofpdf.Fpdf, source string, snapshot model.MetricSnapshot) {
	g.addSectionHeader(pdf, "Current Vitals")

	pdf.CellFormat(0, 6, fmt.Sprintf("Data source: %s", source), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	rows := []struct {
		label string
		value string
	}{
		{"Heart Rate", fmt.Sprintf("%d bpm", snapshot.HeartRate)},
		{"Blood Pressure", fmt.Sprintf("%s mmHg", snapshot.BloodPressure)},
		{"SpO2", fmt.Sprintf("%d %%", snapshot.SpO2)},
		{"Respiratory Rate", fmt.Sprintf("%d /min", snapshot.RespiratoryRate)},
		{"Steps", fmt.Sprintf("%d", snapshot.Steps)},
		{"Calories", fmt.Sprintf("%d kcal", snapshot.Calories)},
	}
	for _, row := range rows {
		pdf.CellFormat(60, 6, row.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, row.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

// addMedicationList adds medication list section with alarms
func (g *Generator) addMedicationList(pdf *gofpdf.Fpdf, medications []model.Medication) {
	g.addSectionHeader(pdf, "Medication List")

	if len(medications) == 0 {
		pdf.CellFormat(0, 8, "No medications recorded.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	for _, med := range medications {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, med.Name, "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 5, fmt.Sprintf("  Dosage: %s", med.Dosage), "", 1, "L", false, 0, "")

		status := "not taken today"
		if med.Taken {
			status = "taken today"
		}
		pdf.CellFormat(0, 5, fmt.Sprintf("  Status: %s", status), "", 1, "L", false, 0, "")

		for _, alarm := range med.Alarms {
			state := "off"
			if alarm.Active {
				state = "on"
			}
			pdf.CellFormat(0, 5, fmt.Sprintf("  Reminder at %s (%s)", alarm.Time, state), "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}
	pdf.Ln(5)
}

// addMoodDistribution adds the mood distribution section
func (g *Generator) addMoodDistribution(pdf *gofpdf.Fpdf, distribution map[string]int) {
	g.addSectionHeader(pdf, "Mood Overview")

	if len(distribution) == 0 {
		pdf.CellFormat(0, 8, "No check-ins recorded during this period.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	// Stable order, most positive mood first.
	for _, mood := range model.ValidMoods {
		count, ok := distribution[string(mood)]
		if !ok {
			continue
		}
		pdf.CellFormat(60, 6, string(mood), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("%d", count), "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

// addCheckInTimeline adds the check-in timeline section
func (g *Generator) addCheckInTimeline(pdf *gofpdf.Fpdf, checkIns []model.CheckIn) {
	g.addSectionHeader(pdf, "Check-In Timeline")

	if len(checkIns) == 0 {
		pdf.CellFormat(0, 8, "No check-ins recorded during this period.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	for _, checkIn := range checkIns {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, checkIn.CreatedAt.Format("2006-01-02"), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 5, fmt.Sprintf("  Mood: %s", checkIn.Mood), "", 1, "L", false, 0, "")
		if checkIn.Note != "" {
			pdf.CellFormat(0, 5, fmt.Sprintf("  Note: %s", checkIn.Note), "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}
	pdf.Ln(5)
}
