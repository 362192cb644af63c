package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"docrisk/internal/domain"
)

const (
	summarySheet   = "Summary"
	questionsSheet = "Questions"
)

// summaryHeader covers the document metrics block on the Summary sheet.
var summaryHeader = []any{
	"document_id", "filename", "assessment",
	"number_of_questions", "number_of_ko_questions", "number_of_plausible_checks",
	"number_of_questions_answered_no", "number_of_ko_questions_answered_no",
	"number_of_plausible_checks_answered_no",
	"is_plausible", "max_total_risk_points", "total_risk_score", "risk_ratio",
}

var categoryHeader = []any{
	"document_id", "category_name", "max_total_risk_points", "total_risk_score", "risk_ratio",
}

var questionsHeader = []any{
	"document_id", "category", "question", "answer",
	"potential_risk_points", "actual_risk_points", "ko_question", "plausible_check",
}

// Workbook accumulates risk reports into a two-sheet Excel file: Summary
// (document metrics plus category rows) and Questions (row per question).
// Add one or many documents, then Save or WriteTo.
type Workbook struct {
	file        *excelize.File
	summaryRow  int
	questionRow int
}

// NewWorkbook creates an empty workbook with both sheets and headers in place.
func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(questionsSheet); err != nil {
		return nil, fmt.Errorf("creating questions sheet: %w", err)
	}

	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeader); err != nil {
		return nil, fmt.Errorf("writing summary header: %w", err)
	}
	if err := f.SetSheetRow(questionsSheet, "A1", &questionsHeader); err != nil {
		return nil, fmt.Errorf("writing questions header: %w", err)
	}

	return &Workbook{file: f, summaryRow: 2, questionRow: 2}, nil
}

// AddDocument appends one document's metrics, category rows and question
// rows to the workbook.
func (wb *Workbook) AddDocument(report *domain.DocumentReport, rows []domain.QuestionRow) error {
	summary := []any{
		report.DocumentID, report.Filename, report.Assessment,
		report.NumberOfQuestions, report.NumberOfKOQuestions, report.NumberOfPlausibleChecks,
		report.NumberOfQuestionsAnsweredNo, report.NumberOfKOQuestionsAnsweredNo,
		report.NumberOfPlausibleChecksAnsweredNo,
		report.IsPlausible, report.MaxTotalRiskPoints, report.TotalRiskScore, report.RiskRatio,
	}
	if err := wb.writeSummaryRow(summary); err != nil {
		return err
	}

	// Category block follows the document row, prefixed by its own header.
	if len(report.Categories) > 0 {
		if err := wb.writeSummaryRow(categoryHeader); err != nil {
			return err
		}
		for _, cat := range report.Categories {
			row := []any{
				report.DocumentID, cat.CategoryName,
				cat.MaxTotalRiskPoints, cat.TotalRiskScore, cat.RiskRatio,
			}
			if err := wb.writeSummaryRow(row); err != nil {
				return err
			}
		}
	}

	for i := range rows {
		row := []any{
			report.DocumentID, rows[i].Category, rows[i].Question, rows[i].Answer,
			rows[i].PotentialRiskPoints, rows[i].ActualRiskPoints,
			rows[i].KOQuestion, rows[i].PlausibleCheck,
		}
		cell, err := excelize.CoordinatesToCellName(1, wb.questionRow)
		if err != nil {
			return fmt.Errorf("computing questions cell: %w", err)
		}
		if err := wb.file.SetSheetRow(questionsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing question row: %w", err)
		}
		wb.questionRow++
	}
	return nil
}

func (wb *Workbook) writeSummaryRow(row []any) error {
	cell, err := excelize.CoordinatesToCellName(1, wb.summaryRow)
	if err != nil {
		return fmt.Errorf("computing summary cell: %w", err)
	}
	if err := wb.file.SetSheetRow(summarySheet, cell, &row); err != nil {
		return fmt.Errorf("writing summary row: %w", err)
	}
	wb.summaryRow++
	return nil
}

// File exposes the underlying excelize file for saving or streaming.
func (wb *Workbook) File() *excelize.File {
	return wb.file
}

// Save writes the workbook to disk.
func (wb *Workbook) Save(path string) error {
	if err := wb.file.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// Close releases the workbook resources.
func (wb *Workbook) Close() error {
	return wb.file.Close()
}

// WorkbookFilename returns the Excel filename for a batch run.
func WorkbookFilename(runID string, at time.Time) string {
	return fmt.Sprintf("assessments_%s_%s.xlsx", SanitizeFilename(runID), at.Format(timestampLayout))
}
