package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrisk/internal/domain"
)

var testRows = []domain.QuestionRow{
	{
		Category:            "Applicant",
		Question:            "Age check",
		Answer:              "No",
		PotentialRiskPoints: 10,
		ActualRiskPoints:    10,
		KOQuestion:          "Yes",
		PlausibleCheck:      "No",
	},
	{
		Category:            "Applicant",
		Question:            "Income check",
		Answer:              "Yes",
		PotentialRiskPoints: 5,
		ActualRiskPoints:    0,
		KOQuestion:          "No",
		PlausibleCheck:      "Yes",
	},
}

var testReport = &domain.DocumentReport{
	DocumentID:                    "doc-42",
	Filename:                      "contract-042.pdf",
	Assessment:                    "credit-check",
	NumberOfQuestions:             2,
	NumberOfKOQuestions:           1,
	NumberOfPlausibleChecks:       1,
	NumberOfQuestionsAnsweredNo:   1,
	NumberOfKOQuestionsAnsweredNo: 1,
	IsPlausible:                   true,
	MaxTotalRiskPoints:            15,
	TotalRiskScore:                10,
	RiskRatio:                     0.6667,
	Categories: []domain.CategoryMetrics{
		{CategoryName: "Applicant", MaxTotalRiskPoints: 15, TotalRiskScore: 10, RiskRatio: 0.6667},
	},
}

func TestCSVWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"category", "question", "answer",
		"potential_risk_points", "actual_risk_points",
		"ko_question", "plausible_check",
	}, row)
}

func TestCSVWriteRows(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteRows(testRows))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"Applicant", "Age check", "No", "10", "10", "Yes", "No"}, records[1])
	assert.Equal(t, []string{"Applicant", "Income check", "Yes", "5", "0", "No", "Yes"}, records[2])
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "0a65f6b3176b4f43888238c21148c680", "0a65f6b3176b4f43888238c21148c680"},
		{"special chars", "doc id / v2 (final)", "doc_id_v2_final"},
		{"hyphens and underscores preserved", "my-doc_2025", "my-doc_2025"},
		{"consecutive underscores collapsed", "a___b", "a_b"},
		{"leading/trailing cleaned", "  doc  ", "doc"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestFilenames(t *testing.T) {
	at := time.Date(2025, 10, 29, 18, 24, 3, 0, time.UTC)

	assert.Equal(t, "report_doc-42_20251029_182403.csv", ReportFilename("doc-42", at))
	assert.Equal(t, "analytics_doc-42_20251029_182403.json", AnalyticsFilename("doc-42", at))
	assert.Equal(t, "analytics_unknown_20251029_182403.json", AnalyticsFilename("", at))
	assert.Equal(t, "assessments_run-1_20251029_182403.xlsx", WorkbookFilename("run-1", at))
}

func TestWriteAnalytics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAnalytics(&buf, testReport))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{\n  \"document_id\": \"doc-42\""))
	assert.Contains(t, out, `"risk_ratio": 0.6667`)
	assert.Contains(t, out, `"is_plausible": true`)
	assert.Contains(t, out, `"category_name": "Applicant"`)
}

func TestWorkbook(t *testing.T) {
	wb, err := NewWorkbook()
	require.NoError(t, err)
	defer wb.Close()

	require.NoError(t, wb.AddDocument(testReport, testRows))

	f := wb.File()

	// Summary sheet: header, document row, category header, category row.
	docID, err := f.GetCellValue("Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, "doc-42", docID)

	ratio, err := f.GetCellValue("Summary", "M2")
	require.NoError(t, err)
	assert.Equal(t, "0.6667", ratio)

	catName, err := f.GetCellValue("Summary", "B4")
	require.NoError(t, err)
	assert.Equal(t, "Applicant", catName)

	// Questions sheet: header plus one row per question.
	question, err := f.GetCellValue("Questions", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Age check", question)

	answer, err := f.GetCellValue("Questions", "D3")
	require.NoError(t, err)
	assert.Equal(t, "Yes", answer)
}

func TestWorkbook_MultipleDocuments(t *testing.T) {
	wb, err := NewWorkbook()
	require.NoError(t, err)
	defer wb.Close()

	require.NoError(t, wb.AddDocument(testReport, testRows))

	second := *testReport
	second.DocumentID = "doc-43"
	second.Categories = nil
	require.NoError(t, wb.AddDocument(&second, nil))

	f := wb.File()
	// First document occupies rows 2-4; the second lands right after.
	docID, err := f.GetCellValue("Summary", "A5")
	require.NoError(t, err)
	assert.Equal(t, "doc-43", docID)
}
