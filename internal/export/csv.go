// Package export renders document risk reports as CSV, JSON and Excel files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"docrisk/internal/domain"
)

// BOM is the UTF-8 byte order mark, prepended for Excel compatibility on
// Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the question report header row.
var columns = []string{
	"category",
	"question",
	"answer",
	"potential_risk_points",
	"actual_risk_points",
	"ko_question",
	"plausible_check",
}

// CSVWriter wraps csv.Writer for exporting question rows.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteRows writes one CSV row per question.
func (w *CSVWriter) WriteRows(rows []domain.QuestionRow) error {
	for i := range rows {
		if err := w.csv.Write(rowToRecord(&rows[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

func rowToRecord(row *domain.QuestionRow) []string {
	return []string{
		row.Category,
		row.Question,
		row.Answer,
		strconv.Itoa(row.PotentialRiskPoints),
		strconv.Itoa(row.ActualRiskPoints),
		row.KOQuestion,
		row.PlausibleCheck,
	}
}

// timestampLayout matches the naming convention of the downstream importers,
// e.g. report_<document_id>_20251029_182403.csv.
const timestampLayout = "20060102_150405"

// ReportFilename returns the CSV report filename for one document.
func ReportFilename(documentID string, at time.Time) string {
	return fmt.Sprintf("report_%s_%s.csv", SanitizeFilename(documentID), at.Format(timestampLayout))
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans an identifier for use in a filename. Replaces
// non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
