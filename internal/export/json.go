package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"docrisk/internal/domain"
)

// AnalyticsFilename returns the JSON analytics filename for one document.
func AnalyticsFilename(documentID string, at time.Time) string {
	id := SanitizeFilename(documentID)
	if id == "" {
		id = "unknown"
	}
	return fmt.Sprintf("analytics_%s_%s.json", id, at.Format(timestampLayout))
}

// WriteAnalytics renders a document report as indented JSON.
func WriteAnalytics(w io.Writer, report *domain.DocumentReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding analytics: %w", err)
	}
	return nil
}
