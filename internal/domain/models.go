package domain

import (
	"encoding/json"
	"time"
)

// DocumentNode is a node in the questionnaire tree returned by the document
// details endpoint. Children are owned by the parent; the input is a strict
// tree.
type DocumentNode struct {
	DisplayName string         `json:"document_class_display_name"`
	Identifier  string         `json:"document_class_identifier_by_organization"`
	Value       string         `json:"value"`
	Children    []DocumentNode `json:"children"`
}

// UploadInfo carries the upload section of a document payload.
type UploadInfo struct {
	DocumentIDByOrganization string `json:"document_id_by_organization"`
}

// DocumentTree is the document section of a payload: identity plus the
// top-level category nodes.
type DocumentTree struct {
	DocumentID    string         `json:"document_id"`
	DocumentClass string         `json:"document_class"`
	Children      []DocumentNode `json:"children"`
}

// DocumentPayload is the full per-document JSON payload consumed from the
// document-management API.
type DocumentPayload struct {
	Upload   UploadInfo   `json:"upload"`
	Document DocumentTree `json:"document"`
}

// Question is a scored yes/no question extracted from a node whose identifier
// follows the "<text> | <points> | <is_ko> | <is_plausible>" convention.
type Question struct {
	Identifier  string
	Points      int
	IsKO        bool
	IsPlausible bool
	YesNoValue  bool
	Node        *DocumentNode
}

// Tally holds the raw aggregates over a list of questions before any
// rounding or plausibility interpretation.
type Tally struct {
	Questions           int
	KOQuestions         int
	PlausibleChecks     int
	AnsweredNo          int
	KOAnsweredNo        int
	PlausibleAnsweredNo int
	MaxTotalRiskPoints  int
	TotalRiskScore      int
}

// CategoryMetrics holds the risk metrics for one top-level category.
type CategoryMetrics struct {
	CategoryName       string  `json:"category_name"`
	MaxTotalRiskPoints int     `json:"max_total_risk_points"`
	TotalRiskScore     int     `json:"total_risk_score"`
	RiskRatio          float64 `json:"risk_ratio"`
}

// DocumentReport is the document-level risk report.
type DocumentReport struct {
	DocumentID                        string            `json:"document_id"`
	Filename                          string            `json:"filename"`
	Assessment                        string            `json:"assessment"`
	NumberOfQuestions                 int               `json:"number_of_questions"`
	NumberOfKOQuestions               int               `json:"number_of_ko_questions"`
	NumberOfPlausibleChecks           int               `json:"number_of_plausible_checks"`
	NumberOfQuestionsAnsweredNo       int               `json:"number_of_questions_answered_no"`
	NumberOfKOQuestionsAnsweredNo     int               `json:"number_of_ko_questions_answered_no"`
	NumberOfPlausibleChecksAnsweredNo int               `json:"number_of_plausible_checks_answered_no"`
	IsPlausible                       bool              `json:"is_plausible"`
	MaxTotalRiskPoints                int               `json:"max_total_risk_points"`
	TotalRiskScore                    int               `json:"total_risk_score"`
	RiskRatio                         float64           `json:"risk_ratio"`
	Categories                        []CategoryMetrics `json:"categories"`
}

// QuestionRow is the row-per-question projection used by the CSV and Excel
// exports and the questions table.
type QuestionRow struct {
	Category            string `json:"category"`
	Question            string `json:"question"`
	Answer              string `json:"answer"`
	PotentialRiskPoints int    `json:"potential_risk_points"`
	ActualRiskPoints    int    `json:"actual_risk_points"`
	KOQuestion          string `json:"ko_question"`
	PlausibleCheck      string `json:"plausible_check"`
}

// AssessmentRecord is a persisted document-level report row.
type AssessmentRecord struct {
	ID                                int64           `db:"id" json:"id"`
	DocumentID                        string          `db:"document_id" json:"document_id"`
	Filename                          string          `db:"filename" json:"filename"`
	Assessment                        string          `db:"assessment" json:"assessment"`
	NumberOfQuestions                 int             `db:"number_of_questions" json:"number_of_questions"`
	NumberOfKOQuestions               int             `db:"number_of_ko_questions" json:"number_of_ko_questions"`
	NumberOfPlausibleChecks           int             `db:"number_of_plausible_checks" json:"number_of_plausible_checks"`
	NumberOfQuestionsAnsweredNo       int             `db:"number_of_questions_answered_no" json:"number_of_questions_answered_no"`
	NumberOfKOQuestionsAnsweredNo     int             `db:"number_of_ko_questions_answered_no" json:"number_of_ko_questions_answered_no"`
	NumberOfPlausibleChecksAnsweredNo int             `db:"number_of_plausible_checks_answered_no" json:"number_of_plausible_checks_answered_no"`
	IsPlausible                       bool            `db:"is_plausible" json:"is_plausible"`
	MaxTotalRiskPoints                int             `db:"max_total_risk_points" json:"max_total_risk_points"`
	TotalRiskScore                    int             `db:"total_risk_score" json:"total_risk_score"`
	RiskRatio                         float64         `db:"risk_ratio" json:"risk_ratio"`
	Categories                        json.RawMessage `db:"categories" json:"categories"`
	CreatedAt                         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt                         time.Time       `db:"updated_at" json:"updated_at"`
}

// QuestionsRecord is a persisted row-per-document bundle of question rows.
type QuestionsRecord struct {
	ID                       int64           `db:"id" json:"id"`
	DocumentID               string          `db:"document_id" json:"document_id"`
	Filename                 string          `db:"filename" json:"filename"`
	QuestionsData            json.RawMessage `db:"questions_data" json:"questions_data"`
	TotalQuestions           int             `db:"total_questions" json:"total_questions"`
	TotalPotentialRiskPoints int             `db:"total_potential_risk_points" json:"total_potential_risk_points"`
	TotalActualRiskPoints    int             `db:"total_actual_risk_points" json:"total_actual_risk_points"`
	CreatedAt                time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time       `db:"updated_at" json:"updated_at"`
}

// AssessmentFilters narrows assessment listing queries.
type AssessmentFilters struct {
	MinRiskRatio *float64
	IsPlausible  *bool
	Assessment   string
	Offset       int
	Limit        int
}

// AssessmentSummary aggregates the stored assessment results.
type AssessmentSummary struct {
	TotalAssessments  int     `db:"total_assessments" json:"total_assessments"`
	AvgRiskRatio      float64 `db:"avg_risk_ratio" json:"avg_risk_ratio"`
	MaxRiskRatio      float64 `db:"max_risk_ratio" json:"max_risk_ratio"`
	NonPlausibleCount int     `db:"non_plausible_count" json:"non_plausible_count"`
}

// UploadResult describes the outcome of a single file upload.
type UploadResult struct {
	FilePath   string `json:"file_path"`
	Success    bool   `json:"success"`
	DocumentID string `json:"document_id,omitempty"`
	Status     int    `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// DeleteResult describes the outcome of a single export deletion.
type DeleteResult struct {
	DocumentID string `json:"document_id"`
	Success    bool   `json:"success"`
	Status     int    `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// BatchSummary describes the outcome of one pull-and-score run.
type BatchSummary struct {
	RunID      string    `json:"run_id"`
	Scope      string    `json:"scope"`
	Total      int       `json:"total"`
	Fetched    int       `json:"fetched"`
	Analyzed   int       `json:"analyzed"`
	Failed     []string  `json:"failed,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
