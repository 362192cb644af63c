package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"docrisk/internal/domain"
	"docrisk/internal/port"
)

type assessmentRepo struct {
	db *sqlx.DB
}

// NewAssessmentRepo creates a new PostgreSQL-backed AssessmentRepository.
func NewAssessmentRepo(db *sqlx.DB) port.AssessmentRepository {
	return &assessmentRepo{db: db}
}

const upsertAssessmentQuery = `INSERT INTO assessment_results (
	document_id, filename, assessment,
	number_of_questions, number_of_ko_questions, number_of_plausible_checks,
	number_of_questions_answered_no, number_of_ko_questions_answered_no,
	number_of_plausible_checks_answered_no,
	is_plausible, max_total_risk_points, total_risk_score, risk_ratio, categories
) VALUES (
	:document_id, :filename, :assessment,
	:number_of_questions, :number_of_ko_questions, :number_of_plausible_checks,
	:number_of_questions_answered_no, :number_of_ko_questions_answered_no,
	:number_of_plausible_checks_answered_no,
	:is_plausible, :max_total_risk_points, :total_risk_score, :risk_ratio, :categories
)
ON CONFLICT (document_id) DO UPDATE SET
	filename = EXCLUDED.filename,
	assessment = EXCLUDED.assessment,
	number_of_questions = EXCLUDED.number_of_questions,
	number_of_ko_questions = EXCLUDED.number_of_ko_questions,
	number_of_plausible_checks = EXCLUDED.number_of_plausible_checks,
	number_of_questions_answered_no = EXCLUDED.number_of_questions_answered_no,
	number_of_ko_questions_answered_no = EXCLUDED.number_of_ko_questions_answered_no,
	number_of_plausible_checks_answered_no = EXCLUDED.number_of_plausible_checks_answered_no,
	is_plausible = EXCLUDED.is_plausible,
	max_total_risk_points = EXCLUDED.max_total_risk_points,
	total_risk_score = EXCLUDED.total_risk_score,
	risk_ratio = EXCLUDED.risk_ratio,
	categories = EXCLUDED.categories,
	updated_at = NOW()`

func (r *assessmentRepo) Upsert(ctx context.Context, record *domain.AssessmentRecord) error {
	if _, err := r.db.NamedExecContext(ctx, upsertAssessmentQuery, record); err != nil {
		return fmt.Errorf("assessmentRepo.Upsert %s: %w", record.DocumentID, err)
	}
	return nil
}

func (r *assessmentRepo) GetByDocumentID(ctx context.Context, documentID string) (*domain.AssessmentRecord, error) {
	var record domain.AssessmentRecord
	err := r.db.GetContext(ctx, &record,
		"SELECT * FROM assessment_results WHERE document_id = $1", documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: assessment %s", domain.ErrNotFound, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("assessmentRepo.GetByDocumentID %s: %w", documentID, err)
	}
	return &record, nil
}

func (r *assessmentRepo) List(ctx context.Context, filters domain.AssessmentFilters) ([]domain.AssessmentRecord, int, error) {
	where := []string{"1=1"}
	args := []any{}

	if filters.MinRiskRatio != nil {
		args = append(args, *filters.MinRiskRatio)
		where = append(where, fmt.Sprintf("risk_ratio >= $%d", len(args)))
	}
	if filters.IsPlausible != nil {
		args = append(args, *filters.IsPlausible)
		where = append(where, fmt.Sprintf("is_plausible = $%d", len(args)))
	}
	if filters.Assessment != "" {
		args = append(args, filters.Assessment)
		where = append(where, fmt.Sprintf("assessment = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM assessment_results WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("assessmentRepo.List count: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filters.Offset)
	listQuery := fmt.Sprintf(
		"SELECT * FROM assessment_results WHERE %s ORDER BY risk_ratio DESC, document_id LIMIT $%d OFFSET $%d",
		whereClause, len(args)-1, len(args),
	)

	records := []domain.AssessmentRecord{}
	if err := r.db.SelectContext(ctx, &records, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("assessmentRepo.List: %w", err)
	}
	return records, total, nil
}

const assessmentSummaryQuery = `SELECT
	COUNT(*) AS total_assessments,
	COALESCE(ROUND(AVG(risk_ratio), 4), 0) AS avg_risk_ratio,
	COALESCE(MAX(risk_ratio), 0) AS max_risk_ratio,
	COUNT(CASE WHEN NOT is_plausible THEN 1 END) AS non_plausible_count
FROM assessment_results`

func (r *assessmentRepo) Summary(ctx context.Context) (*domain.AssessmentSummary, error) {
	var summary domain.AssessmentSummary
	if err := r.db.GetContext(ctx, &summary, assessmentSummaryQuery); err != nil {
		return nil, fmt.Errorf("assessmentRepo.Summary: %w", err)
	}
	return &summary, nil
}
