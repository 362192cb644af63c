package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"docrisk/internal/domain"
	"docrisk/internal/port"
)

type questionRepo struct {
	db *sqlx.DB
}

// NewQuestionRepo creates a new PostgreSQL-backed QuestionRepository.
func NewQuestionRepo(db *sqlx.DB) port.QuestionRepository {
	return &questionRepo{db: db}
}

const upsertQuestionsQuery = `INSERT INTO questions (
	document_id, filename, questions_data,
	total_questions, total_potential_risk_points, total_actual_risk_points
) VALUES (
	:document_id, :filename, :questions_data,
	:total_questions, :total_potential_risk_points, :total_actual_risk_points
)
ON CONFLICT (document_id) DO UPDATE SET
	filename = EXCLUDED.filename,
	questions_data = EXCLUDED.questions_data,
	total_questions = EXCLUDED.total_questions,
	total_potential_risk_points = EXCLUDED.total_potential_risk_points,
	total_actual_risk_points = EXCLUDED.total_actual_risk_points,
	updated_at = NOW()`

func (r *questionRepo) Upsert(ctx context.Context, record *domain.QuestionsRecord) error {
	if _, err := r.db.NamedExecContext(ctx, upsertQuestionsQuery, record); err != nil {
		return fmt.Errorf("questionRepo.Upsert %s: %w", record.DocumentID, err)
	}
	return nil
}

func (r *questionRepo) GetByDocumentID(ctx context.Context, documentID string) (*domain.QuestionsRecord, error) {
	var record domain.QuestionsRecord
	err := r.db.GetContext(ctx, &record,
		"SELECT * FROM questions WHERE document_id = $1", documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: questions for %s", domain.ErrNotFound, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("questionRepo.GetByDocumentID %s: %w", documentID, err)
	}
	return &record, nil
}
