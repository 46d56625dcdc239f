package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zizouhuweidi/quizflow/internal/domain"
)

// Schema creates the tables the question source reads from
const Schema = `
	CREATE TABLE IF NOT EXISTS quiz_questions (
		id          BIGSERIAL PRIMARY KEY,
		position    INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quiz_options (
		id          BIGSERIAL PRIMARY KEY,
		question_id BIGINT NOT NULL REFERENCES quiz_questions(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL,
		is_correct  BOOLEAN NOT NULL DEFAULT FALSE
	);
`

// QuestionRepository reads the quiz document from PostgreSQL. It implements
// domain.QuizSource.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{
		pool: pool,
	}
}

// EnsureSchema creates the question tables if they are missing
func (r *QuestionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Fetch returns every question with its options, both in position order
func (r *QuestionRepository) Fetch(ctx context.Context) (*domain.QuizDocument, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT q.id, q.description, o.description, o.is_correct
		FROM quiz_questions q
		LEFT JOIN quiz_options o ON o.question_id = q.id
		ORDER BY q.position, q.id, o.position, o.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var optionRows []optionRow
	for rows.Next() {
		var row optionRow
		if err := rows.Scan(&row.QuestionID, &row.Question, &row.Option, &row.IsCorrect); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		optionRows = append(optionRows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	return assembleDocument(optionRows), nil
}

// optionRow is one row of the question/option join. Option and IsCorrect are
// nil for a question without options.
type optionRow struct {
	QuestionID int64
	Question   string
	Option     *string
	IsCorrect  *bool
}

// assembleDocument groups consecutive rows of the same question
func assembleDocument(rows []optionRow) *domain.QuizDocument {
	doc := &domain.QuizDocument{Questions: []domain.DocumentQuestion{}}

	var lastID int64
	for i, row := range rows {
		if i == 0 || row.QuestionID != lastID {
			doc.Questions = append(doc.Questions, domain.DocumentQuestion{
				Description: row.Question,
				Options:     []domain.DocumentOption{},
			})
			lastID = row.QuestionID
		}
		if row.Option == nil {
			continue
		}

		q := &doc.Questions[len(doc.Questions)-1]
		q.Options = append(q.Options, domain.DocumentOption{
			Description: *row.Option,
			IsCorrect:   row.IsCorrect != nil && *row.IsCorrect,
		})
	}

	return doc
}
