package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"

	"testseries-service/internal/domain"
)

func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := scanDoc[domain.Quiz](s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz.ID = quizID
	return quiz, nil
}

func (s *Store) ListQuizzes(ctx context.Context, query domain.QuizQuery) ([]domain.Quiz, error) {
	var (
		conds []string
		args  []interface{}
	)
	if query.LiveOnly {
		conds = append(conds, `data->>'type' = 'live'`)
	}
	if query.ExcludeLive {
		conds = append(conds, `coalesce(data->>'type', '') <> 'live'`)
	}
	if !query.IncludeArchived {
		conds = append(conds, `coalesce((data->>'archive')::boolean, false) = false`)
	}
	if len(query.Grades) > 0 {
		args = append(args, query.Grades)
		conds = append(conds, fmt.Sprintf(`data->'details'->>'grade' = ANY($%d)`, len(args)))
	}
	sql := `SELECT data FROM quizzes`
	if len(conds) > 0 {
		sql += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	sql += ` ORDER BY created_at, id`

	quizzes, err := queryDocs[domain.Quiz](ctx, s.pool, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

func (s *Store) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := marshalDoc(quiz)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quizzes (id, data, created_at, updated_at)
		VALUES ($1, $2::jsonb, $3, $4)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		quiz.ID, data, quiz.CreatedAt, quiz.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

func (s *Store) DeleteQuiz(ctx context.Context, quizID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) SetArchived(ctx context.Context, quizID string, archived bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE quizzes
		SET data = jsonb_set(data, '{archive}', to_jsonb($2::boolean)), updated_at = now()
		WHERE id=$1`, quizID, archived)
	if err != nil {
		return fmt.Errorf("set archived: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}
