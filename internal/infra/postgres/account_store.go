package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"testseries-service/internal/domain"
)

func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return getUser(ctx, s.pool, userID, false)
}

func getUser(ctx context.Context, q querier, userID string, lock bool) (domain.User, error) {
	sql := `SELECT data FROM users WHERE id=$1`
	if lock {
		sql += ` FOR UPDATE`
	}
	user, err := scanDoc[domain.User](q.QueryRow(ctx, sql, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	user.ID = userID
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := queryDocs[domain.User](ctx, s.pool, `SELECT data FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Store) SaveUser(ctx context.Context, user domain.User) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return saveUser(ctx, tx, user)
	})
}

func saveUser(ctx context.Context, tx pgx.Tx, user domain.User) error {
	data, err := marshalDoc(user)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, email, data) VALUES ($1, lower($2), $3::jsonb)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, data = EXCLUDED.data`,
		user.ID, user.Email, data)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// UpdateProfile sets the display name and, when non-empty, the exam type.
func (s *Store) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (domain.User, error) {
	var user domain.User
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		user, err = getUser(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		user.DisplayName = update.DisplayName
		if update.ExamType != "" {
			user.ExamType = update.ExamType
		}
		return saveUser(ctx, tx, user)
	})
	return user, err
}

// SetLiveTestAccess updates all users in one transaction; an unknown id rolls everything back.
func (s *Store) SetLiveTestAccess(ctx context.Context, userIDs []string, granted bool) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE users SET data = jsonb_set(data, '{liveTestAccess}', to_jsonb($2::boolean))
			WHERE id = ANY($1)`, userIDs, granted)
		if err != nil {
			return fmt.Errorf("set live test access: %w", err)
		}
		if int(tag.RowsAffected()) != len(userIDs) {
			return domain.ErrUserNotFound
		}
		return nil
	})
}

func (s *Store) CreatePayment(ctx context.Context, req domain.PaymentRequest) error {
	data, err := marshalDoc(req)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO payment_requests (id, user_id, user_email, series, status, requested_at, data)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7::jsonb)`,
		req.ID, req.UserID, req.UserEmail, string(req.Series), string(req.Status), req.RequestedAt, data)
	if err != nil {
		return fmt.Errorf("create payment request: %w", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (domain.PaymentRequest, error) {
	return getPayment(ctx, s.pool, id, false)
}

func getPayment(ctx context.Context, q querier, id string, lock bool) (domain.PaymentRequest, error) {
	sql := `SELECT data FROM payment_requests WHERE id=$1`
	if lock {
		sql += ` FOR UPDATE`
	}
	req, err := scanDoc[domain.PaymentRequest](q.QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PaymentRequest{}, domain.ErrPaymentNotFound
	}
	if err != nil {
		return domain.PaymentRequest{}, fmt.Errorf("get payment request: %w", err)
	}
	req.ID = id
	return req, nil
}

// ListPayments returns requests newest first.
func (s *Store) ListPayments(ctx context.Context) ([]domain.PaymentRequest, error) {
	reqs, err := queryDocs[domain.PaymentRequest](ctx, s.pool,
		`SELECT data FROM payment_requests ORDER BY requested_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list payment requests: %w", err)
	}
	return reqs, nil
}

func (s *Store) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (domain.PaymentRequest, error) {
	var req domain.PaymentRequest
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		req, err = setPaymentStatus(ctx, tx, id, status)
		return err
	})
	return req, err
}

func setPaymentStatus(ctx context.Context, tx pgx.Tx, id string, status domain.PaymentStatus) (domain.PaymentRequest, error) {
	req, err := getPayment(ctx, tx, id, true)
	if err != nil {
		return domain.PaymentRequest{}, err
	}
	req.Status = status
	data, err := marshalDoc(req)
	if err != nil {
		return domain.PaymentRequest{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE payment_requests SET status=$2, data=$3::jsonb WHERE id=$1`,
		id, string(status), data); err != nil {
		return domain.PaymentRequest{}, fmt.Errorf("update payment request: %w", err)
	}
	return req, nil
}

// ApprovePayment creates the user record when it is missing so the grant is never lost.
func (s *Store) ApprovePayment(ctx context.Context, id string) (domain.PaymentRequest, error) {
	var req domain.PaymentRequest
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		req, err = setPaymentStatus(ctx, tx, id, domain.PaymentApproved)
		if err != nil {
			return err
		}
		user, err := getUser(ctx, tx, req.UserID, true)
		if errors.Is(err, domain.ErrUserNotFound) {
			user = domain.User{ID: req.UserID, Email: req.UserEmail, DisplayName: req.UserName, PhotoURL: req.UserPhotoURL}
		} else if err != nil {
			return err
		}
		return saveUser(ctx, tx, user.WithAccess(req.Series, true))
	})
	return req, err
}

func (s *Store) SaveResult(ctx context.Context, result domain.QuizResult) error {
	data, err := marshalDoc(result)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quiz_results (id, quiz_id, user_id, submitted_at, data)
		VALUES ($1, $2, $3, $4, $5::jsonb)`,
		result.ID, result.QuizID, result.UserID, result.SubmittedAt, data)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *Store) ListResults(ctx context.Context, quizID string) ([]domain.QuizResult, error) {
	results, err := queryDocs[domain.QuizResult](ctx, s.pool,
		`SELECT data FROM quiz_results WHERE quiz_id=$1 ORDER BY submitted_at, id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
