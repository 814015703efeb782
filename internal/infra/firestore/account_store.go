package firestore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"testseries-service/internal/domain"
)

func (s *Store) users() *firestore.CollectionRef {
	return s.client.Collection(usersCollection)
}

func (s *Store) payments() *firestore.CollectionRef {
	return s.client.Collection(paymentsCollection)
}

func (s *Store) results() *firestore.CollectionRef {
	return s.client.Collection(resultsCollection)
}

// accessField maps a series to the user document flag it unlocks.
func accessField(series domain.Series) string {
	switch series {
	case domain.SeriesIOE:
		return "ioeAccess"
	case domain.SeriesCEE:
		return "ceeAccess"
	case domain.SeriesLive:
		return "liveTestAccess"
	}
	return ""
}

func decodeUser(snap *firestore.DocumentSnapshot) (domain.User, error) {
	var user domain.User
	if err := snap.DataTo(&user); err != nil {
		return domain.User{}, fmt.Errorf("decode user %s: %w", snap.Ref.ID, err)
	}
	user.ID = snap.Ref.ID
	return user, nil
}

func decodePayment(snap *firestore.DocumentSnapshot) (domain.PaymentRequest, error) {
	var req domain.PaymentRequest
	if err := snap.DataTo(&req); err != nil {
		return domain.PaymentRequest{}, fmt.Errorf("decode payment request %s: %w", snap.Ref.ID, err)
	}
	req.ID = snap.Ref.ID
	return req, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	snap, err := s.users().Doc(userID).Get(ctx)
	if isNotFound(err) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return decodeUser(snap)
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	iter := s.users().Documents(ctx)
	defer iter.Stop()
	out := make([]domain.User, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		user, err := decodeUser(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveUser(ctx context.Context, user domain.User) error {
	if _, err := s.users().Doc(user.ID).Set(ctx, user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// UpdateProfile sets the display name and, when non-empty, the exam type.
func (s *Store) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (domain.User, error) {
	var user domain.User
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.users().Doc(userID)
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			return domain.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		user, err = decodeUser(snap)
		if err != nil {
			return err
		}
		updates := []firestore.Update{{Path: "displayName", Value: update.DisplayName}}
		user.DisplayName = update.DisplayName
		if update.ExamType != "" {
			updates = append(updates, firestore.Update{Path: "examType", Value: update.ExamType})
			user.ExamType = update.ExamType
		}
		return tx.Update(ref, updates)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// SetLiveTestAccess updates every user inside one transaction; an unknown id aborts it.
func (s *Store) SetLiveTestAccess(ctx context.Context, userIDs []string, granted bool) error {
	if len(userIDs) == 0 {
		return nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(userIDs))
	for _, id := range userIDs {
		refs = append(refs, s.users().Doc(id))
	}
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snaps, err := tx.GetAll(refs)
		if err != nil {
			return err
		}
		for _, snap := range snaps {
			if !snap.Exists() {
				return domain.ErrUserNotFound
			}
		}
		for _, ref := range refs {
			if err := tx.Update(ref, []firestore.Update{{Path: "liveTestAccess", Value: granted}}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) CreatePayment(ctx context.Context, req domain.PaymentRequest) error {
	if _, err := s.payments().Doc(req.ID).Create(ctx, req); err != nil {
		return fmt.Errorf("create payment request: %w", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (domain.PaymentRequest, error) {
	snap, err := s.payments().Doc(id).Get(ctx)
	if isNotFound(err) {
		return domain.PaymentRequest{}, domain.ErrPaymentNotFound
	}
	if err != nil {
		return domain.PaymentRequest{}, fmt.Errorf("get payment request: %w", err)
	}
	return decodePayment(snap)
}

// ListPayments returns requests newest first.
func (s *Store) ListPayments(ctx context.Context) ([]domain.PaymentRequest, error) {
	iter := s.payments().OrderBy("requestedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()
	out := make([]domain.PaymentRequest, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list payment requests: %w", err)
		}
		req, err := decodePayment(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func (s *Store) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (domain.PaymentRequest, error) {
	var req domain.PaymentRequest
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.payments().Doc(id)
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			return domain.ErrPaymentNotFound
		}
		if err != nil {
			return err
		}
		if req, err = decodePayment(snap); err != nil {
			return err
		}
		req.Status = status
		return tx.Update(ref, []firestore.Update{{Path: "status", Value: string(status)}})
	})
	if err != nil {
		return domain.PaymentRequest{}, err
	}
	return req, nil
}

// ApprovePayment merges the access flag into the user document, creating it
// when missing, in the same transaction that approves the request.
func (s *Store) ApprovePayment(ctx context.Context, id string) (domain.PaymentRequest, error) {
	var req domain.PaymentRequest
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.payments().Doc(id)
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			return domain.ErrPaymentNotFound
		}
		if err != nil {
			return err
		}
		if req, err = decodePayment(snap); err != nil {
			return err
		}
		field := accessField(req.Series)
		if field == "" {
			return domain.ErrInvalidSeries
		}
		userRef := s.users().Doc(req.UserID)
		userSnap, err := tx.Get(userRef)
		if err != nil && !isNotFound(err) {
			return err
		}

		patch := map[string]interface{}{field: true}
		if userSnap == nil || !userSnap.Exists() {
			patch["email"] = strings.ToLower(req.UserEmail)
			patch["displayName"] = req.UserName
			if req.UserPhotoURL != "" {
				patch["photoURL"] = req.UserPhotoURL
			}
		}
		req.Status = domain.PaymentApproved
		if err := tx.Update(ref, []firestore.Update{{Path: "status", Value: string(domain.PaymentApproved)}}); err != nil {
			return err
		}
		return tx.Set(userRef, patch, firestore.MergeAll)
	})
	if err != nil {
		return domain.PaymentRequest{}, err
	}
	return req, nil
}

func (s *Store) SaveResult(ctx context.Context, result domain.QuizResult) error {
	if _, err := s.results().Doc(result.ID).Set(ctx, result); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *Store) ListResults(ctx context.Context, quizID string) ([]domain.QuizResult, error) {
	iter := s.results().Where("quizId", "==", quizID).Documents(ctx)
	defer iter.Stop()
	out := make([]domain.QuizResult, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list results: %w", err)
		}
		var result domain.QuizResult
		if err := snap.DataTo(&result); err != nil {
			return nil, fmt.Errorf("decode result %s: %w", snap.Ref.ID, err)
		}
		result.ID = snap.Ref.ID
		out = append(out, result)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
