package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"testseries-service/internal/domain"
	"testseries-service/internal/validate"
)

// AccountService resolves callers to user records and edits profiles.
type AccountService struct {
	users UserStore
	opts  options
}

func NewAccountService(users UserStore, opts ...Option) *AccountService {
	return &AccountService{users: users, opts: buildOptions(opts)}
}

// Resolve loads the caller's record, creating a record with no access on first sight.
// An admin role asserted by the auth provider is carried onto the returned user.
func (s *AccountService) Resolve(ctx context.Context, id domain.Identity) (domain.User, error) {
	if id.UID == "" {
		return domain.User{}, domain.ErrUnauthenticated
	}
	user, err := s.users.GetUser(ctx, id.UID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		now := s.opts.now()
		user = domain.User{
			ID:          id.UID,
			Email:       id.Email,
			DisplayName: id.Name,
			PhotoURL:    id.PhotoURL,
			CreatedAt:   now,
			LastLogin:   now,
		}
		if err := s.users.SaveUser(ctx, user); err != nil {
			return domain.User{}, fmt.Errorf("create user: %w", err)
		}
		slog.Info("user record created", "user", id.UID)
	case err != nil:
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	if user.Email == "" {
		user.Email = id.Email
	}
	if strings.EqualFold(id.Role, domain.RoleAdmin) {
		user.Role = domain.RoleAdmin
	}
	return user, nil
}

// UpdateProfile changes the display name (required) and exam-type preference.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (domain.User, error) {
	update.DisplayName = strings.TrimSpace(update.DisplayName)
	update.ExamType = domain.NormalizeExamType(update.ExamType)
	if err := validate.Struct(update); err != nil {
		return domain.User{}, err
	}
	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}
