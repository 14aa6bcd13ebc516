package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/repo/postgres"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrInvalidRole = errors.New("invalid role")
	ErrSelfDelete  = errors.New("admins cannot delete their own account")
)

type UserStore interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	List(ctx context.Context, limit, offset int) ([]model.User, int, error)
	UpdateRole(ctx context.Context, id int64, role string) error
	Delete(ctx context.Context, id int64) error
}

type SessionRevoker interface {
	RevokeAllForSubject(ctx context.Context, subjectID int64) error
}

// Service is the admin-facing user management surface. Route-level
// RequireRole(ADMIN) guards every call; the service only enforces the
// rules that depend on which admin is asking.
type Service struct {
	users    UserStore
	sessions SessionRevoker
}

type ListResult struct {
	Users []model.User
	Total int
}

func NewService(users UserStore, sessions SessionRevoker) *Service {
	return &Service{users: users, sessions: sessions}
}

func (s *Service) List(ctx context.Context, limit, offset int) (ListResult, error) {
	items, total, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return ListResult{}, fmt.Errorf("list users: %w", err)
	}
	return ListResult{Users: items, Total: total}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// ChangeRole promotes or demotes a user and kills their refresh
// tokens so the next refresh reissues with the new role.
func (s *Service) ChangeRole(ctx context.Context, id int64, role enums.Role) (model.User, error) {
	if !role.Valid() {
		return model.User{}, ErrInvalidRole
	}

	if _, err := s.Get(ctx, id); err != nil {
		return model.User{}, err
	}

	if err := s.users.UpdateRole(ctx, id, string(role)); err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("update role: %w", err)
	}

	if err := s.sessions.RevokeAllForSubject(ctx, id); err != nil {
		return model.User{}, fmt.Errorf("revoke sessions: %w", err)
	}

	return s.Get(ctx, id)
}

// Delete removes a user and revokes all their refresh tokens. The
// existence check runs first so a missing user is not-found even for
// the self-delete case. An admin cannot delete their own account.
func (s *Service) Delete(ctx context.Context, identity auth.Identity, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if identity.UserID == id {
		return ErrSelfDelete
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	return s.sessions.RevokeAllForSubject(ctx, id)
}

type PlatformStats struct {
	UserCount int
}

func (s *Service) Stats(ctx context.Context) (PlatformStats, error) {
	_, total, err := s.users.List(ctx, 1, 0)
	if err != nil {
		return PlatformStats{}, fmt.Errorf("count users: %w", err)
	}
	return PlatformStats{UserCount: total}, nil
}
