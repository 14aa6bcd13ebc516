package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/pkg/validate"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/repo/postgres"
)

type UserStore interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id int64) (model.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type Service struct {
	users    UserStore
	registry RefreshRegistry
	codec    *Codec
}

func NewService(users UserStore, registry RefreshRegistry, codec *Codec) *Service {
	return &Service{
		users:    users,
		registry: registry,
		codec:    codec,
	}
}

// Register creates an account with the STUDENT role unless INSTRUCTOR
// is requested. ADMIN cannot be self-assigned here; admins are promoted
// through the admin user management endpoint.
func (s *Service) Register(ctx context.Context, name, email, password string, role enums.Role) (AuthResult, error) {
	if !validate.Required(name) || !validate.Email(email) || !validate.Password(password) {
		return AuthResult{}, ErrInvalidInput
	}
	if role == "" {
		role = enums.RoleStudent
	}
	if !role.Valid() || role == enums.RoleAdmin {
		return AuthResult{}, ErrInvalidInput
	}

	hash, err := HashPassword(password)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.Create(ctx, model.User{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, postgres.ErrEmailTaken) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	return s.issuePair(ctx, user)
}

// Login deliberately collapses "unknown email" and "wrong password"
// into one error so the endpoint cannot be used to probe for accounts.
func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("find user by email: %w", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.issuePair(ctx, user)
}

// Refresh rotates a refresh token. The checks run in a fixed order:
// registry membership, signature and expiry, then subject existence.
// Each token rotates at most once; when two requests race on the same
// token the loser fails the registry check.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return AuthResult{}, ErrTokenInvalid
	}

	ok, err := s.registry.IsValid(ctx, refreshToken)
	if err != nil {
		return AuthResult{}, fmt.Errorf("check refresh registry: %w", err)
	}
	if !ok {
		return AuthResult{}, ErrTokenInvalid
	}

	principal, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.FindByID(ctx, principal.SubjectID)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			_ = s.registry.Revoke(ctx, refreshToken)
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("find user by id: %w", err)
	}

	if err := s.registry.Revoke(ctx, refreshToken); err != nil {
		return AuthResult{}, fmt.Errorf("revoke rotated token: %w", err)
	}

	return s.issuePair(ctx, user)
}

// Logout revokes the given refresh token. Unknown or already-revoked
// tokens are not an error; logout is idempotent. Outstanding access
// tokens keep working until their own expiry.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	return s.registry.Revoke(ctx, refreshToken)
}

func (s *Service) LogoutAll(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrInvalidInput
	}
	return s.registry.RevokeAllForSubject(ctx, userID)
}

// ChangePassword verifies the current password, stores the new hash,
// and revokes every refresh token of the user.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if !validate.Password(newPassword) {
		return ErrInvalidInput
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("find user by id: %w", err)
	}

	if !CheckPassword(user.PasswordHash, oldPassword) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return s.registry.RevokeAllForSubject(ctx, user.ID)
}

func (s *Service) issuePair(ctx context.Context, user model.User) (AuthResult, error) {
	principal := Principal{
		SubjectID: user.ID,
		Email:     user.Email,
		Role:      user.Role,
	}

	accessToken, accessExp, err := s.codec.IssueAccess(principal)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, refreshExp, err := s.codec.IssueRefresh(principal)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.registry.Store(ctx, user.ID, refreshToken, refreshExp); err != nil {
		return AuthResult{}, fmt.Errorf("store refresh token: %w", err)
	}

	return AuthResult{
		User: UserInfo{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
		Tokens: TokenPair{
			AccessToken:      accessToken,
			RefreshToken:     refreshToken,
			AccessExpiresAt:  accessExp,
			RefreshExpiresAt: refreshExp,
		},
	}, nil
}
