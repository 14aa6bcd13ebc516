package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/repo/postgres"
)

type memUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{nextID: 1, users: make(map[int64]model.User)}
}

func (s *memUserStore) Create(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.User{}, postgres.ErrEmailTaken
		}
	}
	u.ID = s.nextID
	s.nextID++
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	return u, nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, postgres.ErrUserNotFound
}

func (s *memUserStore) FindByID(_ context.Context, id int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, postgres.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return postgres.ErrUserNotFound
	}
	u.PasswordHash = hash
	s.users[id] = u
	return nil
}

func (s *memUserStore) setRole(id int64, role enums.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.Role = role
	s.users[id] = u
}

func (s *memUserStore) delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func newServiceForTest() (*Service, *memUserStore, *MemoryRegistry) {
	users := newMemUserStore()
	registry := NewMemoryRegistry()
	codec := NewCodec("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	return NewService(users, registry, codec), users, registry
}

func TestRegisterDefaultsToStudent(t *testing.T) {
	svc, _, _ := newServiceForTest()

	result, err := svc.Register(context.Background(), "Ada", "ada@example.com", "Secret123", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.User.Role != enums.RoleStudent {
		t.Fatalf("expected STUDENT default, got %s", result.User.Role)
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatalf("expected full token pair")
	}
}

func TestRegisterRejectsAdminSelfAssignment(t *testing.T) {
	svc, _, _ := newServiceForTest()

	_, err := svc.Register(context.Background(), "Eve", "eve@example.com", "Secret123", enums.RoleAdmin)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newServiceForTest()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "Secret123", ""); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, "Ada II", "ada@example.com", "Secret456", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginDoesNotRevealWhichCheckFailed(t *testing.T) {
	svc, _, _ := newServiceForTest()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "Secret123", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, unknownErr := svc.Login(ctx, "nobody@example.com", "Secret123")
	_, wrongPassErr := svc.Login(ctx, "ada@example.com", "WrongPass1")

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongPassErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassErr)
	}
}

func TestRefreshRotatesExactlyOnce(t *testing.T) {
	svc, _, _ := newServiceForTest()
	ctx := context.Background()

	result, err := svc.Register(ctx, "Ada", "ada@example.com", "Secret123", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	original := result.Tokens.RefreshToken

	rotated, err := svc.Refresh(ctx, original)
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if rotated.Tokens.RefreshToken == original {
		t.Fatalf("rotation must mint a new refresh token")
	}

	if _, err := svc.Refresh(ctx, original); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("second use of rotated token: expected ErrTokenInvalid, got %v", err)
	}

	if _, err := svc.Refresh(ctx, rotated.Tokens.RefreshToken); err != nil {
		t.Fatalf("refresh with rotated token: %v", err)
	}
}

func TestRefreshAfterLogoutFails(t *testing.T) {
	svc, _, _ := newServiceForTest()
	ctx := context.Background()

	result, err := svc.Register(ctx, "Ada", "ada@example.com", "Secret123", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Logout(ctx, result.Tokens.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	// A second logout with the same token stays silent.
	if err := svc.Logout(ctx, result.Tokens.RefreshToken); err != nil {
		t.Fatalf("repeated logout: %v", err)
	}

	if _, err := svc.Refresh(ctx, result.Tokens.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid after logout, got %v", err)
	}
}

func TestRefreshForDeletedSubject(t *testing.T) {
	svc, users, registry := newServiceForTest()
	ctx := context.Background()

	result, err := svc.Register(ctx, "Ada", "ada@example.com", "Secret123", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	users.delete(result.User.ID)

	if _, err := svc.Refresh(ctx, result.Tokens.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for deleted subject, got %v", err)
	}

	// The dangling token was revoked, so a retry fails the registry check.
	if ok, _ := registry.IsValid(ctx, result.Tokens.RefreshToken); ok {
		t.Fatalf("token for deleted subject must be revoked")
	}
}

func TestRefreshPicksUpCurrentRole(t *testing.T) {
	svc, users, _ := newServiceForTest()
	ctx := context.Background()

	result, err := svc.Register(ctx, "Ada", "ada@example.com", "Secret123", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	users.setRole(result.User.ID, enums.RoleInstructor)

	rotated, err := svc.Refresh(ctx, result.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.User.Role != enums.RoleInstructor {
		t.Fatalf("refresh must reflect the current role, got %s", rotated.User.Role)
	}
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	svc, _, _ := newServiceForTest()
	ctx := context.Background()

	first, err := svc.Register(ctx, "Ada", "ada@example.com", "Secret123", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	second, err := svc.Login(ctx, "ada@example.com", "Secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.LogoutAll(ctx, first.User.ID); err != nil {
		t.Fatalf("logout all: %v", err)
	}

	if _, err := svc.Refresh(ctx, first.Tokens.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("first session must be dead, got %v", err)
	}
	if _, err := svc.Refresh(ctx, second.Tokens.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("second session must be dead, got %v", err)
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	svc, _, _ := newServiceForTest()
	ctx := context.Background()

	result, err := svc.Register(ctx, "Ada", "ada@example.com", "Secret123", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(ctx, result.User.ID, "WrongOld1", "NewSecret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong old password: expected ErrInvalidCredentials, got %v", err)
	}

	if err := svc.ChangePassword(ctx, result.User.ID, "Secret123", "NewSecret1"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := svc.Refresh(ctx, result.Tokens.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("old refresh token must be revoked, got %v", err)
	}

	if _, err := svc.Login(ctx, "ada@example.com", "Secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := svc.Login(ctx, "ada@example.com", "NewSecret1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestForgedRefreshTokenFailsRegistryFirst(t *testing.T) {
	svc, _, _ := newServiceForTest()
	ctx := context.Background()

	foreign := NewCodec("other-access", "other-refresh", 15*time.Minute, time.Hour)
	forged, _, err := foreign.IssueRefresh(Principal{SubjectID: 1, Role: enums.RoleStudent})
	if err != nil {
		t.Fatalf("issue forged token: %v", err)
	}

	if _, err := svc.Refresh(ctx, forged); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for forged token, got %v", err)
	}
}
