package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/repo/postgres"
	usersvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/users"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/dto"
)

type fakeUserStore struct {
	users map[int64]model.User
}

func (s *fakeUserStore) FindByID(_ context.Context, id int64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, postgres.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) List(_ context.Context, _, _ int) ([]model.User, int, error) {
	var out []model.User
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (s *fakeUserStore) UpdateRole(_ context.Context, id int64, role string) error {
	u, ok := s.users[id]
	if !ok {
		return postgres.ErrUserNotFound
	}
	u.Role = enums.Role(role)
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.users[id]; !ok {
		return postgres.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

type fakeRevoker struct {
	revoked []int64
}

func (f *fakeRevoker) RevokeAllForSubject(_ context.Context, subjectID int64) error {
	f.revoked = append(f.revoked, subjectID)
	return nil
}

func newAdminHandlerForTest() (*AdminHandler, *fakeUserStore, *fakeRevoker) {
	store := &fakeUserStore{users: map[int64]model.User{
		1: {ID: 1, Name: "Root", Email: "root@test.local", Role: enums.RoleAdmin},
		2: {ID: 2, Name: "Student", Email: "student@test.local", Role: enums.RoleStudent},
	}}
	revoker := &fakeRevoker{}
	return NewAdminHandler(usersvc.NewService(store, revoker)), store, revoker
}

func deleteUser(t *testing.T, handler *AdminHandler, callerID, targetID int64) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodDelete, "/admin/users/x", nil)
	ctx := withURLParam(req.Context(), "userID", strconv.FormatInt(targetID, 10))
	req = req.WithContext(withIdentity(ctx, callerID, enums.RoleAdmin))

	rr := httptest.NewRecorder()
	handler.DeleteUser(rr, req)
	return rr
}

func TestAdminCannotDeleteOwnAccount(t *testing.T) {
	handler, store, revoker := newAdminHandlerForTest()

	rr := deleteUser(t, handler, 1, 1)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusForbidden)
	}
	if _, ok := store.users[1]; !ok {
		t.Fatalf("admin account must survive a self-delete attempt")
	}
	if len(revoker.revoked) != 0 {
		t.Fatalf("no sessions may be revoked on a refused delete")
	}
}

func TestDeleteUserRevokesTheirSessions(t *testing.T) {
	handler, store, revoker := newAdminHandlerForTest()

	rr := deleteUser(t, handler, 1, 2)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	if _, ok := store.users[2]; ok {
		t.Fatalf("expected user 2 to be deleted")
	}
	if len(revoker.revoked) != 1 || revoker.revoked[0] != 2 {
		t.Fatalf("expected sessions of user 2 revoked, got %v", revoker.revoked)
	}
}

func TestDeleteMissingUserIsNotFound(t *testing.T) {
	handler, _, _ := newAdminHandlerForTest()

	// Missing target answers 404 even when the id matches the caller.
	rr := deleteUser(t, handler, 9, 9)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNotFound)
	}
}

func TestChangeRoleRevokesSessions(t *testing.T) {
	handler, store, revoker := newAdminHandlerForTest()

	body, _ := json.Marshal(dto.ChangeRoleRequest{Role: "INSTRUCTOR"})
	req := httptest.NewRequest(http.MethodPut, "/admin/users/2/role", bytes.NewReader(body))
	ctx := withURLParam(req.Context(), "userID", "2")
	req = req.WithContext(withIdentity(ctx, 1, enums.RoleAdmin))

	rr := httptest.NewRecorder()
	handler.ChangeRole(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if store.users[2].Role != enums.RoleInstructor {
		t.Fatalf("expected role change to stick, got %s", store.users[2].Role)
	}
	if len(revoker.revoked) != 1 || revoker.revoked[0] != 2 {
		t.Fatalf("expected sessions of user 2 revoked, got %v", revoker.revoked)
	}
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	handler, store, _ := newAdminHandlerForTest()

	body, _ := json.Marshal(dto.ChangeRoleRequest{Role: "SUPERUSER"})
	req := httptest.NewRequest(http.MethodPut, "/admin/users/2/role", bytes.NewReader(body))
	ctx := withURLParam(req.Context(), "userID", "2")
	req = req.WithContext(withIdentity(ctx, 1, enums.RoleAdmin))

	rr := httptest.NewRecorder()
	handler.ChangeRole(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
	if store.users[2].Role != enums.RoleStudent {
		t.Fatalf("role must not change on rejected request")
	}
}

func TestListUsers(t *testing.T) {
	handler, _, _ := newAdminHandlerForTest()

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req = req.WithContext(withIdentity(req.Context(), 1, enums.RoleAdmin))

	rr := httptest.NewRecorder()
	handler.ListUsers(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload dto.UserListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Total != 2 {
		t.Fatalf("expected 2 users, got %d", payload.Total)
	}
}
