package apiapp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
	authsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
)

func newTestCodec(t *testing.T) *authsvc.Codec {
	t.Helper()
	return authsvc.NewCodec("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func issueAccess(t *testing.T, codec *authsvc.Codec, p authsvc.Principal) string {
	t.Helper()
	token, _, err := codec.IssueAccess(p)
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}
	return token
}

func identityEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("X-User-Email", identity.Email)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	codec := newTestCodec(t)
	token := issueAccess(t, codec, authsvc.Principal{SubjectID: 7, Email: "a@b.c", Role: enums.RoleStudent})

	handler := AuthMiddleware(codec)(identityEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-User-Email"); got != "a@b.c" {
		t.Fatalf("expected identity email a@b.c, got %q", got)
	}
}

func TestAuthMiddlewareRejectsMissingAndMalformedHeaders(t *testing.T) {
	codec := newTestCodec(t)
	handler := AuthMiddleware(codec)(identityEcho(t))

	headers := []string{
		"",
		"Bearer",
		"Bearer ",
		"Basic dXNlcjpwYXNz",
		"garbage",
	}

	for _, value := range headers {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if value != "" {
			req.Header.Set("Authorization", value)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", value, rec.Code)
		}
	}
}

func TestAuthMiddlewareRejectsRefreshTokenAsAccess(t *testing.T) {
	codec := newTestCodec(t)
	refresh, _, err := codec.IssueRefresh(authsvc.Principal{SubjectID: 7, Email: "a@b.c", Role: enums.RoleStudent})
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	handler := AuthMiddleware(codec)(identityEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for refresh token on access route, got %d", rec.Code)
	}
}

func TestOptionalAuthMiddlewareDegradesToAnonymous(t *testing.T) {
	codec := newTestCodec(t)
	handler := OptionalAuthMiddleware(codec)(identityEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected anonymous pass-through, got %d", rec.Code)
	}
}

func TestOptionalAuthMiddlewareAttachesIdentity(t *testing.T) {
	codec := newTestCodec(t)
	token := issueAccess(t, codec, authsvc.Principal{SubjectID: 9, Email: "opt@b.c", Role: enums.RoleInstructor})

	handler := OptionalAuthMiddleware(codec)(identityEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected identity pass-through, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-User-Email"); got != "opt@b.c" {
		t.Fatalf("expected identity email opt@b.c, got %q", got)
	}
}

func TestRequireRole(t *testing.T) {
	codec := newTestCodec(t)
	adminToken := issueAccess(t, codec, authsvc.Principal{SubjectID: 1, Email: "admin@b.c", Role: enums.RoleAdmin})
	studentToken := issueAccess(t, codec, authsvc.Principal{SubjectID: 2, Email: "stud@b.c", Role: enums.RoleStudent})

	handler := AuthMiddleware(codec)(RequireRole("admin")(identityEcho(t)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected admin through, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+studentToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected student forbidden, got %d", rec.Code)
	}
}

func TestRequireRoleWithoutIdentityIsUnauthorized(t *testing.T) {
	handler := RequireRole("ADMIN")(identityEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}
}
