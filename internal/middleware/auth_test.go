package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"formsportal/internal/model"
	"formsportal/internal/repository"
	"formsportal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const testSecret = "test-secret"

type stubAccessStore struct {
	entries map[string]*model.UserAccess
	calls   int
}

func (s *stubAccessStore) GetAccess(ctx context.Context, userID string) (*model.UserAccess, error) {
	s.calls++
	if a, ok := s.entries[userID]; ok {
		return a, nil
	}
	return nil, repository.ErrNotFound
}

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := SignToken(testSecret, Claims{UserID: userID, Name: "Test User", Role: role}, time.Hour)
	if err != nil {
		t.Fatalf("SignToken failed: %v", err)
	}
	return tok
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user": c.GetString(CtxUserID),
			"role": c.GetString(CtxUserRole),
		})
	})
	r.GET("/", handlers...)
	return r
}

func do(r *gin.Engine, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignAndParseToken(t *testing.T) {
	auth := NewAuth(testSecret, nil, 0, nil)
	claims, err := auth.ParseToken(token(t, "u-1", model.RoleApprover))
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.UserID != "u-1" || claims.Role != model.RoleApprover || claims.Name != "Test User" {
		t.Errorf("Unexpected claims %+v", claims)
	}

	other := NewAuth("another-secret", nil, 0, nil)
	if _, err := other.ParseToken(token(t, "u-1", model.RoleApprover)); err == nil {
		t.Error("Expected a token signed with another secret to be rejected")
	}

	expired, _ := SignToken(testSecret, Claims{UserID: "u-1", Role: model.RoleEmployee}, -time.Minute)
	if _, err := auth.ParseToken(expired); err == nil {
		t.Error("Expected an expired token to be rejected")
	}
}

func TestRequireRole(t *testing.T) {
	auth := NewAuth(testSecret, nil, 0, nil)
	r := newRouter(auth.RequireRole(model.RoleApprover))

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"wrong role", token(t, "u-1", model.RoleEmployee), http.StatusForbidden},
		{"approver", token(t, "u-2", model.RoleApprover), http.StatusOK},
		{"admin", token(t, "u-3", model.RoleAdmin), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.token)
			if w.Code != tt.status {
				t.Fatalf("Expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if w.Code != http.StatusOK {
				var body response.Response
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("Invalid error body: %v", err)
				}
				if body.Success || body.ErrorKind == "" || body.Message == "" {
					t.Errorf("Unexpected error body %+v", body)
				}
			}
		})
	}
}

func TestRequireRoleAcceptsCookie(t *testing.T) {
	auth := NewAuth(testSecret, nil, 0, nil)
	r := newRouter(auth.RequireRole())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token(t, "u-1", model.RoleEmployee)})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestRequireFormAccess(t *testing.T) {
	store := &stubAccessStore{entries: map[string]*model.UserAccess{
		"u-1": {UserID: uuid.New(), Role: model.RoleApprover, AccessForms: datatypes.NewJSONType([]string{"purchase_request"})},
		"u-2": {UserID: uuid.New(), Role: model.RoleEmployee, AccessForms: datatypes.NewJSONType([]string{"*"})},
	}}
	auth := NewAuth(testSecret, store, time.Minute, nil)
	pr := newRouter(auth.RequireFormAccess("purchase_request"))
	ca := newRouter(auth.RequireFormAccess("cash_advance"))

	w := do(pr, token(t, "u-1", model.RoleEmployee))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["role"] != model.RoleApprover {
		t.Errorf("Expected the access role to replace the token role, got %s", body["role"])
	}

	if w := do(ca, token(t, "u-1", model.RoleEmployee)); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for an unlisted form, got %d", w.Code)
	}
	if w := do(ca, token(t, "u-2", model.RoleEmployee)); w.Code != http.StatusOK {
		t.Errorf("Expected the wildcard to pass, got %d", w.Code)
	}
	if w := do(pr, token(t, "u-9", model.RoleEmployee)); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 without an access entry, got %d", w.Code)
	}
	if w := do(ca, token(t, "root", model.RoleAdmin)); w.Code != http.StatusOK {
		t.Errorf("Expected admin to pass, got %d", w.Code)
	}
}

func TestAccessIsCached(t *testing.T) {
	store := &stubAccessStore{entries: map[string]*model.UserAccess{
		"u-1": {Role: model.RoleEmployee, AccessForms: datatypes.NewJSONType([]string{"transmittal"})},
	}}
	auth := NewAuth(testSecret, store, time.Minute, nil)
	r := newRouter(auth.RequireFormAccess("transmittal"))
	tok := token(t, "u-1", model.RoleEmployee)

	do(r, tok)
	do(r, tok)
	if store.calls != 1 {
		t.Errorf("Expected one store lookup, got %d", store.calls)
	}

	auth.ForgetAccess("u-1")
	do(r, tok)
	if store.calls != 2 {
		t.Errorf("Expected a lookup after ForgetAccess, got %d", store.calls)
	}
}
