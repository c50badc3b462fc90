package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "github.com/astorino/app-ctrl/internal/errors"
	"github.com/astorino/app-ctrl/internal/models"
	"github.com/astorino/app-ctrl/internal/uuid"
	"github.com/astorino/app-ctrl/internal/validator"
)

// --- mock services ---

type mockUserService struct {
	createUserFn     func(name, email, password string) (*models.User, error)
	getUserByEmailFn func(email string) (*models.User, error)
	getUserByIDFn    func(id string) (*models.User, error)
	verifyPasswordFn func(user *models.User, password string) bool
	updateLastLoginFn func(userID string) error
	updatePasswordFn  func(userID, newPassword string) error
}

func (m *mockUserService) CreateUser(name, email, password string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(name, email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) VerifyPassword(user *models.User, password string) bool {
	if m.verifyPasswordFn != nil {
		return m.verifyPasswordFn(user, password)
	}
	return true
}

func (m *mockUserService) UpdateLastLogin(userID string) error {
	if m.updateLastLoginFn != nil {
		return m.updateLastLoginFn(userID)
	}
	return nil
}

func (m *mockUserService) UpdatePassword(userID, newPassword string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(userID, newPassword)
	}
	return nil
}

type mockAuditService struct{}

func (m *mockAuditService) Log(_, _, _, _, _ string, _ map[string]interface{}) {}

type mockResetTokenStore struct {
	issueFn   func(email string) (string, error)
	consumeFn func(token string) (string, bool)
}

func (m *mockResetTokenStore) Issue(email string) (string, error) {
	if m.issueFn != nil {
		return m.issueFn(email)
	}
	return "test-token", nil
}

func (m *mockResetTokenStore) Consume(token string) (string, bool) {
	if m.consumeFn != nil {
		return m.consumeFn(token)
	}
	return "", false
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func setupAuthRouter(handler *AuthHandler, uid string) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/refresh", handler.Refresh)
	r.POST("/auth/forgot-password", handler.ForgotPassword)
	r.POST("/auth/reset-password", handler.ResetPassword)
	r.GET("/profile", injectUserID(uid), handler.GetProfile)
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func parseJSONList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var result []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON list response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 with token pair on success", func(t *testing.T) {
		uid := uuid.New()
		userSvc := &mockUserService{
			createUserFn: func(name, email, _ string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: uid}, Name: name, Email: email}, nil
			},
		}
		handler := NewAuthHandler(userSvc, &mockResetTokenStore{})
		r := setupAuthRouter(handler, uid)

		rec := doRequest(r, "POST", "/auth/register",
			`{"name":"Test User","email":"test@example.com","password":"password123"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["access_token"] == "" || result["refresh_token"] == "" {
			t.Error("expected token pair in response")
		}
		user := result["user"].(map[string]interface{})
		if user["email"] != "test@example.com" {
			t.Errorf("expected test@example.com, got %v", user["email"])
		}
	})

	t.Run("returns 400 on missing email", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{}, &mockResetTokenStore{})
		r := setupAuthRouter(handler, uuid.New())

		rec := doRequest(r, "POST", "/auth/register", `{"password":"password123"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on short password", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{}, &mockResetTokenStore{})
		r := setupAuthRouter(handler, uuid.New())

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"test@example.com","password":"short"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate email", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(_, _, _ string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		handler := NewAuthHandler(userSvc, &mockResetTokenStore{})
		r := setupAuthRouter(handler, uuid.New())

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"dup@example.com","password":"password123"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns 200 with token pair on success", func(t *testing.T) {
		uid := uuid.New()
		userSvc := &mockUserService{
			getUserByEmailFn: func(email string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: uid}, Email: email}, nil
			},
		}
		handler := NewAuthHandler(userSvc, &mockResetTokenStore{})
		r := setupAuthRouter(handler, uid)

		rec := doRequest(r, "POST", "/auth/login",
			`{"email":"test@example.com","password":"password123"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["access_token"] == "" {
			t.Error("expected access token in response")
		}
	})

	t.Run("returns 401 on unknown email", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByEmailFn: func(_ string) (*models.User, error) {
				return nil, apperrors.ErrUserNotFound
			},
		}
		handler := NewAuthHandler(userSvc, &mockResetTokenStore{})
		r := setupAuthRouter(handler, uuid.New())

		rec := doRequest(r, "POST", "/auth/login",
			`{"email":"nobody@example.com","password":"password123"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 401 on wrong password", func(t *testing.T) {
		userSvc := &mockUserService{
			verifyPasswordFn: func(_ *models.User, _ string) bool { return false },
		}
		handler := NewAuthHandler(userSvc, &mockResetTokenStore{})
		r := setupAuthRouter(handler, uuid.New())

		rec := doRequest(r, "POST", "/auth/login",
			`{"email":"test@example.com","password":"wrongpass1"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("returns 401 on garbage token", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{}, &mockResetTokenStore{})
		r := setupAuthRouter(handler, uuid.New())

		rec := doRequest(r, "POST", "/auth/refresh", `{"refresh_token":"not-a-jwt"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on missing token", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{}, &mockResetTokenStore{})
		r := setupAuthRouter(handler, uuid.New())

		rec := doRequest(r, "POST", "/auth/refresh", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_GetProfile(t *testing.T) {
	t.Run("returns 200 with user data", func(t *testing.T) {
		uid := uuid.New()
		userSvc := &mockUserService{
			getUserByIDFn: func(id string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: id}, Email: "test@example.com", Name: "Test User"}, nil
			},
		}
		handler := NewAuthHandler(userSvc, &mockResetTokenStore{})
		r := setupAuthRouter(handler, uid)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		user := result["user"].(map[string]interface{})
		if user["id"] != uid {
			t.Errorf("expected user ID %s, got %v", uid, user["id"])
		}
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{}, &mockResetTokenStore{})
		r := gin.New()
		r.GET("/profile", handler.GetProfile)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	t.Run("issues token for known email", func(t *testing.T) {
		store := &mockResetTokenStore{
			issueFn: func(email string) (string, error) { return "issued-token", nil },
		}
		handler := NewAuthHandler(&mockUserService{}, store)
		r := setupAuthRouter(handler, uuid.New())

		rec := doRequest(r, "POST", "/auth/forgot-password", `{"email":"test@example.com"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["token"] != "issued-token" {
			t.Errorf("expected issued token, got %v", result["token"])
		}
	})

	t.Run("gives the same answer for unknown email", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByEmailFn: func(_ string) (*models.User, error) {
				return nil, apperrors.ErrUserNotFound
			},
		}
		handler := NewAuthHandler(userSvc, &mockResetTokenStore{})
		r := setupAuthRouter(handler, uuid.New())

		rec := doRequest(r, "POST", "/auth/forgot-password", `{"email":"nobody@example.com"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if _, hasToken := parseJSON(t, rec)["token"]; hasToken {
			t.Error("unknown email must not receive a token")
		}
	})
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	t.Run("updates password on valid token", func(t *testing.T) {
		var updatedID string
		uid := uuid.New()
		userSvc := &mockUserService{
			getUserByEmailFn: func(email string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: uid}, Email: email}, nil
			},
			updatePasswordFn: func(userID, _ string) error {
				updatedID = userID
				return nil
			},
		}
		store := &mockResetTokenStore{
			consumeFn: func(token string) (string, bool) {
				if token == "valid-token" {
					return "test@example.com", true
				}
				return "", false
			},
		}
		handler := NewAuthHandler(userSvc, store)
		r := setupAuthRouter(handler, uid)

		rec := doRequest(r, "POST", "/auth/reset-password",
			`{"token":"valid-token","password":"newpassword1"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if updatedID != uid {
			t.Errorf("expected password update for %s, got %q", uid, updatedID)
		}
	})

	t.Run("returns 401 on consumed or unknown token", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{}, &mockResetTokenStore{})
		r := setupAuthRouter(handler, uuid.New())

		rec := doRequest(r, "POST", "/auth/reset-password",
			`{"token":"bogus","password":"newpassword1"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_RESET_TOKEN")
	})
}
