package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"taskboard/internal/auth"
	"taskboard/internal/model"
	"taskboard/internal/service"
)

// stubAuthService lets each test script the orchestrator's answer.
type stubAuthService struct {
	registerFn    func(ctx context.Context, email, password string, name *string) (*model.User, auth.TokenPair, error)
	loginFn       func(ctx context.Context, email, password string) (*model.User, auth.TokenPair, error)
	refreshFn     func(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	logoutFn      func(ctx context.Context, accessToken string) error
	currentUserFn func(ctx context.Context, accessToken, refreshToken string) (*model.User, auth.SessionState, error)
}

func (s *stubAuthService) Register(ctx context.Context, email, password string, name *string) (*model.User, auth.TokenPair, error) {
	return s.registerFn(ctx, email, password, name)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*model.User, auth.TokenPair, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubAuthService) Logout(ctx context.Context, accessToken string) error {
	return s.logoutFn(ctx, accessToken)
}

func (s *stubAuthService) CurrentUser(ctx context.Context, accessToken, refreshToken string) (*model.User, auth.SessionState, error) {
	return s.currentUserFn(ctx, accessToken, refreshToken)
}

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func newAuthTestContext(method, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, "/", nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sessionCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	cookies := make(map[string]*http.Cookie)
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	return cookies
}

func testUser(email string) *model.User {
	return &model.User{ID: uuid.New(), Email: email, CreatedAt: time.Now()}
}

func TestAuthHandler_RegisterSuccess(t *testing.T) {
	user := testUser("a@b.com")
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, email, password string, name *string) (*model.User, auth.TokenPair, error) {
			assert.Equal(t, "a@b.com", email)
			assert.Equal(t, "secret1", password)
			return user, auth.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
		},
	}
	h := NewAuthHandler(stub, auth.NewCookieManager(false))

	c, rec := newAuthTestContext(http.MethodPost, `{"email":"a@b.com","password":"secret1"}`)
	assert.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp AuthResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Registration successful", resp.Message)
	assert.Equal(t, "a@b.com", resp.User.Email)

	cookies := sessionCookies(rec)
	assert.Equal(t, "new-access", cookies[auth.AccessTokenCookie].Value)
	assert.Equal(t, "new-refresh", cookies[auth.RefreshTokenCookie].Value)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "missing email", body: `{"password":"secret1"}`, message: "Email and password are required"},
		{name: "missing password", body: `{"email":"a@b.com"}`, message: "Email and password are required"},
		{name: "bad email shape", body: `{"email":"not-an-email","password":"secret1"}`, message: "Invalid email format"},
		{name: "short password", body: `{"email":"a@b.com","password":"abc"}`, message: "Password must be at least 6 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&stubAuthService{}, auth.NewCookieManager(false))
			c, rec := newAuthTestContext(http.MethodPost, tt.body)
			assert.NoError(t, h.Register(c))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
		})
	}
}

func TestAuthHandler_RegisterConflict(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, email, password string, name *string) (*model.User, auth.TokenPair, error) {
			return nil, auth.TokenPair{}, service.ErrEmailTaken
		},
	}
	h := NewAuthHandler(stub, auth.NewCookieManager(false))

	c, rec := newAuthTestContext(http.MethodPost, `{"email":"a@b.com","password":"secret1"}`)
	assert.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "User with this email already exists")
	assert.Empty(t, sessionCookies(rec))
}

func TestAuthHandler_LoginInvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.User, auth.TokenPair, error) {
			return nil, auth.TokenPair{}, service.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, auth.NewCookieManager(false))

	c, rec := newAuthTestContext(http.MethodPost, `{"email":"a@b.com","password":"wrong-pass"}`)
	assert.NoError(t, h.Login(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
	assert.Empty(t, sessionCookies(rec))
}

// A malformed login email is not a validation error; it goes through the
// lookup and fails as bad credentials, same as any unknown email.
func TestAuthHandler_LoginMalformedEmailGetsCredentialsAnswer(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.User, auth.TokenPair, error) {
			assert.Equal(t, "not-an-email", email)
			return nil, auth.TokenPair{}, service.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, auth.NewCookieManager(false))

	c, rec := newAuthTestContext(http.MethodPost, `{"email":"not-an-email","password":"secret1"}`)
	assert.NoError(t, h.Login(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
}

func TestAuthHandler_RefreshSuccess(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
			assert.Equal(t, "old-refresh", refreshToken)
			return auth.TokenPair{AccessToken: "rotated-access", RefreshToken: "rotated-refresh"}, nil
		},
	}
	h := NewAuthHandler(stub, auth.NewCookieManager(false))

	c, rec := newAuthTestContext(http.MethodPost, "")
	c.Request().AddCookie(&http.Cookie{Name: auth.RefreshTokenCookie, Value: "old-refresh"})
	assert.NoError(t, h.Refresh(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Tokens refreshed successfully")

	cookies := sessionCookies(rec)
	assert.Equal(t, "rotated-access", cookies[auth.AccessTokenCookie].Value)
	assert.Equal(t, "rotated-refresh", cookies[auth.RefreshTokenCookie].Value)
}

func TestAuthHandler_RefreshFailureClearsCookies(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{name: "missing token", err: service.ErrRefreshTokenMissing, message: "Refresh token not found"},
		{name: "invalid token", err: service.ErrRefreshTokenInvalid, message: "Invalid or expired refresh token"},
		{name: "session expired", err: service.ErrSessionExpired, message: "User not found or session expired"},
		{name: "rotated away", err: service.ErrRefreshTokenMismatch, message: "Invalid refresh token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAuthService{
				refreshFn: func(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
					return auth.TokenPair{}, tt.err
				},
			}
			h := NewAuthHandler(stub, auth.NewCookieManager(false))

			c, rec := newAuthTestContext(http.MethodPost, "")
			assert.NoError(t, h.Refresh(c))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)

			// Both cookies must be expired on every refresh failure.
			cookies := sessionCookies(rec)
			assert.Len(t, cookies, 2)
			for _, cookie := range cookies {
				assert.Empty(t, cookie.Value)
				assert.Negative(t, cookie.MaxAge)
			}
		})
	}
}

func TestAuthHandler_LogoutAlwaysSucceeds(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		stub := &stubAuthService{
			logoutFn: func(ctx context.Context, accessToken string) error {
				assert.Empty(t, accessToken)
				return nil
			},
		}
		h := NewAuthHandler(stub, auth.NewCookieManager(false))

		c, rec := newAuthTestContext(http.MethodPost, "")
		assert.NoError(t, h.Logout(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Logout successful")
	})

	t.Run("invalidation failure is swallowed", func(t *testing.T) {
		stub := &stubAuthService{
			logoutFn: func(ctx context.Context, accessToken string) error {
				return assert.AnError
			},
		}
		h := NewAuthHandler(stub, auth.NewCookieManager(false))

		c, rec := newAuthTestContext(http.MethodPost, "")
		c.Request().AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "some-access"})
		assert.NoError(t, h.Logout(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Logout successful")

		cookies := sessionCookies(rec)
		assert.Len(t, cookies, 2)
		for _, cookie := range cookies {
			assert.Negative(t, cookie.MaxAge)
		}
	})
}

func TestAuthHandler_Me(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		user := testUser("a@b.com")
		stub := &stubAuthService{
			currentUserFn: func(ctx context.Context, accessToken, refreshToken string) (*model.User, auth.SessionState, error) {
				assert.Equal(t, "some-access", accessToken)
				return user, auth.SessionAccessValid, nil
			},
		}
		h := NewAuthHandler(stub, auth.NewCookieManager(false))

		c, rec := newAuthTestContext(http.MethodGet, "")
		c.Request().AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "some-access"})
		assert.NoError(t, h.Me(c))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp MeResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Authenticated)
		assert.NotNil(t, resp.User)
		assert.Equal(t, "a@b.com", resp.User.Email)
	})

	t.Run("not authenticated is a normal answer", func(t *testing.T) {
		stub := &stubAuthService{
			currentUserFn: func(ctx context.Context, accessToken, refreshToken string) (*model.User, auth.SessionState, error) {
				return nil, auth.SessionAnonymous, nil
			},
		}
		h := NewAuthHandler(stub, auth.NewCookieManager(false))

		c, rec := newAuthTestContext(http.MethodGet, "")
		assert.NoError(t, h.Me(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"authenticated":false,"user":null}`, rec.Body.String())
	})

	t.Run("lookup failure is a server error", func(t *testing.T) {
		stub := &stubAuthService{
			currentUserFn: func(ctx context.Context, accessToken, refreshToken string) (*model.User, auth.SessionState, error) {
				return nil, auth.SessionAccessValid, assert.AnError
			},
		}
		h := NewAuthHandler(stub, auth.NewCookieManager(false))

		c, rec := newAuthTestContext(http.MethodGet, "")
		assert.NoError(t, h.Me(c))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
