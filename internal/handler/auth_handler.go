package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"taskboard/internal/auth"
	apperrors "taskboard/internal/errors"
	"taskboard/internal/model"
	"taskboard/internal/service"
)

// AuthHandler handles authentication endpoints. It owns the transport side
// of the session: reading and writing the cookie pair.
type AuthHandler struct {
	authService service.AuthService
	cookies     *auth.CookieManager
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookies *auth.CookieManager) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"`
}

// LoginRequest represents a user login request. Only presence is validated;
// a malformed email simply misses on lookup and gets the credentials answer.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents a successful register/login response.
type AuthResponse struct {
	Message string           `json:"message"`
	User    model.PublicUser `json:"user"`
}

// MessageResponse represents a bare confirmation response.
type MessageResponse struct {
	Message string `json:"message"`
}

// MeResponse represents the session status response.
type MeResponse struct {
	Authenticated bool           `json:"authenticated"`
	User          *model.Profile `json:"user"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_BODY",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: credentialValidationMessage(err),
			Code:  "VALIDATION_ERROR",
		})
	}

	var name *string
	if req.Name != "" {
		name = &req.Name
	}

	user, pair, err := h.authService.Register(c.Request().Context(), req.Email, req.Password, name)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return c.JSON(http.StatusConflict, apperrors.ErrorResponse{
				Error: err.Error(),
				Code:  "EMAIL_TAKEN",
			})
		}
		c.Logger().Errorf("register: %v", err)
		return internalError(c)
	}

	h.cookies.SetSessionCookies(c, pair)
	return c.JSON(http.StatusCreated, AuthResponse{
		Message: "Registration successful",
		User:    user.Public(),
	})
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_BODY",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "Email and password are required",
			Code:  "VALIDATION_ERROR",
		})
	}

	user, pair, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: err.Error(),
				Code:  "INVALID_CREDENTIALS",
			})
		}
		c.Logger().Errorf("login: %v", err)
		return internalError(c)
	}

	h.cookies.SetSessionCookies(c, pair)
	return c.JSON(http.StatusOK, AuthResponse{
		Message: "Login successful",
		User:    user.Public(),
	})
}

// Refresh godoc
// @Summary Rotate the session token pair
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	_, refreshToken := h.cookies.ReadSessionCookies(c)

	pair, err := h.authService.Refresh(c.Request().Context(), refreshToken)
	if err != nil {
		// A rejected cookie pair must never survive on the client.
		h.cookies.ClearSessionCookies(c)
		if code, ok := refreshFailureCode(err); ok {
			return c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: err.Error(),
				Code:  code,
			})
		}
		c.Logger().Errorf("refresh: %v", err)
		return internalError(c)
	}

	h.cookies.SetSessionCookies(c, pair)
	return c.JSON(http.StatusOK, MessageResponse{Message: "Tokens refreshed successfully"})
}

// Logout godoc
// @Summary End the session
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	accessToken, _ := h.cookies.ReadSessionCookies(c)

	// Server-side invalidation is best effort; logout always succeeds and
	// always leaves the client without cookies.
	if err := h.authService.Logout(c.Request().Context(), accessToken); err != nil {
		c.Logger().Errorf("logout invalidation: %v", err)
	}

	h.cookies.ClearSessionCookies(c)
	return c.JSON(http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// Me godoc
// @Summary Report the current session status
// @Tags auth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	accessToken, refreshToken := h.cookies.ReadSessionCookies(c)

	user, _, err := h.authService.CurrentUser(c.Request().Context(), accessToken, refreshToken)
	if err != nil {
		c.Logger().Errorf("me: %v", err)
		return internalError(c)
	}
	if user == nil {
		return c.JSON(http.StatusOK, MeResponse{Authenticated: false, User: nil})
	}

	profile := user.Profile()
	return c.JSON(http.StatusOK, MeResponse{Authenticated: true, User: &profile})
}

// refreshFailureCode maps refresh sentinels to response codes; ok is false
// for unexpected errors.
func refreshFailureCode(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrRefreshTokenMissing):
		return "REFRESH_TOKEN_NOT_FOUND", true
	case errors.Is(err, service.ErrRefreshTokenInvalid):
		return "REFRESH_TOKEN_INVALID", true
	case errors.Is(err, service.ErrSessionExpired):
		return "SESSION_EXPIRED", true
	case errors.Is(err, service.ErrRefreshTokenMismatch):
		return "REFRESH_TOKEN_MISMATCH", true
	}
	return "", false
}

// credentialValidationMessage converts validator field errors into the
// client-facing registration messages.
func credentialValidationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch {
		case fe.Tag() == "required":
			return "Email and password are required"
		case fe.Field() == "Email":
			return "Invalid email format"
		case fe.Field() == "Password":
			return "Password must be at least 6 characters"
		}
	}
	return "Invalid request body"
}

func internalError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, apperrors.ErrorResponse{
		Error: "Internal server error",
		Code:  "INTERNAL_ERROR",
	})
}
