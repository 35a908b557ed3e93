package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/auth"
	"taskboard/internal/cache"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// Error strings double as wire messages, so they keep the client-facing
// casing. Credential failures are deliberately indistinguishable to resist
// user enumeration.
var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("Invalid email or password")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("User with this email already exists")
	// ErrRefreshTokenMissing is returned when no refresh cookie was presented.
	ErrRefreshTokenMissing = errors.New("Refresh token not found")
	// ErrRefreshTokenInvalid is returned when the refresh token fails signature or expiry checks.
	ErrRefreshTokenInvalid = errors.New("Invalid or expired refresh token")
	// ErrSessionExpired is returned when the user is gone or holds no active session.
	ErrSessionExpired = errors.New("User not found or session expired")
	// ErrRefreshTokenMismatch is returned when the presented token does not
	// match the stored hash, i.e. it was already rotated away.
	ErrRefreshTokenMismatch = errors.New("Invalid refresh token")
)

// AuthService owns the session lifecycle: credential verification, token
// issuance, refresh-token rotation, and server-side invalidation.
type AuthService interface {
	Register(ctx context.Context, email, password string, name *string) (*model.User, auth.TokenPair, error)
	Login(ctx context.Context, email, password string) (*model.User, auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	CurrentUser(ctx context.Context, accessToken, refreshToken string) (*model.User, auth.SessionState, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	hasher     *auth.Hasher
	cache      *cache.Client
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, hasher *auth.Hasher, cache *cache.Client) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		hasher:     hasher,
		cache:      cache,
	}
}

// Register creates a new user with a hashed password and opens a session.
func (s *authService) Register(ctx context.Context, email, password string, name *string) (*model.User, auth.TokenPair, error) {
	email = normalizeEmail(email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, auth.TokenPair{}, ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.TokenPair{}, fmt.Errorf("check user existence: %w", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	return user, pair, nil
}

// Login authenticates the user and opens a session. Opening a session
// overwrites any previously stored refresh token hash, so logging in
// elsewhere silently invalidates the old session.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, auth.TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.TokenPair{}, ErrInvalidCredentials
		}
		return nil, auth.TokenPair{}, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, auth.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh rotates the session: the presented refresh token must verify
// cryptographically AND match the stored hash. A token that was already
// rotated away still carries a valid signature but fails the hash check.
// On success the stored hash is overwritten, killing the presented token.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	if refreshToken == "" {
		return auth.TokenPair{}, ErrRefreshTokenMissing
	}

	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return auth.TokenPair{}, ErrRefreshTokenInvalid
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return auth.TokenPair{}, ErrRefreshTokenInvalid
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.TokenPair{}, ErrSessionExpired
		}
		return auth.TokenPair{}, fmt.Errorf("find user: %w", err)
	}
	if user.RefreshTokenHash == nil {
		return auth.TokenPair{}, ErrSessionExpired
	}

	if !s.hasher.Verify(refreshToken, *user.RefreshTokenHash) {
		return auth.TokenPair{}, ErrRefreshTokenMismatch
	}

	return s.openSession(ctx, user)
}

// Logout clears the stored refresh token hash for the user identified by the
// access token. A missing or unverifiable token is not an error: logout is
// idempotent and only the persistence failure is reported (for logging; the
// caller still treats logout as successful).
func (s *authService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		return nil
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil
	}

	if err := s.userRepo.SetRefreshTokenHash(ctx, userID, nil); err != nil {
		return fmt.Errorf("clear refresh token hash: %w", err)
	}
	s.cache.Delete(ctx, userCacheKey(userID))
	return nil
}

// CurrentUser resolves the session cookies into the authenticated user. A
// missing or invalid access token yields (nil, state, nil): not being logged
// in is a normal answer for this polling query, not an error.
func (s *authService) CurrentUser(ctx context.Context, accessToken, refreshToken string) (*model.User, auth.SessionState, error) {
	state, claims := s.jwtService.ClassifySession(accessToken, refreshToken)
	if state != auth.SessionAccessValid {
		return nil, state, nil
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, auth.SessionInvalid, nil
	}

	var cached model.User
	if s.cache.GetJSON(ctx, userCacheKey(userID), &cached) {
		return &cached, state, nil
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Token outlived the user record.
			return nil, state, nil
		}
		return nil, state, fmt.Errorf("find user: %w", err)
	}

	s.cache.SetJSON(ctx, userCacheKey(userID), user, userCacheTTL)
	return user, state, nil
}

// openSession issues a fresh token pair and persists the hash of the new
// refresh token, overwriting the previous one (at most one active refresh
// token per user). A crash between issue and persist fails closed: the
// client's token will not match the stored hash on its next refresh.
func (s *authService) openSession(ctx context.Context, user *model.User) (auth.TokenPair, error) {
	pair, err := s.jwtService.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("generate token pair: %w", err)
	}

	refreshHash, err := s.hasher.Hash(pair.RefreshToken)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("hash refresh token: %w", err)
	}

	if err := s.userRepo.SetRefreshTokenHash(ctx, user.ID, &refreshHash); err != nil {
		return auth.TokenPair{}, fmt.Errorf("store refresh token hash: %w", err)
	}
	s.cache.Delete(ctx, userCacheKey(user.ID))

	return pair, nil
}

func userCacheKey(id uuid.UUID) string {
	return "user:" + id.String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
