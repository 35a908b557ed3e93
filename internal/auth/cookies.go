package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	// AccessTokenCookie is the cookie carrying the access token.
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie is the cookie carrying the refresh token.
	RefreshTokenCookie = "refreshToken"
)

// CookieManager writes and clears the session cookie pair. Both cookies are
// HttpOnly, path-scoped to "/", SameSite Lax, and Secure in production.
type CookieManager struct {
	secure bool
}

// NewCookieManager creates a cookie manager. secure controls the cookie
// Secure flag and should be true in production.
func NewCookieManager(secure bool) *CookieManager {
	return &CookieManager{secure: secure}
}

// SetSessionCookies writes both session cookies with their respective
// lifetimes: access for 15 minutes, refresh for 7 days.
func (m *CookieManager) SetSessionCookies(c echo.Context, pair TokenPair) {
	c.SetCookie(m.cookie(AccessTokenCookie, pair.AccessToken, int(AccessTokenExpiry.Seconds())))
	c.SetCookie(m.cookie(RefreshTokenCookie, pair.RefreshToken, int(RefreshTokenExpiry.Seconds())))
}

// ReadSessionCookies returns the cookie pair from the request. Either value
// may be empty.
func (m *CookieManager) ReadSessionCookies(c echo.Context) (accessToken, refreshToken string) {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		accessToken = cookie.Value
	}
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil {
		refreshToken = cookie.Value
	}
	return accessToken, refreshToken
}

// ClearSessionCookies expires both session cookies regardless of prior state.
func (m *CookieManager) ClearSessionCookies(c echo.Context) {
	c.SetCookie(m.cookie(AccessTokenCookie, "", -1))
	c.SetCookie(m.cookie(RefreshTokenCookie, "", -1))
}

func (m *CookieManager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
