package auth

// SessionState is the per-request session classification derived from the
// cookie pair. It is recomputed on every request, never stored.
type SessionState int

const (
	// SessionAnonymous means no session cookies were presented.
	SessionAnonymous SessionState = iota
	// SessionAccessValid means the access token verified.
	SessionAccessValid
	// SessionRefreshOnly means the access token is absent or expired but the
	// refresh token verified, so the session can be rotated.
	SessionRefreshOnly
	// SessionInvalid means cookies were presented but neither token verified.
	SessionInvalid
)

func (s SessionState) String() string {
	switch s {
	case SessionAnonymous:
		return "anonymous"
	case SessionAccessValid:
		return "access_valid"
	case SessionRefreshOnly:
		return "refresh_only"
	default:
		return "invalid"
	}
}

// ClassifySession evaluates a cookie pair into one of the four session
// states. The returned claims belong to the token that decided the state
// (access for SessionAccessValid, refresh for SessionRefreshOnly), nil
// otherwise.
func (s *JWTService) ClassifySession(accessToken, refreshToken string) (SessionState, *Claims) {
	if accessToken == "" && refreshToken == "" {
		return SessionAnonymous, nil
	}
	if accessToken != "" {
		if claims, err := s.ValidateAccessToken(accessToken); err == nil {
			return SessionAccessValid, claims
		}
	}
	if refreshToken != "" {
		if claims, err := s.ValidateRefreshToken(refreshToken); err == nil {
			return SessionRefreshOnly, claims
		}
	}
	return SessionInvalid, nil
}
