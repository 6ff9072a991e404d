package domain

import "time"

// Session is the authenticated context for one user. Capabilities are
// resolved once, when the session is created, and never re-derived.
type Session struct {
	TokenID      string    `json:"-"`
	Token        string    `json:"token,omitempty"`
	User         User      `json:"user"`
	Capabilities []string  `json:"capabilities"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// NewSession resolves the user's capabilities and binds them to the token.
func NewSession(u User, token, tokenID string, expiresAt time.Time) *Session {
	return &Session{
		TokenID:      tokenID,
		Token:        token,
		User:         u,
		Capabilities: ResolveCapabilities(u.Role),
		ExpiresAt:    expiresAt,
	}
}

func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.User.ID
}

func (s *Session) HasCapability(path string) bool {
	if s == nil {
		return false
	}
	return Grants(s.Capabilities, path)
}

// Landing is the first allowed capability for the session.
func (s *Session) Landing() string {
	if s == nil {
		return LoginCapability
	}
	return landing(s.Capabilities)
}
