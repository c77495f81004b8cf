package auth

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrSessionExpired is returned for tokens past their expiry.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionRevoked is returned for tokens issued before the last logout.
	ErrSessionRevoked = errors.New("session revoked")
)

// Service issues and verifies session tokens. Session versions live in memory
// only, so every token dies with the process.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	versions map[string]int
}

// NewService builds a session service signing with secret.
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		versions: make(map[string]int),
	}
}

// Session is an issued token.
type Session struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

// ExpiresIn returns the remaining lifetime in whole seconds.
func (s Session) ExpiresIn(now time.Time) int64 {
	return int64(s.ExpiresAt.Sub(now).Seconds())
}

// Issue signs a new session token for username.
func (s *Service) Issue(username string) (Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)

	s.mu.Lock()
	ver := s.versions[username]
	s.mu.Unlock()

	token, err := SignHS256(Claims{
		Subject:   username,
		Version:   ver,
		IssuedAt:  now.Unix(),
		ExpiresAt: exp.Unix(),
	}, s.secret)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, Username: username, ExpiresAt: exp}, nil
}

// Verify returns the username a valid token was issued to.
func (s *Service) Verify(token string) (string, error) {
	claims, err := ParseAndVerifyHS256(token, s.secret)
	if err != nil {
		return "", err
	}
	if s.now().Unix() >= claims.ExpiresAt {
		return "", ErrSessionExpired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if claims.Version != s.versions[claims.Subject] {
		return "", ErrSessionRevoked
	}
	return claims.Subject, nil
}

// Revoke invalidates every token issued to username so far.
func (s *Service) Revoke(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[username]++
}
