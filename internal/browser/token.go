package browser

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshWindow is how long before expiry a cached service token is replaced.
const refreshWindow = 30 * time.Second

// ServiceTokenSource mints HS256 service tokens for the catalog API and
// reuses each one until it is about to expire.
type ServiceTokenSource struct {
	secret  []byte
	subject string
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewServiceTokenSource creates a source signing with secret. ttl must be positive.
func NewServiceTokenSource(secret []byte, subject string, ttl time.Duration) (*ServiceTokenSource, error) {
	if len(secret) == 0 {
		return nil, errors.New("service token secret is empty")
	}
	if ttl <= 0 {
		return nil, errors.New("service token ttl must be positive")
	}
	return &ServiceTokenSource{
		secret:  secret,
		subject: subject,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// Token returns a valid token, minting a new one when needed.
func (s *ServiceTokenSource) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Add(refreshWindow).Before(s.expires) {
		return s.token, nil
	}

	expires := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   s.subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	s.token = signed
	s.expires = expires
	return signed, nil
}

// Provider adapts the source to a TokenProvider.
func (s *ServiceTokenSource) Provider() TokenProvider {
	return s.Token
}
