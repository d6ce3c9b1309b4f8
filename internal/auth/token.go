package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ArnarValur/therpy-journal-sub000/internal/common"
)

// Claims carries the user profile inside an HS256 session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
	Verified    bool   `json:"verified,omitempty"`
}

// GenerateToken signs a session token for the given user.
func GenerateToken(u *User, secretKey []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Verified:    u.Verified,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// TokenProvider resolves the current user from a session token issued by
// the identity provider. The token is supplied by the embedding layer via
// SetSession; Current validates it on every call so an expired session
// immediately turns into common.ErrUnauthenticated. Safe for concurrent
// use: background save goroutines call Current while the embedding layer
// may swap the session.
type TokenProvider struct {
	secretKey []byte

	mu    sync.RWMutex
	token string
}

// NewTokenProvider returns a provider validating HS256 tokens signed with
// secretKey.
func NewTokenProvider(secretKey []byte) *TokenProvider {
	return &TokenProvider{secretKey: secretKey}
}

// SetSession installs the session token. An empty string signs the user out.
func (p *TokenProvider) SetSession(token string) {
	p.mu.Lock()
	p.token = token
	p.mu.Unlock()
}

func (p *TokenProvider) Current(ctx context.Context) (*User, error) {
	p.mu.RLock()
	session := p.token
	p.mu.RUnlock()

	if session == "" {
		return nil, common.ErrUnauthenticated
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(session, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrUnauthenticated
	}

	return &User{
		ID:          claims.UserID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		Verified:    claims.Verified,
	}, nil
}
