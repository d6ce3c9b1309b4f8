// Package auth defines the identity-provider surface the journaling core
// depends on. The core only needs two facts from the provider: the stable
// id of the signed-in user (key derivation and storage scoping) and whether
// anyone is signed in at all. Sign-up, sign-in and password-reset flows
// belong to the external provider and are out of scope here.
package auth

import (
	"context"

	"github.com/ArnarValur/therpy-journal-sub000/internal/common"
)

// User is the profile snapshot exposed by the identity provider.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Verified    bool
}

// Provider reports the currently authenticated user.
//
// Implementations must return common.ErrUnauthenticated (possibly wrapped)
// when no session is active; callers gate every encrypt/decrypt and
// repository call on that error.
type Provider interface {
	Current(ctx context.Context) (*User, error)
}

// StaticProvider always reports the same user. It backs tests and local
// single-user tooling.
type StaticProvider struct {
	User *User
}

// NewStaticProvider returns a provider fixed to the given user. A nil user
// models the signed-out state.
func NewStaticProvider(u *User) *StaticProvider {
	return &StaticProvider{User: u}
}

func (p *StaticProvider) Current(ctx context.Context) (*User, error) {
	if p.User == nil {
		return nil, common.ErrUnauthenticated
	}
	return p.User, nil
}
