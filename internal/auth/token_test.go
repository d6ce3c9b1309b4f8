package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnarValur/therpy-journal-sub000/internal/common"
)

func TestTokenProvider_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	u := &User{ID: "u-1", Email: "a@example.com", DisplayName: "A", Verified: true}

	token, err := GenerateToken(u, secret, time.Minute)
	require.NoError(t, err)

	p := NewTokenProvider(secret)
	p.SetSession(token)

	got, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestTokenProvider_NoSession(t *testing.T) {
	p := NewTokenProvider([]byte("test-secret"))

	_, err := p.Current(context.Background())
	assert.True(t, errors.Is(err, common.ErrUnauthenticated))
}

func TestTokenProvider_WrongSecret(t *testing.T) {
	token, err := GenerateToken(&User{ID: "u-1"}, []byte("secret-a"), time.Minute)
	require.NoError(t, err)

	p := NewTokenProvider([]byte("secret-b"))
	p.SetSession(token)

	_, err = p.Current(context.Background())
	assert.True(t, errors.Is(err, common.ErrUnauthenticated))
}

func TestTokenProvider_Expired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken(&User{ID: "u-1"}, secret, -time.Minute)
	require.NoError(t, err)

	p := NewTokenProvider(secret)
	p.SetSession(token)

	_, err = p.Current(context.Background())
	assert.True(t, errors.Is(err, common.ErrUnauthenticated))
}

func TestTokenProvider_ConcurrentSessionSwap(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken(&User{ID: "u-1"}, secret, time.Minute)
	require.NoError(t, err)

	p := NewTokenProvider(secret)
	p.SetSession(token)

	// a background save resolves the user while the embedding layer
	// swaps the session; must be race-free under -race
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				u, cErr := p.Current(context.Background())
				if cErr == nil {
					assert.Equal(t, "u-1", u.ID)
				} else {
					assert.True(t, errors.Is(cErr, common.ErrUnauthenticated))
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			p.SetSession("")
			p.SetSession(token)
		}
	}()
	wg.Wait()

	u, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(&User{ID: "u-1"})
	u, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)

	out := NewStaticProvider(nil)
	_, err = out.Current(context.Background())
	assert.True(t, errors.Is(err, common.ErrUnauthenticated))
}
