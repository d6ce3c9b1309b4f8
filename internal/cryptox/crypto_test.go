package cryptox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnarValur/therpy-journal-sub000/internal/auth"
	"github.com/ArnarValur/therpy-journal-sub000/internal/common"
)

const testSalt = "test-app-salt"

func serviceFor(userID string) *Service {
	return NewService(auth.NewStaticProvider(&auth.User{ID: userID}), testSalt)
}

func TestDeriveUserKey_Deterministic(t *testing.T) {
	key1 := DeriveUserKey("u-1", []byte(testSalt))
	key2 := DeriveUserKey("u-1", []byte(testSalt))
	assert.Equal(t, key1, key2)
	assert.Len(t, key1, 32)
}

func TestDeriveUserKey_DifferentUsers(t *testing.T) {
	key1 := DeriveUserKey("u-1", []byte(testSalt))
	key2 := DeriveUserKey("u-2", []byte(testSalt))
	assert.NotEqual(t, key1, key2)
}

func TestService_RoundTrip(t *testing.T) {
	svc := serviceFor("u-1")
	ctx := context.Background()

	tests := []struct {
		name string
		in   string
	}{
		{"plain text", "I had a good day"},
		{"empty string", ""},
		{"unicode", "dagbók — 日記 🙂"},
		{"markup", "<p>rich <b>text</b></p>"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			blob, err := svc.Encrypt(ctx, tc.in)
			require.NoError(t, err)
			assert.NotEqual(t, tc.in, blob)

			out, err := svc.Decrypt(ctx, blob)
			require.NoError(t, err)
			assert.Equal(t, tc.in, out)
		})
	}
}

func TestService_CrossUserIsolation(t *testing.T) {
	ctx := context.Background()
	secret := "only for user A"

	blob, err := serviceFor("u-a").Encrypt(ctx, secret)
	require.NoError(t, err)

	out, err := serviceFor("u-b").Decrypt(ctx, blob)
	assert.True(t, errors.Is(err, common.ErrDecryptionFailed))
	assert.NotEqual(t, secret, out)
}

func TestService_Unauthenticated(t *testing.T) {
	svc := NewService(auth.NewStaticProvider(nil), testSalt)
	ctx := context.Background()

	_, err := svc.Encrypt(ctx, "x")
	assert.True(t, errors.Is(err, common.ErrUnauthenticated))

	_, err = svc.Decrypt(ctx, "x")
	assert.True(t, errors.Is(err, common.ErrUnauthenticated))
}

func TestService_DecryptMalformed(t *testing.T) {
	svc := serviceFor("u-1")
	ctx := context.Background()

	tests := []struct {
		name string
		in   string
	}{
		{"not base64", "!!not-base64!!"},
		{"too short", "YWJj"},
		{"tampered", func() string {
			blob, err := svc.Encrypt(ctx, "original")
			if err != nil {
				t.Fatal(err)
			}
			b := []byte(blob)
			b[len(b)-1] ^= 'x'
			return string(b)
		}()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := svc.Decrypt(ctx, tc.in)
			assert.True(t, errors.Is(err, common.ErrDecryptionFailed))
			assert.Empty(t, out)
		})
	}
}

func TestService_NonceVaries(t *testing.T) {
	svc := serviceFor("u-1")
	ctx := context.Background()

	a, err := svc.Encrypt(ctx, "same input")
	require.NoError(t, err)
	b, err := svc.Encrypt(ctx, "same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
