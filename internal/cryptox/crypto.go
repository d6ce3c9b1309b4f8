// Package cryptox implements the field-level encryption service.
//
// Every sensitive field of a journal or life-story entry is encrypted with
// AES-256-GCM under a key derived deterministically from the owning user's
// stable identifier and an application-wide salt. No key material is ever
// persisted: the key is recomputed from the session state on every call.
// The random nonce is prepended to the sealed bytes and the whole blob is
// base64-encoded, so Decrypt needs only the ciphertext string and the
// derived key.
//
// Decrypt never panics and never returns garbage text: any malformed or
// wrong-key input yields common.ErrDecryptionFailed.
package cryptox

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/ArnarValur/therpy-journal-sub000/internal/auth"
	"github.com/ArnarValur/therpy-journal-sub000/internal/common"
)

const nonceSize = 12

// DeriveUserKey computes the per-user AES-256 key from the user id and the
// application salt. The derivation is deterministic: the same user always
// gets the same key, which is what lets entries decrypt across sessions
// without any stored key material.
func DeriveUserKey(userID string, salt []byte) []byte {
	return argon2.IDKey([]byte(userID), salt, 1, 64*1024, 4, 32)
}

// Service encrypts and decrypts sensitive field values for the currently
// authenticated user.
type Service struct {
	provider auth.Provider
	salt     []byte
}

// NewService returns a Service bound to the given identity provider and
// application salt.
func NewService(provider auth.Provider, salt string) *Service {
	return &Service{provider: provider, salt: []byte(salt)}
}

// Encrypt seals plaintext for the current user and returns the base64
// ciphertext blob. It fails with common.ErrUnauthenticated when no user is
// signed in.
func (s *Service) Encrypt(ctx context.Context, plaintext string) (string, error) {
	aead, err := s.userAEAD(ctx)
	if err != nil {
		return "", err
	}

	nonce := common.GenerateRandByteArray(nonceSize)
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext blob produced by Encrypt for the same user.
func (s *Service) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	aead, err := s.userAEAD(ctx)
	if err != nil {
		return "", err
	}

	blob, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrDecryptionFailed, err)
	}
	if len(blob) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", common.ErrDecryptionFailed)
	}

	nonce, sealed := blob[:nonceSize], blob[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrDecryptionFailed, err)
	}

	return string(plaintext), nil
}

func (s *Service) userAEAD(ctx context.Context) (cipher.AEAD, error) {
	user, err := s.provider.Current(ctx)
	if err != nil {
		return nil, err
	}

	key := DeriveUserKey(user.ID, s.salt)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
