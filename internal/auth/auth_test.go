package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/KlimSani4/hydrocalc/internal/logger"
	"github.com/KlimSani4/hydrocalc/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupTestService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()
	db, err := storage.Open(":memory:", logger.Nop())
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	store := storage.New(db)
	svc := NewService(store, logger.Nop(), Options{
		Secret:     []byte("test-secret"),
		TokenTTL:   24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	return svc, store
}

func TestRegister(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	acc, err := svc.Register(ctx, "user@example.com", "password123")
	require.NoError(t, err)
	assert.NotZero(t, acc.ID)
	assert.NotEqual(t, "password123", acc.PasswordHash)

	_, err = svc.Register(ctx, "user@example.com", "password123")
	assert.True(t, errors.Is(err, storage.ErrDuplicateEmail), "got %v", err)

	_, err = svc.Register(ctx, "empty@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	_, err = svc.Register(ctx, "long@example.com", strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "auth@example.com", "secret")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "auth@example.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = svc.Login(ctx, "auth@example.com", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "wrong@example.com", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken(t *testing.T) {
	svc, _ := setupTestService(t)

	token, err := svc.IssueToken(42)
	require.NoError(t, err)

	id, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateToken_FailsClosed(t *testing.T) {
	svc, _ := setupTestService(t)

	token, err := svc.IssueToken(7)
	require.NoError(t, err)

	other := NewService(nil, logger.Nop(), Options{Secret: []byte("another-secret")})
	foreign, err := other.IssueToken(7)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "7"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "seven",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":      "not-a-token",
		"empty":        "",
		"tampered":     token[:len(token)-2] + "xx",
		"wrong secret": foreign,
		"alg none":     noneToken,
		"no expiry":    noExpiry,
		"non numeric":  badSubject,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc, _ := setupTestService(t)

	issued := time.Now().Add(-25 * time.Hour)
	svc.now = func() time.Time { return issued }
	token, err := svc.IssueToken(1)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPrincipal(t *testing.T) {
	svc, store := setupTestService(t)
	ctx := context.Background()

	acc, err := svc.Register(ctx, "principal@example.com", "pass")
	require.NoError(t, err)
	token, err := svc.IssueToken(acc.ID)
	require.NoError(t, err)

	got, err := svc.Principal(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	require.NoError(t, store.DeleteAccount(ctx, acc.ID))
	_, err = svc.Principal(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
