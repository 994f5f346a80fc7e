package services

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"task-tracker/backend/internal/errs"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(now time.Time) *TokenServiceImpl {
	s := NewTokenService("test-secret", 24*time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newTestTokenService(now)

	token, err := s.IssueDefault(42)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	userID, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenService_Expiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newTestTokenService(now)

	token, err := s.Issue(7, time.Hour)
	require.NoError(t, err)

	s.now = func() time.Time { return now.Add(59 * time.Minute) }
	_, err = s.Validate(token)
	assert.NoError(t, err)

	s.now = func() time.Time { return now.Add(time.Hour) }
	_, err = s.Validate(token)
	assert.ErrorIs(t, err, errs.ErrInvalidToken)
}

func TestTokenService_ZeroTTLIsExpired(t *testing.T) {
	s := newTestTokenService(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	token, err := s.Issue(7, 0)
	require.NoError(t, err)

	_, err = s.Validate(token)
	assert.ErrorIs(t, err, errs.ErrInvalidToken)
}

func TestTokenService_RejectsTampering(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newTestTokenService(now)

	token, err := s.IssueDefault(1)
	require.NoError(t, err)

	other := newTestTokenService(now)
	other.secret = []byte("another-secret")
	forged, err := other.IssueDefault(1)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	truncated := parts[0] + "." + parts[1] + "."
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	swapped := strings.Replace(string(payload), `"sub":"1"`, `"sub":"2"`, 1)
	require.NotEqual(t, string(payload), swapped)
	resigned := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(swapped)) + "." + parts[2]

	for name, candidate := range map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"wrong key":      forged,
		"missing sig":    truncated,
		"edited claims":  resigned,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Validate(candidate)
			assert.ErrorIs(t, err, errs.ErrInvalidToken)
		})
	}
}

func TestTokenService_RejectsOtherAlgorithmsAndClaims(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newTestTokenService(now)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "1",
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "1",
		Issuer:  tokenIssuer,
	}).SignedString(s.secret)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "abc",
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(s.secret)
	require.NoError(t, err)

	for name, candidate := range map[string]string{
		"alg none":    none,
		"no exp":      noExpiry,
		"bad subject": badSubject,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Validate(candidate)
			assert.ErrorIs(t, err, errs.ErrInvalidToken)
		})
	}
}

func TestTokenService_RequiresSecret(t *testing.T) {
	s := NewTokenService("", time.Hour)

	_, err := s.IssueDefault(1)
	assert.Error(t, err)
}
