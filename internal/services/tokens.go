package services

import (
	"errors"
	"strconv"
	"time"

	"task-tracker/backend/internal/errs"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "task-tracker"

type TokenService interface {
	Issue(userID int64, ttl time.Duration) (string, error)
	IssueDefault(userID int64) (string, error)
	Validate(token string) (int64, error)
}

// TokenServiceImpl signs HS256 access tokens whose subject is the user id.
type TokenServiceImpl struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, defaultTTL time.Duration) *TokenServiceImpl {
	return &TokenServiceImpl{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (s *TokenServiceImpl) Issue(userID int64, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("token signing key is not configured")
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *TokenServiceImpl) IssueDefault(userID int64) (string, error) {
	return s.Issue(userID, s.defaultTTL)
}

// Validate returns the user id carried by token. Every failure, whether
// signature, structure or expiry, collapses to errs.ErrInvalidToken. A token
// is expired from the instant its exp is reached.
func (s *TokenServiceImpl) Validate(token string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return 0, errs.ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, errs.ErrInvalidToken
	}

	return userID, nil
}
