package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"task-tracker/backend/internal/errs"
	"task-tracker/backend/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// UserStore is implemented by *repositories.UserRepository.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type CredentialService interface {
	Register(ctx context.Context, req models.RegistrationRequest) (*models.User, error)
	VerifyCredentials(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

type CredentialServiceImpl struct {
	store UserStore
	cost  int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewCredentialService(store UserStore, cost int) *CredentialServiceImpl {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &CredentialServiceImpl{store: store, cost: cost}
}

func (s *CredentialServiceImpl) Register(ctx context.Context, req models.RegistrationRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, errs.Validation("email", "field required")
	}
	if req.Password == "" {
		return nil, errs.Validation("password", "field required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, errs.Validation("password", "must be at most 72 bytes")
		}
		return nil, err
	}

	user := models.User{
		Email:          email,
		FullName:       req.FullName,
		HashedPassword: string(hashedPassword),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.Create(ctx, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// VerifyCredentials returns ErrInvalidCredentials for an unknown email and a
// wrong password alike, and spends one bcrypt comparison in both cases.
func (s *CredentialServiceImpl) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return nil, errs.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, errs.ErrInvalidCredentials
	}

	return user, nil
}

func (s *CredentialServiceImpl) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetByID(ctx, id)
}

func (s *CredentialServiceImpl) dummy() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), s.cost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
