package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"finansmart/internal/log"
	"finansmart/internal/storage"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrMissingFields      = errors.New("name and email are required")
)

const minPasswordLength = 6

// Identity is a registered user. Email is the primary key everywhere;
// lookups are case-sensitive.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IdentityStore is the durable identity side of the auth service.
type IdentityStore interface {
	CreateIdentity(ctx context.Context, rec storage.IdentityRecord) error
	GetIdentity(ctx context.Context, email string) (storage.IdentityRecord, bool, error)
}

type Service struct {
	store  IdentityStore
	logger *log.Logger
}

func NewService(store IdentityStore, logger *log.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

// Register creates a new identity with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, name, email, password string) (Identity, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return Identity{}, ErrMissingFields
	}
	if len(password) < minPasswordLength {
		return Identity{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, fmt.Errorf("hash password: %w", err)
	}

	rec := storage.IdentityRecord{Email: email, Name: name, PasswordHash: hash}
	if err := s.store.CreateIdentity(ctx, rec); err != nil {
		if errors.Is(err, storage.ErrIdentityExists) {
			return Identity{}, ErrEmailTaken
		}
		return Identity{}, fmt.Errorf("create identity: %w", err)
	}

	s.logger.InfoContext(ctx, "Identity registered", log.FieldIdentity, email)
	return Identity{Name: name, Email: email}, nil
}

// Login verifies the password against the stored hash. Unknown email
// and wrong password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (Identity, error) {
	rec, found, err := s.store.GetIdentity(ctx, strings.TrimSpace(email))
	if err != nil {
		return Identity{}, fmt.Errorf("load identity: %w", err)
	}
	if !found {
		return Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	s.logger.InfoContext(ctx, "Login succeeded",
		log.FieldIdentity, rec.Email, log.FieldOperation, log.OpLogin)
	return Identity{Name: rec.Name, Email: rec.Email}, nil
}
