package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"unicode"

	"github.com/nmakri/userhub/internal/domain/user"
)

const minPasswordLength = 12

// Conservative shapes: alphanumeric+underscore usernames, local@domain.tld
// emails with a >=2 character top-level label. Password rules are scanned
// explicitly below instead of regexed.
var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Repository abstracts user persistence. Interfaces live with the consumer,
// not the provider; any implementation must enforce username and email
// uniqueness itself, so that exactly the losing writer of a concurrent
// duplicate save fails.
type Repository interface {
	// Save persists a new user and returns the stored record.
	Save(ctx context.Context, username, email, passwordHash string) (user.User, error)

	// GetByID returns ErrNotFound when no user matches.
	GetByID(ctx context.Context, id string) (user.User, error)

	// GetByEmail returns ErrNotFound when no user matches.
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// PasswordHasher is the one-way hashing collaborator. Hashing the same
// plaintext twice may yield different values (salting); Verify must stay
// consistent regardless.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) bool
}

// Service holds no state of its own; all shared mutable state lives behind
// the injected repository, so concurrent calls need no coordination here.
type Service struct {
	repo   Repository
	hasher PasswordHasher
}

func NewService(repo Repository, hasher PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// CreateUser validates username, email and password in that order (first
// failure wins), rejects duplicates by email, then hashes exactly once and
// saves exactly once. Nothing is written on any failure path, and the record
// the repository returns is passed through unchanged.
func (s *Service) CreateUser(ctx context.Context, username, email, password string) (user.User, error) {
	if err := validateUsername(username); err != nil {
		return user.User{}, err
	}

	if err := validateEmail(email); err != nil {
		return user.User{}, err
	}

	if err := validatePassword(password); err != nil {
		return user.User{}, err
	}

	_, err := s.repo.GetByEmail(ctx, email)

	if err == nil {
		return user.User{}, fmt.Errorf("%w: email %s is taken", ErrAlreadyExists, email)
	}

	if !errors.Is(err, ErrNotFound) {
		// repository failure, propagate as-is
		return user.User{}, err
	}

	hash, err := s.hasher.Hash(password)

	if err != nil {
		return user.User{}, err
	}

	return s.repo.Save(ctx, username, email, hash)
}

// Authenticate resolves a user by email and checks the password against the
// stored hash. A dummy comparison runs when the email is unknown so the two
// failure paths cost roughly the same.
func (s *Service) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	u, lookupErr := s.repo.GetByEmail(ctx, email)

	if lookupErr != nil && !errors.Is(lookupErr, ErrNotFound) {
		return user.User{}, lookupErr
	}

	hash := dummyHash

	if lookupErr == nil {
		hash = u.PasswordHash
	}

	ok := s.hasher.Verify(password, hash)

	if lookupErr != nil || !ok {
		return user.User{}, ErrInvalidCredentials
	}

	return u, nil
}

// GetUser is a straight passthrough to the repository.
func (s *Service) GetUser(ctx context.Context, id string) (user.User, error) {
	return s.repo.GetByID(ctx, id)
}

// bcrypt of an unguessable throwaway value, only ever used to equalize timing.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidUsername)
	}

	if !usernameRe.MatchString(username) {
		return fmt.Errorf("%w: must be 3-30 characters of letters, numbers and underscores", ErrInvalidUsername)
	}

	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidEmail)
	}

	if !emailRe.MatchString(email) {
		return fmt.Errorf("%w: %s", ErrInvalidEmail, email)
	}

	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, minPasswordLength)
	}

	var hasUpper, hasLower, hasDigit bool

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("%w: must contain an uppercase letter", ErrWeakPassword)
	}

	if !hasLower {
		return fmt.Errorf("%w: must contain a lowercase letter", ErrWeakPassword)
	}

	if !hasDigit {
		return fmt.Errorf("%w: must contain a digit", ErrWeakPassword)
	}

	return nil
}
