package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nmakri/userhub/internal/domain/user"
	"github.com/nmakri/userhub/internal/users"
)

// UsersRepo is the in-memory users.Repository used by tests and dev mode.
// It enforces the same uniqueness guarantees the SQL schema does; the single
// mutex makes concurrent duplicate saves fail for exactly the losing writer.
type UsersRepo struct {
	mu      sync.RWMutex
	byID    map[string]user.User
	byEmail map[string]string // lowercased email -> id
	byName  map[string]string // lowercased username -> id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		byID:    make(map[string]user.User),
		byEmail: make(map[string]string),
		byName:  make(map[string]string),
	}
}

func (r *UsersRepo) Save(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	emailKey := strings.ToLower(email)
	nameKey := strings.ToLower(username)

	if _, taken := r.byEmail[emailKey]; taken {
		return user.User{}, users.ErrAlreadyExists
	}

	if _, taken := r.byName[nameKey]; taken {
		return user.User{}, users.ErrAlreadyExists
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         "user",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.byID[u.ID] = u
	r.byEmail[emailKey] = u.ID
	r.byName[nameKey] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]

	if !ok {
		return user.User{}, users.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]

	if !ok {
		return user.User{}, users.ErrNotFound
	}

	return r.byID[id], nil
}
