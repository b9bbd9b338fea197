package users_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nmakri/userhub/internal/domain/user"
	"github.com/nmakri/userhub/internal/users"
)

// Fake collaborators in place of the real repository and hasher.

type fakeRepo struct {
	saveFn       func(ctx context.Context, username, email, passwordHash string) (user.User, error)
	getByIDFn    func(ctx context.Context, id string) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)

	saveCalls int
}

func (f *fakeRepo) Save(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	f.saveCalls++
	if f.saveFn != nil {
		return f.saveFn(ctx, username, email, passwordHash)
	}
	return user.User{}, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return user.User{}, users.ErrNotFound
}

func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, users.ErrNotFound
}

type fakeHasher struct {
	hashFn   func(plain string) (string, error)
	verifyFn func(plain, hashed string) bool

	hashCalls   int
	verifyCalls int
}

func (f *fakeHasher) Hash(plain string) (string, error) {
	f.hashCalls++
	if f.hashFn != nil {
		return f.hashFn(plain)
	}
	return "hashed:" + plain, nil
}

func (f *fakeHasher) Verify(plain, hashed string) bool {
	f.verifyCalls++
	if f.verifyFn != nil {
		return f.verifyFn(plain, hashed)
	}
	return hashed == "hashed:"+plain
}

func TestCreateUser_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{"empty username", "", "john@example.com", "SecurePass123", users.ErrInvalidUsername},
		{"username too short", "ab", "john@example.com", "SecurePass123", users.ErrInvalidUsername},
		{"username too long", strings.Repeat("a", 31), "john@example.com", "SecurePass123", users.ErrInvalidUsername},
		{"username bad characters", "john-doe!", "john@example.com", "SecurePass123", users.ErrInvalidUsername},
		{"username with spaces", "john doe", "john@example.com", "SecurePass123", users.ErrInvalidUsername},
		{"empty email", "johndoe", "", "SecurePass123", users.ErrInvalidEmail},
		{"email without at", "johndoe", "john.example.com", "SecurePass123", users.ErrInvalidEmail},
		{"email without tld", "johndoe", "john@example", "SecurePass123", users.ErrInvalidEmail},
		{"email short tld", "johndoe", "john@example.c", "SecurePass123", users.ErrInvalidEmail},
		{"email with whitespace", "johndoe", "john doe@example.com", "SecurePass123", users.ErrInvalidEmail},
		{"password too short", "johndoe", "john@example.com", "Short1pass", users.ErrWeakPassword},
		{"password eleven chars", "johndoe", "john@example.com", "SecurePass1", users.ErrWeakPassword},
		{"password no uppercase", "johndoe", "john@example.com", "securepass123", users.ErrWeakPassword},
		{"password no lowercase", "johndoe", "john@example.com", "SECUREPASS123", users.ErrWeakPassword},
		{"password no digit", "johndoe", "john@example.com", "SecurePassword", users.ErrWeakPassword},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{}
			hasher := &fakeHasher{}
			svc := users.NewService(repo, hasher)

			_, err := svc.CreateUser(context.Background(), tc.username, tc.email, tc.password)

			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("CreateUser err = %v, want %v", err, tc.wantErr)
			}

			// validation failures must never touch the collaborators
			if repo.saveCalls != 0 {
				t.Fatalf("save called %d times, want 0", repo.saveCalls)
			}

			if hasher.hashCalls != 0 {
				t.Fatalf("hash called %d times, want 0", hasher.hashCalls)
			}
		})
	}
}

func TestCreateUser_ValidationOrder(t *testing.T) {
	// username and email are both invalid: username must win
	svc := users.NewService(&fakeRepo{}, &fakeHasher{})

	_, err := svc.CreateUser(context.Background(), "a", "not-an-email", "weak")

	if !errors.Is(err, users.ErrInvalidUsername) {
		t.Fatalf("err = %v, want ErrInvalidUsername to win", err)
	}
}

func TestCreateUser_Success(t *testing.T) {
	now := time.Now().UTC()

	var gotHash, gotPlain string

	repo := &fakeRepo{
		saveFn: func(ctx context.Context, username, email, passwordHash string) (user.User, error) {
			gotHash = passwordHash
			return user.User{
				ID:           "u-1",
				Username:     username,
				Email:        email,
				PasswordHash: passwordHash,
				Role:         "user",
				Active:       true,
				CreatedAt:    now,
			}, nil
		},
	}

	hasher := &fakeHasher{
		hashFn: func(plain string) (string, error) {
			gotPlain = plain
			return "$opaque$", nil
		},
	}

	svc := users.NewService(repo, hasher)

	u, err := svc.CreateUser(context.Background(), "johndoe", "john@example.com", "SecurePass123")

	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if hasher.hashCalls != 1 {
		t.Fatalf("hash called %d times, want exactly 1", hasher.hashCalls)
	}

	if repo.saveCalls != 1 {
		t.Fatalf("save called %d times, want exactly 1", repo.saveCalls)
	}

	if gotPlain != "SecurePass123" {
		t.Fatalf("hasher got %q, want the plaintext", gotPlain)
	}

	if gotHash != "$opaque$" {
		t.Fatalf("save got hash %q, want the hashed value, never the plaintext", gotHash)
	}

	if u.ID != "u-1" || u.Username != "johndoe" || !u.CreatedAt.Equal(now) {
		t.Fatalf("record not passed through unchanged: %+v", u)
	}
}

func TestCreateUser_AlreadyExists(t *testing.T) {
	repo := &fakeRepo{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return user.User{ID: "u-1", Email: email}, nil
		},
	}
	hasher := &fakeHasher{}
	svc := users.NewService(repo, hasher)

	_, err := svc.CreateUser(context.Background(), "johndoe", "john@example.com", "SecurePass123")

	if !errors.Is(err, users.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}

	if repo.saveCalls != 0 {
		t.Fatalf("save was called for an existing email")
	}

	if hasher.hashCalls != 0 {
		t.Fatalf("hash was called for an existing email")
	}
}

func TestCreateUser_RepoFailurePropagates(t *testing.T) {
	boom := errors.New("connection refused")

	repo := &fakeRepo{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return user.User{}, boom
		},
	}
	svc := users.NewService(repo, &fakeHasher{})

	_, err := svc.CreateUser(context.Background(), "johndoe", "john@example.com", "SecurePass123")

	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the repository error unchanged", err)
	}
}

func TestAuthenticate(t *testing.T) {
	stored := user.User{ID: "u-1", Email: "john@example.com", PasswordHash: "hashed:SecurePass123"}

	repo := &fakeRepo{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			if email == stored.Email {
				return stored, nil
			}
			return user.User{}, users.ErrNotFound
		},
	}

	t.Run("success returns record unchanged", func(t *testing.T) {
		svc := users.NewService(repo, &fakeHasher{})

		u, err := svc.Authenticate(context.Background(), "john@example.com", "SecurePass123")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if u != stored {
			t.Fatalf("got %+v, want the stored record", u)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		svc := users.NewService(repo, &fakeHasher{})

		_, err := svc.Authenticate(context.Background(), "john@example.com", "WrongPass999")
		if !errors.Is(err, users.ErrInvalidCredentials) {
			t.Fatalf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email still runs one verify", func(t *testing.T) {
		hasher := &fakeHasher{}
		svc := users.NewService(repo, hasher)

		_, err := svc.Authenticate(context.Background(), "nobody@example.com", "SecurePass123")
		if !errors.Is(err, users.ErrInvalidCredentials) {
			t.Fatalf("err = %v, want ErrInvalidCredentials", err)
		}
		if hasher.verifyCalls != 1 {
			t.Fatalf("verify called %d times, want 1 (timing equalization)", hasher.verifyCalls)
		}
	})
}

func TestGetUser(t *testing.T) {
	stored := user.User{ID: "u-1", Username: "johndoe", Email: "john@example.com"}

	repo := &fakeRepo{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			if id == stored.ID {
				return stored, nil
			}
			return user.User{}, users.ErrNotFound
		},
	}
	svc := users.NewService(repo, &fakeHasher{})

	u, err := svc.GetUser(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u != stored {
		t.Fatalf("got %+v, want identity round-trip", u)
	}

	_, err = svc.GetUser(context.Background(), "missing")
	if !errors.Is(err, users.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
