package security

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plain text password with bcrypt. Each call salts
// independently, so the same plaintext yields different opaque values.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// Hasher adapts the two helpers to the users.PasswordHasher collaborator
// contract.
type Hasher struct{}

func NewHasher() Hasher {
	return Hasher{}
}

func (Hasher) Hash(plain string) (string, error) {
	return HashPassword(plain)
}

func (Hasher) Verify(plain, hashed string) bool {
	return CheckPassword(hashed, plain) == nil
}
