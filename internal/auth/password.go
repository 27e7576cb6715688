package auth

import (
	"golang.org/x/crypto/bcrypt"

	"maintrack/internal/core"
)

// MinPasswordLength is enforced on account creation.
const MinPasswordLength = 6

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", core.ErrPasswordTooShort
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword compares a plaintext password with a stored bcrypt hash.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidateSignUp checks the password rules of the sign-up form.
func ValidateSignUp(password, confirm string) error {
	if len(password) < MinPasswordLength {
		return core.ErrPasswordTooShort
	}
	if password != confirm {
		return core.ErrPasswordMismatch
	}
	return nil
}
