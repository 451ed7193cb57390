package auth

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Account struct {
	UID          string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	Admin        bool
	CreatedAt    time.Time
}

// PasswordMatches verifies a plaintext password against the stored hash.
func (a Account) PasswordMatches(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

type Session struct {
	Token      string
	ShopperUID string
	Email      string
	Admin      bool
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

func (s Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// HashPassword returns a salted bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
