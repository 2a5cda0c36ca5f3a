package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the bcrypt input limit; longer inputs would be silently truncated.
const MaxPasswordBytes = 72

// HashPassword returns a salted bcrypt hash. Two calls with the same input differ.
func HashPassword(p string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword reports whether p matches hash, using the salt embedded in hash.
func CheckPassword(hash, p string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(p)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// BurnPasswordCheck spends the same work as CheckPassword against a throwaway hash.
// Login calls it for unknown emails so response time does not reveal which accounts exist.
func BurnPasswordCheck(p string) {
	dummyOnce.Do(func() {
		dummyHash, _ = HashPassword("burn-password-check")
	})
	_ = CheckPassword(dummyHash, p)
}
