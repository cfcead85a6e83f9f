package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost must stay >= 10; stored digests remain verifiable if the
// cost is raised later.
const bcryptCost = 12

// HashPassword derives a one-way digest of the plain password.
func HashPassword(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports whether plain matches the stored digest.
// Comparison is constant-time inside bcrypt.
func VerifyPassword(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
