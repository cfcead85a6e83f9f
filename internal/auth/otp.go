package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OtpTTL is how long a verification code stays valid.
const OtpTTLMillis = 5 * 60 * 1000

// GenerateOtp returns a cryptographically random 6-digit decimal code.
// Leading zeros are kept, so codes are always exactly six characters.
func GenerateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
