package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token parse failures, distinguished so the API layer can report them.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenMalformed = errors.New("token malformed")
)

// Claims is the bearer token payload: identity plus role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 bearer tokens. The signing key is
// immutable after construction; rotating it invalidates all outstanding
// tokens.
type TokenCodec struct {
	secret     []byte
	expiration time.Duration
}

// NewTokenCodec creates a codec. The secret must be at least 32 bytes.
func NewTokenCodec(secret string, expiration time.Duration) (*TokenCodec, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret too short: %d bytes, need >= 32", len(secret))
	}
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &TokenCodec{secret: []byte(secret), expiration: expiration}, nil
}

// Issue signs a token carrying email and role.
func (c *TokenCodec) Issue(email, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Parse verifies the signature and expiry and returns email and role.
func (c *TokenCodec) Parse(tokenString string) (email, role string, err error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", "", ErrTokenSignature
		default:
			return "", "", ErrTokenMalformed
		}
	}
	if !token.Valid {
		return "", "", ErrTokenSignature
	}

	return claims.Subject, claims.Role, nil
}
