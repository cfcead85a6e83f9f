package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndParse(t *testing.T) {
	codec, err := NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := codec.Issue("shopper@example.com", "ROLE_SHOPPER")
	require.NoError(t, err)

	email, role, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "shopper@example.com", email)
	assert.Equal(t, "ROLE_SHOPPER", role)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	codec, err := NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := NewTokenCodec("ffffffffffffffffffffffffffffffff", time.Hour)
	require.NoError(t, err)

	token, err := codec.Issue("shopper@example.com", "ROLE_SHOPPER")
	require.NoError(t, err)

	_, _, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	codec, err := NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := codec.Issue("shopper@example.com", "ROLE_SHOPPER")
	require.NoError(t, err)

	// Flip a character in the payload segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	parts[1] = string(payload)
	tampered := strings.Join(parts, ".")

	_, _, err = codec.Parse(tampered)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	codec := &TokenCodec{secret: []byte(testSecret), expiration: -time.Minute}

	token, err := codec.Issue("shopper@example.com", "ROLE_SHOPPER")
	require.NoError(t, err)

	_, _, err = codec.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseRejectsGarbage(t *testing.T) {
	codec, err := NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)

	_, _, err = codec.Parse("not-a-token")
	assert.Error(t, err)
}

func TestNewTokenCodecRejectsShortSecret(t *testing.T) {
	_, err := NewTokenCodec("too-short", time.Hour)
	assert.Error(t, err)
}
