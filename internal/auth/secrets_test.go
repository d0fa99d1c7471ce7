package auth

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRefreshToken(t *testing.T) {
	tok, err := NewRefreshToken()
	require.NoError(t, err)
	assert.Len(t, tok, 96)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]+$`), tok)

	other, err := NewRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)
}

func TestNewResetToken(t *testing.T) {
	tok, err := NewResetToken()
	require.NoError(t, err)
	assert.Len(t, tok, 32)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]+$`), tok)
}

func TestNewOTP(t *testing.T) {
	otp, err := NewOTP()
	require.NoError(t, err)
	assert.Len(t, otp, 64)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]+$`), otp)
}

func TestNewEmailVerificationCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := NewEmailVerificationCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.Less(t, n, 1000000)
	}
}

func TestNewEmailVerificationCodeSingleDigit(t *testing.T) {
	code, err := NewEmailVerificationCode(1)
	require.NoError(t, err)
	require.Len(t, code, 1)
	assert.NotEqual(t, "0", code)
}

func TestHashTokenValue(t *testing.T) {
	h := HashTokenValue("secret")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashTokenValue("secret"))
	assert.NotEqual(t, h, HashTokenValue("Secret"))
}
