package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

const resetTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	refreshTokenBytes = 48 // hex encoded -> 96 chars
	resetTokenLength  = 32
	otpBytes          = 32 // hex encoded -> 64 chars
)

// NewRefreshToken returns a 96 character hex string drawn from 48 bytes of
// cryptographic randomness. Collisions are negligible over the lifetime of
// the system.
func NewRefreshToken() (string, error) {
	return randomHex(refreshTokenBytes)
}

// NewResetToken returns a 32 character alphanumeric token. The plaintext is
// emailed to the user; only its sha256 digest is stored.
func NewResetToken() (string, error) {
	out := make([]byte, resetTokenLength)
	max := big.NewInt(int64(len(resetTokenAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = resetTokenAlphabet[n.Int64()]
	}
	return string(out), nil
}

// NewOTP returns 32 bytes of cryptographic randomness hex encoded. The
// plaintext rides in the magic link; only its bcrypt digest is stored.
func NewOTP() (string, error) {
	return randomHex(otpBytes)
}

// NewEmailVerificationCode returns a decimal code of exactly length digits,
// uniform over [10^(length-1), 10^length) so it never starts with a zero.
func NewEmailVerificationCode(length int) (string, error) {
	if length < 1 {
		length = 1
	}
	min := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	span := new(big.Int).Mul(min, big.NewInt(9))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	n.Add(n, min)
	return n.String(), nil
}

// HashTokenValue is the fast at-rest transform for high-entropy secrets
// (refresh and reset tokens). Low-entropy secrets go through the
// CredentialHasher instead.
func HashTokenValue(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
