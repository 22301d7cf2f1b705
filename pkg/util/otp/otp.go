package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

var (
	ErrInvalidLength = errors.New("OTP length must be between 4 and 10")
	ErrMismatch      = errors.New("OTP does not match")
)

const (
	DefaultLength = 6
	MinLength     = 4
	MaxLength     = 10
)

// Range returns the inclusive bounds of a numeric code with the given number
// of digits. The first digit is never zero, so 6 yields [100000, 999999].
func Range(length int) (lo, hi int64, err error) {
	if length < MinLength || length > MaxLength {
		return 0, 0, ErrInvalidLength
	}
	lo = 1
	for i := 1; i < length; i++ {
		lo *= 10
	}
	return lo, lo*10 - 1, nil
}

// Generate creates a numeric OTP of exactly length digits from crypto/rand.
func Generate(length int) (string, error) {
	lo, hi, err := Range(length)
	if err != nil {
		return "", err
	}

	n, err := rand.Int(rand.Reader, big.NewInt(hi-lo+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}

	return strconv.FormatInt(lo+n.Int64(), 10), nil
}

// GenerateDefault creates a 6-digit OTP.
func GenerateDefault() (string, error) {
	return Generate(DefaultLength)
}

// Hash creates a hex-encoded SHA-256 hash of the OTP code.
func Hash(code string) string {
	code = strings.TrimSpace(code)

	h := sha256.New()
	h.Write([]byte(code))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify compares a plaintext OTP code against a hash in constant time.
// Returns nil if they match, ErrMismatch if they don't. Argon2id hashes are
// recognised by their PHC prefix; anything else is treated as SHA-256.
func Verify(hash, code string) error {
	if strings.HasPrefix(hash, argon2Prefix) {
		return verifyArgon2(hash, code)
	}
	computed := Hash(code)

	if subtle.ConstantTimeCompare([]byte(hash), []byte(computed)) != 1 {
		return ErrMismatch
	}

	return nil
}
