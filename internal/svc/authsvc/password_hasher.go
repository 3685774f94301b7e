package authsvc

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt will consider in full.
const MaxPasswordBytes = 72

var (
	// ErrPasswordTooLong is returned for passwords over MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
	// ErrPasswordEncoding is returned for passwords that are not valid UTF-8.
	ErrPasswordEncoding = errors.New("password is not valid utf-8")
	// ErrInvalidConfig is returned for out-of-range service settings.
	ErrInvalidConfig = errors.New("invalid auth config")
)

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost int

	// dummyHash is compared against when a user does not exist so the
	// response time does not reveal whether the username is registered.
	dummyHash []byte
}

// NewPasswordHasher returns a hasher using the given bcrypt cost.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d", ErrInvalidConfig, cost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}

	return &PasswordHasher{cost: cost, dummyHash: dummy}, nil
}

// Cost returns the configured bcrypt cost.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt hash of plaintext. Two calls with the same
// input produce different hashes.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if !utf8.ValidString(plaintext) {
		return "", ErrPasswordEncoding
	}

	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("generate hash: %w", err)
	}

	return string(hash), nil
}

// Verify reports whether plaintext matches hash. A malformed hash never matches.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// VerifyDummy burns the same time as Verify against a real hash and always
// returns false.
func (h *PasswordHasher) VerifyDummy(plaintext string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(plaintext))

	return false
}

// Calibrate returns the lowest bcrypt cost, up to maxCost, whose hash takes at
// least target on this machine, along with the measured duration.
func Calibrate(target time.Duration, maxCost int) (int, time.Duration, error) {
	maxCost = min(max(maxCost, bcrypt.MinCost), bcrypt.MaxCost)

	var elapsed time.Duration

	for cost := bcrypt.MinCost; cost <= maxCost; cost++ {
		start := time.Now()

		if _, err := bcrypt.GenerateFromPassword([]byte("calibration-probe"), cost); err != nil {
			return 0, 0, fmt.Errorf("hash at cost %d: %w", cost, err)
		}

		elapsed = time.Since(start)

		if elapsed >= target {
			return cost, elapsed, nil
		}
	}

	return maxCost, elapsed, nil
}
