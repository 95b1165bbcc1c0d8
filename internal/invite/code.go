package invite

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/mjoly/fete-invites/internal/domain"
)

const (
	minCodeLength = 12
	maxCodeLength = 32

	// maxAttempts bounds retries against the store's uniqueness check.
	maxAttempts = 5
)

// Generator issues guest invitation codes from a cryptographically secure
// random source. Codes are lowercase hex, 12 to 32 characters.
type Generator struct {
	length int
}

func NewGenerator(length int) *Generator {
	if length < minCodeLength {
		length = minCodeLength
	}
	if length > maxCodeLength {
		length = maxCodeLength
	}
	if length%2 != 0 {
		length++
	}
	return &Generator{length: length}
}

// NewCode draws one code without any uniqueness guarantee.
func (g *Generator) NewCode() (string, error) {
	buf := make([]byte, g.length/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CodeChecker is the slice of the guest store the generator needs.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// UniqueCode draws codes until one is free in the store, giving up after a
// bounded number of attempts with domain.ErrCodeExhausted.
func (g *Generator) UniqueCode(ctx context.Context, checker CodeChecker) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		code, err := g.NewCode()
		if err != nil {
			return "", err
		}
		exists, err := checker.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", domain.ErrCodeExhausted
}
