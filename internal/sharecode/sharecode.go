// Package sharecode issues the short join codes that let users join a
// collection without a direct invitation.
package sharecode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
)

const (
	// Length of every share code.
	Length = 8

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxAttempts bounds the regenerate-on-collision loop. Collisions are
	// astronomically unlikely at this alphabet size, so hitting the budget
	// means something is wrong with the uniqueness probe.
	maxAttempts = 20
)

// ErrExhausted is returned when the retry budget is spent without producing
// a unique code. Callers treat it as a server fault, not user error.
var ErrExhausted = errors.New("share code generation exhausted retry budget")

// ExistsFunc reports whether a code is already taken. The comparison must be
// case-insensitive; Generate only produces upper-case codes.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

type Generator struct {
	exists ExistsFunc
}

func NewGenerator(exists ExistsFunc) *Generator {
	return &Generator{exists: exists}
}

// Generate draws random codes until one is unused.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		taken, err := g.exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("share code uniqueness check: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Normalize upper-cases and trims a user-supplied code so lookups are
// case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// rejectAbove is the largest multiple of the alphabet size that fits in a
// byte. Bytes at or beyond it are discarded; mapping them through modulo
// would skew the draw toward the front of the alphabet.
const rejectAbove = 256 - 256%len(alphabet)

func randomCode() (string, error) {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length)
	for len(out) < Length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		out = appendLetters(out, buf)
	}
	return string(out), nil
}

func appendLetters(dst, src []byte) []byte {
	for _, b := range src {
		if len(dst) == Length {
			break
		}
		if int(b) >= rejectAbove {
			continue
		}
		dst = append(dst, alphabet[int(b)%len(alphabet)])
	}
	return dst
}
