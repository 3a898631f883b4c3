// Package passgen generates random passwords from a configurable set of character classes.
package passgen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	LetterChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	DigitChars   = "0123456789"
	SpecialChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

	// DefaultLength is used by callers that don't ask for a specific length.
	DefaultLength = 20
)

var (
	ErrLength    = errors.New("asked to generate a 0-length password")
	ErrNoClasses = errors.New("no character classes enabled")
)

type generator struct {
	letters, digits, special bool
}

// Opt toggles a character class.
type Opt = func(g *generator)

func Letters(enabled bool) Opt {
	return func(g *generator) {
		g.letters = enabled
	}
}

func Digits(enabled bool) Opt {
	return func(g *generator) {
		g.digits = enabled
	}
}

func Special(enabled bool) Opt {
	return func(g *generator) {
		g.special = enabled
	}
}

func (g *generator) alphabet() string {
	var sb strings.Builder
	if g.letters {
		sb.WriteString(LetterChars)
	}
	if g.digits {
		sb.WriteString(DigitChars)
	}
	if g.special {
		sb.WriteString(SpecialChars)
	}
	return sb.String()
}

// Generate will create a password with the given length.
// All character classes are enabled unless turned off with an Opt.
func Generate(length int, opts ...Opt) (string, error) {
	if length <= 0 {
		return "", ErrLength
	}
	g := &generator{letters: true, digits: true, special: true}
	for _, opt := range opts {
		opt(g)
	}
	alphabet := g.alphabet()
	if len(alphabet) == 0 {
		return "", ErrNoClasses
	}
	limit := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
