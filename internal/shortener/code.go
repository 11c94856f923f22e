package shortener

import (
	"fmt"
	"regexp"

	"github.com/jaevor/go-nanoid"
)

const (
	// CodeLength is the fixed length of every short code.
	CodeLength = 6
	// CodeAlphabet holds the 62 symbols a short code is drawn from.
	CodeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var codePattern = regexp.MustCompile(`^[0-9a-zA-Z]{6}$`)

// CodeGenerator generates candidate short codes. Uniqueness is enforced by
// the repository, not the generator.
type CodeGenerator func() string

// NewCodeGenerator returns a random base62 generator of CodeLength characters.
func NewCodeGenerator() (CodeGenerator, error) {
	gen, err := nanoid.CustomASCII(CodeAlphabet, CodeLength)
	if err != nil {
		return nil, fmt.Errorf("shortener: code generator: %w", err)
	}

	return gen, nil
}

// ValidCode reports whether s has the shape of a short code.
func ValidCode(s string) bool {
	return codePattern.MatchString(s)
}
