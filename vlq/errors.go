package vlq

import (
	"errors"
	"fmt"
)

// ErrInvalidCharacter matches every *InvalidCharacterError under errors.Is.
var ErrInvalidCharacter = errors.New("vlq: invalid character")

// InvalidCharacterError reports a character outside the alphabet. Offset is
// the byte offset of Char in the decoded input, or -1 when unknown.
type InvalidCharacterError struct {
	Char   rune
	Offset int
}

func (e *InvalidCharacterError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("vlq: invalid character %q", e.Char)
	}

	return fmt.Sprintf("vlq: invalid character %q at offset %d", e.Char, e.Offset)
}

func (e *InvalidCharacterError) Is(target error) bool {
	return target == ErrInvalidCharacter
}
