package session

import "fmt"

// MaxIdentifierLength bounds a session identifier in bytes.
const MaxIdentifierLength = 64

// ValidateIdentifier checks a session identifier. The identifier names a
// directory, a store file and an SQL table, so it is restricted to
// letters, digits, '-' and '_'.
func ValidateIdentifier(id string) error {
	if id == "" {
		return ErrEmptyIdentifier
	}
	if len(id) > MaxIdentifierLength {
		return fmt.Errorf("%w: %d bytes, max %d", ErrIdentifierTooLong, len(id), MaxIdentifierLength)
	}
	for i := 0; i < len(id); i++ {
		if !isIdentByte(id[i]) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
		}
	}
	return nil
}

func isIdentByte(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_'
}
