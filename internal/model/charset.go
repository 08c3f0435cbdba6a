package model

import "fmt"

// validateWriteBytes enforces the FASTA-permissible character set on any
// write to a fragment's .seq view and on each record body of a pending
// append when it is released: ASCII
// alphanumerics plus newline, hyphen, underscore, dot, plus, and equals.
// A single disallowed byte fails the whole call before any mutation.
func validateWriteBytes(data []byte) error {
	for _, b := range data {
		if !isPermittedWriteByte(b) {
			return fmt.Errorf("%w: disallowed byte %q", ErrInvalidData, b)
		}
	}
	return nil
}

func isPermittedWriteByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '\n', '-', '_', '.', '+', '=':
		return true
	}
	return false
}
