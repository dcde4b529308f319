// Package octal implements the fixed-width octal integer encoding used
// by tar header fields: ASCII octal digits, right-justified with
// leading zeros, terminated by a NUL byte.
package octal

import "errors"

// Sentinel errors. Callers typically map both onto a single format error.
var (
	// ErrSyntax is returned when a field contains a byte outside '0'..'7'
	// before the terminating NUL.
	ErrSyntax = errors.New("octal: invalid digit")

	// ErrRange is returned when a value does not fit the field, either
	// while parsing (accumulation past 32 bits) or printing (more digits
	// than the field holds).
	ErrRange = errors.New("octal: value out of range")
)

const maxUint32 = 1<<32 - 1

// Parse decodes a fixed-width octal field. Parsing stops at the first
// NUL byte or at the end of the field, whichever comes first. An empty
// field decodes as zero.
func Parse(field []byte) (uint32, error) {
	var n uint64
	for _, c := range field {
		if c == 0 {
			break
		}
		if c < '0' || c > '7' {
			return 0, ErrSyntax
		}
		n = n<<3 | uint64(c-'0')
		if n > maxUint32 {
			return 0, ErrRange
		}
	}
	return uint32(n), nil
}

// Print encodes v into field, right-justified with leading zeros and a
// trailing NUL in the last byte. It fails with ErrRange when v needs
// more digits than the field holds.
func Print(field []byte, v uint32) error {
	i := len(field) - 1
	field[i] = 0
	for {
		if i == 0 {
			return ErrRange
		}
		i--
		field[i] = '0' + byte(v&7)
		v >>= 3
		if v == 0 {
			break
		}
	}
	for i > 0 {
		i--
		field[i] = '0'
	}
	return nil
}
