// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package credential

import (
	"unicode"

	"codeberg.org/oliverandrich/shortlink/internal/apperror"
)

// MinLength is the minimum password length in bytes.
const MinLength = 8

// CheckPolicy validates a password against the length and complexity rules.
// A password must be at least MinLength bytes and contain an ASCII
// uppercase letter, an ASCII lowercase letter, a digit and a symbol.
// Digits and symbols are judged by Unicode class, so letters such as ö are
// word characters, not symbols.
func CheckPolicy(password string) error {
	if len(password) < MinLength {
		return apperror.ErrPasswordTooShort
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		if r >= 'A' && r <= 'Z' {
			hasUpper = true
		}
		if r >= 'a' && r <= 'z' {
			hasLower = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if !isWordRune(r) {
			hasSymbol = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return apperror.ErrPasswordNotComplex
	}
	return nil
}

// isWordRune reports whether r is a Unicode word character: a letter, a
// mark, a decimal digit, connector punctuation or a joiner.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) ||
		unicode.Is(unicode.Nl, r) ||
		unicode.Is(unicode.Other_Alphabetic, r) ||
		unicode.IsMark(r) ||
		unicode.IsDigit(r) ||
		unicode.Is(unicode.Pc, r) ||
		unicode.Is(unicode.Join_Control, r)
}
