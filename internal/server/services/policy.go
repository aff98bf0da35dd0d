package services

import (
	"strings"
	"unicode/utf8"

	"github.com/abidm-bit/riceKrispies/internal/common"
)

// DefaultPasswordSymbols is the symbol set a password must draw from.
const DefaultPasswordSymbols = "!@#$%^&*()_+={}|,.<>/?-"

// PasswordPolicy describes an acceptable password: MinLength to MaxLength
// characters, with at least one ASCII upper-case letter and one character
// from Symbols.
type PasswordPolicy struct {
	MinLength int
	MaxLength int
	Symbols   string
}

// NewPasswordPolicy returns the production policy. An empty symbol set falls
// back to DefaultPasswordSymbols.
func NewPasswordPolicy(symbols string) PasswordPolicy {
	if symbols == "" {
		symbols = DefaultPasswordSymbols
	}
	return PasswordPolicy{
		MinLength: 8,
		MaxLength: 100,
		Symbols:   symbols,
	}
}

// Check returns common.ErrorValidation when password violates the policy.
func (p PasswordPolicy) Check(password string) error {
	n := utf8.RuneCountInString(password)
	if n < p.MinLength || n > p.MaxLength {
		return common.ErrorValidation
	}

	var upper, symbol bool
	for _, r := range password {
		if 'A' <= r && r <= 'Z' {
			upper = true
		}
		if strings.ContainsRune(p.Symbols, r) {
			symbol = true
		}
	}
	if !upper || !symbol {
		return common.ErrorValidation
	}
	return nil
}
