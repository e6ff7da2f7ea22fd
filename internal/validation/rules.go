// Package validation holds jellydator/validation rules shared by the domain packages.
package validation

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/credstore/internal/errors"
)

var (
	// identifierRegex matches secure area identifiers and key aliases.
	identifierRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:\-]*$`)
)

// WrapValidationError maps a validation failure to ErrInvalidInput, keeping the field messages.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// PassphraseStrength validates the passphrase protecting a key.
type PassphraseStrength struct {
	MinLength     int
	RequireLetter bool
	RequireNumber bool
}

// Validate checks if the passphrase meets the configured requirements.
// Empty values pass so Required can decide whether a passphrase is mandatory.
func (p PassphraseStrength) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_passphrase_type", "passphrase must be a string")
	}
	if s == "" {
		return nil
	}

	if len([]rune(s)) < p.MinLength {
		return validation.NewError(
			"validation_passphrase_min_length",
			"passphrase must be at least "+strconv.Itoa(p.MinLength)+" characters",
		)
	}

	if p.RequireLetter && !strings.ContainsFunc(s, unicode.IsLetter) {
		return validation.NewError("validation_passphrase_letter", "passphrase must contain at least one letter")
	}

	if p.RequireNumber && !strings.ContainsFunc(s, unicode.IsNumber) {
		return validation.NewError("validation_passphrase_number", "passphrase must contain at least one number")
	}

	return nil
}

// Identifier validates key aliases and secure area identifiers: a letter or
// digit followed by letters, digits, '.', '_', ':' or '-'.
var Identifier = validation.NewStringRuleWithError(
	func(s string) bool {
		return identifierRegex.MatchString(s)
	},
	validation.NewError("validation_identifier", "must start with a letter or digit and contain only letters, digits, '.', '_', ':' or '-'"),
)

// NoWhitespace rejects leading or trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank rejects strings that are empty once trimmed.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// HTTPURL accepts absolute http and https URLs with a host.
var HTTPURL = validation.NewStringRuleWithError(
	func(s string) bool {
		u, err := url.Parse(s)
		if err != nil {
			return false
		}
		return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	},
	validation.NewError("validation_http_url", "must be an absolute http or https URL"),
)
