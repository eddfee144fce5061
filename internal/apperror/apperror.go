// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package apperror defines the error taxonomy returned by the service layer
// and the translation of storage constraint violations into it.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindDuplicateValue
	KindUnknownValue
	KindInvalidValue
	KindNotFound
	KindLogin
	KindEmailNotVerified
	KindPasswordTooShort
	KindPasswordNotComplex
	KindInvalidCharactersInURL
	KindLinkAlreadyShortened
	KindInvalidLink
	KindBadRequest
)

var kindCodes = map[Kind]string{
	KindInternal:               "internal_error",
	KindDuplicateValue:         "duplicate_value",
	KindUnknownValue:           "unknown_value",
	KindInvalidValue:           "invalid_value",
	KindNotFound:               "not_found",
	KindLogin:                  "login_error",
	KindEmailNotVerified:       "email_not_verified",
	KindPasswordTooShort:       "password_too_short",
	KindPasswordNotComplex:     "password_not_complex",
	KindInvalidCharactersInURL: "invalid_characters_in_url",
	KindLinkAlreadyShortened:   "link_already_shortened",
	KindInvalidLink:            "invalid_link",
	KindBadRequest:             "bad_request",
}

var kindMessages = map[Kind]string{
	KindInternal:               "An internal error occurred. Please try again later.",
	KindDuplicateValue:         "%s is already in use!",
	KindUnknownValue:           "%s does not exist!",
	KindInvalidValue:           "%s is not valid!",
	KindNotFound:               "Not found.",
	KindLogin:                  "Invalid login.",
	KindEmailNotVerified:       "Email not verified",
	KindPasswordTooShort:       "Password too short. Passwords should contain at least 8 characters.",
	KindPasswordNotComplex:     "Password not complex enough. Passwords should contain at least one lowercase letter, one uppercase letter, one number, and one symbol.",
	KindInvalidCharactersInURL: "Invalid characters in URL.",
	KindLinkAlreadyShortened:   "The provided link looks like it's already shortened.",
	KindInvalidLink:            "That doesn't look like a URL, try again.",
	KindBadRequest:             "Bad Request.",
}

// String returns the stable machine-readable code of the kind.
func (k Kind) String() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return kindCodes[KindInternal]
}

// MessageID returns the i18n message ID for the kind.
func (k Kind) MessageID() string {
	return "error_" + k.String()
}

// HasField reports whether messages of this kind name a field.
func (k Kind) HasField() bool {
	return k == KindDuplicateValue || k == KindUnknownValue || k == KindInvalidValue
}

// Error is a typed application error. Field is only set for the
// DuplicateValue, UnknownValue and InvalidValue kinds.
type Error struct {
	Kind  Kind
	Field string
}

func (e *Error) Error() string {
	msg, ok := kindMessages[e.Kind]
	if !ok {
		msg = kindMessages[KindInternal]
	}
	if e.Kind.HasField() {
		return fmt.Sprintf(msg, e.Field)
	}
	return msg
}

// Is matches on kind. A target without a field matches any field.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}

// Sentinels for errors.Is checks.
var (
	ErrInternal               = &Error{Kind: KindInternal}
	ErrDuplicateValue         = &Error{Kind: KindDuplicateValue}
	ErrUnknownValue           = &Error{Kind: KindUnknownValue}
	ErrInvalidValue           = &Error{Kind: KindInvalidValue}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrLogin                  = &Error{Kind: KindLogin}
	ErrEmailNotVerified       = &Error{Kind: KindEmailNotVerified}
	ErrPasswordTooShort       = &Error{Kind: KindPasswordTooShort}
	ErrPasswordNotComplex     = &Error{Kind: KindPasswordNotComplex}
	ErrInvalidCharactersInURL = &Error{Kind: KindInvalidCharactersInURL}
	ErrLinkAlreadyShortened   = &Error{Kind: KindLinkAlreadyShortened}
	ErrInvalidLink            = &Error{Kind: KindInvalidLink}
	ErrBadRequest             = &Error{Kind: KindBadRequest}
)

// DuplicateValue returns a uniqueness error for field.
func DuplicateValue(field string) error {
	return &Error{Kind: KindDuplicateValue, Field: field}
}

// UnknownValue returns a reference error for field.
func UnknownValue(field string) error {
	return &Error{Kind: KindUnknownValue, Field: field}
}

// InvalidValue returns a check error for field.
func InvalidValue(field string) error {
	return &Error{Kind: KindInvalidValue, Field: field}
}

// KindOf returns the kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// FieldOf returns the field of err, or "" if err carries none.
func FieldOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
