package domain

import (
	"errors"
	"fmt"
)

// Store errors
var (
	ErrNotFound       = errors.New("document not found")
	ErrConflict       = errors.New("transaction conflict")
	ErrTooManyRetries = errors.New("transaction retried too many times")
)

// Account errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDisplayNameExists  = errors.New("display name already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// PreconditionError reports a missing or malformed identifier. It is raised
// before any transaction starts.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Msg
}

// InvalidActionError reports an action that the current game state does not
// allow: wrong phase, wrong role or not the caller's turn. Nothing is written.
type InvalidActionError struct {
	Msg string
}

func (e *InvalidActionError) Error() string {
	return "invalid action: " + e.Msg
}

// IllegalChoiceError reports an out-of-range index or an unknown type.
type IllegalChoiceError struct {
	Msg string
}

func (e *IllegalChoiceError) Error() string {
	return "illegal choice: " + e.Msg
}

func Precondition(format string, args ...any) error {
	return &PreconditionError{Msg: fmt.Sprintf(format, args...)}
}

func InvalidAction(format string, args ...any) error {
	return &InvalidActionError{Msg: fmt.Sprintf(format, args...)}
}

func IllegalChoice(format string, args ...any) error {
	return &IllegalChoiceError{Msg: fmt.Sprintf(format, args...)}
}

func IsPrecondition(err error) bool {
	var target *PreconditionError
	return errors.As(err, &target)
}

func IsInvalidAction(err error) bool {
	var target *InvalidActionError
	return errors.As(err, &target)
}

func IsIllegalChoice(err error) bool {
	var target *IllegalChoiceError
	return errors.As(err, &target)
}
