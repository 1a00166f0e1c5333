package service

import (
	"errors"
	"fmt"
)

// Service layer errors for better error handling
var (
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("operation not allowed for this user")

	// Matching flow errors
	ErrSelfInquiry          = errors.New("host cannot inquire on their own listing")
	ErrBlacklisted          = errors.New("user is blacklisted")
	ErrVerificationRequired = errors.New("email verification required")
	ErrAlreadySelected      = errors.New("listing already has an accepted applicant")
	ErrAlreadyCompleted     = errors.New("transaction already completed")
	ErrDuplicateReview      = errors.New("review already submitted for this pair")

	ErrInvalidCredentials = errors.New("invalid email or password")
)

// InvalidStateError reports an operation attempted against an entity that is
// no longer in the required state, carrying the state the caller raced with.
type InvalidStateError struct {
	Entity  string
	Current string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is in state %q", e.Entity, e.Current)
}

var ErrInvalidState = errors.New("invalid state")

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }
