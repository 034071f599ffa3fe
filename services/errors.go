package services

import "errors"

var (
	// ErrValidation rejects bad input synchronously; never retried.
	ErrValidation = errors.New("validation failed")

	// ErrAlreadyProcessed means the operation already ran to completion for
	// this target (a second distribution for the same payer, or a decision on
	// a non-pending withdrawal). Callers treat it as a benign no-op.
	ErrAlreadyProcessed = errors.New("already processed")

	// ErrInsufficientBalance means the wallet cannot cover the requested
	// debit. No state changes.
	ErrInsufficientBalance = errors.New("insufficient balance")

	ErrUserNotFound         = errors.New("user not found")
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
	ErrReferralCodeNotFound = errors.New("referral code not found")
)
