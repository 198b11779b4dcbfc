package service

import "errors"

var (
	ErrProposalNotFound = errors.New("proposal not found")
	ErrContractNotFound = errors.New("contract not found")
	ErrEmployeeNotFound = errors.New("employee with given username not found")

	// ErrWrongState means the conditional write lost: the entity's status
	// diverged between the caller's view and the write. Never retried
	// automatically; the caller must re-fetch and decide.
	ErrWrongState      = errors.New("entity is not in the required status for this transition")
	ErrNotOwner        = errors.New("caller does not own the entity")
	ErrNotReviewer     = errors.New("caller is not a reviewer")
	ErrAlreadyReviewed = errors.New("proposal has already been reviewed")

	ErrTokenInvalid         = errors.New("token is invalid")
	ErrTokenNotIssued       = errors.New("no token has been issued")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenAlreadyConsumed = errors.New("a response has already been recorded")

	ErrArtifactMissing = errors.New("contract document has not been generated or uploaded")

	ErrInvalidResponse = errors.New("response must be accepted or rejected")
)
