package services

import "errors"

// Precondition failures surfaced to the caller before any write is attempted.
// Handlers map these to 4xx responses.
var (
	ErrNotParticipant    = errors.New("user is not a participant of this challenge")
	ErrChallengeInactive = errors.New("challenge is not active today")
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrChallengeFull     = errors.New("challenge has reached its participant limit")
	ErrAlreadyJoined     = errors.New("user already joined this challenge")
	ErrNotAuthorized     = errors.New("user is not allowed to perform this action")
	ErrCannotRemoveOwner = errors.New("the challenge owner cannot be removed")
	ErrInvalidRequest    = errors.New("invalid request")
)
