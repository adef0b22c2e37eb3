package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, the OTP provider adapter
// and the blob store return these (optionally wrapped) so services can
// translate them into domain errors with user-facing messages.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity or session does not exist in store
// - ErrExpired: session/code/token has expired
// - ErrAlreadyUsed: unique value (email, phone, license number) already taken
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: backing service temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
