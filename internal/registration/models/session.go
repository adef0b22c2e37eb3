package models

import (
	"time"

	"medilink/internal/otp"
)

// Actor selects which wizard flow a session runs.
const (
	ActorPatient = "patient"
	ActorDoctor  = "doctor"
)

// IsActor reports whether v names a known wizard flow.
func IsActor(v string) bool {
	return v == ActorPatient || v == ActorDoctor
}

// Session is one in-flight registration wizard. Everything the flow needs
// lives here so any server instance can pick the session up from the store.
type Session struct {
	ID          string            `json:"id"`
	Actor       string            `json:"actor"`
	CurrentStep int               `json:"currentStep"`
	Fields      map[string]string `json:"fields"`
	FieldErrors map[string]string `json:"fieldErrors"`

	// OTP is the phone verification state. OTPVerified is monotonic: once
	// true it never goes back to false, even if a later confirm fails.
	OTP         otp.State `json:"otp"`
	OTPVerified bool      `json:"otpVerified"`
	// OTPArmed records that the OTP sub-form has been revealed, which
	// happens on the first Next press with an unverified phone.
	OTPArmed bool `json:"otpArmed"`

	SubmitError string `json:"submitError,omitempty"`
	Completed   bool   `json:"completed"`
	Redirect    string `json:"redirect,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session has outlived its TTL.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
