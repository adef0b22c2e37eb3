package audit

import "time"

// Event is emitted from domain logic to capture security-relevant actions.
// Keep it transport-agnostic so sinks can fan out.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Action    Action            `json:"action"`
	SubjectID string            `json:"subject_id,omitempty"`
	Actor     string            `json:"actor,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// Action enumerates audited portal actions.
type Action string

const (
	ActionPatientRegistered Action = "patient.registered"
	ActionDoctorRegistered  Action = "doctor.registered"
	ActionDoctorVerified    Action = "doctor.verified"
	ActionUserRegistered    Action = "user.registered"
	ActionLoginSucceeded    Action = "auth.login_succeeded"
	ActionLoginFailed       Action = "auth.login_failed"
	ActionOTPConfirmed      Action = "otp.confirmed"
)
