// Package otp drives phone number verification through an external
// one-time-code provider. The Verifier owns the challenge and confirmation
// handles for one registration session; the wizard stores the resulting State
// alongside the rest of the session.
package otp

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"medilink/internal/audit"
	"medilink/internal/platform/metrics"
	"medilink/pkg/platform/sentinel"
	"medilink/pkg/requestcontext"
)

// Status tracks where a session's phone verification stands.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusVerifying Status = "verifying"
	StatusVerified  Status = "verified"
	StatusError     Status = "error"
)

// State is the per-session verification state. Handles are explicit session
// data, never process-global.
type State struct {
	Status         Status `json:"status"`
	ChallengeID    string `json:"challengeId,omitempty"`
	ConfirmationID string `json:"confirmationId,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Verified reports whether the session's phone has been confirmed.
func (s State) Verified() bool { return s.Status == StatusVerified }

// Provider is the narrow boundary over the external verification service.
// Connectivity failures must wrap sentinel.ErrUnavailable so the Verifier can
// tell the user to check their connection rather than retry blindly.
type Provider interface {
	RequestChallenge(ctx context.Context, phone string) (challengeID string, err error)
	SendCode(ctx context.Context, challengeID, phone string) (confirmationID string, err error)
	ClearChallenge(ctx context.Context, challengeID string) error
	ConfirmCode(ctx context.Context, confirmationID, code string) (idToken string, err error)
}

// TokenStore durably keeps the provider identity token a successful
// confirmation yields.
type TokenStore interface {
	Save(ctx context.Context, sessionID, idToken string) error
	Get(ctx context.Context, sessionID string) (string, error)
}

const (
	msgNetwork     = "Veuillez vérifier votre connexion internet et réessayer."
	msgSendFailed  = "Erreur lors de l'envoi du code"
	msgInvalidCode = "Code OTP invalide"
	msgGeneric     = "Une erreur est survenue. Veuillez réessayer."
)

// Verifier implements the send/confirm flow on top of a Provider.
type Verifier struct {
	provider Provider
	tokens   TokenStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  *audit.Publisher
}

func NewVerifier(provider Provider, tokens TokenStore, logger *slog.Logger, m *metrics.Metrics, auditor *audit.Publisher) *Verifier {
	return &Verifier{
		provider: provider,
		tokens:   tokens,
		logger:   logger,
		metrics:  m,
		auditor:  auditor,
	}
}

// Send requests a challenge and dispatches a code to phone. A re-send first
// clears the previous challenge, which invalidates any outstanding
// confirmation handle. A session that already verified stays verified.
func (v *Verifier) Send(ctx context.Context, sessionID, phone string, st State) State {
	if st.Verified() {
		return st
	}

	if st.ChallengeID != "" {
		if err := v.provider.ClearChallenge(ctx, st.ChallengeID); err != nil {
			v.logger.WarnContext(ctx, "challenge cleanup failed",
				"session_id", sessionID, "error", err)
		}
		st.ChallengeID = ""
		st.ConfirmationID = ""
	}

	st.Status = StatusSending
	st.Phone = phone
	st.Error = ""

	challengeID, err := v.provider.RequestChallenge(ctx, phone)
	if err != nil {
		return v.sendFailed(ctx, sessionID, st, err)
	}
	st.ChallengeID = challengeID

	confirmationID, err := v.provider.SendCode(ctx, challengeID, phone)
	if err != nil {
		st.ChallengeID = ""
		return v.sendFailed(ctx, sessionID, st, err)
	}

	st.ConfirmationID = confirmationID
	st.Status = StatusSent
	v.metrics.OTPCodesSent.Inc()
	v.logger.InfoContext(ctx, "verification code sent", "session_id", sessionID)
	return st
}

// Confirm checks the user-entered code against the live confirmation handle.
// On success the provider identity token is persisted; the token store being
// down does not revoke the verification. A previously verified session is
// never downgraded.
func (v *Verifier) Confirm(ctx context.Context, sessionID, code string, st State) State {
	if st.Verified() {
		return st
	}

	normalized := digits(code)
	if len(normalized) != codeLength {
		st.Status = StatusError
		st.Error = msgInvalidCode
		return st
	}

	if st.ConfirmationID == "" {
		st.Status = StatusError
		st.Error = msgGeneric
		return st
	}

	st.Status = StatusVerifying
	st.Error = ""

	idToken, err := v.provider.ConfirmCode(ctx, st.ConfirmationID, normalized)
	if err != nil {
		v.metrics.OTPConfirmations.WithLabelValues("failure").Inc()
		st.Status = StatusError
		if errors.Is(err, sentinel.ErrUnavailable) {
			st.Error = msgNetwork
		} else {
			st.Error = msgInvalidCode
		}
		return st
	}

	if err := v.tokens.Save(ctx, sessionID, idToken); err != nil {
		v.logger.ErrorContext(ctx, "identity token persistence failed",
			"session_id", sessionID, "error", err)
	}

	st.Status = StatusVerified
	st.Error = ""
	v.metrics.OTPConfirmations.WithLabelValues("success").Inc()
	v.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionOTPConfirmed,
		SubjectID: sessionID,
		Timestamp: requestcontext.Now(ctx),
	})
	return st
}

func (v *Verifier) sendFailed(ctx context.Context, sessionID string, st State, err error) State {
	v.logger.WarnContext(ctx, "verification code send failed",
		"session_id", sessionID, "error", err)
	st.Status = StatusError
	st.ConfirmationID = ""
	if errors.Is(err, sentinel.ErrUnavailable) {
		st.Error = msgNetwork
	} else {
		st.Error = msgSendFailed
	}
	return st
}

const codeLength = 6

// digits strips every non-digit rune so "123 456" and "123-456" confirm like
// "123456".
func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
