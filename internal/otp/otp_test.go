package otp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medilink/internal/audit"
	"medilink/internal/platform/metrics"
	"medilink/pkg/platform/sentinel"
)

// fakeProvider scripts provider behavior per call.
type fakeProvider struct {
	requestErr error
	sendErr    error
	confirmErr error

	code    string
	idToken string

	challenges    int
	sends         int
	cleared       []string
	confirmations int
}

func (f *fakeProvider) RequestChallenge(_ context.Context, _ string) (string, error) {
	if f.requestErr != nil {
		return "", f.requestErr
	}
	f.challenges++
	return fmt.Sprintf("challenge-%d", f.challenges), nil
}

func (f *fakeProvider) SendCode(_ context.Context, _, _ string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sends++
	return fmt.Sprintf("confirmation-%d", f.sends), nil
}

func (f *fakeProvider) ClearChallenge(_ context.Context, challengeID string) error {
	f.cleared = append(f.cleared, challengeID)
	return nil
}

func (f *fakeProvider) ConfirmCode(_ context.Context, _, code string) (string, error) {
	f.confirmations++
	if f.confirmErr != nil {
		return "", f.confirmErr
	}
	if code != f.code {
		return "", errors.New("code mismatch")
	}
	return f.idToken, nil
}

func newVerifier(t *testing.T, provider Provider) (*Verifier, *MemoryTokenStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := NewMemoryTokenStore()
	m := metrics.NewFor(prometheus.NewRegistry())
	auditor := audit.NewPublisher(logger, 16)
	return NewVerifier(provider, tokens, logger, m, auditor), tokens
}

func TestSend_HappyPath(t *testing.T) {
	provider := &fakeProvider{code: "123456", idToken: "token-1"}
	v, _ := newVerifier(t, provider)

	st := v.Send(context.Background(), "s-1", "+33612345678", State{Status: StatusIdle})

	assert.Equal(t, StatusSent, st.Status)
	assert.Equal(t, "challenge-1", st.ChallengeID)
	assert.Equal(t, "confirmation-1", st.ConfirmationID)
	assert.Empty(t, st.Error)
}

func TestSend_ResendInvalidatesPreviousConfirmation(t *testing.T) {
	provider := &fakeProvider{code: "123456", idToken: "token-1"}
	v, _ := newVerifier(t, provider)

	st := v.Send(context.Background(), "s-1", "+33612345678", State{Status: StatusIdle})
	st = v.Send(context.Background(), "s-1", "+33612345678", st)

	assert.Equal(t, []string{"challenge-1"}, provider.cleared)
	assert.Equal(t, "challenge-2", st.ChallengeID)
	assert.Equal(t, "confirmation-2", st.ConfirmationID, "old handle must be replaced")
	assert.Equal(t, StatusSent, st.Status)
}

func TestSend_NetworkError(t *testing.T) {
	provider := &fakeProvider{sendErr: fmt.Errorf("dial tcp: %w", sentinel.ErrUnavailable)}
	v, _ := newVerifier(t, provider)

	st := v.Send(context.Background(), "s-1", "+33612345678", State{Status: StatusIdle})

	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "Veuillez vérifier votre connexion internet et réessayer.", st.Error)
	assert.Empty(t, st.ConfirmationID)
}

func TestSend_GenericError(t *testing.T) {
	provider := &fakeProvider{requestErr: errors.New("quota exceeded")}
	v, _ := newVerifier(t, provider)

	st := v.Send(context.Background(), "s-1", "+33612345678", State{Status: StatusIdle})

	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "Erreur lors de l'envoi du code", st.Error)
}

func TestSend_AlreadyVerifiedIsNoop(t *testing.T) {
	provider := &fakeProvider{}
	v, _ := newVerifier(t, provider)

	st := v.Send(context.Background(), "s-1", "+33612345678", State{Status: StatusVerified})

	assert.Equal(t, StatusVerified, st.Status)
	assert.Zero(t, provider.challenges)
}

func TestConfirm_Success(t *testing.T) {
	provider := &fakeProvider{code: "123456", idToken: "token-1"}
	v, tokens := newVerifier(t, provider)

	st := v.Send(context.Background(), "s-1", "+33612345678", State{Status: StatusIdle})
	st = v.Confirm(context.Background(), "s-1", "123456", st)

	assert.Equal(t, StatusVerified, st.Status)
	assert.True(t, st.Verified())
	assert.Empty(t, st.Error)

	stored, err := tokens.Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "token-1", stored, "identity token must be persisted")
}

func TestConfirm_NormalizesCodeInput(t *testing.T) {
	provider := &fakeProvider{code: "123456", idToken: "token-1"}
	v, _ := newVerifier(t, provider)

	st := v.Send(context.Background(), "s-1", "+33612345678", State{Status: StatusIdle})
	st = v.Confirm(context.Background(), "s-1", " 12 34-56 ", st)

	assert.Equal(t, StatusVerified, st.Status)
}

func TestConfirm_WrongLength(t *testing.T) {
	provider := &fakeProvider{code: "123456"}
	v, _ := newVerifier(t, provider)

	st := v.Send(context.Background(), "s-1", "+33612345678", State{Status: StatusIdle})
	st = v.Confirm(context.Background(), "s-1", "123", st)

	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "Code OTP invalide", st.Error)
	assert.Zero(t, provider.confirmations, "short codes never reach the provider")
}

func TestConfirm_WrongCode(t *testing.T) {
	provider := &fakeProvider{code: "123456"}
	v, _ := newVerifier(t, provider)

	st := v.Send(context.Background(), "s-1", "+33612345678", State{Status: StatusIdle})
	st = v.Confirm(context.Background(), "s-1", "654321", st)

	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "Code OTP invalide", st.Error)
}

func TestConfirm_FailureIsIdempotent(t *testing.T) {
	provider := &fakeProvider{code: "123456"}
	v, _ := newVerifier(t, provider)

	st := v.Send(context.Background(), "s-1", "+33612345678", State{Status: StatusIdle})
	first := v.Confirm(context.Background(), "s-1", "654321", st)
	second := v.Confirm(context.Background(), "s-1", "654321", first)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Error, second.Error)
}

func TestConfirm_NeverRevokesVerified(t *testing.T) {
	provider := &fakeProvider{code: "123456", idToken: "token-1"}
	v, _ := newVerifier(t, provider)

	st := v.Send(context.Background(), "s-1", "+33612345678", State{Status: StatusIdle})
	st = v.Confirm(context.Background(), "s-1", "123456", st)
	require.True(t, st.Verified())

	st = v.Confirm(context.Background(), "s-1", "000000", st)
	assert.True(t, st.Verified(), "a failed confirm must not revoke an earlier success")
}

func TestConfirm_WithoutSend(t *testing.T) {
	provider := &fakeProvider{}
	v, _ := newVerifier(t, provider)

	st := v.Confirm(context.Background(), "s-1", "123456", State{Status: StatusIdle})

	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "Une erreur est survenue. Veuillez réessayer.", st.Error)
}

func TestConfirm_NetworkError(t *testing.T) {
	provider := &fakeProvider{code: "123456",
		confirmErr: fmt.Errorf("dial tcp: %w", sentinel.ErrUnavailable)}
	v, _ := newVerifier(t, provider)

	st := v.Send(context.Background(), "s-1", "+33612345678", State{Status: StatusIdle})
	st = v.Confirm(context.Background(), "s-1", "123456", st)

	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "Veuillez vérifier votre connexion internet et réessayer.", st.Error)
}
