package otp

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"medilink/pkg/platform/sentinel"
)

// HTTPProvider talks to an external phone-verification API. Any transport
// failure is reported as sentinel.ErrUnavailable so the Verifier shows the
// connectivity message instead of the generic one.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) RequestChallenge(ctx context.Context, phone string) (string, error) {
	var out struct {
		ChallengeID string `json:"challengeId"`
	}
	err := p.do(ctx, http.MethodPost, "/v1/challenges", map[string]string{"phone": phone}, &out)
	if err != nil {
		return "", err
	}
	return out.ChallengeID, nil
}

func (p *HTTPProvider) SendCode(ctx context.Context, challengeID, phone string) (string, error) {
	var out struct {
		ConfirmationID string `json:"confirmationId"`
	}
	path := "/v1/challenges/" + challengeID + "/send"
	err := p.do(ctx, http.MethodPost, path, map[string]string{"phone": phone}, &out)
	if err != nil {
		return "", err
	}
	return out.ConfirmationID, nil
}

func (p *HTTPProvider) ClearChallenge(ctx context.Context, challengeID string) error {
	return p.do(ctx, http.MethodDelete, "/v1/challenges/"+challengeID, nil, nil)
}

func (p *HTTPProvider) ConfirmCode(ctx context.Context, confirmationID, code string) (string, error) {
	var out struct {
		IDToken string `json:"idToken"`
	}
	path := "/v1/confirmations/" + confirmationID
	err := p.do(ctx, http.MethodPost, path, map[string]string{"code": code}, &out)
	if err != nil {
		return "", err
	}
	return out.IDToken, nil
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Buffer
	if in != nil {
		body = &bytes.Buffer{}
		if err := json.NewEncoder(body).Encode(in); err != nil {
			return fmt.Errorf("encode provider request: %w", err)
		}
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("verification provider unreachable: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("verification provider error (%d): %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("verification rejected (%d)", resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode provider response: %w", err)
		}
	}
	return nil
}

// LocalProvider generates codes in-process and logs them. It stands in for
// the real provider in development so the wizard can be exercised end to end
// without SMS delivery.
type LocalProvider struct {
	logger *slog.Logger

	mu    sync.Mutex
	codes map[string]string // confirmationID -> code
}

func NewLocalProvider(logger *slog.Logger) *LocalProvider {
	return &LocalProvider{
		logger: logger,
		codes:  make(map[string]string),
	}
}

func (p *LocalProvider) RequestChallenge(_ context.Context, _ string) (string, error) {
	return uuid.NewString(), nil
}

func (p *LocalProvider) SendCode(ctx context.Context, _, phone string) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", err
	}
	confirmationID := uuid.NewString()

	p.mu.Lock()
	p.codes[confirmationID] = code
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "development verification code issued",
		"phone", phone, "code", code)
	return confirmationID, nil
}

func (p *LocalProvider) ClearChallenge(_ context.Context, _ string) error {
	return nil
}

func (p *LocalProvider) ConfirmCode(_ context.Context, confirmationID, code string) (string, error) {
	p.mu.Lock()
	expected, ok := p.codes[confirmationID]
	if ok && expected == code {
		delete(p.codes, confirmationID)
	}
	p.mu.Unlock()

	if !ok || expected != code {
		return "", fmt.Errorf("verification code mismatch")
	}
	return "local-" + uuid.NewString(), nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
