package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	authmodels "medilink/internal/auth/models"
	"medilink/internal/doctor/handler/mocks"
	"medilink/internal/doctor/models"
	"medilink/internal/doctor/service"
	"medilink/internal/platform/middleware"
	dErrors "medilink/pkg/domain-errors"
)

type stubValidator struct {
	claims *middleware.JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*middleware.JWTClaims, error) {
	return s.claims, s.err
}

func newRouter(t *testing.T, validator middleware.JWTValidator) (*mocks.MockService, chi.Router) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	New(mockService, logger, validator).Register(router)
	return mockService, router
}

func doctorForm(t *testing.T, withDocument bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"firstName":     "Marie",
		"lastName":      "Curie",
		"specialty":     "cardiologue",
		"licenseNumber": "FR-12345",
		"practiceCity":  "paris",
		"email":         "marie@exemple.fr",
		"phoneNumber":   "+33612345678",
		"password":      "motdepasse",
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	if withDocument {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="licenseDocument"; filename="licence.pdf"`)
		header.Set("Content-Type", "application/pdf")
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 fake"))
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postForm(t *testing.T, router chi.Router, body *bytes.Buffer, contentType string) (int, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/doctors/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec.Code, payload
}

func TestHandleRegister_Created(t *testing.T) {
	mockService, router := newRouter(t, stubValidator{})
	mockService.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req service.RegisterRequest) (models.Doctor, error) {
			assert.Equal(t, "Marie", req.FirstName)
			assert.Equal(t, "cardiologue", req.Specialty)
			assert.Equal(t, "FR-12345", req.LicenseNumber)
			require.NotNil(t, req.Document)
			assert.Equal(t, "licence.pdf", req.Document.FileName)
			assert.Equal(t, "application/pdf", req.Document.ContentType)

			content, err := io.ReadAll(req.Document.Content)
			require.NoError(t, err)
			assert.Equal(t, "%PDF-1.4 fake", string(content))

			return models.Doctor{ID: "d-1", FirstName: "Marie", LastName: "Curie"}, nil
		})

	body, contentType := doctorForm(t, true)
	status, payload := postForm(t, router, body, contentType)

	assert.Equal(t, http.StatusCreated, status)
	assert.JSONEq(t, `true`, string(payload["success"]))
	assert.JSONEq(t, `"Compte médecin créé avec succès, en attente de vérification"`, string(payload["message"]))
	assert.JSONEq(t, `{"id":"d-1","firstName":"Marie","lastName":"Curie","isVerified":false}`, string(payload["data"]))
}

func TestHandleRegister_MissingDocument(t *testing.T) {
	mockService, router := newRouter(t, stubValidator{})
	mockService.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req service.RegisterRequest) (models.Doctor, error) {
			assert.Nil(t, req.Document)
			return models.Doctor{}, dErrors.New(dErrors.CodeBadRequest, "Document de licence requis")
		})

	body, contentType := doctorForm(t, false)
	status, payload := postForm(t, router, body, contentType)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `"Document de licence requis"`, string(payload["message"]))
}

func TestHandleRegister_DuplicateLicense(t *testing.T) {
	mockService, router := newRouter(t, stubValidator{})
	mockService.EXPECT().Register(gomock.Any(), gomock.Any()).
		Return(models.Doctor{}, dErrors.New(dErrors.CodeConflict, "Un médecin avec ce numéro de licence existe déjà"))

	body, contentType := doctorForm(t, true)
	status, payload := postForm(t, router, body, contentType)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `false`, string(payload["success"]))
	assert.JSONEq(t, `"Un médecin avec ce numéro de licence existe déjà"`, string(payload["message"]))
}

func TestHandleVerify_AdminOnly(t *testing.T) {
	validator := stubValidator{claims: &middleware.JWTClaims{UserID: "u-9", Role: authmodels.RolePatient}}
	_, router := newRouter(t, validator)

	req := httptest.NewRequest(http.MethodPost, "/doctors/d-1/verify", nil)
	req.Header.Set("Authorization", "Bearer any-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "n'est pas autorisé")
}

func TestHandleVerify_Success(t *testing.T) {
	validator := stubValidator{claims: &middleware.JWTClaims{UserID: "admin-1", Role: authmodels.RoleAdmin}}
	mockService, router := newRouter(t, validator)
	mockService.EXPECT().Verify(gomock.Any(), "d-1").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/doctors/d-1/verify", nil)
	req.Header.Set("Authorization", "Bearer any-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
