package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"medilink/internal/auth/handler/mocks"
	"medilink/internal/auth/models"
	"medilink/internal/auth/service"
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

func doJSON(t *testing.T, router chi.Router, method, path, body string, header http.Header) (int, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec.Code, payload
}

func TestHandleLogin_Success(t *testing.T) {
	mockService, router := newRouter(t, stubValidator{})
	mockService.EXPECT().Login(gomock.Any(), "jean@exemple.fr", "motdepasse").Return(service.LoginResult{
		Token: "signed-token",
		User: models.Profile{
			ID:    "u-1",
			Name:  "Jean Dupont",
			Email: "jean@exemple.fr",
			Role:  models.RolePatient,
		},
	}, nil)

	status, body := doJSON(t, router, http.MethodPost, "/auth/login",
		`{"identifier":"jean@exemple.fr","password":"motdepasse"}`, nil)

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `"signed-token"`, string(body["token"]))

	var user models.Profile
	require.NoError(t, json.Unmarshal(body["user"], &user))
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, models.RolePatient, user.Role)
}

func TestHandleLogin_BadCredentials(t *testing.T) {
	mockService, router := newRouter(t, stubValidator{})
	mockService.EXPECT().Login(gomock.Any(), "jean@exemple.fr", "pasbon").
		Return(service.LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "Identifiants incorrects"))

	status, body := doJSON(t, router, http.MethodPost, "/auth/login",
		`{"identifier":"jean@exemple.fr","password":"pasbon"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `"Identifiants incorrects"`, string(body["message"]))
}

func TestHandleLogin_MalformedBody(t *testing.T) {
	_, router := newRouter(t, stubValidator{})

	status, body := doJSON(t, router, http.MethodPost, "/auth/login", `{not json`, nil)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `"Format incorrect"`, string(body["message"]))
}

func TestHandleRegister_Created(t *testing.T) {
	mockService, router := newRouter(t, stubValidator{})
	mockService.EXPECT().Register(gomock.Any(), service.RegisterRequest{
		Name:     "Marie Curie",
		Email:    "marie@exemple.fr",
		Password: "motdepasse",
	}).Return(service.LoginResult{
		Token: "signed-token",
		User:  models.Profile{ID: "u-2", Name: "Marie Curie", Role: models.RolePatient},
	}, nil)

	status, _ := doJSON(t, router, http.MethodPost, "/auth/register",
		`{"name":"Marie Curie","email":"marie@exemple.fr","password":"motdepasse"}`, nil)

	assert.Equal(t, http.StatusCreated, status)
}

func TestHandleRegister_Conflict(t *testing.T) {
	mockService, router := newRouter(t, stubValidator{})
	mockService.EXPECT().Register(gomock.Any(), gomock.Any()).
		Return(service.LoginResult{}, dErrors.New(dErrors.CodeConflict, "Cet email est déjà utilisé"))

	status, body := doJSON(t, router, http.MethodPost, "/auth/register",
		`{"name":"Marie","email":"marie@exemple.fr","password":"motdepasse"}`, nil)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `"Cet email est déjà utilisé"`, string(body["message"]))
}

func TestHandleMe_Authorized(t *testing.T) {
	validator := stubValidator{claims: &middleware.JWTClaims{UserID: "u-1", Role: models.RolePatient}}
	mockService, router := newRouter(t, validator)
	mockService.EXPECT().CurrentUser(gomock.Any(), "u-1").Return(models.Profile{
		ID:   "u-1",
		Name: "Jean Dupont",
		Role: models.RolePatient,
	}, nil)

	header := http.Header{"Authorization": []string{"Bearer any-token"}}
	status, body := doJSON(t, router, http.MethodGet, "/auth/me", "", header)

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `"Jean Dupont"`, string(body["name"]))
}

func TestHandleMe_MissingToken(t *testing.T) {
	_, router := newRouter(t, stubValidator{})

	status, body := doJSON(t, router, http.MethodGet, "/auth/me", "", nil)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `"Accès refusé: aucun jeton fourni"`, string(body["message"]))
}

func TestHandleMe_ExpiredToken(t *testing.T) {
	validator := stubValidator{
		claims: &middleware.JWTClaims{Expired: true},
		err:    dErrors.New(dErrors.CodeUnauthorized, "Jeton expiré, veuillez vous reconnecter"),
	}
	_, router := newRouter(t, validator)

	header := http.Header{"Authorization": []string{"Bearer stale"}}
	status, body := doJSON(t, router, http.MethodGet, "/auth/me", "", header)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `"Jeton expiré, veuillez vous reconnecter"`, string(body["message"]))
}

func TestHandleMe_NotFound(t *testing.T) {
	validator := stubValidator{claims: &middleware.JWTClaims{UserID: "gone", Role: models.RolePatient}}
	mockService, router := newRouter(t, validator)
	mockService.EXPECT().CurrentUser(gomock.Any(), "gone").
		Return(models.Profile{}, dErrors.New(dErrors.CodeNotFound, "Utilisateur non trouvé"))

	header := http.Header{"Authorization": []string{"Bearer any-token"}}
	status, body := doJSON(t, router, http.MethodGet, "/auth/me", "", header)

	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `"Utilisateur non trouvé"`, string(body["message"]))
}
