package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medilink/internal/auth/models"
	"medilink/internal/auth/service"
	"medilink/internal/platform/middleware"
	dErrors "medilink/pkg/domain-errors"
	"medilink/pkg/platform/httputil"
	"medilink/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the auth operations the handler depends on.
type Service interface {
	Login(ctx context.Context, identifier, password string) (service.LoginResult, error)
	Register(ctx context.Context, req service.RegisterRequest) (service.LoginResult, error)
	CurrentUser(ctx context.Context, userID string) (models.Profile, error)
}

// Handler wires auth endpoints to the auth service.
type Handler struct {
	service   Service
	logger    *slog.Logger
	validator middleware.JWTValidator
}

func New(service Service, logger *slog.Logger, validator middleware.JWTValidator) *Handler {
	return &Handler{
		service:   service,
		logger:    logger,
		validator: validator,
	}
}

// Register mounts auth endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/register", h.HandleRegister)
	r.With(middleware.RequireAuth(h.validator, h.logger)).Get("/auth/me", h.HandleMe)
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// HandleLogin handles POST /api/auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[loginRequest](w, r)
	if !ok {
		return
	}

	result, err := h.service.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login rejected",
			"request_id", requestcontext.RequestID(ctx),
			"code", dErrors.CodeOf(err),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "login succeeded",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", result.User.ID,
		"role", result.User.Role,
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleRegister handles POST /api/auth/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[service.RegisterRequest](w, r)
	if !ok {
		return
	}

	result, err := h.service.Register(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "account registered",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", result.User.ID,
		"role", result.User.Role,
	)
	httputil.WriteJSON(w, http.StatusCreated, result)
}

// HandleMe handles GET /api/auth/me for the bearer token's subject.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.service.CurrentUser(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}
