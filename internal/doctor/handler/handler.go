package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medilink/internal/auth/models"
	doctormodels "medilink/internal/doctor/models"
	"medilink/internal/doctor/service"
	"medilink/internal/platform/blobstore"
	"medilink/internal/platform/middleware"
	dErrors "medilink/pkg/domain-errors"
	"medilink/pkg/platform/httputil"
	"medilink/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the doctor operations the handler depends on.
type Service interface {
	Register(ctx context.Context, req service.RegisterRequest) (doctormodels.Doctor, error)
	Verify(ctx context.Context, id string) error
}

// Handler wires doctor endpoints to the doctor service.
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

// Register mounts doctor endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/doctors/register", h.HandleRegister)
	r.With(
		middleware.RequireAuth(h.validator, h.logger),
		middleware.RequireRoles(h.logger, models.RoleAdmin),
	).Post("/doctors/{id}/verify", h.HandleVerify)
}

type registerResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    registeredDoctor `json:"data"`
}

type registeredDoctor struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	IsVerified bool   `json:"isVerified"`
}

// HandleRegister handles POST /api/doctors/register. The body is a multipart
// form carrying the license document next to the text fields.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(blobstore.MaxFileSize); err != nil {
		h.writeError(w, dErrors.New(dErrors.CodeBadRequest, "Format incorrect"))
		return
	}

	req := service.RegisterRequest{
		FirstName:     r.FormValue("firstName"),
		LastName:      r.FormValue("lastName"),
		Specialty:     r.FormValue("specialty"),
		LicenseNumber: r.FormValue("licenseNumber"),
		PracticeCity:  r.FormValue("practiceCity"),
		Email:         r.FormValue("email"),
		Phone:         r.FormValue("phoneNumber"),
		Password:      r.FormValue("password"),
	}

	if file, header, err := r.FormFile("licenseDocument"); err == nil {
		defer file.Close()
		req.Document = &service.LicenseDocument{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     file,
		}
	}

	doctor, err := h.service.Register(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "doctor registration rejected",
			"request_id", requestcontext.RequestID(ctx),
			"code", dErrors.CodeOf(err),
		)
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "doctor registration completed",
		"request_id", requestcontext.RequestID(ctx),
		"doctor_id", doctor.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, registerResponse{
		Success: true,
		Message: "Compte médecin créé avec succès, en attente de vérification",
		Data: registeredDoctor{
			ID:         doctor.ID,
			FirstName:  doctor.FirstName,
			LastName:   doctor.LastName,
			IsVerified: doctor.IsVerified,
		},
	})
}

// HandleVerify handles POST /api/doctors/{id}/verify, admin only.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := h.service.Verify(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "doctor verified",
		"request_id", requestcontext.RequestID(ctx),
		"doctor_id", id,
		"admin_id", requestcontext.UserID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Compte médecin vérifié",
	})
}

// writeError wraps registration failures in the success/message envelope the
// wizard frontend matches on.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	message := dErrors.MessageOf(err)
	if message == "" {
		message = "Erreur lors de la création du compte"
	}
	httputil.WriteJSON(w, httputil.StatusOf(err), map[string]any{
		"success": false,
		"message": message,
	})
}
