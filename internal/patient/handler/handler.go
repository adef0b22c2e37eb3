package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medilink/internal/patient/models"
	"medilink/internal/patient/service"
	dErrors "medilink/pkg/domain-errors"
	"medilink/pkg/platform/httputil"
	"medilink/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the patient operations the handler depends on.
type Service interface {
	Register(ctx context.Context, req service.RegisterRequest) (models.Patient, error)
}

// Handler wires patient endpoints to the patient service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts patient endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/patients/register", h.HandleRegister)
}

type registerResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    registeredPatient `json:"data"`
}

type registeredPatient struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// HandleRegister handles POST /api/patients/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[service.RegisterRequest](w, r)
	if !ok {
		return
	}

	patient, err := h.service.Register(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "patient registration rejected",
			"request_id", requestcontext.RequestID(ctx),
			"code", dErrors.CodeOf(err),
		)
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "patient registration completed",
		"request_id", requestcontext.RequestID(ctx),
		"patient_id", patient.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, registerResponse{
		Success: true,
		Message: "Compte patient créé avec succès",
		Data: registeredPatient{
			ID:        patient.ID,
			FirstName: patient.FirstName,
			LastName:  patient.LastName,
		},
	})
}

// writeError wraps registration failures in the success/message envelope the
// wizard frontend matches on. Internal detail never leaks.
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
