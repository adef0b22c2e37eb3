package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medilink/internal/platform/blobstore"
	"medilink/internal/registration/models"
	"medilink/internal/registration/wizard"
	dErrors "medilink/pkg/domain-errors"
	"medilink/pkg/platform/httputil"
	"medilink/pkg/requestcontext"
)

// Service defines the wizard operations the handler depends on.
type Service interface {
	Start(ctx context.Context, actor string) (models.Session, error)
	Get(ctx context.Context, id string) (models.Session, error)
	UpdateFields(ctx context.Context, id string, fields map[string]string) (models.Session, error)
	Next(ctx context.Context, id string) (models.Session, error)
	Back(ctx context.Context, id string) (models.Session, error)
	SendCode(ctx context.Context, id string) (models.Session, error)
	ConfirmCode(ctx context.Context, id, code string) (models.Session, error)
	UploadLicense(ctx context.Context, id, fileName, contentType string, content io.Reader) (models.Session, error)
}

// Handler exposes wizard sessions over REST so any frontend can drive the
// multi-step registration.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts wizard endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registration/{actor}/sessions", h.HandleStart)
	r.Route("/registration/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Put("/fields", h.HandleUpdateFields)
		r.Post("/next", h.HandleNext)
		r.Post("/back", h.HandleBack)
		r.Post("/code/send", h.HandleSendCode)
		r.Post("/code/confirm", h.HandleConfirmCode)
		r.Post("/license", h.HandleUploadLicense)
	})
}

// sessionView is the wire shape of a session. The password never leaves the
// server.
type sessionView struct {
	ID                 string            `json:"id"`
	Actor              string            `json:"actor"`
	CurrentStep        int               `json:"currentStep"`
	Steps              []string          `json:"steps"`
	Fields             map[string]string `json:"fields"`
	FieldErrors        map[string]string `json:"fieldErrors"`
	VerificationStatus string            `json:"verificationStatus"`
	VerificationError  string            `json:"verificationError,omitempty"`
	OTPVerified        bool              `json:"otpVerified"`
	OTPArmed           bool              `json:"otpArmed"`
	SubmitError        string            `json:"submitError,omitempty"`
	Completed          bool              `json:"completed"`
	Redirect           string            `json:"redirect,omitempty"`
}

func viewOf(sess models.Session) sessionView {
	fields := make(map[string]string, len(sess.Fields))
	for k, v := range sess.Fields {
		if k == "password" {
			continue
		}
		fields[k] = v
	}

	flow := wizard.FlowFor(sess.Actor)
	steps := make([]string, len(flow.Steps))
	for i, step := range flow.Steps {
		steps[i] = step.Name
	}

	return sessionView{
		ID:                 sess.ID,
		Actor:              sess.Actor,
		CurrentStep:        sess.CurrentStep,
		Steps:              steps,
		Fields:             fields,
		FieldErrors:        sess.FieldErrors,
		VerificationStatus: string(sess.OTP.Status),
		VerificationError:  sess.OTP.Error,
		OTPVerified:        sess.OTPVerified,
		OTPArmed:           sess.OTPArmed,
		SubmitError:        sess.SubmitError,
		Completed:          sess.Completed,
		Redirect:           sess.Redirect,
	}
}

// HandleStart handles POST /api/registration/{actor}/sessions.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := chi.URLParam(r, "actor")

	sess, err := h.service.Start(ctx, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "wizard session created",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", sess.ID,
		"actor", actor,
	)
	httputil.WriteJSON(w, http.StatusCreated, viewOf(sess))
}

// HandleGet handles GET /api/registration/sessions/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, viewOf(sess))
}

type updateFieldsRequest struct {
	Fields map[string]string `json:"fields"`
}

// HandleUpdateFields handles PUT /api/registration/sessions/{id}/fields.
func (h *Handler) HandleUpdateFields(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[updateFieldsRequest](w, r)
	if !ok {
		return
	}
	if len(req.Fields) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Format incorrect"))
		return
	}

	sess, err := h.service.UpdateFields(r.Context(), chi.URLParam(r, "id"), req.Fields)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, viewOf(sess))
}

// HandleNext handles POST /api/registration/sessions/{id}/next.
func (h *Handler) HandleNext(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Next(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, viewOf(sess))
}

// HandleBack handles POST /api/registration/sessions/{id}/back.
func (h *Handler) HandleBack(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Back(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, viewOf(sess))
}

// HandleSendCode handles POST /api/registration/sessions/{id}/code/send.
func (h *Handler) HandleSendCode(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.SendCode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, viewOf(sess))
}

type confirmCodeRequest struct {
	Code string `json:"code"`
}

// HandleConfirmCode handles POST /api/registration/sessions/{id}/code/confirm.
func (h *Handler) HandleConfirmCode(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[confirmCodeRequest](w, r)
	if !ok {
		return
	}

	sess, err := h.service.ConfirmCode(r.Context(), chi.URLParam(r, "id"), req.Code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, viewOf(sess))
}

// HandleUploadLicense handles POST /api/registration/sessions/{id}/license,
// a multipart form with a single "licenseDocument" file.
func (h *Handler) HandleUploadLicense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(blobstore.MaxFileSize); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Format incorrect"))
		return
	}
	file, header, err := r.FormFile("licenseDocument")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Document de licence requis"))
		return
	}
	defer file.Close()

	sess, err := h.service.UploadLicense(ctx, chi.URLParam(r, "id"),
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "license document uploaded",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", sess.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, viewOf(sess))
}
