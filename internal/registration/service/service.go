package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	doctormodels "medilink/internal/doctor/models"
	doctorservice "medilink/internal/doctor/service"
	"medilink/internal/otp"
	patientmodels "medilink/internal/patient/models"
	patientservice "medilink/internal/patient/service"
	"medilink/internal/platform/blobstore"
	"medilink/internal/platform/metrics"
	"medilink/internal/registration/models"
	"medilink/internal/registration/wizard"
	dErrors "medilink/pkg/domain-errors"
	"medilink/pkg/platform/sentinel"
	"medilink/pkg/requestcontext"
)

// SessionStore persists wizard sessions between requests.
type SessionStore interface {
	Save(ctx context.Context, sess models.Session) error
	Load(ctx context.Context, id string) (models.Session, error)
	Delete(ctx context.Context, id string) error
}

// PatientRegistrar submits a completed patient wizard.
type PatientRegistrar interface {
	Register(ctx context.Context, req patientservice.RegisterRequest) (patientmodels.Patient, error)
}

// DoctorRegistrar submits a completed doctor wizard.
type DoctorRegistrar interface {
	Register(ctx context.Context, req doctorservice.RegisterRequest) (doctormodels.Doctor, error)
}

const msgSubmitFailed = "Une erreur est survenue lors de l'inscription. Veuillez réessayer."

// Service drives registration wizard sessions: field updates, step
// navigation, phone verification and final submission.
type Service struct {
	sessions SessionStore
	verifier *otp.Verifier
	patients PatientRegistrar
	doctors  DoctorRegistrar
	blobs    blobstore.Store
	ttl      time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func New(sessions SessionStore, verifier *otp.Verifier, patients PatientRegistrar, doctors DoctorRegistrar, blobs blobstore.Store, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		sessions: sessions,
		verifier: verifier,
		patients: patients,
		doctors:  doctors,
		blobs:    blobs,
		ttl:      ttl,
		logger:   logger,
		metrics:  m,
	}
}

// Start opens a fresh wizard session for the given actor type.
func (s *Service) Start(ctx context.Context, actor string) (models.Session, error) {
	if !models.IsActor(actor) {
		return models.Session{}, dErrors.New(dErrors.CodeBadRequest, "Type de compte invalide")
	}

	now := requestcontext.Now(ctx)
	sess := models.Session{
		ID:          uuid.NewString(),
		Actor:       actor,
		CurrentStep: 1,
		Fields:      map[string]string{},
		FieldErrors: map[string]string{},
		OTP:         otp.State{Status: otp.StatusIdle},
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return models.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "session creation failed")
	}
	s.logger.InfoContext(ctx, "wizard session started", "session_id", sess.ID, "actor", actor)
	return sess, nil
}

// Get loads a live session.
func (s *Service) Get(ctx context.Context, id string) (models.Session, error) {
	return s.load(ctx, id)
}

// UpdateFields writes form fields into the session. Each edit clears only
// that field's error. The phone number is frozen once a code is on its way.
func (s *Service) UpdateFields(ctx context.Context, id string, fields map[string]string) (models.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return models.Session{}, err
	}

	for name, value := range fields {
		if name == "phoneNumber" && phoneLocked(sess) && value != sess.Fields["phoneNumber"] {
			s.logger.WarnContext(ctx, "phone edit ignored during verification",
				"session_id", sess.ID)
			continue
		}
		wizard.UpdateField(&sess, name, value)
	}

	return s.save(ctx, sess)
}

// Next validates the current step and advances, or submits from the last
// step. A rejected press leaves the session where it was, with field errors.
func (s *Service) Next(ctx context.Context, id string) (models.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return models.Session{}, err
	}

	switch wizard.Next(&sess) {
	case wizard.OutcomeSubmit:
		return s.submit(ctx, sess)
	default:
		return s.save(ctx, sess)
	}
}

// Back moves one step backwards without validating.
func (s *Service) Back(ctx context.Context, id string) (models.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return models.Session{}, err
	}
	wizard.Back(&sess)
	return s.save(ctx, sess)
}

// SendCode dispatches a verification code to the session's phone number.
// Re-sending first invalidates the previous confirmation handle.
func (s *Service) SendCode(ctx context.Context, id string) (models.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return models.Session{}, err
	}

	phone := strings.TrimSpace(sess.Fields["phoneNumber"])
	if phone == "" {
		if sess.FieldErrors == nil {
			sess.FieldErrors = map[string]string{}
		}
		sess.FieldErrors["phoneNumber"] = "Ce champ est requis"
		return s.save(ctx, sess)
	}

	sess.OTP = s.verifier.Send(ctx, sess.ID, phone, sess.OTP)
	sess.OTPArmed = true
	return s.save(ctx, sess)
}

// ConfirmCode checks the entered code. Success flips the monotonic
// OTPVerified flag; failure never clears it.
func (s *Service) ConfirmCode(ctx context.Context, id, code string) (models.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return models.Session{}, err
	}

	sess.OTP = s.verifier.Confirm(ctx, sess.ID, code, sess.OTP)
	if sess.OTP.Verified() {
		sess.OTPVerified = true
		delete(sess.FieldErrors, "phoneNumber")
	} else if sess.OTP.Error != "" && !sess.OTPVerified {
		if sess.FieldErrors == nil {
			sess.FieldErrors = map[string]string{}
		}
		sess.FieldErrors["phoneNumber"] = "Code OTP invalide"
	}
	return s.save(ctx, sess)
}

// UploadLicense stores the doctor's license document and records its path in
// the session, satisfying the professional step's document requirement.
func (s *Service) UploadLicense(ctx context.Context, id, fileName, contentType string, content io.Reader) (models.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return models.Session{}, err
	}
	if sess.Actor != models.ActorDoctor {
		return models.Session{}, dErrors.New(dErrors.CodeBadRequest, "Type de compte invalide")
	}

	base := strings.TrimSpace(sess.Fields["licenseNumber"])
	if base == "" {
		base = sess.ID
	}
	path, err := s.blobs.Save(ctx, base, contentType, content)
	if err != nil {
		switch {
		case errors.Is(err, blobstore.ErrInvalidContentType):
			return models.Session{}, dErrors.New(dErrors.CodeBadRequest, "Format de document non supporté (PDF ou JPEG attendu)")
		case errors.Is(err, blobstore.ErrFileTooLarge):
			return models.Session{}, dErrors.New(dErrors.CodeBadRequest, "Le document dépasse la taille maximale autorisée")
		default:
			return models.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "license document storage failed")
		}
	}

	wizard.UpdateField(&sess, "licenseDocumentPath", path)
	wizard.UpdateField(&sess, "licenseDocumentName", fileName)
	delete(sess.FieldErrors, "licenseDocument")
	return s.save(ctx, sess)
}

func (s *Service) submit(ctx context.Context, sess models.Session) (models.Session, error) {
	var err error
	if sess.Actor == models.ActorDoctor {
		_, err = s.doctors.Register(ctx, doctorservice.RegisterRequest{
			FirstName:     sess.Fields["firstName"],
			LastName:      sess.Fields["lastName"],
			Specialty:     sess.Fields["specialty"],
			LicenseNumber: sess.Fields["licenseNumber"],
			PracticeCity:  sess.Fields["practiceCity"],
			Email:         sess.Fields["email"],
			Phone:         sess.Fields["phoneNumber"],
			Password:      sess.Fields["password"],
			DocumentPath:  sess.Fields["licenseDocumentPath"],
		})
	} else {
		_, err = s.patients.Register(ctx, patientservice.RegisterRequest{
			FirstName:  sess.Fields["firstName"],
			LastName:   sess.Fields["lastName"],
			BirthDate:  sess.Fields["birthDate"],
			Phone:      sess.Fields["phoneNumber"],
			Email:      sess.Fields["email"],
			Password:   sess.Fields["password"],
			BloodGroup: sess.Fields["bloodGroup"],
			Address:    sess.Fields["address"],
		})
	}

	if err != nil {
		s.metrics.WizardSubmissions.WithLabelValues(sess.Actor, "failure").Inc()
		sess.SubmitError = dErrors.MessageOf(err)
		if sess.SubmitError == "" {
			sess.SubmitError = msgSubmitFailed
		}
		s.logger.WarnContext(ctx, "wizard submission rejected",
			"session_id", sess.ID, "actor", sess.Actor, "code", dErrors.CodeOf(err))
		return s.save(ctx, sess)
	}

	s.metrics.WizardSubmissions.WithLabelValues(sess.Actor, "success").Inc()
	sess.SubmitError = ""
	sess.Completed = true
	sess.Redirect = "/"
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		s.logger.WarnContext(ctx, "completed session cleanup failed",
			"session_id", sess.ID, "error", err)
	}
	s.logger.InfoContext(ctx, "wizard submission completed",
		"session_id", sess.ID, "actor", sess.Actor)
	return sess, nil
}

func (s *Service) load(ctx context.Context, id string) (models.Session, error) {
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrExpired):
			return models.Session{}, dErrors.New(dErrors.CodeNotFound, "Session expirée, veuillez recommencer l'inscription")
		case errors.Is(err, sentinel.ErrNotFound):
			return models.Session{}, dErrors.New(dErrors.CodeNotFound, "Session introuvable")
		default:
			return models.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "session load failed")
		}
	}
	return sess, nil
}

func (s *Service) save(ctx context.Context, sess models.Session) (models.Session, error) {
	sess.UpdatedAt = requestcontext.Now(ctx)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return models.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "session save failed")
	}
	return sess, nil
}

func phoneLocked(sess models.Session) bool {
	switch sess.OTP.Status {
	case otp.StatusSent, otp.StatusVerifying, otp.StatusVerified:
		return true
	}
	return sess.OTPVerified
}
