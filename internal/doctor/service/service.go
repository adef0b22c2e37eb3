package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"medilink/internal/audit"
	authmodels "medilink/internal/auth/models"
	"medilink/internal/doctor/models"
	"medilink/internal/platform/blobstore"
	"medilink/internal/platform/metrics"
	"medilink/internal/validate"
	dErrors "medilink/pkg/domain-errors"
	"medilink/pkg/platform/sentinel"
	"medilink/pkg/requestcontext"
)

// Store is the doctor persistence the service needs.
type Store interface {
	Create(ctx context.Context, d models.Doctor) error
	FindByID(ctx context.Context, id string) (models.Doctor, error)
	FindByLicenseNumber(ctx context.Context, licenseNumber string) (models.Doctor, error)
	FindByUserID(ctx context.Context, userID string) (models.Doctor, error)
	SetVerified(ctx context.Context, id string, verified bool) error
}

// Credentials creates the login record backing a doctor account.
type Credentials interface {
	CreateCredential(ctx context.Context, name, email, phone, password, role string) (authmodels.User, error)
}

// UserDirectory answers the uniqueness pre-checks against existing accounts.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (authmodels.User, error)
	FindByPhone(ctx context.Context, phone string) (authmodels.User, error)
}

// Service handles doctor registration and verification.
type Service struct {
	doctors Store
	creds   Credentials
	users   UserDirectory
	blobs   blobstore.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor *audit.Publisher
}

func New(doctors Store, creds Credentials, users UserDirectory, blobs blobstore.Store, logger *slog.Logger, m *metrics.Metrics, auditor *audit.Publisher) *Service {
	return &Service{
		doctors: doctors,
		creds:   creds,
		users:   users,
		blobs:   blobs,
		logger:  logger,
		metrics: m,
		auditor: auditor,
	}
}

// LicenseDocument is the uploaded proof of license, decoded from the
// multipart form by the handler.
type LicenseDocument struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

// RegisterRequest is the doctor registration payload.
type RegisterRequest struct {
	FirstName     string
	LastName      string
	Specialty     string
	LicenseNumber string
	PracticeCity  string
	Email         string
	Phone         string
	Password      string
	Document      *LicenseDocument
	// DocumentPath points at an already-stored license document. The wizard
	// uploads the file when the professional step is filled in, before the
	// final submission.
	DocumentPath string
}

func (r *RegisterRequest) trim() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Specialty = strings.TrimSpace(r.Specialty)
	r.LicenseNumber = strings.TrimSpace(r.LicenseNumber)
	r.PracticeCity = strings.TrimSpace(r.PracticeCity)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r RegisterRequest) validate() error {
	if r.FirstName == "" || r.LastName == "" || r.Specialty == "" ||
		r.LicenseNumber == "" || r.PracticeCity == "" || r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "Ce champ est requis")
	}
	if !models.IsSpecialty(r.Specialty) || !models.IsPracticeCity(r.PracticeCity) {
		return dErrors.New(dErrors.CodeBadRequest, "Format incorrect")
	}
	if !validate.IsEmail(r.Email) {
		return dErrors.New(dErrors.CodeBadRequest, "Format incorrect")
	}
	if r.Phone != "" && !validate.IsContactPhone(r.Phone) {
		return dErrors.New(dErrors.CodeBadRequest, "Format incorrect")
	}
	if len(r.Password) < 8 {
		return dErrors.New(dErrors.CodeBadRequest, "Le mot de passe doit contenir au moins 8 caractères")
	}
	if r.Document == nil && strings.TrimSpace(r.DocumentPath) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "Document de licence requis")
	}
	return nil
}

// Register validates the payload, checks email then phone then license
// uniqueness, stores the license document and creates the account. The new
// doctor starts unverified.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (models.Doctor, error) {
	req.trim()
	if err := req.validate(); err != nil {
		return models.Doctor{}, err
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return models.Doctor{}, dErrors.New(dErrors.CodeConflict, "Un compte avec cet email existe déjà")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return models.Doctor{}, dErrors.Wrap(err, dErrors.CodeInternal, "email uniqueness check failed")
	}
	if req.Phone != "" {
		if _, err := s.users.FindByPhone(ctx, req.Phone); err == nil {
			return models.Doctor{}, dErrors.New(dErrors.CodeConflict, "Un compte avec ce numéro de téléphone existe déjà")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return models.Doctor{}, dErrors.Wrap(err, dErrors.CodeInternal, "phone uniqueness check failed")
		}
	}
	if _, err := s.doctors.FindByLicenseNumber(ctx, req.LicenseNumber); err == nil {
		return models.Doctor{}, dErrors.New(dErrors.CodeConflict, "Un médecin avec ce numéro de licence existe déjà")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return models.Doctor{}, dErrors.Wrap(err, dErrors.CodeInternal, "license uniqueness check failed")
	}

	documentPath := strings.TrimSpace(req.DocumentPath)
	if documentPath == "" {
		var err error
		documentPath, err = s.blobs.Save(ctx, req.LicenseNumber, req.Document.ContentType, req.Document.Content)
		if err != nil {
			switch {
			case errors.Is(err, blobstore.ErrInvalidContentType):
				return models.Doctor{}, dErrors.New(dErrors.CodeBadRequest, "Format de document non supporté (PDF ou JPEG attendu)")
			case errors.Is(err, blobstore.ErrFileTooLarge):
				return models.Doctor{}, dErrors.New(dErrors.CodeBadRequest, "Le document dépasse la taille maximale autorisée")
			default:
				return models.Doctor{}, dErrors.Wrap(err, dErrors.CodeInternal, "license document storage failed")
			}
		}
	}

	name := req.FirstName + " " + req.LastName
	user, err := s.creds.CreateCredential(ctx, name, req.Email, req.Phone, req.Password, authmodels.RoleDoctor)
	if err != nil {
		return models.Doctor{}, err
	}

	doctor := models.Doctor{
		ID:                  uuid.NewString(),
		UserID:              user.ID,
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Specialty:           req.Specialty,
		LicenseNumber:       req.LicenseNumber,
		LicenseDocumentPath: documentPath,
		PracticeCity:        req.PracticeCity,
		Phone:               req.Phone,
		Email:               req.Email,
		IsVerified:          false,
		CreatedAt:           requestcontext.Now(ctx),
	}
	if err := s.doctors.Create(ctx, doctor); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return models.Doctor{}, dErrors.New(dErrors.CodeConflict, "Un médecin avec ce numéro de licence existe déjà")
		}
		s.logger.ErrorContext(ctx, "doctor record creation failed after credential creation",
			"user_id", user.ID, "error", err)
		return models.Doctor{}, dErrors.Wrap(err, dErrors.CodeInternal, "doctor record creation failed")
	}

	s.metrics.RegistrationsTotal.WithLabelValues("doctor").Inc()
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionDoctorRegistered,
		SubjectID: doctor.ID,
		Actor:     authmodels.RoleDoctor,
		Timestamp: doctor.CreatedAt,
		Detail:    map[string]string{"license_number": doctor.LicenseNumber},
	})
	s.logger.InfoContext(ctx, "doctor registered", "doctor_id", doctor.ID, "specialty", doctor.Specialty)

	return doctor, nil
}

// Get returns a doctor record by ID.
func (s *Service) Get(ctx context.Context, id string) (models.Doctor, error) {
	d, err := s.doctors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Doctor{}, dErrors.New(dErrors.CodeNotFound, "Médecin non trouvé")
		}
		return models.Doctor{}, dErrors.Wrap(err, dErrors.CodeInternal, "doctor lookup failed")
	}
	return d, nil
}

// Verify marks a doctor as reviewed by an administrator.
func (s *Service) Verify(ctx context.Context, id string) error {
	if err := s.doctors.SetVerified(ctx, id, true); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "Médecin non trouvé")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "doctor verification failed")
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionDoctorVerified,
		SubjectID: id,
		Actor:     authmodels.RoleAdmin,
		Timestamp: requestcontext.Now(ctx),
	})
	return nil
}
