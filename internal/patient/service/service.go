package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"medilink/internal/audit"
	authmodels "medilink/internal/auth/models"
	"medilink/internal/patient/models"
	"medilink/internal/platform/metrics"
	"medilink/internal/validate"
	dErrors "medilink/pkg/domain-errors"
	"medilink/pkg/platform/sentinel"
	"medilink/pkg/requestcontext"
)

// Store is the patient persistence the service needs.
type Store interface {
	Create(ctx context.Context, p models.Patient) error
	FindByID(ctx context.Context, id string) (models.Patient, error)
	FindByUserID(ctx context.Context, userID string) (models.Patient, error)
}

// Credentials creates the login record backing a patient account.
type Credentials interface {
	CreateCredential(ctx context.Context, name, email, phone, password, role string) (authmodels.User, error)
}

// UserDirectory answers the uniqueness pre-checks against existing accounts.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (authmodels.User, error)
	FindByPhone(ctx context.Context, phone string) (authmodels.User, error)
}

// Service handles patient registration.
type Service struct {
	patients Store
	creds    Credentials
	users    UserDirectory
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  *audit.Publisher
}

func New(patients Store, creds Credentials, users UserDirectory, logger *slog.Logger, m *metrics.Metrics, auditor *audit.Publisher) *Service {
	return &Service{
		patients: patients,
		creds:    creds,
		users:    users,
		logger:   logger,
		metrics:  m,
		auditor:  auditor,
	}
}

// RegisterRequest is the patient registration payload. Field names mirror the
// wizard form.
type RegisterRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	BirthDate  string `json:"birthDate"`
	Phone      string `json:"phoneNumber"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	BloodGroup string `json:"bloodGroup"`
	Address    string `json:"address"`
}

func (r *RegisterRequest) trim() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.BirthDate = strings.TrimSpace(r.BirthDate)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.BloodGroup = strings.TrimSpace(r.BloodGroup)
	r.Address = strings.TrimSpace(r.Address)
}

func (r RegisterRequest) validate() error {
	if r.FirstName == "" || r.LastName == "" || r.BirthDate == "" || r.Phone == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "Ce champ est requis")
	}
	if !validate.IsContactPhone(r.Phone) {
		return dErrors.New(dErrors.CodeBadRequest, "Format incorrect")
	}
	if r.Email != "" && !validate.IsEmail(r.Email) {
		return dErrors.New(dErrors.CodeBadRequest, "Format incorrect")
	}
	if len(r.Password) < 8 {
		return dErrors.New(dErrors.CodeBadRequest, "Le mot de passe doit contenir au moins 8 caractères")
	}
	if r.BloodGroup != "" && !models.IsBloodGroup(r.BloodGroup) {
		return dErrors.New(dErrors.CodeBadRequest, "Format incorrect")
	}
	return nil
}

// Register validates the payload, checks phone then email uniqueness against
// every existing account, creates the login credential and the patient record.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (models.Patient, error) {
	req.trim()
	if err := req.validate(); err != nil {
		return models.Patient{}, err
	}

	if _, err := s.users.FindByPhone(ctx, req.Phone); err == nil {
		return models.Patient{}, dErrors.New(dErrors.CodeConflict, "Un compte avec ce numéro de téléphone existe déjà")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return models.Patient{}, dErrors.Wrap(err, dErrors.CodeInternal, "phone uniqueness check failed")
	}
	if req.Email != "" {
		if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
			return models.Patient{}, dErrors.New(dErrors.CodeConflict, "Un compte avec cet email existe déjà")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return models.Patient{}, dErrors.Wrap(err, dErrors.CodeInternal, "email uniqueness check failed")
		}
	}

	name := req.FirstName + " " + req.LastName
	user, err := s.creds.CreateCredential(ctx, name, req.Email, req.Phone, req.Password, authmodels.RolePatient)
	if err != nil {
		return models.Patient{}, err
	}

	patient := models.Patient{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		BirthDate:  req.BirthDate,
		Phone:      req.Phone,
		Email:      req.Email,
		BloodGroup: req.BloodGroup,
		Address:    req.Address,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		// The credential exists without its patient record. Surface a
		// retryable error; the unique phone constraint will report the
		// half-created account on retry, which operations can reconcile.
		s.logger.ErrorContext(ctx, "patient record creation failed after credential creation",
			"user_id", user.ID, "error", err)
		return models.Patient{}, dErrors.Wrap(err, dErrors.CodeInternal, "patient record creation failed")
	}

	s.metrics.RegistrationsTotal.WithLabelValues("patient").Inc()
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionPatientRegistered,
		SubjectID: patient.ID,
		Actor:     authmodels.RolePatient,
		Timestamp: patient.CreatedAt,
	})
	s.logger.InfoContext(ctx, "patient registered", "patient_id", patient.ID)

	return patient, nil
}

// Get returns a patient record by ID.
func (s *Service) Get(ctx context.Context, id string) (models.Patient, error) {
	p, err := s.patients.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Patient{}, dErrors.New(dErrors.CodeNotFound, "Patient non trouvé")
		}
		return models.Patient{}, dErrors.Wrap(err, dErrors.CodeInternal, "patient lookup failed")
	}
	return p, nil
}
