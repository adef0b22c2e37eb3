package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"medilink/internal/audit"
	"medilink/internal/auth/models"
	"medilink/internal/platform/metrics"
	"medilink/internal/validate"
	dErrors "medilink/pkg/domain-errors"
	"medilink/pkg/platform/sentinel"
	"medilink/pkg/requestcontext"
)

// UserStore is what the auth service needs from persistence.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByPhone(ctx context.Context, phone string) (models.User, error)
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(userID string, role string, expiresIn time.Duration) (string, error)
}

// Service implements login, generic registration and profile lookup.
type Service struct {
	users    UserStore
	tokens   TokenIssuer
	tokenTTL time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  *audit.Publisher
}

func New(users UserStore, tokens TokenIssuer, tokenTTL time.Duration, logger *slog.Logger, m *metrics.Metrics, auditor *audit.Publisher) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   logger,
		metrics:  m,
		auditor:  auditor,
	}
}

// LoginResult is what a successful login returns to the client.
type LoginResult struct {
	Token string         `json:"token"`
	User  models.Profile `json:"user"`
}

// Login authenticates by email or phone identifier. Unknown identifier and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	password = strings.TrimSpace(password)

	if identifier == "" || password == "" {
		return LoginResult{}, dErrors.New(dErrors.CodeBadRequest, "Veuillez fournir un identifiant et un mot de passe")
	}

	var (
		user models.User
		err  error
	)
	switch {
	case validate.IsEmail(identifier):
		user, err = s.users.FindByEmail(ctx, identifier)
	case validate.IsIdentifierPhone(identifier):
		user, err = s.users.FindByPhone(ctx, identifier)
	default:
		return LoginResult{}, dErrors.New(dErrors.CodeBadRequest, "Format d'identifiant invalide")
	}

	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordLoginFailure(ctx, identifier)
			return LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "Identifiants incorrects")
		}
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "user lookup failed")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.recordLoginFailure(ctx, identifier)
		return LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "Identifiants incorrects")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "token generation failed")
	}

	s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionLoginSucceeded,
		SubjectID: user.ID,
		Actor:     user.Role,
		Timestamp: requestcontext.Now(ctx),
	})

	return LoginResult{Token: token, User: user.PublicProfile()}, nil
}

// RegisterRequest is the generic account creation payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates a credential account. Role defaults to patient; admin
// accounts are only created through operational tooling.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (LoginResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return LoginResult{}, dErrors.New(dErrors.CodeBadRequest, "Veuillez remplir tous les champs obligatoires")
	}
	if !validate.IsEmail(req.Email) {
		return LoginResult{}, dErrors.New(dErrors.CodeBadRequest, "Veuillez fournir un email valide")
	}
	if req.Phone != "" && !validate.IsIdentifierPhone(req.Phone) {
		return LoginResult{}, dErrors.New(dErrors.CodeBadRequest, "Veuillez fournir un numéro de téléphone valide")
	}
	role := req.Role
	if role == "" {
		role = models.RolePatient
	}
	if role != models.RolePatient && role != models.RoleDoctor {
		return LoginResult{}, dErrors.New(dErrors.CodeBadRequest, "Rôle invalide")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return LoginResult{}, dErrors.New(dErrors.CodeConflict, "Cet email est déjà utilisé")
	}
	if req.Phone != "" {
		if _, err := s.users.FindByPhone(ctx, req.Phone); err == nil {
			return LoginResult{}, dErrors.New(dErrors.CodeConflict, "Ce numéro de téléphone est déjà utilisé")
		}
	}

	user, err := s.CreateCredential(ctx, req.Name, req.Email, req.Phone, req.Password, role)
	if err != nil {
		return LoginResult{}, err
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "token generation failed")
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionUserRegistered,
		SubjectID: user.ID,
		Actor:     user.Role,
		Timestamp: requestcontext.Now(ctx),
	})

	return LoginResult{Token: token, User: user.PublicProfile()}, nil
}

// CreateCredential hashes the password and persists a login record. The
// patient and doctor registration services call it so wizard-created
// accounts can log in; the pre-check/create race falls back on the store's
// unique constraints.
func (s *Service) CreateCredential(ctx context.Context, name, email, phone, password, role string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "password hashing failed")
	}

	now := requestcontext.Now(ctx)
	user := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return models.User{}, dErrors.New(dErrors.CodeConflict, "Un compte avec ces informations existe déjà")
		}
		return models.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "user creation failed")
	}
	return user, nil
}

// CurrentUser returns the profile of the authenticated user.
func (s *Service) CurrentUser(ctx context.Context, userID string) (models.Profile, error) {
	if userID == "" {
		return models.Profile{}, dErrors.New(dErrors.CodeUnauthorized, "Authentification requise")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Profile{}, dErrors.New(dErrors.CodeNotFound, "Utilisateur non trouvé")
		}
		return models.Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "user lookup failed")
	}
	return user.PublicProfile(), nil
}

func (s *Service) recordLoginFailure(ctx context.Context, identifier string) {
	s.metrics.LoginsTotal.WithLabelValues("failure").Inc()
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionLoginFailed,
		Timestamp: requestcontext.Now(ctx),
		// The identifier may be a phone number; keep only a coarse hint.
		Detail: map[string]string{"identifier_type": identifierType(identifier)},
	})
	s.logger.WarnContext(ctx, "login failed", "identifier_type", identifierType(identifier))
}

func identifierType(identifier string) string {
	if validate.IsEmail(identifier) {
		return "email"
	}
	return "phone"
}
