package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"carbon-tracker/internal/core/auth"
	"carbon-tracker/internal/domain"
	"carbon-tracker/pkg/utils"
)

type AccountService struct {
	users       domain.UserRepository
	log         *zap.Logger
	adminSecret string
	now         func() time.Time
}

func NewAccountService(users domain.UserRepository, log *zap.Logger, adminSecret string) *AccountService {
	return &AccountService{users: users, log: log, adminSecret: adminSecret, now: utcNow}
}

type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Organization string
	Province     string
}

var fieldValidator = validator.New()

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (in RegisterInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	case in.Password == "":
		return fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	case in.Province != "" && !domain.IsValidProvince(in.Province):
		return fmt.Errorf("%w: unknown province %q", domain.ErrInvalidInput, in.Province)
	}
	// bare addresses only; display names and comments would alias a mailbox
	if err := fieldValidator.Var(normalizeEmail(in.Email), "required,email"); err != nil {
		return fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return nil
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	return s.register(ctx, in, domain.RoleUser)
}

// RegisterAdmin creates an ADMIN account when secret matches the configured
// shared secret.
func (s *AccountService) RegisterAdmin(ctx context.Context, secret string, in RegisterInput) (*domain.User, error) {
	if s.adminSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(s.adminSecret)) != 1 {
		return nil, fmt.Errorf("%w: invalid admin secret", domain.ErrForbidden)
	}
	return s.register(ctx, in, domain.RoleAdmin)
}

func (s *AccountService) register(ctx context.Context, in RegisterInput, role string) (*domain.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		ID:           utils.NewID(),
		Email:        normalizeEmail(in.Email),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Organization: optional(in.Organization),
		Province:     optional(in.Province),
		Role:         role,
		CreatedAt:    s.now(),
		UpdatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("role", role))
	return u, nil
}

var errBadCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)

// Login verifies the credentials and stamps lastLogin.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		return nil, errBadCredentials
	}
	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLogin = &now
	return u, nil
}

func (s *AccountService) Me(ctx context.Context, p auth.Principal) (*domain.User, error) {
	if err := p.RequireUser(); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, p.UserID)
}

// DeleteUser removes a user with all of their calculations and offsets.
func (s *AccountService) DeleteUser(ctx context.Context, p auth.Principal, id string) error {
	if err := p.RequireAdmin(); err != nil {
		return err
	}
	if err := s.users.DeleteCascade(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.String("user_id", id), zap.String("by", p.UserID))
	return nil
}

func (s *AccountService) SetRole(ctx context.Context, p auth.Principal, id, role string) (*domain.User, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	role = strings.ToUpper(strings.TrimSpace(role))
	if !domain.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role == role {
		return u, nil
	}
	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}
	s.log.Info("user role changed", zap.String("user_id", id), zap.String("role", role), zap.String("by", p.UserID))
	u.Role = role
	return u, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func utcNow() time.Time { return time.Now().UTC() }
