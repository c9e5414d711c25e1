package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/common/security"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
	"github.com/LOSS98/tunis-gp/internal/domain/repository"
	"github.com/LOSS98/tunis-gp/internal/platform/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResetNotifier delivers password reset links to participants.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, p *model.Participant, link string, expiresAt time.Time) error
}

// LogNotifier writes reset links to the log instead of sending them.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) NotifyPasswordReset(_ context.Context, p *model.Participant, link string, expiresAt time.Time) error {
	log := n.Log
	if log == nil {
		log = zap.L()
	}
	log.Info("password reset link issued",
		zap.String(logger.FieldParticipantID, p.ID),
		zap.String("email", p.Email),
		zap.String("link", link),
		zap.Time("expires_at", expiresAt),
	)
	return nil
}

type AuthConfig struct {
	PasswordMinLength int
	ResetTTL          time.Duration
	ResetBaseURL      string
}

type AuthService struct {
	participants repository.ParticipantRepository
	roles        repository.RoleRepository
	invitations  repository.InvitationRepository
	resets       repository.PasswordResetRepository
	tokens       *security.TokenIssuer
	notifier     ResetNotifier
	cfg          AuthConfig
	now          func() time.Time
}

func NewAuthService(
	participants repository.ParticipantRepository,
	roles repository.RoleRepository,
	invitations repository.InvitationRepository,
	resets repository.PasswordResetRepository,
	tokens *security.TokenIssuer,
	notifier ResetNotifier,
	cfg AuthConfig,
) *AuthService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &AuthService{
		participants: participants,
		roles:        roles,
		invitations:  invitations,
		resets:       resets,
		tokens:       tokens,
		notifier:     notifier,
		cfg:          cfg,
		now:          time.Now,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token       string             `json:"token"`
	Role        string             `json:"role"`
	Participant *model.Participant `json:"user"`
}

type RegisterRequest struct {
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	Bib            *string `json:"bib"`
	Country        *string `json:"country"`
	Class          *string `json:"class"`
	ProfilePicture *string `json:"profile_picture"`
	RoleID         *int    `json:"role_id"`
}

type SetPasswordRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// trimOptional turns blank optional strings into nil.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("email and password are required: %w", common.ErrValidation)
	}

	p, err := s.participants.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			zap.L().Debug("login rejected", zap.String("reason", "unknown email"))
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	if !p.HasPassword() {
		zap.L().Debug("login rejected", zap.String("reason", "no password set"), zap.String(logger.FieldParticipantID, p.ID))
		return nil, common.ErrInvalidCredentials
	}
	if !security.CheckPasswordHash(req.Password, *p.HashedPassword) {
		zap.L().Debug("login rejected", zap.String("reason", "password mismatch"), zap.String(logger.FieldParticipantID, p.ID))
		return nil, common.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.participants.TouchLastConnection(ctx, p.ID, now); err != nil {
		zap.L().Warn("failed to record last connection", zap.String(logger.FieldParticipantID, p.ID), zap.Error(err))
	} else {
		p.LastConnection = &now
	}

	token, err := s.tokens.GenerateToken(p.ID, p.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{Token: token, Role: p.Role, Participant: p}, nil
}

// Register creates a participant. Without a manager actor the email must hold
// an outstanding invitation, whose role is then used.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, actor *model.Principal) (*model.Participant, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	email := normalizeEmail(req.Email)

	switch {
	case req.FirstName == "" || req.LastName == "":
		return nil, fmt.Errorf("first_name and last_name are required: %w", common.ErrValidation)
	case !validEmail(email):
		return nil, fmt.Errorf("a valid email is required: %w", common.ErrValidation)
	case len(req.Password) < s.cfg.PasswordMinLength:
		return nil, fmt.Errorf("password must be at least %d characters: %w", s.cfg.PasswordMinLength, common.ErrValidation)
	}

	if _, err := s.participants.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already in use: %w", common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	roleID := model.DefaultRoleID
	if actor.IsManager() {
		if req.RoleID != nil {
			if _, err := s.roles.FindByID(ctx, *req.RoleID); err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return nil, fmt.Errorf("unknown role %d: %w", *req.RoleID, common.ErrValidation)
				}
				return nil, fmt.Errorf("failed to look up role: %w", err)
			}
			roleID = *req.RoleID
		}
	} else {
		inv, err := s.invitations.FindPendingByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, fmt.Errorf("registration requires an invitation: %w", common.ErrForbidden)
			}
			return nil, fmt.Errorf("failed to look up invitation: %w", err)
		}
		roleID = inv.RoleID
	}

	hashed, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	p := &model.Participant{
		ID:             uuid.NewString(),
		Bib:            trimOptional(req.Bib),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          email,
		HashedPassword: &hashed,
		Country:        trimOptional(req.Country),
		Class:          trimOptional(req.Class),
		ProfilePicture: trimOptional(req.ProfilePicture),
		RoleID:         roleID,
		CreatedOn:      s.now(),
	}
	if actor != nil {
		p.CreatedBy = &actor.UserID
	}
	if err := s.participants.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}

	if err := s.invitations.MarkRegistered(ctx, email); err != nil {
		zap.L().Warn("failed to mark invitation registered", zap.String("email", email), zap.Error(err))
	}

	created, err := s.participants.FindByID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload participant: %w", err)
	}
	zap.L().Info("participant registered",
		zap.String(logger.FieldParticipantID, created.ID),
		zap.String(logger.FieldRole, created.Role),
	)
	return created, nil
}

// RequestPasswordReset never reveals whether the email is registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is required: %w", common.ErrValidation)
	}

	p, err := s.participants.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			zap.L().Debug("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to find participant: %w", err)
	}

	raw, hash, err := security.NewOpaqueToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	now := s.now()
	t := &model.PasswordResetToken{
		ID:            uuid.NewString(),
		ParticipantID: p.ID,
		TokenHash:     hash,
		ExpiresAt:     now.Add(s.cfg.ResetTTL),
		CreatedAt:     now,
	}
	if err := s.resets.Create(ctx, t); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.notifier.NotifyPasswordReset(ctx, p, s.resetLink(email, raw), t.ExpiresAt); err != nil {
		return fmt.Errorf("failed to deliver reset link: %w", err)
	}
	return nil
}

func (s *AuthService) resetLink(email, token string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	sep := "?"
	if strings.Contains(s.cfg.ResetBaseURL, "?") {
		sep = "&"
	}
	return s.cfg.ResetBaseURL + sep + q.Encode()
}

// SetPassword redeems a reset token. Tokens are single use.
func (s *AuthService) SetPassword(ctx context.Context, req SetPasswordRequest) error {
	email := normalizeEmail(req.Email)
	if email == "" || req.Token == "" {
		return fmt.Errorf("email and token are required: %w", common.ErrValidation)
	}
	if len(req.Password) < s.cfg.PasswordMinLength {
		return fmt.Errorf("password must be at least %d characters: %w", s.cfg.PasswordMinLength, common.ErrValidation)
	}

	p, err := s.participants.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("participant not found: %w", common.ErrNotFound)
		}
		return fmt.Errorf("failed to find participant: %w", err)
	}

	if err := s.resets.Consume(ctx, p.ID, security.HashOpaqueToken(req.Token), s.now()); err != nil {
		if errors.Is(err, common.ErrInvalidOrExpired) {
			return fmt.Errorf("reset token: %w", common.ErrInvalidOrExpired)
		}
		return fmt.Errorf("failed to redeem reset token: %w", err)
	}

	hashed, err := security.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.participants.UpdatePassword(ctx, p.ID, hashed); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	zap.L().Info("password updated", zap.String(logger.FieldParticipantID, p.ID))
	return nil
}

func (s *AuthService) Profile(ctx context.Context, id string) (*model.Participant, error) {
	p, err := s.participants.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

func (s *AuthService) Roles(ctx context.Context) ([]model.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// EnsureBootstrapAdmin creates the admin account, or promotes an existing
// participant, so a fresh deployment has someone able to send invitations.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	if len(password) < s.cfg.PasswordMinLength {
		return fmt.Errorf("bootstrap admin password must be at least %d characters: %w", s.cfg.PasswordMinLength, common.ErrValidation)
	}

	existing, err := s.participants.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.RoleID != model.RoleIDAdmin {
			roleID := model.RoleIDAdmin
			if err := s.participants.Update(ctx, existing.ID, model.ParticipantUpdate{RoleID: &roleID}); err != nil {
				return fmt.Errorf("failed to promote bootstrap admin: %w", err)
			}
			zap.L().Info("bootstrap admin promoted", zap.String(logger.FieldParticipantID, existing.ID))
		}
		if !existing.HasPassword() {
			hashed, err := security.HashPassword(password)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			if err := s.participants.UpdatePassword(ctx, existing.ID, hashed); err != nil {
				return fmt.Errorf("failed to set bootstrap admin password: %w", err)
			}
		}
		return nil
	case !errors.Is(err, common.ErrNotFound):
		return fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}

	hashed, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	p := &model.Participant{
		ID:             uuid.NewString(),
		FirstName:      "Admin",
		LastName:       "Tunis GP",
		Email:          email,
		HashedPassword: &hashed,
		RoleID:         model.RoleIDAdmin,
		CreatedOn:      s.now(),
	}
	if err := s.participants.Create(ctx, p); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	zap.L().Info("bootstrap admin created", zap.String(logger.FieldParticipantID, p.ID))
	return nil
}
