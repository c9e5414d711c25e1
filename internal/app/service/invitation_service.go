package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
	"github.com/LOSS98/tunis-gp/internal/domain/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type InvitationService struct {
	invitations  repository.InvitationRepository
	participants repository.ParticipantRepository
	roles        repository.RoleRepository
	now          func() time.Time
}

func NewInvitationService(
	invitations repository.InvitationRepository,
	participants repository.ParticipantRepository,
	roles repository.RoleRepository,
) *InvitationService {
	return &InvitationService{invitations: invitations, participants: participants, roles: roles, now: time.Now}
}

type CreateInvitationRequest struct {
	Email  string `json:"email"`
	RoleID *int   `json:"role_id"`
}

func (s *InvitationService) Create(ctx context.Context, actor *model.Principal, req CreateInvitationRequest) (*model.Invitation, error) {
	if !actor.IsManager() {
		return nil, fmt.Errorf("only managers can invite: %w", common.ErrForbidden)
	}
	email := normalizeEmail(req.Email)
	if !validEmail(email) {
		return nil, fmt.Errorf("a valid email is required: %w", common.ErrValidation)
	}

	roleID := model.DefaultRoleID
	if req.RoleID != nil {
		roleID = *req.RoleID
	}
	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("unknown role %d: %w", roleID, common.ErrValidation)
		}
		return nil, fmt.Errorf("failed to look up role: %w", err)
	}

	if _, err := s.participants.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up participant: %w", err)
	}

	inv := &model.Invitation{
		ID:        uuid.NewString(),
		Email:     email,
		RoleID:    roleID,
		InvitedBy: &actor.UserID,
		InvitedOn: s.now(),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}
	zap.L().Info("invitation created", zap.String("email", email), zap.Int("role_id", roleID))
	return inv, nil
}

func (s *InvitationService) List(ctx context.Context) ([]model.Invitation, error) {
	invs, err := s.invitations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invs, nil
}

func (s *InvitationService) Delete(ctx context.Context, id string) error {
	if err := s.invitations.Delete(ctx, id); err != nil {
		return fmt.Errorf("invitation %s: %w", id, err)
	}
	return nil
}
