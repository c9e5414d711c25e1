package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
	"github.com/LOSS98/tunis-gp/internal/domain/repository"
	"github.com/LOSS98/tunis-gp/internal/platform/logger"

	"go.uber.org/zap"
)

type ParticipantService struct {
	participants   repository.ParticipantRepository
	roles          repository.RoleRepository
	participations repository.ParticipationRepository
	events         repository.EventRepository
	loc            *time.Location
	now            func() time.Time
}

func NewParticipantService(
	participants repository.ParticipantRepository,
	roles repository.RoleRepository,
	participations repository.ParticipationRepository,
	events repository.EventRepository,
	loc *time.Location,
) *ParticipantService {
	if loc == nil {
		loc = time.Local
	}
	return &ParticipantService{
		participants:   participants,
		roles:          roles,
		participations: participations,
		events:         events,
		loc:            loc,
		now:            time.Now,
	}
}

func (s *ParticipantService) List(ctx context.Context) ([]model.Participant, error) {
	ps, err := s.participants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return ps, nil
}

func (s *ParticipantService) ListByRole(ctx context.Context, roleID int) ([]model.Participant, error) {
	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		return nil, fmt.Errorf("role %d: %w", roleID, err)
	}
	ps, err := s.participants.ListByRole(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by role: %w", err)
	}
	return ps, nil
}

func (s *ParticipantService) ListByCountry(ctx context.Context, country string) ([]model.Participant, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return nil, fmt.Errorf("country is required: %w", common.ErrValidation)
	}
	ps, err := s.participants.ListByCountry(ctx, country)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by country: %w", err)
	}
	return ps, nil
}

func (s *ParticipantService) Get(ctx context.Context, id string) (*model.Participant, error) {
	p, err := s.participants.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("participant %s: %w", id, err)
	}
	return p, nil
}

func (s *ParticipantService) GetByBib(ctx context.Context, bib string) (*model.Participant, error) {
	p, err := s.participants.FindByBib(ctx, strings.TrimSpace(bib))
	if err != nil {
		return nil, fmt.Errorf("bib %s: %w", bib, err)
	}
	return p, nil
}

// Update applies a partial update. Only managers may change roles.
func (s *ParticipantService) Update(ctx context.Context, actor *model.Principal, id string, u model.ParticipantUpdate) (*model.Participant, error) {
	if actor == nil {
		return nil, common.ErrUnauthorized
	}
	if !actor.IsManager() && actor.UserID != id {
		return nil, fmt.Errorf("cannot edit another participant: %w", common.ErrForbidden)
	}

	if u.RoleID != nil {
		if !actor.IsManager() {
			return nil, fmt.Errorf("only managers can change roles: %w", common.ErrForbidden)
		}
		if _, err := s.roles.FindByID(ctx, *u.RoleID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, fmt.Errorf("unknown role %d: %w", *u.RoleID, common.ErrValidation)
			}
			return nil, fmt.Errorf("failed to look up role: %w", err)
		}
	}
	for field, v := range map[string]*string{"first_name": u.FirstName, "last_name": u.LastName} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return nil, fmt.Errorf("%s cannot be empty: %w", field, common.ErrValidation)
		}
	}
	if u.Email != nil {
		email := normalizeEmail(*u.Email)
		if !validEmail(email) {
			return nil, fmt.Errorf("a valid email is required: %w", common.ErrValidation)
		}
		u.Email = &email
	}
	if u.Bib != nil {
		bib := strings.TrimSpace(*u.Bib)
		if bib == "" {
			return nil, fmt.Errorf("bib cannot be empty: %w", common.ErrValidation)
		}
		u.Bib = &bib
	}

	if err := s.participants.Update(ctx, id, u); err != nil {
		return nil, fmt.Errorf("failed to update participant: %w", err)
	}
	zap.L().Info("participant updated",
		zap.String(logger.FieldParticipantID, id),
		zap.String(logger.FieldUserID, actor.UserID),
	)
	return s.Get(ctx, id)
}

// Events lists every participation of the participant with its event details.
func (s *ParticipantService) Events(ctx context.Context, id string) ([]model.Participation, error) {
	if _, err := s.participants.FindByID(ctx, id); err != nil {
		return nil, fmt.Errorf("participant %s: %w", id, err)
	}
	ps, err := s.participations.ListByParticipant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list participant events: %w", err)
	}
	return ps, nil
}

func (s *ParticipantService) UpcomingEvents(ctx context.Context, id string) ([]model.UpcomingEvent, error) {
	if _, err := s.participants.FindByID(ctx, id); err != nil {
		return nil, fmt.Errorf("participant %s: %w", id, err)
	}
	local := s.now().In(s.loc)
	events, err := s.events.UpcomingForParticipant(ctx, id, local.Format(model.DayLayout), local.Format(model.TimeLayout), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}
	return events, nil
}
