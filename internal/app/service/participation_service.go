package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
	"github.com/LOSS98/tunis-gp/internal/domain/repository"
	"github.com/LOSS98/tunis-gp/internal/platform/logger"

	"go.uber.org/zap"
)

type ParticipationService struct {
	participations repository.ParticipationRepository
	participants   repository.ParticipantRepository
	events         repository.EventRepository
	loc            *time.Location
	now            func() time.Time
}

func NewParticipationService(
	participations repository.ParticipationRepository,
	participants repository.ParticipantRepository,
	events repository.EventRepository,
	loc *time.Location,
) *ParticipationService {
	if loc == nil {
		loc = time.Local
	}
	return &ParticipationService{
		participations: participations,
		participants:   participants,
		events:         events,
		loc:            loc,
		now:            time.Now,
	}
}

type CreateParticipationRequest struct {
	ParticipantID string  `json:"participant_id"`
	EventID       string  `json:"event_id"`
	Mark          *string `json:"mark"`
	Medal         *int    `json:"medal"`
}

func validateResult(mark *string, medal *int) (*string, error) {
	if medal != nil && !model.ValidMedal(*medal) {
		return nil, fmt.Errorf("medal must be 1, 2 or 3: %w", common.ErrValidation)
	}
	if mark == nil {
		return nil, nil
	}
	m := strings.TrimSpace(*mark)
	return &m, nil
}

func (s *ParticipationService) Create(ctx context.Context, actor *model.Principal, req CreateParticipationRequest) (*model.Participation, error) {
	if req.ParticipantID == "" || req.EventID == "" {
		return nil, fmt.Errorf("participant_id and event_id are required: %w", common.ErrValidation)
	}
	mark, err := validateResult(req.Mark, req.Medal)
	if err != nil {
		return nil, err
	}
	if _, err := s.participants.FindByID(ctx, req.ParticipantID); err != nil {
		return nil, fmt.Errorf("participant %s: %w", req.ParticipantID, err)
	}
	if _, err := s.events.FindByID(ctx, req.EventID); err != nil {
		return nil, fmt.Errorf("event %s: %w", req.EventID, err)
	}

	p := &model.Participation{
		ParticipantID: req.ParticipantID,
		EventID:       req.EventID,
		Mark:          mark,
		Medal:         req.Medal,
		AddedOn:       s.now(),
	}
	if actor != nil {
		p.AddedBy = &actor.UserID
	}
	if err := s.participations.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create participation: %w", err)
	}
	zap.L().Info("participation created",
		zap.String(logger.FieldParticipantID, p.ParticipantID),
		zap.String(logger.FieldEventID, p.EventID),
	)
	return p, nil
}

// UpdateResult records a mark and/or medal; omitted fields keep their value
// and cleared fields become null.
func (s *ParticipationService) UpdateResult(ctx context.Context, actor *model.Principal, participantID, eventID string, u model.ResultUpdate) (*model.Participation, error) {
	if (u.ClearMark && u.Mark != nil) || (u.ClearMedal && u.Medal != nil) {
		return nil, fmt.Errorf("a field cannot be set and cleared at once: %w", common.ErrValidation)
	}
	mark, err := validateResult(u.Mark, u.Medal)
	if err != nil {
		return nil, err
	}
	u.Mark = mark

	var by *string
	if actor != nil {
		by = &actor.UserID
	}
	if err := s.participations.UpdateResult(ctx, participantID, eventID, u, by, s.now()); err != nil {
		return nil, fmt.Errorf("failed to update result: %w", err)
	}
	zap.L().Info("result updated",
		zap.String(logger.FieldParticipantID, participantID),
		zap.String(logger.FieldEventID, eventID),
	)
	p, err := s.participations.Find(ctx, participantID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload participation: %w", err)
	}
	return p, nil
}

func (s *ParticipationService) Delete(ctx context.Context, participantID, eventID string) error {
	if err := s.participations.Delete(ctx, participantID, eventID); err != nil {
		return fmt.Errorf("failed to delete participation: %w", err)
	}
	return nil
}

func (s *ParticipationService) List(ctx context.Context) ([]model.Participation, error) {
	ps, err := s.participations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	return ps, nil
}

func (s *ParticipationService) ByParticipant(ctx context.Context, participantID string) ([]model.Participation, error) {
	ps, err := s.participations.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	return ps, nil
}

func (s *ParticipationService) ByEvent(ctx context.Context, eventID string) ([]model.Participation, error) {
	ps, err := s.participations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	model.SortResults(ps)
	return ps, nil
}

func (s *ParticipationService) Medalists(ctx context.Context, eventID string) ([]model.Participation, error) {
	ps, err := s.participations.ListMedalists(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medalists: %w", err)
	}
	model.SortResults(ps)
	return ps, nil
}

func (s *ParticipationService) UpcomingByParticipant(ctx context.Context, participantID string) ([]model.UpcomingEvent, error) {
	local := s.now().In(s.loc)
	events, err := s.events.UpcomingForParticipant(ctx, participantID, local.Format(model.DayLayout), local.Format(model.TimeLayout), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming participations: %w", err)
	}
	return events, nil
}
