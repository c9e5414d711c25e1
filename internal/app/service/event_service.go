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

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

const DefaultUpcomingLimit = 5

type EventService struct {
	events         repository.EventRepository
	participations repository.ParticipationRepository
	loc            *time.Location
	now            func() time.Time
}

func NewEventService(events repository.EventRepository, participations repository.ParticipationRepository, loc *time.Location) *EventService {
	if loc == nil {
		loc = time.Local
	}
	return &EventService{events: events, participations: participations, loc: loc, now: time.Now}
}

type CreateEventRequest struct {
	StartDay         string   `json:"start_day"`
	StartTime        string   `json:"start_time"`
	Classes          []string `json:"classes"`
	Discipline       string   `json:"discipline"`
	Gender           string   `json:"gender"`
	Phase            string   `json:"phase"`
	Remarks          *string  `json:"remarks"`
	Area             *string  `json:"area"`
	StartListPathPDF *string  `json:"start_list_path_pdf"`
	ResultsPathPDF   *string  `json:"results_path_pdf"`
	PublishStartList bool     `json:"publish_start_list"`
	PublishResults   bool     `json:"publish_results"`
}

// normalizeDay accepts YYYY-MM-DD only.
func normalizeDay(day string) (string, error) {
	t, err := time.Parse(model.DayLayout, strings.TrimSpace(day))
	if err != nil {
		return "", fmt.Errorf("start_day must be YYYY-MM-DD: %w", common.ErrValidation)
	}
	return t.Format(model.DayLayout), nil
}

// normalizeClock accepts HH:MM or HH:MM:SS and returns HH:MM.
func normalizeClock(clock string) (string, error) {
	clock = strings.TrimSpace(clock)
	for _, layout := range []string{model.TimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return t.Format(model.TimeLayout), nil
		}
	}
	return "", fmt.Errorf("start_time must be HH:MM: %w", common.ErrValidation)
}

func cleanClasses(classes []string) []string {
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// eventSlug builds a readable identifier such as "100m-men-final-t11-t12".
func eventSlug(e *model.Event) string {
	parts := append([]string{e.Discipline, e.Gender, e.Phase}, e.Classes...)
	return slug.Make(strings.Join(parts, " "))
}

func validateEvent(e *model.Event) error {
	var err error
	if e.StartDay, err = normalizeDay(e.StartDay); err != nil {
		return err
	}
	if e.StartTime, err = normalizeClock(e.StartTime); err != nil {
		return err
	}
	e.Classes = cleanClasses(e.Classes)
	e.Discipline = strings.TrimSpace(e.Discipline)
	e.Gender = strings.TrimSpace(e.Gender)
	e.Phase = strings.TrimSpace(e.Phase)
	switch {
	case len(e.Classes) == 0:
		return fmt.Errorf("at least one class is required: %w", common.ErrValidation)
	case e.Discipline == "" || e.Gender == "" || e.Phase == "":
		return fmt.Errorf("discipline, gender and phase are required: %w", common.ErrValidation)
	}
	return nil
}

func (s *EventService) Create(ctx context.Context, req CreateEventRequest) (*model.Event, error) {
	e := &model.Event{
		ID:               uuid.NewString(),
		StartDay:         req.StartDay,
		StartTime:        req.StartTime,
		Classes:          req.Classes,
		Discipline:       req.Discipline,
		Gender:           req.Gender,
		Phase:            req.Phase,
		Remarks:          trimOptional(req.Remarks),
		Area:             trimOptional(req.Area),
		StartListPathPDF: trimOptional(req.StartListPathPDF),
		ResultsPathPDF:   trimOptional(req.ResultsPathPDF),
		PublishStartList: req.PublishStartList,
		PublishResults:   req.PublishResults,
		CreatedAt:        s.now(),
	}
	if err := validateEvent(e); err != nil {
		return nil, err
	}
	e.Slug = eventSlug(e)
	if err := s.events.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	zap.L().Info("event created", zap.String(logger.FieldEventID, e.ID), zap.String("slug", e.Slug))
	return e, nil
}

func (s *EventService) Update(ctx context.Context, id string, u model.EventUpdate) (*model.Event, error) {
	e, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}

	if u.StartDay != nil {
		e.StartDay = *u.StartDay
	}
	if u.StartTime != nil {
		e.StartTime = *u.StartTime
	}
	if u.Classes != nil {
		e.Classes = *u.Classes
	}
	if u.Discipline != nil {
		e.Discipline = *u.Discipline
	}
	if u.Gender != nil {
		e.Gender = *u.Gender
	}
	if u.Phase != nil {
		e.Phase = *u.Phase
	}
	if u.Remarks != nil {
		e.Remarks = trimOptional(u.Remarks)
	}
	if u.Area != nil {
		e.Area = trimOptional(u.Area)
	}
	if u.StartListPathPDF != nil {
		e.StartListPathPDF = trimOptional(u.StartListPathPDF)
	}
	if u.ResultsPathPDF != nil {
		e.ResultsPathPDF = trimOptional(u.ResultsPathPDF)
	}
	if u.PublishStartList != nil {
		e.PublishStartList = *u.PublishStartList
	}
	if u.PublishResults != nil {
		e.PublishResults = *u.PublishResults
	}

	if err := validateEvent(e); err != nil {
		return nil, err
	}
	e.Slug = eventSlug(e)
	if err := s.events.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	zap.L().Info("event updated", zap.String(logger.FieldEventID, e.ID))
	return e, nil
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	if err := s.events.Delete(ctx, id); err != nil {
		return fmt.Errorf("event %s: %w", id, err)
	}
	zap.L().Info("event deleted", zap.String(logger.FieldEventID, id))
	return nil
}

func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	e, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}
	return e, nil
}

func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	return wrapList(s.events.List(ctx))
}

func (s *EventService) ListByDate(ctx context.Context, day string) ([]model.Event, error) {
	day, err := normalizeDay(day)
	if err != nil {
		return nil, err
	}
	return wrapList(s.events.ListByDate(ctx, day))
}

func (s *EventService) ListByClass(ctx context.Context, class string) ([]model.Event, error) {
	class = strings.TrimSpace(class)
	if class == "" {
		return nil, fmt.Errorf("class is required: %w", common.ErrValidation)
	}
	return wrapList(s.events.ListByClass(ctx, class))
}

func (s *EventService) PublishedStartLists(ctx context.Context) ([]model.Event, error) {
	return wrapList(s.events.ListPublishedStartLists(ctx))
}

func (s *EventService) PublishedResults(ctx context.Context) ([]model.Event, error) {
	return wrapList(s.events.ListPublishedResults(ctx))
}

// Upcoming lists events that have not started yet in the event time zone.
func (s *EventService) Upcoming(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	local := s.now().In(s.loc)
	return wrapList(s.events.ListUpcoming(ctx, local.Format(model.DayLayout), local.Format(model.TimeLayout), limit))
}

// Participants returns the event's entries in result order.
func (s *EventService) Participants(ctx context.Context, id string) ([]model.Participation, error) {
	if _, err := s.events.FindByID(ctx, id); err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}
	ps, err := s.participations.ListByEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list event participants: %w", err)
	}
	model.SortResults(ps)
	return ps, nil
}

func wrapList(events []model.Event, err error) ([]model.Event, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}
