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
	"go.uber.org/zap"
)

type WaterService struct {
	water        repository.WaterRepository
	participants repository.ParticipantRepository
	now          func() time.Time
}

func NewWaterService(water repository.WaterRepository, participants repository.ParticipantRepository) *WaterService {
	return &WaterService{water: water, participants: participants, now: time.Now}
}

type AddWaterRequest struct {
	Bib     string `json:"bib"`
	Bottles int    `json:"bottles"`
}

type AddCountryWaterRequest struct {
	Country string `json:"country"`
	Bottles int    `json:"bottles"`
}

type AddAllWaterRequest struct {
	Bottles int `json:"bottles"`
}

func validBottles(n int) error {
	if n <= 0 {
		return fmt.Errorf("bottles must be a positive integer: %w", common.ErrValidation)
	}
	return nil
}

func staffID(actor *model.Principal) *string {
	if actor == nil {
		return nil
	}
	return &actor.UserID
}

func (s *WaterService) record(ctx context.Context, bib string, n int, actor *model.Principal) (*model.WaterEntry, error) {
	e := &model.WaterEntry{
		ID:             uuid.NewString(),
		ParticipantBib: bib,
		BottlesTaken:   n,
		TakenFrom:      staffID(actor),
		TakenAt:        s.now(),
	}
	if err := s.water.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// AddBottles records a distribution for one athlete, identified by bib.
func (s *WaterService) AddBottles(ctx context.Context, actor *model.Principal, req AddWaterRequest) (*model.WaterEntry, error) {
	bib := strings.TrimSpace(req.Bib)
	if bib == "" {
		return nil, fmt.Errorf("bib is required: %w", common.ErrValidation)
	}
	if err := validBottles(req.Bottles); err != nil {
		return nil, err
	}
	if _, err := s.participants.FindByBib(ctx, bib); err != nil {
		return nil, fmt.Errorf("bib %s: %w", bib, err)
	}

	e, err := s.record(ctx, bib, req.Bottles, actor)
	if err != nil {
		return nil, fmt.Errorf("failed to record water: %w", err)
	}
	zap.L().Info("water recorded", zap.String(logger.FieldBib, bib), zap.Int("bottles", req.Bottles))
	return e, nil
}

func (s *WaterService) AddBottlesToCountry(ctx context.Context, actor *model.Principal, req AddCountryWaterRequest) (*model.BroadcastResult, error) {
	country := strings.TrimSpace(req.Country)
	if country == "" {
		return nil, fmt.Errorf("country is required: %w", common.ErrValidation)
	}
	if err := validBottles(req.Bottles); err != nil {
		return nil, err
	}
	athletes, err := s.participants.ListBibHolders(ctx, country)
	if err != nil {
		return nil, fmt.Errorf("failed to list athletes for %s: %w", country, err)
	}
	return s.broadcast(ctx, actor, athletes, req.Bottles, zap.String(logger.FieldCountry, country))
}

func (s *WaterService) AddBottlesToAll(ctx context.Context, actor *model.Principal, req AddAllWaterRequest) (*model.BroadcastResult, error) {
	if err := validBottles(req.Bottles); err != nil {
		return nil, err
	}
	athletes, err := s.participants.ListBibHolders(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list athletes: %w", err)
	}
	return s.broadcast(ctx, actor, athletes, req.Bottles)
}

// broadcast inserts one entry per athlete. A failed insert is logged and
// skipped; only a run with no successful insert is an error.
func (s *WaterService) broadcast(ctx context.Context, actor *model.Principal, athletes []model.Participant, n int, fields ...zap.Field) (*model.BroadcastResult, error) {
	result := &model.BroadcastResult{}
	for _, a := range athletes {
		if a.Bib == nil {
			continue
		}
		if _, err := s.record(ctx, *a.Bib, n, actor); err != nil {
			result.Failed++
			zap.L().Warn("water broadcast entry failed", append(fields, zap.String(logger.FieldBib, *a.Bib), zap.Error(err))...)
			continue
		}
		result.Count++
	}
	if result.Count == 0 {
		return nil, fmt.Errorf("no athletes received water: %w", common.ErrNotFound)
	}
	zap.L().Info("water broadcast", append(fields, zap.Int("count", result.Count), zap.Int("failed", result.Failed))...)
	return result, nil
}

func withTotal(entries []model.WaterEntry) *model.WaterHistory {
	h := &model.WaterHistory{Entries: entries}
	for _, e := range entries {
		h.TotalBottles += e.BottlesTaken
	}
	return h
}

func (s *WaterService) History(ctx context.Context) (*model.WaterHistory, error) {
	entries, err := s.water.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list water history: %w", err)
	}
	return withTotal(entries), nil
}

func (s *WaterService) HistoryByParticipant(ctx context.Context, bib string) (*model.WaterHistory, error) {
	entries, err := s.water.ListByBib(ctx, strings.TrimSpace(bib))
	if err != nil {
		return nil, fmt.Errorf("failed to list water history: %w", err)
	}
	return withTotal(entries), nil
}

func (s *WaterService) HistoryByCountry(ctx context.Context, country string) (*model.WaterHistory, error) {
	entries, err := s.water.ListByCountry(ctx, strings.TrimSpace(country))
	if err != nil {
		return nil, fmt.Errorf("failed to list water history: %w", err)
	}
	return withTotal(entries), nil
}

func (s *WaterService) CountryTotals(ctx context.Context) ([]model.CountryWaterTotal, error) {
	totals, err := s.water.CountryTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute country totals: %w", err)
	}
	return totals, nil
}
