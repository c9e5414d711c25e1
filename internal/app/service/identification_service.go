package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/common/security"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
	"github.com/LOSS98/tunis-gp/internal/domain/repository"
	"github.com/LOSS98/tunis-gp/internal/platform/logger"

	"go.uber.org/zap"
)

const identificationEventLimit = 5

type IdentificationConfig struct {
	TTL         time.Duration
	ScanBaseURL string
	Location    *time.Location
}

type IdentificationService struct {
	codes        repository.IdentificationRepository
	participants repository.ParticipantRepository
	events       repository.EventRepository
	cfg          IdentificationConfig
	now          func() time.Time
}

func NewIdentificationService(
	codes repository.IdentificationRepository,
	participants repository.ParticipantRepository,
	events repository.EventRepository,
	cfg IdentificationConfig,
) *IdentificationService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &IdentificationService{
		codes:        codes,
		participants: participants,
		events:       events,
		cfg:          cfg,
		now:          time.Now,
	}
}

type GeneratedCode struct {
	Token     string    `json:"token"`
	ValidTill time.Time `json:"valid_till"`
	ScanURL   string    `json:"scan_url"`
}

// Generate issues a fresh token for the participant. Earlier tokens stay
// valid until they expire.
func (s *IdentificationService) Generate(ctx context.Context, participantID string) (*GeneratedCode, error) {
	if _, err := s.participants.FindByID(ctx, participantID); err != nil {
		return nil, fmt.Errorf("failed to load participant: %w", err)
	}

	token, err := security.NewIdentificationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate identification token: %w", err)
	}
	code := &model.IdentificationCode{
		Token:         token,
		ParticipantID: participantID,
		ValidTill:     s.now().Add(s.cfg.TTL),
	}
	if err := s.codes.Create(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to store identification token: %w", err)
	}
	return &GeneratedCode{Token: token, ValidTill: code.ValidTill, ScanURL: s.scanURL(token)}, nil
}

func (s *IdentificationService) scanURL(token string) string {
	if s.cfg.ScanBaseURL == "" {
		return "token:" + token
	}
	sep := "?"
	if strings.Contains(s.cfg.ScanBaseURL, "?") {
		sep = "&"
	}
	return s.cfg.ScanBaseURL + sep + "token=" + url.QueryEscape(token)
}

// Validate resolves a token to its holder. Validation does not consume the
// token; it can be checked repeatedly until it expires.
func (s *IdentificationService) Validate(ctx context.Context, token string) (*model.IdentificationResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, common.ErrInvalidOrExpired
	}

	now := s.now()
	holder, err := s.codes.FindValid(ctx, token, now)
	if err != nil {
		if errors.Is(err, common.ErrInvalidOrExpired) {
			return nil, common.ErrInvalidOrExpired
		}
		return nil, fmt.Errorf("failed to validate identification token: %w", err)
	}

	result := &model.IdentificationResult{Participant: *holder, Events: []model.UpcomingEvent{}}
	if holder.Role == model.RoleAthlete && holder.Bib != nil {
		local := now.In(s.cfg.Location)
		events, err := s.events.UpcomingForParticipant(ctx, holder.ParticipantID,
			local.Format(model.DayLayout), local.Format(model.TimeLayout), identificationEventLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load upcoming events: %w", err)
		}
		result.Events = events
	}
	return result, nil
}

// ValidateScan accepts whatever the scanner read: a scan URL, a "token:" payload or a bare token.
func (s *IdentificationService) ValidateScan(ctx context.Context, raw string) (*model.IdentificationResult, error) {
	token, ok := ExtractToken(raw)
	if !ok {
		return nil, common.ErrInvalidOrExpired
	}
	return s.Validate(ctx, token)
}

// ExtractToken pulls the token out of scanned QR data.
func ExtractToken(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if rest, found := strings.CutPrefix(raw, "token:"); found {
		rest = strings.TrimSpace(rest)
		return rest, rest != ""
	}
	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "/") || strings.Contains(raw, "?") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false
		}
		t := u.Query().Get("token")
		return t, t != ""
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return "", false
	}
	return raw, true
}

// Sweep deletes expired tokens. Running it twice in a row deletes nothing the second time.
func (s *IdentificationService) Sweep(ctx context.Context) (int64, error) {
	n, err := s.codes.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep identification tokens: %w", err)
	}
	if n > 0 {
		zap.L().Debug("swept identification tokens", zap.Int64("deleted", n), zap.String(logger.FieldOperation, "sweep"))
	}
	return n, nil
}
