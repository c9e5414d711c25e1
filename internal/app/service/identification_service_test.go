package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
)

func TestIdentificationTokenWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.athlete(t, "qr@example.com", "21", "TUN")

	code, err := f.identification.Generate(ctx, p.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(code.Token) != 64 {
		t.Fatalf("token should be 64 hex chars, got %d", len(code.Token))
	}
	if !code.ValidTill.Equal(t0.Add(60 * time.Second)) {
		t.Fatalf("valid_till = %s", code.ValidTill)
	}
	if !strings.HasPrefix(code.ScanURL, "https://gp.test/scan?token=") {
		t.Fatalf("scan url = %q", code.ScanURL)
	}

	f.clock.Advance(30 * time.Second)
	for i := 0; i < 3; i++ {
		res, err := f.identification.Validate(ctx, code.Token)
		if err != nil {
			t.Fatalf("validation %d at T+30s: %v", i, err)
		}
		if res.Participant.ParticipantID != p.ID || res.Participant.Role != model.RoleAthlete {
			t.Fatalf("unexpected holder: %+v", res.Participant)
		}
	}

	f.clock.Advance(35 * time.Second)
	if _, err := f.identification.Validate(ctx, code.Token); !errors.Is(err, common.ErrInvalidOrExpired) {
		t.Fatalf("T+65s: expected ErrInvalidOrExpired, got %v", err)
	}
}

func TestIdentificationExactExpiryIsInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.athlete(t, "edge@example.com", "22", "TUN")
	code, err := f.identification.Generate(ctx, p.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	f.clock.Advance(60 * time.Second)
	if _, err := f.identification.Validate(ctx, code.Token); !errors.Is(err, common.ErrInvalidOrExpired) {
		t.Fatalf("expected ErrInvalidOrExpired at valid_till, got %v", err)
	}
}

func TestIdentificationUnknownToken(t *testing.T) {
	f := newFixture(t)
	for _, tok := range []string{"", "deadbeef"} {
		if _, err := f.identification.Validate(context.Background(), tok); !errors.Is(err, common.ErrInvalidOrExpired) {
			t.Fatalf("token %q: expected ErrInvalidOrExpired, got %v", tok, err)
		}
	}
}

func TestGenerateForUnknownParticipant(t *testing.T) {
	f := newFixture(t)
	if _, err := f.identification.Generate(context.Background(), "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMultipleLiveTokensPerParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.athlete(t, "multi@example.com", "23", "TUN")

	first, _ := f.identification.Generate(ctx, p.ID)
	second, _ := f.identification.Generate(ctx, p.ID)
	if first.Token == second.Token {
		t.Fatalf("tokens must differ")
	}
	for _, tok := range []string{first.Token, second.Token} {
		if _, err := f.identification.Validate(ctx, tok); err != nil {
			t.Fatalf("token should still be valid: %v", err)
		}
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.athlete(t, "sweep@example.com", "24", "TUN")

	old, _ := f.identification.Generate(ctx, p.ID)
	f.clock.Advance(61 * time.Second)
	fresh, _ := f.identification.Generate(ctx, p.ID)

	n, err := f.identification.Sweep(ctx)
	if err != nil || n != 1 {
		t.Fatalf("first sweep: n=%d err=%v", n, err)
	}
	n, err = f.identification.Sweep(ctx)
	if err != nil || n != 0 {
		t.Fatalf("second sweep: n=%d err=%v", n, err)
	}
	if f.store.CodeCount() != 1 {
		t.Fatalf("only the fresh token should remain, have %d", f.store.CodeCount())
	}
	if _, err := f.identification.Validate(ctx, old.Token); !errors.Is(err, common.ErrInvalidOrExpired) {
		t.Fatalf("swept token: %v", err)
	}
	if _, err := f.identification.Validate(ctx, fresh.Token); err != nil {
		t.Fatalf("fresh token should survive sweep: %v", err)
	}
}

func TestValidateAttachesUpcomingEventsForAthletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	athlete := f.athlete(t, "busy@example.com", "25", "TUN")
	volunteer := f.staff(t, "helper@example.com", model.RoleIDVolunteer)

	past := f.event(t, "2026-04-09", "10:00")
	earlyToday := f.event(t, "2026-04-10", "07:59")
	for _, e := range []*model.Event{past, earlyToday} {
		if _, err := f.participations.Create(ctx, admin, CreateParticipationRequest{ParticipantID: athlete.ID, EventID: e.ID}); err != nil {
			t.Fatalf("enter past event: %v", err)
		}
	}
	var upcoming []string
	for _, day := range []string{"2026-04-10", "2026-04-11", "2026-04-12", "2026-04-13", "2026-04-14", "2026-04-15"} {
		e := f.event(t, day, "08:00")
		upcoming = append(upcoming, e.ID)
		if _, err := f.participations.Create(ctx, admin, CreateParticipationRequest{ParticipantID: athlete.ID, EventID: e.ID}); err != nil {
			t.Fatalf("enter event: %v", err)
		}
	}

	code, _ := f.identification.Generate(ctx, athlete.ID)
	res, err := f.identification.Validate(ctx, code.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(res.Events) != 5 {
		t.Fatalf("expected 5 upcoming events, got %d", len(res.Events))
	}
	for i, e := range res.Events {
		if e.ID != upcoming[i] {
			t.Fatalf("event %d = %s, want %s", i, e.ID, upcoming[i])
		}
	}

	code, _ = f.identification.Generate(ctx, volunteer.ID)
	res, err = f.identification.Validate(ctx, code.Token)
	if err != nil {
		t.Fatalf("validate volunteer: %v", err)
	}
	if res.Events == nil || len(res.Events) != 0 {
		t.Fatalf("non-athletes get an empty event list, got %v", res.Events)
	}
}

func TestValidateScanAcceptsScannerFormats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.athlete(t, "scan@example.com", "26", "TUN")
	code, _ := f.identification.Generate(ctx, p.ID)

	for _, raw := range []string{
		code.ScanURL,
		"token:" + code.Token,
		"  " + code.Token + "\n",
	} {
		res, err := f.identification.ValidateScan(ctx, raw)
		if err != nil {
			t.Fatalf("scan %q: %v", raw, err)
		}
		if res.Participant.ParticipantID != p.ID {
			t.Fatalf("scan %q resolved to %s", raw, res.Participant.ParticipantID)
		}
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"abc123", "abc123", true},
		{"token:abc123", "abc123", true},
		{"token:", "", false},
		{"https://gp.test/scan?token=abc123", "abc123", true},
		{"/scan?foo=1&token=abc123", "abc123", true},
		{"https://gp.test/scan?foo=bar", "", false},
		{"two words", "", false},
		{"   ", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractToken(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("ExtractToken(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}
