package service

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/LOSS98/tunis-gp/internal/common/security"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
	"github.com/LOSS98/tunis-gp/internal/domain/repository/repotest"
)

var t0 = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type captureNotifier struct {
	links []string
}

func (n *captureNotifier) NotifyPasswordReset(_ context.Context, _ *model.Participant, link string, _ time.Time) error {
	n.links = append(n.links, link)
	return nil
}

func (n *captureNotifier) lastToken(t *testing.T) string {
	t.Helper()
	if len(n.links) == 0 {
		t.Fatalf("no reset link was sent")
	}
	u, err := url.Parse(n.links[len(n.links)-1])
	if err != nil {
		t.Fatalf("bad reset link: %v", err)
	}
	return u.Query().Get("token")
}

type fixture struct {
	store    *repotest.Store
	clock    *clock
	tokens   *security.TokenIssuer
	notifier *captureNotifier

	auth           *AuthService
	identification *IdentificationService
	participants   *ParticipantService
	invitations    *InvitationService
	events         *EventService
	participations *ParticipationService
	water          *WaterService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repotest.New()
	c := &clock{now: t0}
	f := &fixture{
		store:    store,
		clock:    c,
		tokens:   security.NewTokenIssuer([]byte("test-secret"), 24*time.Hour),
		notifier: &captureNotifier{},
	}

	f.auth = NewAuthService(store.Participants(), store.Roles(), store.Invitations(), store.PasswordResets(),
		f.tokens, f.notifier, AuthConfig{PasswordMinLength: 8, ResetTTL: time.Hour, ResetBaseURL: "https://gp.test/reset"})
	f.auth.now = c.Now

	f.identification = NewIdentificationService(store.Identifications(), store.Participants(), store.Events(),
		IdentificationConfig{TTL: 60 * time.Second, ScanBaseURL: "https://gp.test/scan", Location: time.UTC})
	f.identification.now = c.Now

	f.participants = NewParticipantService(store.Participants(), store.Roles(), store.Participations(), store.Events(), time.UTC)
	f.participants.now = c.Now

	f.invitations = NewInvitationService(store.Invitations(), store.Participants(), store.Roles())
	f.invitations.now = c.Now

	f.events = NewEventService(store.Events(), store.Participations(), time.UTC)
	f.events.now = c.Now

	f.participations = NewParticipationService(store.Participations(), store.Participants(), store.Events(), time.UTC)
	f.participations.now = c.Now

	f.water = NewWaterService(store.Water(), store.Participants())
	f.water.now = c.Now
	return f
}

var admin = &model.Principal{UserID: "00000000-0000-0000-0000-000000000001", Role: model.RoleAdmin}

func ptr[T any](v T) *T { return &v }

// athlete registers an athlete through the manager path.
func (f *fixture) athlete(t *testing.T, email, bib, country string) *model.Participant {
	t.Helper()
	req := RegisterRequest{
		FirstName: "First " + bib, LastName: "Last " + bib, Email: email, Password: "correct-horse",
	}
	if bib != "" {
		req.Bib = ptr(bib)
	}
	if country != "" {
		req.Country = ptr(country)
	}
	p, err := f.auth.Register(context.Background(), req, admin)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return p
}

func (f *fixture) staff(t *testing.T, email string, roleID int) *model.Participant {
	t.Helper()
	p, err := f.auth.Register(context.Background(), RegisterRequest{
		FirstName: "Staff", LastName: email, Email: email, Password: "correct-horse", RoleID: ptr(roleID),
	}, admin)
	if err != nil {
		t.Fatalf("register staff %s: %v", email, err)
	}
	return p
}

func (f *fixture) event(t *testing.T, day, clock string) *model.Event {
	t.Helper()
	e, err := f.events.Create(context.Background(), CreateEventRequest{
		StartDay: day, StartTime: clock, Classes: []string{"T11"},
		Discipline: "100m", Gender: "Men", Phase: "Final",
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return e
}
