package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LOSS98/tunis-gp/internal/api/handler"
	"github.com/LOSS98/tunis-gp/internal/app/service"
	"github.com/LOSS98/tunis-gp/internal/common/security"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
	"github.com/LOSS98/tunis-gp/internal/domain/repository/repotest"
	"github.com/LOSS98/tunis-gp/internal/platform/kv"

	"go.uber.org/zap"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	tokens  *security.TokenIssuer
	svc     Services
}

var manager = &model.Principal{UserID: "00000000-0000-0000-0000-0000000000aa", Role: model.RoleAdmin}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	store := repotest.New()
	tokens := security.NewTokenIssuer([]byte("router-test-secret"), time.Hour)

	svc := Services{
		Auth: service.NewAuthService(store.Participants(), store.Roles(), store.Invitations(), store.PasswordResets(),
			tokens, service.LogNotifier{Log: zap.NewNop()}, service.AuthConfig{
				PasswordMinLength: 8, ResetTTL: time.Hour, ResetBaseURL: "https://gp.test/reset",
			}),
		Identification: service.NewIdentificationService(store.Identifications(), store.Participants(), store.Events(),
			service.IdentificationConfig{TTL: time.Minute, ScanBaseURL: "https://gp.test/scan", Location: time.UTC}),
		Participants:   service.NewParticipantService(store.Participants(), store.Roles(), store.Participations(), store.Events(), time.UTC),
		Invitations:    service.NewInvitationService(store.Invitations(), store.Participants(), store.Roles()),
		Events:         service.NewEventService(store.Events(), store.Participations(), time.UTC),
		Participations: service.NewParticipationService(store.Participations(), store.Participants(), store.Events(), time.UTC),
		Water:          service.NewWaterService(store.Water(), store.Participants()),
	}

	opts.Tokens = tokens
	opts.Logger = zap.NewNop()
	return &testServer{t: t, handler: NewRouter(svc, opts), tokens: tokens, svc: svc}
}

func (s *testServer) register(email string, roleID int, bib string) *model.Participant {
	s.t.Helper()
	req := service.RegisterRequest{
		FirstName: "Test", LastName: email, Email: email, Password: "correct-horse", RoleID: &roleID,
	}
	if bib != "" {
		req.Bib = &bib
	}
	p, err := s.svc.Auth.Register(context.Background(), req, manager)
	if err != nil {
		s.t.Fatalf("register %s: %v", email, err)
	}
	return p
}

func (s *testServer) bearer(p *model.Participant) string {
	s.t.Helper()
	token, err := s.tokens.GenerateToken(p.ID, p.Role)
	if err != nil {
		s.t.Fatalf("generate token: %v", err)
	}
	return "Bearer " + token
}

func (s *testServer) do(method, path, auth string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, Options{HealthChecks: map[string]handler.Check{
		"database": func(context.Context) error { return nil },
	}})
	if rec := s.do(http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/health/ready", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("readiness: expected 200, got %d: %s", rec.Code, rec.Body)
	}

	down := newTestServer(t, Options{HealthChecks: map[string]handler.Check{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}})
	rec := down.do(http.MethodGet, "/health/ready", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when a check fails, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("expected failing check in body, got %s", rec.Body)
	}
}

func TestAuthenticationVersusAuthorization(t *testing.T) {
	s := newTestServer(t, Options{})
	athlete := s.register("runner@gp.test", model.RoleIDAthlete, "101")
	loc := s.register("loc@gp.test", model.RoleIDLOC, "")

	if rec := s.do(http.MethodGet, "/api/participants", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/participants", "Bearer not-a-jwt", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/participants", s.bearer(athlete), nil); rec.Code != http.StatusForbidden {
		t.Fatalf("athlete: expected 403, got %d", rec.Code)
	}
	rec := s.do(http.MethodGet, "/api/participants", s.bearer(loc), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("loc: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if got := decode[[]model.Participant](t, rec); len(got) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(got))
	}
}

func TestOwnDataOrManager(t *testing.T) {
	s := newTestServer(t, Options{})
	a := s.register("a@gp.test", model.RoleIDAthlete, "201")
	b := s.register("b@gp.test", model.RoleIDAthlete, "202")

	if rec := s.do(http.MethodGet, "/api/participants/"+a.ID, s.bearer(a), nil); rec.Code != http.StatusOK {
		t.Fatalf("own record: expected 200, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/participants/"+a.ID+"/upcoming-events", s.bearer(b), nil); rec.Code != http.StatusForbidden {
		t.Fatalf("someone else's events: expected 403, got %d", rec.Code)
	}
	rec := s.do(http.MethodPut, "/api/participants/"+a.ID, s.bearer(b), map[string]string{"first_name": "Mallory"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("editing someone else: expected 403, got %d", rec.Code)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	s := newTestServer(t, Options{Limiter: kv.NewMemoryLimiter(), LoginRateLimit: 2})
	s.register("runner@gp.test", model.RoleIDAthlete, "101")

	creds := map[string]string{"email": "runner@gp.test", "password": "correct-horse"}
	for i := 0; i < 2; i++ {
		if rec := s.do(http.MethodPost, "/api/auth/login", "", creds); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d: %s", i+1, rec.Code, rec.Body)
		}
	}
	rec := s.do(http.MethodPost, "/api/auth/login", "", creds)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("expected Retry-After 60, got %q", got)
	}
}

func TestLoginRejectsBadPayload(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := s.do(http.MethodPost, "/api/auth/login", "", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid request payload") {
		t.Fatalf("unexpected body %s", rec.Body)
	}
}

func TestSelfRegistrationNeedsInvitation(t *testing.T) {
	s := newTestServer(t, Options{})
	loc := s.register("loc@gp.test", model.RoleIDLOC, "")
	body := map[string]any{
		"first_name": "New", "last_name": "Volunteer", "email": "new@gp.test", "password": "correct-horse",
	}

	if rec := s.do(http.MethodPost, "/api/auth/register", "", body); rec.Code != http.StatusForbidden {
		t.Fatalf("uninvited: expected 403, got %d", rec.Code)
	}

	inv := map[string]any{"email": "new@gp.test", "role_id": model.RoleIDVolunteer}
	if rec := s.do(http.MethodPost, "/api/invitations", s.bearer(loc), inv); rec.Code != http.StatusCreated {
		t.Fatalf("invite: expected 201, got %d: %s", rec.Code, rec.Body)
	}

	rec := s.do(http.MethodPost, "/api/auth/register", "", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("invited: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	if p := decode[model.Participant](t, rec); p.Role != model.RoleVolunteer {
		t.Fatalf("expected invited role, got %q", p.Role)
	}
}

func TestQRIdentificationFlow(t *testing.T) {
	s := newTestServer(t, Options{})
	athlete := s.register("runner@gp.test", model.RoleIDAthlete, "101")
	guard := s.register("guard@gp.test", model.RoleIDSecurity, "")

	rec := s.do(http.MethodGet, "/api/auth/generate-qr", s.bearer(athlete), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	code := decode[service.GeneratedCode](t, rec)

	if rec := s.do(http.MethodGet, "/api/auth/validate-qr/"+code.Token, s.bearer(athlete), nil); rec.Code != http.StatusForbidden {
		t.Fatalf("athlete scanning: expected 403, got %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/api/auth/validate-qr", s.bearer(guard), map[string]string{"data": code.ScanURL})
	if rec.Code != http.StatusOK {
		t.Fatalf("scan: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	res := decode[model.IdentificationResult](t, rec)
	if res.Participant.Email != "runner@gp.test" || res.Events == nil {
		t.Fatalf("unexpected identification %+v", res)
	}

	// Validation does not consume the token.
	if rec := s.do(http.MethodGet, "/api/auth/validate-qr/"+code.Token, s.bearer(guard), nil); rec.Code != http.StatusOK {
		t.Fatalf("second validation: expected 200, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/auth/validate-qr/unknown", s.bearer(guard), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown token: expected 404, got %d", rec.Code)
	}
}

func TestQRImage(t *testing.T) {
	s := newTestServer(t, Options{})
	athlete := s.register("runner@gp.test", model.RoleIDAthlete, "101")

	rec := s.do(http.MethodGet, "/api/auth/generate-qr.png", s.bearer(athlete), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("body is not a PNG")
	}
	if rec.Header().Get("X-QR-Valid-Till") == "" {
		t.Fatalf("missing validity header")
	}
}

func TestPublicUpcomingEventsLimit(t *testing.T) {
	s := newTestServer(t, Options{})
	if rec := s.do(http.MethodGet, "/api/events/upcoming", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without a token, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/events/upcoming?limit=0", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("limit=0: expected 400, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/events", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("full list without token: expected 401, got %d", rec.Code)
	}
}

func TestEventManagementRequiresManager(t *testing.T) {
	s := newTestServer(t, Options{})
	volunteer := s.register("vol@gp.test", model.RoleIDVolunteer, "")
	loc := s.register("loc@gp.test", model.RoleIDLOC, "")
	body := map[string]any{
		"start_day": "2026-04-12", "start_time": "09:30", "classes": []string{"T11", "T12"},
		"discipline": "100m", "gender": "Women", "phase": "Heats",
	}

	if rec := s.do(http.MethodPost, "/api/events", s.bearer(volunteer), body); rec.Code != http.StatusForbidden {
		t.Fatalf("volunteer: expected 403, got %d", rec.Code)
	}
	rec := s.do(http.MethodPost, "/api/events", s.bearer(loc), body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("loc: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	e := decode[model.Event](t, rec)
	if rec := s.do(http.MethodGet, "/api/events/class/T12", s.bearer(volunteer), nil); rec.Code != http.StatusOK {
		t.Fatalf("by class: expected 200, got %d", rec.Code)
	}
	if rec := s.do(http.MethodDelete, "/api/events/"+e.ID, s.bearer(loc), nil); rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
}

func TestMalformedIDsReturnNotFound(t *testing.T) {
	s := newTestServer(t, Options{})
	loc := s.bearer(s.register("loc@gp.test", model.RoleIDLOC, ""))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"participant lookup", http.MethodGet, "/api/participants/abc", nil},
		{"event delete", http.MethodDelete, "/api/events/foo", nil},
		{"event lookup", http.MethodGet, "/api/events/12", nil},
		{"participation create", http.MethodPost, "/api/participations", map[string]any{"participant_id": "x", "event_id": "y"}},
		{"result update", http.MethodPut, "/api/participations/x/y", map[string]any{"medal": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := s.do(tt.method, tt.path, loc, tt.body); rec.Code != http.StatusNotFound {
				t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body)
			}
		})
	}
}

func TestWaterDistribution(t *testing.T) {
	s := newTestServer(t, Options{})
	s.register("runner@gp.test", model.RoleIDAthlete, "101")
	volunteer := s.register("vol@gp.test", model.RoleIDVolunteer, "")
	guard := s.register("guard@gp.test", model.RoleIDSecurity, "")

	if rec := s.do(http.MethodPost, "/api/water/add", s.bearer(guard), map[string]any{"bib": "101", "bottles": 1}); rec.Code != http.StatusForbidden {
		t.Fatalf("security: expected 403, got %d", rec.Code)
	}
	for _, n := range []int{3, 2} {
		rec := s.do(http.MethodPost, "/api/water/add", s.bearer(volunteer), map[string]any{"bib": "101", "bottles": n})
		if rec.Code != http.StatusCreated {
			t.Fatalf("add %d: expected 201, got %d: %s", n, rec.Code, rec.Body)
		}
	}

	rec := s.do(http.MethodGet, "/api/water/participant/101", s.bearer(volunteer), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rec.Code)
	}
	if hist := decode[model.WaterHistory](t, rec); hist.TotalBottles != 5 || len(hist.Entries) != 2 {
		t.Fatalf("expected 5 bottles over 2 entries, got %+v", hist)
	}

	if rec := s.do(http.MethodPost, "/api/water/add/all", s.bearer(volunteer), map[string]any{"bottles": 1}); rec.Code != http.StatusForbidden {
		t.Fatalf("broadcast by volunteer: expected 403, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, Options{AllowedOrigins: []string{"https://app.gp.test"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "https://app.gp.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.gp.test" {
		t.Fatalf("expected origin to be allowed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "https://evil.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected foreign origin to be refused, got %q", got)
	}
}
