package service

import (
	"context"
	"errors"
	"testing"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
)

func TestOwnerCanEditProfileButNotRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.athlete(t, "self@example.com", "40", "TUN")
	owner := &model.Principal{UserID: p.ID, Role: model.RoleAthlete}

	updated, err := f.participants.Update(ctx, owner, p.ID, model.ParticipantUpdate{Class: ptr("T12")})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Class == nil || *updated.Class != "T12" {
		t.Fatalf("class not updated: %v", updated.Class)
	}
	if updated.Bib == nil || *updated.Bib != "40" || updated.FirstName != p.FirstName {
		t.Fatalf("untouched fields must be preserved: %+v", updated)
	}

	_, err = f.participants.Update(ctx, owner, p.ID, model.ParticipantUpdate{RoleID: ptr(model.RoleIDAdmin)})
	if !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("owner elevating role: expected ErrForbidden, got %v", err)
	}

	other := f.athlete(t, "other@example.com", "41", "TUN")
	_, err = f.participants.Update(ctx, owner, other.ID, model.ParticipantUpdate{Class: ptr("T13")})
	if !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("editing someone else: expected ErrForbidden, got %v", err)
	}
}

func TestManagerCanChangeRole(t *testing.T) {
	f := newFixture(t)
	p := f.athlete(t, "promote@example.com", "42", "TUN")
	updated, err := f.participants.Update(context.Background(), admin, p.ID, model.ParticipantUpdate{RoleID: ptr(model.RoleIDSecurity)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Role != model.RoleSecurity {
		t.Fatalf("role = %q", updated.Role)
	}

	_, err = f.participants.Update(context.Background(), admin, p.ID, model.ParticipantUpdate{RoleID: ptr(99)})
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("unknown role: expected ErrValidation, got %v", err)
	}
}

func TestUpdateDuplicateBibConflicts(t *testing.T) {
	f := newFixture(t)
	f.athlete(t, "a@example.com", "50", "TUN")
	b := f.athlete(t, "b@example.com", "51", "TUN")

	_, err := f.participants.Update(context.Background(), admin, b.ID, model.ParticipantUpdate{Bib: ptr("50")})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	_, err = f.participants.Update(context.Background(), admin, b.ID, model.ParticipantUpdate{Email: ptr("A@example.com")})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("expected ErrConflict on email, got %v", err)
	}
}

func TestParticipantLookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tn := f.athlete(t, "tn@example.com", "60", "TUN")
	f.athlete(t, "fr@example.com", "61", "FRA")
	f.staff(t, "sec@example.com", model.RoleIDSecurity)

	byBib, err := f.participants.GetByBib(ctx, "60")
	if err != nil || byBib.ID != tn.ID {
		t.Fatalf("GetByBib: %v %v", byBib, err)
	}
	if _, err := f.participants.GetByBib(ctx, "999"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("unknown bib: %v", err)
	}

	tunisians, _ := f.participants.ListByCountry(ctx, "TUN")
	if len(tunisians) != 1 || tunisians[0].ID != tn.ID {
		t.Fatalf("ListByCountry: %+v", tunisians)
	}

	security, _ := f.participants.ListByRole(ctx, model.RoleIDSecurity)
	if len(security) != 1 {
		t.Fatalf("ListByRole: %+v", security)
	}
	if _, err := f.participants.ListByRole(ctx, 77); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("unknown role: %v", err)
	}
}

func TestParticipantEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.athlete(t, "ev@example.com", "70", "TUN")
	past := f.event(t, "2026-04-01", "09:00")
	next := f.event(t, "2026-04-20", "09:00")
	for _, e := range []*model.Event{past, next} {
		if _, err := f.participations.Create(ctx, admin, CreateParticipationRequest{ParticipantID: p.ID, EventID: e.ID}); err != nil {
			t.Fatalf("enter: %v", err)
		}
	}

	all, err := f.participants.Events(ctx, p.ID)
	if err != nil || len(all) != 2 {
		t.Fatalf("Events: %d %v", len(all), err)
	}
	if all[0].Discipline == nil || *all[0].Discipline != "100m" {
		t.Fatalf("event details should be joined: %+v", all[0])
	}

	upcoming, err := f.participants.UpcomingEvents(ctx, p.ID)
	if err != nil || len(upcoming) != 1 || upcoming[0].ID != next.ID {
		t.Fatalf("UpcomingEvents: %+v %v", upcoming, err)
	}
}
