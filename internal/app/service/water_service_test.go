package service

import (
	"context"
	"errors"
	"testing"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
)

func TestWaterHistoryTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.athlete(t, "w1@example.com", "100", "TUN")
	volunteer := f.staff(t, "vol@example.com", model.RoleIDVolunteer)
	actor := &model.Principal{UserID: volunteer.ID, Role: model.RoleVolunteer}

	for _, n := range []int{3, 2} {
		if _, err := f.water.AddBottles(ctx, actor, AddWaterRequest{Bib: "100", Bottles: n}); err != nil {
			t.Fatalf("add %d: %v", n, err)
		}
	}

	h, err := f.water.HistoryByParticipant(ctx, "100")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(h.Entries) != 2 || h.TotalBottles != 5 {
		t.Fatalf("expected 2 entries totalling 5, got %d/%d", len(h.Entries), h.TotalBottles)
	}
	if h.Entries[0].StaffFirstName == nil || *h.Entries[0].StaffFirstName != "Staff" {
		t.Fatalf("staff name should be joined: %+v", h.Entries[0])
	}
}

func TestAddBottlesRejectsUnknownBibAndBadCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.athlete(t, "w2@example.com", "101", "TUN")

	if _, err := f.water.AddBottles(ctx, admin, AddWaterRequest{Bib: "999", Bottles: 1}); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("unknown bib: expected ErrNotFound, got %v", err)
	}
	for _, n := range []int{0, -2} {
		if _, err := f.water.AddBottles(ctx, admin, AddWaterRequest{Bib: "101", Bottles: n}); !errors.Is(err, common.ErrValidation) {
			t.Fatalf("bottles=%d: expected ErrValidation, got %v", n, err)
		}
	}
}

func TestBroadcastToCountrySkipsFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.athlete(t, "t1@example.com", "200", "TUN")
	f.athlete(t, "t2@example.com", "201", "TUN")
	f.athlete(t, "t3@example.com", "202", "TUN")
	f.athlete(t, "f1@example.com", "300", "FRA")
	f.store.FailWaterFor["201"] = true

	res, err := f.water.AddBottlesToCountry(ctx, admin, AddCountryWaterRequest{Country: "TUN", Bottles: 2})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if res.Count != 2 || res.Failed != 1 {
		t.Fatalf("expected 2 ok / 1 failed, got %+v", res)
	}

	h, _ := f.water.HistoryByCountry(ctx, "TUN")
	if h.TotalBottles != 4 {
		t.Fatalf("TUN total = %d", h.TotalBottles)
	}
	h, _ = f.water.HistoryByCountry(ctx, "FRA")
	if h.TotalBottles != 0 {
		t.Fatalf("FRA should be untouched, total = %d", h.TotalBottles)
	}
}

func TestBroadcastWithNoRecipientsIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.water.AddBottlesToCountry(ctx, admin, AddCountryWaterRequest{Country: "ITA", Bottles: 1}); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("empty country: expected ErrNotFound, got %v", err)
	}

	f.athlete(t, "only@example.com", "400", "TUN")
	f.store.FailWaterFor["400"] = true
	if _, err := f.water.AddBottlesToAll(ctx, admin, AddAllWaterRequest{Bottles: 1}); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("all inserts failing: expected ErrNotFound, got %v", err)
	}
}

func TestAddBottlesToAllAndCountryTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.athlete(t, "a@example.com", "500", "TUN")
	f.athlete(t, "b@example.com", "501", "TUN")
	f.athlete(t, "c@example.com", "502", "FRA")
	f.staff(t, "nobib@example.com", model.RoleIDSecurity)

	res, err := f.water.AddBottlesToAll(ctx, admin, AddAllWaterRequest{Bottles: 1})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if res.Count != 3 || res.Failed != 0 {
		t.Fatalf("only bib holders receive water: %+v", res)
	}
	if _, err := f.water.AddBottles(ctx, admin, AddWaterRequest{Bib: "502", Bottles: 4}); err != nil {
		t.Fatalf("add: %v", err)
	}

	totals, err := f.water.CountryTotals(ctx)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	want := []model.CountryWaterTotal{
		{Country: "FRA", ParticipantCount: 1, TotalBottles: 5},
		{Country: "TUN", ParticipantCount: 2, TotalBottles: 2},
	}
	if len(totals) != len(want) {
		t.Fatalf("totals = %+v", totals)
	}
	for i := range want {
		if totals[i] != want[i] {
			t.Fatalf("totals[%d] = %+v, want %+v", i, totals[i], want[i])
		}
	}

	all, _ := f.water.History(ctx)
	if all.TotalBottles != 7 {
		t.Fatalf("overall total = %d", all.TotalBottles)
	}
}
