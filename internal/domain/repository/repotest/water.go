package repotest

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/LOSS98/tunis-gp/internal/domain/model"
)

var errWaterInsert = errors.New("water insert failed")

type waterRepo struct{ s *Store }

func (r *waterRepo) Create(_ context.Context, e *model.WaterEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWaterFor[e.ParticipantBib] {
		return fmt.Errorf("bib %s: %w", e.ParticipantBib, errWaterInsert)
	}
	if e.BottlesTaken <= 0 {
		return fmt.Errorf("bottles_taken must be positive")
	}
	r.s.water = append(r.s.water, model.WaterEntry{
		ID: e.ID, ParticipantBib: e.ParticipantBib, BottlesTaken: e.BottlesTaken,
		TakenFrom: cloneStr(e.TakenFrom), TakenAt: e.TakenAt,
	})
	return nil
}

func (r *waterRepo) filter(match func(e model.WaterEntry, athlete *model.Participant) bool) []model.WaterEntry {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byBib := map[string]*model.Participant{}
	for _, p := range r.s.participants {
		if p.Bib != nil {
			byBib[*p.Bib] = p
		}
	}
	out := []model.WaterEntry{}
	for _, e := range r.s.water {
		athlete := byBib[e.ParticipantBib]
		if !match(e, athlete) {
			continue
		}
		if athlete != nil {
			e.FirstName, e.LastName, e.Country = &athlete.FirstName, &athlete.LastName, athlete.Country
		}
		if e.TakenFrom != nil {
			if staff, ok := r.s.participants[*e.TakenFrom]; ok {
				e.StaffFirstName, e.StaffLastName = &staff.FirstName, &staff.LastName
			}
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TakenAt.After(out[j].TakenAt) })
	return out
}

func (r *waterRepo) List(_ context.Context) ([]model.WaterEntry, error) {
	return r.filter(func(model.WaterEntry, *model.Participant) bool { return true }), nil
}

func (r *waterRepo) ListByBib(_ context.Context, bib string) ([]model.WaterEntry, error) {
	return r.filter(func(e model.WaterEntry, _ *model.Participant) bool { return e.ParticipantBib == bib }), nil
}

func (r *waterRepo) ListByCountry(_ context.Context, country string) ([]model.WaterEntry, error) {
	return r.filter(func(_ model.WaterEntry, a *model.Participant) bool {
		return a != nil && strEq(a.Country, country)
	}), nil
}

func (r *waterRepo) CountryTotals(_ context.Context) ([]model.CountryWaterTotal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	totals := map[string]*model.CountryWaterTotal{}
	bibCountry := map[string]string{}
	for _, p := range r.s.participants {
		if p.Country == nil || p.Bib == nil {
			continue
		}
		t, ok := totals[*p.Country]
		if !ok {
			t = &model.CountryWaterTotal{Country: *p.Country}
			totals[*p.Country] = t
		}
		t.ParticipantCount++
		bibCountry[*p.Bib] = *p.Country
	}
	for _, e := range r.s.water {
		if c, ok := bibCountry[e.ParticipantBib]; ok {
			totals[c].TotalBottles += e.BottlesTaken
		}
	}
	out := make([]model.CountryWaterTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })
	return out, nil
}
