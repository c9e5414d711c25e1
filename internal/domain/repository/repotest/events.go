package repotest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
)

type eventRepo struct{ s *Store }

func cloneEvent(e *model.Event) model.Event {
	out := *e
	out.Classes = append([]string{}, e.Classes...)
	return out
}

func (r *eventRepo) Create(_ context.Context, e *model.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := cloneEvent(e)
	r.s.events[e.ID] = &stored
	return nil
}

func (r *eventRepo) Update(_ context.Context, e *model.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.events[e.ID]
	if !ok {
		return common.ErrNotFound
	}
	stored := cloneEvent(e)
	stored.CreatedAt = existing.CreatedAt
	r.s.events[e.ID] = &stored
	return nil
}

func (r *eventRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.events, id)
	for key := range r.s.participations {
		if key[1] == id {
			delete(r.s.participations, key)
		}
	}
	return nil
}

func (r *eventRepo) FindByID(_ context.Context, id string) (*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := cloneEvent(e)
	return &out, nil
}

func startsBefore(a, b *model.Event) bool {
	if a.StartDay != b.StartDay {
		return a.StartDay < b.StartDay
	}
	return a.StartTime < b.StartTime
}

func notBefore(e *model.Event, day, clock string) bool {
	return e.StartDay > day || (e.StartDay == day && e.StartTime >= clock)
}

func (r *eventRepo) filter(match func(*model.Event) bool, limit int) []model.Event {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Event{}
	for _, e := range r.s.events {
		if match(e) {
			out = append(out, cloneEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return startsBefore(&out[i], &out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *eventRepo) List(_ context.Context) ([]model.Event, error) {
	return r.filter(func(*model.Event) bool { return true }, 0), nil
}

func (r *eventRepo) ListByDate(_ context.Context, day string) ([]model.Event, error) {
	return r.filter(func(e *model.Event) bool { return e.StartDay == day }, 0), nil
}

func (r *eventRepo) ListByClass(_ context.Context, class string) ([]model.Event, error) {
	return r.filter(func(e *model.Event) bool {
		for _, c := range e.Classes {
			if c == class {
				return true
			}
		}
		return false
	}, 0), nil
}

func (r *eventRepo) ListPublishedStartLists(_ context.Context) ([]model.Event, error) {
	return r.filter(func(e *model.Event) bool { return e.PublishStartList }, 0), nil
}

func (r *eventRepo) ListPublishedResults(_ context.Context) ([]model.Event, error) {
	return r.filter(func(e *model.Event) bool { return e.PublishResults }, 0), nil
}

func (r *eventRepo) ListUpcoming(_ context.Context, day, clock string, limit int) ([]model.Event, error) {
	return r.filter(func(e *model.Event) bool { return notBefore(e, day, clock) }, limit), nil
}

func (r *eventRepo) UpcomingForParticipant(_ context.Context, participantID, day, clock string, limit int) ([]model.UpcomingEvent, error) {
	r.s.mu.Lock()
	mine := map[string]bool{}
	for key := range r.s.participations {
		if key[0] == participantID {
			mine[key[1]] = true
		}
	}
	r.s.mu.Unlock()

	events := r.filter(func(e *model.Event) bool { return mine[e.ID] && notBefore(e, day, clock) }, limit)
	out := make([]model.UpcomingEvent, 0, len(events))
	for _, e := range events {
		out = append(out, model.UpcomingEvent{
			ID: e.ID, Discipline: e.Discipline, Phase: e.Phase, Gender: e.Gender,
			StartDay: e.StartDay, StartTime: e.StartTime, Area: e.Area,
		})
	}
	return out, nil
}

type participationRepo struct{ s *Store }

func (r *participationRepo) Create(_ context.Context, p *model.Participation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.participants[p.ParticipantID]; !ok {
		return fmt.Errorf("participant %s does not exist", p.ParticipantID)
	}
	if _, ok := r.s.events[p.EventID]; !ok {
		return fmt.Errorf("event %s does not exist", p.EventID)
	}
	key := [2]string{p.ParticipantID, p.EventID}
	if _, dup := r.s.participations[key]; dup {
		return fmt.Errorf("participant already registered for this event: %w", common.ErrConflict)
	}
	stored := model.Participation{
		ParticipantID: p.ParticipantID, EventID: p.EventID, Mark: cloneStr(p.Mark),
		Medal: p.Medal, AddedBy: cloneStr(p.AddedBy), AddedOn: p.AddedOn,
	}
	r.s.participations[key] = &stored
	return nil
}

func (r *participationRepo) Find(_ context.Context, participantID, eventID string) (*model.Participation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.participations[[2]string{participantID, eventID}]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *participationRepo) List(_ context.Context) ([]model.Participation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Participation{}
	for _, p := range r.s.participations {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedOn.After(out[j].AddedOn) })
	return out, nil
}

func (r *participationRepo) ListByParticipant(_ context.Context, participantID string) ([]model.Participation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Participation{}
	for key, p := range r.s.participations {
		if key[0] != participantID {
			continue
		}
		cp := *p
		if e, ok := r.s.events[key[1]]; ok {
			cp.Discipline, cp.Phase, cp.Gender = &e.Discipline, &e.Phase, &e.Gender
			cp.StartDay, cp.StartTime = &e.StartDay, &e.StartTime
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if *out[i].StartDay != *out[j].StartDay {
			return *out[i].StartDay < *out[j].StartDay
		}
		return *out[i].StartTime < *out[j].StartTime
	})
	return out, nil
}

func (r *participationRepo) forEvent(eventID string, medalistsOnly bool) []model.Participation {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Participation{}
	for key, p := range r.s.participations {
		if key[1] != eventID || (medalistsOnly && p.Medal == nil) {
			continue
		}
		cp := *p
		if a, ok := r.s.participants[key[0]]; ok {
			cp.FirstName, cp.LastName = &a.FirstName, &a.LastName
			cp.Bib, cp.Country, cp.Class = a.Bib, a.Country, a.Class
		}
		out = append(out, cp)
	}
	model.SortResults(out)
	return out
}

func (r *participationRepo) ListByEvent(_ context.Context, eventID string) ([]model.Participation, error) {
	return r.forEvent(eventID, false), nil
}

func (r *participationRepo) ListMedalists(_ context.Context, eventID string) ([]model.Participation, error) {
	return r.forEvent(eventID, true), nil
}

func (r *participationRepo) UpdateResult(_ context.Context, participantID, eventID string, u model.ResultUpdate, by *string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.participations[[2]string{participantID, eventID}]
	if !ok {
		return common.ErrNotFound
	}
	switch {
	case u.ClearMark:
		p.Mark = nil
	case u.Mark != nil:
		p.Mark = cloneStr(u.Mark)
	}
	switch {
	case u.ClearMedal:
		p.Medal = nil
	case u.Medal != nil:
		m := *u.Medal
		p.Medal = &m
	}
	p.AddedBy = cloneStr(by)
	p.AddedOn = at
	return nil
}

func (r *participationRepo) Delete(_ context.Context, participantID, eventID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.participations, [2]string{participantID, eventID})
	return nil
}
