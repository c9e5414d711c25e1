package repotest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
)

type participantRepo struct{ s *Store }

// conflictLocked mirrors the participants_email_key and participants_bib_key constraints.
func (s *Store) conflictLocked(selfID, email string, bib *string) error {
	for _, p := range s.participants {
		if p.ID == selfID {
			continue
		}
		if p.Email == email {
			return fmt.Errorf("email already in use: %w", common.ErrConflict)
		}
		if bib != nil && p.Bib != nil && *p.Bib == *bib {
			return fmt.Errorf("bib already in use: %w", common.ErrConflict)
		}
	}
	return nil
}

func (s *Store) snapshotLocked(p *model.Participant) model.Participant {
	out := *p
	out.Role = s.roles[p.RoleID]
	return out
}

func (r *participantRepo) Create(_ context.Context, p *model.Participant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[p.RoleID]; !ok {
		return fmt.Errorf("unknown role %d", p.RoleID)
	}
	if err := r.s.conflictLocked(p.ID, p.Email, p.Bib); err != nil {
		return err
	}
	stored := *p
	r.s.participants[p.ID] = &stored
	return nil
}

func (r *participantRepo) findLocked(match func(*model.Participant) bool) (*model.Participant, error) {
	for _, p := range r.s.participants {
		if match(p) {
			out := r.s.snapshotLocked(p)
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *participantRepo) FindByID(_ context.Context, id string) (*model.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.findLocked(func(p *model.Participant) bool { return p.ID == id })
}

func (r *participantRepo) FindByEmail(_ context.Context, email string) (*model.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.findLocked(func(p *model.Participant) bool { return p.Email == email })
}

func (r *participantRepo) FindByBib(_ context.Context, bib string) (*model.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.findLocked(func(p *model.Participant) bool { return strEq(p.Bib, bib) })
}

func (r *participantRepo) filter(match func(*model.Participant) bool) []model.Participant {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Participant{}
	for _, p := range r.s.participants {
		if match(p) {
			out = append(out, r.s.snapshotLocked(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out
}

func (r *participantRepo) List(_ context.Context) ([]model.Participant, error) {
	return r.filter(func(*model.Participant) bool { return true }), nil
}

func (r *participantRepo) ListByRole(_ context.Context, roleID int) ([]model.Participant, error) {
	return r.filter(func(p *model.Participant) bool { return p.RoleID == roleID }), nil
}

func (r *participantRepo) ListByCountry(_ context.Context, country string) ([]model.Participant, error) {
	return r.filter(func(p *model.Participant) bool { return strEq(p.Country, country) }), nil
}

func (r *participantRepo) ListBibHolders(_ context.Context, country string) ([]model.Participant, error) {
	return r.filter(func(p *model.Participant) bool {
		return p.Bib != nil && (country == "" || strEq(p.Country, country))
	}), nil
}

func (r *participantRepo) Update(_ context.Context, id string, u model.ParticipantUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.participants[id]
	if !ok {
		return common.ErrNotFound
	}
	next := *p
	if u.FirstName != nil {
		next.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		next.LastName = *u.LastName
	}
	if u.Email != nil {
		next.Email = *u.Email
	}
	if u.Bib != nil {
		next.Bib = cloneStr(u.Bib)
	}
	if u.Country != nil {
		next.Country = cloneStr(u.Country)
	}
	if u.Class != nil {
		next.Class = cloneStr(u.Class)
	}
	if u.RoleID != nil {
		if _, ok := r.s.roles[*u.RoleID]; !ok {
			return fmt.Errorf("unknown role %d", *u.RoleID)
		}
		next.RoleID = *u.RoleID
	}
	if u.ProfilePicture != nil {
		next.ProfilePicture = cloneStr(u.ProfilePicture)
	}
	if err := r.s.conflictLocked(id, next.Email, next.Bib); err != nil {
		return err
	}
	*p = next
	return nil
}

func (r *participantRepo) UpdatePassword(_ context.Context, id, hashedPassword string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.participants[id]
	if !ok {
		return common.ErrNotFound
	}
	p.HashedPassword = &hashedPassword
	return nil
}

func (r *participantRepo) TouchLastConnection(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.participants[id]; ok {
		p.LastConnection = &at
	}
	return nil
}

type roleRepo struct{ s *Store }

func (r *roleRepo) List(_ context.Context) ([]model.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	roles := make([]model.Role, 0, len(r.s.roles))
	for id, name := range r.s.roles {
		roles = append(roles, model.Role{ID: id, Name: name})
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

func (r *roleRepo) FindByID(_ context.Context, id int) (*model.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	name, ok := r.s.roles[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &model.Role{ID: id, Name: name}, nil
}

func (r *roleRepo) FindByName(_ context.Context, name string) (*model.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, n := range r.s.roles {
		if n == name {
			return &model.Role{ID: id, Name: n}, nil
		}
	}
	return nil, common.ErrNotFound
}
