package repotest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
)

type identificationRepo struct{ s *Store }

func (r *identificationRepo) Create(_ context.Context, code *model.IdentificationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.participants[code.ParticipantID]; !ok {
		return fmt.Errorf("participant %s does not exist", code.ParticipantID)
	}
	if _, dup := r.s.codes[code.Token]; dup {
		return fmt.Errorf("token collision: %w", common.ErrConflict)
	}
	stored := *code
	r.s.codes[code.Token] = &stored
	return nil
}

func (r *identificationRepo) FindValid(_ context.Context, token string, now time.Time) (*model.IdentifiedParticipant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	code, ok := r.s.codes[token]
	if !ok || !code.ValidTill.After(now) {
		return nil, common.ErrInvalidOrExpired
	}
	p, ok := r.s.participants[code.ParticipantID]
	if !ok {
		return nil, common.ErrInvalidOrExpired
	}
	return &model.IdentifiedParticipant{
		ParticipantID:  p.ID,
		Bib:            cloneStr(p.Bib),
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Email:          p.Email,
		ProfilePicture: cloneStr(p.ProfilePicture),
		Country:        cloneStr(p.Country),
		Class:          cloneStr(p.Class),
		Role:           r.s.roles[p.RoleID],
		ValidTill:      code.ValidTill,
	}, nil
}

func (r *identificationRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for token, code := range r.s.codes {
		if !code.ValidTill.After(now) {
			delete(r.s.codes, token)
			n++
		}
	}
	return n, nil
}

type passwordResetRepo struct{ s *Store }

func (r *passwordResetRepo) Create(_ context.Context, t *model.PasswordResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *t
	r.s.resets[t.ID] = &stored
	return nil
}

func (r *passwordResetRepo) Consume(_ context.Context, participantID, tokenHash string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.resets {
		if t.ParticipantID == participantID && t.TokenHash == tokenHash && t.UsedAt == nil && t.ExpiresAt.After(now) {
			used := now
			t.UsedAt = &used
			return nil
		}
	}
	return common.ErrInvalidOrExpired
}

type invitationRepo struct{ s *Store }

func (r *invitationRepo) Create(_ context.Context, inv *model.Invitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.invitations {
		if existing.Email == inv.Email {
			return fmt.Errorf("email already invited: %w", common.ErrConflict)
		}
	}
	stored := *inv
	r.s.invitations[inv.ID] = &stored
	return nil
}

func (r *invitationRepo) List(_ context.Context) ([]model.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Invitation{}
	for _, inv := range r.s.invitations {
		cp := *inv
		if inv.InvitedBy != nil {
			if by, ok := r.s.participants[*inv.InvitedBy]; ok {
				cp.InvitedByFirst = &by.FirstName
				cp.InvitedByLast = &by.LastName
			}
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvitedOn.After(out[j].InvitedOn) })
	return out, nil
}

func (r *invitationRepo) FindPendingByEmail(_ context.Context, email string) (*model.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.invitations {
		if inv.Email == email && !inv.Registered {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *invitationRepo) MarkRegistered(_ context.Context, email string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.invitations {
		if inv.Email == email {
			inv.Registered = true
		}
	}
	return nil
}

func (r *invitationRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.invitations[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.invitations, id)
	return nil
}
