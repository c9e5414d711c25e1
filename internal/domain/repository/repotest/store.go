// Package repotest provides in-memory repositories that follow the same rules
// as the Postgres implementations: unique keys, partial updates and
// caller-supplied time windows.
package repotest

import (
	"sync"

	"github.com/LOSS98/tunis-gp/internal/domain/model"
	"github.com/LOSS98/tunis-gp/internal/domain/repository"
)

type Store struct {
	mu sync.Mutex

	roles          map[int]string
	participants   map[string]*model.Participant
	invitations    map[string]*model.Invitation
	codes          map[string]*model.IdentificationCode
	resets         map[string]*model.PasswordResetToken
	events         map[string]*model.Event
	participations map[[2]string]*model.Participation
	water          []model.WaterEntry

	// FailWaterFor makes water inserts for these bibs fail.
	FailWaterFor map[string]bool
}

// New returns a store seeded with the five built-in roles.
func New() *Store {
	return &Store{
		roles: map[int]string{
			model.RoleIDAdmin:     model.RoleAdmin,
			model.RoleIDLOC:       model.RoleLOC,
			model.RoleIDVolunteer: model.RoleVolunteer,
			model.RoleIDSecurity:  model.RoleSecurity,
			model.RoleIDAthlete:   model.RoleAthlete,
		},
		participants:   map[string]*model.Participant{},
		invitations:    map[string]*model.Invitation{},
		codes:          map[string]*model.IdentificationCode{},
		resets:         map[string]*model.PasswordResetToken{},
		events:         map[string]*model.Event{},
		participations: map[[2]string]*model.Participation{},
		FailWaterFor:   map[string]bool{},
	}
}

func (s *Store) Participants() repository.ParticipantRepository { return &participantRepo{s} }
func (s *Store) Roles() repository.RoleRepository               { return &roleRepo{s} }
func (s *Store) Identifications() repository.IdentificationRepository {
	return &identificationRepo{s}
}
func (s *Store) Invitations() repository.InvitationRepository       { return &invitationRepo{s} }
func (s *Store) PasswordResets() repository.PasswordResetRepository { return &passwordResetRepo{s} }
func (s *Store) Events() repository.EventRepository                 { return &eventRepo{s} }
func (s *Store) Participations() repository.ParticipationRepository {
	return &participationRepo{s}
}
func (s *Store) Water() repository.WaterRepository { return &waterRepo{s} }

// CodeCount reports how many identification rows are stored, expired or not.
func (s *Store) CodeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}

func strEq(p *string, v string) bool {
	return p != nil && *p == v
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
