package model

import (
	"time"
)

const (
	RoleAdmin     = "admin"
	RoleLOC       = "loc"
	RoleVolunteer = "volunteer"
	RoleSecurity  = "security"
	RoleAthlete   = "athlete"
)

const (
	RoleIDAdmin     = 1
	RoleIDLOC       = 2
	RoleIDVolunteer = 3
	RoleIDSecurity  = 4
	RoleIDAthlete   = 5

	DefaultRoleID = RoleIDAthlete
)

type Role struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// IsManager reports whether the role may manage events, invitations and other accounts.
func IsManager(role string) bool {
	return role == RoleAdmin || role == RoleLOC
}

type Participant struct {
	ID             string     `json:"id"`
	Bib            *string    `json:"bib"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	HashedPassword *string    `json:"-"` // nil means the reset flow must be used first
	Country        *string    `json:"country"`
	Class          *string    `json:"class"`
	ProfilePicture *string    `json:"profile_picture"`
	RoleID         int        `json:"role_id"`
	Role           string     `json:"role"`
	CreatedBy      *string    `json:"created_by,omitempty"`
	CreatedOn      time.Time  `json:"created_on"`
	LastConnection *time.Time `json:"last_connection"`
}

func (p *Participant) HasPassword() bool {
	return p.HashedPassword != nil && *p.HashedPassword != ""
}

// ParticipantUpdate carries a partial update; nil fields keep their stored value.
type ParticipantUpdate struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Email          *string `json:"email"`
	Bib            *string `json:"bib"`
	Country        *string `json:"country"`
	Class          *string `json:"class"`
	RoleID         *int    `json:"role_id"`
	ProfilePicture *string `json:"profile_picture"`
}

type Invitation struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	RoleID          int       `json:"role_id"`
	InvitedBy       *string   `json:"invited_by"`
	InvitedByFirst  *string   `json:"invited_by_first_name,omitempty"`
	InvitedByLast   *string   `json:"invited_by_last_name,omitempty"`
	InvitedOn       time.Time `json:"invited_on"`
	Registered      bool      `json:"registered"`
}

type PasswordResetToken struct {
	ID            string
	ParticipantID string
	TokenHash     string
	ExpiresAt     time.Time
	UsedAt        *time.Time
	CreatedAt     time.Time
}
