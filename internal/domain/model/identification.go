package model

import "time"

// IdentificationCode is a short-lived QR token. Rows are never mutated; they
// are valid while ValidTill is in the future and are reaped by the sweep.
type IdentificationCode struct {
	Token         string    `json:"token"`
	ParticipantID string    `json:"participant_id"`
	ValidTill     time.Time `json:"valid_till"`
}

// IdentifiedParticipant is what a scanner sees after redeeming a token.
type IdentifiedParticipant struct {
	ParticipantID  string    `json:"participant_id"`
	Bib            *string   `json:"bib"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	ProfilePicture *string   `json:"profile_picture"`
	Country        *string   `json:"country"`
	Class          *string   `json:"class"`
	Role           string    `json:"role"`
	ValidTill      time.Time `json:"valid_till"`
}

type IdentificationResult struct {
	Participant IdentifiedParticipant `json:"participant"`
	Events      []UpcomingEvent       `json:"events"`
}
