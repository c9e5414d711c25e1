package model

import "time"

// WaterEntry is an append-only distribution record keyed by bib.
type WaterEntry struct {
	ID             string    `json:"id"`
	ParticipantBib string    `json:"participant_bib"`
	BottlesTaken   int       `json:"bottles_taken"`
	TakenFrom      *string   `json:"taken_from"`
	TakenAt        time.Time `json:"taken_at"`

	FirstName      *string `json:"first_name,omitempty"`
	LastName       *string `json:"last_name,omitempty"`
	Country        *string `json:"country,omitempty"`
	StaffFirstName *string `json:"staff_first_name,omitempty"`
	StaffLastName  *string `json:"staff_last_name,omitempty"`
}

type WaterHistory struct {
	Entries      []WaterEntry `json:"water_history"`
	TotalBottles int          `json:"total_bottles"`
}

type CountryWaterTotal struct {
	Country          string `json:"country"`
	ParticipantCount int    `json:"participant_count"`
	TotalBottles     int    `json:"total_bottles"`
}

type BroadcastResult struct {
	Count  int `json:"count"`
	Failed int `json:"failed"`
}
