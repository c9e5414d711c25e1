package model

import (
	"sort"
	"time"
)

const (
	MedalGold   = 1
	MedalSilver = 2
	MedalBronze = 3
)

func ValidMedal(m int) bool {
	return m >= MedalGold && m <= MedalBronze
}

type Participation struct {
	ParticipantID string    `json:"participant_id"`
	EventID       string    `json:"event_id"`
	Mark          *string   `json:"mark"`
	Medal         *int      `json:"medal"`
	AddedBy       *string   `json:"added_by"`
	AddedOn       time.Time `json:"added_on"`

	// Joined participant columns, present on event-scoped listings.
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Bib       *string `json:"bib,omitempty"`
	Country   *string `json:"country,omitempty"`
	Class     *string `json:"class,omitempty"`

	// Joined event columns, present on participant-scoped listings.
	Discipline *string `json:"discipline,omitempty"`
	Phase      *string `json:"phase,omitempty"`
	Gender     *string `json:"gender,omitempty"`
	StartDay   *string `json:"start_day,omitempty"`
	StartTime  *string `json:"start_time,omitempty"`
}

// ResultUpdate leaves a nil Mark or Medal untouched unless the matching
// Clear flag is set, which stores NULL instead.
type ResultUpdate struct {
	Mark       *string `json:"mark"`
	Medal      *int    `json:"medal"`
	ClearMark  bool    `json:"clear_mark"`
	ClearMedal bool    `json:"clear_medal"`
}

// SortResults orders medal holders first by rank, then everyone else; ties
// fall back to mark so the order is stable across calls.
func SortResults(ps []Participation) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		switch {
		case a.Medal != nil && b.Medal == nil:
			return true
		case a.Medal == nil && b.Medal != nil:
			return false
		case a.Medal != nil && b.Medal != nil && *a.Medal != *b.Medal:
			return *a.Medal < *b.Medal
		}
		switch {
		case a.Mark == nil:
			return false
		case b.Mark == nil:
			return true
		}
		return *a.Mark < *b.Mark
	})
}
