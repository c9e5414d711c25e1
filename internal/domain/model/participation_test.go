package model

import (
	"testing"
	"time"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestSortResultsPutsMedalsFirstInRankOrder(t *testing.T) {
	inputs := [][]Participation{
		{
			{ParticipantID: "none", Mark: strPtr("12.40")},
			{ParticipantID: "silver", Medal: intPtr(2), Mark: strPtr("11.90")},
			{ParticipantID: "gold", Medal: intPtr(1), Mark: strPtr("11.80")},
		},
		{
			{ParticipantID: "gold", Medal: intPtr(1), Mark: strPtr("11.80")},
			{ParticipantID: "none", Mark: strPtr("12.40")},
			{ParticipantID: "silver", Medal: intPtr(2), Mark: strPtr("11.90")},
		},
		{
			{ParticipantID: "silver", Medal: intPtr(2), Mark: strPtr("11.90")},
			{ParticipantID: "gold", Medal: intPtr(1), Mark: strPtr("11.80")},
			{ParticipantID: "none", Mark: strPtr("12.40")},
		},
	}
	for i, ps := range inputs {
		SortResults(ps)
		got := []string{ps[0].ParticipantID, ps[1].ParticipantID, ps[2].ParticipantID}
		want := []string{"gold", "silver", "none"}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("input %d: got order %v, want %v", i, got, want)
			}
		}
	}
}

func TestSortResultsOrdersUnmedalledByMarkWithNilMarksLast(t *testing.T) {
	ps := []Participation{
		{ParticipantID: "dnf", Mark: nil},
		{ParticipantID: "slow", Mark: strPtr("13.10")},
		{ParticipantID: "fast", Mark: strPtr("12.05")},
	}
	SortResults(ps)
	if ps[0].ParticipantID != "fast" || ps[1].ParticipantID != "slow" || ps[2].ParticipantID != "dnf" {
		t.Fatalf("unexpected order: %s %s %s", ps[0].ParticipantID, ps[1].ParticipantID, ps[2].ParticipantID)
	}
}

func TestValidMedal(t *testing.T) {
	for m, want := range map[int]bool{0: false, 1: true, 2: true, 3: true, 4: false, -1: false} {
		if got := ValidMedal(m); got != want {
			t.Fatalf("ValidMedal(%d) = %v, want %v", m, got, want)
		}
	}
}

func TestEventStartsAt(t *testing.T) {
	e := Event{StartDay: "2026-04-12", StartTime: "09:30"}
	got, ok := e.StartsAt(time.UTC)
	if !ok {
		t.Fatalf("expected parsable start")
	}
	if want := time.Date(2026, 4, 12, 9, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("StartsAt = %s, want %s", got, want)
	}
	if _, ok := (&Event{StartDay: "12/04/2026", StartTime: "09:30"}).StartsAt(time.UTC); ok {
		t.Fatalf("malformed day should not parse")
	}
}

func TestIsManager(t *testing.T) {
	for role, want := range map[string]bool{
		RoleAdmin: true, RoleLOC: true, RoleVolunteer: false, RoleSecurity: false, RoleAthlete: false,
	} {
		if IsManager(role) != want {
			t.Fatalf("IsManager(%q) != %v", role, want)
		}
	}
}

func TestValidID(t *testing.T) {
	for id, want := range map[string]bool{
		"7b0e2f4c-1111-4d7e-9f00-000000000001": true,
		"abc":                                  false,
		"":                                     false,
		"7b0e2f4c-1111-4d7e-9f00":              false,
	} {
		if ValidID(id) != want {
			t.Fatalf("ValidID(%q) != %v", id, want)
		}
	}
}
