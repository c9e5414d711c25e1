package repository

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/LOSS98/tunis-gp/internal/common"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestParticipantConflictNamesField(t *testing.T) {
	tests := []struct {
		constraint string
		wantText   string
	}{
		{participantsEmailKey, "email"},
		{participantsBibKey, "bib"},
		{"participants_pkey", "participant already exists"},
	}
	for _, tt := range tests {
		err := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})
		got := participantConflict(err)
		if !errors.Is(got, common.ErrConflict) {
			t.Fatalf("%s: expected ErrConflict, got %v", tt.constraint, got)
		}
		if !strings.Contains(got.Error(), tt.wantText) {
			t.Fatalf("%s: message %q should mention %q", tt.constraint, got.Error(), tt.wantText)
		}
	}
}

func TestParticipantConflictIgnoresOtherErrors(t *testing.T) {
	if err := participantConflict(errors.New("connection reset")); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := participantConflict(&pgconn.PgError{Code: "23503"}); err != nil {
		t.Fatalf("foreign key violation is not a conflict, got %v", err)
	}
}

type fakeResult struct{ n int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.n, nil }

func TestExpectAffected(t *testing.T) {
	if err := expectAffected(fakeResult{n: 0}, "op"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("zero rows should be ErrNotFound, got %v", err)
	}
	if err := expectAffected(fakeResult{n: 1}, "op"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
