package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
)

type ParticipationRepository interface {
	Create(ctx context.Context, p *model.Participation) error
	Find(ctx context.Context, participantID, eventID string) (*model.Participation, error)
	List(ctx context.Context) ([]model.Participation, error)
	ListByParticipant(ctx context.Context, participantID string) ([]model.Participation, error)
	// ListByEvent orders by medal ascending with unmedalled last, then by mark.
	ListByEvent(ctx context.Context, eventID string) ([]model.Participation, error)
	ListMedalists(ctx context.Context, eventID string) ([]model.Participation, error)
	// UpdateResult overwrites the non-nil fields of u, nulls the cleared ones
	// and stamps added_by/added_on.
	UpdateResult(ctx context.Context, participantID, eventID string, u model.ResultUpdate, by *string, at time.Time) error
	Delete(ctx context.Context, participantID, eventID string) error
}

type pgParticipationRepository struct {
	db *sql.DB
}

func NewPgParticipationRepository(db *sql.DB) ParticipationRepository {
	return &pgParticipationRepository{db: db}
}

func (r *pgParticipationRepository) Create(ctx context.Context, p *model.Participation) error {
	if !model.ValidID(p.ParticipantID) || !model.ValidID(p.EventID) {
		return common.ErrNotFound
	}
	query := `INSERT INTO participations (participant_id, event_id, mark, medal, added_by, added_on)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, p.ParticipantID, p.EventID, p.Mark, p.Medal, p.AddedBy, p.AddedOn)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("participant already registered for this event: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgParticipationRepository.Create: %w", err)
	}
	return nil
}

func (r *pgParticipationRepository) Find(ctx context.Context, participantID, eventID string) (*model.Participation, error) {
	if !model.ValidID(participantID) || !model.ValidID(eventID) {
		return nil, common.ErrNotFound
	}
	query := `SELECT participant_id, event_id, mark, medal, added_by, added_on
	          FROM participations WHERE participant_id = $1 AND event_id = $2`
	p := &model.Participation{}
	err := r.db.QueryRowContext(ctx, query, participantID, eventID).Scan(
		&p.ParticipantID, &p.EventID, &p.Mark, &p.Medal, &p.AddedBy, &p.AddedOn,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgParticipationRepository.Find: %w", err)
	}
	return p, nil
}

func (r *pgParticipationRepository) List(ctx context.Context) ([]model.Participation, error) {
	query := `SELECT participant_id, event_id, mark, medal, added_by, added_on
	          FROM participations ORDER BY added_on DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgParticipationRepository.List: %w", err)
	}
	defer rows.Close()

	out := []model.Participation{}
	for rows.Next() {
		var p model.Participation
		if err := rows.Scan(&p.ParticipantID, &p.EventID, &p.Mark, &p.Medal, &p.AddedBy, &p.AddedOn); err != nil {
			return nil, fmt.Errorf("pgParticipationRepository.List scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgParticipationRepository) ListByParticipant(ctx context.Context, participantID string) ([]model.Participation, error) {
	if !model.ValidID(participantID) {
		return []model.Participation{}, nil
	}
	query := `
	    SELECT pa.participant_id, pa.event_id, pa.mark, pa.medal, pa.added_by, pa.added_on,
	           e.discipline, e.phase, e.gender, to_char(e.start_day, 'YYYY-MM-DD'), to_char(e.start_time, 'HH24:MI')
	    FROM participations pa
	    JOIN events e ON e.id = pa.event_id
	    WHERE pa.participant_id = $1
	    ORDER BY e.start_day, e.start_time`
	rows, err := r.db.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("pgParticipationRepository.ListByParticipant: %w", err)
	}
	defer rows.Close()

	out := []model.Participation{}
	for rows.Next() {
		var p model.Participation
		if err := rows.Scan(&p.ParticipantID, &p.EventID, &p.Mark, &p.Medal, &p.AddedBy, &p.AddedOn,
			&p.Discipline, &p.Phase, &p.Gender, &p.StartDay, &p.StartTime); err != nil {
			return nil, fmt.Errorf("pgParticipationRepository.ListByParticipant scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgParticipationRepository) listForEvent(ctx context.Context, op, where string, eventID string) ([]model.Participation, error) {
	if !model.ValidID(eventID) {
		return []model.Participation{}, nil
	}
	query := `
	    SELECT pa.participant_id, pa.event_id, pa.mark, pa.medal, pa.added_by, pa.added_on,
	           p.first_name, p.last_name, p.bib, p.country, p.class
	    FROM participations pa
	    JOIN participants p ON p.id = pa.participant_id
	    WHERE pa.event_id = $1` + where + `
	    ORDER BY pa.medal ASC NULLS LAST, pa.mark ASC NULLS LAST`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("pgParticipationRepository.%s: %w", op, err)
	}
	defer rows.Close()

	out := []model.Participation{}
	for rows.Next() {
		var p model.Participation
		if err := rows.Scan(&p.ParticipantID, &p.EventID, &p.Mark, &p.Medal, &p.AddedBy, &p.AddedOn,
			&p.FirstName, &p.LastName, &p.Bib, &p.Country, &p.Class); err != nil {
			return nil, fmt.Errorf("pgParticipationRepository.%s scan: %w", op, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgParticipationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Participation, error) {
	return r.listForEvent(ctx, "ListByEvent", "", eventID)
}

func (r *pgParticipationRepository) ListMedalists(ctx context.Context, eventID string) ([]model.Participation, error) {
	return r.listForEvent(ctx, "ListMedalists", " AND pa.medal IS NOT NULL", eventID)
}

func (r *pgParticipationRepository) UpdateResult(ctx context.Context, participantID, eventID string, u model.ResultUpdate, by *string, at time.Time) error {
	if !model.ValidID(participantID) || !model.ValidID(eventID) {
		return common.ErrNotFound
	}
	query := `UPDATE participations SET
	            mark     = CASE WHEN $3 THEN NULL ELSE COALESCE($1, mark) END,
	            medal    = CASE WHEN $4 THEN NULL ELSE COALESCE($2, medal) END,
	            added_by = $5,
	            added_on = $6
	          WHERE participant_id = $7 AND event_id = $8`
	res, err := r.db.ExecContext(ctx, query, u.Mark, u.Medal, u.ClearMark, u.ClearMedal, by, at, participantID, eventID)
	if err != nil {
		return fmt.Errorf("pgParticipationRepository.UpdateResult: %w", err)
	}
	return expectAffected(res, "pgParticipationRepository.UpdateResult")
}

func (r *pgParticipationRepository) Delete(ctx context.Context, participantID, eventID string) error {
	if !model.ValidID(participantID) || !model.ValidID(eventID) {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM participations WHERE participant_id = $1 AND event_id = $2`, participantID, eventID)
	if err != nil {
		return fmt.Errorf("pgParticipationRepository.Delete: %w", err)
	}
	return nil
}
