package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"

	"github.com/lib/pq"
)

// EventRepository works with day ("2006-01-02") and clock ("15:04") strings,
// the same shape the API exposes.
type EventRepository interface {
	Create(ctx context.Context, e *model.Event) error
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	ListByDate(ctx context.Context, day string) ([]model.Event, error)
	ListByClass(ctx context.Context, class string) ([]model.Event, error)
	ListPublishedStartLists(ctx context.Context) ([]model.Event, error)
	ListPublishedResults(ctx context.Context) ([]model.Event, error)
	// ListUpcoming returns events starting at or after day/clock, soonest first.
	// A non-positive limit returns all of them.
	ListUpcoming(ctx context.Context, day, clock string, limit int) ([]model.Event, error)
	UpcomingForParticipant(ctx context.Context, participantID, day, clock string, limit int) ([]model.UpcomingEvent, error)
}

type pgEventRepository struct {
	db *sql.DB
}

func NewPgEventRepository(db *sql.DB) EventRepository {
	return &pgEventRepository{db: db}
}

const eventColumns = `
	e.id, e.slug, to_char(e.start_day, 'YYYY-MM-DD'), to_char(e.start_time, 'HH24:MI'), e.classes,
	e.discipline, e.gender, e.phase, e.remarks, e.area, e.start_list_path_pdf, e.results_path_pdf,
	e.publish_start_list, e.publish_results, e.created_at`

const upcomingCondition = `(e.start_day > $1::date OR (e.start_day = $1::date AND e.start_time >= $2::time))`

func scanEvent(row rowScanner) (*model.Event, error) {
	e := &model.Event{}
	err := row.Scan(
		&e.ID, &e.Slug, &e.StartDay, &e.StartTime, pq.Array(&e.Classes),
		&e.Discipline, &e.Gender, &e.Phase, &e.Remarks, &e.Area, &e.StartListPathPDF, &e.ResultsPathPDF,
		&e.PublishStartList, &e.PublishResults, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if e.Classes == nil {
		e.Classes = []string{}
	}
	return e, nil
}

func (r *pgEventRepository) Create(ctx context.Context, e *model.Event) error {
	query := `INSERT INTO events (id, slug, start_day, start_time, classes, discipline, gender, phase, remarks,
	                              area, start_list_path_pdf, results_path_pdf, publish_start_list, publish_results, created_at)
	          VALUES ($1, $2, $3::date, $4::time, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Slug, e.StartDay, e.StartTime, pq.Array(e.Classes), e.Discipline, e.Gender, e.Phase, e.Remarks,
		e.Area, e.StartListPathPDF, e.ResultsPathPDF, e.PublishStartList, e.PublishResults, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("pgEventRepository.Create: %w", err)
	}
	return nil
}

func (r *pgEventRepository) Update(ctx context.Context, e *model.Event) error {
	if !model.ValidID(e.ID) {
		return common.ErrNotFound
	}
	query := `UPDATE events SET
	            slug = $1, start_day = $2::date, start_time = $3::time, classes = $4, discipline = $5,
	            gender = $6, phase = $7, remarks = $8, area = $9, start_list_path_pdf = $10,
	            results_path_pdf = $11, publish_start_list = $12, publish_results = $13
	          WHERE id = $14`
	res, err := r.db.ExecContext(ctx, query,
		e.Slug, e.StartDay, e.StartTime, pq.Array(e.Classes), e.Discipline,
		e.Gender, e.Phase, e.Remarks, e.Area, e.StartListPathPDF,
		e.ResultsPathPDF, e.PublishStartList, e.PublishResults, e.ID,
	)
	if err != nil {
		return fmt.Errorf("pgEventRepository.Update: %w", err)
	}
	return expectAffected(res, "pgEventRepository.Update")
}

func (r *pgEventRepository) Delete(ctx context.Context, id string) error {
	if !model.ValidID(id) {
		return common.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgEventRepository.Delete: %w", err)
	}
	return expectAffected(res, "pgEventRepository.Delete")
}

func (r *pgEventRepository) FindByID(ctx context.Context, id string) (*model.Event, error) {
	if !model.ValidID(id) {
		return nil, common.ErrNotFound
	}
	query := `SELECT` + eventColumns + ` FROM events e WHERE e.id = $1`
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgEventRepository.FindByID: %w", err)
	}
	return e, nil
}

func (r *pgEventRepository) list(ctx context.Context, op, tail string, args ...any) ([]model.Event, error) {
	query := `SELECT` + eventColumns + ` FROM events e ` + tail
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgEventRepository.%s: %w", op, err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("pgEventRepository.%s scan: %w", op, err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgEventRepository.%s rows: %w", op, err)
	}
	return events, nil
}

const chronological = ` ORDER BY e.start_day, e.start_time`

func (r *pgEventRepository) List(ctx context.Context) ([]model.Event, error) {
	return r.list(ctx, "List", chronological)
}

func (r *pgEventRepository) ListByDate(ctx context.Context, day string) ([]model.Event, error) {
	return r.list(ctx, "ListByDate", `WHERE e.start_day = $1::date`+chronological, day)
}

func (r *pgEventRepository) ListByClass(ctx context.Context, class string) ([]model.Event, error) {
	return r.list(ctx, "ListByClass", `WHERE $1 = ANY(e.classes)`+chronological, class)
}

func (r *pgEventRepository) ListPublishedStartLists(ctx context.Context) ([]model.Event, error) {
	return r.list(ctx, "ListPublishedStartLists", `WHERE e.publish_start_list`+chronological)
}

func (r *pgEventRepository) ListPublishedResults(ctx context.Context) ([]model.Event, error) {
	return r.list(ctx, "ListPublishedResults", `WHERE e.publish_results`+chronological)
}

func (r *pgEventRepository) ListUpcoming(ctx context.Context, day, clock string, limit int) ([]model.Event, error) {
	return r.list(ctx, "ListUpcoming", `WHERE `+upcomingCondition+chronological+` LIMIT $3`, day, clock, limitArg(limit))
}

// limitArg maps a non-positive limit to NULL, which Postgres treats as no limit.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func (r *pgEventRepository) UpcomingForParticipant(ctx context.Context, participantID, day, clock string, limit int) ([]model.UpcomingEvent, error) {
	if !model.ValidID(participantID) {
		return []model.UpcomingEvent{}, nil
	}
	query := `
	    SELECT e.id, e.discipline, e.phase, e.gender,
	           to_char(e.start_day, 'YYYY-MM-DD'), to_char(e.start_time, 'HH24:MI'), e.area
	    FROM participations pa
	    JOIN events e ON e.id = pa.event_id
	    WHERE ` + upcomingCondition + ` AND pa.participant_id = $3` + chronological + `
	    LIMIT $4`
	rows, err := r.db.QueryContext(ctx, query, day, clock, participantID, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("pgEventRepository.UpcomingForParticipant: %w", err)
	}
	defer rows.Close()

	events := []model.UpcomingEvent{}
	for rows.Next() {
		var ue model.UpcomingEvent
		if err := rows.Scan(&ue.ID, &ue.Discipline, &ue.Phase, &ue.Gender, &ue.StartDay, &ue.StartTime, &ue.Area); err != nil {
			return nil, fmt.Errorf("pgEventRepository.UpcomingForParticipant scan: %w", err)
		}
		events = append(events, ue)
	}
	return events, rows.Err()
}
