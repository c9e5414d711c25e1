package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LOSS98/tunis-gp/internal/domain/model"
)

// WaterRepository is append-only. Entries reference a bib, not a participant
// id, so history survives bib reassignment exactly as recorded.
type WaterRepository interface {
	Create(ctx context.Context, e *model.WaterEntry) error
	List(ctx context.Context) ([]model.WaterEntry, error)
	ListByBib(ctx context.Context, bib string) ([]model.WaterEntry, error)
	ListByCountry(ctx context.Context, country string) ([]model.WaterEntry, error)
	CountryTotals(ctx context.Context) ([]model.CountryWaterTotal, error)
}

type pgWaterRepository struct {
	db *sql.DB
}

func NewPgWaterRepository(db *sql.DB) WaterRepository {
	return &pgWaterRepository{db: db}
}

func (r *pgWaterRepository) Create(ctx context.Context, e *model.WaterEntry) error {
	query := `INSERT INTO water_history (id, participant_bib, bottles_taken, taken_from, taken_at)
	          VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, e.ID, e.ParticipantBib, e.BottlesTaken, e.TakenFrom, e.TakenAt); err != nil {
		return fmt.Errorf("pgWaterRepository.Create: %w", err)
	}
	return nil
}

const waterSelect = `
	SELECT w.id, w.participant_bib, w.bottles_taken, w.taken_from, w.taken_at,
	       p.first_name, p.last_name, p.country, s.first_name, s.last_name
	FROM water_history w
	LEFT JOIN participants p ON p.bib = w.participant_bib
	LEFT JOIN participants s ON s.id = w.taken_from`

func (r *pgWaterRepository) list(ctx context.Context, op, where string, args ...any) ([]model.WaterEntry, error) {
	rows, err := r.db.QueryContext(ctx, waterSelect+where+` ORDER BY w.taken_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("pgWaterRepository.%s: %w", op, err)
	}
	defer rows.Close()

	entries := []model.WaterEntry{}
	for rows.Next() {
		var e model.WaterEntry
		if err := rows.Scan(&e.ID, &e.ParticipantBib, &e.BottlesTaken, &e.TakenFrom, &e.TakenAt,
			&e.FirstName, &e.LastName, &e.Country, &e.StaffFirstName, &e.StaffLastName); err != nil {
			return nil, fmt.Errorf("pgWaterRepository.%s scan: %w", op, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgWaterRepository.%s rows: %w", op, err)
	}
	return entries, nil
}

func (r *pgWaterRepository) List(ctx context.Context) ([]model.WaterEntry, error) {
	return r.list(ctx, "List", "")
}

func (r *pgWaterRepository) ListByBib(ctx context.Context, bib string) ([]model.WaterEntry, error) {
	return r.list(ctx, "ListByBib", ` WHERE w.participant_bib = $1`, bib)
}

func (r *pgWaterRepository) ListByCountry(ctx context.Context, country string) ([]model.WaterEntry, error) {
	return r.list(ctx, "ListByCountry", ` WHERE p.country = $1`, country)
}

func (r *pgWaterRepository) CountryTotals(ctx context.Context) ([]model.CountryWaterTotal, error) {
	query := `
	    SELECT p.country, COUNT(DISTINCT p.id), COALESCE(SUM(w.bottles_taken), 0)
	    FROM participants p
	    LEFT JOIN water_history w ON w.participant_bib = p.bib
	    WHERE p.country IS NOT NULL AND p.bib IS NOT NULL
	    GROUP BY p.country
	    ORDER BY p.country`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgWaterRepository.CountryTotals: %w", err)
	}
	defer rows.Close()

	totals := []model.CountryWaterTotal{}
	for rows.Next() {
		var t model.CountryWaterTotal
		if err := rows.Scan(&t.Country, &t.ParticipantCount, &t.TotalBottles); err != nil {
			return nil, fmt.Errorf("pgWaterRepository.CountryTotals scan: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
