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

// IdentificationRepository stores QR tokens. Validity is always judged against
// the caller's clock, never the database's.
type IdentificationRepository interface {
	Create(ctx context.Context, code *model.IdentificationCode) error
	// FindValid returns ErrInvalidOrExpired when the token is unknown or valid_till <= now.
	FindValid(ctx context.Context, token string, now time.Time) (*model.IdentifiedParticipant, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type pgIdentificationRepository struct {
	db *sql.DB
}

func NewPgIdentificationRepository(db *sql.DB) IdentificationRepository {
	return &pgIdentificationRepository{db: db}
}

func (r *pgIdentificationRepository) Create(ctx context.Context, code *model.IdentificationCode) error {
	query := `INSERT INTO identification_codes (token, participant_id, valid_till) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, code.Token, code.ParticipantID, code.ValidTill); err != nil {
		return fmt.Errorf("pgIdentificationRepository.Create: %w", err)
	}
	return nil
}

func (r *pgIdentificationRepository) FindValid(ctx context.Context, token string, now time.Time) (*model.IdentifiedParticipant, error) {
	query := `
	    SELECT p.id, p.bib, p.first_name, p.last_name, p.email, p.profile_picture,
	           p.country, p.class, r.name, ic.valid_till
	    FROM identification_codes ic
	    JOIN participants p ON p.id = ic.participant_id
	    JOIN roles r ON r.id = p.role_id
	    WHERE ic.token = $1 AND ic.valid_till > $2`

	ip := &model.IdentifiedParticipant{}
	err := r.db.QueryRowContext(ctx, query, token, now).Scan(
		&ip.ParticipantID, &ip.Bib, &ip.FirstName, &ip.LastName, &ip.Email, &ip.ProfilePicture,
		&ip.Country, &ip.Class, &ip.Role, &ip.ValidTill,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrInvalidOrExpired
		}
		return nil, fmt.Errorf("pgIdentificationRepository.FindValid: %w", err)
	}
	return ip, nil
}

func (r *pgIdentificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM identification_codes WHERE valid_till <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("pgIdentificationRepository.DeleteExpired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pgIdentificationRepository.DeleteExpired rows affected: %w", err)
	}
	return n, nil
}
