package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, t *model.PasswordResetToken) error
	// Consume marks a matching unused, unexpired token as used. It returns
	// ErrInvalidOrExpired when no such token exists, so a token works once.
	Consume(ctx context.Context, participantID, tokenHash string, now time.Time) error
}

type pgPasswordResetRepository struct {
	db *sql.DB
}

func NewPgPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &pgPasswordResetRepository{db: db}
}

func (r *pgPasswordResetRepository) Create(ctx context.Context, t *model.PasswordResetToken) error {
	query := `INSERT INTO password_reset_tokens (id, participant_id, token_hash, expires_at, created_at)
	          VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, t.ID, t.ParticipantID, t.TokenHash, t.ExpiresAt, t.CreatedAt); err != nil {
		return fmt.Errorf("pgPasswordResetRepository.Create: %w", err)
	}
	return nil
}

func (r *pgPasswordResetRepository) Consume(ctx context.Context, participantID, tokenHash string, now time.Time) error {
	query := `UPDATE password_reset_tokens SET used_at = $1
	          WHERE participant_id = $2 AND token_hash = $3 AND used_at IS NULL AND expires_at > $1`
	res, err := r.db.ExecContext(ctx, query, now, participantID, tokenHash)
	if err != nil {
		return fmt.Errorf("pgPasswordResetRepository.Consume: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgPasswordResetRepository.Consume rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrInvalidOrExpired
	}
	return nil
}
