package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
)

type InvitationRepository interface {
	Create(ctx context.Context, inv *model.Invitation) error
	List(ctx context.Context) ([]model.Invitation, error)
	// FindPendingByEmail only matches invitations not yet used to register.
	FindPendingByEmail(ctx context.Context, email string) (*model.Invitation, error)
	MarkRegistered(ctx context.Context, email string) error
	Delete(ctx context.Context, id string) error
}

type pgInvitationRepository struct {
	db *sql.DB
}

func NewPgInvitationRepository(db *sql.DB) InvitationRepository {
	return &pgInvitationRepository{db: db}
}

func (r *pgInvitationRepository) Create(ctx context.Context, inv *model.Invitation) error {
	query := `INSERT INTO invitations (id, email, role_id, invited_by, invited_on, registered)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, inv.ID, inv.Email, inv.RoleID, inv.InvitedBy, inv.InvitedOn, inv.Registered)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("email already invited: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgInvitationRepository.Create: %w", err)
	}
	return nil
}

func (r *pgInvitationRepository) List(ctx context.Context) ([]model.Invitation, error) {
	query := `
	    SELECT i.id, i.email, i.role_id, i.invited_by, p.first_name, p.last_name, i.invited_on, i.registered
	    FROM invitations i
	    LEFT JOIN participants p ON p.id = i.invited_by
	    ORDER BY i.invited_on DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgInvitationRepository.List: %w", err)
	}
	defer rows.Close()

	invitations := []model.Invitation{}
	for rows.Next() {
		var inv model.Invitation
		if err := rows.Scan(&inv.ID, &inv.Email, &inv.RoleID, &inv.InvitedBy, &inv.InvitedByFirst,
			&inv.InvitedByLast, &inv.InvitedOn, &inv.Registered); err != nil {
			return nil, fmt.Errorf("pgInvitationRepository.List scan: %w", err)
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (r *pgInvitationRepository) FindPendingByEmail(ctx context.Context, email string) (*model.Invitation, error) {
	query := `SELECT id, email, role_id, invited_by, invited_on, registered
	          FROM invitations WHERE email = $1 AND registered = FALSE`
	inv := &model.Invitation{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&inv.ID, &inv.Email, &inv.RoleID, &inv.InvitedBy, &inv.InvitedOn, &inv.Registered,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgInvitationRepository.FindPendingByEmail: %w", err)
	}
	return inv, nil
}

func (r *pgInvitationRepository) MarkRegistered(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE invitations SET registered = TRUE WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("pgInvitationRepository.MarkRegistered: %w", err)
	}
	return nil
}

func (r *pgInvitationRepository) Delete(ctx context.Context, id string) error {
	if !model.ValidID(id) {
		return common.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgInvitationRepository.Delete: %w", err)
	}
	return expectAffected(res, "pgInvitationRepository.Delete")
}
