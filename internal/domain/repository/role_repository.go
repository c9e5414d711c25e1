package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
)

type RoleRepository interface {
	List(ctx context.Context) ([]model.Role, error)
	FindByID(ctx context.Context, id int) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
}

type pgRoleRepository struct {
	db *sql.DB
}

func NewPgRoleRepository(db *sql.DB) RoleRepository {
	return &pgRoleRepository{db: db}
}

func (r *pgRoleRepository) List(ctx context.Context) ([]model.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("pgRoleRepository.List: %w", err)
	}
	defer rows.Close()

	roles := []model.Role{}
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("pgRoleRepository.List scan: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *pgRoleRepository) FindByID(ctx context.Context, id int) (*model.Role, error) {
	role := &model.Role{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE id = $1`, id).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgRoleRepository.FindByID: %w", err)
	}
	return role, nil
}

func (r *pgRoleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	role := &model.Role{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE name = $1`, name).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgRoleRepository.FindByName: %w", err)
	}
	return role, nil
}
