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

const (
	participantsEmailKey = "participants_email_key"
	participantsBibKey   = "participants_bib_key"
)

type ParticipantRepository interface {
	Create(ctx context.Context, p *model.Participant) error
	FindByID(ctx context.Context, id string) (*model.Participant, error)
	FindByEmail(ctx context.Context, email string) (*model.Participant, error)
	FindByBib(ctx context.Context, bib string) (*model.Participant, error)
	List(ctx context.Context) ([]model.Participant, error)
	ListByRole(ctx context.Context, roleID int) ([]model.Participant, error)
	ListByCountry(ctx context.Context, country string) ([]model.Participant, error)
	// ListBibHolders returns participants with a bib, optionally restricted to one country.
	ListBibHolders(ctx context.Context, country string) ([]model.Participant, error)
	Update(ctx context.Context, id string, u model.ParticipantUpdate) error
	UpdatePassword(ctx context.Context, id, hashedPassword string) error
	TouchLastConnection(ctx context.Context, id string, at time.Time) error
}

type pgParticipantRepository struct {
	db *sql.DB
}

func NewPgParticipantRepository(db *sql.DB) ParticipantRepository {
	return &pgParticipantRepository{db: db}
}

const participantColumns = `
	p.id, p.bib, p.first_name, p.last_name, p.email, p.password, p.country, p.class,
	p.profile_picture, p.role_id, r.name, p.created_by, p.created_on, p.last_connection`

const participantFrom = ` FROM participants p JOIN roles r ON r.id = p.role_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row rowScanner) (*model.Participant, error) {
	p := &model.Participant{}
	err := row.Scan(
		&p.ID, &p.Bib, &p.FirstName, &p.LastName, &p.Email, &p.HashedPassword, &p.Country, &p.Class,
		&p.ProfilePicture, &p.RoleID, &p.Role, &p.CreatedBy, &p.CreatedOn, &p.LastConnection,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// participantConflict turns a unique violation into ErrConflict naming the duplicated field.
func participantConflict(err error) error {
	switch common.UniqueConstraint(err) {
	case participantsEmailKey:
		return fmt.Errorf("email already in use: %w", common.ErrConflict)
	case participantsBibKey:
		return fmt.Errorf("bib already in use: %w", common.ErrConflict)
	case "":
		return nil
	default:
		return fmt.Errorf("participant already exists: %w", common.ErrConflict)
	}
}

func (r *pgParticipantRepository) Create(ctx context.Context, p *model.Participant) error {
	query := `INSERT INTO participants (id, bib, first_name, last_name, email, password, country, class,
	                                    profile_picture, role_id, created_by, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Bib, p.FirstName, p.LastName, p.Email, p.HashedPassword, p.Country, p.Class,
		p.ProfilePicture, p.RoleID, p.CreatedBy, p.CreatedOn,
	)
	if err != nil {
		if cerr := participantConflict(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("pgParticipantRepository.Create: %w", err)
	}
	return nil
}

func (r *pgParticipantRepository) findOne(ctx context.Context, op, where string, arg any) (*model.Participant, error) {
	query := `SELECT` + participantColumns + participantFrom + ` WHERE ` + where
	p, err := scanParticipant(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgParticipantRepository.%s: %w", op, err)
	}
	return p, nil
}

func (r *pgParticipantRepository) FindByID(ctx context.Context, id string) (*model.Participant, error) {
	if !model.ValidID(id) {
		return nil, common.ErrNotFound
	}
	return r.findOne(ctx, "FindByID", "p.id = $1", id)
}

func (r *pgParticipantRepository) FindByEmail(ctx context.Context, email string) (*model.Participant, error) {
	return r.findOne(ctx, "FindByEmail", "p.email = $1", email)
}

func (r *pgParticipantRepository) FindByBib(ctx context.Context, bib string) (*model.Participant, error) {
	return r.findOne(ctx, "FindByBib", "p.bib = $1", bib)
}

func (r *pgParticipantRepository) list(ctx context.Context, op, where string, args ...any) ([]model.Participant, error) {
	query := `SELECT` + participantColumns + participantFrom
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY p.last_name, p.first_name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgParticipantRepository.%s: %w", op, err)
	}
	defer rows.Close()

	participants := []model.Participant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("pgParticipantRepository.%s scan: %w", op, err)
		}
		participants = append(participants, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgParticipantRepository.%s rows: %w", op, err)
	}
	return participants, nil
}

func (r *pgParticipantRepository) List(ctx context.Context) ([]model.Participant, error) {
	return r.list(ctx, "List", "")
}

func (r *pgParticipantRepository) ListByRole(ctx context.Context, roleID int) ([]model.Participant, error) {
	return r.list(ctx, "ListByRole", "p.role_id = $1", roleID)
}

func (r *pgParticipantRepository) ListByCountry(ctx context.Context, country string) ([]model.Participant, error) {
	return r.list(ctx, "ListByCountry", "p.country = $1", country)
}

func (r *pgParticipantRepository) ListBibHolders(ctx context.Context, country string) ([]model.Participant, error) {
	if country == "" {
		return r.list(ctx, "ListBibHolders", "p.bib IS NOT NULL")
	}
	return r.list(ctx, "ListBibHolders", "p.bib IS NOT NULL AND p.country = $1", country)
}

func (r *pgParticipantRepository) Update(ctx context.Context, id string, u model.ParticipantUpdate) error {
	if !model.ValidID(id) {
		return common.ErrNotFound
	}
	query := `UPDATE participants SET
	            first_name      = COALESCE($1, first_name),
	            last_name       = COALESCE($2, last_name),
	            email           = COALESCE($3, email),
	            bib             = COALESCE($4, bib),
	            country         = COALESCE($5, country),
	            class           = COALESCE($6, class),
	            role_id         = COALESCE($7, role_id),
	            profile_picture = COALESCE($8, profile_picture)
	          WHERE id = $9`
	res, err := r.db.ExecContext(ctx, query,
		u.FirstName, u.LastName, u.Email, u.Bib, u.Country, u.Class, u.RoleID, u.ProfilePicture, id,
	)
	if err != nil {
		if cerr := participantConflict(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("pgParticipantRepository.Update: %w", err)
	}
	return expectAffected(res, "pgParticipantRepository.Update")
}

func (r *pgParticipantRepository) UpdatePassword(ctx context.Context, id, hashedPassword string) error {
	if !model.ValidID(id) {
		return common.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `UPDATE participants SET password = $1 WHERE id = $2`, hashedPassword, id)
	if err != nil {
		return fmt.Errorf("pgParticipantRepository.UpdatePassword: %w", err)
	}
	return expectAffected(res, "pgParticipantRepository.UpdatePassword")
}

func (r *pgParticipantRepository) TouchLastConnection(ctx context.Context, id string, at time.Time) error {
	if !model.ValidID(id) {
		return common.ErrNotFound
	}
	_, err := r.db.ExecContext(ctx, `UPDATE participants SET last_connection = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("pgParticipantRepository.TouchLastConnection: %w", err)
	}
	return nil
}

// expectAffected maps a zero-row write to ErrNotFound.
func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
