package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/soliton-oj/adminserver/types"
)

// AdminRepository handles persistence for admins.
type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// GetByEmail looks up an admin by exact, case-sensitive email.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (types.Admin, error) {
	const query = `
		SELECT id, email, name, password_hash, created_by, created_at
		FROM admins
		WHERE email = $1`
	return scanAdmin(r.db.QueryRowContext(ctx, query, email))
}

func (r *AdminRepository) Create(ctx context.Context, admin types.Admin) (types.Admin, error) {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	admin.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO admins (id, email, name, password_hash, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		admin.ID,
		admin.Email,
		admin.Name,
		admin.PasswordHash,
		admin.CreatedBy,
		admin.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return types.Admin{}, ErrConflict
		}
		return types.Admin{}, err
	}
	return admin, nil
}

// UpsertByEmail creates the admin or, when the email already exists,
// refreshes its name and password hash. Used for seeding.
func (r *AdminRepository) UpsertByEmail(ctx context.Context, admin types.Admin) (types.Admin, error) {
	const query = `
		INSERT INTO admins (id, email, name, password_hash, created_by, created_at)
		VALUES ($1, $2, $3, $4, NULL, $5)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash
		RETURNING id, email, name, password_hash, created_by, created_at`
	return scanAdmin(r.db.QueryRowContext(
		ctx,
		query,
		uuid.NewString(),
		admin.Email,
		admin.Name,
		admin.PasswordHash,
		time.Now().UTC(),
	))
}

// List returns every admin ordered by creation time, oldest first.
func (r *AdminRepository) List(ctx context.Context) ([]types.Admin, error) {
	const query = `
		SELECT id, email, name, password_hash, created_by, created_at
		FROM admins
		ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	admins := make([]types.Admin, 0)
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return admins, nil
}

func (r *AdminRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM admins`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row rowScanner) (types.Admin, error) {
	var admin types.Admin
	var createdBy sql.NullString
	err := row.Scan(
		&admin.ID,
		&admin.Email,
		&admin.Name,
		&admin.PasswordHash,
		&createdBy,
		&admin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Admin{}, ErrNotFound
		}
		return types.Admin{}, err
	}
	if createdBy.Valid {
		admin.CreatedBy = &createdBy.String
	}
	return admin, nil
}
