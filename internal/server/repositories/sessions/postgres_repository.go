package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

const selectColumns = `id, principal_id, role, refresh_token_hash, user_agent, ip_address, expires_at, revoked_at, created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (id, principal_id, role, refresh_token_hash, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		s.ID, s.PrincipalID, s.Role, s.RefreshTokenHash, s.UserAgent, s.IPAddress, s.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByTokenHash(ctx context.Context, hash string) (*models.Session, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM sessions
		WHERE refresh_token_hash = $1
	`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, hash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Rotate(ctx context.Context, id, oldHash, newHash string, expiresAt time.Time, meta models.ClientMeta) error {
	query := `
		UPDATE sessions
		SET refresh_token_hash = $3, expires_at = $4, user_agent = $5, ip_address = $6, updated_at = now()
		WHERE id = $1 AND refresh_token_hash = $2 AND revoked_at IS NULL
	`
	n, err := r.exec(ctx, query, id, oldHash, newHash, expiresAt, meta.UserAgent, meta.IPAddress)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, principalID, sessionID string, at time.Time) (int64, error) {
	query := `
		UPDATE sessions
		SET revoked_at = $3, updated_at = $3
		WHERE id = $1 AND principal_id = $2 AND revoked_at IS NULL
	`
	return r.exec(ctx, query, sessionID, principalID, at)
}

func (r *PostgresRepository) RevokeAll(ctx context.Context, principalID string, at time.Time) ([]string, error) {
	query := `
		UPDATE sessions
		SET revoked_at = $2, updated_at = $2
		WHERE principal_id = $1 AND revoked_at IS NULL
		RETURNING id
	`
	rows, err := r.db.QueryContext(ctx, query, principalID, at)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}

func (r *PostgresRepository) ListActive(ctx context.Context, principalID string, now time.Time) ([]*models.Session, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM sessions
		WHERE principal_id = $1 AND revoked_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, principalID, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.Session, error) {
	s := &models.Session{}
	var revokedAt sql.NullTime
	if err := row.Scan(&s.ID, &s.PrincipalID, &s.Role, &s.RefreshTokenHash, &s.UserAgent, &s.IPAddress,
		&s.ExpiresAt, &revokedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		s.RevokedAt = &t
	}
	return s, nil
}
