package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

// UserRepo persists and loads users.
type UserRepo struct{ Q Querier }

// UpsertByExternalID inserts a user on first sight and returns the stored
// row. An existing user keeps its original role.
func (r *UserRepo) UpsertByExternalID(ctx domain.Context, externalID string, role domain.Role) (domain.User, error) {
	tracer := otel.Tracer("repo.users")
	ctx, span := tracer.Start(ctx, "users.UpsertByExternalID")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "users"),
	)
	q := `INSERT INTO users (external_id, role) VALUES ($1, $2)
	      ON CONFLICT (external_id) DO UPDATE SET external_id = EXCLUDED.external_id
	      RETURNING id, external_id, role, created_at`
	row := r.Q.QueryRow(ctx, q, externalID, role)
	var u domain.User
	if err := row.Scan(&u.ID, &u.ExternalID, &u.Role, &u.CreatedAt); err != nil {
		return domain.User{}, fmt.Errorf("op=users.upsert: %w", err)
	}
	return u, nil
}

// GetByExternalID loads a user by external id.
func (r *UserRepo) GetByExternalID(ctx domain.Context, externalID string) (domain.User, error) {
	tracer := otel.Tracer("repo.users")
	ctx, span := tracer.Start(ctx, "users.GetByExternalID")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
	)
	q := `SELECT id, external_id, role, created_at FROM users WHERE external_id = $1`
	row := r.Q.QueryRow(ctx, q, externalID)
	var u domain.User
	if err := row.Scan(&u.ID, &u.ExternalID, &u.Role, &u.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return domain.User{}, fmt.Errorf("op=users.get: %w", domain.ErrNotFound)
		}
		return domain.User{}, fmt.Errorf("op=users.get: %w", err)
	}
	return u, nil
}
