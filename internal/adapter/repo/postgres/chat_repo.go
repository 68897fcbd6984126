package postgres

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

// ChatRepo persists conversation turns.
type ChatRepo struct{ Q Querier }

// AppendExchange writes a user question and the assistant answer. Callers
// run it inside Store.WithTx so the pair lands atomically.
func (r *ChatRepo) AppendExchange(ctx domain.Context, applicationID, question, answer string) error {
	tracer := otel.Tracer("repo.chat")
	ctx, span := tracer.Start(ctx, "chat.AppendExchange")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "chat_messages"),
	)
	q := `INSERT INTO chat_messages (application_id, role, content) VALUES ($1,$2,$3)`
	if _, err := r.Q.Exec(ctx, q, applicationID, domain.ChatRoleUser, question); err != nil {
		return fmt.Errorf("op=chat.append: %w", err)
	}
	if _, err := r.Q.Exec(ctx, q, applicationID, domain.ChatRoleAssistant, answer); err != nil {
		return fmt.Errorf("op=chat.append: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit turns, newest first.
func (r *ChatRepo) RecentTurns(ctx domain.Context, applicationID string, limit int) ([]domain.ChatTurn, error) {
	q := `SELECT id, application_id, role, content, created_at
	      FROM chat_messages WHERE application_id = $1
	      ORDER BY created_at DESC LIMIT $2`
	return r.queryTurns(ctx, "chat.RecentTurns", q, applicationID, limit)
}

// History returns turns in chronological order with limit/offset paging.
func (r *ChatRepo) History(ctx domain.Context, applicationID string, limit, offset int) ([]domain.ChatTurn, error) {
	q := `SELECT id, application_id, role, content, created_at
	      FROM chat_messages WHERE application_id = $1
	      ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	return r.queryTurns(ctx, "chat.History", q, applicationID, limit, offset)
}

func (r *ChatRepo) queryTurns(ctx domain.Context, op, q string, args ...any) ([]domain.ChatTurn, error) {
	tracer := otel.Tracer("repo.chat")
	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "chat_messages"),
	)
	rows, err := r.Q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("op=%s: %w", op, err)
	}
	defer rows.Close()
	var out []domain.ChatTurn
	for rows.Next() {
		var t domain.ChatTurn
		if err := rows.Scan(&t.ID, &t.ApplicationID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=%s: %w", op, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=%s: %w", op, err)
	}
	return out, nil
}
