// Package postgres implements the domain.Store port on PostgreSQL with
// pgvector. Repositories run against a Querier so the same code serves both
// pool-backed and transaction-bound stores.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

// Querier is the minimal subset of pgx shared by pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store bundles the repositories over a shared Querier. A Store built from a
// pool hands out pool-backed repos; WithTx rebinds them to one transaction.
type Store struct {
	q    Querier
	pool *pgxpool.Pool
}

// NewStore constructs a pool-backed Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{q: pool, pool: pool}
}

// Users returns the user repository.
func (s *Store) Users() domain.UserRepository { return &UserRepo{Q: s.q} }

// Jobs returns the job repository.
func (s *Store) Jobs() domain.JobRepository { return &JobRepo{Q: s.q} }

// Resumes returns the resume repository.
func (s *Store) Resumes() domain.ResumeRepository { return &ResumeRepo{Q: s.q} }

// Chunks returns the chunk repository.
func (s *Store) Chunks() domain.ChunkRepository { return &ChunkRepo{Q: s.q} }

// Applications returns the application repository.
func (s *Store) Applications() domain.ApplicationRepository { return &ApplicationRepo{Q: s.q} }

// Chat returns the chat repository.
func (s *Store) Chat() domain.ChatRepository { return &ChatRepo{Q: s.q} }

// WithTx runs fn against a transaction-bound Store. The transaction commits
// when fn returns nil and rolls back otherwise. Nested calls reuse the
// enclosing transaction.
func (s *Store) WithTx(ctx domain.Context, fn func(domain.Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("op=store.begin_tx: %w: %v", domain.ErrPersistence, err)
	}
	if err := fn(&Store{q: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=store.commit_tx: %w: %v", domain.ErrPersistence, err)
	}
	return nil
}
