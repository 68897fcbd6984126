package postgres

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

// ChunkRepo persists document chunks and runs nearest-neighbor queries
// against their pgvector embeddings.
type ChunkRepo struct{ Q Querier }

// InsertJobChunks stores the chunk sequence of a job description.
func (r *ChunkRepo) InsertJobChunks(ctx domain.Context, jobID string, chunks []domain.Chunk) error {
	return r.insert(ctx, "job_chunks", "job_id", jobID, chunks)
}

// InsertResumeChunks stores the chunk sequence of a resume.
func (r *ChunkRepo) InsertResumeChunks(ctx domain.Context, resumeID string, chunks []domain.Chunk) error {
	return r.insert(ctx, "resume_chunks", "resume_id", resumeID, chunks)
}

func (r *ChunkRepo) insert(ctx domain.Context, table, ownerCol, ownerID string, chunks []domain.Chunk) error {
	tracer := otel.Tracer("repo.chunks")
	ctx, span := tracer.Start(ctx, "chunks.Insert")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", table),
		attribute.Int("chunks.count", len(chunks)),
	)
	q := fmt.Sprintf(`INSERT INTO %s (%s, idx, content, embedding) VALUES ($1,$2,$3,$4::vector)`, table, ownerCol)
	for _, c := range chunks {
		if _, err := r.Q.Exec(ctx, q, ownerID, c.Index, c.Content, encodeVector(c.Embedding)); err != nil {
			return fmt.Errorf("op=chunks.insert table=%s: %w", table, err)
		}
	}
	return nil
}

// NearestJobChunks returns the k job chunks closest to the query embedding,
// distance ascending.
func (r *ChunkRepo) NearestJobChunks(ctx domain.Context, jobID string, query []float32, k int) ([]domain.ScoredChunk, error) {
	return r.nearest(ctx, "job_chunks", "job_id", jobID, query, k)
}

// NearestResumeChunks returns the k resume chunks closest to the query
// embedding, distance ascending.
func (r *ChunkRepo) NearestResumeChunks(ctx domain.Context, resumeID string, query []float32, k int) ([]domain.ScoredChunk, error) {
	return r.nearest(ctx, "resume_chunks", "resume_id", resumeID, query, k)
}

func (r *ChunkRepo) nearest(ctx domain.Context, table, ownerCol, ownerID string, query []float32, k int) ([]domain.ScoredChunk, error) {
	tracer := otel.Tracer("repo.chunks")
	ctx, span := tracer.Start(ctx, "chunks.Nearest")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", table),
	)
	q := fmt.Sprintf(`SELECT id, content, embedding <-> $2::vector AS distance
	      FROM %s WHERE %s = $1 ORDER BY distance ASC LIMIT $3`, table, ownerCol)
	rows, err := r.Q.Query(ctx, q, ownerID, encodeVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("op=chunks.nearest table=%s: %w", table, err)
	}
	defer rows.Close()
	var out []domain.ScoredChunk
	for rows.Next() {
		var sc domain.ScoredChunk
		if err := rows.Scan(&sc.ID, &sc.Content, &sc.Distance); err != nil {
			return nil, fmt.Errorf("op=chunks.nearest table=%s: %w", table, err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=chunks.nearest table=%s: %w", table, err)
	}
	return out, nil
}
