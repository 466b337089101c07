package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// BatchJobRepositoryPG implements domain.BatchJobRegistry on PostgreSQL. It
// exists purely so operators can list what a deployment has submitted; the
// backend remains the source of truth for batch state.
type BatchJobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewBatchJobRepository creates a new batch job registry backed by PostgreSQL.
func NewBatchJobRepository(pool *pgxpool.Pool) *BatchJobRepositoryPG {
	return &BatchJobRepositoryPG{pool: pool}
}

// Record inserts a submitted batch. Re-recording the same id is a no-op.
func (r *BatchJobRepositoryPG) Record(ctx context.Context, job domain.BatchJob) error {
	query := `
INSERT INTO batch_jobs (id, aspect_ratio, item_count)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO NOTHING;
`
	_, err := r.pool.Exec(ctx, query, job.ID, string(job.AspectRatio), job.ItemCount)
	return err
}

// List returns the most recently submitted batches, newest first.
func (r *BatchJobRepositoryPG) List(ctx context.Context, limit int) ([]domain.BatchJob, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
SELECT id, aspect_ratio, item_count, created_at
FROM batch_jobs
ORDER BY created_at DESC
LIMIT $1;
`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.BatchJob
	for rows.Next() {
		var job domain.BatchJob
		var aspect string
		if err := rows.Scan(&job.ID, &aspect, &job.ItemCount, &job.CreatedAt); err != nil {
			return nil, err
		}
		job.AspectRatio = domain.AspectRatio(aspect)
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

var _ domain.BatchJobRegistry = (*BatchJobRepositoryPG)(nil)
