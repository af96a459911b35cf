package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/worktrack/internal/platform/logger"
	"github.com/phrazzld/worktrack/internal/store"
)

// purgeQueries hard-delete soft-deleted rows older than $1 that no live row
// still references. Keys are fixed table names, never user input.
var purgeQueries = map[store.PurgeEntity]string{
	store.PurgeTasks: `
		DELETE FROM tasks t
		WHERE t.deleted_at IS NOT NULL AND t.deleted_at < $1
			AND NOT EXISTS (
				SELECT 1 FROM tasks c WHERE c.parent_task_id = t.id AND c.deleted_at IS NULL
			)`,
	store.PurgeProjects: `
		DELETE FROM projects p
		WHERE p.deleted_at IS NOT NULL AND p.deleted_at < $1
			AND NOT EXISTS (
				SELECT 1 FROM tasks t WHERE t.project_id = p.id AND t.deleted_at IS NULL
			)`,
	store.PurgeClients: `
		DELETE FROM clients cl
		WHERE cl.deleted_at IS NOT NULL AND cl.deleted_at < $1
			AND NOT EXISTS (
				SELECT 1 FROM projects p WHERE p.client_id = cl.id AND p.deleted_at IS NULL
			)`,
	store.PurgeUsers: `
		DELETE FROM users u
		WHERE u.deleted_at IS NOT NULL AND u.deleted_at < $1
			AND NOT EXISTS (
				SELECT 1 FROM tasks t
				WHERE (t.assigned_to = u.id OR t.created_by = u.id)
			)`,
}

// PostgresRetentionStore implements store.RetentionStore.
type PostgresRetentionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRetentionStore creates a retention store over db.
func NewPostgresRetentionStore(db store.DBTX, logger *slog.Logger) *PostgresRetentionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRetentionStore{
		db:     db,
		logger: logger.With(slog.String("component", "retention_store")),
	}
}

var _ store.RetentionStore = (*PostgresRetentionStore)(nil)

// DeleteOrphanAttachments implements store.RetentionStore.DeleteOrphanAttachments
func (s *PostgresRetentionStore) DeleteOrphanAttachments(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM attachments a
		WHERE a.task_id IS NULL
			OR NOT EXISTS (
				SELECT 1 FROM tasks t WHERE t.id = a.task_id AND t.deleted_at IS NULL
			)
	`
	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, MapError(err)
	}
	return result.RowsAffected()
}

// PurgeSoftDeleted implements store.RetentionStore.PurgeSoftDeleted
func (s *PostgresRetentionStore) PurgeSoftDeleted(
	ctx context.Context,
	entity store.PurgeEntity,
	cutoff time.Time,
) (int64, error) {
	if err := entity.Validate(); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, purgeQueries[entity], cutoff)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to purge soft-deleted rows",
			slog.String("entity", string(entity)),
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	return result.RowsAffected()
}
