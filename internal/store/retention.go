package store

import (
	"context"
	"fmt"
	"time"
)

// PurgeEntity names a table whose soft-deleted rows are eligible for purge.
type PurgeEntity string

const (
	PurgeTasks    PurgeEntity = "tasks"
	PurgeUsers    PurgeEntity = "users"
	PurgeClients  PurgeEntity = "clients"
	PurgeProjects PurgeEntity = "projects"
)

// PurgeEntities is the order in which the retention sweep purges entities.
// Tasks go first so that projects and users they reference become eligible.
var PurgeEntities = []PurgeEntity{PurgeTasks, PurgeProjects, PurgeClients, PurgeUsers}

// Validate reports whether e is a known purge target.
func (e PurgeEntity) Validate() error {
	switch e {
	case PurgeTasks, PurgeUsers, PurgeClients, PurgeProjects:
		return nil
	}
	return fmt.Errorf("%w: unknown purge entity %q", ErrInvalidEntity, string(e))
}

// RetentionStore performs bulk deletions for the retention sweep.
type RetentionStore interface {
	// DeleteOrphanAttachments removes attachments whose owning task no longer exists
	// or has been soft-deleted.
	DeleteOrphanAttachments(ctx context.Context) (int64, error)

	// PurgeSoftDeleted hard-deletes rows soft-deleted before cutoff that no
	// live row still references.
	PurgeSoftDeleted(ctx context.Context, entity PurgeEntity, cutoff time.Time) (int64, error)
}
