package store

import "context"

// Session bundles the stores one job tick works with. Sessions are not
// shared between ticks or goroutines: each tick opens its own and closes
// it when done.
type Session interface {
	Tasks() TaskStore
	Notifications() NotificationStore
	Users() UserStore
	Companies() CompanyStore
	Retention() RetentionStore
	Reports() ReportStore
	Numbers() NumberAllocator

	// InTx runs fn against a Session whose stores share a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	// Calling InTx on a transactional session runs fn in the same transaction.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Session) error) error

	// Close releases the session's resources. Closing twice is a no-op.
	Close() error
}

// SessionFactory opens sessions.
type SessionFactory interface {
	Open(ctx context.Context) (Session, error)
}

// SessionFactoryFunc adapts a function to SessionFactory.
type SessionFactoryFunc func(ctx context.Context) (Session, error)

// Open calls f.
func (f SessionFactoryFunc) Open(ctx context.Context) (Session, error) {
	return f(ctx)
}
