package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/worktrack/internal/store"
)

// SessionFactory opens sessions pinned to a dedicated pooled connection.
type SessionFactory struct {
	db      *sql.DB
	logger  *slog.Logger
	numbers store.NumberAllocator
}

// SessionOption customizes a SessionFactory.
type SessionOption func(*SessionFactory)

// WithNumberAllocator makes sessions hand out task numbers from a, e.g. a
// Redis counter, instead of the number_sequences table.
func WithNumberAllocator(a store.NumberAllocator) SessionOption {
	return func(f *SessionFactory) {
		f.numbers = a
	}
}

// NewSessionFactory creates a factory drawing connections from db.
func NewSessionFactory(db *sql.DB, logger *slog.Logger, opts ...SessionOption) *SessionFactory {
	if logger == nil {
		logger = slog.Default()
	}
	f := &SessionFactory{db: db, logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var _ store.SessionFactory = (*SessionFactory)(nil)

// Open implements store.SessionFactory.Open
func (f *SessionFactory) Open(ctx context.Context) (store.Session, error) {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &session{
		q:       conn,
		conn:    conn,
		logger:  f.logger,
		numbers: f.numbers,
	}, nil
}

// session binds every store to one querier: the dedicated connection, or a
// transaction opened on it by InTx.
type session struct {
	q       store.DBTX
	conn    *sql.Conn
	tx      *sql.Tx
	logger  *slog.Logger
	numbers store.NumberAllocator

	closeOnce sync.Once
	closeErr  error
}

func (s *session) Tasks() store.TaskStore {
	return NewPostgresTaskStore(s.q, s.logger)
}

func (s *session) Notifications() store.NotificationStore {
	return NewPostgresNotificationStore(s.q, s.logger)
}

func (s *session) Users() store.UserStore {
	return NewPostgresUserStore(s.q, s.logger)
}

func (s *session) Companies() store.CompanyStore {
	return NewPostgresCompanyStore(s.q)
}

func (s *session) Retention() store.RetentionStore {
	return NewPostgresRetentionStore(s.q, s.logger)
}

func (s *session) Reports() store.ReportStore {
	return NewPostgresReportStore(s.q)
}

func (s *session) Numbers() store.NumberAllocator {
	if s.numbers != nil {
		return s.numbers
	}
	return NewPostgresNumberAllocator(s.q)
}

func (s *session) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Session) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}
	if s.conn == nil {
		return store.ErrSessionClosed
	}
	return store.RunInTransaction(ctx, s.conn, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &session{
			q:       tx,
			conn:    s.conn,
			tx:      tx,
			logger:  s.logger,
			numbers: s.numbers,
		})
	})
}

// Close returns the connection to the pool. Transactional sessions do not
// own the connection and close nothing.
func (s *session) Close() error {
	if s.tx != nil {
		return nil
	}
	s.closeOnce.Do(func() {
		if s.conn != nil {
			s.closeErr = s.conn.Close()
		}
	})
	return s.closeErr
}
