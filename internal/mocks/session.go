package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/worktrack/internal/store"
)

// Stores groups the in-memory stores shared by every Session a
// SessionFactory opens, the way every Postgres session shares one database.
type Stores struct {
	Tasks         *TaskStore
	Notifications *NotificationStore
	Users         *UserStore
	Companies     *CompanyStore
	Retention     *RetentionStore
	Reports       *ReportStore
	Numbers       *NumberAllocator
}

// NewStores creates empty stores.
func NewStores() *Stores {
	return &Stores{
		Tasks:         NewTaskStore(),
		Notifications: NewNotificationStore(),
		Users:         NewUserStore(),
		Companies:     &CompanyStore{},
		Retention:     &RetentionStore{},
		Reports:       &ReportStore{},
		Numbers:       NewNumberAllocator(),
	}
}

// Session is a store.Session over Stores.
type Session struct {
	stores *Stores

	// InTxErr, when set, is returned by InTx without running fn.
	InTxErr error

	mu      sync.Mutex
	txCalls int
	closed  bool
}

// NewSession creates a session over stores.
func NewSession(stores *Stores) *Session {
	return &Session{stores: stores}
}

var _ store.Session = (*Session)(nil)

func (s *Session) Tasks() store.TaskStore                 { return s.stores.Tasks }
func (s *Session) Notifications() store.NotificationStore { return s.stores.Notifications }
func (s *Session) Users() store.UserStore                 { return s.stores.Users }
func (s *Session) Companies() store.CompanyStore          { return s.stores.Companies }
func (s *Session) Retention() store.RetentionStore        { return s.stores.Retention }
func (s *Session) Reports() store.ReportStore             { return s.stores.Reports }
func (s *Session) Numbers() store.NumberAllocator         { return s.stores.Numbers }

// InTx runs fn against the same session.
func (s *Session) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Session) error) error {
	if s.InTxErr != nil {
		return s.InTxErr
	}
	s.mu.Lock()
	s.txCalls++
	s.mu.Unlock()
	return fn(ctx, s)
}

// Close marks the session closed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// TxCalls returns how many times InTx ran.
func (s *Session) TxCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCalls
}

// SessionFactory opens a new Session over shared Stores for every call.
type SessionFactory struct {
	Stores *Stores

	// OpenErr, when set, fails every Open.
	OpenErr error

	mu       sync.Mutex
	sessions []*Session
}

// NewSessionFactory creates a factory over fresh stores.
func NewSessionFactory() *SessionFactory {
	return &SessionFactory{Stores: NewStores()}
}

var _ store.SessionFactory = (*SessionFactory)(nil)

// Open implements store.SessionFactory.
func (f *SessionFactory) Open(context.Context) (store.Session, error) {
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	s := NewSession(f.Stores)
	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()
	return s, nil
}

// Sessions returns every session opened so far.
func (f *SessionFactory) Sessions() []*Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Session(nil), f.sessions...)
}
