// Package mocks provides in-memory implementations of the store contracts
// and delivery channels for use in tests.
//
// The stores behave like their Postgres counterparts for the filters and
// ownership rules the jobs depend on. Each exposes error fields so a test
// can make a single operation fail:
//
//	tasks := mocks.NewTaskStore()
//	tasks.CreateErr = func(t *domain.Task) error { return store.ErrTaskNumberTaken }
//
// Session and SessionFactory bundle the stores so that a scheduler tick can
// be exercised without a database. Transactions are not isolated: InTx runs
// its function against the same stores.
package mocks
