// Package postgres provides PostgreSQL-specific implementations for the
// storage contracts defined in internal/store: tasks, notifications, users
// and companies, retention and reporting queries, the task number counter
// and the reminder ledger. It also owns the embedded goose migrations and
// the per-tick Session that pins a job tick to one pooled connection.
package postgres
