// Package testdb provides helpers for PostgreSQL integration tests: locating
// the test database, applying the embedded migrations, per-test transaction
// isolation and seeding of tenants, users and tasks.
package testdb
