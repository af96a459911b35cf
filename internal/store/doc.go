// Package store defines the persistence contracts the scheduler consumes:
// task, notification, user, company, retention and reporting stores, the
// tenant-scoped number allocator, the reminder ledger, and the per-tick
// Session that bundles them. Implementations live under internal/platform.
package store
