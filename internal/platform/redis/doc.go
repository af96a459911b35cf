// Package redis provides go-redis backed implementations of the task number
// allocator and the reminder ledger, for deployments that already run Redis
// and want those hot counters off the primary database.
package redis
