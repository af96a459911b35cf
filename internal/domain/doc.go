// Package domain contains the core business entities of the work-tracking
// backend that the background scheduler reads and writes: tasks (including
// recurring definitions and their generated occurrences), notifications,
// users and companies. It is independent of any storage or transport.
package domain
