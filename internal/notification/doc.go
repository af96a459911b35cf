// Package notification delivers user notifications through every channel
// the user can be reached on.
//
// Notify persists a notification, pushes it to the user's live connections
// and, for task assignments and overdue tasks, mails it. Only the persist
// step can fail the call: the stored row is what the user sees on their
// next fetch, so push and email failures are logged and dropped.
package notification
