// Package jobs holds the bodies of the periodic background jobs: recurring
// task generation, due-date reminders, data retention and the weekly
// report.
//
// Every job implements scheduler.Job. Failures affecting a single task,
// recipient or tenant are logged and counted inside the job so the rest of
// the batch still runs; only failures that leave the whole tick without
// effect are returned to the runner, which then retries after its backoff.
package jobs
