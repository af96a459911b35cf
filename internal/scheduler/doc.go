// Package scheduler runs periodic jobs.
//
// Each Runner owns one job and loops forever: it waits for the startup
// delay, runs a tick, then sleeps for the job's interval (or until the next
// cron fire time) before the next tick. A tick that fails or panics is
// followed by the shorter error backoff instead. Every tick opens its own
// store session, so a failed tick never leaves state behind for the next.
//
// A Supervisor starts one goroutine per Runner under a shared context.
// Runners never share state, so a job stuck in a crash loop only delays
// itself.
package scheduler
