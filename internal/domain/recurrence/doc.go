// Package recurrence decides when a recurring task definition is due to
// spawn a new occurrence and computes that occurrence's fields.
//
// Everything here is a pure function of its inputs: no clock, no store, no
// logging. Callers pass "now" explicitly, which keeps the rules testable
// without wall-clock dependence.
package recurrence
