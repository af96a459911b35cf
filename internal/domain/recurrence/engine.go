package recurrence

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
)

// AdvanceAnchor returns the next due time after anchor under p.
//
// Monthly and yearly steps are calendar steps with the day of month clamped
// to the length of the target month (Jan 31 + 1 month = Feb 28/29, Feb 29 +
// 1 year = Feb 28). The result is always strictly after anchor for a valid
// pattern. An unknown frequency is an error rather than a silent default.
func AdvanceAnchor(anchor time.Time, p Pattern) (time.Time, error) {
	if p.Interval < 1 {
		return time.Time{}, fmt.Errorf("%w: got %d", ErrInvalidInterval, p.Interval)
	}

	switch p.Frequency {
	case Daily:
		return anchor.AddDate(0, 0, p.Interval), nil
	case Weekly:
		return anchor.AddDate(0, 0, 7*p.Interval), nil
	case Monthly:
		return addMonthsClamped(anchor, p.Interval), nil
	case Yearly:
		return addMonthsClamped(anchor, 12*p.Interval), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownFrequency, p.Frequency)
	}
}

// ShouldFire reports whether def is due to spawn a new occurrence at now.
//
// Termination rules are checked first: past EndDate, or once
// OccurrenceCount reaches MaxOccurrences, the definition never fires again.
// With no prior occurrence the definition fires once its StartDate (if any)
// has passed. Otherwise it fires when the anchor advanced by one step is not
// after now; the anchor is LastGeneratedAt, falling back to UpdatedAt.
func ShouldFire(def *domain.Task, p Pattern, now time.Time) (bool, error) {
	if def == nil {
		return false, fmt.Errorf("%w: nil definition", domain.ErrValidation)
	}
	if err := p.Validate(); err != nil {
		return false, err
	}

	if p.EndDate != nil && now.After(*p.EndDate) {
		return false, nil
	}
	if p.MaxOccurrences != nil && def.OccurrenceCount >= *p.MaxOccurrences {
		return false, nil
	}

	if def.OccurrenceCount == 0 && def.LastGeneratedAt == nil {
		return def.StartDate == nil || !def.StartDate.After(now), nil
	}

	nextDue, err := AdvanceAnchor(lastAnchor(def), p)
	if err != nil {
		return false, err
	}
	return !nextDue.After(now), nil
}

// NextDue returns when def will next fire, or false when the pattern has
// terminated. It is informational; ShouldFire is authoritative.
func NextDue(def *domain.Task, p Pattern) (time.Time, bool, error) {
	if def == nil {
		return time.Time{}, false, fmt.Errorf("%w: nil definition", domain.ErrValidation)
	}
	if err := p.Validate(); err != nil {
		return time.Time{}, false, err
	}
	if p.MaxOccurrences != nil && def.OccurrenceCount >= *p.MaxOccurrences {
		return time.Time{}, false, nil
	}

	var next time.Time
	if def.OccurrenceCount == 0 && def.LastGeneratedAt == nil {
		if def.StartDate == nil {
			next = def.CreatedAt
		} else {
			next = *def.StartDate
		}
	} else {
		var err error
		next, err = AdvanceAnchor(lastAnchor(def), p)
		if err != nil {
			return time.Time{}, false, err
		}
	}

	if p.EndDate != nil && next.After(*p.EndDate) {
		return time.Time{}, false, nil
	}
	return next, true, nil
}

// NextOccurrence builds the occurrence def spawns at now, numbered seq within
// the tenant and now's year.
//
// Template fields are copied verbatim. StartDate is now; DueDate preserves
// the definition's start-to-due duration and is left nil when either
// original date is missing.
func NextOccurrence(def *domain.Task, now time.Time, seq int) *domain.Task {
	parentID := def.ID
	occ := &domain.Task{
		ID:           uuid.New(),
		CompanyID:    def.CompanyID,
		ProjectID:    copyUUID(def.ProjectID),
		TaskNumber:   domain.FormatTaskNumber(now.Year(), seq),
		Title:        def.Title,
		Description:  def.Description,
		Status:       domain.TaskStatusTodo,
		Priority:     def.Priority,
		Category:     def.Category,
		AssignedTo:   copyUUID(def.AssignedTo),
		CreatedBy:    def.CreatedBy,
		ParentTaskID: &parentID,
		IsRecurring:  false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if def.EstimatedMinutes != nil {
		est := *def.EstimatedMinutes
		occ.EstimatedMinutes = &est
	}

	start := now
	occ.StartDate = &start
	if def.StartDate != nil && def.DueDate != nil {
		due := now.Add(def.DueDate.Sub(*def.StartDate))
		occ.DueDate = &due
	}
	return occ
}

func lastAnchor(def *domain.Task) time.Time {
	if def.LastGeneratedAt != nil {
		return *def.LastGeneratedAt
	}
	return def.UpdatedAt
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + months
	ty := y + total/12
	tm := time.Month(total%12 + 1)
	if last := daysIn(tm, ty); d > last {
		d = last
	}
	return time.Date(ty, tm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in month m of year y.
func daysIn(m time.Month, y int) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
