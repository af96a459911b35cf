package recurrence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time { return &t }

func definition() *domain.Task {
	created := date(2025, 1, 1)
	assignee := uuid.New()
	est := 45
	return &domain.Task{
		ID:                uuid.New(),
		CompanyID:         uuid.New(),
		Title:             "Weekly backup check",
		Description:       "Verify last night's backup restored cleanly",
		Status:            domain.TaskStatusTodo,
		Priority:          domain.TaskPriorityHigh,
		Category:          "ops",
		EstimatedMinutes:  &est,
		AssignedTo:        &assignee,
		CreatedBy:         uuid.New(),
		IsRecurring:       true,
		RecurrencePattern: `{"type":"weekly","interval":1}`,
		CreatedAt:         created,
		UpdatedAt:         created,
	}
}

func TestAdvanceAnchor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		anchor time.Time
		p      Pattern
		want   time.Time
	}{
		{"daily", date(2025, 3, 10), Pattern{Frequency: Daily, Interval: 1}, date(2025, 3, 11)},
		{"every 3 days across month", date(2025, 3, 30), Pattern{Frequency: Daily, Interval: 3}, date(2025, 4, 2)},
		{"weekly", date(2025, 3, 10), Pattern{Frequency: Weekly, Interval: 1}, date(2025, 3, 17)},
		{"biweekly", date(2025, 3, 10), Pattern{Frequency: Weekly, Interval: 2}, date(2025, 3, 24)},
		{"monthly", date(2025, 3, 10), Pattern{Frequency: Monthly, Interval: 1}, date(2025, 4, 10)},
		{"monthly clamps to february", date(2025, 1, 31), Pattern{Frequency: Monthly, Interval: 1}, date(2025, 2, 28)},
		{"monthly clamps to leap february", date(2024, 1, 31), Pattern{Frequency: Monthly, Interval: 1}, date(2024, 2, 29)},
		{"monthly clamps to 30 day month", date(2025, 3, 31), Pattern{Frequency: Monthly, Interval: 1}, date(2025, 4, 30)},
		{"quarterly across year", date(2025, 11, 15), Pattern{Frequency: Monthly, Interval: 3}, date(2026, 2, 15)},
		{"fourteen months", date(2025, 12, 31), Pattern{Frequency: Monthly, Interval: 14}, date(2027, 2, 28)},
		{"yearly", date(2025, 6, 1), Pattern{Frequency: Yearly, Interval: 1}, date(2026, 6, 1)},
		{"yearly from leap day", date(2024, 2, 29), Pattern{Frequency: Yearly, Interval: 1}, date(2025, 2, 28)},
		{"every 4 years from leap day", date(2024, 2, 29), Pattern{Frequency: Yearly, Interval: 4}, date(2028, 2, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AdvanceAnchor(tt.anchor, tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdvanceAnchor_UnknownFrequencyIsError(t *testing.T) {
	t.Parallel()

	_, err := AdvanceAnchor(date(2025, 1, 1), Pattern{Frequency: "hourly", Interval: 1})
	assert.ErrorIs(t, err, ErrUnknownFrequency)

	_, err = AdvanceAnchor(date(2025, 1, 1), Pattern{Frequency: Daily, Interval: 0})
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestAdvanceAnchor_MonotonicProgress(t *testing.T) {
	t.Parallel()

	starts := []time.Time{
		date(2023, 1, 31),
		date(2024, 2, 29),
		date(2024, 12, 31),
		time.Date(2025, 3, 30, 23, 59, 59, 0, time.UTC),
	}

	for _, freq := range []Frequency{Daily, Weekly, Monthly, Yearly} {
		for interval := 1; interval <= 13; interval++ {
			p := Pattern{Frequency: freq, Interval: interval}
			for _, start := range starts {
				anchor := start
				for step := 0; step < 40; step++ {
					next, err := AdvanceAnchor(anchor, p)
					require.NoError(t, err)
					require.Truef(t, next.After(anchor),
						"%s/%d from %s: step %d went from %s to %s", freq, interval, start, step, anchor, next)
					anchor = next
				}
			}
		}
	}
}

func TestShouldFire_FirstOccurrence(t *testing.T) {
	t.Parallel()

	now := date(2025, 5, 1)
	p := Pattern{Frequency: Weekly, Interval: 1}

	def := definition()
	fire, err := ShouldFire(def, p, now)
	require.NoError(t, err)
	assert.True(t, fire, "no start date fires immediately")

	def.StartDate = timePtr(now.Add(-time.Hour))
	fire, err = ShouldFire(def, p, now)
	require.NoError(t, err)
	assert.True(t, fire, "start date in the past fires")

	def.StartDate = timePtr(now)
	fire, err = ShouldFire(def, p, now)
	require.NoError(t, err)
	assert.True(t, fire, "start date equal to now fires")

	def.StartDate = timePtr(now.Add(time.Hour))
	fire, err = ShouldFire(def, p, now)
	require.NoError(t, err)
	assert.False(t, fire, "start date in the future waits")
}

func TestShouldFire_WeeklyEightDaysAgo(t *testing.T) {
	t.Parallel()

	now := date(2025, 5, 20)
	def := definition()
	def.OccurrenceCount = 1
	def.LastGeneratedAt = timePtr(now.AddDate(0, 0, -8))

	p, err := ParsePattern(`{"type":"weekly","interval":1}`)
	require.NoError(t, err)

	fire, err := ShouldFire(def, p, now)
	require.NoError(t, err)
	assert.True(t, fire)

	occ := NextOccurrence(def, now, 7)
	require.NotNil(t, occ.StartDate)
	assert.Equal(t, now, *occ.StartDate)
}

func TestShouldFire_NotYetDue(t *testing.T) {
	t.Parallel()

	now := date(2025, 5, 20)
	def := definition()
	def.OccurrenceCount = 2
	def.LastGeneratedAt = timePtr(now.AddDate(0, 0, -6))

	fire, err := ShouldFire(def, Pattern{Frequency: Weekly, Interval: 1}, now)
	require.NoError(t, err)
	assert.False(t, fire)

	// exactly one step later is due
	fire, err = ShouldFire(def, Pattern{Frequency: Weekly, Interval: 1}, def.LastGeneratedAt.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.True(t, fire)
}

func TestShouldFire_FallsBackToUpdatedAt(t *testing.T) {
	t.Parallel()

	now := date(2025, 5, 20)
	def := definition()
	def.OccurrenceCount = 1
	def.UpdatedAt = now.AddDate(0, 0, -2)

	fire, err := ShouldFire(def, Pattern{Frequency: Daily, Interval: 1}, now)
	require.NoError(t, err)
	assert.True(t, fire)

	def.UpdatedAt = now.Add(-time.Hour)
	fire, err = ShouldFire(def, Pattern{Frequency: Daily, Interval: 1}, now)
	require.NoError(t, err)
	assert.False(t, fire)
}

func TestShouldFire_MaxOccurrencesReached(t *testing.T) {
	t.Parallel()

	now := date(2025, 5, 20)
	def := definition()
	def.OccurrenceCount = 3
	def.LastGeneratedAt = timePtr(now.AddDate(-1, 0, 0))

	p, err := ParsePattern(`{"type":"daily","interval":1,"maxOccurrences":3}`)
	require.NoError(t, err)

	fire, err := ShouldFire(def, p, now)
	require.NoError(t, err)
	assert.False(t, fire, "exhausted definitions never fire regardless of elapsed time")

	def.OccurrenceCount = 2
	fire, err = ShouldFire(def, p, now)
	require.NoError(t, err)
	assert.True(t, fire)
}

func TestShouldFire_PastEndDate(t *testing.T) {
	t.Parallel()

	now := date(2025, 5, 20)
	def := definition()
	def.OccurrenceCount = 1
	def.LastGeneratedAt = timePtr(now.AddDate(0, 0, -30))

	p := Pattern{Frequency: Daily, Interval: 1, EndDate: timePtr(now.Add(-time.Minute))}
	fire, err := ShouldFire(def, p, now)
	require.NoError(t, err)
	assert.False(t, fire)

	// first occurrence is also blocked after the end date
	fresh := definition()
	fire, err = ShouldFire(fresh, p, now)
	require.NoError(t, err)
	assert.False(t, fire)

	p.EndDate = timePtr(now)
	fire, err = ShouldFire(def, p, now)
	require.NoError(t, err)
	assert.True(t, fire, "end date is inclusive")
}

func TestShouldFire_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := ShouldFire(nil, Pattern{Frequency: Daily, Interval: 1}, time.Now())
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ShouldFire(definition(), Pattern{Frequency: "sometimes", Interval: 1}, time.Now())
	assert.ErrorIs(t, err, ErrUnknownFrequency)
}

func TestNextOccurrence_CopiesTemplate(t *testing.T) {
	t.Parallel()

	now := date(2025, 7, 4)
	def := definition()
	project := uuid.New()
	def.ProjectID = &project

	occ := NextOccurrence(def, now, 42)

	assert.NotEqual(t, def.ID, occ.ID)
	assert.Equal(t, def.CompanyID, occ.CompanyID)
	assert.Equal(t, "TSK-2025-0042", occ.TaskNumber)
	assert.Equal(t, def.Title, occ.Title)
	assert.Equal(t, def.Description, occ.Description)
	assert.Equal(t, def.Priority, occ.Priority)
	assert.Equal(t, def.Category, occ.Category)
	assert.Equal(t, *def.EstimatedMinutes, *occ.EstimatedMinutes)
	assert.Equal(t, *def.AssignedTo, *occ.AssignedTo)
	assert.Equal(t, project, *occ.ProjectID)
	assert.Equal(t, def.CreatedBy, occ.CreatedBy)
	assert.Equal(t, domain.TaskStatusTodo, occ.Status)
	assert.False(t, occ.IsRecurring)
	require.NotNil(t, occ.ParentTaskID)
	assert.Equal(t, def.ID, *occ.ParentTaskID)
	assert.NoError(t, occ.Validate())

	// copies are independent of the definition
	*occ.AssignedTo = uuid.New()
	assert.NotEqual(t, *def.AssignedTo, *occ.AssignedTo)
}

func TestNextOccurrence_DueDate(t *testing.T) {
	t.Parallel()

	now := date(2025, 7, 4)

	t.Run("preserves duration", func(t *testing.T) {
		def := definition()
		def.StartDate = timePtr(date(2025, 1, 6))
		def.DueDate = timePtr(date(2025, 1, 8).Add(3 * time.Hour))

		occ := NextOccurrence(def, now, 1)
		require.NotNil(t, occ.StartDate)
		require.NotNil(t, occ.DueDate)
		assert.Equal(t, now, *occ.StartDate)
		assert.Equal(t, def.DueDate.Sub(*def.StartDate), occ.DueDate.Sub(*occ.StartDate))
	})

	t.Run("missing start leaves due unset", func(t *testing.T) {
		def := definition()
		def.DueDate = timePtr(date(2025, 1, 8))
		occ := NextOccurrence(def, now, 1)
		assert.Nil(t, occ.DueDate)
	})

	t.Run("missing due leaves due unset", func(t *testing.T) {
		def := definition()
		def.StartDate = timePtr(date(2025, 1, 8))
		occ := NextOccurrence(def, now, 1)
		assert.Nil(t, occ.DueDate)
	})
}

func TestNextDue(t *testing.T) {
	t.Parallel()

	def := definition()
	p := Pattern{Frequency: Monthly, Interval: 1}

	next, ok, err := NextDue(def, p)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, def.CreatedAt, next)

	def.OccurrenceCount = 1
	def.LastGeneratedAt = timePtr(date(2025, 1, 31))
	next, ok, err = NextDue(def, p)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, date(2025, 2, 28), next)

	p.EndDate = timePtr(date(2025, 2, 1))
	_, ok, err = NextDue(def, p)
	require.NoError(t, err)
	assert.False(t, ok)

	p.EndDate = nil
	p.MaxOccurrences = intPtr(1)
	_, ok, err = NextDue(def, p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNextDue_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	_, _, err := NextDue(nil, Pattern{Frequency: Daily, Interval: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = NextDue(definition(), Pattern{Frequency: "hourly", Interval: 1})
	assert.ErrorIs(t, err, ErrUnknownFrequency)
}
