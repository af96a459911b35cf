package email

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/worktrack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderNotification(t *testing.T) {
	r, err := NewRenderer("https://app.example.com/")
	require.NoError(t, err)

	taskID := uuid.New()
	n := &domain.Notification{
		ID:                uuid.New(),
		Title:             "Task overdue: TSK-2025-0007",
		Message:           "Ship <release> notes is overdue",
		Type:              domain.NotificationTaskOverdue,
		RelatedEntityType: "task",
		RelatedEntityID:   &taskID,
	}
	user := &domain.User{FullName: "Ada Lovelace", Email: "ada@example.com"}

	subject, body, err := r.RenderNotification(n, user)
	require.NoError(t, err)

	assert.Equal(t, "Task overdue: TSK-2025-0007", subject)
	assert.Contains(t, body, "Hi Ada Lovelace,")
	assert.Contains(t, body, "Ship &lt;release&gt; notes is overdue")
	assert.Contains(t, body, "https://app.example.com/tasks/"+taskID.String())
}

func TestRenderNotification_NoLinkWithoutBaseURL(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)

	taskID := uuid.New()
	n := &domain.Notification{Title: "Assigned", Message: "m", RelatedEntityType: "task", RelatedEntityID: &taskID}

	_, body, err := r.RenderNotification(n, &domain.User{Email: "bob@example.com"})
	require.NoError(t, err)
	assert.NotContains(t, body, "/tasks/")
	assert.Contains(t, body, "Hi bob@example.com,")
}

func TestRenderWeeklyReport(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)

	end := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	metrics := &domain.CompanyMetrics{
		CompanyName:    "Acme",
		PeriodStart:    end.AddDate(0, 0, -7),
		PeriodEnd:      end,
		TasksCreated:   8,
		TasksCompleted: 6,
		TasksOverdue:   1,
		ActiveProjects: 2,
		ActiveUsers:    4,
		TopPerformers: []domain.PerformerStat{
			{FullName: "Grace Hopper", CompletedCount: 4},
		},
		UpcomingDeadlines: []domain.DeadlineItem{
			{TaskNumber: "TSK-2025-0011", Title: "Quarterly review", DueDate: end.AddDate(0, 0, 2), AssigneeName: "Grace Hopper"},
		},
	}

	subject, body, err := r.RenderWeeklyReport(metrics, &domain.User{FullName: "Admin"})
	require.NoError(t, err)

	assert.Equal(t, "Weekly report: Acme", subject)
	assert.Contains(t, body, "Mon, 03 Mar 2025")
	assert.Contains(t, body, "75%")
	assert.Contains(t, body, "Grace Hopper: 4 completed")
	assert.Contains(t, body, "TSK-2025-0011 Quarterly review, due Wed, 12 Mar 2025 (Grace Hopper)")
	assert.Contains(t, body, "member of Acme")
}

func TestRenderWeeklyReport_EmptySections(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)

	_, body, err := r.RenderWeeklyReport(&domain.CompanyMetrics{CompanyName: "Empty"}, &domain.User{FullName: "Admin"})
	require.NoError(t, err)
	assert.Contains(t, body, "No tasks were completed this week.")
	assert.Contains(t, body, "Nothing is due in the next seven days.")
	assert.Contains(t, body, "0%")
}
