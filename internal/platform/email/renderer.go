package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/phrazzld/worktrack/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.UTC().Format("Mon, 02 Jan 2006")
	},
	"percent": func(v float64) string {
		return fmt.Sprintf("%.0f%%", v)
	},
}

// Renderer turns notifications and report metrics into mail subjects and
// HTML bodies. Templates are parsed once at construction.
type Renderer struct {
	notification *template.Template
	report       *template.Template
	baseURL      string
}

// NewRenderer parses the embedded templates. baseURL, when set, is used to
// build links back to the related task.
func NewRenderer(baseURL string) (*Renderer, error) {
	notification, err := parse("notification.html")
	if err != nil {
		return nil, err
	}
	report, err := parse("weekly_report.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{
		notification: notification,
		report:       report,
		baseURL:      strings.TrimRight(baseURL, "/"),
	}, nil
}

func parse(name string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email template %s: %w", name, err)
	}
	return tmpl, nil
}

type notificationData struct {
	Subject      string
	CompanyName  string
	Recipient    string
	Notification *domain.Notification
	Link         string
}

// RenderNotification renders the mail copy of a notification for recipient.
func (r *Renderer) RenderNotification(n *domain.Notification, recipient *domain.User) (subject, body string, err error) {
	subject = n.Title
	data := notificationData{
		Subject:      subject,
		Recipient:    recipient.DisplayName(),
		Notification: n,
	}
	if r.baseURL != "" && n.RelatedEntityType == "task" && n.RelatedEntityID != nil {
		data.Link = r.baseURL + "/tasks/" + n.RelatedEntityID.String()
	}

	body, err = execute(r.notification, data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

type reportData struct {
	Subject     string
	CompanyName string
	Recipient   string
	Metrics     *domain.CompanyMetrics
}

// RenderWeeklyReport renders the weekly summary of metrics for an admin.
func (r *Renderer) RenderWeeklyReport(metrics *domain.CompanyMetrics, recipient *domain.User) (subject, body string, err error) {
	subject = fmt.Sprintf("Weekly report: %s", metrics.CompanyName)
	body, err = execute(r.report, reportData{
		Subject:     subject,
		CompanyName: metrics.CompanyName,
		Recipient:   recipient.DisplayName(),
		Metrics:     metrics,
	})
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}
