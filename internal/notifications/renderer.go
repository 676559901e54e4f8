package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/bissquit/statusboard/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Renderer renders incident notifications from templates.
type Renderer struct {
	templates map[domain.IncidentAction]*template.Template
	baseURL   string
}

// templateData is passed to every template.
type templateData struct {
	Action   domain.IncidentAction
	Incident *domain.Incident
	Update   *domain.IncidentUpdate
	URL      string
}

var renderedActions = []domain.IncidentAction{
	domain.IncidentCreated,
	domain.IncidentUpdated,
	domain.IncidentResolved,
}

// NewRenderer loads the embedded templates. Links in messages point at baseURL.
func NewRenderer(baseURL string) (*Renderer, error) {
	funcMap := template.FuncMap{
		"title":       titleCase,
		"formatTime":  formatTime,
		"statusLabel": statusLabel,
		"components":  componentNames,
	}

	r := &Renderer{
		templates: make(map[domain.IncidentAction]*template.Template),
		baseURL:   strings.TrimRight(baseURL, "/"),
	}

	for _, action := range renderedActions {
		filename := fmt.Sprintf("templates/%s.tmpl", action)
		content, err := templatesFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", filename, err)
		}

		tmpl, err := template.New(string(action)).Funcs(funcMap).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", action, err)
		}
		r.templates[action] = tmpl
	}

	return r, nil
}

// Render returns the subject and body for an incident change.
func (r *Renderer) Render(change domain.IncidentChange) (subject, body string, err error) {
	tmpl, ok := r.templates[change.Action]
	if !ok {
		return "", "", fmt.Errorf("template not found: %s", change.Action)
	}
	if change.Incident == nil {
		return "", "", fmt.Errorf("render %s: no incident", change.Action)
	}

	data := templateData{
		Action:   change.Action,
		Incident: change.Incident,
		Update:   change.Update,
		URL:      r.baseURL + "/status",
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("execute template %s: %w", change.Action, err)
	}

	return renderSubject(change), strings.TrimSpace(buf.String()) + "\n", nil
}

func renderSubject(change domain.IncidentChange) string {
	var prefix string
	switch change.Action {
	case domain.IncidentCreated:
		prefix = "Incident"
	case domain.IncidentResolved:
		prefix = "Resolved"
	default:
		prefix = "Update"
	}
	return fmt.Sprintf("[%s] %s", prefix, change.Incident.Name)
}

var titleCaser = cases.Title(language.English)

func titleCase(v any) string {
	return titleCaser.String(fmt.Sprint(v))
}

func formatTime(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006 15:04 UTC")
}

func statusLabel(s domain.IncidentStatus) string {
	return s.Display().Label
}

func componentNames(refs []domain.ComponentRef) string {
	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = ref.Name
	}
	return strings.Join(names, ", ")
}
