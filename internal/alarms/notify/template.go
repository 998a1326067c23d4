package notify

import (
	"bytes"
	"errors"
	"text/template"
	"time"

	alarms "renewable-monitor/internal/alarms/domain"
)

const DefaultTemplate = `[{{.Kind}}] {{.Source}} at {{.Time}}: {{.Message}}`

// TemplateData provides fields for rendering notification content.
type TemplateData struct {
	Kind    string
	Source  string
	Message string
	Time    string
}

// NewTemplateData flattens an alert for rendering.
func NewTemplateData(alert alarms.Alert) TemplateData {
	return TemplateData{
		Kind:    string(alert.Kind),
		Source:  alert.Source.Label(),
		Message: alert.Message,
		Time:    alert.Timestamp.UTC().Format(time.RFC3339),
	}
}

// Template renders notification content.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses a notification template, falling back to DefaultTemplate.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultTemplate
	}
	parsed, err := template.New("alert-notification").Option("missingkey=error").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to an alert.
func (t *Template) Render(alert alarms.Alert) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("alert template: nil")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, NewTemplateData(alert)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
