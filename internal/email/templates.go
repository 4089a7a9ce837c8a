package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	texttemplate "text/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	htmlDueSoon  = parseHTML("task_due_soon.html")
	htmlAssigned = parseHTML("task_assigned.html")
	textDueSoon  = texttemplate.Must(texttemplate.New("due_soon").Parse(plainTaskDueSoon))
	textAssigned = texttemplate.Must(texttemplate.New("assigned").Parse(plainTaskAssigned))
)

func parseHTML(name string) *template.Template {
	return template.Must(template.New("base.html").ParseFS(templateFS, "templates/base.html", "templates/"+name))
}

// message is one rendered email: a plain-text body with an HTML
// alternative.
type message struct {
	Subject string
	Text    string
	HTML    string
}

type layout struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

// taskEmail is the data both task templates render from. Dates are
// preformatted in the recipient's zone.
type taskEmail struct {
	layout
	AgentName string
	TaskTitle string
	StartDate string
	EndDate   string
}

func dueSoonMessage(agentName, taskTitle string, endDate time.Time) (message, error) {
	data := taskEmail{
		layout:    layout{Title: "Task due soon", Heading: "A task is due soon"},
		AgentName: greetingName(agentName),
		TaskTitle: taskTitle,
		EndDate:   endDate.Format(dateLayout),
	}
	return render(fmt.Sprintf(subjectTaskDueSoonFmt, taskTitle), htmlDueSoon, textDueSoon, data)
}

func assignedMessage(agentName, taskTitle string, startDate, endDate time.Time) (message, error) {
	data := taskEmail{
		layout:    layout{Title: "New task", Heading: "You have a new task"},
		AgentName: greetingName(agentName),
		TaskTitle: taskTitle,
		StartDate: startDate.Format(dateLayout),
		EndDate:   endDate.Format(dateLayout),
	}
	return render(fmt.Sprintf(subjectTaskAssignedFmt, taskTitle), htmlAssigned, textAssigned, data)
}

func render(subject string, html *template.Template, text *texttemplate.Template, data taskEmail) (message, error) {
	var htmlBuf, textBuf bytes.Buffer
	if err := html.ExecuteTemplate(&htmlBuf, "email", data); err != nil {
		return message{}, fmt.Errorf("render html %q: %w", subject, err)
	}
	if err := text.Execute(&textBuf, data); err != nil {
		return message{}, fmt.Errorf("render text %q: %w", subject, err)
	}
	return message{Subject: subject, Text: textBuf.String(), HTML: htmlBuf.String()}, nil
}

func greetingName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
