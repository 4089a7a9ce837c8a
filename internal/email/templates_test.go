package email

import (
	"strings"
	"testing"
	"time"
)

func TestDueSoonMessage(t *testing.T) {
	end := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	m, err := dueSoonMessage("Asha", "Call <ACME>", end)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if m.Subject != "Task due soon: Call <ACME>" {
		t.Fatalf("unexpected subject %q", m.Subject)
	}
	for _, want := range []string{"Hi Asha", "Call &lt;ACME&gt;", "Mon 3 Jun 2024, 09:00 UTC", "A task is due soon"} {
		if !strings.Contains(m.HTML, want) {
			t.Fatalf("expected %q in html body:\n%s", want, m.HTML)
		}
	}
	if !strings.Contains(m.Text, `"Call <ACME>" is due on Mon 3 Jun 2024`) {
		t.Fatalf("unexpected text body:\n%s", m.Text)
	}
}

func TestAssignedMessage(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	m, err := assignedMessage("", "Demo", start, start.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(m.HTML, "You have been assigned <strong>Demo</strong>") {
		t.Fatalf("unexpected html body:\n%s", m.HTML)
	}
	if !strings.HasPrefix(m.Text, "Hi there,") || !strings.Contains(m.Text, "due on Mon 3 Jun 2024") {
		t.Fatalf("unexpected text body:\n%s", m.Text)
	}
}
