package domain

import (
	"testing"
	"time"
)

func TestTaskTimeRules(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name    string
		task    Task
		start   bool
		dueSoon bool
		expired bool
	}{
		{name: "pending at start", task: Task{Status: StatusPending, StartDate: now, EndDate: now.Add(72 * time.Hour)}, start: true},
		{name: "pending before start", task: Task{Status: StatusPending, StartDate: now.Add(time.Minute)}},
		{name: "due in 23h", task: Task{Status: StatusInProgress, EndDate: now.Add(23 * time.Hour)}, dueSoon: true},
		{name: "due exactly in 24h", task: Task{Status: StatusPending, StartDate: now.Add(time.Hour), EndDate: now.Add(day)}, dueSoon: true},
		{name: "due in 25h", task: Task{Status: StatusInProgress, EndDate: now.Add(25 * time.Hour)}},
		{name: "already overdue", task: Task{Status: StatusInProgress, EndDate: now.Add(-time.Hour)}},
		{name: "completed not due", task: Task{Status: StatusCompleted, EndDate: now.Add(time.Hour)}},
		{name: "completed long ago", task: Task{Status: StatusCompleted, EndDate: now.Add(-31 * day)}, expired: true},
		{name: "completed recently", task: Task{Status: StatusCompleted, EndDate: now.Add(-29 * day)}},
		{name: "open and old", task: Task{Status: StatusInProgress, EndDate: now.Add(-31 * day)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.ShouldStart(now); got != tt.start {
				t.Fatalf("ShouldStart = %v, want %v", got, tt.start)
			}
			if got := tt.task.DueWithin(now, day); got != tt.dueSoon {
				t.Fatalf("DueWithin = %v, want %v", got, tt.dueSoon)
			}
			if got := tt.task.Expired(now, 30*day); got != tt.expired {
				t.Fatalf("Expired = %v, want %v", got, tt.expired)
			}
		})
	}
}
