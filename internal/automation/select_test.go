package automation

import (
	"testing"
	"time"

	"crm_dashboard_backend/internal/tasks/domain"
)

func TestSelectAgent(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)
	busy := func(agentID string, n int) []domain.Task {
		out := make([]domain.Task, n)
		for i := range out {
			out[i] = domain.Task{AgentID: agentID, Status: domain.StatusInProgress}
		}
		return out
	}

	tests := []struct {
		name       string
		candidates []Candidate
		tasks      []domain.Task
		want       string
		wantOK     bool
	}{
		{name: "no candidates"},
		{
			name:       "fewest in progress wins",
			candidates: []Candidate{{ID: "a"}, {ID: "b"}},
			tasks:      busy("a", 2),
			want:       "b",
			wantOK:     true,
		},
		{
			name:       "pending and completed tasks do not count",
			candidates: []Candidate{{ID: "a", LastAssigned: &late}, {ID: "b", LastAssigned: &early}},
			tasks: []domain.Task{
				{AgentID: "b", Status: domain.StatusPending},
				{AgentID: "b", Status: domain.StatusCompleted},
			},
			want:   "b",
			wantOK: true,
		},
		{
			name:       "tie goes to oldest lastAssigned",
			candidates: []Candidate{{ID: "a", LastAssigned: &late}, {ID: "b", LastAssigned: &early}},
			tasks:      append(busy("a", 1), busy("b", 1)...),
			want:       "b",
			wantOK:     true,
		},
		{
			name:       "never assigned beats assigned",
			candidates: []Candidate{{ID: "a", LastAssigned: &early}, {ID: "z"}},
			want:       "z",
			wantOK:     true,
		},
		{
			name:       "full tie goes to smallest id",
			candidates: []Candidate{{ID: "c"}, {ID: "a"}, {ID: "b"}},
			want:       "a",
			wantOK:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectAgent(tt.candidates, tt.tasks)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("SelectAgent = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
