package automation

import (
	"time"

	"crm_dashboard_backend/internal/tasks/domain"
)

// Candidate is an active agent eligible for a new task.
type Candidate struct {
	ID           string
	LastAssigned *time.Time
}

// SelectAgent picks the candidate with the fewest in-progress tasks. Ties
// go to the oldest lastAssigned (never assigned counts as the epoch), then
// to the smallest id. It returns false when there are no candidates.
func SelectAgent(candidates []Candidate, tasks []domain.Task) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	load := make(map[string]int, len(candidates))
	for _, t := range tasks {
		if t.Status == domain.StatusInProgress && t.AgentID != "" {
			load[t.AgentID]++
		}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if better(c, best, load) {
			best = c
		}
	}
	return best.ID, true
}

func better(a, b Candidate, load map[string]int) bool {
	if load[a.ID] != load[b.ID] {
		return load[a.ID] < load[b.ID]
	}
	la, lb := lastAssigned(a), lastAssigned(b)
	if !la.Equal(lb) {
		return la.Before(lb)
	}
	return a.ID < b.ID
}

func lastAssigned(c Candidate) time.Time {
	if c.LastAssigned == nil {
		return time.Unix(0, 0).UTC()
	}
	return *c.LastAssigned
}
