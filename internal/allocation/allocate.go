package allocation

import (
	"sort"
)

// Clamp bounds r to [1, total]. The result may be inverted (From > To),
// which means the agent sees nothing.
func Clamp(r Range, total int) Range {
	if r.From < 1 {
		r.From = 1
	}
	if r.To > total {
		r.To = total
	}
	return r
}

// Visible returns the ids at positions r.From..r.To of ordered.
func Visible(ordered []string, r Range) []string {
	c := Clamp(r, len(ordered))
	if c.From > c.To {
		return []string{}
	}
	out := make([]string, c.To-c.From+1)
	copy(out, ordered[c.From-1:c.To])
	return out
}

// Allocate computes every agent's visible slice.
func Allocate(ordered []string, ranges map[string]Range) map[string][]string {
	out := make(map[string][]string, len(ranges))
	for agentID, r := range ranges {
		out[agentID] = Visible(ordered, r)
	}
	return out
}

// Stats aggregates range coverage across agents.
type Stats struct {
	TotalLeads     int `json:"totalLeads"`
	AssignedLeads  int `json:"assignedLeads"`
	RemainingLeads int `json:"remainingLeads"`
	UniqueRanges   int `json:"uniqueRanges"`
}

// Summarize counts assigned leads over ranges. Agents without a range pass
// nil. Identical ranges count once; distinct but overlapping ranges are
// summed as given.
func Summarize(totalLeads int, ranges []*Range) Stats {
	seen := make(map[string]struct{}, len(ranges))
	assigned := 0
	for _, r := range ranges {
		if r == nil {
			continue
		}
		key := r.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		assigned += r.To - r.From + 1
	}

	remaining := totalLeads - assigned
	if remaining < 0 {
		remaining = 0
	}
	return Stats{
		TotalLeads:     totalLeads,
		AssignedLeads:  assigned,
		RemainingLeads: remaining,
		UniqueRanges:   len(seen),
	}
}

// Overlap reports two agents whose ranges share at least one position.
type Overlap struct {
	AgentID      string `json:"agentId"`
	OtherAgentID string `json:"otherAgentId"`
	From         int    `json:"from"`
	To           int    `json:"to"`
}

// Overlaps finds every pair of agents with intersecting ranges, ordered by
// agent id.
func Overlaps(ranges map[string]Range) []Overlap {
	ids := make([]string, 0, len(ranges))
	for id := range ranges {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []Overlap
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			if o, ok := intersect(ranges[a], ranges[b]); ok {
				out = append(out, Overlap{AgentID: a, OtherAgentID: b, From: o.From, To: o.To})
			}
		}
	}
	return out
}

// OverlapsWith lists the agents in others whose range intersects r.
func OverlapsWith(agentID string, r Range, others map[string]Range) []Overlap {
	ids := make([]string, 0, len(others))
	for id := range others {
		if id != agentID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var out []Overlap
	for _, id := range ids {
		if o, ok := intersect(r, others[id]); ok {
			out = append(out, Overlap{AgentID: agentID, OtherAgentID: id, From: o.From, To: o.To})
		}
	}
	return out
}

func intersect(a, b Range) (Range, bool) {
	from := max(a.From, b.From)
	to := min(a.To, b.To)
	if a.Len() == 0 || b.Len() == 0 || from > to {
		return Range{}, false
	}
	return Range{From: from, To: to}, true
}
