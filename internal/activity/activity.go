// Package activity records who changed what on a tenant's leads. Every
// lead mutation is diffed field by field and stored as one record.
package activity

import (
	"encoding/json"
	"reflect"
	"sort"
	"time"
)

// Action names the kind of mutation a record describes.
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionRestored Action = "restored"
	ActionPurged   Action = "purged"
	ActionImported Action = "imported"
	ActionAssigned Action = "assigned"
	ActionScored   Action = "scored"
)

// Change is one field transition.
type Change struct {
	Field string `json:"field"`
	From  any    `json:"from,omitempty"`
	To    any    `json:"to,omitempty"`
}

// Record is one stored activity entry.
type Record struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actorId"`
	ActorRole string    `json:"actorRole"`
	LeadID    string    `json:"leadId,omitempty"`
	AgentID   string    `json:"agentId,omitempty"`
	Action    Action    `json:"action"`
	Summary   string    `json:"summary,omitempty"`
	Changes   []Change  `json:"changes,omitempty"`
	At        time.Time `json:"at"`
}

// Diff compares the JSON forms of before and after and returns the changed
// fields in name order. Fields in ignore are skipped. A field missing on
// one side is reported with a nil value on that side.
func Diff(before, after any, ignore ...string) ([]Change, error) {
	a, err := toMap(before)
	if err != nil {
		return nil, err
	}
	b, err := toMap(after)
	if err != nil {
		return nil, err
	}

	skip := make(map[string]struct{}, len(ignore))
	for _, f := range ignore {
		skip[f] = struct{}{}
	}

	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}

	var changes []Change
	for k := range keys {
		if _, ok := skip[k]; ok {
			continue
		}
		if reflect.DeepEqual(a[k], b[k]) {
			continue
		}
		changes = append(changes, Change{Field: k, From: a[k], To: b[k]})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes, nil
}

func toMap(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
