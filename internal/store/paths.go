package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	usersRoot         = "users"
	automationTenants = "automation/tenants"
)

// ErrInvalidKey is returned for keys the hosted database would reject.
var ErrInvalidKey = errors.New("store: key contains a forbidden character")

// Join builds a path from segments, ignoring empty ones and trimming slashes.
func Join(parts ...string) string {
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			segments = append(segments, p)
		}
	}
	return strings.Join(segments, "/")
}

// Split returns the non-empty segments of path.
func Split(path string) []string {
	raw := strings.Split(strings.Trim(path, "/"), "/")
	out := raw[:0]
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Parent returns the path without its last segment and that segment.
func Parent(path string) (string, string) {
	segments := Split(path)
	if len(segments) == 0 {
		return "", ""
	}
	return strings.Join(segments[:len(segments)-1], "/"), segments[len(segments)-1]
}

// IsWithin reports whether path equals root or lies below it.
func IsWithin(path, root string) bool {
	path = Join(path)
	root = Join(root)
	if root == "" || path == root {
		return true
	}
	return strings.HasPrefix(path, root+"/")
}

// ValidateKey rejects keys containing characters Realtime Database forbids.
func ValidateKey(key string) error {
	if key == "" || strings.ContainsAny(key, ".$#[]/") {
		return ErrInvalidKey
	}
	return nil
}

// TenantRoot is the subtree owned by one tenant.
func TenantRoot(tenantID string) string { return Join(usersRoot, tenantID) }

func Leads(tenantID string) string        { return Join(TenantRoot(tenantID), "leads") }
func DeletedLeads(tenantID string) string { return Join(TenantRoot(tenantID), "deletedLeads") }
func Agents(tenantID string) string       { return Join(TenantRoot(tenantID), "agents") }
func Tasks(tenantID string) string        { return Join(TenantRoot(tenantID), "tasks") }
func TaskBackups(tenantID string) string  { return Join(TenantRoot(tenantID), "backups", "tasks") }
func Activity(tenantID string) string     { return Join(TenantRoot(tenantID), "agentactivity") }
func Notifications(tenantID string) string {
	return Join(TenantRoot(tenantID), "notifications")
}
func AutomationSettings(tenantID string) string {
	return Join(TenantRoot(tenantID), "settings", "automation")
}
func LeadLimit(tenantID string) string  { return Join(TenantRoot(tenantID), "leadLimit") }
func AgentLimit(tenantID string) string { return Join(TenantRoot(tenantID), "agentLimit") }

// AutomationTenants indexes tenants that have saved automation settings.
func AutomationTenants() string { return automationTenants }

// ErrOverlappingWrites is returned when one batch path is an ancestor of another.
var ErrOverlappingWrites = errors.New("store: batch paths overlap")

// CheckBatch rejects batches the hosted database would refuse: writes at
// the root and writes where one path contains another.
func CheckBatch(writes map[string]any) error {
	paths := make([]string, 0, len(writes))
	for p := range writes {
		joined := Join(p)
		if joined == "" {
			return errors.New("store: refusing to write the root")
		}
		// NUL sorts below every key character, so descendants follow their ancestor.
		paths = append(paths, strings.ReplaceAll(joined, "/", "\x00"))
	}
	sort.Strings(paths)
	for i := 1; i < len(paths); i++ {
		if paths[i] == paths[i-1] || strings.HasPrefix(paths[i], paths[i-1]+"\x00") {
			return fmt.Errorf("%w: %s and %s", ErrOverlappingWrites,
				strings.ReplaceAll(paths[i-1], "\x00", "/"), strings.ReplaceAll(paths[i], "\x00", "/"))
		}
	}
	return nil
}
