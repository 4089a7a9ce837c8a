package store

import (
	"errors"
	"testing"
)

func TestJoinAndParent(t *testing.T) {
	if got := Join("/users/", "t1", "", "leads/"); got != "users/t1/leads" {
		t.Fatalf("Join = %q", got)
	}
	parent, key := Parent("users/t1/leads/abc")
	if parent != "users/t1/leads" || key != "abc" {
		t.Fatalf("Parent = %q, %q", parent, key)
	}
	if Leads("t1") != "users/t1/leads" || TaskBackups("t1") != "users/t1/backups/tasks" {
		t.Fatal("unexpected tenant paths")
	}
}

func TestIsWithin(t *testing.T) {
	if !IsWithin("users/t1/leads/a", "users/t1") {
		t.Fatal("expected nested path to be within root")
	}
	if IsWithin("users/t10/leads", "users/t1") {
		t.Fatal("sibling with shared prefix must not match")
	}
}

func TestCheckBatch(t *testing.T) {
	ok := map[string]any{
		"users/t/leads/a":     nil,
		"users/t/leads/a-b":   1,
		"users/t/deleted/a":   2,
		"users/t/leads/ab/cd": 3,
	}
	if err := CheckBatch(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := map[string]any{
		"users/t/leads/a":       nil,
		"users/t/leads/a-b":     1,
		"users/t/leads/a/score": 3,
	}
	if err := CheckBatch(bad); !errors.Is(err, ErrOverlappingWrites) {
		t.Fatalf("expected overlap, got %v", err)
	}
	if err := CheckBatch(map[string]any{"/": 1}); err == nil {
		t.Fatal("expected root write to be rejected")
	}
}

func TestValidateKey(t *testing.T) {
	if err := ValidateKey("lead-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, k := range []string{"", "a.b", "a/b", "a#", "a$", "a[0]"} {
		if err := ValidateKey(k); err == nil {
			t.Errorf("expected %q to be rejected", k)
		}
	}
}
