package session

import (
	"context"
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		s    Session
		want error
	}{
		{"admin", Session{TenantID: "t1", UserID: "t1", Role: RoleAdmin}, nil},
		{"agent", Session{TenantID: "t1", AgentID: "a1", Role: RoleAgent}, nil},
		{"system", System("t1"), nil},
		{"no tenant", Session{Role: RoleAdmin}, ErrMissingTenant},
		{"agent without id", Session{TenantID: "t1", Role: RoleAgent}, ErrMissingAgent},
		{"unknown role", Session{TenantID: "t1", Role: "owner"}, ErrUnknownRole},
	}

	for _, tc := range cases {
		if err := tc.s.Validate(); !errors.Is(err, tc.want) {
			t.Errorf("%s: Validate() = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestActorID(t *testing.T) {
	agent := Session{TenantID: "t1", UserID: "u9", AgentID: "a1", Role: RoleAgent}
	if agent.ActorID() != "a1" {
		t.Fatalf("expected agent actor a1, got %q", agent.ActorID())
	}
	if System("t1").ActorID() != SystemActor {
		t.Fatalf("expected system actor")
	}
}

func TestContextRoundTrip(t *testing.T) {
	s := Session{TenantID: "t1", UserID: "t1", Role: RoleAdmin}
	got, ok := FromContext(WithContext(context.Background(), s))
	if !ok || got != s {
		t.Fatalf("expected %+v, got %+v (ok=%v)", s, got, ok)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no session on empty context")
	}
}
