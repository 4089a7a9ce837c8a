package pgstore

import (
	"strings"
	"testing"
)

func TestDeleteSubtreeQueryCoversDescendants(t *testing.T) {
	query := strings.ToLower(deleteSubtreeQuery)

	requiredFragments := []string{
		"parent_path = $1 and node_key = $2",
		"parent_path = $3",
		"parent_path like $4",
	}
	for _, fragment := range requiredFragments {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected subtree delete fragment %q to be present", fragment)
		}
	}
}

func TestAncestorLookupPrefersDeepestDocument(t *testing.T) {
	query := strings.ToLower(findAncestorQuery)
	if !strings.Contains(query, "order by length(parent_path) desc") {
		t.Fatal("ancestor lookup must prefer the deepest matching row")
	}
	if !strings.Contains(query, "limit 1") {
		t.Fatal("ancestor lookup must return a single row")
	}
}

func TestUpsertReplacesDocument(t *testing.T) {
	query := strings.ToLower(upsertDocumentQuery)
	if !strings.Contains(query, "on conflict (parent_path, node_key)") {
		t.Fatal("upsert must target the document key")
	}
	if !strings.Contains(query, "value = excluded.value") {
		t.Fatal("set must replace, not merge, the stored document")
	}
}

func TestLikePrefixEscapesWildcards(t *testing.T) {
	cases := map[string]string{
		"users/t1/leads":  "users/t1/leads/%",
		"users/t_1/leads": `users/t\_1/leads/%`,
		"users/100%":      `users/100\%/%`,
	}
	for in, want := range cases {
		if got := likePrefix(in); got != want {
			t.Errorf("likePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGuardedUpdateLocksTheDocument(t *testing.T) {
	query := strings.ToLower(lockDocumentQuery)
	if !strings.Contains(query, "for update") {
		t.Fatal("guarded updates must lock the document row against a concurrent delete")
	}
	if !strings.Contains(strings.ToLower(subtreeExistsQuery), "parent_path like $2") {
		t.Fatal("existence check must see descendant rows")
	}
}
