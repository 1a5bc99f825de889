package identity

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"traintrack/backend/internal/shared"
)

func TestDedupeUsersByEmail(t *testing.T) {
	users := []shared.User{
		{ID: primitive.NewObjectID(), AuthorID: "a1", Email: "Same@Example.com", Name: "Current"},
		{ID: primitive.NewObjectID(), AuthorID: "a1-legacy", Email: "same@example.com", Name: "Legacy"},
		{ID: primitive.NewObjectID(), AuthorID: "a2", Email: "other@example.com", Name: "Other"},
	}

	out := DedupeUsers(users)
	if len(out) != 2 {
		t.Fatalf("got %d entries, want 2", len(out))
	}
	if out[0].Name != "Current" {
		t.Errorf("first-seen record should win, got %q", out[0].Name)
	}
}

func TestDedupeUsersLaterAuthorIDReplaces(t *testing.T) {
	users := []shared.User{
		{ID: primitive.NewObjectID(), Email: "x@example.com", Name: "NoAuthor"},
		{ID: primitive.NewObjectID(), AuthorID: "a9", Email: "x@example.com", Name: "WithAuthor"},
	}

	out := DedupeUsers(users)
	if len(out) != 1 {
		t.Fatalf("got %d entries, want 1", len(out))
	}
	if out[0].Name != "WithAuthor" {
		t.Errorf("record carrying an author_id must replace the earlier one, got %q", out[0].Name)
	}
}

func TestDedupeUsersNoSharedEmail(t *testing.T) {
	users := []shared.User{
		{ID: primitive.NewObjectID(), Email: "A@x.com"},
		{ID: primitive.NewObjectID(), Email: "a@x.com"},
		{ID: primitive.NewObjectID(), Email: "b@x.com"},
		{ID: primitive.NewObjectID(), Email: "B@X.COM", AuthorID: "b2"},
		{ID: primitive.NewObjectID(), AuthorID: "c"},
	}

	out := DedupeUsers(users)

	seen := make(map[string]bool)
	for _, u := range out {
		if u.Email == "" {
			continue
		}
		key := strings.ToLower(u.Email)
		if seen[key] {
			t.Errorf("two entries share email %q", key)
		}
		seen[key] = true
	}
}

func TestDedupeUsersFallbackKeys(t *testing.T) {
	id := primitive.NewObjectID()
	users := []shared.User{
		{ID: id},
		{ID: id},
		{ID: primitive.NewObjectID(), AuthorID: "a1"},
		{ID: primitive.NewObjectID(), AuthorID: "a1"},
	}

	out := DedupeUsers(users)
	if len(out) != 2 {
		t.Errorf("got %d entries, want 2 (one per fallback key)", len(out))
	}
}

func TestMergeUsersPrefersCurrent(t *testing.T) {
	legacy := &shared.User{
		AuthorID:    "a1",
		Name:        "Legacy Name",
		Email:       "legacy@example.com",
		PhoneNumber: "111",
		Department:  "Old Dept",
	}
	current := &shared.User{
		AuthorID: "a1",
		Name:     "Current Name",
		Email:    "current@example.com",
	}

	merged := MergeUsers(legacy, current)
	if merged.Name != "Current Name" || merged.Email != "current@example.com" {
		t.Errorf("current fields must win: %+v", merged)
	}
	if merged.PhoneValue() != "111" {
		t.Errorf("legacy phone should fill the gap, got %q", merged.PhoneValue())
	}
	if merged.Department != "Old Dept" {
		t.Errorf("legacy department should fill the gap, got %q", merged.Department)
	}
}

func TestMergeUsersNilHandling(t *testing.T) {
	u := &shared.User{AuthorID: "a1"}

	if got := MergeUsers(nil, u); got != u {
		t.Error("nil legacy should yield current")
	}
	if got := MergeUsers(u, nil); got != u {
		t.Error("nil current should yield legacy")
	}
	if got := MergeUsers(nil, nil); got != nil {
		t.Error("both nil should yield nil")
	}
}
