package sessions

import (
	"context"
	"testing"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
	"github.com/code-sleuth/eduverse-go/internal/tutor/testutil"
)

func TestStoreRoundTrip(t *testing.T) {
	database := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, database)

	store := NewStore(database)
	ctx := context.Background()

	sessionID, err := NewSessionID("tenant-a")
	if err != nil {
		t.Fatalf("NewSessionID() error = %v", err)
	}

	turns := []struct{ role, content string }{
		{models.RoleHuman, "What is entropy?"},
		{models.RoleAssistant, "Entropy measures disorder [1]."},
		{models.RoleHuman, "Give me an example."},
	}
	for _, turn := range turns {
		if err := store.Append(ctx, sessionID, turn.role, turn.content); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	history, err := store.History(ctx, sessionID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("History() returned %d turns, want 3", len(history))
	}
	for i, turn := range turns {
		if history[i].Role != turn.role || history[i].Content != turn.content {
			t.Errorf("turn %d = (%s, %q), want (%s, %q)",
				i, history[i].Role, history[i].Content, turn.role, turn.content)
		}
	}

	ids, err := store.ListSessions(ctx, "tenant-a")
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != sessionID {
		t.Errorf("ListSessions() = %v, want [%s]", ids, sessionID)
	}

	// Other tenants see nothing.
	otherIDs, err := store.ListSessions(ctx, "tenant-b")
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(otherIDs) != 0 {
		t.Errorf("expected no sessions for other tenant, got %v", otherIDs)
	}

	existed, err := store.Clear(ctx, sessionID)
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if !existed {
		t.Error("Clear() reported nothing deleted for populated session")
	}

	existed, err = store.Clear(ctx, sessionID)
	if err != nil {
		t.Fatalf("second Clear() error = %v", err)
	}
	if existed {
		t.Error("Clear() reported rows deleted for empty session")
	}
}
