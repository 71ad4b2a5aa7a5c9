package summary

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sankethshetty99/discord-archiver/internal/discord"
)

func TestPromptWindowKeepsShortHistories(t *testing.T) {
	t.Parallel()

	msgs := []discord.Message{
		{ID: "m0", Content: "newest"},
		{ID: "m1", Content: "older"},
	}

	got := promptWindow(msgs)
	if len(got) != len(msgs) {
		t.Fatalf("promptWindow trimmed a small history: got %d messages, want %d", len(got), len(msgs))
	}
}

func TestPromptWindowDropsOldestFirst(t *testing.T) {
	t.Parallel()

	// Each message estimates to just over a quarter of the budget, so the
	// fourth one tips past it.
	content := strings.Repeat("x", 3*(promptTokenBudget/4))
	msgs := make([]discord.Message, 5)
	for i := range msgs {
		msgs[i] = discord.Message{ID: fmt.Sprintf("m%d", i), Content: content}
	}

	got := promptWindow(msgs)
	if len(got) != 3 {
		t.Fatalf("promptWindow kept %d messages, want 3", len(got))
	}

	// Input is newest first, so the survivors are the leading entries.
	if got[0].ID != "m0" || got[len(got)-1].ID != "m2" {
		t.Fatalf("promptWindow kept the wrong window: first %s, last %s", got[0].ID, got[len(got)-1].ID)
	}
}
