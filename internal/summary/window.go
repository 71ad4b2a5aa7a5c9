package summary

import "github.com/sankethshetty99/discord-archiver/internal/discord"

// Prompt sizing. Past a few hundred messages extra history adds little
// signal to a short overview, and the token budget keeps channels full of
// very long messages inside the model's context window.
const (
	maxPromptMessages     = 500
	promptTokenBudget     = 150000
	messageOverheadTokens = 15
)

// estimateTokens gives a ballpark token count that lands in the right
// range across models.
func estimateTokens(text string) int {
	return len(text)/3 + 5
}

// promptWindow keeps the newest messages that fit the token budget.
// Messages arrive newest first, so the cut drops the oldest history.
func promptWindow(msgs []discord.Message) []discord.Message {
	used := 0
	for i, m := range msgs {
		used += estimateTokens(m.Content) + messageOverheadTokens
		if used > promptTokenBudget {
			return msgs[:i]
		}
	}
	return msgs
}
