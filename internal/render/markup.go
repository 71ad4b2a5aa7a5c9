package render

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"
)

var (
	regexCodeBlock  = regexp.MustCompile("(?s)```(?:[a-zA-Z0-9]*\n)?(.*?)```")
	regexInlineCode = regexp.MustCompile("`([^`\n]+)`")

	// Inline rules run in order on escaped text. Triple stars come first so
	// bold-italic does not decay into nested partial matches, and double
	// markers come before their single-character forms.
	markupRules = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`\*\*\*(.+?)\*\*\*`), "<strong><em>$1</em></strong>"},
		{regexp.MustCompile(`\*\*(.+?)\*\*`), "<strong>$1</strong>"},
		{regexp.MustCompile(`__(.+?)__`), "<u>$1</u>"},
		{regexp.MustCompile(`~~(.+?)~~`), "<s>$1</s>"},
		{regexp.MustCompile(`\|\|(.+?)\|\|`), `<span class="spoiler">$1</span>`},
		{regexp.MustCompile(`\*([^*\n]+)\*`), "<em>$1</em>"},
		{regexp.MustCompile(`_([^_\n]+)_`), "<em>$1</em>"},
	}

	// Matches an already-escaped "> " quote line, consuming its newline so
	// the break conversion does not double-space quotes.
	regexBlockquote = regexp.MustCompile(`(?m)^&gt;\s?(.*)(\n|$)`)
)

// FormatContent converts one message's raw chat markup into HTML that is
// safe to embed in the document. The text is escaped first and every rule
// only introduces tags around already-escaped content. Code spans are
// pulled out before the inline rules run so their interiors stay verbatim.
func FormatContent(raw string) template.HTML {
	if raw == "" {
		return ""
	}

	s := template.HTMLEscapeString(raw)

	var stash []string
	stashSpan := func(span string) string {
		stash = append(stash, span)
		return fmt.Sprintf("\x00%d\x00", len(stash)-1)
	}

	s = regexCodeBlock.ReplaceAllStringFunc(s, func(m string) string {
		inner := regexCodeBlock.FindStringSubmatch(m)[1]
		return stashSpan("<pre><code>" + inner + "</code></pre>")
	})
	s = regexInlineCode.ReplaceAllStringFunc(s, func(m string) string {
		inner := regexInlineCode.FindStringSubmatch(m)[1]
		return stashSpan("<code>" + inner + "</code>")
	})

	for _, rule := range markupRules {
		s = rule.re.ReplaceAllString(s, rule.repl)
	}

	s = regexBlockquote.ReplaceAllString(s, "<blockquote>$1</blockquote>")
	s = strings.ReplaceAll(s, "\n", "<br>")

	for i, span := range stash {
		s = strings.Replace(s, fmt.Sprintf("\x00%d\x00", i), span, 1)
	}

	return template.HTML(s)
}
