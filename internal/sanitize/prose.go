package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// Invisible formatting characters confuse PDF text extraction and
// copy-paste from the archive, so they are dropped or spaced out.
var invisibleReplacer = strings.NewReplacer(
	"⁠", "", "\uFEFF", "",
	"­", "", "‍", "",
	"‎", "", "‏", "",
	"‪", "", "‫", "",
	"‬", "", "‭", "", "‮", "",
	"​", " ", "‌", " ",
	" ", "\n", " ", "\n\n",
	" ", " ", " ", " ",
)

var (
	controlChars     = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	multipleNewlines = regexp.MustCompile(`\n{3,}`)
	horizontalRule   = regexp.MustCompile(`^[\*\-_]{3,}$`)

	fencedCode   = regexp.MustCompile("```[\\s\\S]*?```")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	mdImage      = regexp.MustCompile(`!\[(.*?)\]\(([^)]+)\)`)
	mdLink       = regexp.MustCompile(`\[(.*?)\]\(([^)]+)\)`)
	mdHeader     = regexp.MustCompile(`(?m)^#{1,6} (.+)$`)
	mdBold       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	mdItalic     = regexp.MustCompile(`\*([^*]+)\*`)
	mdStrike     = regexp.MustCompile(`~~(.+?)~~`)
	mdBlockquote = regexp.MustCompile(`(?m)^>\s*(.+)$`)
	orderedList  = regexp.MustCompile(`^\d+\.\s+`)
	htmlTag      = regexp.MustCompile(`<[^>]*>`)
)

// Prose flattens model-generated text into plain paragraphs: markdown
// emphasis and structure markers are unwrapped, invisible and control
// characters removed, and whitespace normalized. Underscore emphasis is
// left alone because usernames routinely contain underscores. Summaries
// pass through it before they are rendered into the archive document.
func Prose(text string) string {
	if text == "" {
		return ""
	}

	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = invisibleReplacer.Replace(s)
	s = controlChars.ReplaceAllString(s, " ")

	s = fencedCode.ReplaceAllString(s, "\n")
	s = inlineCode.ReplaceAllString(s, "$1")
	s = mdImage.ReplaceAllString(s, "$1")
	s = mdLink.ReplaceAllString(s, "$1 ($2)")
	s = mdHeader.ReplaceAllString(s, "$1")
	s = mdBold.ReplaceAllString(s, "$1")
	s = mdItalic.ReplaceAllString(s, "$1")
	s = mdStrike.ReplaceAllString(s, "$1")
	s = mdBlockquote.ReplaceAllString(s, "$1")
	s = htmlTag.ReplaceAllString(s, "")

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if horizontalRule.MatchString(line) {
			continue
		}
		for _, marker := range [...]string{"* ", "- ", "+ "} {
			if rest, ok := strings.CutPrefix(line, marker); ok {
				line = strings.TrimSpace(rest)
				break
			}
		}
		line = orderedList.ReplaceAllString(line, "")
		lines = append(lines, collapseSpaces(line))
	}

	s = strings.Join(lines, "\n")
	s = multipleNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// collapseSpaces reduces runs of whitespace within a line to single spaces.
func collapseSpaces(line string) string {
	var b strings.Builder
	space := false

	for _, r := range line {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteRune(' ')
				space = true
			}
			continue
		}
		b.WriteRune(r)
		space = false
	}

	return strings.TrimSpace(b.String())
}
