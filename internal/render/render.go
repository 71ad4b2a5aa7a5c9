// Package render transforms a channel's message history into one
// self-contained styled HTML document: messages are put in chronological
// order, grouped into author runs, and emitted with resolved avatars,
// formatted markup, attachments, and embeds.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/sankethshetty99/discord-archiver/internal/discord"
)

// Options carries the per-document extras.
type Options struct {
	// ArchiveTime stamps the document header. Zero means time.Now().
	ArchiveTime time.Time

	// Summary is an optional channel summary shown under the header.
	Summary string
}

// MessageGroup is a run of consecutive messages by one author, in
// chronological order. Timestamp is the raw stamp of the run's first message.
type MessageGroup struct {
	Author    discord.Author
	Timestamp string
	Messages  []discord.Message
}

// GroupMessages reverses a newest-first history into chronological order
// and splits it into author runs. A new group starts exactly when the
// author id differs from the previous message's; timestamps never split
// a run.
func GroupMessages(msgs []discord.Message) []MessageGroup {
	var groups []MessageGroup
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if len(groups) == 0 || groups[len(groups)-1].Author.ID != m.Author.ID {
			groups = append(groups, MessageGroup{Author: m.Author, Timestamp: m.Timestamp})
		}
		g := &groups[len(groups)-1]
		g.Messages = append(g.Messages, m)
	}
	return groups
}

// Document renders a channel's full history as one HTML page. Input
// arrives newest-first; empty input produces an empty document and no
// error. Rendering is deterministic given its input and Options.
func Document(channelName string, msgs []discord.Message, opts Options) (string, error) {
	if len(msgs) == 0 {
		return "", nil
	}

	archiveTime := opts.ArchiveTime
	if archiveTime.IsZero() {
		archiveTime = time.Now()
	}

	groups := GroupMessages(msgs)
	data := documentData{
		ChannelName: channelName,
		ArchiveDate: archiveTime.Format("2006-01-02"),
		Summary:     opts.Summary,
		Groups:      make([]groupData, 0, len(groups)),
	}

	for _, g := range groups {
		gd := groupData{
			AvatarURL: AvatarURL(g.Author),
			Username:  g.Author.Username,
			Bot:       g.Author.Bot,
			Timestamp: formatTimestamp(g.Timestamp),
		}
		for _, m := range g.Messages {
			md := messageData{Content: FormatContent(m.Content)}
			for _, att := range m.Attachments {
				md.Attachments = append(md.Attachments, attachmentData{
					URL:      att.URL,
					Filename: att.Filename,
					IsImage:  strings.Contains(att.ContentType, "image"),
				})
			}
			for _, em := range m.Embeds {
				md.Embeds = append(md.Embeds, buildEmbed(em))
			}
			gd.Messages = append(gd.Messages, md)
		}
		data.Groups = append(data.Groups, gd)
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute document template: %w", err)
	}
	return buf.String(), nil
}

func buildEmbed(em discord.Embed) embedData {
	ed := embedData{
		Color:       embedColor(em.Color),
		Title:       em.Title,
		URL:         em.URL,
		Description: FormatContent(em.Description),
	}
	for _, f := range em.Fields {
		ed.Fields = append(ed.Fields, fieldData{
			Name:   f.Name,
			Value:  FormatContent(f.Value),
			Inline: f.Inline,
		})
	}
	if em.Footer != nil {
		ed.FooterText = em.Footer.Text
	}
	if em.Image != nil {
		ed.ImageURL = em.Image.URL
	}
	return ed
}

// embedColor renders an embed's 24-bit accent color as a CSS hex value.
// Absent colors fall back to the neutral pill color.
func embedColor(c int) string {
	if c <= 0 {
		return "#202225"
	}
	return fmt.Sprintf("#%06x", c)
}

// formatTimestamp renders an ISO-8601 stamp as "2006-01-02 15:04",
// falling back to the raw string when it does not parse.
func formatTimestamp(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02 15:04")
}
