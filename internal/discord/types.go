package discord

// Channel types from the API enumeration. Categories organize channels;
// text and announcement channels carry archivable history.
const (
	channelTypeText         = 0
	channelTypeCategory     = 4
	channelTypeAnnouncement = 5
)

// DirectMessagesGuildID marks the pseudo-guild that stands in for the bot's
// direct conversations. Its channel listing is currently a stub.
const DirectMessagesGuildID = "0"

// Guild is one server the bot belongs to.
type Guild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Channel is one archivable message stream with its category label resolved.
type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// apiChannel is the wire shape of one entry in a guild's channel list.
type apiChannel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     int    `json:"type"`
	ParentID string `json:"parent_id"`
}

// Author identifies who sent a message.
type Author struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Avatar        string `json:"avatar"`
	Discriminator string `json:"discriminator"`
	Bot           bool   `json:"bot"`
}

// Attachment is one file uploaded with a message.
type Attachment struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// EmbedField is one name/value pair inside an embed, laid out inline or as
// its own block.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// EmbedFooter is the small trailing line of an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// EmbedImage is the large image block of an embed.
type EmbedImage struct {
	URL string `json:"url"`
}

// Embed is one rich-content block attached to a message. All parts are
// optional; Color is the accent color as a 24-bit integer, zero when unset.
type Embed struct {
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Footer      *EmbedFooter `json:"footer"`
	Image       *EmbedImage  `json:"image"`
	Fields      []EmbedField `json:"fields"`
}

// Message is one chat message as returned by the history endpoint.
// Batches arrive newest-first; a message is immutable once fetched.
// Timestamp stays the raw ISO-8601 string so rendering can fall back to it
// verbatim when parsing fails.
type Message struct {
	ID          string       `json:"id"`
	Author      Author       `json:"author"`
	Timestamp   string       `json:"timestamp"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments"`
	Embeds      []Embed      `json:"embeds"`
}
