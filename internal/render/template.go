package render

import "html/template"

type documentData struct {
	ChannelName string
	ArchiveDate string
	Summary     string
	Groups      []groupData
}

type groupData struct {
	AvatarURL string
	Username  string
	Bot       bool
	Timestamp string
	Messages  []messageData
}

type messageData struct {
	Content     template.HTML
	Attachments []attachmentData
	Embeds      []embedData
}

type attachmentData struct {
	URL      string
	Filename string
	IsImage  bool
}

type embedData struct {
	Color       string
	Title       string
	URL         string
	Description template.HTML
	Fields      []fieldData
	FooterText  string
	ImageURL    string
}

type fieldData struct {
	Name   string
	Value  template.HTML
	Inline bool
}

var documentTemplate = template.Must(template.New("document").Parse(documentHTML))

const documentHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<style>
body { background-color: #313338; color: #dbdee1; font-family: 'gg sans', 'Helvetica Neue', Helvetica, Arial, sans-serif; margin: 0; padding: 20px; }
.server-header { border-bottom: 1px solid #3f4147; padding-bottom: 20px; margin-bottom: 20px; }
.channel-name { font-size: 24px; font-weight: bold; color: #f2f3f5; }
.summary { margin-top: 12px; padding: 12px; background-color: #2b2d31; border-radius: 8px; font-size: 14px; line-height: 1.4; }
.message-group { margin: 10px 0; padding: 2px 0; }
.group-header { display: flex; align-items: center; margin-bottom: 4px; }
.avatar { width: 40px; height: 40px; border-radius: 50%; margin-right: 16px; }
.username { font-weight: 500; color: #f2f3f5; font-size: 16px; margin-right: 8px; }
.bot-badge { background-color: #5865f2; color: #ffffff; font-size: 10px; font-weight: 600; border-radius: 3px; padding: 1px 4px; margin-right: 8px; text-transform: uppercase; }
.timestamp { color: #949ba4; font-size: 12px; }
.content { margin-left: 56px; font-size: 16px; line-height: 1.375; overflow-wrap: break-word; }
.content code { background-color: #2b2d31; border-radius: 3px; padding: 0 4px; font-size: 14px; }
.content pre { background-color: #2b2d31; border: 1px solid #1e1f22; border-radius: 4px; padding: 8px; white-space: pre-wrap; }
.content blockquote { border-left: 4px solid #4e5058; margin: 2px 0; padding-left: 12px; }
.content .spoiler { background-color: #1e1f22; color: #1e1f22; border-radius: 3px; }
.attachment { margin-left: 56px; margin-top: 8px; max-width: 400px; }
.attachment img { max-width: 100%; border-radius: 8px; }
.attachment a { color: #00a8fc; }
.embed { margin-left: 56px; margin-top: 8px; max-width: 432px; background-color: #2b2d31; border-left: 4px solid; border-radius: 4px; padding: 12px 16px; }
.embed-title { font-weight: 600; color: #f2f3f5; margin-bottom: 8px; }
.embed-title a { color: #00a8fc; text-decoration: none; }
.embed-description { font-size: 14px; line-height: 1.3; }
.embed-fields { display: flex; flex-wrap: wrap; gap: 8px; margin-top: 8px; }
.embed-field { flex: 0 0 100%; }
.embed-field.inline { flex: 1 1 30%; }
.embed-field-name { font-weight: 600; color: #f2f3f5; font-size: 13px; margin-bottom: 2px; }
.embed-field-value { font-size: 13px; }
.embed-image { margin-top: 12px; }
.embed-image img { max-width: 100%; border-radius: 4px; }
.embed-footer { margin-top: 8px; color: #949ba4; font-size: 12px; }
</style>
</head>
<body>
<div class="server-header">
<div class="channel-name"># {{.ChannelName}}</div>
<div class="timestamp">Archived on {{.ArchiveDate}}</div>
{{- if .Summary}}
<div class="summary">{{.Summary}}</div>
{{- end}}
</div>
{{- range .Groups}}
<div class="message-group">
<div class="group-header">
<img class="avatar" src="{{.AvatarURL}}" alt="">
<span class="username">{{.Username}}</span>
{{- if .Bot}}
<span class="bot-badge">Bot</span>
{{- end}}
<span class="timestamp">{{.Timestamp}}</span>
</div>
{{- range .Messages}}
{{- if .Content}}
<div class="content">{{.Content}}</div>
{{- end}}
{{- range .Attachments}}
<div class="attachment">
{{- if .IsImage}}
<img src="{{.URL}}" alt="Attachment">
{{- else}}
<a href="{{.URL}}">{{.Filename}}</a>
{{- end}}
</div>
{{- end}}
{{- range .Embeds}}
<div class="embed" style="border-left-color: {{.Color}}">
{{- if .Title}}
<div class="embed-title">{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</div>
{{- end}}
{{- if .Description}}
<div class="embed-description">{{.Description}}</div>
{{- end}}
{{- if .Fields}}
<div class="embed-fields">
{{- range .Fields}}
<div class="embed-field{{if .Inline}} inline{{end}}">
<div class="embed-field-name">{{.Name}}</div>
<div class="embed-field-value">{{.Value}}</div>
</div>
{{- end}}
</div>
{{- end}}
{{- if .ImageURL}}
<div class="embed-image"><img src="{{.ImageURL}}" alt=""></div>
{{- end}}
{{- if .FooterText}}
<div class="embed-footer">{{.FooterText}}</div>
{{- end}}
</div>
{{- end}}
{{- end}}
</div>
{{- end}}
</body>
</html>
`
