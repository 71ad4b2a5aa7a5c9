// Package summary generates short channel overviews with Google's Gemini
// API for the top of each archived document.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/sankethshetty99/discord-archiver/internal/config"
	"github.com/sankethshetty99/discord-archiver/internal/discord"
	"github.com/sankethshetty99/discord-archiver/internal/sanitize"
)

const systemInstruction = `You summarize archived chat transcripts. Given the message history of one channel, write a compact overview for the top of the archive document: two to four sentences covering the main topics, the most active participants, and any notable decisions or events. Refer to participants by username. Write plain prose with no markup, headings, or lists.`

// Client defines the AI summary operation used by archive workers.
type Client interface {
	// Summarize produces a short prose overview of a channel's history.
	// Messages arrive newest first, as the source API returns them.
	Summarize(ctx context.Context, channelName string, msgs []discord.Message) (string, error)
}

type sdkClient struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	model         string
	maxRetries    int
	retryDelay    time.Duration
}

// NewClient creates a Gemini-backed summary client.
func NewClient(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	contentConfig := &genai.GenerateContentConfig{
		Temperature:       &cfg.Temperature,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},

		// Archived channels contain arbitrary user content; blocking the
		// summary over it would block the whole feature.
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}

	logger := log.With("component", "summary_client")
	logger.Info("Summary client initialized", "model", cfg.Model)
	return &sdkClient{
		genaiClient:   gi,
		log:           logger,
		contentConfig: contentConfig,
		model:         cfg.Model,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

func (c *sdkClient) Summarize(ctx context.Context, channelName string, msgs []discord.Message) (string, error) {
	if len(msgs) == 0 {
		return "", nil
	}
	c.log.DebugContext(ctx, "Generating channel summary", "channel", channelName, "message_count", len(msgs))

	contents := []*genai.Content{
		genai.NewContentFromText(buildPrompt(channelName, msgs), genai.RoleUser),
	}

	resp, err := c.generateWithRetries(ctx, contents)
	if err != nil {
		return "", fmt.Errorf("summary generation failed: %w", err)
	}
	return c.extractText(ctx, resp)
}

// generateWithRetries calls the API, retrying server-side failures (HTTP
// 500 and 503) up to maxRetries times with a fixed delay. Every other
// failure returns immediately.
func (c *sdkClient) generateWithRetries(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.model, contents, c.contentConfig)
		if err == nil {
			return resp, nil
		}

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < c.maxRetries {
				c.log.WarnContext(ctx, "Gemini API call failed, retrying",
					"attempt", i+1, "code", apiErr.Code, "delay", c.retryDelay)
				time.Sleep(c.retryDelay)
				continue
			}
			return nil, fmt.Errorf("gemini API call failed after %d retries (APIError code %d): %w",
				c.maxRetries, apiErr.Code, err)
		}

		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return nil, err
}

func (c *sdkClient) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Summary request blocked", "reason", reason)
		return "", fmt.Errorf("summary blocked by safety filter: %s", reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("summary returned no content")
	}

	text := sanitize.Prose(resp.Text())
	if text == "" {
		return "", fmt.Errorf("summary returned empty text")
	}
	return text, nil
}

// buildPrompt renders the transcript chronologically, most recent window
// only, one line per message.
func buildPrompt(channelName string, msgs []discord.Message) string {
	if len(msgs) > maxPromptMessages {
		msgs = msgs[:maxPromptMessages]
	}
	msgs = promptWindow(msgs)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Channel: #%s\n\nTranscript:\n", channelName)
	for i := len(msgs) - 1; i >= 0; i-- {
		sb.WriteString(formatMessage(msgs[i]))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatMessage(m discord.Message) string {
	content := m.Content
	if content == "" && len(m.Attachments) > 0 {
		content = fmt.Sprintf("(attachment: %s)", m.Attachments[0].Filename)
	}
	return fmt.Sprintf("[%s] %s: %s", m.Timestamp, m.Author.Username, content)
}
