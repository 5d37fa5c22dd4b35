package analyzer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/qepting91/redditwatch/internal/domain"
)

const (
	claudeAPIURL     = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"

	// selftextCap limits how much post body goes into the prompt.
	selftextCap = 500
)

// ClaudeProvider scores relevance through the Anthropic messages API.
type ClaudeProvider struct {
	rest  *resty.Client
	model string
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClaudeProvider creates a provider for the given API key and model.
func NewClaudeProvider(apiKey, model string) *ClaudeProvider {
	rest := resty.New().
		SetBaseURL(claudeAPIURL).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetTimeout(120 * time.Second) // LLM calls can be slow

	return &ClaudeProvider{rest: rest, model: model}
}

// Relevance asks the model to rate the post against the keywords on a 0-1
// scale and parses the bare number it replies with.
func (cp *ClaudeProvider) Relevance(ctx context.Context, post domain.Post, keywords []string) (float64, error) {
	body := claudeRequest{
		Model:     cp.model,
		MaxTokens: 16,
		Messages: []claudeMessage{
			{Role: "user", Content: buildPrompt(post, keywords)},
		},
	}

	var result claudeResponse
	resp, err := cp.rest.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&result).
		Post("/v1/messages")
	if err != nil {
		return 0, fmt.Errorf("calling Claude API: %w", err)
	}
	if resp.IsError() {
		if result.Error != nil {
			return 0, fmt.Errorf("claude: %s: %s", result.Error.Type, result.Error.Message)
		}
		return 0, fmt.Errorf("claude: unexpected status %d", resp.StatusCode())
	}

	var text string
	for _, block := range result.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return 0, fmt.Errorf("claude: empty response")
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("claude: unparseable score %q: %w", text, err)
	}
	if score < 0 || score > 1 {
		return 0, fmt.Errorf("claude: score %v out of range", score)
	}
	return score, nil
}

func buildPrompt(post domain.Post, keywords []string) string {
	selftext := post.Selftext
	if len(selftext) > selftextCap {
		// Back up to a rune boundary so the prompt stays valid UTF-8.
		cut := selftextCap
		for cut > 0 && !utf8.RuneStart(selftext[cut]) {
			cut--
		}
		selftext = selftext[:cut]
	}

	var sb strings.Builder
	sb.WriteString("Post Title: " + post.Title + "\n")
	sb.WriteString("Post Content: " + selftext + "\n\n")
	sb.WriteString("Keywords I care about: " + strings.Join(keywords, ", ") + "\n\n")
	sb.WriteString("Rate how relevant this post is to those keywords on a scale of 0-1.\n")
	sb.WriteString("Respond with just a number between 0 and 1.")
	return sb.String()
}
