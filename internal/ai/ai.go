// Package ai is the script-generation boundary. The pipeline hands it
// ranked themes and gets back parsed dialogue segments; everything about
// prose quality lives on the other side of this interface.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/cluster"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/retry"
	"github.com/fayadabbasi3-MOR/ai-podcast-generator/internal/script"
	"go.uber.org/zap"
)

// Generator produces a two-speaker script from the run's themes.
type Generator interface {
	GenerateScript(ctx context.Context, themes []cluster.Theme) ([]script.Segment, error)
}

// Options configures the Claude generator.
type Options struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewClaude builds a Generator backed by the Anthropic messages API.
func NewClaude(opts Options, log *zap.Logger) (Generator, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("script generation not configured: ANTHROPIC_API_KEY not set")
	}
	if opts.Model == "" {
		opts.Model = "claude-sonnet-4-5"
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 8192
	}
	return &claudeGenerator{
		opts:   opts,
		client: &http.Client{Timeout: 120 * time.Second},
		log:    log,
	}, nil
}

const systemPrompt = `You write the script for a weekly two-host audio news digest covering AI industry announcements. Speakers are an INTERVIEWER who guides the conversation and an EXPERT who explains the substance. You will receive a JSON list of themes, each with a summary and source URLs, ordered by importance.

Rules:
- Cover the themes in the order given.
- Before the first line about theme N, emit a marker line: [THEME N]
- Every spoken line starts with [INTERVIEWER]: or [EXPERT]: followed by the line's text.
- Target 1500-2000 words total. Open with a short welcome, close with a short sign-off.
- Plain conversational prose. No markdown, no stage directions, no URLs read aloud.`

type claudeGenerator struct {
	opts   Options
	client *http.Client
	log    *zap.Logger
}

// themePayload is the only view of a theme the generator sees.
type themePayload struct {
	Position int      `json:"position"`
	Summary  string   `json:"summary"`
	Sources  []string `json:"sources"`
}

func (g *claudeGenerator) GenerateScript(ctx context.Context, themes []cluster.Theme) ([]script.Segment, error) {
	payload := make([]themePayload, len(themes))
	for i, t := range themes {
		payload[i] = themePayload{
			Position: i + 1,
			Summary:  t.Summary,
			Sources:  t.URLs(),
		}
	}
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}

	messages := []message{{Role: "user", Content: string(body)}}

	raw, err := g.call(ctx, messages)
	if err != nil {
		return nil, err
	}

	segments, perr := script.Parse(raw)
	if perr == nil {
		return segments, nil
	}

	// One correction round: feed the malformed transcript back with a
	// format reminder before giving up.
	g.log.Warn("script parse failed, requesting format correction", zap.Error(perr))
	messages = append(messages,
		message{Role: "assistant", Content: raw},
		message{Role: "user", Content: "Please reformat your response using [THEME N], [INTERVIEWER]: and [EXPERT]: tags exactly as instructed."},
	)

	raw, err = g.call(ctx, messages)
	if err != nil {
		return nil, err
	}
	return script.Parse(raw)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// apiStatusError marks HTTP failures so retry can tell transient codes
// from permanent ones.
type apiStatusError struct {
	status int
	body   string
}

func (e *apiStatusError) Error() string {
	return fmt.Sprintf("claude API %d: %s", e.status, e.body)
}

func retryableStatus(err error) bool {
	if se, ok := err.(*apiStatusError); ok {
		return se.status == http.StatusTooManyRequests || se.status == 500 || se.status == 503
	}
	return true
}

func (g *claudeGenerator) call(ctx context.Context, messages []message) (string, error) {
	var text string
	err := retry.Do(ctx, retry.Config{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		Multiplier:   4.0,
		Retryable:    retryableStatus,
	}, func() error {
		var cerr error
		text, cerr = g.callOnce(ctx, messages)
		return cerr
	})
	return text, err
}

func (g *claudeGenerator) callOnce(ctx context.Context, messages []message) (string, error) {
	body, _ := json.Marshal(claudeRequest{
		Model:       g.opts.Model,
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
		System:      systemPrompt,
		Messages:    messages,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.opts.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &apiStatusError{status: resp.StatusCode, body: string(b)}
	}

	var cr claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Content) == 0 {
		return "", fmt.Errorf("empty claude response")
	}
	return cr.Content[0].Text, nil
}
