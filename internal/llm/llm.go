// Package llm is a thin opaque collaborator client for the LLM
// provider used to generate JSON extraction and summary formats. It
// intentionally carries no prompt engineering or provider-specific
// logic: the provider is treated as a JSON-returning chat endpoint,
// with robust extraction of fenced/unfenced JSON.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"kirk-crawl/internal/kerrors"
)

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// Client is a minimal OpenAI-compatible chat client, configured with a
// base URL so any compatible provider (OpenAI, Ollama, local gateway)
// can be wired in without code changes.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

// New builds a Client with a 60s-timeout HTTP client.
func New(baseURL, apiKey, model string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey, Model: model, HTTP: &http.Client{Timeout: 60 * time.Second}}
}

type wireMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message wireMsg `json:"message"`
	} `json:"choices"`
}

// Chat sends messages and returns the raw assistant content. When
// jsonMode is set, a response_format hint is attached for providers
// that support native structured output.
func (c *Client) Chat(ctx context.Context, messages []Message, jsonMode bool) (string, error) {
	wire := make([]wireMsg, len(messages))
	for i, m := range messages {
		wire[i] = wireMsg{Role: m.Role, Content: m.Content}
	}

	body := map[string]any{
		"model":    c.Model,
		"messages": wire,
	}
	if jsonMode {
		body["response_format"] = map[string]string{"type": "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", kerrors.Wrap(kerrors.KindLLM, "marshal chat request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", kerrors.Wrap(kerrors.KindLLM, "build chat request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", kerrors.Wrap(kerrors.KindProvider, "llm request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", kerrors.New(kerrors.KindProvider, fmt.Sprintf("llm provider returned status %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", kerrors.Wrap(kerrors.KindLLM, "decode llm response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", kerrors.New(kerrors.KindLLM, "llm response had no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

var fencedJSONRE = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\}|\\[.*\\])\\s*```")
var bareJSONRE = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)

// ChatJSON sends messages in JSON mode and decodes the result into an
// untyped map, extracting JSON from a fenced or unfenced response if
// the provider doesn't honour json_mode strictly.
func (c *Client) ChatJSON(ctx context.Context, messages []Message) (map[string]any, error) {
	raw, err := c.Chat(ctx, messages, true)
	if err != nil {
		return nil, err
	}

	candidate := raw
	if m := fencedJSONRE.FindStringSubmatch(raw); m != nil {
		candidate = m[1]
	} else if m := bareJSONRE.FindStringSubmatch(raw); m != nil {
		candidate = m[1]
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		return nil, kerrors.Wrap(kerrors.KindLLM, "extract json from llm response", err)
	}
	return out, nil
}
