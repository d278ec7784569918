package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/time/rate"
)

type Config struct {
	APIKey            string        `env:"OPENAI_API_KEY"`
	BaseURL           string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	RequestTimeout    time.Duration `env:"OPENAI_REQUEST_TIMEOUT" envDefault:"100s"`
	RequestsPerMinute int           `env:"OPENAI_REQUESTS_PER_MINUTE" envDefault:"30"`
}

func ConfigFromEnv() (Config, error) {
	var config Config
	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("failed to parse AI config: %w", err)
	}
	return config, nil
}

// Client talks to an OpenAI-compatible HTTP API. Expected failures never
// cross the adapter boundary as errors; the narrative and image entry points
// fold them into their result values so callers get uniform check-and-branch
// handling.
type Client struct {
	config  Config
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 100 * time.Second
	}
	rpm := config.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	return &Client{
		config:  config,
		http:    &http.Client{Timeout: config.RequestTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
	}
}

func (c *Client) Configured() bool {
	return c.config.APIKey != ""
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// chatCompletion sends a single user-role message and returns the first
// choice's content. No streaming.
func (c *Client) chatCompletion(ctx context.Context, model string, prompt string) (string, error) {
	request := chatCompletionRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}

	var response chatCompletionResponse
	if err := c.postJSON(ctx, "/chat/completions", request, &response); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", nil
	}
	return response.Choices[0].Message.Content, nil
}
