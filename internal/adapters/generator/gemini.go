// Package generator provides ports.Generator implementations backed by hosted models.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/baditaflorin/go_prompt_score/internal/ports"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when Config.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// Config holds configuration for the Gemini generator.
type Config struct {
	APIKey string
	Model  string
	Retry  RetryPolicy
}

// DefaultConfig returns a default configuration without an API key.
func DefaultConfig() Config {
	return Config{
		Model: DefaultModel,
		Retry: DefaultRetryPolicy(),
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("gemini API key is required")
	}
	return c.Retry.Validate()
}

// Gemini generates text with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	retry  RetryPolicy
	logger ports.Logger
}

// NewGemini creates a Gemini generator.
func NewGemini(ctx context.Context, config Config, logger ports.Logger) (*Gemini, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  config.Model,
		retry:  config.Retry,
		logger: logger,
	}, nil
}

// Generate sends prompt as a single user turn and returns the response text.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	var out string
	err := g.retry.Do(ctx, g.logger, func(ctx context.Context) error {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		if err != nil {
			return err
		}
		out = resp.Text()
		return nil
	})
	if err != nil {
		g.logger.Error("Generation failed", "model", g.model, "error", err)
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	g.logger.Info("Generated text",
		"model", g.model,
		"promptLength", len(prompt),
		"outputLength", len(out),
		"duration", time.Since(start),
	)
	return out, nil
}

// Ping issues a minimal request to check that the API key is usable.
func (g *Gemini) Ping(ctx context.Context) error {
	_, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text("ping"), nil)
	if err != nil {
		return fmt.Errorf("gemini ping: %w", err)
	}
	return nil
}

// Func adapts a plain function to ports.Generator.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var (
	_ ports.Generator = (*Gemini)(nil)
	_ ports.Generator = Func(nil)
)
