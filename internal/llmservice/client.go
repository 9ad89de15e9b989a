package llmservice

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"review-rag/internal/config"
	"review-rag/internal/ragerror"
)

// Client calls the configured generation backend with a single-turn prompt.
type Client struct {
	llm   llms.Model
	model string
}

func New(cfg *config.LLMConfig) (*Client, error) {
	log.Debug().
		Str("provider", cfg.Provider).
		Str("base_url", cfg.BaseURL).
		Str("inference_model", cfg.Model).
		Msg("Initializing generation client")

	var llm llms.Model
	var err error
	switch cfg.Provider {
	case "openai":
		llm, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	default:
		llm, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	}
	if err != nil {
		return nil, err
	}
	return &Client{llm: llm, model: cfg.Model}, nil
}

// Generate sends the prompt as one human message and returns the completion.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	res, err := c.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", ragerror.New(ragerror.KindGeneration, "llmservice.Generate", err).
			With("model", c.model)
	}
	if len(res.Choices) == 0 {
		return "", ragerror.New(ragerror.KindGeneration, "llmservice.Generate", errors.New("empty model response")).
			With("model", c.model)
	}
	return res.Choices[0].Content, nil
}
