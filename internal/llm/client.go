package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ChatCompleter abstracts the OpenAI chat completions API for
// testability.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

const systemPrompt = "You are an expert cryptocurrency market analyst. " +
	"Always answer with a single JSON object and nothing else."

// defaultTimeout caps a completion call when no timeout is configured,
// so a hung request degrades to the fallback path instead of stalling
// a run.
const defaultTimeout = 10 * time.Second

// Client is the reasoning capability shared by the sentiment collector
// and the signal synthesizer.
type Client struct {
	tracer  trace.Tracer
	chat    ChatCompleter
	model   string
	timeout time.Duration
}

// New returns nil when apiKey is empty; callers treat a nil client as
// an unconfigured reasoning capability and fall back.
func New(tracer trace.Tracer, apiKey, model string, timeout time.Duration) *Client {
	if apiKey == "" {
		return nil
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		tracer:  tracer,
		chat:    &openaiChat{client: client},
		model:   model,
		timeout: timeout,
	}
}

// Complete sends one prompt and returns the raw text of the first
// choice. The call is always bounded by the configured timeout.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "llm.complete")
	defer span.End()

	timeout := c.timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	span.SetAttributes(
		attribute.String("llm.model", c.model),
		attribute.Int("llm.prompt_length", len(prompt)),
	)

	completion, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	reply := completion.Choices[0].Message.Content
	span.SetAttributes(attribute.Int("llm.reply_length", len(reply)))
	return reply, nil
}

type openaiChat struct {
	client openai.Client
}

func (c *openaiChat) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
