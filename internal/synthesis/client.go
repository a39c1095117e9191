package synthesis

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ketyia/aidiary/internal/diary"
	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
)

// ClientConfig describes the generative service connection and deployments.
type ClientConfig struct {
	Endpoint        string
	APIKey          string
	APIVersion      string
	ChatDeployment  string
	ImageDeployment string
	HTTPClient      *http.Client
	Clock           func() time.Time
}

// Client wraps the generative text and image endpoints behind one connection.
type Client struct {
	api             openaigo.Client
	chatDeployment  string
	imageDeployment string
	clock           func() time.Time
}

// NewClient constructs the synthesis client against an Azure OpenAI resource.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("synthesis: endpoint is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("synthesis: api key is required")
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		return nil, fmt.Errorf("synthesis: api version is required")
	}
	if strings.TrimSpace(cfg.ChatDeployment) == "" {
		return nil, fmt.Errorf("synthesis: chat deployment is required")
	}
	if strings.TrimSpace(cfg.ImageDeployment) == "" {
		return nil, fmt.Errorf("synthesis: image deployment is required")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	opts := []option.RequestOption{
		azure.WithEndpoint(strings.TrimSpace(cfg.Endpoint), strings.TrimSpace(cfg.APIVersion)),
		azure.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		api:             openaigo.NewClient(opts...),
		chatDeployment:  strings.TrimSpace(cfg.ChatDeployment),
		imageDeployment: strings.TrimSpace(cfg.ImageDeployment),
		clock:           clock,
	}, nil
}

// ComposeDiary produces a first-person diary narrative from the staged
// questionnaire. The first completion's text is returned unmodified.
func (c *Client) ComposeDiary(ctx context.Context, questionnaire diary.Questionnaire) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
		Model: openaigo.ChatModel(c.chatDeployment),
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.SystemMessage(personaPrompt(questionnaire)),
			openaigo.UserMessage(dayPrompt(c.clock(), questionnaire)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("synthesis: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("synthesis: chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage produces one illustrative image for the narrative and returns
// the transient URL the service hosts it under. The URL is only valid for a
// short service-defined window; callers must copy the bytes promptly.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.Images.Generate(ctx, openaigo.ImageGenerateParams{
		Model:  openaigo.ImageModel(c.imageDeployment),
		Prompt: prompt,
		N:      openaigo.Int(1),
	})
	if err != nil {
		return "", fmt.Errorf("synthesis: image generation: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("synthesis: image generation returned no url")
	}
	return resp.Data[0].URL, nil
}
