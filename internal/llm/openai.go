package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/mrhollen/knowledgebase/internal/models"
)

const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
)

type OpenAIConfig struct {
	Provider       string
	BaseURL        string
	APIVersion     string
	APIKey         string
	EmbeddingModel string
	ChatModel      string
	Timeout        time.Duration
}

// OpenAIClient talks to OpenAI or an Azure OpenAI deployment. It satisfies
// both Embedder and Generator.
type OpenAIClient struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	chatModel      string
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key cannot be empty")
	}

	var clientConfig openai.ClientConfig
	switch cfg.Provider {
	case ProviderAzure:
		if cfg.BaseURL == "" {
			return nil, errors.New("azure endpoint cannot be empty")
		}
		clientConfig = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			clientConfig.APIVersion = cfg.APIVersion
		}
	case ProviderOpenAI, "":
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	embeddingModel, err := parseEmbeddingModel(cfg.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = "gpt-4o"
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(clientConfig),
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
	}, nil
}

func (c *OpenAIClient) EmbeddingModel() string {
	return c.embeddingModel.String()
}

// parseEmbeddingModel maps a configured model name onto the client library's
// model enum. Names the library does not know would be sent as "unknown", so
// they are rejected here instead of at the first embed call.
func parseEmbeddingModel(name string) (openai.EmbeddingModel, error) {
	if name == "" {
		return openai.AdaEmbeddingV2, nil
	}
	var model openai.EmbeddingModel
	if err := model.UnmarshalText([]byte(name)); err != nil {
		return openai.Unknown, fmt.Errorf("parse embedding model %q: %w", name, err)
	}
	if model == openai.Unknown {
		return openai.Unknown, fmt.Errorf("unsupported embedding model %q", name)
	}
	return model, nil
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.embeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("no embedding returned from llm server")
	}

	return resp.Data[0].Embedding, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt string, history []Turn, userPrompt string, temperature float32, maxTokens int) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    chatRole(turn.Role),
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	// temperature is omitempty on the wire, so an explicit zero would fall
	// back to the server default of 1.
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from llm server")
	}

	return resp.Choices[0].Message.Content, nil
}

func chatRole(role models.Role) string {
	switch role {
	case models.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case models.RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}
