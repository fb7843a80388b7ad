package jobplace

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// DefaultAzureAPIVersion is used when an Azure endpoint is configured without a version.
const DefaultAzureAPIVersion = "2024-06-01"

// OpenAIClient defines the interface for OpenAI API interactions
type OpenAIClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
	CreateChatCompletionStream(ctx context.Context, params openai.ChatCompletionNewParams) (*ssestream.Stream[openai.ChatCompletionChunk], error)
}

// OpenAIOptions configures the client built by NewOpenAIClientWithOptions.
type OpenAIOptions struct {
	APIKey       string
	BaseURL      string
	Organization string
	MaxRetries   int
	Timeout      time.Duration
	HTTPClient   *http.Client

	// AzureEndpoint switches the client to Azure OpenAI when set
	AzureEndpoint   string
	AzureAPIVersion string
}

// openAIClientWrapper wraps the OpenAI client
type openAIClientWrapper struct {
	client openai.Client
}

// NewOpenAIClient creates a new OpenAI client wrapper
func NewOpenAIClient(apiKey string) OpenAIClient {
	if apiKey == "" {
		return nil
	}
	return NewOpenAIClientWithOptions(OpenAIOptions{APIKey: apiKey, MaxRetries: 2})
}

// NewOpenAIClientWithBaseURL creates a new OpenAI client wrapper with a custom base URL
func NewOpenAIClientWithBaseURL(apiKey string, baseURL string) OpenAIClient {
	if apiKey == "" {
		return nil
	}
	return NewOpenAIClientWithOptions(OpenAIOptions{APIKey: apiKey, BaseURL: baseURL, MaxRetries: 2})
}

// NewAzureOpenAIClient creates a new OpenAI client wrapper for Azure
func NewAzureOpenAIClient(apiKey, endpoint, apiVersion string) OpenAIClient {
	if apiKey == "" || endpoint == "" {
		return nil
	}
	return NewOpenAIClientWithOptions(OpenAIOptions{
		APIKey:          apiKey,
		AzureEndpoint:   endpoint,
		AzureAPIVersion: apiVersion,
		MaxRetries:      2,
	})
}

// NewOpenAIClientWithOptions creates a client wrapper from explicit options.
// It returns nil when no API key is given.
func NewOpenAIClientWithOptions(o OpenAIOptions) OpenAIClient {
	if o.APIKey == "" {
		return nil
	}

	var opts []option.RequestOption
	if o.AzureEndpoint != "" {
		version := o.AzureAPIVersion
		if version == "" {
			version = DefaultAzureAPIVersion
		}
		opts = append(opts, azure.WithEndpoint(o.AzureEndpoint, version), azure.WithAPIKey(o.APIKey))
	} else {
		opts = append(opts, option.WithAPIKey(o.APIKey))
		if o.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(o.BaseURL))
		}
	}
	if o.Organization != "" {
		opts = append(opts, option.WithOrganization(o.Organization))
	}
	if o.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(o.MaxRetries))
	}
	if o.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(o.Timeout))
	}
	if o.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(o.HTTPClient))
	}

	return &openAIClientWrapper{client: openai.NewClient(opts...)}
}

// CreateChatCompletion implements OpenAIClient interface
func (c *openAIClientWrapper) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}

	return completion, nil
}

// CreateChatCompletionStream implements OpenAIClient interface
func (c *openAIClientWrapper) CreateChatCompletionStream(ctx context.Context, params openai.ChatCompletionNewParams) (*ssestream.Stream[openai.ChatCompletionChunk], error) {
	if ctx == nil {
		ctx = context.Background()
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	if stream == nil {
		return nil, fmt.Errorf("failed to create streaming completion")
	}

	return stream, nil
}
