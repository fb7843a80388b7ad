package jobplace

import (
	"context"
	"errors"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/ssestream"
)

// MockOpenAIClient replays scripted completions and records every request.
type MockOpenAIClient struct {
	mu          sync.Mutex
	Completions []*openai.ChatCompletion
	Error       error
	Params      []openai.ChatCompletionNewParams
}

func NewMockOpenAIClient(completions ...*openai.ChatCompletion) *MockOpenAIClient {
	return &MockOpenAIClient{Completions: completions}
}

func (m *MockOpenAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Params = append(m.Params, params)
	if m.Error != nil {
		return nil, m.Error
	}
	if len(m.Completions) == 0 {
		return nil, errors.New("mock: no completion scripted")
	}
	c := m.Completions[0]
	// the last completion repeats forever
	if len(m.Completions) > 1 {
		m.Completions = m.Completions[1:]
	}
	return c, nil
}

func (m *MockOpenAIClient) CreateChatCompletionStream(ctx context.Context, params openai.ChatCompletionNewParams) (*ssestream.Stream[openai.ChatCompletionChunk], error) {
	return nil, errors.New("mock: streaming not supported")
}

func (m *MockOpenAIClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Params)
}

// answer builds a completion carrying final content.
func answer(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		ID: "chatcmpl-answer",
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Content: content},
		}},
		Usage: openai.CompletionUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

// toolCalls builds a completion asking for the given tool calls.
func toolCalls(calls ...openai.ChatCompletionMessageToolCall) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		ID: "chatcmpl-tools",
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{ToolCalls: calls},
		}},
		Usage: openai.CompletionUsage{PromptTokens: 20, CompletionTokens: 8, TotalTokens: 28},
	}
}

// MockToolCall is a compact tool call description.
type MockToolCall struct {
	ID   string
	Name string
	Args string
}

func (m MockToolCall) ToOpenAI() openai.ChatCompletionMessageToolCall {
	return openai.ChatCompletionMessageToolCall{
		ID: m.ID,
		Function: openai.ChatCompletionMessageToolCallFunction{
			Name:      m.Name,
			Arguments: m.Args,
		},
	}
}
