package jobplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
)

var (
	// ErrEmptyMessages indicates that the messages array is empty when making a request.
	ErrEmptyMessages = errors.New("messages cannot be empty")

	// ErrInvalidToolCall indicates that a tool call request was malformed or invalid.
	ErrInvalidToolCall = errors.New("invalid tool call")

	// ErrInvalidInstruction is returned when Agent.Instructions is neither a
	// string nor a func() string.
	ErrInvalidInstruction = errors.New("invalid agent instructions")

	// ErrMaxTurns is returned when the model keeps calling tools past the turn limit.
	ErrMaxTurns = errors.New("max turns reached without a final answer")

	// ErrNoChoices is returned when a completion carries no choices.
	ErrNoChoices = errors.New("chat completion returned no choices")
)

// DefaultMaxTurns bounds the number of chat completions in one run.
const DefaultMaxTurns = 10

// RunOptions tunes a single Runner.Run call.
type RunOptions struct {
	// ModelOverride replaces the agent's model when set
	ModelOverride string

	// MaxTurns caps chat completions; DefaultMaxTurns when zero
	MaxTurns int

	// SkipTools returns the first completion without executing tool calls
	SkipTools bool

	// Stream requests streamed completions; OnToken receives content deltas
	Stream  bool
	OnToken func(string)

	// Trace prints each step when non-nil
	Trace *Trace
}

// Runner drives the tool calling loop between an agent and the chat completion API.
type Runner struct {
	// Client is the interface to OpenAI's API
	Client OpenAIClient

	logger *Logger
}

// NewRunner creates a new Runner with the provided OpenAI client.
func NewRunner(client OpenAIClient, logger *Logger) *Runner {
	if client == nil {
		panic("OpenAI client cannot be nil")
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Runner{Client: client, logger: logger}
}

// getInstructions safely extracts instructions from the agent based on its type.
func (r *Runner) getInstructions(agent *Agent) (string, error) {
	switch i := agent.Instructions.(type) {
	case string:
		return i, nil
	case func() string:
		return i(), nil
	default:
		return "", ErrInvalidInstruction
	}
}

// completionParams builds the request for the next turn.
func (r *Runner) completionParams(agent *Agent, history []Message, modelOverride string) (openai.ChatCompletionNewParams, error) {
	instructions, err := r.getInstructions(agent)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	model := modelOverride
	if model == "" {
		model = agent.Model
	}

	params := openai.ChatCompletionNewParams{
		Messages: prepareMessages(instructions, history, model),
		Model:    openai.ChatModel(model),
	}
	if agent.Temperature != nil {
		params.Temperature = openai.Float(*agent.Temperature)
	}
	if tools := prepareTools(agent); len(tools) > 0 {
		params.Tools = tools
		if agent.ToolChoice != nil {
			params.ToolChoice = *agent.ToolChoice
		}
	}
	return params, nil
}

func prepareTools(agent *Agent) []openai.ChatCompletionToolParam {
	var tools []openai.ChatCompletionToolParam
	for _, f := range agent.Functions {
		if f == nil {
			continue
		}
		tools = append(tools, FunctionToTool(f))
	}
	return tools
}

// prepareMessages converts the history into request messages. Reasoning
// models do not accept a system role, so the instructions go in a user message.
func prepareMessages(instructions string, history []Message, model string) []openai.ChatCompletionMessageParamUnion {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(instructions),
	}
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.Contains(strings.ToLower(model), "deepseek") {
		messages = []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(instructions),
		}
	}

	for _, msg := range history {
		switch msg.Role {
		case RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case RoleSystem:
			// instructions already carry the system prompt
		case RoleTool:
			messages = append(messages, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			assistantMsg := openai.AssistantMessage(msg.Content)
			if len(msg.ToolCalls) > 0 {
				toolCallParams := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					toolCallParams[i] = openai.ChatCompletionMessageToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      tc.Function.Name,
							Arguments: tc.Function.Arguments,
						},
					}
				}
				assistantMsg.OfAssistant.ToolCalls = toolCallParams
			}
			messages = append(messages, assistantMsg)
		}
	}
	return messages
}

func assistantMessage(sender string, m openai.ChatCompletionMessage) Message {
	return Message{
		Role:      RoleAssistant,
		Content:   m.Content,
		Sender:    sender,
		ToolCalls: m.ToolCalls,
	}
}

func toolErrorMessage(call openai.ChatCompletionMessageToolCall, errMsg string) Message {
	return Message{
		Role:       RoleTool,
		ToolCallID: call.ID,
		ToolName:   call.Function.Name,
		Content:    fmt.Sprintf("Error: %s", errMsg),
	}
}

// handleToolCalls executes every tool call and returns one tool message per
// call. Failures are reported to the model as tool content rather than
// aborting the run.
func (r *Runner) handleToolCalls(
	ctx context.Context,
	toolCalls []openai.ChatCompletionMessageToolCall,
	functions []AgentFunction,
	trace *Trace,
) ([]Message, error) {
	if len(toolCalls) == 0 {
		return nil, fmt.Errorf("%w: no tool calls provided", ErrInvalidToolCall)
	}

	functionMap := make(map[string]AgentFunction, len(functions))
	for _, f := range functions {
		if f != nil {
			functionMap[f.Name()] = f
		}
	}

	messages := make([]Message, 0, len(toolCalls))
	for _, toolCall := range toolCalls {
		name := toolCall.Function.Name
		trace.ToolCall(name, toolCall.Function.Arguments)

		fn, exists := functionMap[name]
		if !exists {
			errMsg := fmt.Sprintf("Tool %q not found in function map", name)
			r.logger.Warn("unknown tool requested", "tool", name)
			messages = append(messages, toolErrorMessage(toolCall, errMsg))
			continue
		}

		args := map[string]interface{}{}
		if strings.TrimSpace(toolCall.Function.Arguments) != "" {
			if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
				errMsg := fmt.Sprintf("Failed to parse arguments for tool %q: %v", name, err)
				r.logger.Warn("bad tool arguments", "tool", name, "err", err)
				messages = append(messages, toolErrorMessage(toolCall, errMsg))
				continue
			}
		}

		rawResult, err := fn.Call(ctx, args)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			errMsg := fmt.Sprintf("Function %q execution failed: %v", name, err)
			r.logger.Warn("tool failed", "tool", name, "err", err)
			messages = append(messages, toolErrorMessage(toolCall, errMsg))
			continue
		}

		content, err := stringifyResult(rawResult)
		if err != nil {
			errMsg := fmt.Sprintf("Failed to handle result for tool %q: %v", name, err)
			messages = append(messages, toolErrorMessage(toolCall, errMsg))
			continue
		}

		trace.ToolResult(content)
		messages = append(messages, Message{
			Role:       RoleTool,
			ToolCallID: toolCall.ID,
			ToolName:   name,
			Content:    content,
		})
	}

	return messages, nil
}

// streamCompletion requests one streamed completion and accumulates it into a message.
func (r *Runner) streamCompletion(ctx context.Context, params openai.ChatCompletionNewParams, onToken func(string)) (openai.ChatCompletionMessage, openai.CompletionUsage, error) {
	stream, err := r.Client.CreateChatCompletionStream(ctx, params)
	if err != nil {
		return openai.ChatCompletionMessage{}, openai.CompletionUsage{}, err
	}
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if onToken != nil && len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			onToken(chunk.Choices[0].Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return openai.ChatCompletionMessage{}, openai.CompletionUsage{}, fmt.Errorf("stream error: %w", err)
	}
	if len(acc.Choices) == 0 {
		return openai.ChatCompletionMessage{}, openai.CompletionUsage{}, ErrNoChoices
	}
	return acc.Choices[0].Message, acc.Usage, nil
}

// Run executes an interaction with the chat model using the provided agent.
// Each turn requests a completion; tool calls in the reply are executed and
// their results appended before the next turn. The run ends at the first
// reply without tool calls.
//
// It returns ErrMaxTurns when opts.MaxTurns completions all asked for tools.
func (r *Runner) Run(ctx context.Context, agent *Agent, messages []Message, opts RunOptions) (*Response, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyMessages
	}
	if agent == nil {
		return nil, errors.New("agent cannot be nil")
	}

	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	history := make([]Message, len(messages))
	copy(history, messages)
	initLen := len(messages)

	response := &Response{Agent: agent}
	opts.Trace.Begin(agent.Name)

	for response.Turns < maxTurns {
		params, err := r.completionParams(agent, history, opts.ModelOverride)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("requesting chat completion",
			"agent", agent.Name,
			"model", params.Model,
			"turn", response.Turns+1,
			"messages", len(params.Messages),
		)

		var (
			reply openai.ChatCompletionMessage
			usage openai.CompletionUsage
		)
		if opts.Stream {
			reply, usage, err = r.streamCompletion(ctx, params, opts.OnToken)
			if err != nil {
				return nil, err
			}
		} else {
			completion, err := r.Client.CreateChatCompletion(ctx, params)
			if err != nil {
				return nil, err
			}
			if completion == nil || len(completion.Choices) == 0 {
				return nil, ErrNoChoices
			}
			reply, usage = completion.Choices[0].Message, completion.Usage
		}
		response.Turns++
		response.Usage.add(usage)

		message := assistantMessage(agent.Name, reply)
		history = append(history, message)
		r.logger.Debug("received completion",
			"agent", agent.Name,
			"tool_calls", len(message.ToolCalls),
			"content_len", len(message.Content),
		)

		if len(message.ToolCalls) == 0 || opts.SkipTools {
			trace := opts.Trace
			trace.Answer(message.Content)
			trace.End()
			response.Messages = history[initLen:]
			return response, nil
		}

		toolMessages, err := r.handleToolCalls(ctx, message.ToolCalls, agent.Functions, opts.Trace)
		if err != nil {
			return nil, err
		}
		history = append(history, toolMessages...)
	}

	return nil, fmt.Errorf("%w (%d turns)", ErrMaxTurns, maxTurns)
}
