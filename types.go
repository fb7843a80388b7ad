package jobplace

import (
	"context"
	"reflect"

	"github.com/openai/openai-go"
)

// DefaultModel is the chat model used when neither the config nor the caller picks one.
const DefaultModel = "gpt-3.5-turbo-1106"

// AgentFunction represents a callable function that can be used by an agent.
type AgentFunction interface {
	// Call executes the function with given arguments
	Call(ctx context.Context, args map[string]interface{}) (interface{}, error)
	// Description returns the function's documentation
	Description() string
	// Name returns the function's name
	Name() string
	// Parameters returns the function's parameters
	Parameters() []Parameter
}

// SimpleAgentFunction is a helper struct to create AgentFunction from a simple function
type SimpleAgentFunction struct {
	CallFn         func(context.Context, map[string]interface{}) (interface{}, error)
	DescString     string
	NameString     string
	ParametersList []Parameter
}

func (f *SimpleAgentFunction) Call(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return f.CallFn(ctx, args)
}

func (f *SimpleAgentFunction) Description() string {
	return f.DescString
}

func (f *SimpleAgentFunction) Name() string {
	return f.NameString
}

func (f *SimpleAgentFunction) Parameters() []Parameter {
	return f.ParametersList
}

// NewAgentFunction creates a new AgentFunction from a function and description
func NewAgentFunction(name string, desc string, fn func(context.Context, map[string]interface{}) (interface{}, error), parameters []Parameter) AgentFunction {
	return &SimpleAgentFunction{
		CallFn:         fn,
		DescString:     desc,
		NameString:     name,
		ParametersList: parameters,
	}
}

// Parameter describes one argument of an AgentFunction as exposed to the model.
type Parameter struct {
	Name        string
	Description string
	Type        reflect.Type
	Required    bool
}

// Agent represents a model configuration together with the tools it may call.
type Agent struct {
	// Name identifies the agent in traces and history
	Name string

	// Model specifies the chat model to use (e.g., "gpt-3.5-turbo-1106")
	Model string

	// Instructions can be either a string or a function returning a string
	// that provides the system message for the agent
	Instructions interface{}

	// Functions that this agent can call
	Functions []AgentFunction

	// Temperature is sent with every request when set
	Temperature *float64

	// ToolChoice specifies how the agent should use tools
	ToolChoice *openai.ChatCompletionToolChoiceOptionUnionParam
}

// NewAgent creates a new Agent with default values.
func NewAgent(name string) *Agent {
	return &Agent{
		Name:         name,
		Model:        DefaultModel,
		Instructions: "You are a helpful agent.",
		Functions:    make([]AgentFunction, 0),
	}
}

// WithModel sets the model for the agent and returns the agent for chaining.
func (a *Agent) WithModel(model string) *Agent {
	a.Model = model
	return a
}

// WithInstructions sets the instructions for the agent and returns the agent for chaining.
func (a *Agent) WithInstructions(instructions interface{}) *Agent {
	a.Instructions = instructions
	return a
}

// WithTemperature sets the sampling temperature and returns the agent for chaining.
func (a *Agent) WithTemperature(t float64) *Agent {
	a.Temperature = &t
	return a
}

// AddFunction adds a function to the agent's capabilities and returns the agent for chaining.
func (a *Agent) AddFunction(f AgentFunction) *Agent {
	a.Functions = append(a.Functions, f)
	return a
}

// Message roles used in the conversation history.
const (
	RoleUser      = "user"
	RoleSystem    = "system"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the conversation history.
type Message struct {
	Role    string
	Content string

	// Sender is the agent that produced an assistant message
	Sender string

	// ToolCalls requested by the model in an assistant message
	ToolCalls []openai.ChatCompletionMessageToolCall

	// ToolCallID and ToolName identify the call a tool message answers
	ToolCallID string
	ToolName   string
}

// UserMessage returns a user message with the given content.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Usage sums token usage across the turns of a run.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

func (u *Usage) add(c openai.CompletionUsage) {
	u.PromptTokens += c.PromptTokens
	u.CompletionTokens += c.CompletionTokens
	u.TotalTokens += c.TotalTokens
}

// Response encapsulates the complete response from an agent interaction.
type Response struct {
	// Messages contains the messages added during the run
	Messages []Message

	// Agent is the agent that produced the response
	Agent *Agent

	// Turns is the number of chat completions requested
	Turns int

	// Usage is the token usage reported by the model provider
	Usage Usage
}

// FinalContent returns the content of the last assistant message, or "" when
// the run produced none.
func (r *Response) FinalContent() string {
	if r == nil {
		return ""
	}
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleAssistant {
			return r.Messages[i].Content
		}
	}
	return ""
}

// Result encapsulates the return value from an agent function.
type Result struct {
	// Value contains the function's string output
	Value string
}
