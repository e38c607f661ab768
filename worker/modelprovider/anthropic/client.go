// Package anthropic adapts the Anthropic Claude Messages API to
// worker.LanguageModel, so the runtime's reason/act loop never depends on a
// provider SDK directly.
package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/zby/golem-forge-sub002/worker"
)

type (
	// MessagesClient captures the subset of the Anthropic SDK client this
	// adapter calls, satisfied by *sdk.MessageService so callers can pass
	// either a real client or a fake in tests.
	MessagesClient interface {
		New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
	}

	// Options configures the Client.
	Options struct {
		// Model is the Claude model identifier, for example
		// string(sdk.ModelClaudeSonnet4_5_20250929).
		Model string
		// MaxTokens caps the completion length.
		MaxTokens int
		// Temperature is optional; zero uses the provider default.
		Temperature float64
	}

	// Client implements worker.LanguageModel on top of Anthropic Messages.
	Client struct {
		msg    MessagesClient
		model  string
		maxTok int
		temp   float64
	}
)

// New builds a Client from an Anthropic Messages client and options.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic: messages client is required")
	}
	if opts.Model == "" {
		return nil, errors.New("anthropic: model identifier is required")
	}
	if opts.MaxTokens <= 0 {
		return nil, errors.New("anthropic: max tokens must be positive")
	}
	return &Client{msg: msg, model: opts.Model, maxTok: opts.MaxTokens, temp: opts.Temperature}, nil
}

// NewFromAPIKey constructs a Client using the default Anthropic HTTP
// client, authenticated with apiKey.
func NewFromAPIKey(apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&ac.Messages, opts)
}

// Generate implements worker.LanguageModel.
func (c *Client) Generate(ctx context.Context, messages []worker.Message, tools []worker.ToolDescriptor) (*worker.ModelResponse, error) {
	params, err := c.prepareRequest(messages, tools)
	if err != nil {
		return nil, err
	}
	msg, err := c.msg.New(ctx, *params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: messages.new: %w", err)
	}
	return translateResponse(msg)
}

func (c *Client) prepareRequest(messages []worker.Message, tools []worker.ToolDescriptor) (*sdk.MessageNewParams, error) {
	conversation, system, err := encodeMessages(messages)
	if err != nil {
		return nil, err
	}
	params := &sdk.MessageNewParams{
		MaxTokens: int64(c.maxTok),
		Messages:  conversation,
		Model:     sdk.Model(c.model),
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	if len(tools) > 0 {
		params.Tools = encodeTools(tools)
	}
	if c.temp > 0 {
		params.Temperature = sdk.Float(c.temp)
	}
	return params, nil
}

func encodeMessages(messages []worker.Message) ([]sdk.MessageParam, string, error) {
	conversation := make([]sdk.MessageParam, 0, len(messages))
	var system string

	for _, m := range messages {
		switch v := m.(type) {
		case worker.SystemMessage:
			system = v.Text

		case worker.UserMessage:
			blocks := make([]sdk.ContentBlockParamUnion, 0, len(v.Parts))
			for _, p := range v.Parts {
				switch part := p.(type) {
				case worker.TextPart:
					if part.Text != "" {
						blocks = append(blocks, sdk.NewTextBlock(part.Text))
					}
				case worker.FilePart:
					blocks = append(blocks, sdk.NewImageBlockBase64(part.MimeType, base64.StdEncoding.EncodeToString(part.Bytes)))
				}
			}
			if len(blocks) > 0 {
				conversation = append(conversation, sdk.NewUserMessage(blocks...))
			}

		case worker.AssistantMessage:
			blocks := make([]sdk.ContentBlockParamUnion, 0, len(v.Parts))
			for _, p := range v.Parts {
				switch part := p.(type) {
				case worker.TextPart:
					if part.Text != "" {
						blocks = append(blocks, sdk.NewTextBlock(part.Text))
					}
				case worker.ToolCallPart:
					var input any
					if len(part.Call.ToolArgs) > 0 {
						if err := json.Unmarshal(part.Call.ToolArgs, &input); err != nil {
							return nil, "", fmt.Errorf("anthropic: decoding tool_use args for %q: %w", part.Call.ToolName, err)
						}
					}
					blocks = append(blocks, sdk.NewToolUseBlock(part.Call.ToolCallID, input, part.Call.ToolName))
				}
			}
			if len(blocks) > 0 {
				conversation = append(conversation, sdk.NewAssistantMessage(blocks...))
			}

		case worker.ToolMessage:
			blocks := make([]sdk.ContentBlockParamUnion, 0, len(v.Results))
			for _, r := range v.Results {
				blocks = append(blocks, encodeToolResult(r))
			}
			if len(blocks) > 0 {
				conversation = append(conversation, sdk.NewUserMessage(blocks...))
			}
		}
	}
	if len(conversation) == 0 {
		return nil, "", errors.New("anthropic: at least one user/assistant message is required")
	}
	return conversation, system, nil
}

func encodeToolResult(r worker.ToolResult) sdk.ContentBlockParamUnion {
	var content string
	if r.IsError {
		content = r.Error
	} else if r.Output != nil {
		if data, err := json.Marshal(r.Output); err == nil {
			content = string(data)
		}
	}
	return sdk.NewToolResultBlock(r.ToolCallID, content, r.IsError)
}

func encodeTools(descs []worker.ToolDescriptor) []sdk.ToolUnionParam {
	out := make([]sdk.ToolUnionParam, 0, len(descs))
	for _, d := range descs {
		schema := sdk.ToolInputSchemaParam{ExtraFields: d.InputSchema}
		u := sdk.ToolUnionParamOfTool(schema, d.Name)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(d.Description)
		}
		out = append(out, u)
	}
	return out
}

func translateResponse(msg *sdk.Message) (*worker.ModelResponse, error) {
	if msg == nil {
		return nil, errors.New("anthropic: response message is nil")
	}
	resp := &worker.ModelResponse{FinishReason: string(msg.StopReason)}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			resp.Text += block.Text
		case "tool_use":
			args, err := json.Marshal(block.Input)
			if err != nil {
				return nil, fmt.Errorf("anthropic: encoding tool_use input for %q: %w", block.Name, err)
			}
			resp.ToolCalls = append(resp.ToolCalls, worker.ToolCall{
				ToolCallID: block.ID,
				ToolName:   block.Name,
				ToolArgs:   args,
			})
		}
	}
	resp.Usage = worker.Usage{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}
	return resp, nil
}
