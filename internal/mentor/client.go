package mentor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"motoinvest/internal/log"
	"motoinvest/internal/media"
)

var (
	ErrUnavailable        = errors.New("mentor unavailable")
	ErrToolRoundsExceeded = errors.New("mentor exceeded tool rounds")
	ErrEmptyPrompt        = errors.New("empty prompt")
)

// Prompt is one user turn: text plus optional prepared images.
type Prompt struct {
	Text   string
	Images []media.Image
}

// ToolCall records one tool invocation made during a turn.
type ToolCall struct {
	Name    string
	IsError bool
}

type Reply struct {
	Text      string
	ToolCalls []ToolCall
}

// Service answers a prompt within a conversation, running tools as the
// model requests them.
type Service interface {
	Send(ctx context.Context, chat *Chat, prompt Prompt, tools *Toolset) (Reply, error)
}

// Sender is the subset of the Messages API the mentor uses.
type Sender interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type Config struct {
	APIKey        string
	Model         string
	MaxTokens     int
	MaxToolRounds int
	Timeout       time.Duration
}

// Client is the Anthropic-backed Service.
type Client struct {
	sender    Sender
	model     string
	maxTokens int64
	maxRounds int
	timeout   time.Duration
	logger    *log.Logger
}

func NewClient(cfg Config, logger *log.Logger) *Client {
	c := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return NewClientWithSender(&c.Messages, cfg, logger)
}

func NewClientWithSender(sender Sender, cfg Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		sender:    sender,
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		maxRounds: cfg.MaxToolRounds,
		timeout:   cfg.Timeout,
		logger:    logger.WithComponent(log.ComponentMentor),
	}
}

func (c *Client) Send(ctx context.Context, chat *Chat, prompt Prompt, tools *Toolset) (Reply, error) {
	if strings.TrimSpace(prompt.Text) == "" && len(prompt.Images) == 0 {
		return Reply{}, ErrEmptyPrompt
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := appendMessage(chat.snapshot(), anthropic.MessageParamRoleUser, userBlocks(prompt)...)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: SystemPrompt}},
	}
	if tools != nil {
		params.Tools = tools.Params()
	}

	var reply Reply
	for round := 0; ; round++ {
		params.Messages = messages
		resp, err := c.sender.New(ctx, params)
		if err != nil {
			return Reply{}, fmt.Errorf("mentor request: %w", err)
		}

		var text strings.Builder
		var assistant []anthropic.ContentBlockParamUnion
		var results []anthropic.ContentBlockParamUnion
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				text.WriteString(block.Text)
				assistant = append(assistant, anthropic.NewTextBlock(block.Text))
			case "tool_use":
				assistant = append(assistant, anthropic.NewToolUseBlock(block.ID, block.Input, block.Name))
				results = append(results, c.runTool(ctx, tools, block.ID, block.Name, block.Input, &reply))
			}
		}

		if len(results) == 0 {
			reply.Text = strings.TrimSpace(text.String())
			if reply.Text == "" {
				reply.Text = EmptyReplyText
			}
			break
		}
		if round+1 >= c.maxRounds {
			return Reply{}, fmt.Errorf("%w (%d)", ErrToolRoundsExceeded, c.maxRounds)
		}
		messages = append(messages,
			anthropic.NewAssistantMessage(assistant...),
			anthropic.NewUserMessage(results...),
		)
	}

	chat.commit(prompt, reply.Text)
	return reply, nil
}

func (c *Client) runTool(ctx context.Context, tools *Toolset, id, name string, input []byte, reply *Reply) anthropic.ContentBlockParamUnion {
	if tools == nil {
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{Name: name, IsError: true})
		return anthropic.NewToolResultBlock(id, fmt.Sprintf("%v: %s", ErrUnknownTool, name), true)
	}
	out, err := tools.Dispatch(ctx, name, input)
	if err != nil {
		c.logger.WarnContext(ctx, "Tool call failed", log.FieldTool, name, log.FieldError, err)
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{Name: name, IsError: true})
		return anthropic.NewToolResultBlock(id, err.Error(), true)
	}
	c.logger.InfoContext(ctx, "Tool call executed", log.FieldTool, name)
	reply.ToolCalls = append(reply.ToolCalls, ToolCall{Name: name})
	return anthropic.NewToolResultBlock(id, out, false)
}

func userBlocks(p Prompt) []anthropic.ContentBlockParamUnion {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(p.Images)+1)
	for _, img := range p.Images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MediaType, img.Data))
	}
	if text := strings.TrimSpace(p.Text); text != "" {
		blocks = append(blocks, anthropic.NewTextBlock(text))
	}
	return blocks
}

// Unavailable is the Service used when no API key is configured.
type Unavailable struct{}

func (Unavailable) Send(context.Context, *Chat, Prompt, *Toolset) (Reply, error) {
	return Reply{}, ErrUnavailable
}
