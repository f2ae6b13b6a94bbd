package mentor

import (
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"

	"motoinvest/internal/core"
)

// maxHistory bounds the number of messages replayed to the model.
const maxHistory = 40

const imagePlaceholder = "[imagem anexada]"

// Chat is one user's conversation with the mentor. Only completed turns are
// kept: the prompt text and the final reply.
type Chat struct {
	mu      sync.Mutex
	history []anthropic.MessageParam
}

// NewChat rebuilds the conversation from a stored transcript. Leading model
// messages are skipped and consecutive messages of one role are merged, so
// the result always starts with a user turn and alternates.
func NewChat(transcript []core.Message) *Chat {
	c := &Chat{}
	for _, m := range transcript {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		role := anthropic.MessageParamRoleUser
		if m.Role == core.RoleModel {
			if len(c.history) == 0 {
				continue
			}
			role = anthropic.MessageParamRoleAssistant
		}
		c.history = appendMessage(c.history, role, anthropic.NewTextBlock(text))
	}
	c.trim()
	return c
}

// Len returns the number of replayed messages.
func (c *Chat) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

func (c *Chat) snapshot() []anthropic.MessageParam {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]anthropic.MessageParam, len(c.history))
	for i, m := range c.history {
		out[i] = anthropic.MessageParam{
			Role:    m.Role,
			Content: append([]anthropic.ContentBlockParamUnion(nil), m.Content...),
		}
	}
	return out
}

func (c *Chat) commit(prompt Prompt, reply string) {
	text := strings.TrimSpace(prompt.Text)
	if len(prompt.Images) > 0 {
		text = strings.TrimSpace(strings.Repeat(imagePlaceholder+" ", len(prompt.Images)) + text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = appendMessage(c.history, anthropic.MessageParamRoleUser, anthropic.NewTextBlock(text))
	c.history = appendMessage(c.history, anthropic.MessageParamRoleAssistant, anthropic.NewTextBlock(reply))
	c.trim()
}

// trim drops the oldest messages until the history fits and starts with a
// user turn. Callers hold mu or own c exclusively.
func (c *Chat) trim() {
	for len(c.history) > maxHistory || (len(c.history) > 0 && c.history[0].Role != anthropic.MessageParamRoleUser) {
		c.history = c.history[1:]
	}
}

// appendMessage adds blocks as a new message, or to the last message when
// it has the same role.
func appendMessage(history []anthropic.MessageParam, role anthropic.MessageParamRole, blocks ...anthropic.ContentBlockParamUnion) []anthropic.MessageParam {
	if n := len(history); n > 0 && history[n-1].Role == role {
		last := history[n-1]
		last.Content = append(append([]anthropic.ContentBlockParamUnion(nil), last.Content...), blocks...)
		history[n-1] = last
		return history
	}
	return append(history, anthropic.MessageParam{Role: role, Content: blocks})
}
