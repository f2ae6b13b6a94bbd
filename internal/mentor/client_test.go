package mentor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"motoinvest/internal/core"
	"motoinvest/internal/log"
	"motoinvest/internal/media"
)

type fakeSender struct {
	responses []*anthropic.Message
	err       error
	calls     []anthropic.MessageNewParams
}

func (f *fakeSender) New(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.calls = append(f.calls, body)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.calls) > len(f.responses) {
		return nil, errors.New("unexpected call")
	}
	return f.responses[len(f.calls)-1], nil
}

func textMessage(text string) *anthropic.Message {
	return &anthropic.Message{Content: []anthropic.ContentBlockUnion{{Type: "text", Text: text}}}
}

func toolMessage(id, name, input string) *anthropic.Message {
	return &anthropic.Message{Content: []anthropic.ContentBlockUnion{
		{Type: "tool_use", ID: id, Name: name, Input: json.RawMessage(input)},
	}}
}

func newTestClient(sender Sender, rounds int) *Client {
	return NewClientWithSender(sender, Config{Model: "test-model", MaxTokens: 256, MaxToolRounds: rounds, Timeout: time.Second},
		log.New(log.Config{Output: &bytes.Buffer{}}))
}

func TestClient_SendPlainText(t *testing.T) {
	sender := &fakeSender{responses: []*anthropic.Message{textMessage("| Destino | Valor |")}}
	chat := NewChat(nil)

	reply, err := newTestClient(sender, 4).Send(context.Background(), chat, Prompt{Text: "Fiz R$ 200 brutos"}, nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply.Text != "| Destino | Valor |" {
		t.Fatalf("reply = %q", reply.Text)
	}
	if len(sender.calls) != 1 {
		t.Fatalf("calls = %d", len(sender.calls))
	}
	call := sender.calls[0]
	if string(call.Model) != "test-model" || call.MaxTokens != 256 || call.System[0].Text != SystemPrompt {
		t.Fatalf("unexpected params: model %q tokens %d", call.Model, call.MaxTokens)
	}
	if chat.Len() != 2 {
		t.Fatalf("chat history = %d, want 2", chat.Len())
	}
}

func TestClient_SendRunsAddBill(t *testing.T) {
	sender := &fakeSender{responses: []*anthropic.Message{
		toolMessage("toolu_1", ToolAddBill, `{"name":"Aluguel","amount":600,"dueDate":"2024-05-10"}`),
		textMessage("Conta Aluguel cadastrada!"),
	}}
	exec := &fakeExecutor{}

	reply, err := newTestClient(sender, 4).Send(context.Background(), NewChat(nil), Prompt{Text: "aluguel 600 dia 10"}, NewToolset(exec))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(exec.bills) != 1 || exec.bills[0].Name != "Aluguel" {
		t.Fatalf("bills = %+v", exec.bills)
	}
	if reply.Text != "Conta Aluguel cadastrada!" || len(reply.ToolCalls) != 1 || reply.ToolCalls[0].IsError {
		t.Fatalf("reply = %+v", reply)
	}

	second := sender.calls[1].Messages
	if len(second) != 3 {
		t.Fatalf("second request messages = %d, want 3", len(second))
	}
	last := second[2]
	if last.Role != anthropic.MessageParamRoleUser || len(last.Content) != 1 || last.Content[0].OfToolResult == nil {
		t.Fatalf("last message should carry the tool result: %+v", last)
	}
	if last.Content[0].OfToolResult.ToolUseID != "toolu_1" {
		t.Fatalf("tool result id = %q", last.Content[0].OfToolResult.ToolUseID)
	}
}

func TestClient_UnknownToolIsReportedToModel(t *testing.T) {
	sender := &fakeSender{responses: []*anthropic.Message{
		toolMessage("toolu_1", "transfer_money", `{}`),
		textMessage("Não consigo fazer isso."),
	}}
	reply, err := newTestClient(sender, 4).Send(context.Background(), NewChat(nil), Prompt{Text: "manda pix"}, NewToolset(&fakeExecutor{}))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(reply.ToolCalls) != 1 || !reply.ToolCalls[0].IsError {
		t.Fatalf("tool calls = %+v", reply.ToolCalls)
	}
	result := sender.calls[1].Messages[2].Content[0].OfToolResult
	if result == nil || !result.IsError.Value {
		t.Fatalf("expected an error tool result, got %+v", result)
	}
}

func TestClient_ToolRoundsBounded(t *testing.T) {
	loop := toolMessage("t", ToolGetFinancialSummary, `{}`)
	sender := &fakeSender{responses: []*anthropic.Message{loop, loop, loop}}
	chat := NewChat(nil)

	_, err := newTestClient(sender, 2).Send(context.Background(), chat, Prompt{Text: "resumo"}, NewToolset(&fakeExecutor{}))
	if !errors.Is(err, ErrToolRoundsExceeded) {
		t.Fatalf("error = %v, want ErrToolRoundsExceeded", err)
	}
	if len(sender.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(sender.calls))
	}
	if chat.Len() != 0 {
		t.Fatal("failed turns must not enter the history")
	}
}

func TestClient_SendErrors(t *testing.T) {
	c := newTestClient(&fakeSender{err: errors.New("503")}, 4)
	if _, err := c.Send(context.Background(), NewChat(nil), Prompt{Text: "oi"}, nil); err == nil {
		t.Fatal("expected upstream error")
	}
	if _, err := c.Send(context.Background(), NewChat(nil), Prompt{Text: "  "}, nil); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("error = %v, want ErrEmptyPrompt", err)
	}
	if _, err := (Unavailable{}).Send(context.Background(), nil, Prompt{Text: "oi"}, nil); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestClient_EmptyReplyFallback(t *testing.T) {
	sender := &fakeSender{responses: []*anthropic.Message{{}}}
	reply, err := newTestClient(sender, 4).Send(context.Background(), NewChat(nil), Prompt{Text: "oi"}, nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply.Text != EmptyReplyText {
		t.Fatalf("reply = %q", reply.Text)
	}
}

func TestClient_ImagesAreSentBeforeText(t *testing.T) {
	sender := &fakeSender{responses: []*anthropic.Message{textMessage("Boleto de R$ 89,90")}}
	img := media.Image{MediaType: media.MediaTypeJPEG, Data: "aGVsbG8="}
	chat := NewChat(nil)

	if _, err := newTestClient(sender, 4).Send(context.Background(), chat, Prompt{Text: "o que é isso?", Images: []media.Image{img}}, nil); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	content := sender.calls[0].Messages[0].Content
	if len(content) != 2 || content[0].OfImage == nil || content[1].OfText == nil {
		t.Fatalf("unexpected content layout: %+v", content)
	}
	stored := chat.snapshot()[0].Content[0].OfText
	if stored == nil || stored.Text != imagePlaceholder+" o que é isso?" {
		t.Fatalf("history should keep a placeholder instead of the image: %+v", stored)
	}
}

func TestNewChat_NormalizesTranscript(t *testing.T) {
	transcript := []core.Message{
		{Role: core.RoleModel, Text: "Salve!"},
		{Role: core.RoleUser, Text: "oi"},
		{Role: core.RoleUser, Text: "tudo bem?"},
		{Role: core.RoleModel, Text: "Tudo!"},
		{Role: core.RoleModel, Text: "Ops, falhei na conexão."},
		{Role: core.RoleUser, Text: "   "},
	}
	chat := NewChat(transcript)
	h := chat.snapshot()
	if len(h) != 2 {
		t.Fatalf("history = %d messages, want 2", len(h))
	}
	if h[0].Role != anthropic.MessageParamRoleUser || len(h[0].Content) != 2 {
		t.Fatalf("first message = %+v", h[0])
	}
	if h[1].Role != anthropic.MessageParamRoleAssistant || len(h[1].Content) != 2 {
		t.Fatalf("second message = %+v", h[1])
	}
}
