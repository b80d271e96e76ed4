package agentloop

import (
	"context"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/ashwinyue/next-ai/internal/memory"
)

// fakeChatModel scripts a sequence of replies for the loop tests, since the
// real openai.NewChatModel needs live network credentials.
type fakeChatModel struct {
	replies []*schema.Message
	calls   int
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if f.calls >= len(f.replies) {
		return &schema.Message{Role: schema.Assistant, Content: "fallback"}, nil
	}
	r := f.replies[f.calls]
	f.calls++
	return r, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, nil
}

func (f *fakeChatModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

type echoInput struct {
	Value string `json:"value"`
}

func newEchoTool(t *testing.T) tool.BaseTool {
	tl, err := utils.InferTool("echo", "echoes the value back", func(ctx context.Context, in *echoInput) (string, error) {
		return "echo:" + in.Value, nil
	})
	if err != nil {
		t.Fatalf("infer tool: %v", err)
	}
	return tl
}

func TestLoopReturnsFinalText(t *testing.T) {
	fake := &fakeChatModel{replies: []*schema.Message{
		{Role: schema.Assistant, Content: "hello there"},
	}}
	l := New([]tool.BaseTool{newEchoTool(t)}, 8)
	win := &memory.Window{}

	result, err := l.Run(context.Background(), fake, win, "hi", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "hello there" {
		t.Fatalf("Text = %q, want %q", result.Text, "hello there")
	}
	if result.Degraded {
		t.Fatalf("Degraded = true, want false")
	}
}

func TestLoopEmptyTextFallback(t *testing.T) {
	fake := &fakeChatModel{replies: []*schema.Message{
		{Role: schema.Assistant, Content: ""},
	}}
	l := New([]tool.BaseTool{newEchoTool(t)}, 8)
	win := &memory.Window{}

	result, err := l.Run(context.Background(), fake, win, "hi", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != emptyTextFallback {
		t.Fatalf("Text = %q, want the fixed fallback message", result.Text)
	}
}

func TestLoopDispatchesToolCallThenFinalText(t *testing.T) {
	fake := &fakeChatModel{replies: []*schema.Message{
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{
				{ID: "call-1", Function: schema.FunctionCall{Name: "echo", Arguments: `{"value":"x"}`}},
			},
		},
		{Role: schema.Assistant, Content: "done"},
	}}
	l := New([]tool.BaseTool{newEchoTool(t)}, 8)
	win := &memory.Window{}

	result, err := l.Run(context.Background(), fake, win, "hi", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "done" {
		t.Fatalf("Text = %q, want %q", result.Text, "done")
	}

	found := false
	for _, m := range win.Messages() {
		if m.Role == schema.Tool && m.Content == "echo:x" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a tool message with the echoed result in the window")
	}
}

func TestLoopStepCapReturnsDegradedApology(t *testing.T) {
	toolCallReply := &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{ID: "call-1", Function: schema.FunctionCall{Name: "echo", Arguments: `{"value":"x"}`}},
		},
	}
	replies := make([]*schema.Message, 0, 10)
	for i := 0; i < 10; i++ {
		replies = append(replies, toolCallReply)
	}
	fake := &fakeChatModel{replies: replies}
	l := New([]tool.BaseTool{newEchoTool(t)}, 3)
	win := &memory.Window{}

	result, err := l.Run(context.Background(), fake, win, "hi", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Degraded {
		t.Fatalf("Degraded = false, want true after exceeding step cap")
	}
	if result.Text != stepCapApology {
		t.Fatalf("Text = %q, want the step-cap apology", result.Text)
	}
}

func TestLoopMalformedArgumentsRetryThenFail(t *testing.T) {
	badCallReply := &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{ID: "call-1", Function: schema.FunctionCall{Name: "echo", Arguments: `not json at all !!`}},
		},
	}
	fake := &fakeChatModel{replies: []*schema.Message{badCallReply, badCallReply, badCallReply}}
	l := New([]tool.BaseTool{newEchoTool(t)}, 8)
	win := &memory.Window{}

	_, err := l.Run(context.Background(), fake, win, "hi", nil)
	if err == nil {
		t.Fatalf("expected terminal failure after a second malformed reply")
	}
}

func TestLoopUnknownToolIsTreatedAsViolation(t *testing.T) {
	fake := &fakeChatModel{replies: []*schema.Message{
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{
				{ID: "call-1", Function: schema.FunctionCall{Name: "doesNotExist", Arguments: `{}`}},
			},
		},
		{Role: schema.Assistant, Content: "recovered"},
	}}
	l := New([]tool.BaseTool{newEchoTool(t)}, 8)
	win := &memory.Window{}

	result, err := l.Run(context.Background(), fake, win, "hi", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "recovered" {
		t.Fatalf("Text = %q, want %q", result.Text, "recovered")
	}
}
