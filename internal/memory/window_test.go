package memory

import (
	"testing"

	"github.com/cloudwego/eino/schema"
)

func TestWindowZeroContextWindow(t *testing.T) {
	win := &Window{w: 0}
	if len(win.Messages()) != 0 {
		t.Fatalf("expected empty window for W=0")
	}
	win.Append(&schema.Message{Role: schema.User, Content: "hi"})
	if len(win.Messages()) != 1 {
		t.Fatalf("W=0 still accepts appended in-flight messages")
	}
}

func TestWindowEvictsOldestNonSystem(t *testing.T) {
	win := &Window{w: 1} // limit = 2
	win.Append(&schema.Message{Role: schema.System, Content: "preamble"})
	win.Append(&schema.Message{Role: schema.User, Content: "one"})
	win.Append(&schema.Message{Role: schema.Assistant, Content: "two"})

	msgs := win.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected eviction down to limit 2, got %d", len(msgs))
	}
	if msgs[0].Role != schema.System {
		t.Fatalf("system preamble must never be evicted, got role %v first", msgs[0].Role)
	}
	if msgs[1].Content != "two" {
		t.Fatalf("expected oldest non-system entry evicted, kept %q", msgs[1].Content)
	}
}
