package streamadapter

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ashwinyue/next-ai/internal/tools"
)

func TestSegmentKeepsTerminatorWithPrecedingSegment(t *testing.T) {
	segs := segment("你好。今天天气怎么样？Fine, thanks.\n")
	if len(segs) == 0 {
		t.Fatalf("expected at least one segment")
	}
	if segs[0] != "你好。" {
		t.Fatalf("segs[0] = %q, want %q", segs[0], "你好。")
	}
	if segs[1] != "今天天气怎么样？" {
		t.Fatalf("segs[1] = %q, want %q", segs[1], "今天天气怎么样？")
	}
	if segs[2] != "Fine, thanks." {
		t.Fatalf("segs[2] = %q, want %q", segs[2], "Fine, thanks.")
	}
}

func TestSegmentRoundTripsToOriginalText(t *testing.T) {
	for _, text := range []string{
		"a.   \n\n b!",
		"Hello.\n\nWorld",
		"你好。今天天气怎么样？Fine, thanks.\n",
		"",
		"no terminators at all",
	} {
		if got := strings.Join(segment(text), ""); got != text {
			t.Fatalf("segment(%q) joined = %q, want %q", text, got, text)
		}
	}
}

func TestStreamEmitsSegmentsThenHistoryThenDone(t *testing.T) {
	out := make(chan Event, 16)
	records := []tools.CallRecord{{Step: 1, ToolName: "calculate", Status: tools.Completed}}

	Stream(context.Background(), out, "第一句。第二句！", "chat-abc", records)
	close(out)

	var events []Event
	for e := range out {
		events = append(events, e)
	}

	if len(events) != 4 {
		t.Fatalf("got %d events, want 4 (2 segments + history + done)", len(events))
	}
	if events[0].Type != EventSegment || events[0].Segment != "第一句。" {
		t.Fatalf("events[0] = %+v, want segment 第一句。", events[0])
	}
	if events[1].Type != EventSegment || events[1].Segment != "第二句！" {
		t.Fatalf("events[1] = %+v, want segment 第二句！", events[1])
	}
	if events[2].Type != EventHistory || len(events[2].History) != 1 {
		t.Fatalf("events[2] = %+v, want history with 1 record", events[2])
	}
	if events[3].Type != EventDone || events[3].ConversationID != "chat-abc" {
		t.Fatalf("events[3] = %+v, want done for chat-abc", events[3])
	}
}

func TestStreamStopsOnContextCancellation(t *testing.T) {
	out := make(chan Event, 16)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		Stream(ctx, out, "一句话。另一句话。", "chat-xyz", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Stream did not return promptly after context cancellation")
	}
}

func TestStreamErrorEmitsErrorEvent(t *testing.T) {
	out := make(chan Event, 1)
	StreamError(out, errTest)
	e := <-out
	if e.Type != EventError || e.Err != errTest {
		t.Fatalf("got %+v, want error event wrapping errTest", e)
	}
}

var errTest = fmtError("boom")

type fmtError string

func (e fmtError) Error() string { return string(e) }
