// Package streamadapter implements the Stream Adapter (C9): segmenting a
// final assistant text on sentence terminators and pacing its delivery over
// a single typed channel of SSE events.
package streamadapter

import (
	"context"
	"strings"
	"time"

	"github.com/ashwinyue/next-ai/internal/tools"
)

// EventType is the SSE event name.
type EventType string

const (
	EventSegment EventType = "message"
	EventHistory EventType = "agent-history"
	EventDone    EventType = "done"
	EventError   EventType = "error"
)

const segmentPause = 30 * time.Millisecond

var terminators = "。！？.!?\n"

// Event is one item pushed to the SSE writer.
type Event struct {
	Type           EventType
	Segment        string
	History        []tools.CallRecord
	ConversationID string
	Err            error
}

// Stream segments text on sentence terminators, keeping the terminator
// with the preceding segment, and emits one EventSegment per
// non-empty piece with a pacing delay between them, followed by an
// EventHistory carrying records and a final EventDone. If ctx is cancelled
// mid-stream, it stops emitting without sending done or history.
func Stream(ctx context.Context, out chan<- Event, text string, conversationID string, records []tools.CallRecord) {
	for _, seg := range segment(text) {
		select {
		case <-ctx.Done():
			return
		default:
		}
		out <- Event{Type: EventSegment, Segment: seg}
		select {
		case <-ctx.Done():
			return
		case <-time.After(segmentPause):
		}
	}

	select {
	case <-ctx.Done():
		return
	default:
	}
	out <- Event{Type: EventHistory, History: records}
	out <- Event{Type: EventDone, ConversationID: conversationID}
}

// StreamError emits a single EventError.
func StreamError(out chan<- Event, err error) {
	out <- Event{Type: EventError, Err: err}
}

// segment splits text on [.!?。！？\n], keeping the terminator with the
// preceding segment. Concatenating the returned segments reproduces text
// exactly, so a whitespace-only run (e.g. a blank line between sentences)
// is emitted as its own segment rather than dropped.
func segment(text string) []string {
	var segments []string
	var b strings.Builder

	for _, r := range text {
		b.WriteRune(r)
		if strings.ContainsRune(terminators, r) {
			if s := b.String(); s != "" {
				segments = append(segments, s)
			}
			b.Reset()
		}
	}
	if s := b.String(); s != "" {
		segments = append(segments, s)
	}
	return segments
}
