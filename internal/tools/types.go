// Package tools implements the Tool Registry (C4): the closed set of named,
// typed, side-effectful functions the agent loop may invoke.
package tools

import (
	"path/filepath"
	"strings"
	"time"
)

// Status is the lifecycle state of one tool invocation.
type Status string

const (
	Started   Status = "STARTED"
	Completed Status = "COMPLETED"
	Failed    Status = "FAILED"
)

// CallRecord describes one tool invocation, emitted for observability. It
// is scoped to one request via RecordSink rather than held in a
// process-wide singleton.
type CallRecord struct {
	Step       int       `json:"step"`
	ToolName   string    `json:"toolName"`
	Input      string    `json:"input"`
	Result     string    `json:"result,omitempty"`
	DurationMs int64     `json:"durationMs"`
	Status     Status    `json:"status"`
	startedAt  time.Time `json:"-"`
}

// RecordSink is the per-request channel a tool reports its invocations to.
type RecordSink chan<- CallRecord

// emit sends a STARTED record and returns a closure that emits the matching
// terminal record, capturing elapsed time.
func emit(sink RecordSink, step int, name, input string) func(result string, err error) {
	start := time.Now()
	if sink != nil {
		sink <- CallRecord{Step: step, ToolName: name, Input: input, Status: Started}
	}
	return func(result string, err error) {
		if sink == nil {
			return
		}
		status := Completed
		if err != nil {
			status = Failed
			result = err.Error()
		}
		sink <- CallRecord{
			Step:       step,
			ToolName:   name,
			Input:      input,
			Result:     result,
			DurationMs: time.Since(start).Milliseconds(),
			Status:     status,
		}
	}
}

// resolvePath enforces that a requested path resolves inside allowedDirectory:
// let A = normalise(allowedDirectory) and R = normalise(A.resolve(path)); if
// R is not a descendant of A, the tool fails with a path-escape error and
// produces no side effects.
func resolvePath(allowedDirectory, requested string) (string, error) {
	a, err := filepath.Abs(filepath.Clean(allowedDirectory))
	if err != nil {
		return "", err
	}
	r, err := filepath.Abs(filepath.Join(a, requested))
	if err != nil {
		return "", err
	}
	r = filepath.Clean(r)

	if r != a && !strings.HasPrefix(r, a+string(filepath.Separator)) {
		return "", errPathEscape(requested)
	}
	return r, nil
}
