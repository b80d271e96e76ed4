// Package agentloop implements the Agent Loop (C8): a strictly sequential
// tool-calling dialogue driven to a final assistant text, with
// malformed-argument recovery, a hard step cap, and an empty-text fallback.
package agentloop

import (
	"context"
	"encoding/json"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/kaptinlin/jsonrepair"

	"github.com/ashwinyue/next-ai/internal/apperr"
	"github.com/ashwinyue/next-ai/internal/memory"
	"github.com/ashwinyue/next-ai/internal/model"
)

const defaultStepCap = 8

const emptyTextFallback = "抱歉，我没能生成有效的回复。这可能是由于模型输出被截断、工具调用未返回结果，或触发了内容过滤。请尝试换一种方式重新提问。"

const stepCapApology = "抱歉，这个问题需要的步骤比较多，我暂时无法在限定步数内给出完整答案，请尝试拆分问题或换一种问法。"

// Result is the outcome of one agent-loop run.
type Result struct {
	Text     string
	Sources  []model.Source
	Degraded bool
}

// Loop drives one agent turn to completion over a fixed tool set.
type Loop struct {
	Tools   []tool.BaseTool
	StepCap int
}

// New constructs a Loop over a fixed tool set, defaulting StepCap to 8.
func New(toolSet []tool.BaseTool, stepCap int) *Loop {
	if stepCap <= 0 {
		stepCap = defaultStepCap
	}
	return &Loop{Tools: toolSet, StepCap: stepCap}
}

// Run appends the user message, calls the model, dispatches any tool call
// sequentially, and repeats until a final text or the step cap is reached.
// sources is filled in-place by any searchKnowledge tool wired into l.Tools
// (see tools.Registry.Build).
func (l *Loop) Run(ctx context.Context, chatModel einomodel.ToolCallingChatModel, win *memory.Window, userMessage string, sources *[]model.Source) (*Result, error) {
	toolInfos := make([]*schema.ToolInfo, 0, len(l.Tools))
	toolMap := make(map[string]tool.InvokableTool, len(l.Tools))
	for _, t := range l.Tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		toolInfos = append(toolInfos, info)
		if invokable, ok := t.(tool.InvokableTool); ok {
			toolMap[info.Name] = invokable
		}
	}

	bound, err := chatModel.WithTools(toolInfos)
	if err != nil {
		return nil, apperr.Wrap(apperr.ProviderRejected, "bind tools to chat model", err)
	}

	win.Append(&schema.Message{Role: schema.User, Content: userMessage})

	malformedRetryUsed := false

	for step := 0; step < l.StepCap; step++ {
		reply, err := bound.Generate(ctx, win.Messages())
		if err != nil {
			return nil, apperr.Wrap(apperr.ProviderTimeout, "chat model generate", err)
		}

		if len(reply.ToolCalls) == 0 {
			text := reply.Content
			if text == "" {
				text = emptyTextFallback
			}
			win.Append(&schema.Message{Role: schema.Assistant, Content: text})
			result := &Result{Text: text}
			if sources != nil {
				result.Sources = *sources
			}
			return result, nil
		}

		win.Append(reply)

		for _, call := range reply.ToolCalls {
			invokable, violation := resolveTool(toolMap, call.Function.Name)
			args := call.Function.Arguments
			if violation == "" {
				args, violation = normalizeArguments(args)
			}

			if violation != "" {
				if malformedRetryUsed {
					return nil, apperr.New(apperr.InvalidInput, fmt.Sprintf("tool call %q failed schema validation twice: %s", call.Function.Name, violation))
				}
				malformedRetryUsed = true
				win.Append(&schema.Message{
					Role:       schema.Tool,
					Content:    fmt.Sprintf("参数不符合工具的参数约定：%s", violation),
					ToolCallID: call.ID,
					ToolName:   call.Function.Name,
				})
				continue
			}

			result, invokeErr := invokable.InvokableRun(ctx, args)
			if invokeErr != nil {
				result = invokeErr.Error()
			}
			win.Append(&schema.Message{
				Role:       schema.Tool,
				Content:    result,
				ToolCallID: call.ID,
				ToolName:   call.Function.Name,
			})
		}
	}

	win.Append(&schema.Message{Role: schema.Assistant, Content: stepCapApology})
	result := &Result{Text: stepCapApology, Degraded: true}
	if sources != nil {
		result.Sources = *sources
	}
	return result, nil
}

// resolveTool validates a tool-call name against the registry. An unknown
// name is treated as a schema violation, same as malformed arguments.
func resolveTool(toolMap map[string]tool.InvokableTool, name string) (tool.InvokableTool, string) {
	t, ok := toolMap[name]
	if !ok {
		return nil, fmt.Sprintf("unknown tool %q", name)
	}
	return t, ""
}

// normalizeArguments verifies the tool call's arguments are well-formed
// JSON, repairing them with jsonrepair when they are not.
func normalizeArguments(args string) (string, string) {
	var probe map[string]interface{}
	if json.Unmarshal([]byte(args), &probe) == nil {
		return args, ""
	}

	repaired, err := jsonrepair.JSONRepair(args)
	if err != nil {
		return "", fmt.Sprintf("arguments are not valid JSON: %v", err)
	}
	if json.Unmarshal([]byte(repaired), &probe) != nil {
		return "", "repaired arguments still do not parse as a JSON object"
	}
	return repaired, ""
}
