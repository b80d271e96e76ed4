package modelrouter

import (
	"strings"
	"testing"

	"github.com/ashwinyue/next-ai/internal/config"
)

func defaultCfg() config.RouterConfig {
	return config.RouterConfig{
		Strategy:         "PERCENTAGE",
		PercentageRemote: 50,
		BusinessTypeMap: map[string]string{
			"TOOL_CALLING":  "local",
			"COMPLEX_QUERY": "remote",
		},
		ToolKeywords:       []string{"计算", "查询", "天气", "时间", "IRR", "NPV", "债券", "期权", "摊销"},
		ComplexityKeywords: []string{"分析", "比较", "总结", "推理", "判断", "评估", "建议", "方案"},
	}
}

func TestPercentageBoundaries(t *testing.T) {
	cfg := defaultCfg()

	cfg.PercentageRemote = 0
	for i := 0; i < 50; i++ {
		if d := Route(cfg, "hi"); d.ProviderTag != "local" {
			t.Fatalf("remote=0 must always route local, got %q", d.ProviderTag)
		}
	}

	cfg.PercentageRemote = 100
	for i := 0; i < 50; i++ {
		if d := Route(cfg, "hi"); d.ProviderTag != "remote" {
			t.Fatalf("remote=100 must always route remote, got %q", d.ProviderTag)
		}
	}
}

func TestBusinessTypeLengthBoundary(t *testing.T) {
	cfg := defaultCfg()
	cfg.Strategy = "BUSINESS_TYPE"

	exactly200 := strings.Repeat("字", 200)
	if bt := DetectBusinessType(exactly200, cfg.ToolKeywords, cfg.ComplexityKeywords); bt != SimpleQA {
		t.Fatalf("200 chars must classify SIMPLE_QA, got %s", bt)
	}

	exactly201 := strings.Repeat("字", 201)
	if bt := DetectBusinessType(exactly201, cfg.ToolKeywords, cfg.ComplexityKeywords); bt != LongContext {
		t.Fatalf("201 chars must classify LONG_CONTEXT, got %s", bt)
	}
}

func TestToolKeywordsCheckedBeforeComplexity(t *testing.T) {
	cfg := defaultCfg()
	// contains both a tool keyword ("计算") and a complexity keyword ("分析")
	bt := DetectBusinessType("请分析并计算这个结果", cfg.ToolKeywords, cfg.ComplexityKeywords)
	if bt != ToolCalling {
		t.Fatalf("tool keywords must win over complexity keywords, got %s", bt)
	}
}

func TestEmptyMessageIsGeneralChat(t *testing.T) {
	cfg := defaultCfg()
	if bt := DetectBusinessType("   ", cfg.ToolKeywords, cfg.ComplexityKeywords); bt != GeneralChat {
		t.Fatalf("blank message must classify GENERAL_CHAT, got %s", bt)
	}
}

func TestBusinessTypeMapFallsBackToLocal(t *testing.T) {
	cfg := defaultCfg()
	cfg.Strategy = "BUSINESS_TYPE"
	cfg.BusinessTypeMap = map[string]string{} // nothing mapped
	d := Route(cfg, "你好")
	if d.ProviderTag != "local" {
		t.Fatalf("unmapped business type must fall back to local, got %q", d.ProviderTag)
	}
}
