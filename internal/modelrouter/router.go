// Package modelrouter implements the Router (C7): a pure function of
// (config, message) to a chat-model handle, with no back-reference into
// live service state.
package modelrouter

import (
	"math/rand"
	"strings"
	"unicode/utf8"

	"github.com/ashwinyue/next-ai/internal/config"
)

// BusinessType classifies a user message for the BUSINESS_TYPE strategy.
type BusinessType string

const (
	ComplexQuery  BusinessType = "COMPLEX_QUERY"
	LongContext   BusinessType = "LONG_CONTEXT"
	HighPrecision BusinessType = "HIGH_PRECISION"
	SimpleQA      BusinessType = "SIMPLE_QA"
	ToolCalling   BusinessType = "TOOL_CALLING"
	GeneralChat   BusinessType = "GENERAL_CHAT"
)

// Decision is the outcome of one routing call.
type Decision struct {
	ModelID      string
	ProviderTag  string // "local" | "remote"
	BusinessType BusinessType
	Reason       string
}

const longContextThreshold = 200

// Route selects one chat-model handle for the current request. It never
// fails: an unregistered configured model falls back to local and the
// substitution is reported in the Decision.
func Route(cfg config.RouterConfig, message string) Decision {
	switch cfg.Strategy {
	case "BUSINESS_TYPE":
		return routeByBusinessType(cfg, message)
	default: // PERCENTAGE, and the fallback for any unrecognised strategy string
		return routeByPercentage(cfg)
	}
}

func routeByPercentage(cfg config.RouterConfig) Decision {
	r := rand.Intn(100)
	if r < cfg.PercentageRemote {
		return Decision{ProviderTag: "remote", Reason: "percentage draw below threshold"}
	}
	return Decision{ProviderTag: "local", Reason: "percentage draw at or above threshold"}
}

func routeByBusinessType(cfg config.RouterConfig, message string) Decision {
	bt := DetectBusinessType(message, cfg.ToolKeywords, cfg.ComplexityKeywords)

	tag, ok := cfg.BusinessTypeMap[string(bt)]
	if !ok || tag == "" {
		return Decision{ProviderTag: "local", BusinessType: bt, Reason: "business type unmapped, defaulted to local"}
	}
	if tag != "local" && tag != "remote" {
		return Decision{ProviderTag: "local", BusinessType: bt, Reason: "configured model \"" + tag + "\" is not registered, substituted local"}
	}
	return Decision{ProviderTag: tag, BusinessType: bt, Reason: "business type mapped"}
}

// DetectBusinessType applies deterministic, first-match-wins rules. Tool
// keywords are checked before complexity keywords.
func DetectBusinessType(message string, toolKeywords, complexityKeywords []string) BusinessType {
	if containsAny(message, toolKeywords) {
		return ToolCalling
	}
	if containsAny(message, complexityKeywords) {
		return ComplexQuery
	}
	if utf8.RuneCountInString(message) > longContextThreshold {
		return LongContext
	}
	if strings.TrimSpace(message) == "" {
		return GeneralChat
	}
	return SimpleQA
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
