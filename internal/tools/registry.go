package tools

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"

	"github.com/ashwinyue/next-ai/internal/config"
	"github.com/ashwinyue/next-ai/internal/embedding"
	"github.com/ashwinyue/next-ai/internal/model"
	"github.com/ashwinyue/next-ai/internal/vectorindex"
)

// Registry builds the fixed set of tools the agent loop may call: readFile,
// listDirectory, searchFiles, getFileInfo, calculate, calculateAmortization,
// calculateIRR, calculateBondPrice, calculateZeroCouponBondPrice,
// calculateBondDuration, calculateOptionPrice, searchKnowledge,
// getCurrentTime, getWeather.
type Registry struct {
	allowedDirectory   string
	financialKeywords  []string
	loanKeywords       []string
	readFileMaxChars   int
	searchFileMaxBytes int
	knowledge          *Knowledge
}

// New constructs a Registry from configuration and the ambient clients
// searchKnowledge depends on.
func New(cfg *config.Config, embedder *embedding.Client, vectors *vectorindex.Client) *Registry {
	return &Registry{
		allowedDirectory:   cfg.Tools.AllowedDirectory,
		financialKeywords:  cfg.Tools.FinancialKeywords,
		loanKeywords:       cfg.Tools.LoanKeywords,
		readFileMaxChars:   cfg.Tools.ReadFileMaxChars,
		searchFileMaxBytes: cfg.Tools.SearchFileMaxBytes,
		knowledge: &Knowledge{
			Embedder:   embedder,
			Vectors:    vectors,
			MaxResults: cfg.Vector.MaxResults,
			MinScore:   cfg.Vector.MinScore,
		},
	}
}

// Build returns a fresh []tool.BaseTool for a single agent-loop invocation,
// wired to sink so every call in this request reports its own CallRecord
// (no process-wide singleton). sources, if non-nil, collects the retrieved
// passages of any searchKnowledge call made during the request, for
// Message.Sources.
func (r *Registry) Build(sink RecordSink, sources *[]model.Source) ([]tool.BaseTool, error) {
	var step int64

	nextStep := func() int { return int(atomic.AddInt64(&step, 1)) }

	var tools []tool.BaseTool

	readFileTool, err := utils.InferTool("readFile",
		"读取指定路径的文件内容，路径必须位于允许的目录范围内。",
		func(ctx context.Context, in *ReadFileInput) (string, error) {
			done := emit(sink, nextStep(), "readFile", in.Path)
			out, err := ReadFile(r.allowedDirectory, in.Path, r.readFileMaxChars)
			done(out, err)
			return out, err
		})
	if err != nil {
		return nil, fmt.Errorf("infer readFile tool: %w", err)
	}
	tools = append(tools, readFileTool)

	listDirTool, err := utils.InferTool("listDirectory",
		"列出指定目录下的文件和子目录。",
		func(ctx context.Context, in *ListDirectoryInput) (string, error) {
			done := emit(sink, nextStep(), "listDirectory", in.Path)
			out, err := ListDirectory(r.allowedDirectory, in.Path)
			done(out, err)
			return out, err
		})
	if err != nil {
		return nil, fmt.Errorf("infer listDirectory tool: %w", err)
	}
	tools = append(tools, listDirTool)

	searchFilesTool, err := utils.InferTool("searchFiles",
		"在指定目录下按文件名或内容搜索关键字。",
		func(ctx context.Context, in *SearchFilesInput) (string, error) {
			input := fmt.Sprintf("keyword=%s path=%s", in.Keyword, in.Path)
			done := emit(sink, nextStep(), "searchFiles", input)
			out, err := SearchFiles(r.allowedDirectory, in.Keyword, in.Path, r.searchFileMaxBytes)
			done(out, err)
			return out, err
		})
	if err != nil {
		return nil, fmt.Errorf("infer searchFiles tool: %w", err)
	}
	tools = append(tools, searchFilesTool)

	fileInfoTool, err := utils.InferTool("getFileInfo",
		"获取指定文件的名称、大小、类型等元信息。",
		func(ctx context.Context, in *GetFileInfoInput) (string, error) {
			done := emit(sink, nextStep(), "getFileInfo", in.Path)
			out, err := GetFileInfo(r.allowedDirectory, in.Path)
			done(out, err)
			return out, err
		})
	if err != nil {
		return nil, fmt.Errorf("infer getFileInfo tool: %w", err)
	}
	tools = append(tools, fileInfoTool)

	calcTool, err := utils.InferTool("calculate",
		"计算一个数学表达式，支持 + - * / ^ % 括号以及 sin cos tan sqrt log。不适用于贷款或其他金融计算。",
		func(ctx context.Context, in *CalculateInput) (string, error) {
			done := emit(sink, nextStep(), "calculate", in.Expr)
			out, err := Calculate(in.Expr, r.financialKeywords, r.loanKeywords)
			done(out, err)
			return out, err
		})
	if err != nil {
		return nil, fmt.Errorf("infer calculate tool: %w", err)
	}
	tools = append(tools, calcTool)

	amortizationTool, err := utils.InferTool("calculateAmortization",
		"计算等额本息贷款的还款计划表，参数为本金、年利率（小数）、年限。",
		func(ctx context.Context, in *AmortizationInput) (string, error) {
			input := fmt.Sprintf("principal=%.2f rate=%.4f years=%.1f", in.Principal, in.AnnualRate, in.TermYears)
			done := emit(sink, nextStep(), "calculateAmortization", input)
			rows, payment, err := CalculateAmortization(in.Principal, in.AnnualRate, in.TermYears)
			if err != nil {
				done("", err)
				return "", err
			}
			out := FormatAmortization(rows, payment)
			done(out, nil)
			return out, nil
		})
	if err != nil {
		return nil, fmt.Errorf("infer calculateAmortization tool: %w", err)
	}
	tools = append(tools, amortizationTool)

	type irrInput struct {
		Cashflows string `json:"cashflows" jsonschema:"description=comma-separated cashflows, first entry is the initial outlay (negative)"`
	}
	irrTool, err := utils.InferTool("calculateIRR",
		"根据现金流序列（逗号分隔的CSV，首项为负的初始投资）计算内部收益率IRR。",
		func(ctx context.Context, in *irrInput) (string, error) {
			done := emit(sink, nextStep(), "calculateIRR", in.Cashflows)
			cfs, err := ParseCashflows(in.Cashflows)
			if err != nil {
				done("", err)
				return "", err
			}
			rate, err := CalculateIRR(cfs)
			if err != nil {
				done("", err)
				return "", err
			}
			out := fmt.Sprintf("IRR = %.4f%%", rate*100)
			done(out, nil)
			return out, nil
		})
	if err != nil {
		return nil, fmt.Errorf("infer calculateIRR tool: %w", err)
	}
	tools = append(tools, irrTool)

	type bondPriceInput struct {
		FaceValue  float64 `json:"faceValue" jsonschema:"description=bond face value"`
		CouponRate float64 `json:"couponRate" jsonschema:"description=annual coupon rate as a fraction"`
		Yield      float64 `json:"yield" jsonschema:"description=annual required yield as a fraction"`
		Years      int     `json:"years" jsonschema:"description=years to maturity"`
		Frequency  int     `json:"frequency,omitempty" jsonschema:"description=coupon payments per year, default 2"`
	}
	bondPriceTool, err := utils.InferTool("calculateBondPrice",
		"根据面值、票面利率、到期收益率和年限计算债券现值。",
		func(ctx context.Context, in *bondPriceInput) (string, error) {
			input := fmt.Sprintf("faceValue=%.2f couponRate=%.4f yield=%.4f years=%d", in.FaceValue, in.CouponRate, in.Yield, in.Years)
			done := emit(sink, nextStep(), "calculateBondPrice", input)
			price := CalculateBondPrice(in.FaceValue, in.CouponRate, in.Yield, in.Years, in.Frequency)
			out := fmt.Sprintf("%.4f", price)
			done(out, nil)
			return out, nil
		})
	if err != nil {
		return nil, fmt.Errorf("infer calculateBondPrice tool: %w", err)
	}
	tools = append(tools, bondPriceTool)

	type zeroCouponInput struct {
		FaceValue float64 `json:"faceValue" jsonschema:"description=bond face value"`
		Yield     float64 `json:"yield" jsonschema:"description=annual required yield as a fraction"`
		Years     int     `json:"years" jsonschema:"description=years to maturity"`
	}
	zeroCouponTool, err := utils.InferTool("calculateZeroCouponBondPrice",
		"计算零息债券的现值。",
		func(ctx context.Context, in *zeroCouponInput) (string, error) {
			input := fmt.Sprintf("faceValue=%.2f yield=%.4f years=%d", in.FaceValue, in.Yield, in.Years)
			done := emit(sink, nextStep(), "calculateZeroCouponBondPrice", input)
			out := fmt.Sprintf("%.4f", CalculateZeroCouponBondPrice(in.FaceValue, in.Yield, in.Years))
			done(out, nil)
			return out, nil
		})
	if err != nil {
		return nil, fmt.Errorf("infer calculateZeroCouponBondPrice tool: %w", err)
	}
	tools = append(tools, zeroCouponTool)

	type bondDurationInput struct {
		FaceValue  float64 `json:"faceValue"`
		CouponRate float64 `json:"couponRate"`
		Yield      float64 `json:"yield"`
		Years      int     `json:"years"`
		Frequency  int     `json:"frequency,omitempty"`
	}
	bondDurationTool, err := utils.InferTool("calculateBondDuration",
		"计算债券的麦考利久期、修正久期和凸性。",
		func(ctx context.Context, in *bondDurationInput) (string, error) {
			input := fmt.Sprintf("faceValue=%.2f couponRate=%.4f yield=%.4f years=%d", in.FaceValue, in.CouponRate, in.Yield, in.Years)
			done := emit(sink, nextStep(), "calculateBondDuration", input)
			d := CalculateBondDuration(in.FaceValue, in.CouponRate, in.Yield, in.Years, in.Frequency)
			out := fmt.Sprintf("麦考利久期: %.4f\n修正久期: %.4f\n凸性: %.4f", d.Macaulay, d.Modified, d.Convexity)
			done(out, nil)
			return out, nil
		})
	if err != nil {
		return nil, fmt.Errorf("infer calculateBondDuration tool: %w", err)
	}
	tools = append(tools, bondDurationTool)

	type optionInput struct {
		Spot         float64 `json:"spot" jsonschema:"description=current price of the underlying"`
		Strike       float64 `json:"strike" jsonschema:"description=option strike price"`
		Years        float64 `json:"years" jsonschema:"description=time to expiry in years"`
		RiskFreeRate float64 `json:"riskFreeRate" jsonschema:"description=annual risk-free rate as a fraction"`
		Volatility   float64 `json:"volatility" jsonschema:"description=annualised volatility as a fraction"`
		IsCall       bool    `json:"isCall" jsonschema:"description=true for a call option, false for a put"`
	}
	optionTool, err := utils.InferTool("calculateOptionPrice",
		"用Black-Scholes模型计算欧式期权价格及希腊字母(delta,gamma,vega,theta,rho)。",
		func(ctx context.Context, in *optionInput) (string, error) {
			input := fmt.Sprintf("spot=%.2f strike=%.2f years=%.2f r=%.4f sigma=%.4f call=%v",
				in.Spot, in.Strike, in.Years, in.RiskFreeRate, in.Volatility, in.IsCall)
			done := emit(sink, nextStep(), "calculateOptionPrice", input)
			g := CalculateOptionPrice(in.Spot, in.Strike, in.Years, in.RiskFreeRate, in.Volatility, in.IsCall)
			out := fmt.Sprintf("价格: %.4f\nDelta: %.4f\nGamma: %.4f\nVega: %.4f\nTheta: %.4f\nRho: %.4f",
				g.Price, g.Delta, g.Gamma, g.Vega, g.Theta, g.Rho)
			done(out, nil)
			return out, nil
		})
	if err != nil {
		return nil, fmt.Errorf("infer calculateOptionPrice tool: %w", err)
	}
	tools = append(tools, optionTool)

	searchKnowledgeTool, err := utils.InferTool("searchKnowledge",
		"在知识库中检索与查询相关的内容片段，返回带来源和相似度分数的文本。",
		func(ctx context.Context, in *SearchKnowledgeInput) (string, error) {
			done := emit(sink, nextStep(), "searchKnowledge", in.Query)
			out, segments, err := r.knowledge.SearchKnowledge(ctx, in.Query, in.MaxResults)
			done(out, err)
			if err == nil && sources != nil {
				for _, s := range segments {
					*sources = append(*sources, model.Source{Filename: s.Filename, Excerpt: s.Text, Score: s.Score})
				}
			}
			return out, err
		})
	if err != nil {
		return nil, fmt.Errorf("infer searchKnowledge tool: %w", err)
	}
	tools = append(tools, searchKnowledgeTool)

	timeTool, err := utils.InferTool("getCurrentTime",
		"获取当前的日期和时间。",
		func(ctx context.Context, in *GetCurrentTimeInput) (string, error) {
			done := emit(sink, nextStep(), "getCurrentTime", "")
			out := GetCurrentTime()
			done(out, nil)
			return out, nil
		})
	if err != nil {
		return nil, fmt.Errorf("infer getCurrentTime tool: %w", err)
	}
	tools = append(tools, timeTool)

	weatherTool, err := utils.InferTool("getWeather",
		"查询指定城市的天气。",
		func(ctx context.Context, in *GetWeatherInput) (string, error) {
			done := emit(sink, nextStep(), "getWeather", in.City)
			out := GetWeather(in.City)
			done(out, nil)
			return out, nil
		})
	if err != nil {
		return nil, fmt.Errorf("infer getWeather tool: %w", err)
	}
	tools = append(tools, weatherTool)

	return tools, nil
}

// SearchKnowledgeDirect exposes searchKnowledge outside the tool-calling
// wire format, returning the raw vectorindex.Segment slice alongside the
// formatted text. It records no CallRecord.
func (r *Registry) SearchKnowledgeDirect(ctx context.Context, query string, maxResults int) (string, []vectorindex.Segment, error) {
	return r.knowledge.SearchKnowledge(ctx, query, maxResults)
}
