package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Vector   VectorConfig
	Router   RouterConfig
	Agent    AgentConfig
	Tools    ToolsConfig
	Local    ModelEndpoint
	Remote   ModelEndpoint
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
	JWTSecret   string
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// VectorConfig configures the C2 Vector Index Client (Qdrant-compatible).
type VectorConfig struct {
	URL        string
	APIKey     string
	Collection string
	MaxResults int
	MinScore   float64
}

// RouterConfig configures C7's routing policy.
type RouterConfig struct {
	// Strategy is either "PERCENTAGE" or "BUSINESS_TYPE".
	Strategy string
	// PercentageRemote is the [0,100] draw threshold for the PERCENTAGE strategy.
	PercentageRemote int
	// BusinessTypeMap maps a BusinessType name to "local" or "remote" for the
	// BUSINESS_TYPE strategy. Unmapped types resolve to "local".
	BusinessTypeMap map[string]string
	// ToolKeywords and ComplexityKeywords are the ordered, first-match-wins
	// classification lists for business-type detection, exposed as
	// configuration rather than baked into code.
	ToolKeywords       []string
	ComplexityKeywords []string
}

// AgentConfig configures C8's tool-calling loop.
type AgentConfig struct {
	ContextWindow int
	StepCap       int
}

// ToolsConfig configures C4.
type ToolsConfig struct {
	AllowedDirectory     string
	ReadFileMaxChars     int
	SearchFileMaxBytes   int
	FinancialKeywords    []string
	LoanKeywords         []string
}

// ModelEndpoint describes one chat-model provider (local Ollama-style or
// remote OpenAI-compatible DashScope).
type ModelEndpoint struct {
	BaseURL   string
	APIKey    string
	ModelName string
	Timeout   int
}

var globalConfig *Config

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("NEXT_AI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "next-ai")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.jwtSecret", "")

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "next_ai")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxLifetime", 300)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Vector
	v.SetDefault("vector.url", "http://localhost:6333")
	v.SetDefault("vector.collection", "next_ai_segments")
	v.SetDefault("vector.maxResults", 5)
	v.SetDefault("vector.minScore", 0.5)

	// Router
	v.SetDefault("router.strategy", "PERCENTAGE")
	v.SetDefault("router.percentageRemote", 50)
	v.SetDefault("router.businessTypeMap", map[string]string{
		"TOOL_CALLING":  "local",
		"COMPLEX_QUERY": "remote",
		"LONG_CONTEXT":  "remote",
		"HIGH_PRECISION": "remote",
		"SIMPLE_QA":     "local",
		"GENERAL_CHAT":  "local",
	})
	v.SetDefault("router.toolKeywords", []string{
		"计算", "查询", "天气", "时间", "IRR", "NPV", "债券", "期权", "摊销",
	})
	v.SetDefault("router.complexityKeywords", []string{
		"分析", "比较", "总结", "推理", "判断", "评估", "建议", "方案",
	})

	// Agent
	v.SetDefault("agent.contextWindow", 10)
	v.SetDefault("agent.stepCap", 8)

	// Tools
	v.SetDefault("tools.allowedDirectory", "./uploads")
	v.SetDefault("tools.readFileMaxChars", 5000)
	v.SetDefault("tools.searchFileMaxBytes", 100*1024)
	v.SetDefault("tools.financialKeywords", []string{
		"本金", "利率", "摊销", "贷款", "月供", "还款", "IRR", "NPV", "久期", "期权",
	})
	v.SetDefault("tools.loanKeywords", []string{
		"贷款", "摊销", "等额本息", "等额本金", "月供", "每期还款", "每月还", "还款",
	})

	// Model endpoints
	v.SetDefault("local.baseUrl", "http://localhost:11434/v1")
	v.SetDefault("local.modelName", "qwen2.5:7b")
	v.SetDefault("local.timeout", 120)

	v.SetDefault("remote.baseUrl", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("remote.modelName", "qwen-max")
	v.SetDefault("remote.timeout", 60)
}
