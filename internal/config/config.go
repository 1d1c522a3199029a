package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Report   ReportConfig
	Agent    AgentConfig
	Redis    RedisConfig
	Nats     NatsConfig
	Auth     AuthConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	Connection      string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type AIConfig struct {
	LLMProvider string // "ollama", "openai", "azure", "gemini"
	LLMModel    string
	BaseURL     string
	APIKey      string
	APIVersion  string
	Timeout     time.Duration
}

type ReportConfig struct {
	Endpoint      string
	Username      string
	Password      string
	ReportPath    string
	ParameterName string
	Timeout       time.Duration
}

type AgentConfig struct {
	ProfilesPath     string
	StrictAliasCheck bool
	ThreadLock       string // "local", "redis" or "none"
	ThreadLockTTL    time.Duration
	CatalogCacheTTL  time.Duration
	EventsTopic      string
}

type RedisConfig struct {
	URL string
}

type NatsConfig struct {
	URL     string
	Enabled bool
}

type AuthConfig struct {
	JWTSecret string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Connection:      getEnv("DB_CONNECTION_STRING", ""),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		Ai: AIConfig{
			LLMProvider: getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:    getEnv("LLM_MODEL", "llama3"),
			BaseURL:     getEnv("LLM_BASE_URL", ""),
			APIKey:      getEnv("LLM_API_KEY", ""),
			APIVersion:  getEnv("LLM_API_VERSION", ""),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
		},
		Report: ReportConfig{
			Endpoint:      getEnv("BIP_ENDPOINT", ""),
			Username:      getEnv("BIP_USERNAME", ""),
			Password:      getEnv("BIP_PASSWORD", ""),
			ReportPath:    getEnv("BIP_REPORT_PATH", "/Custom/SCM AI Agent/SQLConnectReportCSV.xdo"),
			ParameterName: getEnv("BIP_PARAMETER_NAME", "query1"),
			Timeout:       getEnvAsDuration("BIP_TIMEOUT", 60*time.Second),
		},
		Agent: AgentConfig{
			ProfilesPath:     getEnv("AGENT_PROFILES_PATH", ""),
			StrictAliasCheck: getEnvAsBool("AGENT_STRICT_ALIAS_CHECK", true),
			ThreadLock:       strings.ToLower(getEnv("AGENT_THREAD_LOCK", "local")),
			ThreadLockTTL:    getEnvAsDuration("AGENT_THREAD_LOCK_TTL", 5*time.Minute),
			CatalogCacheTTL:  getEnvAsDuration("CATALOG_CACHE_TTL", 5*time.Minute),
			EventsTopic:      getEnv("AGENT_EVENTS_TOPIC", "AGENT_TURN_COMPLETED"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Nats: NatsConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Enabled: getEnvAsBool("NATS_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "fusion-agent-be"),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
