package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	LLM      LLMConfig
	Weather  WeatherConfig
	Agent    AgentConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers       []string
	TopicStatus   string
	TopicSnapshot string
}

// LLMConfig selects the inference backend. Provider is one of
// "anthropic", "openai", "ollama"; missing credentials fall back to the
// rule-based mock.
type LLMConfig struct {
	Provider        string
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	OllamaBaseURL   string
	OllamaModel     string
	InvokeTimeout   time.Duration
}

type WeatherConfig struct {
	UseLiveData  bool
	LiveAPIKey   string
	LiveBaseURL  string
	FetchTimeout time.Duration
	CacheTTL     time.Duration
}

type AgentConfig struct {
	SupplyChainBaseURL string
	FetchTimeout       time.Duration
	SourceCacheTTL     time.Duration
	DefaultTransitDays int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "riskwatch_user"),
			Password: getEnv("DB_PASSWORD", "riskwatch_pass"),
			DBName:   getEnv("DB_NAME", "riskwatch_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicStatus:   getEnv("KAFKA_TOPIC_STATUS", "riskwatch.agent.status"),
			TopicSnapshot: getEnv("KAFKA_TOPIC_SNAPSHOT", "riskwatch.suppliers.snapshot"),
		},
		LLM: LLMConfig{
			Provider:        getEnv("LLM_PROVIDER", "anthropic"),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
			OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OllamaBaseURL:   getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:     getEnv("OLLAMA_MODEL", "llama3"),
			InvokeTimeout:   getEnvAsDuration("LLM_INVOKE_TIMEOUT", 120*time.Second),
		},
		Weather: WeatherConfig{
			UseLiveData:  getEnvAsBool("USE_LIVE_DATA", false),
			LiveAPIKey:   getEnv("WEATHER_API_KEY", ""),
			LiveBaseURL:  getEnv("WEATHER_BASE_URL", "https://api.weatherapi.com/v1"),
			FetchTimeout: getEnvAsDuration("WEATHER_FETCH_TIMEOUT", 5*time.Second),
			CacheTTL:     getEnvAsDuration("WEATHER_CACHE_TTL", time.Hour),
		},
		Agent: AgentConfig{
			SupplyChainBaseURL: getEnv("SUPPLY_CHAIN_BASE_URL", ""),
			FetchTimeout:       getEnvAsDuration("AGENT_FETCH_TIMEOUT", 5*time.Second),
			SourceCacheTTL:     getEnvAsDuration("SOURCE_CACHE_TTL", time.Hour),
			DefaultTransitDays: getEnvAsInt("DEFAULT_TRANSIT_DAYS", 5),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
