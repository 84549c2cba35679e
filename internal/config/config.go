package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"coursechat-backend/internal/models"
)

// Redis holds the course store connection settings.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// Providers holds the server-side fallback credentials and endpoints used
// when a course does not configure its own.
type Providers struct {
	OpenAIAPIKey         string        `env:"OPENAI_API_KEY"`
	AnthropicAPIKey      string        `env:"ANTHROPIC_API_KEY"`
	AzureAPIKey          string        `env:"AZURE_OPENAI_KEY"`
	AzureEndpoint        string        `env:"AZURE_OPENAI_ENDPOINT"`
	AzureDeployment      string        `env:"AZURE_OPENAI_DEPLOYMENT"`
	AzureAPIVersion      string        `env:"AZURE_OPENAI_API_VERSION" env-default:"2024-02-01"`
	OllamaServerURL      string        `env:"OLLAMA_SERVER_URL"`
	NCSAHostedAPIKey     string        `env:"NCSA_HOSTED_API_KEY"`
	NCSAHostedServerURL  string        `env:"NCSA_HOSTED_SERVER_URL"`
	VLLMServerURL        string        `env:"VLLM_SERVER_URL"`
	VLLMAPIKey           string        `env:"VLLM_API_KEY"`
	Timeout              time.Duration `env:"PROVIDER_TIMEOUT" env-default:"120s"`
	ResponseTokenReserve int           `env:"RESPONSE_TOKEN_RESERVE" env-default:"1500"`
}

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort       string   `env:"HTTP_PORT" env-default:"8080"`
	JWTSecret      string   `env:"JWT_SECRET"` // empty disables bearer auth on /v1
	SigningSecret  string   `env:"SIGNING_SECRET"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://localhost:5173"`
	TokenEncoding  string   `env:"TOKEN_ENCODING" env-default:"cl100k_base"`

	Redis     Redis
	Providers Providers
}

// ErrMissingSigningSecret is returned when SIGNING_SECRET is unset.
var ErrMissingSigningSecret = errors.New("SIGNING_SECRET environment variable is not set")

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
	}
	return FromEnv()
}

// FromEnv reads the process environment without touching .env files.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if cfg.SigningSecret == "" {
		return nil, ErrMissingSigningSecret
	}
	if cfg.Providers.ResponseTokenReserve < 0 {
		return nil, fmt.Errorf("RESPONSE_TOKEN_RESERVE must not be negative, got %d", cfg.Providers.ResponseTokenReserve)
	}

	log.Printf("Loaded config: Port=%s, Redis=%s, JWTAuth=%t, SigningSecret=***, ProviderTimeout=%s",
		cfg.HTTPPort, cfg.Redis.Addr, cfg.JWTSecret != "", cfg.Providers.Timeout)
	return &cfg, nil
}

// Defaults returns the server-side provider settings a course inherits.
// Providers with nothing configured are left out so they stay disabled;
// WebLLM needs no settings and is always present.
func (p Providers) Defaults() models.ProviderConfigs {
	out := models.ProviderConfigs{
		models.ProviderWebLLM: {Provider: models.ProviderWebLLM, Enabled: true},
	}
	add := func(cfg models.ProviderConfig, configured bool) {
		if configured {
			cfg.Enabled = true
			out[cfg.Provider] = cfg
		}
	}
	add(models.ProviderConfig{Provider: models.ProviderOpenAI, APIKey: p.OpenAIAPIKey}, p.OpenAIAPIKey != "")
	add(models.ProviderConfig{Provider: models.ProviderAnthropic, APIKey: p.AnthropicAPIKey}, p.AnthropicAPIKey != "")
	add(models.ProviderConfig{
		Provider:        models.ProviderAzure,
		APIKey:          p.AzureAPIKey,
		AzureEndpoint:   p.AzureEndpoint,
		AzureDeployment: p.AzureDeployment,
		AzureAPIVersion: p.AzureAPIVersion,
	}, p.AzureAPIKey != "" && p.AzureEndpoint != "")
	add(models.ProviderConfig{Provider: models.ProviderOllama, BaseURL: p.OllamaServerURL}, p.OllamaServerURL != "")
	add(models.ProviderConfig{Provider: models.ProviderNCSAHosted, APIKey: p.NCSAHostedAPIKey, BaseURL: p.NCSAHostedServerURL}, p.NCSAHostedServerURL != "")
	add(models.ProviderConfig{Provider: models.ProviderVLLM, APIKey: p.VLLMAPIKey, BaseURL: p.VLLMServerURL}, p.VLLMServerURL != "")
	return out
}
