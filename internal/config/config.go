package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	AuthIssuer   string `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL  string `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience string `mapstructure:"AUTH_AUDIENCE"`

	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`

	LLMEndpoint       string  `mapstructure:"LLM_ENDPOINT"`
	LLMAPIKey         string  `mapstructure:"LLM_API_KEY"`
	LLMModel          string  `mapstructure:"LLM_MODEL"`
	LLMTimeoutSeconds int     `mapstructure:"LLM_TIMEOUT_SECONDS"`
	LLMTemperature    float64 `mapstructure:"LLM_TEMPERATURE"`
	LLMMaxTokens      int     `mapstructure:"LLM_MAX_TOKENS"`

	TranscribeURL    string `mapstructure:"TRANSCRIBE_URL"`
	TranscribeAPIKey string `mapstructure:"TRANSCRIBE_API_KEY"`
	OCRURL           string `mapstructure:"OCR_URL"`
	OCRAPIKey        string `mapstructure:"OCR_API_KEY"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("LLM_TIMEOUT_SECONDS", 60)
	v.SetDefault("LLM_TEMPERATURE", 0.0)
	v.SetDefault("LLM_MAX_TOKENS", 4096)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "REDIS_URL",
		"AUTH_ISSUER", "AUTH_JWKS_URL", "AUTH_AUDIENCE",
		"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"LLM_ENDPOINT", "LLM_API_KEY", "LLM_MODEL",
		"LLM_TIMEOUT_SECONDS", "LLM_TEMPERATURE", "LLM_MAX_TOKENS",
		"TRANSCRIBE_URL", "TRANSCRIBE_API_KEY", "OCR_URL", "OCR_API_KEY",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active — all requests get full access.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure AUTH_ISSUER for production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LLMTimeout returns the capability call timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// Validate checks that the configuration is safe to run. Outside development
// AUTH_ISSUER must be set so real JWT authentication is enforced. Extraction
// capability settings are deliberately not required at startup; their absence
// surfaces as a ConfigurationError on first extraction.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthIssuer == "" {
		return fmt.Errorf(
			"AUTH_ISSUER must be set when ENV=%q. "+
				"Refusing to start without authentication configuration", c.Env)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.LLMTimeoutSeconds <= 0 {
		return fmt.Errorf("LLM_TIMEOUT_SECONDS must be positive")
	}
	return nil
}
