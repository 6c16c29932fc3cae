package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	ServerPort  string   `mapstructure:"SERVER_PORT"`
	GinMode     string   `mapstructure:"GIN_MODE"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DataDir     string   `mapstructure:"DATA_DIR"`
	RulesFile   string   `mapstructure:"RULES_FILE"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
	// TrustedProxies may set X-Forwarded-For; empty means the socket address is the client.
	TrustedProxies []string      `mapstructure:"TRUSTED_PROXIES"`
	LLM            LLMConfig     `mapstructure:"LLM"`
	Admin          AdminConfig   `mapstructure:"ADMIN"`
	RateLimit      RateLimitConf `mapstructure:"RATE_LIMIT"`
	Log            LogConfig     `mapstructure:"LOG"`
}

// LLMConfig holds provider settings and the guard budget for every call.
type LLMConfig struct {
	APIKey     string        `mapstructure:"API_KEY"`
	Model      string        `mapstructure:"MODEL"`
	Timeout    time.Duration `mapstructure:"TIMEOUT"`
	MaxRetries int           `mapstructure:"MAX_RETRIES"`
}

// AdminConfig holds JWT settings for the /admin routes.
type AdminConfig struct {
	JWTSigningKey string `mapstructure:"JWT_SIGNING_KEY"`
	Issuer        string `mapstructure:"ISSUER"`
}

// RateLimitConf is requests per minute per client IP.
type RateLimitConf struct {
	PlanPerMinute     int `mapstructure:"PLAN_PER_MINUTE"`
	EvaluatePerMinute int `mapstructure:"EVALUATE_PER_MINUTE"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"JSON"`
	Debug bool `mapstructure:"DEBUG"`
}

const envPrefix = "MENTORMUNI"

// LoadConfig loads configuration from .env, config.yaml and environment
// variables, in increasing order of precedence.
func LoadConfig(paths ...string) (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("fatal error config file: %w", err)
		}
	}

	// MENTORMUNI_SERVER_PORT, MENTORMUNI_LLM_TIMEOUT etc.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional unprefixed names used by deployment platforms
	_ = v.BindEnv("LLM.API_KEY", envPrefix+"_LLM_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("DATA_DIR", envPrefix+"_DATA_DIR", "DATA_DIR")
	_ = v.BindEnv("DATABASE_URL", envPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("SERVER_PORT", envPrefix+"_SERVER_PORT", "PORT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", ":8000")
	v.SetDefault("GIN_MODE", "release") // gin.DebugMode, gin.ReleaseMode, gin.TestMode
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("RULES_FILE", "")
	v.SetDefault("CORS_ORIGINS", []string{"*"})
	v.SetDefault("TRUSTED_PROXIES", []string{})
	v.SetDefault("LLM.API_KEY", "")
	v.SetDefault("LLM.MODEL", "gemini-2.5-flash")
	v.SetDefault("LLM.TIMEOUT", "30s")
	v.SetDefault("LLM.MAX_RETRIES", 3)
	v.SetDefault("ADMIN.JWT_SIGNING_KEY", "") // admin routes are disabled when empty
	v.SetDefault("ADMIN.ISSUER", "mentormuni")
	v.SetDefault("RATE_LIMIT.PLAN_PER_MINUTE", 20)
	v.SetDefault("RATE_LIMIT.EVALUATE_PER_MINUTE", 60)
	v.SetDefault("LOG.JSON", true)
	v.SetDefault("LOG.DEBUG", false)
}

func (c *Config) normalize() {
	if c.ServerPort != "" && !strings.Contains(c.ServerPort, ":") {
		c.ServerPort = ":" + c.ServerPort
	}
	c.CORSOrigins = splitList(c.CORSOrigins)
	c.TrustedProxies = splitList(c.TrustedProxies)
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
}

// splitList flattens comma separated env values into trimmed, non-empty items.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, p := range strings.Split(item, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is not set"))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("LLM.TIMEOUT must be positive, got %s", c.LLM.Timeout))
	}
	if c.LLM.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("LLM.MAX_RETRIES must be at least 1, got %d", c.LLM.MaxRetries))
	}
	if c.RateLimit.PlanPerMinute < 1 || c.RateLimit.EvaluatePerMinute < 1 {
		errs = append(errs, errors.New("rate limits must be at least 1 per minute"))
	}
	return errors.Join(errs...)
}

// AdminEnabled reports whether the admin routes can be mounted.
func (c *Config) AdminEnabled() bool {
	return c.Admin.JWTSigningKey != ""
}
