package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// API Configuration
	APIPort        string
	APIHost        string
	APIEnvironment string

	// Redis (usage counters, analysis results, persisted memory)
	RedisURL string

	// JWT & Security
	JWTSecret          string
	JWTExpirationHours int

	// CORS
	CORSAllowedOrigins []string

	// Transport rate limiting (requests, not plan quotas)
	RateLimitRequestsPerMinute int
	RateLimitBurst             int

	// OpenRouter / AI
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	AITimeoutSeconds  int
	ChatTimeoutSeconds int
	AIMaxRetries      int

	// Usage accounting
	UsagePeriodDays int

	// GitHub
	GitHubAPIBaseURL string
	GitHubToken      string

	// GitHub OAuth login
	GitHubClientID     string
	GitHubClientSecret string
	GitHubOAuthBaseURL string
	OAuthCallbackURL   string

	// Stripe (checkout stubs for plan upgrades)
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceStudent  string
	StripePricePro      string
	StripePriceUltimate string

	// Sentry
	SentryDSN         string
	SentryEnvironment string

	// Frontend
	FrontendURL string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// API
		APIPort:        getEnv("API_PORT", "8080"),
		APIHost:        getEnv("API_HOST", "0.0.0.0"),
		APIEnvironment: getEnv("API_ENVIRONMENT", "development"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		// JWT
		JWTSecret:          getEnv("JWT_SECRET", "change-this-in-production"),
		JWTExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),

		// CORS
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		// Rate Limiting
		RateLimitRequestsPerMinute: getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 60),
		RateLimitBurst:             getEnvAsInt("RATE_LIMIT_BURST", 10),

		// OpenRouter
		OpenRouterAPIKey:   getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL:  getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		AITimeoutSeconds:   getEnvAsInt("AI_TIMEOUT_SECONDS", 60),
		ChatTimeoutSeconds: getEnvAsInt("CHAT_TIMEOUT_SECONDS", 30),
		AIMaxRetries:       getEnvAsInt("AI_MAX_RETRIES", 3),

		// Usage accounting
		UsagePeriodDays: getEnvAsInt("USAGE_PERIOD_DAYS", 30),

		// GitHub
		GitHubAPIBaseURL: getEnv("GITHUB_API_BASE_URL", "https://api.github.com"),
		GitHubToken:      getEnv("GITHUB_TOKEN", ""),

		// GitHub OAuth
		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubOAuthBaseURL: getEnv("GITHUB_OAUTH_BASE_URL", "https://github.com"),
		OAuthCallbackURL:   getEnv("OAUTH_CALLBACK_URL", "http://localhost:8080/api/v1/auth/callback"),

		// Stripe
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceStudent:  getEnv("STRIPE_PRICE_STUDENT", ""),
		StripePricePro:      getEnv("STRIPE_PRICE_PRO", ""),
		StripePriceUltimate: getEnv("STRIPE_PRICE_ULTIMATE", ""),

		// Sentry
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "development"),

		// Frontend
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice gets a comma-separated environment variable as a string slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
