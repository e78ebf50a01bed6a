// Package container wires every dependency of the API process in one place.
package container

import (
	"github.com/Champion2005/amicooked-sub000/config"
	"github.com/Champion2005/amicooked-sub000/pkg/ai/llm"
	"github.com/Champion2005/amicooked-sub000/pkg/analysis"
	"github.com/Champion2005/amicooked-sub000/pkg/api/handlers"
	"github.com/Champion2005/amicooked-sub000/pkg/billing"
	"github.com/Champion2005/amicooked-sub000/pkg/chat"
	"github.com/Champion2005/amicooked-sub000/pkg/github"
	"github.com/Champion2005/amicooked-sub000/pkg/jobs"
	"github.com/Champion2005/amicooked-sub000/pkg/logger"
	"github.com/Champion2005/amicooked-sub000/pkg/memory"
	"github.com/Champion2005/amicooked-sub000/pkg/metrics"
	"github.com/Champion2005/amicooked-sub000/pkg/oauth"
	"github.com/Champion2005/amicooked-sub000/pkg/store"
	"github.com/Champion2005/amicooked-sub000/pkg/usage"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger logger.Logger

	// Infrastructure
	Store   *store.Client
	Metrics *metrics.Metrics

	// Services
	LLMClient       llm.Client
	UsageService    *usage.Service
	AnalysisService *analysis.Service
	MemoryManager   *memory.Manager
	ChatService     *chat.Service
	GitHubClient    *github.Client
	OAuthService    *oauth.Service
	BillingService  *billing.Service
	CronManager     *jobs.CronManager

	// Handlers
	AuthHandler     *handlers.AuthHandler
	AnalysisHandler *handlers.AnalysisHandler
	ChatHandler     *handlers.ChatHandler
	UsageHandler    *handlers.UsageHandler
	BillingHandler  *handlers.BillingHandler
	AccountHandler  *handlers.AccountHandler
}

// New creates and initializes all application dependencies
func New(cfg *config.Config) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger.New(cfg.LogLevel, cfg.LogFormat),
	}

	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	c.initServices()
	c.initHandlers()

	c.Logger.Info("container initialized", "environment", cfg.APIEnvironment)
	return c, nil
}

// initInfrastructure connects to Redis and registers metrics
func (c *Container) initInfrastructure() error {
	st, err := store.NewClient(c.Config.RedisURL)
	if err != nil {
		c.Logger.Error("failed to connect to redis", "error", err)
		return err
	}
	c.Store = st
	c.Metrics = metrics.New()

	c.Logger.Info("infrastructure initialized", "store", "connected")
	return nil
}

// initServices initializes all domain services
func (c *Container) initServices() {
	c.LLMClient = llm.NewOpenRouterClient(llm.Config{
		APIKey:  c.Config.OpenRouterAPIKey,
		BaseURL: c.Config.OpenRouterBaseURL,
	}, c.Logger)

	c.UsageService = usage.New(c.Store, c.Logger, c.Config.UsagePeriodDays)
	c.AnalysisService = analysis.New(c.LLMClient, c.Store, c.Logger, c.Config.AIMaxRetries)
	c.MemoryManager = memory.NewManager(c.Store, c.LLMClient, c.Logger)
	c.ChatService = chat.New(c.LLMClient, c.UsageService, c.AnalysisService, c.MemoryManager, c.Logger)
	c.GitHubClient = github.NewClient(c.Config.GitHubAPIBaseURL, c.Config.GitHubToken)

	c.OAuthService = oauth.NewService(oauth.Config{
		ClientID:     c.Config.GitHubClientID,
		ClientSecret: c.Config.GitHubClientSecret,
		CallbackURL:  c.Config.OAuthCallbackURL,
		OAuthBaseURL: c.Config.GitHubOAuthBaseURL,
		APIBaseURL:   c.Config.GitHubAPIBaseURL,
	})

	c.BillingService = billing.NewService(c.Store, c.Logger, &billing.StripeConfig{
		SecretKey:     c.Config.StripeSecretKey,
		WebhookSecret: c.Config.StripeWebhookSecret,
		PriceStudent:  c.Config.StripePriceStudent,
		PricePro:      c.Config.StripePricePro,
		PriceUltimate: c.Config.StripePriceUltimate,
		SuccessURL:    c.Config.FrontendURL + "/upgrade?success=true",
		CancelURL:     c.Config.FrontendURL + "/upgrade?canceled=true",
	})

	c.CronManager = jobs.NewCronManager(c.Store, c.Logger, c.Config.UsagePeriodDays)

	c.Logger.Info("services initialized",
		"usage_service", "ready",
		"analysis_service", "ready",
		"chat_service", "ready",
		"billing_service", "ready")
}

// initHandlers initializes all HTTP handlers
func (c *Container) initHandlers() {
	c.AuthHandler = handlers.NewAuthHandler(c.OAuthService, c.BillingService, c.Config.JWTSecret, c.Config.JWTExpirationHours)
	c.AnalysisHandler = handlers.NewAnalysisHandler(c.AnalysisService, c.UsageService, c.GitHubClient, c.Config.AITimeoutSeconds)
	c.ChatHandler = handlers.NewChatHandler(c.ChatService, c.Config.ChatTimeoutSeconds)
	c.UsageHandler = handlers.NewUsageHandler(c.UsageService)
	c.BillingHandler = handlers.NewBillingHandler(c.BillingService)
	c.AccountHandler = handlers.NewAccountHandler(c.UsageService, c.AnalysisService, c.MemoryManager)
}

// Close releases infrastructure connections.
func (c *Container) Close() error {
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}
