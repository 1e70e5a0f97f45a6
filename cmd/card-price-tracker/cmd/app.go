package cmd

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/donaldgifford/card-price-tracker/api/openapi"
	"github.com/donaldgifford/card-price-tracker/internal/api/handlers"
	"github.com/donaldgifford/card-price-tracker/internal/api/middleware"
	"github.com/donaldgifford/card-price-tracker/internal/cache"
	"github.com/donaldgifford/card-price-tracker/internal/config"
	"github.com/donaldgifford/card-price-tracker/internal/ebay"
	"github.com/donaldgifford/card-price-tracker/internal/engine"
	"github.com/donaldgifford/card-price-tracker/internal/scrape"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

// app holds the wired components shared by serve and the local lookup
// command.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	ctrl      *ebay.Controller
	tokens    *ebay.OAuthTokenProvider
	tokenLRU  *cache.Store[string]
	analytics *ebay.AnalyticsClient
	listings  *cache.Store[[]domain.ListingCandidate]
	engine    *engine.Engine
}

func policy(r config.RateLimitConfig) ebay.Policy {
	return ebay.Policy{
		MinInterval: r.MinInterval,
		DailyLimit:  r.DailyLimit,
		BackoffBase: r.BackoffBase,
		BackoffMax:  r.BackoffMax,
	}
}

func newApp(cfg *config.Config, log *slog.Logger) *app {
	a := &app{cfg: cfg, log: log}

	a.ctrl = ebay.NewController(
		ebay.WithPolicy(ebay.KeyBrowse, policy(cfg.Ebay.RateLimit)),
		ebay.WithPolicy(ebay.KeyScrape, policy(cfg.Scrape.RateLimit)),
	)

	a.tokenLRU = ebay.NewTokenCache()
	a.tokens = ebay.NewOAuthTokenProvider(
		cfg.Ebay.AppID, cfg.Ebay.CertID,
		ebay.WithTokenURL(cfg.Ebay.TokenURL),
		ebay.WithTokenCache(a.tokenLRU),
	)
	a.analytics = ebay.NewAnalyticsClient(a.tokens, ebay.WithAnalyticsURL(cfg.Ebay.AnalyticsURL))

	browse := ebay.NewBrowseClient(a.tokens,
		ebay.WithBrowseURL(cfg.Ebay.BrowseURL),
		ebay.WithMarketplace(cfg.Ebay.Marketplace),
		ebay.WithController(a.ctrl),
		ebay.WithLogger(log),
		ebay.WithRawCapture(cfg.Debug.CaptureRaw),
	)
	source := ebay.NewBrowseSource(browse,
		ebay.WithCategoryID(cfg.Ebay.CategoryID),
		ebay.WithPageSize(cfg.Search.PageSize),
		ebay.WithSourceLogger(log),
	)

	a.listings = engine.NewListingsCache(
		cache.WithTTL(cfg.Cache.ListingsTTL),
		cache.WithStaleTTL(cfg.Cache.StaleTTL),
		cache.WithMaxEntries(cfg.Cache.MaxEntries),
	)

	opts := []engine.EngineOption{
		engine.WithLogger(log),
		engine.WithListingsCache(a.listings),
		engine.WithMinResults(cfg.Search.MinResults),
		engine.WithDefaultLimit(cfg.Search.DefaultLimit),
		engine.WithFetchTimeout(cfg.Search.FetchTimeout),
	}
	if cfg.Scrape.Enabled {
		opts = append(opts, engine.WithFallbackSource(scrape.New(
			scrape.WithSearchURL(cfg.Scrape.URL),
			scrape.WithUserAgent(cfg.Scrape.UserAgent),
			scrape.WithController(a.ctrl),
			scrape.WithLogger(log),
			scrape.WithRawCapture(cfg.Debug.CaptureRaw),
		)))
	}
	a.engine = engine.NewEngine(source, opts...)

	if !cfg.Ebay.HasCredentials() {
		log.Warn("ebay credentials not set; lookups will fail until app_id and cert_id are configured")
	}
	return a
}

// quotaSyncer returns the analytics client, or nil when there are no
// credentials to call it with.
func (a *app) quotaSyncer() ebay.QuotaSyncer {
	if !a.cfg.Ebay.HasCredentials() {
		return nil
	}
	return a.analytics
}

func (a *app) scheduler() (*engine.Scheduler, error) {
	var opts []engine.SchedulerOption
	if a.cfg.Ebay.HasCredentials() {
		opts = append(opts, engine.WithQuotaSync(a.analytics, a.ctrl))
	}
	return engine.NewScheduler(
		[]engine.Sweeper{a.listings, a.tokenLRU},
		a.cfg.Cache.SweepInterval,
		a.cfg.Ebay.QuotaSyncInterval,
		a.log,
		opts...,
	)
}

// router builds the Echo instance with middleware, probes, metrics, the
// OpenAPI document and every API operation.
func (a *app) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = a.cfg.Server.ReadTimeout
	e.Server.WriteTimeout = a.cfg.Server.WriteTimeout

	e.Use(middleware.Recovery(a.log))
	e.Use(middleware.RequestLog(a.log))
	e.Use(middleware.Metrics())

	handlers.RegisterHealthRoutes(e, handlers.NewHealthHandler(a.tokens))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	humaCfg := huma.DefaultConfig("Card Price Tracker API", Version)
	humaCfg.Info.Description = "Estimates realistic sale ranges for sports trading cards from marketplace listings."
	humaCfg.DocsPath = ""
	api := humaecho.New(e, humaCfg)

	openapi.RegisterRoutes(e, api)
	handlers.RegisterLookupRoutes(api, handlers.NewLookupHandler(a.engine))
	handlers.RegisterParseRoutes(api)
	handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(a.ctrl, a.quotaSyncer()))

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/swagger/index.html")
	})
	return e
}
