package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/agentd/config"
	"github.com/mohammad-safakhou/agentd/internal/agent"
	"github.com/mohammad-safakhou/agentd/internal/jobs"
	"github.com/mohammad-safakhou/agentd/internal/jobs/inmemory"
	"github.com/mohammad-safakhou/agentd/internal/jobs/redisstore"
	"github.com/mohammad-safakhou/agentd/internal/telemetry"
	"github.com/mohammad-safakhou/agentd/provider"
	"github.com/mohammad-safakhou/agentd/tools/web_fetch"
	"github.com/mohammad-safakhou/agentd/tools/web_search"
)

func Run(cfg *config.Config) error {
	e := newEcho()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}

	store, err := newJobStore(ctx, cfg)
	if err != nil {
		return err
	}

	fetcher, err := web_fetch.NewWebFetcher(
		web_fetch.FetcherType(cfg.Tools.Fetch.FetcherType),
		cfg.Tools.Fetch.Timeout,
		cfg.Tools.Fetch.MaxChars,
		cfg.Tools.Fetch.UserAgent,
	)
	if err != nil {
		return err
	}

	var tele *telemetry.Telemetry
	if cfg.Telemetry.Enabled {
		tele = telemetry.New()
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	toolsLogger := log.New(log.Writer(), "[TOOLS] ", log.LstdFlags)
	executor := &agent.Executor{
		Searcher:   web_search.NewSearcher(cfg.Tools.Search.Timeout),
		Fetcher:    fetcher,
		MaxResults: cfg.Tools.Search.MaxResults,
		Logger:     toolsLogger,
	}

	runner := &agent.Runner{
		Provider:          llm,
		Executor:          executor,
		Store:             store,
		Telemetry:         tele,
		Logger:            log.New(log.Writer(), "[AGENT] ", log.LstdFlags),
		MaxRounds:         cfg.LLM.MaxRounds,
		Language:          cfg.General.Language,
		MaxProcessingTime: cfg.General.MaxProcessingTime,
	}

	jobsLogger := log.New(log.Writer(), "[JOBS] ", log.LstdFlags)
	jobs.StartSweeper(ctx, store, cfg.Jobs.SweepInterval, cfg.Jobs.Retention, jobsLogger)

	h := &AgentHandler{
		Provider:     llm,
		Runner:       runner,
		Store:        store,
		Telemetry:    tele,
		Logger:       log.New(log.Writer(), "[API] ", log.LstdFlags),
		DefaultModel: cfg.LLM.DefaultModel,
		BaseCtx:      ctx,
	}
	h.Register(e.Group("/api/agent"))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s", cfg.Server.Address)
	if err := e.Start(cfg.Server.Address); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	return e
}

func newJobStore(ctx context.Context, cfg *config.Config) (jobs.Store, error) {
	switch cfg.Jobs.Backend {
	case "redis":
		if cfg.Storage.Redis.Host == "" {
			return nil, fmt.Errorf("jobs.backend is redis but storage.redis is not configured")
		}
		rs := redisstore.NewStore(
			fmt.Sprintf("%s:%s", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
			cfg.Storage.Redis.Password,
			cfg.Storage.Redis.DB,
			cfg.Jobs.Retention,
		)
		if err := rs.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, err)
		}
		return rs, nil
	default:
		return inmemory.NewStore(), nil
	}
}
