package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"vcfo/adapters/advisor"
	"vcfo/adapters/llm"
	"vcfo/adapters/postgres"
	"vcfo/adapters/qa"
	"vcfo/adapters/render"
	"vcfo/app"
	"vcfo/internal"
	"vcfo/internal/analytics"
	"vcfo/internal/config"
	"vcfo/internal/session"
	"vcfo/ports"
	"vcfo/ui"
)

func main() {
	rebuild := flag.Bool("rebuild", false, "rebuild the advisor index before serving")
	flag.Parse()

	// Load .env file if present (development convenience)
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env file")
	}

	logger := internal.DefaultLogger

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration error: %v", err)
		os.Exit(1)
	}

	for _, dir := range []string{cfg.Paths.UploadDir, cfg.Paths.StaticDir, cfg.Paths.ExportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("could not create directory %s: %v", dir, err)
			os.Exit(1)
		}
	}

	ctx := context.Background()

	// Session store: Postgres when configured, in-memory otherwise.
	var sessions ports.SessionStore
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("database connection failed: %v", err)
			os.Exit(1)
		}
		defer db.Close()
		sessions = postgres.NewSessionRepository(db)
		logger.Info("using postgres session store")
	} else {
		sessions = session.NewMemoryStore()
		logger.Info("using in-memory session store")
	}

	// Collaborators degrade gracefully without an API key.
	var (
		advisorSvc ports.DocumentAdvisor
		advisorCon *advisor.Service
		dataQA     ports.TabularQA
	)
	if cfg.AI.APIKey != "" {
		client, err := llm.NewClient(llm.Config{
			APIKey:      cfg.AI.APIKey,
			BaseURL:     cfg.AI.BaseURL,
			Timeout:     cfg.AI.Timeout,
			Temperature: cfg.AI.Temperature,
		})
		if err != nil {
			logger.Error("llm client setup failed: %v", err)
			os.Exit(1)
		}

		advisorCon = advisor.NewService(client, cfg.AI.Model, cfg.AI.MaxTokens,
			cfg.Paths.KnowledgeBase, cfg.Paths.IndexFile, logger)
		advisorSvc = advisorCon
		dataQA = qa.NewAgent(client, cfg.AI.Model, cfg.AI.MaxTokens,
			cfg.Agent.MaxIterations, cfg.Agent.MaxExecution)

		if *rebuild {
			if err := os.Remove(cfg.Paths.IndexFile); err != nil && !os.IsNotExist(err) {
				logger.Warn("could not remove advisor index: %v", err)
			}
		}
	} else {
		logger.Warn("OPENAI_API_KEY not set, QA agent and advisor disabled")
	}

	renderer, err := render.NewRenderer(cfg.Paths.StaticDir, "/static")
	if err != nil {
		logger.Error("renderer setup failed: %v", err)
		os.Exit(1)
	}

	engine := analytics.NewEngine(renderer, cfg.Paths.ExportDir)
	chatService := app.NewChatService(sessions, engine, renderer, advisorSvc, dataQA, logger)

	webApp, err := ui.NewApp(ui.Config{
		Port:      cfg.Server.Port,
		UploadDir: cfg.Paths.UploadDir,
		StaticDir: cfg.Paths.StaticDir,
	}, chatService, sessions, logger)
	if err != nil {
		logger.Error("web app setup failed: %v", err)
		os.Exit(1)
	}

	// The advisor index build can take a while on a large corpus, so it runs
	// alongside the server. Chat requests see the advisor as uninitialized
	// until the build finishes.
	g, _ := errgroup.WithContext(ctx)
	if advisorCon != nil {
		g.Go(func() error { return advisorCon.Initialize(*rebuild) })
	}
	g.Go(webApp.Start)
	if err := g.Wait(); err != nil {
		logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
}
