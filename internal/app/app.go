package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quizpilot/internal/common"
	"github.com/ternarybob/quizpilot/internal/interfaces"
	"github.com/ternarybob/quizpilot/internal/models"
	"github.com/ternarybob/quizpilot/internal/services/browser"
	"github.com/ternarybob/quizpilot/internal/services/llm"
	"github.com/ternarybob/quizpilot/internal/services/quiz"
	"github.com/ternarybob/quizpilot/internal/storage/badger"
	"github.com/ternarybob/quizpilot/internal/storage/jsonfile"
)

// BrowserFactory starts the browser a run drives
type BrowserFactory func(config *common.BrowserConfig, logger arbor.ILogger) (interfaces.Browser, error)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	History  interfaces.RunStorage // nil when run history is disabled
	Exporter interfaces.QuestionExporter
	Provider *llm.ProviderFactory // nil for dry runs

	newBrowser BrowserFactory
}

// New creates the application. Chrome is not started until RunQuiz.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Exporter: jsonfile.NewExporter(cfg.Quiz.ExportPath, logger),
		newBrowser: func(config *common.BrowserConfig, logger arbor.ILogger) (interfaces.Browser, error) {
			return browser.NewChromeDP(config, logger)
		},
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if !cfg.Quiz.DryRun {
		app.Provider = llm.NewProviderFactory(cfg, logger)
	}

	logger.Debug().
		Bool("history_enabled", app.History != nil).
		Bool("dry_run", cfg.Quiz.DryRun).
		Str("provider", string(cfg.LLM.DefaultProvider)).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase opens the run history store when it is enabled
func (a *App) initDatabase() error {
	if !a.Config.Storage.Badger.Enabled {
		return nil
	}

	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.History = badger.NewRunStorage(db, a.Logger)
	return nil
}

// WithBrowserFactory replaces the Chrome launcher
func (a *App) WithBrowserFactory(factory BrowserFactory) *App {
	a.newBrowser = factory
	return a
}

// RunQuiz starts a browser and a fresh chat session and takes the test once
func (a *App) RunQuiz(ctx context.Context) (*models.RunRecord, error) {
	var session interfaces.ChatSession
	if a.Provider != nil {
		session = llm.NewChatSession(a.Provider, a.Provider.DefaultModel(), &a.Config.LLM, a.Logger)
	}

	b, err := a.newBrowser(&a.Config.Browser, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	driver := quiz.NewDriver(b, session, a.Exporter, a.History, a.Config, a.Logger)
	return driver.Run(ctx)
}

// RecentRuns returns up to limit runs from the history, most recent first
func (a *App) RecentRuns(ctx context.Context, limit int) ([]*models.RunRecord, error) {
	if a.History == nil {
		return nil, fmt.Errorf("run history is disabled (storage.badger.enabled = false)")
	}
	return a.History.ListRuns(ctx, limit)
}

// Close releases the provider clients and the history store
func (a *App) Close() error {
	if a.Provider != nil {
		if err := a.Provider.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM provider")
		}
	}

	if a.History != nil {
		if err := a.History.Close(); err != nil {
			return fmt.Errorf("failed to close run history: %w", err)
		}
	}
	return nil
}
