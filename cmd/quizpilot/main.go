package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/quizpilot/internal/app"
	"github.com/ternarybob/quizpilot/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	envFile      = flag.String("env", ".env", "Environment file loaded before configuration (existing variables win)")
	targetURL    = flag.String("url", "", "Test page URL (overrides config)")
	exportPath   = flag.String("export", "", "Path of the questions JSON export (overrides config)")
	provider     = flag.String("provider", "", "LLM provider: gemini or claude (overrides config)")
	headless     = flag.Bool("headless", false, "Run Chrome headless")
	dryRun       = flag.Bool("dry-run", false, "Extract and export questions only; no model calls and no clicks")
	showHistory  = flag.Bool("history", false, "Print recent runs and exit")
	historyLimit = flag.Int("limit", 10, "Number of runs printed by -history")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	os.Exit(run())
}

func run() int {
	defer common.RecoverWithCrashFile()
	flag.Parse()

	if *showVersion || *showVersionV {
		common.LoadVersionFromFile()
		fmt.Println(common.GetFullVersion())
		return 0
	}

	// Startup sequence:
	// 1. .env file (never overrides the real environment)
	// 2. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 3. Apply CLI overrides (highest priority)
	// 4. Initialize logger
	// 5. Print banner (runs only)
	startupLogger := common.NewConsoleLogger()

	if err := common.LoadDotEnv(*envFile); err != nil {
		startupLogger.Error().Err(err).Msg("Failed to load environment file")
		return 1
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("quizpilot.toml"); err == nil {
			configFiles = append(configFiles, "quizpilot.toml")
		} else if _, err := os.Stat("deployments/local/quizpilot.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/quizpilot.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		startupLogger.Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		return 1
	}

	common.ApplyFlagOverrides(config, common.FlagOverrides{
		URL:      *targetURL,
		Export:   *exportPath,
		Provider: *provider,
		Headless: *headless,
		DryRun:   *dryRun,
	})

	common.InstallCrashHandler(config.Logging.Dir)
	logger := common.InitLogger(config)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("provider", string(config.LLM.DefaultProvider)).
		Bool("headless", config.Browser.Headless).
		Str("log_level", config.Logging.Level).
		Msg("Resolved configuration")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *showHistory {
		application, err := app.New(historyConfig(config), logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to initialize application")
			return 1
		}
		defer application.Close()

		runs, err := application.RecentRuns(ctx, *historyLimit)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to read run history")
			return 1
		}
		printHistory(os.Stdout, runs)
		return 0
	}

	if err := config.Validate(); err != nil {
		logger.Error().Err(err).Msg("Configuration is not usable")
		return 1
	}

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return 1
	}
	defer application.Close()

	common.PrintBanner(config)
	logger.Info().
		Str("version", common.GetVersion()).
		Str("url", config.Quiz.URL).
		Msg("Starting quizpilot")

	if _, err := application.RunQuiz(ctx); err != nil {
		logger.Error().Err(err).Msg("Quiz run failed")
		return 1
	}

	if ctx.Err() != nil {
		logger.Warn().Msg("Interrupted")
	}
	return 0
}

// historyConfig is the configuration used to list past runs: the history is
// never reset and no LLM provider is set up.
func historyConfig(config *common.Config) *common.Config {
	readOnly := *config
	readOnly.Storage.Badger.ResetOnStartup = false
	readOnly.Quiz.DryRun = true
	return &readOnly
}
