package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Quiz       QuizConfig       `toml:"quiz"`
	Browser    BrowserConfig    `toml:"browser"`
	Selectors  SelectorsConfig  `toml:"selectors"`
	Extraction ExtractionConfig `toml:"extraction"`
	LLM        LLMConfig        `toml:"llm"`
	Gemini     GeminiConfig     `toml:"gemini"`
	Claude     ClaudeConfig     `toml:"claude"`
	Storage    StorageConfig    `toml:"storage"`
	Logging    LoggingConfig    `toml:"logging"`
}

// QuizConfig describes the test being taken
type QuizConfig struct {
	URL                string `toml:"url" validate:"required,url"` // Test page (TARGET_WEBPAGE)
	AttendeeName       string `toml:"attendee_name"`               // Typed into the name field of the start form
	AttendeeCredential string `toml:"attendee_credential"`         // Typed into the credential field of the start form
	ExportPath         string `toml:"export_path" validate:"required"`
	DryRun             bool   `toml:"dry_run"` // Extract and export only; no LLM calls and no clicks
}

// BrowserConfig contains chromedp allocator and timing settings
type BrowserConfig struct {
	Headless       bool   `toml:"headless"`
	NoSandbox      bool   `toml:"no_sandbox"`
	WindowWidth    int    `toml:"window_width" validate:"gt=0"`
	WindowHeight   int    `toml:"window_height" validate:"gt=0"`
	UserAgent      string `toml:"user_agent"`    // Empty keeps Chrome's own user agent
	UserDataDir    string `toml:"user_data_dir"` // Empty uses a throwaway profile
	StartupTimeout string `toml:"startup_timeout"`
	WaitTimeout    string `toml:"wait_timeout"`    // Bound for every visibility/clickability wait
	PageLoadDelay  string `toml:"page_load_delay"` // Fixed pause after navigation and after starting the test
	SettleDelay    string `toml:"settle_delay"`    // Fixed pause between selecting an option and clicking next
	LingerDelay    string `toml:"linger_delay"`    // Fixed pause before the browser is closed
}

// SelectorsConfig holds the CSS selectors of the test page. The %s verb in
// QuestionContainer receives the question id.
type SelectorsConfig struct {
	ModalClose        string `toml:"modal_close"`
	AttendeeName      string `toml:"attendee_name"`
	AttendeeCred      string `toml:"attendee_cred"`
	StartButton       string `toml:"start_button"`
	QuestionID        string `toml:"question_id"`
	QuestionContainer string `toml:"question_container" validate:"required,contains=%s"`
	QuestionBody      string `toml:"question_body"`
	QuestionText      string `toml:"question_text"`
	Choice            string `toml:"choice"`
	Next              string `toml:"next"`
	Submit            string `toml:"submit"`
	Confirm           string `toml:"confirm"`
}

// ExtractionConfig controls how question text is read
type ExtractionConfig struct {
	QuestionFormat string `toml:"question_format" validate:"oneof=text markdown"` // "text" or "markdown"
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains provider-independent settings for the chat session
type LLMConfig struct {
	DefaultProvider   LLMProvider `toml:"default_provider" validate:"oneof=gemini claude"`
	SystemInstruction string      `toml:"system_instruction" validate:"required"`
	MaxRetries        int         `toml:"max_retries" validate:"gte=0"` // Retries on rate-limit errors (0 = single attempt)
	RateLimit         string      `toml:"rate_limit"`                   // Minimum interval between requests (e.g. "4s")
	Timeout           string      `toml:"timeout"`                      // Per-request timeout
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey          string  `toml:"api_key"`
	Model           string  `toml:"model"`
	Temperature     float32 `toml:"temperature"`
	TopP            float32 `toml:"top_p"`
	TopK            float32 `toml:"top_k"`
	MaxOutputTokens int32   `toml:"max_output_tokens"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Enabled        bool   `toml:"enabled"`          // Record run history
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output []string `toml:"output"` // "stdout", "file"
	Dir    string   `toml:"dir"`    // Directory for the log file when "file" output is enabled
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Quiz: QuizConfig{
			AttendeeName:       "YOUR NAME",
			AttendeeCredential: "YOUR_CRED",
			ExportPath:         "questions.json",
		},
		Browser: BrowserConfig{
			Headless:       false, // The test page is watched while it runs
			WindowWidth:    1400,
			WindowHeight:   900,
			StartupTimeout: "30s",
			WaitTimeout:    "10s",
			PageLoadDelay:  "2s",
			SettleDelay:    "1s",
			LingerDelay:    "5s",
		},
		Selectors: SelectorsConfig{
			ModalClose:        ".btn-close",
			AttendeeName:      "#attndName",
			AttendeeCred:      "#attndCred",
			StartButton:       "#startTestBtn",
			QuestionID:        "input[id='Qid']",
			QuestionContainer: "#qsnId%s",
			QuestionBody:      "#testqsn",
			QuestionText:      "p",
			Choice:            ".form-check",
			Next:              "#next",
			Submit:            "#testSubmit",
			Confirm:           ".swal2-actions button",
		},
		Extraction: ExtractionConfig{
			QuestionFormat: "text",
		},
		LLM: LLMConfig{
			DefaultProvider:   LLMProviderGemini,
			SystemInstruction: "Solve the question and return ONLY the option ID of the correct option in the format: optionD[24234]",
			MaxRetries:        0,
			RateLimit:         "",
			Timeout:           "2m",
		},
		Gemini: GeminiConfig{
			Model:           "gemini-1.5-pro",
			Temperature:     1,
			TopP:            0.95,
			TopK:            64,
			MaxOutputTokens: 8192,
		},
		Claude: ClaudeConfig{
			Model:       "claude-3-5-haiku-20241022",
			MaxTokens:   1024,
			Temperature: 1,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Enabled: true,
				Path:    "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
			Dir:    "./logs",
		},
	}
}

// LoadDotEnv loads KEY=value pairs from a .env file into the process
// environment. Variables already set in the environment win. A missing file is
// not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI overrides are applied by the caller.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Quiz configuration (TARGET_WEBPAGE kept for existing .env files)
	if url := os.Getenv("TARGET_WEBPAGE"); url != "" {
		config.Quiz.URL = url
	}
	if url := os.Getenv("QUIZPILOT_URL"); url != "" {
		config.Quiz.URL = url
	}
	if name := os.Getenv("QUIZPILOT_ATTENDEE_NAME"); name != "" {
		config.Quiz.AttendeeName = name
	}
	if cred := os.Getenv("QUIZPILOT_ATTENDEE_CREDENTIAL"); cred != "" {
		config.Quiz.AttendeeCredential = cred
	}
	if exportPath := os.Getenv("QUIZPILOT_EXPORT_PATH"); exportPath != "" {
		config.Quiz.ExportPath = exportPath
	}
	if dryRun := os.Getenv("QUIZPILOT_DRY_RUN"); dryRun != "" {
		if d, err := strconv.ParseBool(dryRun); err == nil {
			config.Quiz.DryRun = d
		}
	}

	// Browser configuration
	if headless := os.Getenv("QUIZPILOT_BROWSER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = h
		}
	}
	if noSandbox := os.Getenv("QUIZPILOT_BROWSER_NO_SANDBOX"); noSandbox != "" {
		if ns, err := strconv.ParseBool(noSandbox); err == nil {
			config.Browser.NoSandbox = ns
		}
	}
	if waitTimeout := os.Getenv("QUIZPILOT_BROWSER_WAIT_TIMEOUT"); waitTimeout != "" {
		config.Browser.WaitTimeout = waitTimeout
	}
	if userDataDir := os.Getenv("QUIZPILOT_BROWSER_USER_DATA_DIR"); userDataDir != "" {
		config.Browser.UserDataDir = userDataDir
	}

	// LLM provider configuration
	if provider := os.Getenv("QUIZPILOT_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if maxRetries := os.Getenv("QUIZPILOT_LLM_MAX_RETRIES"); maxRetries != "" {
		if mr, err := strconv.Atoi(maxRetries); err == nil {
			config.LLM.MaxRetries = mr
		}
	}
	if rateLimit := os.Getenv("QUIZPILOT_LLM_RATE_LIMIT"); rateLimit != "" {
		config.LLM.RateLimit = rateLimit
	}

	// Gemini configuration: the SDK's own GEMINI_API_KEY first, QUIZPILOT_ prefix takes priority
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("QUIZPILOT_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("QUIZPILOT_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("QUIZPILOT_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("QUIZPILOT_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// Storage configuration
	if badgerPath := os.Getenv("QUIZPILOT_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if enabled := os.Getenv("QUIZPILOT_HISTORY_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Storage.Badger.Enabled = e
		}
	}

	// Logging configuration
	if level := os.Getenv("QUIZPILOT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("QUIZPILOT_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// FlagOverrides carries command-line values that take precedence over files and env
type FlagOverrides struct {
	URL      string
	Export   string
	Provider string
	Headless bool
	DryRun   bool
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, flags FlagOverrides) {
	if flags.URL != "" {
		config.Quiz.URL = flags.URL
	}
	if flags.Export != "" {
		config.Quiz.ExportPath = flags.Export
	}
	if flags.Provider != "" {
		config.LLM.DefaultProvider = LLMProvider(flags.Provider)
	}
	if flags.Headless {
		config.Browser.Headless = true
	}
	if flags.DryRun {
		config.Quiz.DryRun = true
	}
}

var configValidator = validator.New()

// Validate checks the resolved configuration before any browser or API work starts
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	durations := map[string]string{
		"browser.startup_timeout": c.Browser.StartupTimeout,
		"browser.wait_timeout":    c.Browser.WaitTimeout,
		"browser.page_load_delay": c.Browser.PageLoadDelay,
		"browser.settle_delay":    c.Browser.SettleDelay,
		"browser.linger_delay":    c.Browser.LingerDelay,
		"llm.rate_limit":          c.LLM.RateLimit,
		"llm.timeout":             c.LLM.Timeout,
	}
	for name, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid configuration: %s: %w", name, err)
		}
	}

	if c.Quiz.DryRun {
		return nil
	}

	switch c.LLM.DefaultProvider {
	case LLMProviderClaude:
		if c.Claude.APIKey == "" {
			return fmt.Errorf("invalid configuration: Claude API key is required (set ANTHROPIC_API_KEY, QUIZPILOT_CLAUDE_API_KEY, or claude.api_key)")
		}
	default:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("invalid configuration: Gemini API key is required (set GEMINI_API_KEY, QUIZPILOT_GEMINI_API_KEY, or gemini.api_key)")
		}
	}
	return nil
}

// QuestionSelector returns the container selector for a question id
func (s SelectorsConfig) QuestionSelector(id string) string {
	return fmt.Sprintf(s.QuestionContainer, id)
}

// ParseDuration parses a duration string, returning fallback when s is empty or invalid
func ParseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
