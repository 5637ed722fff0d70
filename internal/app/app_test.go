package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quizpilot/internal/common"
	"github.com/ternarybob/quizpilot/internal/interfaces"
)

var errOffline = errors.New("offline")

// offlineBrowser fails every navigation
type offlineBrowser struct {
	interfaces.Browser
	closed bool
}

func (b *offlineBrowser) Navigate(ctx context.Context, url string) error { return errOffline }
func (b *offlineBrowser) Sleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}
func (b *offlineBrowser) Close() error {
	b.closed = true
	return nil
}

func testConfig(t *testing.T) *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.Quiz.URL = "https://quiz.example.com/test"
	cfg.Quiz.ExportPath = filepath.Join(t.TempDir(), "questions.json")
	cfg.Storage.Badger.Path = filepath.Join(t.TempDir(), "db")
	cfg.Browser.LingerDelay = "0s"
	cfg.Browser.PageLoadDelay = "0s"
	return cfg
}

func TestNewDryRunHasNoProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Quiz.DryRun = true

	a, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Provider)
	assert.NotNil(t, a.History)

	runs, err := a.RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestNewWithoutHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Badger.Enabled = false
	cfg.Gemini.APIKey = "key"

	a, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Provider)
	_, err = a.RecentRuns(context.Background(), 5)
	assert.Error(t, err)
}

func TestRunQuizClosesBrowserWhenPageUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Quiz.DryRun = true

	a, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	b := &offlineBrowser{}
	a.WithBrowserFactory(func(*common.BrowserConfig, arbor.ILogger) (interfaces.Browser, error) {
		return b, nil
	})

	_, err = a.RunQuiz(context.Background())
	assert.ErrorIs(t, err, errOffline)
	assert.True(t, b.closed)
}

func TestRunQuizBrowserStartFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Quiz.DryRun = true

	a, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	a.WithBrowserFactory(func(*common.BrowserConfig, arbor.ILogger) (interfaces.Browser, error) {
		return nil, errors.New("chrome not found")
	})

	_, err = a.RunQuiz(context.Background())
	assert.Error(t, err)
}
