package quiz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quizpilot/internal/common"
	"github.com/ternarybob/quizpilot/internal/interfaces"
	"github.com/ternarybob/quizpilot/internal/models"
)

// Extractor reads question records from the test page
type Extractor struct {
	browser     interfaces.Browser
	selectors   *common.SelectorsConfig
	format      string
	waitTimeout time.Duration
	logger      arbor.ILogger
}

// NewExtractor creates an extractor bound to one browser tab
func NewExtractor(browser interfaces.Browser, config *common.Config, logger arbor.ILogger) *Extractor {
	return &Extractor{
		browser:     browser,
		selectors:   &config.Selectors,
		format:      config.Extraction.QuestionFormat,
		waitTimeout: common.ParseDuration(config.Browser.WaitTimeout, 10*time.Second),
		logger:      logger,
	}
}

// QuestionIDs returns the value of every question id marker on the page, in page order
func (e *Extractor) QuestionIDs(ctx context.Context) ([]string, error) {
	values, err := e.browser.Values(ctx, e.selectors.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("read question ids: %w", err)
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			ids = append(ids, v)
		}
	}
	return ids, nil
}

// Extract reads the question with the given id. A container hidden with an
// inline display:none is made visible first; no other style is touched.
func (e *Extractor) Extract(ctx context.Context, questionID string) (*models.QuestionRecord, error) {
	container := e.selectors.QuestionSelector(questionID)

	style, set, err := e.browser.Attribute(ctx, container, "style")
	if err != nil {
		return nil, fmt.Errorf("question %s: %w", questionID, err)
	}
	if set && isDisplayNone(style) {
		if err := e.browser.SetDisplay(ctx, container, "block"); err != nil {
			return nil, fmt.Errorf("question %s: show container: %w", questionID, err)
		}
		e.logger.Debug().Str("question_id", questionID).Msg("Forced hidden question container visible")
	}

	if err := e.browser.ScrollIntoView(ctx, container); err != nil {
		return nil, fmt.Errorf("question %s: %w", questionID, err)
	}
	if err := e.browser.WaitVisible(ctx, container, e.waitTimeout); err != nil {
		return nil, fmt.Errorf("question %s: %w", questionID, err)
	}

	html, err := e.browser.OuterHTML(ctx, container)
	if err != nil {
		return nil, fmt.Errorf("question %s: %w", questionID, err)
	}

	parsed, err := parseContainer(questionID, html, e.selectors, e.format)
	if err != nil {
		return nil, err
	}

	if parsed.Text == "" {
		// Text rendered by script or outside a paragraph only shows up in innerText
		text, err := e.browser.InnerText(ctx, container+" "+e.selectors.QuestionBody)
		if err != nil {
			return nil, fmt.Errorf("question %s: read question text: %w", questionID, err)
		}
		parsed.Text = strings.TrimSpace(text)
	}

	for _, reason := range parsed.Skipped {
		e.logger.Warn().Str("question_id", questionID).Str("reason", reason).Msg("Skipped choice")
	}

	record := &models.QuestionRecord{
		ID:       questionID,
		Question: parsed.Text,
		Options:  parsed.Options,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("question_id", questionID).
		Int("options", len(record.Options)).
		Msg("Extracted question")

	return record, nil
}

func isDisplayNone(style string) bool {
	compact := strings.ToLower(strings.Join(strings.Fields(style), ""))
	return strings.Contains(compact, "display:none")
}
