package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quizpilot/internal/common"
	"github.com/ternarybob/quizpilot/internal/interfaces"
	"github.com/ternarybob/quizpilot/internal/models"
)

// ErrOptionDisabled is the failure reason when the chosen radio is disabled.
var ErrOptionDisabled = errors.New("option is disabled")

// Submitter selects answers and moves the test forward
type Submitter struct {
	browser     interfaces.Browser
	selectors   *common.SelectorsConfig
	waitTimeout time.Duration
	settleDelay time.Duration
	logger      arbor.ILogger
}

func NewSubmitter(browser interfaces.Browser, config *common.Config, logger arbor.ILogger) *Submitter {
	return &Submitter{
		browser:     browser,
		selectors:   &config.Selectors,
		waitTimeout: common.ParseDuration(config.Browser.WaitTimeout, 10*time.Second),
		settleDelay: common.ParseDuration(config.Browser.SettleDelay, time.Second),
		logger:      logger,
	}
}

// OptionSelectors returns the selector of the div directly holding the option's
// radio and the selector of the radio itself
func OptionSelectors(questionID, value string) (holder, radio string) {
	input := attrSelector("input", "id", models.OptionKey(value, questionID))
	holder = "div:has(> " + input + ")"
	radio = holder + ` input[type="radio"]` + `[value="` + cssEscape(value) + `"]`
	return holder, radio
}

// Submit selects option value of the question and clicks next.
// A disabled option is never clicked. When next never becomes clickable the
// outcome is EndOfTest.
func (s *Submitter) Submit(ctx context.Context, questionID, value string) models.Outcome {
	holder, radio := OptionSelectors(questionID, value)

	if err := s.browser.WaitVisible(ctx, holder, s.waitTimeout); err != nil {
		return models.Failed(fmt.Errorf("option %s: %w", models.OptionKey(value, questionID), err))
	}

	enabled, err := s.browser.IsEnabled(ctx, radio)
	if err != nil {
		return models.Failed(fmt.Errorf("option %s: %w", models.OptionKey(value, questionID), err))
	}
	if !enabled {
		return models.Failed(fmt.Errorf("%w: %s", ErrOptionDisabled, models.OptionKey(value, questionID)))
	}

	if err := s.click(ctx, radio); err != nil {
		return models.Failed(fmt.Errorf("select option %s: %w", models.OptionKey(value, questionID), err))
	}

	if err := s.browser.Sleep(ctx, s.settleDelay); err != nil {
		return models.Failed(err)
	}

	if err := s.browser.WaitClickable(ctx, s.selectors.Next, s.waitTimeout); err != nil {
		if errors.Is(err, interfaces.ErrWaitTimeout) {
			s.logger.Info().Str("question_id", questionID).Msg("No next control, end of test")
			return models.EndOfTest()
		}
		return models.Failed(fmt.Errorf("wait for next: %w", err))
	}

	if err := s.click(ctx, s.selectors.Next); err != nil {
		return models.Failed(fmt.Errorf("click next: %w", err))
	}

	return models.Advanced()
}

// FinalSubmit clicks the submit control and confirms the dialog
func (s *Submitter) FinalSubmit(ctx context.Context) error {
	if err := s.click(ctx, s.selectors.Submit); err != nil {
		return fmt.Errorf("click submit: %w", err)
	}

	if err := s.browser.WaitClickable(ctx, s.selectors.Confirm, s.waitTimeout); err != nil {
		return fmt.Errorf("wait for confirmation: %w", err)
	}
	if err := s.click(ctx, s.selectors.Confirm); err != nil {
		return fmt.Errorf("confirm submit: %w", err)
	}
	return nil
}

// click sends a native click and falls back to a script click when another
// element covers the target
func (s *Submitter) click(ctx context.Context, selector string) error {
	err := s.browser.Click(ctx, selector)
	if err == nil {
		return nil
	}
	if !errors.Is(err, interfaces.ErrClickIntercepted) {
		return err
	}

	s.logger.Debug().Str("selector", selector).Err(err).Msg("Click intercepted, using script click")
	return s.browser.ScriptClick(ctx, selector)
}
