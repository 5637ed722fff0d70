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

// Driver runs one test from login to final submission. It owns the browser
// and closes it when Run returns.
type Driver struct {
	browser   interfaces.Browser
	extractor *Extractor
	resolver  *Resolver
	submitter *Submitter
	exporter  interfaces.QuestionExporter
	history   interfaces.RunStorage
	config    *common.Config
	logger    arbor.ILogger

	pageLoadDelay time.Duration
	lingerDelay   time.Duration
}

// NewDriver wires the quiz steps to a browser and a chat session. session may
// be nil for dry runs and history may be nil when run history is disabled.
func NewDriver(
	browser interfaces.Browser,
	session interfaces.ChatSession,
	exporter interfaces.QuestionExporter,
	history interfaces.RunStorage,
	config *common.Config,
	logger arbor.ILogger,
) *Driver {
	d := &Driver{
		browser:       browser,
		extractor:     NewExtractor(browser, config, logger),
		submitter:     NewSubmitter(browser, config, logger),
		exporter:      exporter,
		history:       history,
		config:        config,
		logger:        logger,
		pageLoadDelay: common.ParseDuration(config.Browser.PageLoadDelay, 2*time.Second),
		lingerDelay:   common.ParseDuration(config.Browser.LingerDelay, 5*time.Second),
	}
	if session != nil {
		d.resolver = NewResolver(session, logger)
	}
	return d
}

func (d *Driver) model() string {
	if d.config.LLM.DefaultProvider == common.LLMProviderClaude {
		return d.config.Claude.Model
	}
	return d.config.Gemini.Model
}

// Run performs the whole test. Per-question failures are recorded in the
// returned run and never abort it; an error is returned only when the test
// page cannot be opened.
func (d *Driver) Run(ctx context.Context) (*models.RunRecord, error) {
	defer d.teardown(ctx)

	run := &models.RunRecord{
		ID:        common.NewRunID(),
		TargetURL: d.config.Quiz.URL,
		DryRun:    d.config.Quiz.DryRun || d.resolver == nil,
		StartedAt: time.Now(),
	}
	if !run.DryRun {
		run.Provider = string(d.config.LLM.DefaultProvider)
		run.Model = d.model()
	}

	d.logger.Info().
		Str("run_id", run.ID).
		Str("url", run.TargetURL).
		Bool("dry_run", run.DryRun).
		Msg("Starting quiz run")

	if err := d.start(ctx); err != nil {
		return nil, err
	}

	ids, err := d.extractor.QuestionIDs(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to read question ids")
	}
	d.logger.Info().Strs("question_ids", ids).Msg("Found questions")

	results := make([]models.QuestionResult, len(ids))
	for i, id := range ids {
		results[i] = models.QuestionResult{QuestionID: id, State: models.QuestionPending}
	}
	run.Results = results

	records := d.extractAll(ctx, run)
	run.Questions = derefRecords(records)

	if d.exporter != nil {
		if err := d.exporter.Export(ctx, run.Questions); err != nil {
			d.logger.Error().Err(err).Msg("Failed to export questions")
		}
	}

	if !run.DryRun {
		d.answerAll(ctx, run, records)

		if ctx.Err() == nil {
			if err := d.submitter.FinalSubmit(ctx); err != nil {
				run.SubmitError = err.Error()
				d.logger.Error().Err(err).Msg("Final submission failed")
			} else {
				run.Submitted = true
				d.logger.Info().Msg("Test submitted")
			}
		}
	}

	run.FinishedAt = time.Now()
	d.saveRun(ctx, run)
	d.logSummary(run)

	return run, nil
}

// start opens the test page, fills the attendee form and starts the test.
// Only navigation failure is fatal; missing form elements are logged.
func (d *Driver) start(ctx context.Context) error {
	sel := d.config.Selectors

	if err := d.browser.Navigate(ctx, d.config.Quiz.URL); err != nil {
		return fmt.Errorf("open test page: %w", err)
	}
	if err := d.browser.Sleep(ctx, d.pageLoadDelay); err != nil {
		return err
	}

	if exists, err := d.browser.Exists(ctx, sel.ModalClose); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to look for start-up dialog")
	} else if exists {
		if err := d.submitter.click(ctx, sel.ModalClose); err != nil {
			d.logger.Warn().Err(err).Msg("Failed to close start-up dialog")
		} else {
			d.logger.Debug().Msg("Closed start-up dialog")
		}
	}

	if err := d.browser.SendKeys(ctx, sel.AttendeeName, d.config.Quiz.AttendeeName); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to enter attendee name")
	}
	if err := d.browser.SendKeys(ctx, sel.AttendeeCred, d.config.Quiz.AttendeeCredential); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to enter attendee credential")
	}

	if err := d.browser.ScriptClick(ctx, sel.StartButton); err != nil {
		d.logger.Error().Err(err).Msg("Failed to start test")
	}

	return d.browser.Sleep(ctx, d.pageLoadDelay)
}

func (d *Driver) extractAll(ctx context.Context, run *models.RunRecord) []*models.QuestionRecord {
	records := make([]*models.QuestionRecord, 0, len(run.Results))
	for i := range run.Results {
		if ctx.Err() != nil {
			break
		}
		result := &run.Results[i]

		record, err := d.extractor.Extract(ctx, result.QuestionID)
		if err != nil {
			result.State = models.QuestionSkipped
			result.Error = err.Error()
			d.logger.Error().Str("question_id", result.QuestionID).Err(err).Msg("Failed to extract question")
			continue
		}

		result.State = models.QuestionExtracted
		records = append(records, record)
	}
	return records
}

func (d *Driver) answerAll(ctx context.Context, run *models.RunRecord, records []*models.QuestionRecord) {
	byID := make(map[string]*models.QuestionResult, len(run.Results))
	for i := range run.Results {
		byID[run.Results[i].QuestionID] = &run.Results[i]
	}

	for _, record := range records {
		if ctx.Err() != nil {
			d.logger.Warn().Msg("Run cancelled, no further questions answered")
			return
		}
		result := byID[record.ID]

		answer := d.resolver.Resolve(ctx, record)
		result.Reply = answer.Reply
		if !answer.OK() {
			result.State = models.QuestionSkipped
			result.Error = answer.Err.Error()
			d.logger.Error().Str("question_id", record.ID).Err(answer.Err).Msg("No answer for question")
			continue
		}
		result.State = models.QuestionAnswered
		result.Selected = answer.Value

		outcome := d.submitter.Submit(ctx, record.ID, answer.Value)
		result.Outcome = outcome.Kind

		switch outcome.Kind {
		case models.OutcomeAdvanced:
			result.State = models.QuestionAdvanced
		case models.OutcomeEndOfTest:
			// Only this question's flow ends; later records are still answered
			result.State = models.QuestionSelected
		default:
			result.State = models.QuestionSkipped
			result.Error = outcome.String()
			d.logger.Error().
				Str("question_id", record.ID).
				Err(outcome.Reason).
				Bool("disabled", errors.Is(outcome.Reason, ErrOptionDisabled)).
				Msg("Failed to submit answer")
		}
	}
}

func (d *Driver) saveRun(ctx context.Context, run *models.RunRecord) {
	if d.history == nil {
		return
	}
	if err := d.history.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		d.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to save run history")
	}
}

func (d *Driver) logSummary(run *models.RunRecord) {
	d.logger.Info().
		Str("run_id", run.ID).
		Int("questions", len(run.Results)).
		Int("extracted", len(run.Questions)).
		Int("advanced", run.Count(models.QuestionAdvanced)).
		Int("skipped", run.Count(models.QuestionSkipped)).
		Bool("submitted", run.Submitted).
		Dur("duration", run.FinishedAt.Sub(run.StartedAt)).
		Msg("Quiz run finished")
}

// teardown keeps the final page on screen for the linger delay, then closes
// the browser whatever happened during the run
func (d *Driver) teardown(ctx context.Context) {
	if err := d.browser.Sleep(ctx, d.lingerDelay); err != nil {
		d.logger.Debug().Err(err).Msg("Linger interrupted")
	}
	if err := d.browser.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to close browser")
	}
}

func derefRecords(records []*models.QuestionRecord) []models.QuestionRecord {
	out := make([]models.QuestionRecord, len(records))
	for i, r := range records {
		out[i] = *r
	}
	return out
}
