package quiz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/quizpilot/internal/interfaces"
	"github.com/ternarybob/quizpilot/internal/models"
)

func TestSubmitAdvances(t *testing.T) {
	browser := newMockBrowser()
	browser.addQuestion("7", "q", fixtureOption{value: "B", label: "B: Paris"})
	browser.addPageControls(true)
	_, radio := OptionSelectors("7", "B")

	outcome := NewSubmitter(browser, testConfig(), testLogger()).Submit(context.Background(), "7", "B")

	assert.Equal(t, models.OutcomeAdvanced, outcome.Kind)
	assert.Equal(t, []string{"click:" + radio, "click:#next"}, browser.calls)
}

func TestSubmitNextNeverClickableIsEndOfTest(t *testing.T) {
	browser := newMockBrowser()
	browser.addQuestion("7", "q", fixtureOption{value: "B", label: "B: Paris"})
	browser.addPageControls(false)

	outcome := NewSubmitter(browser, testConfig(), testLogger()).Submit(context.Background(), "7", "B")

	assert.Equal(t, models.OutcomeEndOfTest, outcome.Kind)
	assert.NoError(t, outcome.Reason)
	assert.Equal(t, 0, browser.count("click:#next"))
}

func TestSubmitDisabledOptionNotClicked(t *testing.T) {
	browser := newMockBrowser()
	browser.addQuestion("7", "q", fixtureOption{value: "C", label: "C: Lyon", disabled: true})
	browser.addPageControls(true)

	outcome := NewSubmitter(browser, testConfig(), testLogger()).Submit(context.Background(), "7", "C")

	assert.Equal(t, models.OutcomeFailed, outcome.Kind)
	assert.ErrorIs(t, outcome.Reason, ErrOptionDisabled)
	assert.Empty(t, browser.calls)
}

func TestSubmitInterceptedClickFallsBackToScript(t *testing.T) {
	browser := newMockBrowser()
	browser.addQuestion("7", "q", fixtureOption{value: "B", label: "B: Paris"})
	browser.addPageControls(true)
	_, radio := OptionSelectors("7", "B")
	browser.elements[radio].covered = true

	outcome := NewSubmitter(browser, testConfig(), testLogger()).Submit(context.Background(), "7", "B")

	assert.Equal(t, models.OutcomeAdvanced, outcome.Kind)
	assert.Equal(t, []string{"scriptclick:" + radio, "click:#next"}, browser.calls)
}

func TestSubmitMissingOption(t *testing.T) {
	browser := newMockBrowser()
	browser.addPageControls(true)

	outcome := NewSubmitter(browser, testConfig(), testLogger()).Submit(context.Background(), "7", "B")

	assert.Equal(t, models.OutcomeFailed, outcome.Kind)
	assert.ErrorIs(t, outcome.Reason, interfaces.ErrWaitTimeout)
	assert.Empty(t, browser.calls)
}

func TestFinalSubmit(t *testing.T) {
	browser := newMockBrowser()
	browser.addPageControls(true)

	require.NoError(t, NewSubmitter(browser, testConfig(), testLogger()).FinalSubmit(context.Background()))
	assert.Equal(t, []string{"click:#testSubmit", "click:.swal2-actions button"}, browser.calls)
}

func TestFinalSubmitWithoutConfirmation(t *testing.T) {
	browser := newMockBrowser()
	browser.addPageControls(true)
	delete(browser.elements, ".swal2-actions button")

	err := NewSubmitter(browser, testConfig(), testLogger()).FinalSubmit(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrWaitTimeout)
}
