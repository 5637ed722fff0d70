package quiz

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quizpilot/internal/common"
	"github.com/ternarybob/quizpilot/internal/interfaces"
	"github.com/ternarybob/quizpilot/internal/models"
)

// mockElement is one selector's worth of fake page state
type mockElement struct {
	html      string
	text      string
	style     string
	hasStyle  bool
	disabled  bool
	hidden    bool // WaitVisible times out
	covered   bool // native clicks are intercepted
	clickable bool // WaitClickable succeeds
	failWaits int  // WaitClickable times out this many times first
}

// mockBrowser implements interfaces.Browser over a map of selectors
type mockBrowser struct {
	elements map[string]*mockElement
	values   map[string][]string
	calls    []string
	closed   bool
}

func newMockBrowser() *mockBrowser {
	return &mockBrowser{
		elements: map[string]*mockElement{},
		values:   map[string][]string{},
	}
}

func (m *mockBrowser) record(format string, args ...any) {
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

func (m *mockBrowser) get(selector string) (*mockElement, error) {
	el, ok := m.elements[selector]
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrElementNotFound, selector)
	}
	return el, nil
}

func (m *mockBrowser) Navigate(ctx context.Context, url string) error {
	m.record("navigate:%s", url)
	return nil
}

func (m *mockBrowser) Exists(ctx context.Context, selector string) (bool, error) {
	_, ok := m.elements[selector]
	return ok, nil
}

func (m *mockBrowser) Click(ctx context.Context, selector string) error {
	el, err := m.get(selector)
	if err != nil {
		return err
	}
	if el.covered {
		return fmt.Errorf("%w: %s", interfaces.ErrClickIntercepted, selector)
	}
	m.record("click:%s", selector)
	return nil
}

func (m *mockBrowser) ScriptClick(ctx context.Context, selector string) error {
	if _, err := m.get(selector); err != nil {
		return err
	}
	m.record("scriptclick:%s", selector)
	return nil
}

func (m *mockBrowser) SendKeys(ctx context.Context, selector, text string) error {
	if _, err := m.get(selector); err != nil {
		return err
	}
	m.record("sendkeys:%s=%s", selector, text)
	return nil
}

func (m *mockBrowser) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	el, err := m.get(selector)
	if err != nil {
		return "", false, err
	}
	if name != "style" {
		return "", false, nil
	}
	return el.style, el.hasStyle, nil
}

func (m *mockBrowser) SetDisplay(ctx context.Context, selector, display string) error {
	el, err := m.get(selector)
	if err != nil {
		return err
	}
	m.record("setdisplay:%s=%s", selector, display)
	el.style = "display: " + display + ";"
	el.hidden = display == "none"
	return nil
}

func (m *mockBrowser) ScrollIntoView(ctx context.Context, selector string) error {
	_, err := m.get(selector)
	return err
}

func (m *mockBrowser) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	el, ok := m.elements[selector]
	if !ok || el.hidden || strings.Contains(el.style, "display: none") {
		return fmt.Errorf("%w: %s", interfaces.ErrWaitTimeout, selector)
	}
	return nil
}

func (m *mockBrowser) WaitClickable(ctx context.Context, selector string, timeout time.Duration) error {
	el, ok := m.elements[selector]
	if ok && el.failWaits > 0 {
		el.failWaits--
		m.record("timeout:%s", selector)
		return fmt.Errorf("%w: %s", interfaces.ErrWaitTimeout, selector)
	}
	if !ok || !el.clickable || el.disabled {
		m.record("timeout:%s", selector)
		return fmt.Errorf("%w: %s", interfaces.ErrWaitTimeout, selector)
	}
	return nil
}

func (m *mockBrowser) IsEnabled(ctx context.Context, selector string) (bool, error) {
	el, err := m.get(selector)
	if err != nil {
		return false, err
	}
	return !el.disabled, nil
}

func (m *mockBrowser) OuterHTML(ctx context.Context, selector string) (string, error) {
	el, err := m.get(selector)
	if err != nil {
		return "", err
	}
	return el.html, nil
}

func (m *mockBrowser) InnerText(ctx context.Context, selector string) (string, error) {
	el, err := m.get(selector)
	if err != nil {
		return "", err
	}
	return el.text, nil
}

func (m *mockBrowser) Values(ctx context.Context, selector string) ([]string, error) {
	return m.values[selector], nil
}

func (m *mockBrowser) Sleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func (m *mockBrowser) Close() error {
	m.closed = true
	m.record("close")
	return nil
}

// count returns how many recorded calls equal call
func (m *mockBrowser) count(call string) int {
	n := 0
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

// mockChatSession answers prompts from a script
type mockChatSession struct {
	replies []string
	err     error
	prompts []string
}

func (m *mockChatSession) Send(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

func (m *mockChatSession) History() []interfaces.Message {
	return nil
}

// mockExporter keeps the exported records
type mockExporter struct {
	exported [][]models.QuestionRecord
}

func (m *mockExporter) Export(ctx context.Context, questions []models.QuestionRecord) error {
	m.exported = append(m.exported, questions)
	return nil
}

// mockRunStorage keeps saved runs in memory
type mockRunStorage struct {
	runs []*models.RunRecord
}

func (m *mockRunStorage) SaveRun(ctx context.Context, run *models.RunRecord) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockRunStorage) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("run %s not found", id)
}

func (m *mockRunStorage) ListRuns(ctx context.Context, limit int) ([]*models.RunRecord, error) {
	return m.runs, nil
}

func (m *mockRunStorage) Close() error { return nil }

// testConfig returns defaults with every fixed delay removed
func testConfig() *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.Quiz.URL = "https://quiz.example.com/test"
	cfg.Browser.PageLoadDelay = "0s"
	cfg.Browser.SettleDelay = "0s"
	cfg.Browser.LingerDelay = "0s"
	cfg.Browser.WaitTimeout = "10ms"
	return cfg
}

func testLogger() arbor.ILogger {
	return arbor.NewLogger()
}

type fixtureOption struct {
	value    string
	label    string
	disabled bool
}

// questionHTML renders a question container the way the test page does
func questionHTML(id, text string, options ...fixtureOption) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div id="qsnId%s" style="display: none;"><div id="testqsn"><p>%s</p></div>`, id, text)
	for _, opt := range options {
		key := models.OptionKey(opt.value, id)
		disabled := ""
		if opt.disabled {
			disabled = " disabled"
		}
		fmt.Fprintf(&b, `<div class="form-check"><input class="form-check-input" type="radio" name="q%s" id="%s" value="%s"%s><label class="form-check-label" for="%s">%s</label></div>`,
			id, key, opt.value, disabled, key, opt.label)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// addQuestion registers a hidden question container and its option controls
func (m *mockBrowser) addQuestion(id, text string, options ...fixtureOption) {
	m.values["input[id='Qid']"] = append(m.values["input[id='Qid']"], id)
	m.elements["#qsnId"+id] = &mockElement{
		html:     questionHTML(id, text, options...),
		style:    "display: none;",
		hasStyle: true,
	}
	for _, opt := range options {
		holder, radio := OptionSelectors(id, opt.value)
		m.elements[holder] = &mockElement{}
		m.elements[radio] = &mockElement{disabled: opt.disabled, clickable: !opt.disabled}
	}
}

// addPageControls registers the login form, next, submit and confirm controls
func (m *mockBrowser) addPageControls(nextClickable bool) {
	for _, sel := range []string{"#attndName", "#attndCred", "#startTestBtn", "#testSubmit"} {
		m.elements[sel] = &mockElement{clickable: true}
	}
	m.elements["#next"] = &mockElement{clickable: nextClickable}
	m.elements[".swal2-actions button"] = &mockElement{clickable: true}
}

func newTestDriver(t *testing.T, browser *mockBrowser, session interfaces.ChatSession, exporter interfaces.QuestionExporter, history interfaces.RunStorage, cfg *common.Config) *Driver {
	t.Helper()
	return NewDriver(browser, session, exporter, history, cfg, testLogger())
}
