package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/quizpilot/internal/common"
	"github.com/ternarybob/quizpilot/internal/models"
)

func TestParseContainerOneOptionPerChoice(t *testing.T) {
	selectors := common.NewDefaultConfig().Selectors
	html := questionHTML("7", "Capital of France?",
		fixtureOption{value: "A", label: "A: Berlin"},
		fixtureOption{value: "B", label: "B: Paris"},
		fixtureOption{value: "C", label: "Lyon"},
	)

	parsed, err := parseContainer("7", html, &selectors, FormatText)
	require.NoError(t, err)

	assert.Equal(t, "Capital of France?", parsed.Text)
	assert.Equal(t, models.Options{
		{Key: "optionA[7]", Value: "A", Label: "Berlin"},
		{Key: "optionB[7]", Value: "B", Label: "Paris"},
		{Key: "optionC[7]", Value: "C", Label: "Lyon"},
	}, parsed.Options)
	assert.Empty(t, parsed.Skipped)

	// Same input, same keys
	again, err := parseContainer("7", html, &selectors, FormatText)
	require.NoError(t, err)
	assert.Equal(t, parsed.Options, again.Options)
}

func TestParseContainerSkipsIncompleteChoices(t *testing.T) {
	selectors := common.NewDefaultConfig().Selectors
	html := `<div id="qsnId3"><div id="testqsn"><p>  Pick
		one  </p></div>
		<div class="form-check"><input type="radio" id="optionA[3]" value="A"><label for="optionA[3]">A: yes</label></div>
		<div class="form-check"><label>orphan label</label></div>
		<div class="form-check"><input type="radio" id="optionC[3]" value="C"></div>
	</div>`

	parsed, err := parseContainer("3", html, &selectors, FormatText)
	require.NoError(t, err)

	assert.Equal(t, "Pick one", parsed.Text)
	require.Len(t, parsed.Options, 1)
	assert.Equal(t, "optionA[3]", parsed.Options[0].Key)
	assert.Len(t, parsed.Skipped, 2)
}

func TestParseContainerMissingBody(t *testing.T) {
	selectors := common.NewDefaultConfig().Selectors
	_, err := parseContainer("3", `<div id="qsnId3"><p>no body</p></div>`, &selectors, FormatText)
	assert.ErrorIs(t, err, ErrQuestionBodyMissing)
}

func TestParseContainerMarkdown(t *testing.T) {
	selectors := common.NewDefaultConfig().Selectors
	html := `<div id="qsnId4"><div id="testqsn"><p>What does this print?</p><pre><code>fmt.Println(1 + 1)</code></pre></div>
		<div class="form-check"><input type="radio" id="optionA[4]" value="A"><label for="optionA[4]">A: 2</label></div></div>`

	parsed, err := parseContainer("4", html, &selectors, FormatMarkdown)
	require.NoError(t, err)

	assert.Contains(t, parsed.Text, "What does this print?")
	assert.Contains(t, parsed.Text, "fmt.Println(1 + 1)")
}

func TestStripLabelPrefix(t *testing.T) {
	assert.Equal(t, "Paris", stripLabelPrefix("B: Paris"))
	assert.Equal(t, "10:30 train", stripLabelPrefix("C: 10:30 train"))
	assert.Equal(t, "Paris", stripLabelPrefix(" Paris "))
	assert.Equal(t, "", stripLabelPrefix("D:"))
}

func TestOptionSelectors(t *testing.T) {
	holder, radio := OptionSelectors("7", "B")
	assert.Equal(t, `div:has(> input[id="optionB[7]"])`, holder)
	assert.Equal(t, `div:has(> input[id="optionB[7]"]) input[type="radio"][value="B"]`, radio)
}
