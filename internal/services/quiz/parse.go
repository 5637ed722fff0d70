package quiz

import (
	"errors"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/quizpilot/internal/common"
	"github.com/ternarybob/quizpilot/internal/models"
)

// ErrQuestionBodyMissing is returned when a container has no question body element.
var ErrQuestionBodyMissing = errors.New("question body not found")

// Question text formats
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// parsedQuestion is what could be read from a container's HTML
type parsedQuestion struct {
	Text    string
	Options models.Options
	Skipped []string // one reason per choice element that yielded no option
}

// parseContainer reads the question text and choices of one question from the
// outer HTML of its container. Choices are returned in document order.
func parseContainer(questionID, html string, selectors *common.SelectorsConfig, format string) (*parsedQuestion, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse question %s html: %w", questionID, err)
	}

	body := doc.Find(selectors.QuestionBody).First()
	if body.Length() == 0 {
		return nil, fmt.Errorf("%w: %s in question %s", ErrQuestionBodyMissing, selectors.QuestionBody, questionID)
	}

	parsed := &parsedQuestion{Options: models.Options{}}

	switch format {
	case FormatMarkdown:
		bodyHTML, err := goquery.OuterHtml(body)
		if err != nil {
			return nil, fmt.Errorf("render question %s body: %w", questionID, err)
		}
		converted, err := md.NewConverter("", true, nil).ConvertString(bodyHTML)
		if err != nil {
			return nil, fmt.Errorf("convert question %s to markdown: %w", questionID, err)
		}
		parsed.Text = strings.TrimSpace(converted)
	default:
		parsed.Text = collapseSpace(body.Find(selectors.QuestionText).First().Text())
	}

	doc.Find(selectors.Choice).Each(func(i int, choice *goquery.Selection) {
		radio := choice.Find(`input[type="radio"]`).First()
		if radio.Length() == 0 {
			parsed.Skipped = append(parsed.Skipped, fmt.Sprintf("choice %d: no radio input", i))
			return
		}
		value, ok := radio.Attr("value")
		if !ok || value == "" {
			parsed.Skipped = append(parsed.Skipped, fmt.Sprintf("choice %d: radio has no value", i))
			return
		}
		radioID, _ := radio.Attr("id")
		if radioID == "" {
			parsed.Skipped = append(parsed.Skipped, fmt.Sprintf("choice %d: radio has no id", i))
			return
		}

		label := choice.Find(`label[for="` + cssEscape(radioID) + `"]`).First()
		if label.Length() == 0 {
			parsed.Skipped = append(parsed.Skipped, fmt.Sprintf("choice %d: no label for %s", i, radioID))
			return
		}

		parsed.Options = append(parsed.Options, models.Option{
			Key:   models.OptionKey(value, questionID),
			Value: value,
			Label: stripLabelPrefix(collapseSpace(label.Text())),
		})
	})

	return parsed, nil
}

// stripLabelPrefix drops everything up to and including the first colon.
// Labels without a colon are returned unchanged.
func stripLabelPrefix(label string) string {
	if _, rest, found := strings.Cut(label, ":"); found {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(label)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cssEscape quotes s for use inside a double-quoted CSS attribute value
func cssEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// attrSelector builds tag[attr="value"] with value safely quoted
func attrSelector(tag, attr, value string) string {
	return tag + `[` + attr + `="` + cssEscape(value) + `"]`
}
