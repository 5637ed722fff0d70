package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quizpilot/internal/interfaces"
	"github.com/ternarybob/quizpilot/internal/models"
)

// Exporter writes the extracted questions of a run to a JSON file,
// replacing any previous content
type Exporter struct {
	path   string
	logger arbor.ILogger
}

var _ interfaces.QuestionExporter = (*Exporter)(nil)

func NewExporter(path string, logger arbor.ILogger) *Exporter {
	return &Exporter{path: path, logger: logger}
}

// Export writes questions as an indented JSON array. An empty run writes [].
func (e *Exporter) Export(ctx context.Context, questions []models.QuestionRecord) error {
	if questions == nil {
		questions = []models.QuestionRecord{}
	}

	data, err := json.MarshalIndent(questions, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode questions: %w", err)
	}

	if dir := filepath.Dir(e.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	// Write next to the target and rename so a crash never leaves half a file
	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", e.path, err)
	}

	e.logger.Info().
		Str("path", e.path).
		Int("questions", len(questions)).
		Msg("Exported questions")
	return nil
}

// Load reads a previously exported file
func Load(path string) ([]models.QuestionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var questions []models.QuestionRecord
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return questions, nil
}
