package interfaces

import (
	"context"

	"github.com/ternarybob/quizpilot/internal/models"
)

// RunStorage persists the history of quiz runs
type RunStorage interface {
	SaveRun(ctx context.Context, run *models.RunRecord) error
	GetRun(ctx context.Context, id string) (*models.RunRecord, error)
	// ListRuns returns the most recent runs first. limit <= 0 returns all.
	ListRuns(ctx context.Context, limit int) ([]*models.RunRecord, error)
	Close() error
}

// QuestionExporter writes the extracted questions of a run
type QuestionExporter interface {
	Export(ctx context.Context, questions []models.QuestionRecord) error
}
