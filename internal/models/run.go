package models

import "time"

// QuestionResult records what happened to one question during a run.
type QuestionResult struct {
	QuestionID string
	State      QuestionState
	Reply      string // raw LLM reply
	Selected   string // parsed option value
	Outcome    OutcomeKind
	Error      string
}

// RunRecord is the persisted history of one quiz run.
type RunRecord struct {
	ID          string
	TargetURL   string
	DryRun      bool
	Provider    string
	Model       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Questions   []QuestionRecord
	Results     []QuestionResult
	Submitted   bool
	SubmitError string
}

// Count returns the number of results in the given state.
func (r *RunRecord) Count(state QuestionState) int {
	n := 0
	for _, res := range r.Results {
		if res.State == state {
			n++
		}
	}
	return n
}
