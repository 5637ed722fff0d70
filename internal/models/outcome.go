package models

// OutcomeKind classifies how answering a single question ended.
type OutcomeKind string

const (
	// OutcomeAdvanced means the option was selected and "next" was clicked.
	OutcomeAdvanced OutcomeKind = "advanced"
	// OutcomeEndOfTest means the option was selected but no "next" control appeared.
	OutcomeEndOfTest OutcomeKind = "end_of_test"
	// OutcomeFailed means the option could not be selected.
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome is the result of submitting an answer.
type Outcome struct {
	Kind   OutcomeKind
	Reason error // set for OutcomeFailed
}

func Advanced() Outcome  { return Outcome{Kind: OutcomeAdvanced} }
func EndOfTest() Outcome { return Outcome{Kind: OutcomeEndOfTest} }

func Failed(reason error) Outcome {
	return Outcome{Kind: OutcomeFailed, Reason: reason}
}

func (o Outcome) String() string {
	if o.Kind == OutcomeFailed && o.Reason != nil {
		return string(o.Kind) + ": " + o.Reason.Error()
	}
	return string(o.Kind)
}

// QuestionState tracks a question through a run:
// pending -> extracted -> answered -> selected -> advanced, or skipped.
type QuestionState string

const (
	QuestionPending   QuestionState = "pending"
	QuestionExtracted QuestionState = "extracted"
	QuestionAnswered  QuestionState = "answered"
	QuestionSelected  QuestionState = "selected"
	QuestionAdvanced  QuestionState = "advanced"
	QuestionSkipped   QuestionState = "skipped"
)
