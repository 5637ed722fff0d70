package models

// Answer is the model's choice for one question.
type Answer struct {
	QuestionID string
	Prompt     string
	Reply      string // raw reply text
	Value      string // parsed option value, empty when Err is set
	Err        error  // reply could not be obtained or parsed
}

// OK reports whether the answer holds a usable option value.
func (a Answer) OK() bool {
	return a.Err == nil && a.Value != ""
}
