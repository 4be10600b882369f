package quiz

// Option is a single answer choice as delivered by the extraction service.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Question is the normalized form of one extracted multiple-choice question.
// Immutable once produced by the extraction boundary.
type Question struct {
	ID                 int               `json:"id"`
	Text               string            `json:"text"`
	Options            []Option          `json:"options"`
	CorrectAnswers     []string          `json:"correctAnswers"`
	Explanation        string            `json:"explanation,omitempty"`
	OptionExplanations map[string]string `json:"optionExplanations,omitempty"`
}

// MultiSelect reports whether more than one option key must be chosen.
func (q Question) MultiSelect() bool {
	return len(q.CorrectAnswers) > 1
}

// HasOption reports whether the question carries the given option key.
func (q Question) HasOption(key string) bool {
	for _, opt := range q.Options {
		if opt.Key == key {
			return true
		}
	}
	return false
}

// QuizData holds a titled, ordered question set plus play settings.
// The same shape serves both the full fetched pool and the derived active set.
type QuizData struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	TimeLimit int        `json:"timeLimit,omitempty"` // seconds; 0 means unset
	ExamMode  bool       `json:"isExamMode,omitempty"`
}

// DefaultSecondsPerQuestion is the allotted time per question when no explicit
// time limit was configured (and for review sessions).
const DefaultSecondsPerQuestion = 60

// AllottedSeconds returns the effective time budget for playing this set.
func (d QuizData) AllottedSeconds() int {
	if d.TimeLimit > 0 {
		return d.TimeLimit
	}
	return len(d.Questions) * DefaultSecondsPerQuestion
}

// Answers maps a question id to the sorted option keys the user selected.
// A missing entry or an empty slice means the question is unanswered.
type Answers map[int][]string

// Answered reports whether the question has at least one selected key.
func (a Answers) Answered(questionID int) bool {
	return len(a[questionID]) > 0
}

// Clone returns a deep copy so snapshots never alias live state.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for id, keys := range a {
		out[id] = append([]string(nil), keys...)
	}
	return out
}
