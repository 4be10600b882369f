package quiz

// FeedbackVisible decides whether correctness coloring and explanations may be
// shown for a question right now.
//
// Exam mode withholds all feedback until grading. In practice mode a
// single-select question reveals feedback as soon as it has an answer, while a
// multi-select question additionally requires an explicit check action so
// correctness does not leak while the user is still toggling options.
func FeedbackVisible(examMode bool, q Question, answers Answers, checkedMulti map[int]bool) bool {
	if examMode {
		return false
	}
	if q.MultiSelect() {
		return checkedMulti[q.ID]
	}
	return answers.Answered(q.ID)
}
