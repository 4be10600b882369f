package quiz

import (
	"sort"
	"strings"
)

// Result aggregates per-question correctness into a 0..10 score.
type Result struct {
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Skipped   int     `json:"skipped"`
	Score     float64 `json:"score"`
}

// Grade compares the answer map against each question's correct key set.
// A question with no entry (or an empty one) counts as skipped; otherwise it
// is correct iff the selected keys equal the correct keys as sets. The score
// is correct/total*10, left unrounded; rounding is a display concern.
// Pure and deterministic: results and history records must agree.
func Grade(questions []Question, answers Answers) Result {
	var res Result
	for _, q := range questions {
		keys := answers[q.ID]
		switch {
		case len(keys) == 0:
			res.Skipped++
		case canonicalKey(keys) == canonicalKey(q.CorrectAnswers):
			res.Correct++
		default:
			res.Incorrect++
		}
	}
	if total := len(questions); total > 0 {
		res.Score = float64(res.Correct) / float64(total) * 10
	}
	return res
}

// AnsweredCorrectly reports whether one question grades as correct.
func AnsweredCorrectly(q Question, answers Answers) bool {
	keys := answers[q.ID]
	return len(keys) > 0 && canonicalKey(keys) == canonicalKey(q.CorrectAnswers)
}

// WrongQuestions returns the questions that did not grade as correct,
// including skipped ones. Used for the retry-wrong review session.
func WrongQuestions(questions []Question, answers Answers) []Question {
	var wrong []Question
	for _, q := range questions {
		if !AnsweredCorrectly(q, answers) {
			wrong = append(wrong, q)
		}
	}
	return wrong
}

// canonicalKey renders a key set order-insensitively for comparison.
func canonicalKey(keys []string) string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
