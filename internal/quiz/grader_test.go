package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func gradedSet() []Question {
	return []Question{
		{ID: 1, CorrectAnswers: []string{"A"}},
		{ID: 2, CorrectAnswers: []string{"B"}},
		{ID: 3, CorrectAnswers: []string{"A", "C"}},
		{ID: 4, CorrectAnswers: []string{"D"}},
		{ID: 5, CorrectAnswers: []string{"C"}},
		{ID: 6, CorrectAnswers: []string{"B", "D"}},
		{ID: 7, CorrectAnswers: []string{"A"}},
		{ID: 8, CorrectAnswers: []string{"C"}},
		{ID: 9, CorrectAnswers: []string{"B"}},
		{ID: 10, CorrectAnswers: []string{"D"}},
	}
}

func TestGrade_MixedOutcome(t *testing.T) {
	answers := Answers{
		1:  {"A"},
		2:  {"B"},
		3:  {"A", "C"},
		4:  {"D"},
		5:  {"C"},
		6:  {"B", "D"},
		7:  {"A"},
		8:  {"A"},      // wrong
		9:  {"C"},      // wrong
		10: {},         // empty selection counts as skipped
	}

	res := Grade(gradedSet(), answers)

	assert.Equal(t, 7, res.Correct)
	assert.Equal(t, 2, res.Incorrect)
	assert.Equal(t, 1, res.Skipped)
	assert.InDelta(t, 7.0, res.Score, 1e-9)
}

func TestGrade_AllCorrect(t *testing.T) {
	questions := []Question{
		{ID: 1, CorrectAnswers: []string{"A"}},
		{ID: 2, CorrectAnswers: []string{"B", "C"}},
		{ID: 3, CorrectAnswers: []string{"D"}},
	}
	answers := Answers{1: {"A"}, 2: {"B", "C"}, 3: {"D"}}

	res := Grade(questions, answers)
	assert.Equal(t, 3, res.Correct)
	assert.InDelta(t, 10.0, res.Score, 1e-9)
}

func TestGrade_SetEqualityIgnoresOrder(t *testing.T) {
	q := Question{ID: 1, CorrectAnswers: []string{"C", "A"}}
	assert.True(t, AnsweredCorrectly(q, Answers{1: {"A", "C"}}))
	assert.True(t, AnsweredCorrectly(q, Answers{1: {"C", "A"}}))
	assert.False(t, AnsweredCorrectly(q, Answers{1: {"A"}}))
	assert.False(t, AnsweredCorrectly(q, Answers{1: {"A", "C", "D"}}))
}

func TestGrade_PartialMultiSelectIsIncorrect(t *testing.T) {
	questions := []Question{{ID: 1, CorrectAnswers: []string{"A", "C"}}}
	res := Grade(questions, Answers{1: {"A"}})

	assert.Equal(t, 0, res.Correct)
	assert.Equal(t, 1, res.Incorrect)
}

func TestGrade_EmptySetScoresZero(t *testing.T) {
	res := Grade(nil, Answers{})
	assert.Equal(t, Result{}, res)
}

func TestWrongQuestions_IncludesSkipped(t *testing.T) {
	questions := []Question{
		{ID: 1, CorrectAnswers: []string{"A"}},
		{ID: 2, CorrectAnswers: []string{"B"}},
		{ID: 3, CorrectAnswers: []string{"C"}},
	}
	answers := Answers{1: {"A"}, 2: {"D"}} // 3 is skipped

	wrong := WrongQuestions(questions, answers)
	assert.Len(t, wrong, 2)
	assert.Equal(t, 2, wrong[0].ID)
	assert.Equal(t, 3, wrong[1].ID)
}
