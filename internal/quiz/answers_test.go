package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	singleQ = Question{
		ID:             1,
		Options:        []Option{{Key: "A"}, {Key: "B"}, {Key: "C"}, {Key: "D"}},
		CorrectAnswers: []string{"B"},
	}
	multiQ = Question{
		ID:             2,
		Options:        []Option{{Key: "A"}, {Key: "B"}, {Key: "C"}, {Key: "D"}},
		CorrectAnswers: []string{"A", "C"},
	}
)

func TestSelect_SingleReplaces(t *testing.T) {
	answers := Select(Answers{}, singleQ, "A")
	assert.Equal(t, []string{"A"}, answers[1])

	answers = Select(answers, singleQ, "C")
	assert.Equal(t, []string{"C"}, answers[1])
}

func TestSelect_MultiToggles(t *testing.T) {
	answers := Select(Answers{}, multiQ, "C")
	answers = Select(answers, multiQ, "A")
	assert.Equal(t, []string{"A", "C"}, answers[2])

	answers = Select(answers, multiQ, "C")
	assert.Equal(t, []string{"A"}, answers[2])

	answers = Select(answers, multiQ, "A")
	assert.Empty(t, answers[2])
	assert.False(t, answers.Answered(2))
}

func TestSelect_DoesNotMutateInput(t *testing.T) {
	original := Answers{1: {"A"}}
	_ = Select(original, singleQ, "D")
	assert.Equal(t, []string{"A"}, original[1])
}

func TestAnswersClone(t *testing.T) {
	original := Answers{1: {"A"}, 2: {"A", "C"}}
	clone := original.Clone()
	clone[1][0] = "D"
	clone[3] = []string{"B"}

	assert.Equal(t, []string{"A"}, original[1])
	assert.NotContains(t, original, 3)
}

func TestFeedbackVisible(t *testing.T) {
	answered := Answers{1: {"A"}, 2: {"A", "C"}}

	// Exam mode hides everything until grading.
	assert.False(t, FeedbackVisible(true, singleQ, answered, map[int]bool{2: true}))
	assert.False(t, FeedbackVisible(true, multiQ, answered, map[int]bool{2: true}))

	// Practice single-select: visible once answered.
	assert.True(t, FeedbackVisible(false, singleQ, answered, nil))
	assert.False(t, FeedbackVisible(false, singleQ, Answers{}, nil))

	// Practice multi-select: needs an explicit check, answers alone do not leak.
	assert.False(t, FeedbackVisible(false, multiQ, answered, map[int]bool{}))
	assert.True(t, FeedbackVisible(false, multiQ, answered, map[int]bool{2: true}))
}
