package quiz

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func poolOf(n int) QuizData {
	questions := make([]Question, n)
	for i := range questions {
		questions[i] = Question{ID: i + 1}
	}
	return QuizData{Title: "pool", Questions: questions}
}

func TestConfigure_KeepsOrderWithoutRandom(t *testing.T) {
	pool := poolOf(5)
	active := Configure(pool, ConfigOptions{QuestionCount: 5})

	for i, q := range active.Questions {
		assert.Equal(t, i+1, q.ID)
	}
}

func TestConfigure_ShuffleIsPermutation(t *testing.T) {
	pool := poolOf(20)
	active := Configure(pool, ConfigOptions{
		QuestionCount: 20,
		Random:        true,
		Rand:          rand.New(rand.NewSource(42)),
	})

	assert.Len(t, active.Questions, 20)
	ids := make([]int, 20)
	for i, q := range active.Questions {
		ids[i] = q.ID
	}
	sort.Ints(ids)
	for i, id := range ids {
		assert.Equal(t, i+1, id)
	}
}

func TestConfigure_TruncatesToCount(t *testing.T) {
	pool := poolOf(10)
	active := Configure(pool, ConfigOptions{QuestionCount: 3})

	assert.Len(t, active.Questions, 3)
	// Without shuffle, truncation keeps the leading questions.
	assert.Equal(t, 1, active.Questions[0].ID)
	assert.Equal(t, 3, active.Questions[2].ID)
}

func TestConfigure_DoesNotMutatePool(t *testing.T) {
	pool := poolOf(10)
	Configure(pool, ConfigOptions{
		QuestionCount: 10,
		Random:        true,
		Rand:          rand.New(rand.NewSource(7)),
	})

	for i, q := range pool.Questions {
		assert.Equal(t, i+1, q.ID)
	}
}

func TestConfigure_AttachesTimeAndMode(t *testing.T) {
	pool := poolOf(4)
	active := Configure(pool, ConfigOptions{QuestionCount: 4, TimeLimitMinutes: 15, ExamMode: true})

	assert.Equal(t, 15*60, active.TimeLimit)
	assert.True(t, active.ExamMode)
	assert.Equal(t, "pool", active.Title)
}

func TestAllottedSeconds(t *testing.T) {
	withLimit := QuizData{Questions: make([]Question, 10), TimeLimit: 300}
	assert.Equal(t, 300, withLimit.AllottedSeconds())

	noLimit := QuizData{Questions: make([]Question, 10)}
	assert.Equal(t, 600, noLimit.AllottedSeconds())
}

func TestClampQuestionCount(t *testing.T) {
	assert.Equal(t, 1, ClampQuestionCount(0, 10))
	assert.Equal(t, 1, ClampQuestionCount(-5, 10))
	assert.Equal(t, 10, ClampQuestionCount(50, 10))
	assert.Equal(t, 7, ClampQuestionCount(7, 10))
}
