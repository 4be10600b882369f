package quiz

import "math/rand"

// ConfigOptions selects how an active session is derived from the full pool.
type ConfigOptions struct {
	QuestionCount    int
	Random           bool
	TimeLimitMinutes int
	ExamMode         bool

	// Rand overrides the randomness source for the shuffle (tests).
	Rand *rand.Rand
}

// Configure derives a playable value copy of the pool: optional unbiased
// shuffle, truncation to QuestionCount, and the configured time budget and
// mode attached. QuestionCount is clamped to [1, len(pool)] by the caller;
// the configurator does not re-validate.
func Configure(pool QuizData, opts ConfigOptions) QuizData {
	questions := make([]Question, len(pool.Questions))
	copy(questions, pool.Questions)

	if opts.Random {
		intn := rand.Intn
		if opts.Rand != nil {
			intn = opts.Rand.Intn
		}
		// Fisher-Yates
		for i := len(questions) - 1; i > 0; i-- {
			j := intn(i + 1)
			questions[i], questions[j] = questions[j], questions[i]
		}
	}

	if opts.QuestionCount < len(questions) {
		questions = questions[:opts.QuestionCount]
	}

	return QuizData{
		Title:     pool.Title,
		Questions: questions,
		TimeLimit: opts.TimeLimitMinutes * 60,
		ExamMode:  opts.ExamMode,
	}
}

// ClampQuestionCount bounds a requested count to [1, poolSize].
func ClampQuestionCount(requested, poolSize int) int {
	if requested < 1 {
		return 1
	}
	if requested > poolSize {
		return poolSize
	}
	return requested
}
