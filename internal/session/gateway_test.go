package session

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysxye29-beep/tracnghiem/internal/quiz"
)

func testQuizData() quiz.QuizData {
	return quiz.QuizData{
		Title: "Network basics",
		Questions: []quiz.Question{
			{ID: 1, Text: "q1", Options: []quiz.Option{{Key: "A"}, {Key: "B"}}, CorrectAnswers: []string{"A"}},
			{ID: 2, Text: "q2", Options: []quiz.Option{{Key: "A"}, {Key: "B"}}, CorrectAnswers: []string{"B"}},
		},
		TimeLimit: 120,
	}
}

func newTestGateway() (*Gateway, *MemoryStore) {
	store := NewMemoryStore()
	return NewGateway(store, zerolog.Nop()), store
}

func TestGateway_ProgressRoundTrip(t *testing.T) {
	g, _ := newTestGateway()
	ctx := context.Background()
	data := testQuizData()

	g.SaveProgress(ctx, "subject-1", Snapshot{
		State:     StateQuiz,
		Active:    &data,
		Answers:   quiz.Answers{1: {"A"}},
		Bookmarks: []int{2},
		TimeLeft:  75,
		Timestamp: 1700000000000,
	})

	snap := g.LoadProgress(ctx, "subject-1")
	require.NotNil(t, snap)
	assert.Equal(t, StateQuiz, snap.State)
	assert.Equal(t, "Network basics", snap.Active.Title)
	assert.Equal(t, quiz.Answers{1: {"A"}}, snap.Answers)
	assert.Equal(t, []int{2}, snap.Bookmarks)
	assert.Equal(t, 75, snap.TimeLeft)

	// Slots are per subject.
	assert.Nil(t, g.LoadProgress(ctx, "subject-2"))
}

func TestGateway_ClearProgress(t *testing.T) {
	g, _ := newTestGateway()
	ctx := context.Background()
	data := testQuizData()

	g.SaveProgress(ctx, "s", Snapshot{State: StateQuiz, Active: &data})
	g.ClearProgress(ctx, "s")

	assert.Nil(t, g.LoadProgress(ctx, "s"))
}

func TestGateway_InvalidSnapshotDiscarded(t *testing.T) {
	g, store := newTestGateway()
	ctx := context.Background()

	// A snapshot without an active set must not offer resume.
	g.SaveProgress(ctx, "s", Snapshot{State: StateQuiz, Active: nil})
	assert.Nil(t, g.LoadProgress(ctx, "s"))

	// Corrupt payloads are dropped and the slot cleared.
	require.NoError(t, store.Set(ctx, progressSlotPrefix+"s", "{not json"))
	assert.Nil(t, g.LoadProgress(ctx, "s"))
	_, ok, err := store.Get(ctx, progressSlotPrefix+"s")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGateway_SnapshotNotMidQuizIsInvalid(t *testing.T) {
	g, _ := newTestGateway()
	ctx := context.Background()
	data := testQuizData()

	g.SaveProgress(ctx, "s", Snapshot{State: StateResults, Active: &data})
	assert.Nil(t, g.LoadProgress(ctx, "s"))
}

func TestGateway_FullStoreDoesNotPanic(t *testing.T) {
	store := NewMemoryStore()
	store.MaxBytes = 10
	g := NewGateway(store, zerolog.Nop())
	ctx := context.Background()
	data := testQuizData()

	// Write fails silently; play continues without persistence.
	g.SaveProgress(ctx, "s", Snapshot{State: StateQuiz, Active: &data})
	assert.Nil(t, g.LoadProgress(ctx, "s"))
}

func TestGateway_HistoryAppendAndOrder(t *testing.T) {
	g, _ := newTestGateway()
	ctx := context.Background()

	g.AppendHistory(ctx, "s", HistoryItem{ID: "a", Timestamp: 100, Title: "first"})
	g.AppendHistory(ctx, "s", HistoryItem{ID: "b", Timestamp: 300, Title: "second"})
	g.AppendHistory(ctx, "s", HistoryItem{ID: "c", Timestamp: 200, Title: "third"})

	items := g.ListHistory(ctx, "s")
	require.Len(t, items, 3)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "c", items[1].ID)
	assert.Equal(t, "a", items[2].ID)
}

func TestGateway_RemoveHistory(t *testing.T) {
	g, _ := newTestGateway()
	ctx := context.Background()

	g.AppendHistory(ctx, "s", HistoryItem{ID: "a", Timestamp: 1})
	g.AppendHistory(ctx, "s", HistoryItem{ID: "b", Timestamp: 2})

	g.RemoveHistory(ctx, "s", "a")
	items := g.ListHistory(ctx, "s")
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)

	// Absent id is a no-op.
	g.RemoveHistory(ctx, "s", "missing")
	assert.Len(t, g.ListHistory(ctx, "s"), 1)
}
