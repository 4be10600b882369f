package session

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ysxye29-beep/tracnghiem/internal/quiz"
)

const (
	progressSlotPrefix = "quiz:progress:"
	historySlotPrefix  = "quiz:history:"
)

// Snapshot is the persisted serialization of an in-progress session.
// Exactly one snapshot slot exists per subject; starting, discarding, or
// finishing a session overwrites or clears it.
type Snapshot struct {
	State      State          `json:"appState"`
	Active     *quiz.QuizData `json:"activeQuizData"`
	Full       *quiz.QuizData `json:"fullQuizData,omitempty"`
	Answers    quiz.Answers   `json:"answers"`
	Bookmarks  []int          `json:"bookmarks"`
	TimeLeft   int            `json:"timeLeft"`
	BatchIndex int            `json:"batchIndex"`
	Timestamp  int64          `json:"timestamp"`
}

// valid gates auto-resume: a snapshot must carry an active set and must have
// been written mid-quiz.
func (s *Snapshot) valid() bool {
	return s != nil && s.Active != nil && len(s.Active.Questions) > 0 && s.State == StateQuiz
}

// HistoryItem is an immutable record of one completed session.
type HistoryItem struct {
	ID             string        `json:"id"`
	Timestamp      int64         `json:"timestamp"`
	Title          string        `json:"title"`
	Score          float64       `json:"score"`
	TotalQuestions int           `json:"totalQuestions"`
	CorrectCount   int           `json:"correctCount"`
	TimeSpent      int           `json:"timeSpent"`
	QuizData       quiz.QuizData `json:"quizData"`
	UserAnswers    quiz.Answers  `json:"userAnswers"`
}

// Gateway serializes session snapshots and history to the slot store.
// Write failures are logged and swallowed: a full store must never
// interrupt play.
type Gateway struct {
	store  Store
	logger zerolog.Logger
}

func NewGateway(store Store, logger zerolog.Logger) *Gateway {
	return &Gateway{
		store:  store,
		logger: logger.With().Str("component", "session_gateway").Logger(),
	}
}

// SaveProgress overwrites the subject's single snapshot slot.
func (g *Gateway) SaveProgress(ctx context.Context, subject string, snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		g.logger.Error().Err(err).Msg("marshal snapshot")
		return
	}
	if err := g.store.Set(ctx, progressSlotPrefix+subject, string(data)); err != nil {
		snapshotWriteFailures.Inc()
		g.logger.Warn().Err(err).Str("subject", subject).Msg("snapshot write failed, play continues unpersisted")
	}
}

// LoadProgress returns the subject's snapshot, or nil when the slot is empty,
// unreadable, or structurally invalid. Invalid slots are discarded.
func (g *Gateway) LoadProgress(ctx context.Context, subject string) *Snapshot {
	raw, ok, err := g.store.Get(ctx, progressSlotPrefix+subject)
	if err != nil {
		g.logger.Warn().Err(err).Str("subject", subject).Msg("snapshot read failed")
		return nil
	}
	if !ok {
		return nil
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil || !snap.valid() {
		g.logger.Warn().Err(err).Str("subject", subject).Msg("discarding invalid snapshot")
		g.ClearProgress(ctx, subject)
		return nil
	}
	return &snap
}

// ClearProgress deletes the subject's snapshot slot.
func (g *Gateway) ClearProgress(ctx context.Context, subject string) {
	if err := g.store.Del(ctx, progressSlotPrefix+subject); err != nil {
		g.logger.Warn().Err(err).Str("subject", subject).Msg("snapshot clear failed")
	}
}

// ListHistory returns the subject's completed sessions, newest first.
func (g *Gateway) ListHistory(ctx context.Context, subject string) []HistoryItem {
	raw, ok, err := g.store.Get(ctx, historySlotPrefix+subject)
	if err != nil {
		g.logger.Warn().Err(err).Str("subject", subject).Msg("history read failed")
		return nil
	}
	if !ok {
		return nil
	}

	var items []HistoryItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		g.logger.Warn().Err(err).Str("subject", subject).Msg("discarding corrupt history")
		_ = g.store.Del(ctx, historySlotPrefix+subject)
		return nil
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Timestamp > items[j].Timestamp })
	return items
}

// AppendHistory prepends an item and rewrites the whole collection. Volume is
// expected to stay in the tens to low hundreds, so full rewrites are fine.
func (g *Gateway) AppendHistory(ctx context.Context, subject string, item HistoryItem) {
	items := append([]HistoryItem{item}, g.ListHistory(ctx, subject)...)
	g.writeHistory(ctx, subject, items)
}

// RemoveHistory deletes the item with the given id; an absent id is a no-op.
func (g *Gateway) RemoveHistory(ctx context.Context, subject, id string) {
	items := g.ListHistory(ctx, subject)
	kept := items[:0]
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return
	}
	g.writeHistory(ctx, subject, kept)
}

func (g *Gateway) writeHistory(ctx context.Context, subject string, items []HistoryItem) {
	data, err := json.Marshal(items)
	if err != nil {
		g.logger.Error().Err(err).Msg("marshal history")
		return
	}
	if err := g.store.Set(ctx, historySlotPrefix+subject, string(data)); err != nil {
		g.logger.Warn().Err(err).Str("subject", subject).Msg("history write failed")
	}
}
