package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ysxye29-beep/tracnghiem/internal/quiz"
)

var (
	ErrEmptyInput           = errors.New("empty submission")
	ErrNoDocument           = errors.New("no document loaded")
	ErrEmptyPool            = errors.New("question pool is empty")
	ErrNoActiveQuiz         = errors.New("no quiz in progress")
	ErrNoResults            = errors.New("no graded session")
	ErrNoSnapshot           = errors.New("no saved session")
	ErrQuestionNotFound     = errors.New("question not in active set")
	ErrUnknownOption        = errors.New("option key not present on question")
	ErrNotMultiSelect       = errors.New("question is not multi-select")
	ErrNoSelection          = errors.New("nothing selected to check")
	ErrNothingToRetry       = errors.New("no questions to retry")
	ErrHistoryNotFound      = errors.New("history item not found")
	ErrSuperseded           = errors.New("session superseded while request was in flight")
	ErrExtractorUnavailable = errors.New("extraction service not configured")
)

// ExtractRequest asks the extraction collaborator for one batch of questions.
// Start and End are 1-based inclusive question numbers.
type ExtractRequest struct {
	Document      []byte
	MimeType      string
	FileName      string
	StartQuestion int
	EndQuestion   int
}

// Extractor turns a document range into a normalized question set.
// An empty result for the requested range is an error, not an empty success.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (quiz.QuizData, error)
}

// Exporter renders a graded session into a downloadable document.
type Exporter interface {
	BuildDocument(data quiz.QuizData, answers quiz.Answers, timeSpent int, score float64) ([]byte, error)
}

// Notifier pushes server-driven countdown events to connected clients.
type Notifier interface {
	SessionTick(subject string, secondsLeft int)
	SessionExpired(subject string)
}

// ManagerOptions tune runtime behavior.
type ManagerOptions struct {
	// TickInterval is the countdown tick spacing; defaults to one second.
	TickInterval time.Duration
	Notifier     Notifier
}

// Manager owns every subject's session state machine. All transitions run
// under one mutex; countdown goroutines re-enter through generation-checked
// callbacks so a stale timer can never touch a newer session.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	gateway   *Gateway
	extractor Extractor
	exporter  Exporter
	notifier  Notifier
	tick      time.Duration
	logger    zerolog.Logger
}

func NewManager(gateway *Gateway, extractor Extractor, exporter Exporter, opts ManagerOptions, logger zerolog.Logger) *Manager {
	tick := opts.TickInterval
	if tick <= 0 {
		tick = time.Second
	}
	return &Manager{
		sessions:  make(map[string]*Session),
		gateway:   gateway,
		extractor: extractor,
		exporter:  exporter,
		notifier:  opts.Notifier,
		tick:      tick,
		logger:    logger.With().Str("component", "session_manager").Logger(),
	}
}

// get returns the subject's session, creating a fresh one in Upload state.
// Callers must hold m.mu.
func (m *Manager) get(subject string) *Session {
	s, ok := m.sessions[subject]
	if !ok {
		s = newSession()
		m.sessions[subject] = s
	}
	s.touched = time.Now()
	return s
}

// IntakeText starts a new source from pasted text and fetches batch 0.
func (m *Manager) IntakeText(ctx context.Context, subject, text string) (View, error) {
	if strings.TrimSpace(text) == "" {
		return View{}, ErrEmptyInput
	}
	return m.intake(ctx, subject, []byte(text), "text/plain", "pasted_text.txt")
}

// IntakeDocument starts a new source from uploaded document bytes.
func (m *Manager) IntakeDocument(ctx context.Context, subject string, data []byte, mimeType, fileName string) (View, error) {
	if len(data) == 0 {
		return View{}, ErrEmptyInput
	}
	if mimeType == "" {
		mimeType = guessMimeType(fileName)
	}
	return m.intake(ctx, subject, data, mimeType, fileName)
}

func (m *Manager) intake(ctx context.Context, subject string, data []byte, mimeType, fileName string) (View, error) {
	m.mu.Lock()
	s := m.get(subject)
	// A new source implicitly discards the prior session's state.
	m.discardLocked(ctx, subject, s)
	s.doc = &documentContext{Data: data, MimeType: mimeType, FileName: fileName}
	m.mu.Unlock()

	return m.LoadBatch(ctx, subject, 0, false)
}

// LoadBatch fetches one 50-question page from the extraction service and
// either replaces the pool or merges into it. index < 0 means "the batch
// after the current one". On failure the pool is left unchanged and the
// session returns to Config (or Upload if this was the first batch).
func (m *Manager) LoadBatch(ctx context.Context, subject string, index int, appendMode bool) (View, error) {
	m.mu.Lock()
	s := m.get(subject)
	if m.extractor == nil {
		m.mu.Unlock()
		return View{}, ErrExtractorUnavailable
	}
	if s.doc == nil {
		m.mu.Unlock()
		return View{}, ErrNoDocument
	}
	if index < 0 {
		index = s.BatchIndex + 1
	}
	doc := s.doc
	gen := s.generation
	s.State = StateProcessing
	m.mu.Unlock()

	start, end := quiz.BatchRange(index)
	data, err := m.extractor.Extract(ctx, ExtractRequest{
		Document:      doc.Data,
		MimeType:      doc.MimeType,
		FileName:      doc.FileName,
		StartQuestion: start,
		EndQuestion:   end,
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if s.generation != gen {
		m.logger.Info().Str("subject", subject).Int("batch", index).Msg("dropping stale extraction response")
		return View{}, ErrSuperseded
	}
	if err != nil {
		if s.Full == nil {
			s.State = StateUpload
		} else {
			s.State = StateConfig
		}
		return s.view(), fmt.Errorf("extract batch %d: %w", index, err)
	}

	if appendMode && s.Full != nil {
		s.Full = &quiz.QuizData{
			Title:     s.Full.Title,
			Questions: quiz.MergePool(s.Full.Questions, data.Questions),
		}
	} else {
		pool := data
		s.Full = &pool
	}
	s.BatchIndex = index
	s.State = StateConfig
	return s.view(), nil
}

// StartOptions configure a fresh active session derived from the pool.
type StartOptions struct {
	QuestionCount    int
	Random           bool
	TimeLimitMinutes int
	ExamMode         bool
}

// Start derives and begins a new active session. Bookmarks reset.
func (m *Manager) Start(ctx context.Context, subject string, opts StartOptions) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(subject)
	if s.Full == nil || len(s.Full.Questions) == 0 {
		return View{}, ErrEmptyPool
	}

	active := quiz.Configure(*s.Full, quiz.ConfigOptions{
		QuestionCount:    quiz.ClampQuestionCount(opts.QuestionCount, len(s.Full.Questions)),
		Random:           opts.Random,
		TimeLimitMinutes: opts.TimeLimitMinutes,
		ExamMode:         opts.ExamMode,
	})
	m.beginActive(ctx, subject, s, &active, true)
	return s.view(), nil
}

// beginActive resets play state and starts the countdown for a new active
// set. Callers must hold m.mu.
func (m *Manager) beginActive(ctx context.Context, subject string, s *Session, active *quiz.QuizData, resetBookmarks bool) {
	m.stopCountdown(s)
	s.generation++
	s.Active = active
	s.Answers = quiz.Answers{}
	s.CheckedMulti = map[int]bool{}
	s.Result = nil
	s.TimeSpent = 0
	if resetBookmarks {
		s.Bookmarks = nil
	}
	s.State = StateQuiz
	m.startCountdown(subject, s, active.AllottedSeconds())
	m.saveSnapshot(ctx, subject, s)
	sessionsStarted.Inc()
}

// SelectAnswer applies one option pick and snapshots immediately so answer
// changes are never lost between autosave boundaries.
func (m *Manager) SelectAnswer(ctx context.Context, subject string, questionID int, optionKey string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(subject)
	if s.State != StateQuiz || s.Active == nil {
		return View{}, ErrNoActiveQuiz
	}
	q, ok := findQuestion(s.Active, questionID)
	if !ok {
		return View{}, ErrQuestionNotFound
	}
	key := strings.ToUpper(strings.TrimSpace(optionKey))
	if !q.HasOption(key) {
		return View{}, ErrUnknownOption
	}

	// Changing a checked multi-select un-submits it so it can be re-checked.
	if q.MultiSelect() && s.CheckedMulti[questionID] {
		delete(s.CheckedMulti, questionID)
	}
	s.Answers = quiz.Select(s.Answers, q, key)
	m.saveSnapshot(ctx, subject, s)
	return s.view(), nil
}

// CheckAnswer marks a multi-select question as submitted for feedback.
func (m *Manager) CheckAnswer(ctx context.Context, subject string, questionID int) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(subject)
	if s.State != StateQuiz || s.Active == nil {
		return View{}, ErrNoActiveQuiz
	}
	q, ok := findQuestion(s.Active, questionID)
	if !ok {
		return View{}, ErrQuestionNotFound
	}
	if !q.MultiSelect() {
		return View{}, ErrNotMultiSelect
	}
	if !s.Answers.Answered(questionID) {
		return View{}, ErrNoSelection
	}
	s.CheckedMulti[questionID] = true
	return s.view(), nil
}

// ToggleBookmark flips a question's bookmark. Never touches answers.
func (m *Manager) ToggleBookmark(ctx context.Context, subject string, questionID int) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(subject)
	if s.Active == nil || (s.State != StateQuiz && s.State != StateResults) {
		return View{}, ErrNoActiveQuiz
	}
	if _, ok := findQuestion(s.Active, questionID); !ok {
		return View{}, ErrQuestionNotFound
	}
	s.toggleBookmark(questionID)
	if s.State == StateQuiz {
		m.saveSnapshot(ctx, subject, s)
	}
	return s.view(), nil
}

// Submit grades the active session and moves to Results.
func (m *Manager) Submit(ctx context.Context, subject string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(subject)
	if s.State != StateQuiz || s.Active == nil {
		return View{}, ErrNoActiveQuiz
	}
	m.finishLocked(ctx, subject, s)
	return s.view(), nil
}

// RetryAll replays the same active set. Bookmarks survive: this path does not
// discard the loaded pool, unlike every other retry.
func (m *Manager) RetryAll(ctx context.Context, subject string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(subject)
	if s.State != StateResults || s.Active == nil {
		return View{}, ErrNoResults
	}
	m.beginActive(ctx, subject, s, s.Active, false)
	return s.view(), nil
}

// RetryWrong starts a practice review over the questions that did not grade
// as correct, one minute per question. Bookmarks reset.
func (m *Manager) RetryWrong(ctx context.Context, subject string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(subject)
	if s.State != StateResults || s.Active == nil {
		return View{}, ErrNoResults
	}
	wrong := quiz.WrongQuestions(s.Active.Questions, s.Answers)
	if len(wrong) == 0 {
		return View{}, ErrNothingToRetry
	}
	review := &quiz.QuizData{
		Title:     s.Active.Title + " (review wrong)",
		Questions: wrong,
		TimeLimit: len(wrong) * quiz.DefaultSecondsPerQuestion,
		ExamMode:  false,
	}
	m.beginActive(ctx, subject, s, review, true)
	return s.view(), nil
}

// RetryBookmarked starts a practice review over the bookmarked questions.
func (m *Manager) RetryBookmarked(ctx context.Context, subject string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(subject)
	if s.State != StateResults || s.Active == nil {
		return View{}, ErrNoResults
	}
	var marked []quiz.Question
	for _, q := range s.Active.Questions {
		if s.bookmarked(q.ID) {
			marked = append(marked, q)
		}
	}
	if len(marked) == 0 {
		return View{}, ErrNothingToRetry
	}
	review := &quiz.QuizData{
		Title:     s.Active.Title + " (review bookmarked)",
		Questions: marked,
		TimeLimit: len(marked) * quiz.DefaultSecondsPerQuestion,
		ExamMode:  false,
	}
	m.beginActive(ctx, subject, s, review, true)
	return s.view(), nil
}

// Resume restores a persisted snapshot and re-enters the quiz with the saved
// answers, bookmarks and remaining time.
func (m *Manager) Resume(ctx context.Context, subject string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(subject)
	snap := m.gateway.LoadProgress(ctx, subject)
	if snap == nil {
		return View{}, ErrNoSnapshot
	}

	m.stopCountdown(s)
	s.generation++
	s.Full = snap.Full
	s.Active = snap.Active
	s.Answers = snap.Answers
	if s.Answers == nil {
		s.Answers = quiz.Answers{}
	}
	s.Bookmarks = snap.Bookmarks
	s.CheckedMulti = map[int]bool{}
	s.BatchIndex = snap.BatchIndex
	s.Result = nil
	s.TimeSpent = 0
	s.State = StateQuiz
	m.startCountdown(subject, s, snap.TimeLeft)
	sessionsStarted.Inc()
	return s.view(), nil
}

// Discard drops all session state and the persisted snapshot.
func (m *Manager) Discard(ctx context.Context, subject string) View {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(subject)
	m.discardLocked(ctx, subject, s)
	return s.view()
}

// CurrentView reports the session as seen by the client; in Upload state it
// also surfaces the resume offer when a valid snapshot exists.
func (m *Manager) CurrentView(ctx context.Context, subject string) View {
	m.mu.Lock()
	s := m.get(subject)
	v := s.view()
	state := s.State
	m.mu.Unlock()

	if state == StateUpload {
		if snap := m.gateway.LoadProgress(ctx, subject); snap != nil {
			v.CanResume = true
			v.ResumeTitle = snap.Active.Title
		}
	}
	return v
}

// History lists the subject's completed sessions, newest first.
func (m *Manager) History(ctx context.Context, subject string) []HistoryItem {
	return m.gateway.ListHistory(ctx, subject)
}

// DeleteHistory removes one record; an absent id is a no-op.
func (m *Manager) DeleteHistory(ctx context.Context, subject, id string) {
	m.gateway.RemoveHistory(ctx, subject, id)
}

// ViewHistoryItem loads a completed session back into Results for review.
func (m *Manager) ViewHistoryItem(ctx context.Context, subject, id string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(subject)

	var item *HistoryItem
	for _, it := range m.gateway.ListHistory(ctx, subject) {
		if it.ID == id {
			found := it
			item = &found
			break
		}
	}
	if item == nil {
		return View{}, ErrHistoryNotFound
	}

	m.stopCountdown(s)
	s.generation++
	data := item.QuizData
	s.Active = &data
	s.Answers = item.UserAnswers
	if s.Answers == nil {
		s.Answers = quiz.Answers{}
	}
	res := quiz.Grade(data.Questions, s.Answers)
	s.Result = &res
	s.TimeSpent = item.TimeSpent
	s.Bookmarks = nil
	s.CheckedMulti = map[int]bool{}
	s.State = StateResults
	return s.view(), nil
}

// Export renders the graded session as a downloadable document.
func (m *Manager) Export(ctx context.Context, subject string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(subject)
	if s.State != StateResults || s.Active == nil || s.Result == nil {
		return nil, "", ErrNoResults
	}
	doc, err := m.exporter.BuildDocument(*s.Active, s.Answers, s.TimeSpent, s.Result.Score)
	if err != nil {
		return nil, "", fmt.Errorf("build export document: %w", err)
	}
	return doc, exportFileName(s.Active.Title), nil
}

// PruneIdle drops in-memory sessions untouched for longer than maxIdle.
// Persisted snapshots survive, so a pruned quiz can still be resumed.
func (m *Manager) PruneIdle(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	pruned := 0
	for subject, s := range m.sessions {
		if time.Since(s.touched) > maxIdle {
			m.stopCountdown(s)
			delete(m.sessions, subject)
			pruned++
		}
	}
	return pruned
}

// --- internals ---

func (m *Manager) discardLocked(ctx context.Context, subject string, s *Session) {
	m.stopCountdown(s)
	s.generation++
	s.Full = nil
	s.Active = nil
	s.Answers = quiz.Answers{}
	s.Bookmarks = nil
	s.CheckedMulti = map[int]bool{}
	s.BatchIndex = 0
	s.TimeLeft = 0
	s.TimeSpent = 0
	s.Result = nil
	s.doc = nil
	s.State = StateUpload
	m.gateway.ClearProgress(ctx, subject)
}

// finishLocked grades, records history, clears the snapshot and enters
// Results. Used by both explicit submit and timer expiry.
func (m *Manager) finishLocked(ctx context.Context, subject string, s *Session) {
	m.stopCountdown(s)
	s.generation++

	spent := s.Active.AllottedSeconds() - s.TimeLeft
	if spent < 0 {
		spent = 0
	}
	res := quiz.Grade(s.Active.Questions, s.Answers)
	s.Result = &res
	s.TimeSpent = spent
	s.State = StateResults

	m.gateway.ClearProgress(ctx, subject)
	m.gateway.AppendHistory(ctx, subject, HistoryItem{
		ID:             uuid.NewString(),
		Timestamp:      time.Now().UnixMilli(),
		Title:          s.Active.Title,
		Score:          res.Score,
		TotalQuestions: len(s.Active.Questions),
		CorrectCount:   res.Correct,
		TimeSpent:      spent,
		QuizData:       *s.Active,
		UserAnswers:    s.Answers.Clone(),
	})
	sessionsCompleted.Inc()
}

func (m *Manager) startCountdown(subject string, s *Session, seconds int) {
	s.TimeLeft = seconds
	gen := s.generation
	c := NewCountdown(seconds, m.tick,
		func(left int) { m.handleTick(subject, gen, left) },
		func() { m.handleExpire(subject, gen) },
	)
	s.countdown = c
	go c.Run()
}

func (m *Manager) stopCountdown(s *Session) {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
}

// handleTick mirrors remaining time into the session and applies the autosave
// policy: a snapshot every tick whose new value is a multiple of 5, zero
// included, bounding write frequency to one per five seconds.
func (m *Manager) handleTick(subject string, gen uint64, left int) {
	m.mu.Lock()
	s, ok := m.sessions[subject]
	if !ok || s.generation != gen || s.State != StateQuiz {
		m.mu.Unlock()
		return
	}
	s.TimeLeft = left
	if left%5 == 0 {
		m.saveSnapshot(context.Background(), subject, s)
	}
	m.mu.Unlock()

	if m.notifier != nil {
		m.notifier.SessionTick(subject, left)
	}
}

// handleExpire forces submission exactly once when the countdown hits zero.
func (m *Manager) handleExpire(subject string, gen uint64) {
	m.mu.Lock()
	s, ok := m.sessions[subject]
	if !ok || s.generation != gen || s.State != StateQuiz {
		m.mu.Unlock()
		return
	}
	s.TimeLeft = 0
	m.finishLocked(context.Background(), subject, s)
	m.mu.Unlock()

	if m.notifier != nil {
		m.notifier.SessionExpired(subject)
	}
}

func (m *Manager) saveSnapshot(ctx context.Context, subject string, s *Session) {
	left := s.TimeLeft
	if s.countdown != nil {
		left = s.countdown.Left()
		s.TimeLeft = left
	}
	m.gateway.SaveProgress(ctx, subject, Snapshot{
		State:      StateQuiz,
		Active:     s.Active,
		Full:       s.Full,
		Answers:    s.Answers.Clone(),
		Bookmarks:  append([]int(nil), s.Bookmarks...),
		TimeLeft:   left,
		BatchIndex: s.BatchIndex,
		Timestamp:  time.Now().UnixMilli(),
	})
}

func findQuestion(data *quiz.QuizData, id int) (quiz.Question, bool) {
	for _, q := range data.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return quiz.Question{}, false
}

func guessMimeType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".md":
		return "text/markdown"
	case ".pdf":
		return "application/pdf"
	default:
		return "text/plain"
	}
}

func exportFileName(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		name = "quiz"
	}
	return "ket-qua-" + name + ".docx"
}
