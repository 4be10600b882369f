package session

import (
	"time"

	"github.com/ysxye29-beep/tracnghiem/internal/quiz"
)

// State enumerates the user-facing session states.
type State string

const (
	StateUpload     State = "UPLOAD"
	StateProcessing State = "PROCESSING"
	StateConfig     State = "CONFIG"
	StateQuiz       State = "QUIZ"
	StateResults    State = "RESULTS"
	StateHistory    State = "HISTORY"
)

// documentContext keeps the source document so further batches can be fetched.
type documentContext struct {
	Data     []byte
	MimeType string
	FileName string
}

// Session is one subject's quiz state machine payload. All fields are guarded
// by the Manager's lock; the countdown goroutine re-enters through Manager
// methods that re-acquire it.
type Session struct {
	State        State
	Full         *quiz.QuizData
	Active       *quiz.QuizData
	Answers      quiz.Answers
	Bookmarks    []int
	CheckedMulti map[int]bool
	BatchIndex   int
	TimeLeft     int
	TimeSpent    int
	Result       *quiz.Result

	doc       *documentContext
	countdown *Countdown

	// generation invalidates countdown callbacks and in-flight extraction
	// responses that belong to a superseded session.
	generation uint64
	touched    time.Time
}

func newSession() *Session {
	return &Session{
		State:        StateUpload,
		Answers:      quiz.Answers{},
		CheckedMulti: map[int]bool{},
		touched:      time.Now(),
	}
}

func (s *Session) bookmarked(questionID int) bool {
	for _, id := range s.Bookmarks {
		if id == questionID {
			return true
		}
	}
	return false
}

func (s *Session) toggleBookmark(questionID int) {
	for i, id := range s.Bookmarks {
		if id == questionID {
			s.Bookmarks = append(s.Bookmarks[:i], s.Bookmarks[i+1:]...)
			return
		}
	}
	s.Bookmarks = append(s.Bookmarks, questionID)
}

// View is the state exposed to the HTTP and WebSocket surfaces.
type View struct {
	State        State          `json:"state"`
	PoolTitle    string         `json:"poolTitle,omitempty"`
	PoolSize     int            `json:"poolSize"`
	BatchIndex   int            `json:"batchIndex"`
	Active       *quiz.QuizData `json:"activeQuizData,omitempty"`
	Answers      quiz.Answers   `json:"answers,omitempty"`
	Bookmarks    []int          `json:"bookmarks,omitempty"`
	Feedback     map[int]bool   `json:"feedback,omitempty"`
	TimeLeft     int            `json:"timeLeft"`
	TimeSpent    int            `json:"timeSpent"`
	Result       *quiz.Result   `json:"result,omitempty"`
	ResumeTitle  string         `json:"resumeTitle,omitempty"`
	CanResume    bool           `json:"canResume"`
}

func (s *Session) view() View {
	v := View{
		State:      s.State,
		BatchIndex: s.BatchIndex,
		Active:     s.Active,
		Answers:    s.Answers,
		Bookmarks:  s.Bookmarks,
		TimeLeft:   s.TimeLeft,
		TimeSpent:  s.TimeSpent,
		Result:     s.Result,
	}
	if s.Full != nil {
		v.PoolTitle = s.Full.Title
		v.PoolSize = len(s.Full.Questions)
	}
	if s.Active != nil && s.State == StateQuiz {
		v.Feedback = make(map[int]bool, len(s.Active.Questions))
		for _, q := range s.Active.Questions {
			v.Feedback[q.ID] = quiz.FeedbackVisible(s.Active.ExamMode, q, s.Answers, s.CheckedMulti)
		}
	}
	return v
}
