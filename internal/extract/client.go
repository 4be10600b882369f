// Package extract talks to the external question-extraction service: a
// generative backend that turns document bytes plus a question-number range
// into structured multiple-choice questions.
package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/ysxye29-beep/tracnghiem/internal/quiz"
	"github.com/ysxye29-beep/tracnghiem/internal/session"
)

var (
	extractions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_extractions_total",
		Help: "Batch extraction requests sent to the extraction service.",
	})
	extractionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_extraction_failures_total",
		Help: "Batch extractions that failed or returned an empty range.",
	})
)

// Config holds connection details for the extraction service.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client implements session.Extractor over HTTP.
type Client struct {
	httpClient *http.Client
	config     Config
	extractURL string
	logger     zerolog.Logger
}

var _ session.Extractor = (*Client)(nil)

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
		extractURL: strings.TrimSuffix(cfg.URL, "/") + "/extract",
		logger:     logger.With().Str("component", "extractor").Logger(),
	}
}

// Extract requests the questions numbered [StartQuestion, EndQuestion] from
// the document. Zero questions in the range is an error, never an empty
// success. Raw correct-answer strings are normalized here and never carried
// further.
func (c *Client) Extract(ctx context.Context, req session.ExtractRequest) (quiz.QuizData, error) {
	if c.config.URL == "" {
		return quiz.QuizData{}, fmt.Errorf("extraction endpoint not configured")
	}
	extractions.Inc()

	payload := extractRequest{
		Document: base64.StdEncoding.EncodeToString(req.Document),
		MimeType: req.MimeType,
		FileName: req.FileName,
		Start:    req.StartQuestion,
		End:      req.EndQuestion,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return quiz.QuizData{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.extractURL, bytes.NewReader(body))
	if err != nil {
		return quiz.QuizData{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		extractionFailures.Inc()
		return quiz.QuizData{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		extractionFailures.Inc()
		return quiz.QuizData{}, fmt.Errorf("extraction service returned status %d", resp.StatusCode)
	}

	var raw extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		extractionFailures.Inc()
		return quiz.QuizData{}, fmt.Errorf("decode extraction payload: %w", err)
	}

	data, err := normalize(raw, req.StartQuestion, req.EndQuestion)
	if err != nil {
		extractionFailures.Inc()
		return quiz.QuizData{}, err
	}
	c.logger.Info().Int("questions", len(data.Questions)).
		Int("start", req.StartQuestion).Int("end", req.EndQuestion).
		Msg("batch extracted")
	return data, nil
}

func normalize(raw extractResponse, start, end int) (quiz.QuizData, error) {
	questions := make([]quiz.Question, 0, len(raw.Questions))
	for _, rq := range raw.Questions {
		keys := quiz.ParseCorrectAnswers(rq.CorrectAnswerRaw)
		if len(keys) == 0 {
			// A question with no identifiable answer is unusable; skip it
			// rather than failing the whole batch.
			continue
		}
		options := make([]quiz.Option, 0, len(rq.Options))
		for _, o := range rq.Options {
			options = append(options, quiz.Option{Key: strings.ToUpper(strings.TrimSpace(o.Key)), Text: o.Text})
		}
		questions = append(questions, quiz.Question{
			ID:                 rq.ID,
			Text:               rq.Text,
			Options:            options,
			CorrectAnswers:     keys,
			Explanation:        rq.Explanation,
			OptionExplanations: rq.OptionExplanations,
		})
	}
	if len(questions) == 0 {
		return quiz.QuizData{}, fmt.Errorf("no questions found in range %d-%d", start, end)
	}
	return quiz.QuizData{Title: raw.Title, Questions: questions}, nil
}

type extractRequest struct {
	Document string `json:"document"`
	MimeType string `json:"mime_type"`
	FileName string `json:"file_name"`
	Start    int    `json:"start_question"`
	End      int    `json:"end_question"`
}

type extractQuestion struct {
	ID                 int               `json:"id"`
	Text               string            `json:"text"`
	Options            []extractOption   `json:"options"`
	CorrectAnswerRaw   string            `json:"correctAnswerRaw"`
	Explanation        string            `json:"explanation,omitempty"`
	OptionExplanations map[string]string `json:"optionExplanations,omitempty"`
}

type extractOption struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type extractResponse struct {
	Title     string            `json:"title"`
	Questions []extractQuestion `json:"questions"`
}
