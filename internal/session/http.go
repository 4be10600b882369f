package session

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ysxye29-beep/tracnghiem/internal/auth"
	httperrors "github.com/ysxye29-beep/tracnghiem/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for session operations.
type HTTPHandlers struct {
	manager       *Manager
	maxUploadSize int64
	logger        zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for session endpoints.
func NewHTTPHandlers(manager *Manager, maxUploadSize int64, logger zerolog.Logger) *HTTPHandlers {
	if maxUploadSize <= 0 {
		maxUploadSize = 10 << 20
	}
	return &HTTPHandlers{
		manager:       manager,
		maxUploadSize: maxUploadSize,
		logger:        logger.With().Str("component", "session_http").Logger(),
	}
}

// IntakeText handles POST /v1/session/text
func (h *HTTPHandlers) IntakeText(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	view, err := h.manager.IntakeText(r.Context(), subject, req.Text)
	if err != nil {
		h.respondManagerError(w, subject, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// IntakeDocument handles POST /v1/session/upload (multipart form, field "file")
func (h *HTTPHandlers) IntakeDocument(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "file field is required", "file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Could not read uploaded file")
		return
	}
	view, err := h.manager.IntakeDocument(r.Context(), subject, data, header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		h.respondManagerError(w, subject, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// LoadBatch handles POST /v1/session/batch
func (h *HTTPHandlers) LoadBatch(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	req := struct {
		Index  *int `json:"index"`
		Append bool `json:"append"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	index := -1
	if req.Index != nil {
		if *req.Index < 0 {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "index must not be negative", "index")
			return
		}
		index = *req.Index
	}
	view, err := h.manager.LoadBatch(r.Context(), subject, index, req.Append)
	if err != nil {
		h.respondManagerError(w, subject, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Start handles POST /v1/session/start
func (h *HTTPHandlers) Start(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	var req struct {
		QuestionCount    int  `json:"question_count"`
		Random           bool `json:"random"`
		TimeLimitMinutes int  `json:"time_limit_minutes"`
		ExamMode         bool `json:"exam_mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.TimeLimitMinutes < 0 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "time_limit_minutes must not be negative", "time_limit_minutes")
		return
	}
	view, err := h.manager.Start(r.Context(), subject, StartOptions{
		QuestionCount:    req.QuestionCount,
		Random:           req.Random,
		TimeLimitMinutes: req.TimeLimitMinutes,
		ExamMode:         req.ExamMode,
	})
	if err != nil {
		h.respondManagerError(w, subject, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// SelectAnswer handles POST /v1/session/answer
func (h *HTTPHandlers) SelectAnswer(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	var req struct {
		QuestionID int    `json:"question_id"`
		OptionKey  string `json:"option_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.OptionKey == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "option_key is required", "option_key")
		return
	}
	view, err := h.manager.SelectAnswer(r.Context(), subject, req.QuestionID, req.OptionKey)
	if err != nil {
		h.respondManagerError(w, subject, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// CheckAnswer handles POST /v1/session/check
func (h *HTTPHandlers) CheckAnswer(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	var req struct {
		QuestionID int `json:"question_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	view, err := h.manager.CheckAnswer(r.Context(), subject, req.QuestionID)
	if err != nil {
		h.respondManagerError(w, subject, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// ToggleBookmark handles POST /v1/session/bookmark
func (h *HTTPHandlers) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	var req struct {
		QuestionID int `json:"question_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	view, err := h.manager.ToggleBookmark(r.Context(), subject, req.QuestionID)
	if err != nil {
		h.respondManagerError(w, subject, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Submit handles POST /v1/session/submit
func (h *HTTPHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	view, err := h.manager.Submit(r.Context(), subject)
	if err != nil {
		h.respondManagerError(w, subject, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Retry handles POST /v1/session/retry
func (h *HTTPHandlers) Retry(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	var (
		view View
		err  error
	)
	switch req.Mode {
	case "all":
		view, err = h.manager.RetryAll(r.Context(), subject)
	case "wrong":
		view, err = h.manager.RetryWrong(r.Context(), subject)
	case "bookmarked":
		view, err = h.manager.RetryBookmarked(r.Context(), subject)
	default:
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "mode must be all, wrong or bookmarked", "mode")
		return
	}
	if err != nil {
		h.respondManagerError(w, subject, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Resume handles POST /v1/session/resume
func (h *HTTPHandlers) Resume(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	view, err := h.manager.Resume(r.Context(), subject)
	if err != nil {
		h.respondManagerError(w, subject, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Discard handles POST /v1/session/discard
func (h *HTTPHandlers) Discard(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	view := h.manager.Discard(r.Context(), subject)
	h.respondJSON(w, http.StatusOK, view)
}

// CurrentView handles GET /v1/session
func (h *HTTPHandlers) CurrentView(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, h.manager.CurrentView(r.Context(), subject))
}

// Export handles GET /v1/session/export
func (h *HTTPHandlers) Export(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	doc, fileName, err := h.manager.Export(r.Context(), subject)
	if err != nil {
		if errors.Is(err, ErrNoResults) {
			h.respondManagerError(w, subject, err)
			return
		}
		h.logger.Error().Err(err).Str("subject", subject).Msg("export failed")
		httperrors.RespondInternalError(w, "Could not build export document")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	_, _ = w.Write(doc)
}

// ListHistory handles GET /v1/history
func (h *HTTPHandlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	items := h.manager.History(r.Context(), subject)
	if items == nil {
		items = []HistoryItem{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// DeleteHistory handles DELETE /v1/history/{id}
func (h *HTTPHandlers) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "history id is required", "id")
		return
	}
	h.manager.DeleteHistory(r.Context(), subject, id)
	w.WriteHeader(http.StatusNoContent)
}

// ViewHistory handles POST /v1/history/{id}/view
func (h *HTTPHandlers) ViewHistory(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "history id is required", "id")
		return
	}
	view, err := h.manager.ViewHistoryItem(r.Context(), subject, id)
	if err != nil {
		h.respondManagerError(w, subject, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

func (h *HTTPHandlers) subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	subject, ok := auth.SubjectFromContext(r.Context())
	if !ok || subject == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return "", false
	}
	return subject, true
}

// respondManagerError maps session sentinel errors onto HTTP error codes.
func (h *HTTPHandlers) respondManagerError(w http.ResponseWriter, subject string, err error) {
	switch {
	case errors.Is(err, ErrEmptyInput):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeEmptyInput, "Submission is empty")
	case errors.Is(err, ErrNoDocument):
		httperrors.RespondConflict(w, httperrors.ErrCodeNoDocument, "No source document loaded")
	case errors.Is(err, ErrEmptyPool):
		httperrors.RespondConflict(w, httperrors.ErrCodeEmptyPool, "Question pool is empty")
	case errors.Is(err, ErrNoActiveQuiz):
		httperrors.RespondConflict(w, httperrors.ErrCodeNoActiveQuiz, "No quiz in progress")
	case errors.Is(err, ErrNoResults):
		httperrors.RespondConflict(w, httperrors.ErrCodeNoResults, "No graded session")
	case errors.Is(err, ErrNoSnapshot):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNoSavedSession, "No saved session to resume")
	case errors.Is(err, ErrQuestionNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Question not in active set")
	case errors.Is(err, ErrUnknownOption):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, "Option key not present on question")
	case errors.Is(err, ErrNotMultiSelect):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, "Question is not multi-select")
	case errors.Is(err, ErrNoSelection):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, "Nothing selected to check")
	case errors.Is(err, ErrNothingToRetry):
		httperrors.RespondConflict(w, httperrors.ErrCodeNothingToRetry, "No questions to retry")
	case errors.Is(err, ErrHistoryNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "History item not found")
	case errors.Is(err, ErrSuperseded):
		httperrors.RespondConflict(w, httperrors.ErrCodeSessionOutdated, "Session changed while the request was in flight")
	case errors.Is(err, ErrExtractorUnavailable):
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Extraction service not configured")
	default:
		h.logger.Error().Err(err).Str("subject", subject).Msg("session operation failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeExtractionFailed, err.Error())
	}
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
