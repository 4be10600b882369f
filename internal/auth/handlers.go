package auth

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/ysxye29-beep/tracnghiem/pkg/http/errors"
)

// HTTPHandlers exposes token issuance.
type HTTPHandlers struct {
	manager *Manager
	logger  zerolog.Logger
}

func NewHTTPHandlers(manager *Manager, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		manager: manager,
		logger:  logger.With().Str("component", "auth_http").Logger(),
	}
}

// CreateGuest handles POST /v1/auth/guest: mints an anonymous identity.
func (h *HTTPHandlers) CreateGuest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token, subject, err := h.manager.GenerateGuestToken()
	if err != nil {
		h.logger.Error().Err(err).Msg("guest token generation failed")
		httperrors.RespondInternalError(w, "Could not create guest identity")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"token":   token,
		"subject": subject,
	})
}
