package auth

import (
	"context"
	"net/http"
	"strings"

	httperrors "github.com/ysxye29-beep/tracnghiem/pkg/http/errors"
)

type subjectKey struct{}

// SubjectFromContext returns the authenticated subject, if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey{}).(string)
	return subject, ok
}

// Middleware validates the Bearer token and injects the subject into the
// request context. Tokens also arrive via the "token" query parameter for
// WebSocket upgrades, where custom headers are awkward.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Guest token required")
			return
		}
		subject, err := m.ValidateToken(raw)
		if err != nil {
			code := httperrors.ErrCodeInvalidToken
			if err == ErrExpiredToken {
				code = httperrors.ErrCodeTokenExpired
			}
			httperrors.RespondUnauthorized(w, code, "Invalid or expired guest token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey{}, subject)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
