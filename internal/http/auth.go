package http

import (
	"context"
	"net/http"
	"strings"

	"budgetmaster/internal/log"
)

type ctxKey int

const tokenUserKey ctxKey = iota

// requireToken rejects requests without a valid bearer token and stores the
// token's user id in the request context.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" || s.deps.Tokens == nil {
			writeError(w, http.StatusUnauthorized, "Missing or invalid token")
			return
		}

		userID, err := s.deps.Tokens.ParseToken(strings.TrimSpace(raw))
		if err != nil {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).WarnContext(r.Context(), "Token rejected",
				log.FieldPath, r.URL.Path,
				log.FieldError, err)
			writeError(w, http.StatusUnauthorized, "Missing or invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), tokenUserKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authorize reports whether the caller may act on userID, writing 403 when
// it may not. Without AUTH_REQUIRED every caller may.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, userID int64) bool {
	if !s.opts.AuthRequired {
		return true
	}
	if tokenUser, ok := r.Context().Value(tokenUserKey).(int64); ok && tokenUser == userID {
		return true
	}
	writeError(w, http.StatusForbidden, "Forbidden")
	return false
}
