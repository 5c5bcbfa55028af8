package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const UserIDKey contextKey = "userID"

// AuthMiddleware admits requests carrying a valid bearer token and stores
// the token's user ID in the request context.
func (s *Service) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			unauthorized(w, r, "missing bearer token")
			return
		}
		userID, err := s.ValidateToken(token)
		if err != nil {
			unauthorized(w, r, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from "Authorization: Bearer <token>". The
// scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// unauthorized answers with the same {"error": ...} body the other handlers
// use. The detail only goes to the log.
func unauthorized(w http.ResponseWriter, r *http.Request, reason string) {
	slog.Debug("rejected request", "reason", reason, "path", r.URL.Path)
	w.Header().Set("WWW-Authenticate", `Bearer realm="shapedraw"`)
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
}

func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}
