package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mmynk/fintrack/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserIDKey is the context key for storing the authenticated user ID.
const UserIDKey contextKey = "user_id"

// Messages returned by the gate. Neither says why a token was rejected.
const (
	MsgAccessDenied = "Access denied"
	MsgInvalidToken = "Invalid token"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// RequireAuth returns a middleware that admits only requests carrying a
// valid session token. The token is looked up by extractor; on success the
// user ID is added to the request context.
func RequireAuth(verifier auth.TokenVerifier, extractor auth.TokenExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractor.Extract(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, MsgAccessDenied)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, MsgInvalidToken)
				return
			}

			if info := requestInfoFrom(r.Context()); info != nil {
				info.userID = userID
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
