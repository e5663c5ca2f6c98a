package middleware

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	h "eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

type contextKey string

const userIDKey contextKey = "userID"

// tokenFormLimit caps how much of a form body is parsed while looking for a
// credential. Multipart uploads beyond this spill to temp files.
const tokenFormLimit = 32 << 20

// SetUserID returns a context with the user ID set. Used by auth middleware.
func SetUserID(ctx context.Context, userID domain.ID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID from the context, if present.
func UserIDFromContext(ctx context.Context) (domain.ID, bool) {
	id, ok := ctx.Value(userIDKey).(domain.ID)
	return id, ok
}

// ExtractToken pulls the bearer credential from the request, checking the
// Authorization header first, then the token, accessToken and credential
// query parameters, then a token form field for form-encoded and multipart
// bodies. It returns "" when no credential is present anywhere.
func ExtractToken(r *http.Request) string {
	const prefix = "Bearer "
	if auth := r.Header.Get("Authorization"); auth != "" {
		if strings.HasPrefix(auth, prefix) {
			return strings.TrimSpace(auth[len(prefix):])
		}
		return ""
	}
	q := r.URL.Query()
	for _, key := range []string{"token", "accessToken", "credential"} {
		if tok := strings.TrimSpace(q.Get(key)); tok != "" {
			return tok
		}
	}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err == nil {
			return strings.TrimSpace(r.PostForm.Get("token"))
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(tokenFormLimit); err == nil {
			return strings.TrimSpace(r.FormValue("token"))
		}
	}
	return ""
}

// RequireAuth returns a wrapper that resolves the caller's credential and sets
// the user ID in the request context. A missing credential and a rejected one
// both answer 401, but with distinct error codes so clients can tell "log in"
// apart from "log in again".
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing credential")
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeInvalidCredential, "invalid or expired credential")
				return
			}
			r = r.WithContext(SetUserID(r.Context(), userID))
			next(w, r)
		}
	}
}

// OptionalAuth resolves the caller's credential when one is present and valid,
// and otherwise lets the request through anonymously. A bad credential on a
// read never fails the request; it only degrades it.
func OptionalAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if token := ExtractToken(r); token != "" {
				userID, err := verifier.Verify(token)
				if err == nil {
					r = r.WithContext(SetUserID(r.Context(), userID))
				} else {
					logger.DebugContext(r.Context(), "credential rejected, serving anonymously", "path", r.URL.Path)
				}
			}
			next(w, r)
		}
	}
}
