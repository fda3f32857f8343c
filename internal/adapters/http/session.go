package httpadapter

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	sessionHeader = "X-Session-Id"
	sessionCookie = "session_id"
)

// resolveSession reads the session id from the header, then the cookie, and
// mints a new one otherwise. The resolved id is always echoed back.
func resolveSession(w http.ResponseWriter, r *http.Request) string {
	sessionID := strings.TrimSpace(r.Header.Get(sessionHeader))
	if sessionID == "" {
		if c, err := r.Cookie(sessionCookie); err == nil {
			sessionID = strings.TrimSpace(c.Value)
		}
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sessionID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.Header().Set(sessionHeader, sessionID)
	return sessionID
}
