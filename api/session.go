package api

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"go.uber.org/zap"
)

// Session keys
const (
	// sessionUserKey holds the logged-in, verified account
	sessionUserKey = "username"

	// sessionPendingKey holds the email awaiting OTP verification
	sessionPendingKey = "pending_user"
)

// newSessionManager builds the cookie session manager over an in-memory store.
// Sessions live for ttl from creation.
func (s *Server) newSessionManager(store *memstore.MemStore) *scs.SessionManager {
	sm := scs.New()
	sm.Store = store
	sm.Lifetime = s.config.SessionTTL
	if sm.Lifetime <= 0 {
		sm.Lifetime = 24 * time.Hour
	}
	if s.config.CookieName != "" {
		sm.Cookie.Name = s.config.CookieName
	}
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = s.config.CookieSecure
	sm.ErrorFunc = func(w http.ResponseWriter, r *http.Request, err error) {
		s.log.Error("session error", zap.String("path", r.URL.Path), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	return sm
}

// sessionCount returns the number of live sessions
func (s *Server) sessionCount() int {
	all, err := s.sessionStore.All()
	if err != nil {
		return 0
	}
	return len(all)
}
