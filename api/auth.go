package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"cloudkeeper/core/account"
	"cloudkeeper/internal/errors"
)

// authRequest is the body of the account endpoints, as JSON or form values
type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

func (s *Server) parseAuthRequest(w http.ResponseWriter, r *http.Request) (*authRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodySize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req authRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errors.Wrap(errors.TypeInput, "invalid request body", err)
		}
		return &req, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, errors.Wrap(errors.TypeInput, "invalid form body", err)
	}
	return &authRequest{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
		OTP:      r.PostForm.Get("otp"),
	}, nil
}

// handleSignup handles POST /api/v1/signup
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseAuthRequest(w, r)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	result, err := s.accounts.Signup(r.Context(), req.Email, req.Password)
	if result != nil {
		s.sessions.Put(r.Context(), sessionPendingKey, result.Email)
	}
	if err != nil {
		s.writeErr(w, err)
		return
	}

	message := "OTP sent to your email, please verify"
	if result.Resent {
		message = "account exists but is not verified, a new OTP has been sent"
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "otp_sent",
		"email":   result.Email,
		"resent":  result.Resent,
		"message": message,
	})
}

// handleVerify handles POST /api/v1/verify
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseAuthRequest(w, r)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = s.sessions.GetString(r.Context(), sessionPendingKey)
	}
	if email == "" {
		s.writeError(w, http.StatusBadRequest, string(errors.TypeInput), "no pending verification, please sign up or log in")
		return
	}

	err = s.accounts.Verify(r.Context(), email, req.OTP)
	if err == nil || errors.Is(err, account.ErrAlreadyVerified) {
		s.sessions.Remove(r.Context(), sessionPendingKey)
	}
	if err != nil {
		s.writeErr(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "verified",
		"email":   email,
		"message": "account verified, you can now log in",
	})
}

// handleLogin handles POST /api/v1/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseAuthRequest(w, r)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	user, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, account.ErrNotVerified) {
		s.sessions.Put(r.Context(), sessionPendingKey, user.Email)
		s.writeError(w, http.StatusForbidden, "NOT_VERIFIED", "account not verified, please check your email for the OTP")
		return
	}
	if err != nil {
		s.writeErr(w, err)
		return
	}

	// a fresh token on privilege change
	if err := s.sessions.RenewToken(r.Context()); err != nil {
		s.writeErr(w, errors.Internal("failed to renew session", err))
		return
	}
	s.sessions.Put(r.Context(), sessionUserKey, user.Email)
	s.sessions.Remove(r.Context(), sessionPendingKey)
	s.log.Info("session started", zap.String("email", user.Email))

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "logged_in",
		"email":  user.Email,
	})
}

// handleLogout handles POST /api/v1/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(r.Context()); err != nil {
		s.writeErr(w, errors.Internal("failed to end session", err))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "logged_out",
		"message": "you have been logged out",
	})
}

// requireUser rejects requests without a logged-in, verified session.
// A session whose account is no longer verified is logged out.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := s.sessions.GetString(r.Context(), sessionUserKey)
		if username == "" {
			s.writeError(w, http.StatusUnauthorized, string(errors.TypeAuth), "please log in to access this page")
			return
		}
		if !s.accounts.IsVerified(r.Context(), username) {
			s.sessions.Remove(r.Context(), sessionUserKey)
			s.writeError(w, http.StatusUnauthorized, string(errors.TypeAuth), "your account is not verified")
			return
		}
		next.ServeHTTP(w, r)
	})
}
