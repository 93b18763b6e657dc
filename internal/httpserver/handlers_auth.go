package httpserver

import (
	"errors"
	"net/http"

	"mindwell/wellbeing-platform/internal/audit"
	"mindwell/wellbeing-platform/internal/auth"
	"mindwell/wellbeing-platform/internal/session"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	if h.deps.Auth == nil {
		writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
		return
	}
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.deps.Auth.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "username and password are required")
		case errors.Is(err, auth.ErrUsernameTaken):
			auditReq(h.deps.Audit, r, req.Username, audit.ActionSignup, "", audit.OutcomeDenied, "", "username taken")
			writeError(w, http.StatusConflict, "username already exists")
		default:
			auditReq(h.deps.Audit, r, req.Username, audit.ActionSignup, "", audit.OutcomeError, "", err.Error())
			writeStoreError(w, err, "signup failed")
		}
		return
	}
	auditReq(h.deps.Audit, r, u.Username, audit.ActionSignup, u.ID, audit.OutcomeSuccess, "", "")
	writeJSON(w, http.StatusCreated, u)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	if h.deps.Auth == nil {
		writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
		return
	}
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	s, err := h.deps.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			auditReq(h.deps.Audit, r, req.Username, audit.ActionLogin, "", audit.OutcomeDenied, "", "invalid credentials")
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		auditReq(h.deps.Audit, r, req.Username, audit.ActionLogin, "", audit.OutcomeError, "", err.Error())
		writeStoreError(w, err, "login failed")
		return
	}
	auditReq(h.deps.Audit, r, s.Username, audit.ActionLogin, "", audit.OutcomeSuccess, s.ID, "")

	writeJSON(w, http.StatusOK, map[string]any{
		"token":   s.Token,
		"session": s.View(),
	})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	current := sessionFrom(r)
	out, err := h.deps.Auth.Logout(r.Context(), current.Token)
	if err != nil {
		if errors.Is(err, session.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		auditReq(h.deps.Audit, r, current.Username, audit.ActionLogout, "", audit.OutcomeError, current.ID, err.Error())
		writeStoreError(w, err, "logout failed")
		return
	}
	if h.deps.Companion != nil {
		h.deps.Companion.Forget(current.ID)
	}
	auditReq(h.deps.Audit, r, current.Username, audit.ActionLogout, "", audit.OutcomeSuccess, current.ID, "")
	writeJSON(w, http.StatusOK, map[string]any{"session": out.View()})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).View())
}
