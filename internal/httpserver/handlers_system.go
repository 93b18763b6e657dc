package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mindwell/wellbeing-platform/internal/audit"
	"mindwell/wellbeing-platform/internal/migrations"
	"mindwell/wellbeing-platform/internal/session"
)

func (h *handler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.deps.Auth.ListSessions(r.Context())
	items := make([]session.View, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, s.View())
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *handler) revokeSession(w http.ResponseWriter, r *http.Request) {
	actor := sessionFrom(r)
	id := chi.URLParam(r, "id")
	if err := h.deps.Auth.RevokeSession(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrInvalidToken) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		auditReq(h.deps.Audit, r, actor.Username, audit.ActionSessionRevoke, id, audit.OutcomeError, actor.ID, err.Error())
		writeStoreError(w, err, "revoke session failed")
		return
	}
	if h.deps.Companion != nil {
		h.deps.Companion.Forget(id)
	}
	auditReq(h.deps.Audit, r, actor.Username, audit.ActionSessionRevoke, id, audit.OutcomeSuccess, actor.ID, "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) migrationStatus(w http.ResponseWriter, r *http.Request) {
	if h.deps.Migrations == nil {
		writeError(w, http.StatusServiceUnavailable, "migrations are not available for this backend")
		return
	}
	items, err := h.deps.Migrations.Status(r.Context())
	if err != nil {
		writeStoreError(w, err, "load migration status failed")
		return
	}
	if items == nil {
		items = []migrations.Status{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
