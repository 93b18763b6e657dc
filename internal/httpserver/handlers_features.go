package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mindwell/wellbeing-platform/internal/assessment"
	"mindwell/wellbeing-platform/internal/audit"
	"mindwell/wellbeing-platform/internal/companion"
	"mindwell/wellbeing-platform/internal/journal"
	"mindwell/wellbeing-platform/internal/mood"
)

func (h *handler) listInstruments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"notice":      screeningDisclaimer,
		"instruments": questionnaires(),
	})
}

func (h *handler) getInstrument(w http.ResponseWriter, r *http.Request) {
	inst, err := assessment.ParseInstrument(chi.URLParam(r, "instrument"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown instrument")
		return
	}
	q, err := assessment.Describe(inst)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown instrument")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *handler) submitScreening(w http.ResponseWriter, r *http.Request) {
	if h.deps.Screening == nil {
		writeError(w, http.StatusServiceUnavailable, "screening unavailable")
		return
	}
	inst, err := assessment.ParseInstrument(chi.URLParam(r, "instrument"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown instrument")
		return
	}
	var req struct {
		Responses []int `json:"responses"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s := sessionFrom(r)
	out, err := h.deps.Screening.Submit(r.Context(), s.UserID, inst, req.Responses)
	if err != nil {
		switch {
		case errors.Is(err, assessment.ErrMalformedResponse):
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s needs %d answers between 0 and %d", inst, inst.Length(), assessment.MaxItemScore))
		case errors.Is(err, assessment.ErrUnknownInstrument):
			writeError(w, http.StatusNotFound, "unknown instrument")
		default:
			auditReq(h.deps.Audit, r, s.Username, audit.ActionScreeningSubmit, string(inst), audit.OutcomeError, s.ID, err.Error())
			writeStoreError(w, err, "save screening result failed")
		}
		return
	}
	auditReq(h.deps.Audit, r, s.Username, audit.ActionScreeningSubmit, string(inst), audit.OutcomeSuccess, s.ID,
		fmt.Sprintf("escalation=%t", out.Escalation))
	writeJSON(w, http.StatusCreated, out)
}

func (h *handler) screeningResults(w http.ResponseWriter, r *http.Request) {
	if h.deps.Screening == nil {
		writeError(w, http.StatusServiceUnavailable, "screening unavailable")
		return
	}
	var inst assessment.Instrument
	if raw := r.URL.Query().Get("instrument"); raw != "" {
		var err error
		if inst, err = assessment.ParseInstrument(raw); err != nil {
			writeError(w, http.StatusBadRequest, "unknown instrument")
			return
		}
	}
	results, err := h.deps.Screening.History(r.Context(), sessionFrom(r).UserID, inst)
	if err != nil {
		writeStoreError(w, err, "load screening results failed")
		return
	}
	if results == nil {
		results = []assessment.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": results})
}

func (h *handler) listJournal(w http.ResponseWriter, r *http.Request) {
	if h.deps.Journal == nil {
		writeError(w, http.StatusServiceUnavailable, "journal unavailable")
		return
	}
	entries, err := h.deps.Journal.List(r.Context(), sessionFrom(r).UserID)
	if err != nil {
		writeStoreError(w, err, "load journal failed")
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

func (h *handler) addJournal(w http.ResponseWriter, r *http.Request) {
	if h.deps.Journal == nil {
		writeError(w, http.StatusServiceUnavailable, "journal unavailable")
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e, err := h.deps.Journal.Add(r.Context(), sessionFrom(r).UserID, req.Text)
	if err != nil {
		if errors.Is(err, journal.ErrEmptyEntry) {
			writeError(w, http.StatusBadRequest, "entry text is required")
			return
		}
		writeStoreError(w, err, "save journal entry failed")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *handler) moodHistory(w http.ResponseWriter, r *http.Request) {
	if h.deps.Mood == nil {
		writeError(w, http.StatusServiceUnavailable, "mood tracker unavailable")
		return
	}
	history, err := h.deps.Mood.History(r.Context(), sessionFrom(r).UserID)
	if err != nil {
		writeStoreError(w, err, "load mood history failed")
		return
	}
	if history == nil {
		history = []mood.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": history})
}

func (h *handler) logMood(w http.ResponseWriter, r *http.Request) {
	if h.deps.Mood == nil {
		writeError(w, http.StatusServiceUnavailable, "mood tracker unavailable")
		return
	}
	var req struct {
		Score int    `json:"score"`
		Notes string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e, err := h.deps.Mood.Log(r.Context(), sessionFrom(r).UserID, req.Score, req.Notes)
	if err != nil {
		if errors.Is(err, mood.ErrInvalidScore) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeStoreError(w, err, "save mood entry failed")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

const companionFailure = "Sorry, I encountered an error. Please try again."

// companionMessage streams the model's answer as plain text. Once the first
// chunk is written the status is committed, so a later failure is reported
// inline.
func (h *handler) companionMessage(w http.ResponseWriter, r *http.Request) {
	if h.deps.Companion == nil || !h.deps.Companion.Available() {
		writeError(w, http.StatusServiceUnavailable, "companion is not configured")
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rc := http.NewResponseController(w)
	started := false
	_, err := h.deps.Companion.Reply(r.Context(), sessionFrom(r).ID, req.Message, func(chunk string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		_ = rc.Flush()
		return nil
	})
	if err == nil {
		if !started {
			w.WriteHeader(http.StatusNoContent)
		}
		return
	}

	if started {
		_, _ = io.WriteString(w, "\n"+companionFailure)
		_ = rc.Flush()
		return
	}
	switch {
	case errors.Is(err, companion.ErrEmptyPrompt):
		writeError(w, http.StatusBadRequest, "message is required")
	case errors.Is(err, companion.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "companion is not configured")
	default:
		h.deps.Logger.Warn("companion reply failed", "error", err)
		writeError(w, http.StatusBadGateway, companionFailure)
	}
}
