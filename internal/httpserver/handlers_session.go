package httpserver

import (
	"context"
	"errors"
	"net/http"

	"mindwell/wellbeing-platform/internal/assessment"
	"mindwell/wellbeing-platform/internal/companion"
	"mindwell/wellbeing-platform/internal/journal"
	"mindwell/wellbeing-platform/internal/mood"
	"mindwell/wellbeing-platform/internal/resources"
	"mindwell/wellbeing-platform/internal/session"
)

type pageView struct {
	Page  session.Page `json:"page"`
	Title string       `json:"title"`
	Body  any          `json:"body"`
}

// currentSession returns the caller's Session and the rendered current page.
// Without an Authorization header the caller is anonymous and sees Home.
func (h *handler) currentSession(w http.ResponseWriter, r *http.Request) {
	s := session.Anonymous()
	if r.Header.Get("Authorization") != "" {
		if h.deps.Auth == nil {
			writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			return
		}
		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		if s, err = h.deps.Auth.Session(r.Context(), token); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
	}
	h.writeSessionPage(w, r, s)
}

func (h *handler) navigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page string `json:"page"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	page, err := session.ParsePage(req.Page)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown page")
		return
	}

	s, err := h.deps.Sessions.Navigate(r.Context(), sessionFrom(r).Token, page)
	if err != nil {
		h.writeTransitionError(w, err)
		return
	}
	h.writeSessionPage(w, r, s)
}

func (h *handler) backToHome(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.Sessions.BackToHome(r.Context(), sessionFrom(r).Token)
	if err != nil {
		h.writeTransitionError(w, err)
		return
	}
	h.writeSessionPage(w, r, s)
}

func (h *handler) writeTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "return to home before opening another page")
	case errors.Is(err, session.ErrUnknownPage):
		writeError(w, http.StatusBadRequest, "unknown page")
	case errors.Is(err, session.ErrInvalidToken), errors.Is(err, session.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "invalid token")
	default:
		writeStoreError(w, err, "update session failed")
	}
}

func (h *handler) writeSessionPage(w http.ResponseWriter, r *http.Request, s session.Session) {
	body, err := h.pages.Dispatch(s.CurrentPage)(r.Context(), s)
	if err != nil {
		writeStoreError(w, err, "render page failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": s.View(),
		"page": pageView{
			Page:  s.CurrentPage,
			Title: s.CurrentPage.Title(),
			Body:  body,
		},
	})
}

type featureLink struct {
	Page  session.Page `json:"page"`
	Title string       `json:"title"`
}

const screeningDisclaimer = "These are not diagnostic tools. They are meant to help you understand your feelings. Please consult a professional for a diagnosis."

const companionDisclaimer = "I am an AI and not a substitute for professional help. Please use the resources page if you are in crisis."

func (h *handler) newPageRouter() *session.Router {
	router := session.NewRouter(h.renderHome)
	router.Handle(session.Journal, h.renderJournal)
	router.Handle(session.Mood, h.renderMood)
	router.Handle(session.Screening, h.renderScreening)
	router.Handle(session.Connect, renderConnect)
	router.Handle(session.Companion, h.renderCompanion)
	router.Handle(session.Resources, renderResources)
	return router
}

func (h *handler) renderHome(_ context.Context, s session.Session) (any, error) {
	if !s.Authenticated {
		return map[string]any{
			"message": "Welcome to the Mental Well-being Platform",
			"hint":    "Please log in or sign up to access the platform's features.",
		}, nil
	}
	links := make([]featureLink, 0, len(session.Features))
	for _, p := range session.Features {
		links = append(links, featureLink{Page: p, Title: p.Title()})
	}
	return map[string]any{
		"message":  "Welcome, " + s.Username,
		"features": links,
	}, nil
}

func (h *handler) renderJournal(ctx context.Context, s session.Session) (any, error) {
	entries := []journal.Entry{}
	if h.deps.Journal != nil {
		var err error
		if entries, err = h.deps.Journal.List(ctx, s.UserID); err != nil {
			return nil, err
		}
	}
	return map[string]any{"entries": entries}, nil
}

func (h *handler) renderMood(ctx context.Context, s session.Session) (any, error) {
	history := []mood.Entry{}
	if h.deps.Mood != nil {
		var err error
		if history, err = h.deps.Mood.History(ctx, s.UserID); err != nil {
			return nil, err
		}
	}
	return map[string]any{
		"scale":   map[string]int{"min": mood.MinScore, "max": mood.MaxScore},
		"history": history,
	}, nil
}

func (h *handler) renderScreening(ctx context.Context, s session.Session) (any, error) {
	results := []assessment.Result{}
	if h.deps.Screening != nil {
		var err error
		if results, err = h.deps.Screening.History(ctx, s.UserID, ""); err != nil {
			return nil, err
		}
	}
	return map[string]any{
		"notice":      screeningDisclaimer,
		"instruments": questionnaires(),
		"results":     results,
	}, nil
}

func renderConnect(context.Context, session.Session) (any, error) {
	return map[string]any{
		"message": "Community posts are not available yet.",
	}, nil
}

func (h *handler) renderCompanion(_ context.Context, s session.Session) (any, error) {
	available := h.deps.Companion != nil && h.deps.Companion.Available()
	messages := []companion.Message{}
	if available {
		for _, m := range h.deps.Companion.History(s.ID) {
			if m.Role != "system" {
				messages = append(messages, m)
			}
		}
	}
	return map[string]any{
		"available":  available,
		"disclaimer": companionDisclaimer,
		"messages":   messages,
	}, nil
}

func renderResources(context.Context, session.Session) (any, error) {
	return resourcesBody(), nil
}

func resourcesBody() map[string]any {
	return map[string]any{
		"emergency": resources.EmergencyHelpline(),
		"articles":  resources.Articles(),
	}
}

func questionnaires() []assessment.Questionnaire {
	out := make([]assessment.Questionnaire, 0, len(assessment.Instruments))
	for _, inst := range assessment.Instruments {
		q, _ := assessment.Describe(inst)
		out = append(out, q)
	}
	return out
}

func (h *handler) resources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, resourcesBody())
}
