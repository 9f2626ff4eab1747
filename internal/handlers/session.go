package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/jardindethes/storefront-api/internal/domain"
	"github.com/jardindethes/storefront-api/internal/platform/httpx"
)

// SessionService drives login/logout transitions and point updates.
type SessionService interface {
	Login(ctx context.Context, sessionID, clientID string, points int) (domain.Session, error)
	Logout(ctx context.Context, sessionID string) error
	SetPoints(ctx context.Context, sessionID string, points int) (domain.Session, error)
	Session(sessionID string) domain.Session
}

// SessionHandlers exposes the session lifecycle endpoints.
type SessionHandlers struct {
	sessions SessionService
}

// NewSessionHandlers constructs the session handlers.
func NewSessionHandlers(sessions SessionService) *SessionHandlers {
	return &SessionHandlers{sessions: sessions}
}

// Routes wires the /session endpoints onto the provided router.
func (h *SessionHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getSession)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Put("/points", h.setPoints)
}

type sessionView struct {
	ClientID      string `json:"client_id,omitempty"`
	Authenticated bool   `json:"authenticated"`
	LoyaltyPoints int    `json:"loyalty_points"`
}

func buildSessionView(session domain.Session) sessionView {
	return sessionView{
		ClientID:      session.ClientID,
		Authenticated: session.Authenticated,
		LoyaltyPoints: session.LoyaltyPoints,
	}
}

func (h *SessionHandlers) getSession(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Session(sessionID(r))
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"session": buildSessionView(session)})
}

func (h *SessionHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		ClientID string `json:"client_id"`
		Points   int    `json:"points"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(body.ClientID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "client_id is required", http.StatusBadRequest))
		return
	}

	session, err := h.sessions.Login(ctx, sessionID(r), body.ClientID, body.Points)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"session": buildSessionView(session)})
}

func (h *SessionHandlers) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.sessions.Logout(ctx, sessionID(r)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"session": buildSessionView(domain.Session{})})
}

func (h *SessionHandlers) setPoints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		Points int `json:"points"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	session, err := h.sessions.SetPoints(ctx, sessionID(r), body.Points)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"session": buildSessionView(session)})
}
