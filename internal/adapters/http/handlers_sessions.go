package http

import (
	"net/http"

	"github.com/driftline/auth-service/internal/application"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		writeMissingPrincipalError(r.Context(), w, "list_sessions")
		return
	}
	items, err := h.service.ListSessions(r.Context(), principal.Identity.UserID, principal.SessionID)
	if err != nil {
		writeMappedError(r.Context(), w, "list_sessions", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"sessions": items})
}

func (h *Handler) revokeSession(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		writeMissingPrincipalError(r.Context(), w, "revoke_session")
		return
	}
	sessionID := chi.URLParam(r, "session_id")
	if err := h.service.RevokeSession(r.Context(), principal.Identity.UserID, sessionID); err != nil {
		writeMappedError(r.Context(), w, "revoke_session", err)
		return
	}
	writeMessage(w, http.StatusOK, "Session revoked successfully")
}

func (h *Handler) loginHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		writeMissingPrincipalError(r.Context(), w, "login_history")
		return
	}

	query := application.LoginHistoryQuery{
		Page:   parseIntDefault(r.URL.Query().Get("page"), 1),
		Limit:  parseIntDefault(r.URL.Query().Get("limit"), 20),
		Days:   parseIntDefault(r.URL.Query().Get("days"), 0),
		Status: r.URL.Query().Get("status"),
	}
	items, err := h.service.LoginHistory(r.Context(), principal.Identity.UserID, query)
	if err != nil {
		writeMappedError(r.Context(), w, "login_history", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"attempts": items})
}
