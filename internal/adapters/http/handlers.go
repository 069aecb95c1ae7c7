package http

import (
	"net/http"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.readyFn != nil {
		if err := h.readyFn(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "NOT_READY", "dependencies unavailable")
			return
		}
	}
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		writeMissingPrincipalError(r.Context(), w, "me")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"user_id":     principal.Identity.UserID,
		"email":       principal.Identity.Email,
		"auth_method": principal.Method,
	})
}
