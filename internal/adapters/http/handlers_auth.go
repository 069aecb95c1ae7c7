package http

import (
	"net/http"

	"github.com/driftline/auth-service/internal/application"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req application.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "register", err)
		return
	}

	res, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "register", err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req application.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "login", err)
		return
	}
	req.PresentedSessionID = sessionIDFromCookie(r, h.cookies.name())
	req.IPAddress = readIP(r)
	req.UserAgent = r.UserAgent()

	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "login", err)
		return
	}

	// The fresh session id replaces whatever cookie the client presented.
	h.cookies.write(w, res.SessionID, res.SessionExpiresAt)
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromCookie(r, h.cookies.name())
	if err := h.service.Logout(r.Context(), sessionID); err != nil {
		writeMappedError(r.Context(), w, "logout", err)
		return
	}
	h.cookies.clear(w)
	w.WriteHeader(http.StatusNoContent)
}
