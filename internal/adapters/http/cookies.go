package http

import (
	"net/http"
	"time"
)

const (
	defaultSessionCookieName = "sid"
	tokenCookieName          = "token"
)

// CookiePolicy controls how the opaque session id travels to the browser.
// The cookie is HttpOnly and SameSite=Strict unconditionally; Secure is
// relaxed only for local development over plain HTTP.
type CookiePolicy struct {
	Name   string
	Secure bool
}

func (p CookiePolicy) name() string {
	if p.Name == "" {
		return defaultSessionCookieName
	}
	return p.Name
}

func (p CookiePolicy) write(w http.ResponseWriter, sessionID string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.name(),
		Value:    sessionID,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clear overwrites the session cookie with an already-expired one so the
// browser drops a stale id instead of replaying it.
func (p CookiePolicy) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
