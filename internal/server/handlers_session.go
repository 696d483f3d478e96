package server

import (
	"net/http"

	"github.com/bobmcallan/finboard/internal/models"
	"github.com/bobmcallan/finboard/internal/session"
)

// session resolves the caller's session from its cookie, creating one when the
// request carries none or an unknown ID. The cookie is re-issued on every request
// so its lifetime slides with the server-side idle expiry.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	id := ""
	if c, err := r.Cookie(session.CookieName); err == nil {
		id = c.Value
	}

	sess, _ := s.app.Sessions.GetOrCreate(id)
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.app.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.app.Config.Session.GetTTL().Seconds()),
	})
	return sess
}

// handleSession handles GET /api/session.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	sess := s.session(w, r)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"id":        sess.ID,
		"roster":    sess.Entries(),
		"selection": sess.Selection(),
	})
}

type rosterEntryRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Age       int    `json:"age"`
}

// handleRoster handles GET and POST /api/session/roster.
func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	sess := s.session(w, r)

	if r.Method == http.MethodGet {
		WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": sess.Entries()})
		return
	}

	var req rosterEntryRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	entry := models.RosterEntry{FirstName: req.FirstName, LastName: req.LastName, Age: req.Age}
	if err := sess.AddEntry(entry); err != nil {
		WriteError(w, statusFor(err, http.StatusInternalServerError), err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]interface{}{"entries": sess.Entries()})
}
