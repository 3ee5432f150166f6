package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Milbo-LLC/waybook-sub000/middleware"
	"github.com/Milbo-LLC/waybook-sub000/session"
	"github.com/Milbo-LLC/waybook-sub000/user"
	"github.com/google/uuid"
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionEvent struct {
	Email     string    `json:"email"`
	SessionID uuid.UUID `json:"session_id"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	registered, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := h.sessions.Create(r.Context(), registered.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.SetSessionCookie(w, sess)

	h.record(user.EventRegistered, uuid.Nil, registered.ID, sessionEvent{Email: registered.Email, SessionID: sess.ID})
	middleware.WriteJSON(w, http.StatusCreated, registered)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	found, err := h.users.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, user.ErrNotFound) {
		writeError(w, r, user.ErrInvalidCredentials)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.users.VerifyPassword(found.PasswordHash, req.Password); err != nil {
		writeError(w, r, user.ErrInvalidCredentials)
		return
	}

	sess, err := h.sessions.Create(r.Context(), found.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.SetSessionCookie(w, sess)

	h.record(user.EventLoggedIn, uuid.Nil, found.ID, sessionEvent{Email: found.Email, SessionID: sess.ID})
	middleware.WriteJSON(w, http.StatusOK, found)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			slog.Error("failed to delete session", "error", err)
		}
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
