package handlers

import (
	"bytes"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/rogerio-castellano/storefront/internal/http/middleware"
	"github.com/rogerio-castellano/storefront/internal/storage"
)

// CreateSessionHandler godoc
// @Summary Hand a signed-in session to the storefront
// @Description Called by the login page. Stores the tokens for the visitor; every open tab picks the session up.
// @Tags session
// @Accept json
// @Produce json
// @Param session body SessionRequest true "Tokens and optional user record"
// @Success 204
// @Failure 400 {array} SessionValidationError
// @Failure 415 {string} string "content type must be application/json"
// @Failure 500 {string} string "failed to store session"
// @Router /session [post]
func CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	// Plain forms cannot send JSON cross-site without a preflight, so this
	// route needs no CSRF token.
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	var req SessionRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	if errs := validateSession(req, time.Now()); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	visitor := middleware.GetVisitor(r)
	ctx := r.Context()

	// The user record goes first so tabs reacting to the new token find it.
	var err error
	if user := bytes.TrimSpace(req.User); len(user) > 0 && !bytes.Equal(user, []byte("null")) {
		err = store.Set(ctx, visitor, storage.KeyUser, string(user))
	} else {
		err = store.Remove(ctx, visitor, storage.KeyUser)
	}
	if err == nil && req.RefreshToken != "" {
		err = store.Set(ctx, visitor, storage.KeyRefreshToken, req.RefreshToken)
	}
	if err == nil {
		err = store.Set(ctx, visitor, storage.KeyAccessToken, req.AccessToken)
	}
	if err != nil {
		slog.Error("failed to store session", "visitor", visitor, "error", err)
		http.Error(w, "failed to store session", http.StatusInternalServerError)
		return
	}

	slog.Info("session stored", "visitor", visitor)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSessionHandler godoc
// @Summary Clear the visitor's session
// @Tags session
// @Success 204
// @Failure 500 {string} string "failed to clear session"
// @Router /session [delete]
func DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	visitor := middleware.GetVisitor(r)
	if err := store.Remove(r.Context(), visitor, storage.SessionKeys...); err != nil {
		slog.Error("failed to clear session", "visitor", visitor, "error", err)
		http.Error(w, "failed to clear session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
