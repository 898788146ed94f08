package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/service"
)

type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// HandleGet serves GET /api/profiles/{username}. Auth is optional.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profileEnvelope{Profile: newProfileJSON(p)})
}

// HandleFollow serves POST /api/profiles/{username}/follow.
func (h *ProfileHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Follow(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profileEnvelope{Profile: newProfileJSON(p)})
}

// HandleUnfollow serves DELETE /api/profiles/{username}/follow.
func (h *ProfileHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Unfollow(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profileEnvelope{Profile: newProfileJSON(p)})
}
