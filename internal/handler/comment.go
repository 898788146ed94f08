package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/service"
)

type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

// HandleList serves GET /api/articles/{slug}/comments.
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.comments.List(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	out := make([]commentJSON, len(views))
	for i := range views {
		out[i] = newCommentJSON(&views[i])
	}
	writeJSON(w, http.StatusOK, commentsEnvelope{Comments: out})
}

// HandleAdd serves POST /api/articles/{slug}/comments.
//
// REQUEST BODY: {"comment":{"body":"..."}}
func (h *CommentHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Comment service.AddCommentInput `json:"comment"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	v, err := h.comments.Add(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "slug"), req.Comment)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, commentEnvelope{Comment: newCommentJSON(v)})
}

// HandleDelete serves DELETE /api/articles/{slug}/comments/{id}.
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, h.logger, apperror.NotFound("comment", chi.URLParam(r, "id")))
		return
	}
	if err := h.comments.Delete(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "slug"), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
