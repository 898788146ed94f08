package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/repository"
	"github.com/sakif/conduit/internal/service"
)

type ArticleHandler struct {
	articles *service.ArticleService
	logger   *slog.Logger
}

func NewArticleHandler(articles *service.ArticleService, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{articles: articles, logger: logger}
}

// pageParams reads limit and offset. Range clamping happens in the
// repository layer.
func pageParams(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// HandleList serves GET /api/articles.
//
// Query parameters: tag, author, favorited (a username), limit, offset.
// All filters are optional and combine with AND.
func (h *ArticleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	query := repository.ArticleQuery{
		Tag:         q.Get("tag"),
		Author:      q.Get("author"),
		FavoritedBy: q.Get("favorited"),
		Limit:       limit,
		Offset:      offset,
	}

	views, err := h.articles.List(r.Context(), auth.ViewerID(r.Context()), query)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newArticlesEnvelope(views))
}

// HandleFeed serves GET /api/articles/feed (requires auth).
func (h *ArticleHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	views, err := h.articles.Feed(r.Context(), auth.ViewerID(r.Context()), limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newArticlesEnvelope(views))
}

// HandleGet serves GET /api/articles/{slug}.
func (h *ArticleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, err := h.articles.Get(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, articleEnvelope{Article: newArticleJSON(v)})
}

// HandleCreate serves POST /api/articles.
//
// REQUEST BODY:
//
//	{"article":{"title":"...","description":"...","body":"...","tagList":["go"]}}
func (h *ArticleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Article service.CreateArticleInput `json:"article"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	v, err := h.articles.Create(r.Context(), auth.ViewerID(r.Context()), req.Article)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, articleEnvelope{Article: newArticleJSON(v)})
}

// HandleUpdate serves PUT /api/articles/{slug}. Only the author may call it.
func (h *ArticleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Article service.UpdateArticleInput `json:"article"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	v, err := h.articles.Update(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "slug"), req.Article)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, articleEnvelope{Article: newArticleJSON(v)})
}

// HandleDelete serves DELETE /api/articles/{slug}. Only the author may call it.
func (h *ArticleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.articles.Delete(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "slug")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFavorite serves POST /api/articles/{slug}/favorite.
func (h *ArticleHandler) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	v, err := h.articles.Favorite(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, articleEnvelope{Article: newArticleJSON(v)})
}

// HandleUnfavorite serves DELETE /api/articles/{slug}/favorite.
func (h *ArticleHandler) HandleUnfavorite(w http.ResponseWriter, r *http.Request) {
	v, err := h.articles.Unfavorite(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, articleEnvelope{Article: newArticleJSON(v)})
}
