package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/quill/internal/domain"
	"github.com/msomdec/quill/internal/service"
)

// ArticleHandler serves article, comment, bookmark and favourite routes.
type ArticleHandler struct {
	articles *service.ArticleService
}

// NewArticleHandler creates a new ArticleHandler.
func NewArticleHandler(articles *service.ArticleService) *ArticleHandler {
	return &ArticleHandler{articles: articles}
}

type articleRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Tags     Tags   `json:"tags"`
	Image    string `json:"image"`
	Status   string `json:"status"`
}

type articlePatchRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
	Tags     *Tags   `json:"tags"`
	Image    *string `json:"image"`
	Status   *string `json:"status"`
}

func (req articlePatchRequest) toPatch() (domain.ArticlePatch, error) {
	patch := domain.ArticlePatch{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Image:    req.Image,
	}
	if req.Tags != nil {
		tags := []string(*req.Tags)
		patch.Tags = &tags
	}
	if req.Status != nil {
		status, err := domain.ParseStatus(*req.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &status
	}
	return patch, nil
}

// HandleList returns every article, optionally filtered by the category,
// tag, status and author query parameters.
// GET /blogs
func (h *ArticleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ArticleFilter{
		AuthorID: q.Get("author"),
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
	}
	if s := q.Get("status"); s != "" {
		status, err := domain.ParseStatus(s)
		if err != nil {
			writeServiceError(w, "list articles", err)
			return
		}
		filter.Status = status
	}

	articles, err := h.articles.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, "list articles", err)
		return
	}
	if len(articles) == 0 {
		writeError(w, http.StatusNotFound, "No blogs found.")
		return
	}
	writeJSON(w, http.StatusOK, toArticleDTOs(articles))
}

// HandleGet returns one article with its comments. An authenticated
// caller's visit is appended to the read history.
// GET /blogs/{id}
func (h *ArticleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	articleID := r.PathValue("id")

	if id, ok := IdentityFromContext(r.Context()); ok {
		if err := h.articles.RecordRead(r.Context(), id.UserID, articleID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			slog.Error("record read", "error", err, "article_id", articleID)
		}
	}

	article, err := h.articles.Get(r.Context(), articleID)
	if err != nil {
		writeServiceError(w, "get article", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blog": toArticleDetailDTO(article)})
}

// HandleGetAuthor returns an author's public card.
// GET /blogs/authors/{id}
func (h *ArticleHandler) HandleGetAuthor(w http.ResponseWriter, r *http.Request) {
	author, err := h.articles.GetAuthor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "get author", err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthorDTO(author))
}

// HandleListOwn returns a page of the caller's own articles.
// GET /blogs/admin?page=1&limit=10
func (h *ArticleHandler) HandleListOwn(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.articles.ListByAuthor(r.Context(), id.UserID, page, limit)
	if err != nil {
		writeServiceError(w, "list own articles", err)
		return
	}
	writeJSON(w, http.StatusOK, toArticlePageDTO(result))
}

// HandleCreate creates an article authored by the caller.
// POST /blogs
func (h *ArticleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req articleRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	article, err := h.articles.Create(r.Context(), id.UserID, service.ArticleInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
		Image:    req.Image,
		Status:   req.Status,
	})
	if err != nil {
		writeServiceError(w, "create article", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Blog created successfully",
		"blog":    toArticleDetailDTO(article),
	})
}

// HandleUpdate edits an article owned by the caller.
// PUT /blogs/{id}
func (h *ArticleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req articlePatchRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeServiceError(w, "update article", err)
		return
	}

	article, err := h.articles.Edit(r.Context(), id.UserID, r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, "update article", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Blog updated successfully",
		"blog":    toArticleDetailDTO(article),
	})
}

// HandleDelete deletes an article owned by the caller.
// DELETE /blogs/{id}
func (h *ArticleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	if err := h.articles.Delete(r.Context(), id.UserID, r.PathValue("id")); err != nil {
		writeServiceError(w, "delete article", err)
		return
	}
	writeMessage(w, http.StatusOK, "Blog deleted successfully")
}

// HandleToggleStatus flips an owned article between Draft and Published.
// PATCH /blogs/{id}/status
func (h *ArticleHandler) HandleToggleStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	article, err := h.articles.ToggleStatus(r.Context(), id.UserID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "toggle article status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Blog status updated to " + string(article.Status),
		"blog":    toArticleDetailDTO(article),
	})
}

// HandleAddComment posts a comment on an article.
// POST /blogs/{id}/comments
// Request: {"content":"..."}
func (h *ArticleHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req struct {
		Content string `json:"content"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	comment, err := h.articles.AddComment(r.Context(), id.UserID, r.PathValue("id"), req.Content)
	if err != nil {
		writeServiceError(w, "add comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Comment added successfully",
		"comment": toCommentDTO(*comment),
	})
}

// HandleListAuthorComments lists comments across the caller's articles.
// GET /blogs/comments/{adminId}
func (h *ArticleHandler) HandleListAuthorComments(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	comments, err := h.articles.ListAuthorComments(r.Context(), id.UserID, r.PathValue("adminId"))
	if err != nil {
		writeServiceError(w, "list author comments", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": toAuthorCommentDTOs(comments)})
}

// HandleDeleteComment removes a comment from one of the caller's articles.
// The adminId path segment must name the caller.
// DELETE /blogs/comments/{adminId}/{commentId}
func (h *ArticleHandler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	if r.PathValue("adminId") != id.UserID {
		writeServiceError(w, "delete comment", domain.ErrNotFoundOrForbidden)
		return
	}
	if err := h.articles.DeleteComment(r.Context(), id.UserID, r.PathValue("commentId")); err != nil {
		writeServiceError(w, "delete comment", err)
		return
	}
	writeMessage(w, http.StatusOK, "Comment deleted successfully")
}

// HandleToggleBookmark adds or removes the caller's bookmark.
// POST /blogs/{id}/bookmark
func (h *ArticleHandler) HandleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	added, err := h.articles.ToggleBookmark(r.Context(), id.UserID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "toggle bookmark", err)
		return
	}
	msg := "Bookmark removed"
	if added {
		msg = "Bookmark added"
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "bookmarked": added})
}

// HandleListBookmarks returns the IDs of articles the caller bookmarked.
// GET /blogs/bookmarks
func (h *ArticleHandler) HandleListBookmarks(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	ids, err := h.articles.ListBookmarks(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, "list bookmarks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookmarks": ids})
}

// HandleToggleFavourite adds or removes an article from the caller's
// favourites.
// POST /blogs/{id}/favourite
func (h *ArticleHandler) HandleToggleFavourite(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	added, err := h.articles.ToggleFavourite(r.Context(), id.UserID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "toggle favourite", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Favourite status updated", "favourited": added})
}

// HandleListFavourites returns the caller's favourite articles.
// GET /blogs/user/favourites
func (h *ArticleHandler) HandleListFavourites(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	articles, err := h.articles.ListFavourites(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, "list favourites", err)
		return
	}
	writeJSON(w, http.StatusOK, toArticleDTOs(articles))
}
