package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/msomdec/quill/internal/domain"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ArticleService enforces article ownership and manages comments,
// bookmarks, favourites and read history.
type ArticleService struct {
	articles domain.ArticleRepository
	users    domain.UserRepository
}

// NewArticleService creates a new ArticleService.
func NewArticleService(articles domain.ArticleRepository, users domain.UserRepository) *ArticleService {
	return &ArticleService{articles: articles, users: users}
}

// ArticleInput holds the fields supplied when creating an article.
type ArticleInput struct {
	Title    string
	Content  string
	Category string
	Tags     []string
	Image    string
	Status   string
}

// ArticlePage is one page of an author's articles.
type ArticlePage struct {
	Articles []domain.Article
	Total    int
	Page     int
	Pages    int
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Create stores a new article owned by authorID and appends it to the
// author's article list.
func (s *ArticleService) Create(ctx context.Context, authorID string, in ArticleInput) (*domain.Article, error) {
	title := strings.TrimSpace(in.Title)
	category := strings.TrimSpace(in.Category)
	if title == "" || strings.TrimSpace(in.Content) == "" || category == "" {
		return nil, fmt.Errorf("%w: title, content, and category are required", domain.ErrInvalidInput)
	}

	status, err := domain.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	article := &domain.Article{
		AuthorID: authorID,
		Title:    title,
		Content:  in.Content,
		Category: category,
		Tags:     cleanTags(in.Tags),
		Image:    in.Image,
		Status:   status,
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}

	// The backlink is a separate write; readers tolerate it lagging.
	if err := s.users.AddOwnedArticle(ctx, authorID, article.ID); err != nil {
		slog.Error("add owned article", "error", err, "user_id", authorID, "article_id", article.ID)
	}

	return s.articles.GetByID(ctx, article.ID)
}

// Edit applies patch to an article owned by authorID.
func (s *ArticleService) Edit(ctx context.Context, authorID, articleID string, patch domain.ArticlePatch) (*domain.Article, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", domain.ErrInvalidInput)
		}
		patch.Title = &title
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return nil, fmt.Errorf("%w: content must not be empty", domain.ErrInvalidInput)
	}
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		if category == "" {
			return nil, fmt.Errorf("%w: category must not be empty", domain.ErrInvalidInput)
		}
		patch.Category = &category
	}
	if patch.Tags != nil {
		tags := cleanTags(*patch.Tags)
		patch.Tags = &tags
	}

	if err := s.articles.UpdateOwned(ctx, authorID, articleID, patch); err != nil {
		return nil, err
	}
	return s.articles.GetByID(ctx, articleID)
}

// Delete removes an article owned by authorID and drops it from the
// author's article list.
func (s *ArticleService) Delete(ctx context.Context, authorID, articleID string) error {
	if err := s.articles.DeleteOwned(ctx, authorID, articleID); err != nil {
		return err
	}
	if err := s.users.RemoveOwnedArticle(ctx, authorID, articleID); err != nil {
		slog.Error("remove owned article", "error", err, "user_id", authorID, "article_id", articleID)
	}
	return nil
}

// ToggleStatus flips an owned article between Draft and Published.
func (s *ArticleService) ToggleStatus(ctx context.Context, authorID, articleID string) (*domain.Article, error) {
	if err := s.articles.ToggleStatusOwned(ctx, authorID, articleID); err != nil {
		return nil, err
	}
	return s.articles.GetByID(ctx, articleID)
}

// Get returns a single article with its comments and engagement.
func (s *ArticleService) Get(ctx context.Context, articleID string) (*domain.Article, error) {
	return s.articles.GetByID(ctx, articleID)
}

// List returns every article matching filter, newest first.
func (s *ArticleService) List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	return s.articles.List(ctx, filter)
}

// ListByAuthor returns one page of authorID's articles. Page numbers start
// at 1; out-of-range values are clamped.
func (s *ArticleService) ListByAuthor(ctx context.Context, authorID string, page, limit int) (*ArticlePage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	page = max(page, 1)

	filter := domain.ArticleFilter{AuthorID: authorID}
	total, err := s.articles.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	filter.Limit = limit
	filter.Offset = (page - 1) * limit
	articles, err := s.articles.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ArticlePage{
		Articles: articles,
		Total:    total,
		Page:     page,
		Pages:    (total + limit - 1) / limit,
	}, nil
}

// AddComment attaches a comment by readerID to an article.
func (s *ArticleService) AddComment(ctx context.Context, readerID, articleID, text string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", domain.ErrInvalidInput)
	}

	comment := &domain.Comment{ArticleID: articleID, UserID: readerID, Content: text}
	if err := s.articles.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	if reader, err := s.users.GetByID(ctx, readerID); err == nil {
		comment.Username = reader.Username
	}
	return comment, nil
}

// DeleteComment removes a comment on one of authorID's articles.
func (s *ArticleService) DeleteComment(ctx context.Context, authorID, commentID string) error {
	return s.articles.DeleteOwnedComment(ctx, authorID, commentID)
}

// ListAuthorComments returns comments across adminID's articles. Only the
// admin themself may list them.
func (s *ArticleService) ListAuthorComments(ctx context.Context, actorID, adminID string) ([]domain.AuthorComment, error) {
	if actorID != adminID {
		return nil, domain.ErrNotFoundOrForbidden
	}
	return s.articles.ListCommentsByAuthor(ctx, adminID)
}

// ToggleBookmark flips userID's bookmark on an article and reports whether
// it is now bookmarked.
func (s *ArticleService) ToggleBookmark(ctx context.Context, userID, articleID string) (bool, error) {
	return s.articles.ToggleBookmark(ctx, articleID, userID)
}

// ListBookmarks returns the IDs of articles userID has bookmarked.
func (s *ArticleService) ListBookmarks(ctx context.Context, userID string) ([]string, error) {
	return s.articles.ListBookmarkedIDs(ctx, userID)
}

// ToggleFavourite flips an article in userID's favourites and reports
// whether it is now a favourite.
func (s *ArticleService) ToggleFavourite(ctx context.Context, userID, articleID string) (bool, error) {
	return s.users.ToggleFavourite(ctx, userID, articleID)
}

// ListFavourites returns userID's favourite articles.
func (s *ArticleService) ListFavourites(ctx context.Context, userID string) ([]domain.Article, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.articles.ListFavourites(ctx, userID)
}

// RecordRead appends a read-history entry for userID.
func (s *ArticleService) RecordRead(ctx context.Context, userID, articleID string) error {
	return s.articles.RecordRead(ctx, articleID, userID)
}

// GetAuthor returns the public author card for a user who has written at
// least one article or holds the Admin role.
func (s *ArticleService) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsAdmin() && len(user.Articles) == 0 {
		return nil, domain.ErrNotFound
	}
	return &domain.Author{ID: user.ID, Name: user.Name, Username: user.Username, Email: user.Email}, nil
}
