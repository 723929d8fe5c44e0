package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "Draft"
	StatusPublished ArticleStatus = "Published"
)

// ParseStatus normalizes s case-insensitively. An empty string yields Draft.
func ParseStatus(s string) (ArticleStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "draft":
		return StatusDraft, nil
	case "published":
		return StatusPublished, nil
	}
	return "", fmt.Errorf("%w: status must be Draft or Published", ErrInvalidInput)
}

// Toggled returns the other status.
func (s ArticleStatus) Toggled() ArticleStatus {
	if s == StatusPublished {
		return StatusDraft
	}
	return StatusPublished
}

// Author is the public projection of an article's author.
type Author struct {
	ID       string
	Name     string
	Username string
	Email    string
}

type Article struct {
	ID           string
	AuthorID     string
	Author       *Author // populated on reads when the author row exists
	Title        string
	Content      string
	Category     string
	Tags         []string
	Image        string
	Status       ArticleStatus
	Comments     []Comment
	Bookmarks    []string // User IDs
	ReadHistory  []ReadEntry
	CommentCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Comment struct {
	ID        string
	ArticleID string
	UserID    string
	Username  string
	Content   string
	CreatedAt time.Time
}

// AuthorComment is a comment on one of an author's articles, as listed for
// moderation.
type AuthorComment struct {
	Comment
	ArticleTitle string
}

type ReadEntry struct {
	UserID string
	ReadAt time.Time
}

// ArticlePatch carries the mutable fields of an edit. Nil fields are left
// unchanged.
type ArticlePatch struct {
	Title    *string
	Content  *string
	Category *string
	Tags     *[]string
	Image    *string
	Status   *ArticleStatus
}

// IsEmpty reports whether the patch changes nothing.
func (p ArticlePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Category == nil &&
		p.Tags == nil && p.Image == nil && p.Status == nil
}

// ArticleFilter narrows article listings. Zero values match everything.
type ArticleFilter struct {
	AuthorID string
	Category string
	Tag      string
	Status   ArticleStatus
	Limit    int
	Offset   int
}

// ArticleRepository defines persistence operations for articles and the
// records embedded in them. Methods suffixed Owned filter by both id and
// author and return ErrNotFoundOrForbidden when no row matches.
type ArticleRepository interface {
	Create(ctx context.Context, article *Article) error
	GetByID(ctx context.Context, id string) (*Article, error)
	List(ctx context.Context, filter ArticleFilter) ([]Article, error)
	Count(ctx context.Context, filter ArticleFilter) (int, error)
	UpdateOwned(ctx context.Context, authorID, id string, patch ArticlePatch) error
	DeleteOwned(ctx context.Context, authorID, id string) error
	ToggleStatusOwned(ctx context.Context, authorID, id string) error

	AddComment(ctx context.Context, comment *Comment) error
	DeleteOwnedComment(ctx context.Context, authorID, commentID string) error
	ListCommentsByAuthor(ctx context.Context, authorID string) ([]AuthorComment, error)

	// ToggleBookmark flips membership of userID in the article's bookmarks
	// and reports whether it is now present.
	ToggleBookmark(ctx context.Context, articleID, userID string) (bool, error)
	ListBookmarkedIDs(ctx context.Context, userID string) ([]string, error)
	ListFavourites(ctx context.Context, userID string) ([]Article, error)
	RecordRead(ctx context.Context, articleID, userID string) error
}
