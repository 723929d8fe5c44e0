package domain

import (
	"context"
	"time"
)

// ArticleImage holds metadata about an image uploaded for an article.
type ArticleImage struct {
	ID          string
	ArticleID   string
	Filename    string // Original upload filename
	ContentType string
	Size        int64
	StorageKey  string // Key used to retrieve bytes from FileStore
	CreatedAt   time.Time
}

// ArticleImageRepository handles image metadata persistence.
type ArticleImageRepository interface {
	Create(ctx context.Context, image *ArticleImage) error
	GetByID(ctx context.Context, id string) (*ArticleImage, error)
	ListByArticle(ctx context.Context, articleID string) ([]ArticleImage, error)
	Delete(ctx context.Context, id string) error
}

// FileStore abstracts raw file byte storage.
// The initial implementation stores BLOBs in SQLite.
type FileStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
