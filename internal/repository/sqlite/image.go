package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/quill/internal/domain"
)

// articleImageRepo implements domain.ArticleImageRepository using SQLite.
type articleImageRepo struct {
	db *sql.DB
}

func (r *articleImageRepo) Create(ctx context.Context, image *domain.ArticleImage) error {
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO article_images (id, article_id, filename, content_type, size, storage_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, image.ArticleID, image.Filename, image.ContentType, image.Size, image.StorageKey, now,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert article image: %w", err)
	}

	image.ID = id
	image.CreatedAt = now
	return nil
}

func (r *articleImageRepo) GetByID(ctx context.Context, id string) (*domain.ArticleImage, error) {
	img := &domain.ArticleImage{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, article_id, filename, content_type, size, storage_key, created_at
		 FROM article_images WHERE id = ?`, id,
	).Scan(&img.ID, &img.ArticleID, &img.Filename, &img.ContentType, &img.Size, &img.StorageKey, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get article image: %w", err)
	}
	return img, nil
}

func (r *articleImageRepo) ListByArticle(ctx context.Context, articleID string) ([]domain.ArticleImage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, article_id, filename, content_type, size, storage_key, created_at
		 FROM article_images WHERE article_id = ? ORDER BY created_at, rowid`, articleID)
	if err != nil {
		return nil, fmt.Errorf("list article images: %w", err)
	}
	defer rows.Close()

	images := []domain.ArticleImage{}
	for rows.Next() {
		var img domain.ArticleImage
		if err := rows.Scan(&img.ID, &img.ArticleID, &img.Filename, &img.ContentType, &img.Size, &img.StorageKey, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan article image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *articleImageRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM article_images WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete article image: %w", err)
	}
	return nil
}
