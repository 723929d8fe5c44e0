package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/msomdec/quill/internal/domain"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 5 * 1024 * 1024 // 5MB

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ImageService stores article images and serves their bytes.
type ImageService struct {
	images   domain.ArticleImageRepository
	files    domain.FileStore
	articles domain.ArticleRepository
}

// NewImageService creates a new ImageService.
func NewImageService(images domain.ArticleImageRepository, files domain.FileStore, articles domain.ArticleRepository) *ImageService {
	return &ImageService{images: images, files: files, articles: articles}
}

// Upload validates and stores an image for an article owned by authorID,
// then points the article's image reference at it.
func (s *ImageService) Upload(ctx context.Context, authorID, articleID, filename, contentType string, data []byte) (*domain.ArticleImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image is empty", domain.ErrInvalidInput)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w: image exceeds 5MB limit", domain.ErrInvalidInput)
	}

	// Trust the bytes over the client-declared type.
	sniffed := http.DetectContentType(data)
	if !allowedImageTypes[sniffed] {
		return nil, fmt.Errorf("%w: only JPEG, PNG, GIF, and WebP images are accepted", domain.ErrInvalidInput)
	}
	if contentType != "" && contentType != sniffed && allowedImageTypes[contentType] {
		return nil, fmt.Errorf("%w: declared content type %s does not match image data", domain.ErrInvalidInput, contentType)
	}

	// Ownership check before writing anything.
	if err := s.articles.UpdateOwned(ctx, authorID, articleID, domain.ArticlePatch{}); err != nil {
		return nil, err
	}

	key, err := generateStorageKey()
	if err != nil {
		return nil, fmt.Errorf("generate storage key: %w", err)
	}
	if err := s.files.Save(ctx, key, data); err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}

	image := &domain.ArticleImage{
		ArticleID:   articleID,
		Filename:    filename,
		ContentType: sniffed,
		Size:        int64(len(data)),
		StorageKey:  key,
	}
	if err := s.images.Create(ctx, image); err != nil {
		s.discardBlob(ctx, key)
		return nil, fmt.Errorf("create image record: %w", err)
	}

	ref := ImageURL(image.ID)
	if err := s.articles.UpdateOwned(ctx, authorID, articleID, domain.ArticlePatch{Image: &ref}); err != nil {
		if derr := s.images.Delete(ctx, image.ID); derr != nil {
			slog.Error("discard image record", "error", derr, "image_id", image.ID)
		}
		s.discardBlob(ctx, key)
		return nil, fmt.Errorf("set article image: %w", err)
	}

	return image, nil
}

// GetFile returns the image bytes and content type. Images are public.
func (s *ImageService) GetFile(ctx context.Context, imageID string) ([]byte, string, error) {
	image, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return nil, "", err
	}

	data, err := s.files.Get(ctx, image.StorageKey)
	if err != nil {
		return nil, "", fmt.Errorf("get file: %w", err)
	}

	return data, image.ContentType, nil
}

// ListByArticle returns all images uploaded for an article, oldest first.
func (s *ImageService) ListByArticle(ctx context.Context, articleID string) ([]domain.ArticleImage, error) {
	if _, err := s.articles.GetByID(ctx, articleID); err != nil {
		return nil, err
	}
	return s.images.ListByArticle(ctx, articleID)
}

func (s *ImageService) discardBlob(ctx context.Context, key string) {
	if err := s.files.Delete(ctx, key); err != nil {
		slog.Error("discard image blob", "error", err, "storage_key", key)
	}
}

// ImageURL is the public path an image is served from.
func ImageURL(imageID string) string {
	return "/images/" + imageID
}

func generateStorageKey() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "article-images/" + hex.EncodeToString(b), nil
}
