package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/msomdec/quill/internal/domain"
	"github.com/msomdec/quill/internal/service"
)

// Minimal PNG header; enough for content sniffing.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestImageService_Upload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin", domain.RoleAdmin)
	article := f.createArticle(t, admin.ID, "Pic")

	img, err := f.images.Upload(ctx, admin.ID, article.ID, "a.png", "image/png", pngBytes)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if img.ContentType != "image/png" {
		t.Fatalf("expected image/png, got %s", img.ContentType)
	}

	got, _ := f.articles.Get(ctx, article.ID)
	if got.Image != service.ImageURL(img.ID) {
		t.Fatalf("expected article image %s, got %s", service.ImageURL(img.ID), got.Image)
	}

	data, ct, err := f.images.GetFile(ctx, img.ID)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if ct != "image/png" || !bytes.Equal(data, pngBytes) {
		t.Fatalf("unexpected file: ct=%s len=%d", ct, len(data))
	}

	list, _ := f.images.ListByArticle(ctx, article.ID)
	if len(list) != 1 {
		t.Fatalf("expected 1 image, got %d", len(list))
	}
}

func TestImageService_ListByArticle_NotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.images.ListByArticle(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// failingImageRef lets the ownership check pass but fails when the
// article's image reference is written.
type failingImageRef struct {
	domain.ArticleRepository
}

func (r failingImageRef) UpdateOwned(ctx context.Context, authorID, id string, patch domain.ArticlePatch) error {
	if patch.Image != nil {
		return errors.New("write failed")
	}
	return r.ArticleRepository.UpdateOwned(ctx, authorID, id, patch)
}

func TestImageService_Upload_RollsBackOnArticleUpdateFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin", domain.RoleAdmin)
	article := f.createArticle(t, admin.ID, "Pic")

	images := service.NewImageService(f.db.Images(), f.db.FileStore(), failingImageRef{f.db.Articles()})
	if _, err := images.Upload(ctx, admin.ID, article.ID, "a.png", "image/png", pngBytes); err == nil {
		t.Fatal("expected upload to fail")
	}

	list, err := f.db.Images().ListByArticle(ctx, article.ID)
	if err != nil {
		t.Fatalf("ListByArticle: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected image record to be removed, got %d", len(list))
	}

	var blobs int
	if err := f.db.SqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM file_blobs").Scan(&blobs); err != nil {
		t.Fatalf("count blobs: %v", err)
	}
	if blobs != 0 {
		t.Fatalf("expected stored blob to be removed, got %d", blobs)
	}
}

func TestImageService_Upload_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin", domain.RoleAdmin)
	other := f.register(t, "other", domain.RoleAdmin)
	article := f.createArticle(t, admin.ID, "Pic")

	if _, err := f.images.Upload(ctx, admin.ID, article.ID, "a.txt", "text/plain", []byte("hello world")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for text, got %v", err)
	}

	big := make([]byte, service.MaxImageSize+1)
	copy(big, pngBytes)
	if _, err := f.images.Upload(ctx, admin.ID, article.ID, "big.png", "image/png", big); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversized image, got %v", err)
	}

	if _, err := f.images.Upload(ctx, admin.ID, article.ID, "a.png", "image/jpeg", pngBytes); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for mismatched type, got %v", err)
	}

	if _, err := f.images.Upload(ctx, other.ID, article.ID, "a.png", "image/png", pngBytes); !errors.Is(err, domain.ErrNotFoundOrForbidden) {
		t.Fatalf("expected ErrNotFoundOrForbidden, got %v", err)
	}
}

func TestImageService_GetFile_NotFound(t *testing.T) {
	f := newFixture(t)
	if _, _, err := f.images.GetFile(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
