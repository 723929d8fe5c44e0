package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/quill/internal/domain"
	"github.com/msomdec/quill/internal/repository/sqlite"
	"github.com/msomdec/quill/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestTokens(t *testing.T) *service.TokenService {
	t.Helper()
	tokens, err := service.NewTokenService(testJWTSecret)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return tokens
}

func newTestAuthService(t *testing.T) (*service.AuthService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	// Use cost 4 for fast tests.
	auth := service.NewAuthService(db.Users(), newTestTokens(t), service.BcryptHasher{Cost: 4}, time.Hour)
	return auth, db
}

type fixture struct {
	db       *sqlite.DB
	auth     *service.AuthService
	articles *service.ArticleService
	images   *service.ImageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	auth, db := newTestAuthService(t)
	return &fixture{
		db:       db,
		auth:     auth,
		articles: service.NewArticleService(db.Articles(), db.Users()),
		images:   service.NewImageService(db.Images(), db.FileStore(), db.Articles()),
	}
}

func (f *fixture) register(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	res, err := f.auth.Register(context.Background(), service.RegisterInput{
		Name:     username,
		Email:    username + "@example.com",
		Password: "password123",
		Role:     string(role),
		Username: username,
	})
	if err != nil {
		t.Fatalf("Register %s: %v", username, err)
	}
	return res.User
}

func (f *fixture) createArticle(t *testing.T, authorID, title string) *domain.Article {
	t.Helper()
	a, err := f.articles.Create(context.Background(), authorID, service.ArticleInput{
		Title:    title,
		Content:  "body of " + title,
		Category: "general",
		Tags:     []string{"go"},
	})
	if err != nil {
		t.Fatalf("Create article %s: %v", title, err)
	}
	return a
}
