package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/quill/internal/handler"
	"github.com/msomdec/quill/internal/repository/sqlite"
	"github.com/msomdec/quill/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

type testApp struct {
	db       *sqlite.DB
	auth     *service.AuthService
	articles *service.ArticleService
	images   *service.ImageService
	carrier  handler.TokenCarrier
}

func newTestApp(t *testing.T, carrier handler.TokenCarrier) *testApp {
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

	tokens, err := service.NewTokenService(testJWTSecret)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return &testApp{
		db:       db,
		auth:     service.NewAuthService(db.Users(), tokens, service.BcryptHasher{Cost: 4}, time.Hour),
		articles: service.NewArticleService(db.Articles(), db.Users()),
		images:   service.NewImageService(db.Images(), db.FileStore(), db.Articles()),
		carrier:  carrier,
	}
}

func (a *testApp) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Deps{
		Auth:     a.auth,
		Articles: a.articles,
		Images:   a.images,
		Carrier:  a.carrier,
		DB:       a.db,
		Metrics:  handler.NewMetrics(),
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// register creates a user through the service and returns its ID and token.
func (a *testApp) register(t *testing.T, username, role string) (string, string) {
	t.Helper()
	res, err := a.auth.Register(context.Background(), service.RegisterInput{
		Name:     username,
		Email:    username + "@example.com",
		Password: "password123",
		Role:     role,
		Username: username,
	})
	if err != nil {
		t.Fatalf("Register %s: %v", username, err)
	}
	return res.User.ID, res.Token
}

// do sends a JSON request with an optional bearer token and decodes a JSON
// response into out when out is non-nil.
func do(t *testing.T, method, url, token string, body any, out any) int {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}
