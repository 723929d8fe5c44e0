package handler

import (
	"net/http"

	"github.com/msomdec/quill/internal/service"
)

// Deps bundles what the routes need.
type Deps struct {
	Auth     *service.AuthService
	Articles *service.ArticleService
	Images   *service.ImageService
	Carrier  TokenCarrier
	DB       Pinger
	Metrics  *Metrics // optional; /metrics is not registered when nil
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	authH := NewAuthHandler(d.Auth, d.Carrier)
	articleH := NewArticleHandler(d.Articles)
	imageH := NewImageHandler(d.Images)

	authed := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(d.Auth, d.Carrier, h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(d.Auth, d.Carrier, RequireAdmin(h))
	}

	// Health and metrics.
	mux.Handle("GET /healthz", HandleHealthz(d.DB))
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	// Auth.
	mux.HandleFunc("POST /auth/register", authH.HandleRegister)
	mux.HandleFunc("POST /auth/login", authH.HandleLogin)
	mux.HandleFunc("POST /auth/logout", authH.HandleLogout)
	mux.Handle("GET /auth/me", authed(authH.HandleMe))
	mux.Handle("GET /auth/profile", authed(authH.HandleGetProfile))
	mux.Handle("PUT /auth/profile", authed(authH.HandleUpdateProfile))

	// Public reads.
	mux.HandleFunc("GET /blogs", articleH.HandleList)
	mux.Handle("GET /blogs/{id}", OptionalAuth(d.Auth, d.Carrier, http.HandlerFunc(articleH.HandleGet)))
	mux.HandleFunc("GET /blogs/authors/{id}", articleH.HandleGetAuthor)
	mux.HandleFunc("GET /blogs/images/{id}", imageH.HandleList)
	mux.HandleFunc("GET /images/{id}", imageH.HandleServe)

	// Authoring.
	mux.Handle("GET /blogs/admin", admin(articleH.HandleListOwn))
	mux.Handle("POST /blogs", admin(articleH.HandleCreate))
	mux.Handle("PUT /blogs/{id}", admin(articleH.HandleUpdate))
	mux.Handle("DELETE /blogs/{id}", admin(articleH.HandleDelete))
	mux.Handle("PATCH /blogs/{id}/status", admin(articleH.HandleToggleStatus))
	mux.Handle("POST /blogs/{id}/image", admin(imageH.HandleUpload))

	// Comments.
	mux.Handle("POST /blogs/{id}/comments", authed(articleH.HandleAddComment))
	mux.Handle("GET /blogs/comments/{adminId}", admin(articleH.HandleListAuthorComments))
	mux.Handle("DELETE /blogs/comments/{adminId}/{commentId}", admin(articleH.HandleDeleteComment))

	// Bookmarks and favourites.
	mux.Handle("POST /blogs/{id}/bookmark", authed(articleH.HandleToggleBookmark))
	mux.Handle("GET /blogs/bookmarks", authed(articleH.HandleListBookmarks))
	mux.Handle("POST /blogs/{id}/favourite", authed(articleH.HandleToggleFavourite))
	mux.Handle("GET /blogs/user/favourites", authed(articleH.HandleListFavourites))
}

// Wrap applies the standard middleware chain around the mux. Metrics, when
// present, sits innermost so it sees the matched route pattern.
func Wrap(mux *http.ServeMux, allowedOrigins []string, metrics *Metrics) http.Handler {
	var h http.Handler = mux
	if metrics != nil {
		h = metrics.Instrument(h)
	}
	h = CORS(allowedOrigins, h)
	h = SecurityHeaders(h)
	return RequestLogger(h)
}
