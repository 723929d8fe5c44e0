package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// TokenCarrier moves identity tokens between client and server. A
// deployment uses exactly one carrier.
type TokenCarrier interface {
	// Extract returns the token presented by r, or "" if none.
	Extract(r *http.Request) string
	// Deliver hands a freshly issued token to the client.
	Deliver(w http.ResponseWriter, token string, ttl time.Duration)
	// Clear asks the client to forget its token.
	Clear(w http.ResponseWriter)
}

// NewTokenCarrier returns the carrier named by kind ("header" or "cookie").
func NewTokenCarrier(kind string, secureCookie bool) (TokenCarrier, error) {
	switch kind {
	case "", "header":
		return HeaderCarrier{}, nil
	case "cookie":
		return CookieCarrier{Name: "token", Secure: secureCookie}, nil
	}
	return nil, fmt.Errorf("unknown token carrier %q", kind)
}

// HeaderCarrier reads "Authorization: Bearer <token>". Tokens are delivered
// in the response body only.
type HeaderCarrier struct{}

func (HeaderCarrier) Extract(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (HeaderCarrier) Deliver(http.ResponseWriter, string, time.Duration) {}

func (HeaderCarrier) Clear(http.ResponseWriter) {}

// CookieCarrier keeps the token in an HttpOnly cookie.
type CookieCarrier struct {
	Name   string
	Secure bool
}

func (c CookieCarrier) Extract(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (c CookieCarrier) Deliver(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

func (c CookieCarrier) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
