package handler

import (
	"net/http"

	"github.com/msomdec/quill/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth    *service.AuthService
	carrier TokenCarrier
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, carrier TokenCarrier) *AuthHandler {
	return &AuthHandler{auth: auth, carrier: carrier}
}

// HandleRegister processes a JSON registration request.
// POST /auth/register
// Request:  {"name":"...","email":"...","password":"...","role":"...","username":"..."}
// Response: {"message":"...","user":{...},"token":"..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		Username string `json:"username"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	res, err := h.auth.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Username: req.Username,
	})
	if err != nil {
		writeServiceError(w, "register user", err)
		return
	}

	h.carrier.Deliver(w, res.Token, h.auth.TokenTTL())
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    toUserDTO(res.User),
		"token":   res.Token,
	})
}

// HandleLogin processes a JSON login request. The identifier may be an
// email or a username; "email" is accepted as an alias.
// POST /auth/login
// Request:  {"emailOrUsername":"...","password":"..."}
// Response: {"message":"...","user":{...},"token":"..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmailOrUsername string `json:"emailOrUsername"`
		Email           string `json:"email"`
		Password        string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	identifier := req.EmailOrUsername
	if identifier == "" {
		identifier = req.Email
	}

	res, err := h.auth.Login(r.Context(), identifier, req.Password)
	if err != nil {
		writeServiceError(w, "login user", err)
		return
	}

	h.carrier.Deliver(w, res.Token, h.auth.TokenTTL())
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User logged in successfully",
		"user":    toUserDTO(res.User),
		"token":   res.Token,
	})
}

// HandleLogout clears the client's token where the carrier allows it.
// Tokens are not revoked server-side.
// POST /auth/logout
// Response: 204 No Content
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.carrier.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the currently authenticated user.
// GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	user, err := h.auth.GetUser(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, "get current user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleGetProfile returns the editable profile fields.
// GET /auth/profile
// Response: {"name":"...","username":"...","email":"..."}
func (h *AuthHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	user, err := h.auth.GetUser(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name":     user.Name,
		"username": user.Username,
		"email":    user.Email,
	})
}

// HandleUpdateProfile changes name, email, username or password. Omitted
// fields are left as they are.
// PUT /auth/profile
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Username *string `json:"username"`
		Password *string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), id.UserID, service.ProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    toUserDTO(user),
	})
}
