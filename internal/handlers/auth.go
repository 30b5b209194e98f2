package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/soliton-oj/adminserver/internal/services"
	"github.com/soliton-oj/adminserver/types"
)

// AuthHandler provides session endpoints and admin registration.
type AuthHandler struct {
	authService  *services.AuthService
	adminService *services.AdminService
	cookieName   string
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, adminService *services.AdminService, cookieName string) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		adminService: adminService,
		cookieName:   cookieName,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService, adminService *services.AdminService, cookieName string) {
	handler := NewAuthHandler(authService, adminService, cookieName)
	requireAuth := RequireAuth(authService, cookieName)

	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.With(requireAuth).Post("/register", handler.Register)
	r.With(requireAuth).Get("/me", handler.Me)
}

// RequireAuth verifies the session token carried by the Authorization
// header or the session cookie and injects the session into the context.
func RequireAuth(authService *services.AuthService, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := sessionToken(r, cookieName)
			if err != nil {
				writeError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			session, err := authService.Authenticate(tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
		})
	}
}

// Login verifies credentials, sets the session cookie and returns the token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnauthorized, msgInvalidLogin)
		return
	}

	session, token, err := h.authService.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, "login", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Session: session})
}

// Logout clears the session cookie. Tokens are stateless, so a copy held
// elsewhere stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// Me returns the current session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Register creates a new admin on behalf of the signed-in admin.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var req types.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	profile, err := h.adminService.Register(r.Context(), session, req)
	if err != nil {
		writeServiceError(w, r, "register admin", err)
		return
	}

	writeJSON(w, http.StatusCreated, profile)
}

type LoginResponse struct {
	Token   string        `json:"token"`
	Session types.Session `json:"session"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// sessionToken prefers the Authorization header and falls back to the
// session cookie.
func sessionToken(r *http.Request, cookieName string) (string, error) {
	if auth := strings.TrimSpace(r.Header.Get("Authorization")); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", errors.New("invalid authorization")
		}
		token := strings.TrimSpace(parts[1])
		if token == "" {
			return "", errors.New("invalid authorization")
		}
		return token, nil
	}

	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil && strings.TrimSpace(cookie.Value) != "" {
			return strings.TrimSpace(cookie.Value), nil
		}
	}
	return "", errors.New("missing session token")
}
