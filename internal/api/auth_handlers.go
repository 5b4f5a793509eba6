package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/fulfillment-event-driven/internal/api/middleware"
	"github.com/example/fulfillment-event-driven/internal/auth"
)

// AuthHandlers handles authentication-related HTTP requests. The API has a
// single operator credential configured through the environment; tokens carry
// the operator identity and role.
type AuthHandlers struct {
	jwtService       *auth.JWTService
	operatorUser     string
	operatorPassHash string
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(jwtService *auth.JWTService, operatorUser, operatorPassHash string) *AuthHandlers {
	return &AuthHandlers{
		jwtService:       jwtService,
		operatorUser:     operatorUser,
		operatorPassHash: operatorPassHash,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	Message string `json:"message,omitempty"`
}

// Login handles operator login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username != h.operatorUser || !auth.CheckPassword(req.Password, h.operatorPassHash) {
		respondJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	h.setAuthCookies(w, h.operatorUser, "admin", r)

	respondJSON(w, http.StatusOK, AuthResponse{
		UserID:  h.operatorUser,
		Role:    "admin",
		Message: "Login successful",
	})
}

// Logout handles operator logout
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookies(w)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Logout successful",
	})
}

// Refresh handles token refresh
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondJSONError(w, "No refresh token", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(refreshCookie.Value)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	// The refresh token only names the subject; it must still match the
	// configured credential.
	if userID != h.operatorUser {
		h.clearAuthCookies(w)
		respondJSONError(w, "Unknown subject", http.StatusUnauthorized)
		return
	}

	h.setAuthCookies(w, userID, "admin", r)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Token refreshed",
	})
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{
		UserID: claims.UserID,
		Role:   claims.Role,
	})
}

// Helper methods

func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, userID, role string, r *http.Request) {
	accessToken, accessExpiry, _ := h.jwtService.GenerateAccessToken(userID, role)
	refreshToken, refreshExpiry, _ := h.jwtService.GenerateRefreshToken(userID)

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/auth/refresh",
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/auth/refresh",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
