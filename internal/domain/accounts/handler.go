package accounts

import (
	"encoding/json"
	"errors"
	"net/http"

	"sjmc-records/internal/middleware"
	"sjmc-records/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

type RouteOptions struct {
	Logger      logger.Logger
	RequireAuth func(http.Handler) http.Handler
}

func RegisterRoutes(r chi.Router, svc *Service, opts RouteOptions) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r.Post("/login", loginHandler(svc, log))

	if opts.RequireAuth != nil {
		r.With(opts.RequireAuth).Get("/verify-token", verifyTokenHandler())
	} else {
		r.Get("/verify-token", verifyTokenHandler())
	}
}

type loginRequest struct {
	Email    string `json:"email" example:"admin@sjmc.com"`
	Password string `json:"password" example:"password123"`
}

type userResponse struct {
	Email string `json:"email"`
}

type loginResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Token   string        `json:"token,omitempty"`
	User    *userResponse `json:"user,omitempty"`
}

type verifyTokenResponse struct {
	User userResponse `json:"user"`
}

// loginHandler godoc
// @Summary Login
// @Description Autentica con email y password y devuelve un JWT (24 h).
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} loginResponse
// @Failure 400 {object} loginResponse
// @Failure 401 {object} loginResponse "Invalid credentials"
// @Router /api/login [post]
func loginHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, loginResponse{Message: "invalid json"})
			return
		}

		res, err := svc.Login(r.Context(), req.Email, req.Password)
		switch {
		case err == nil:
		case errors.Is(err, ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, loginResponse{Message: "Email and password are required"})
			return
		case errors.Is(err, ErrInvalidCredentials):
			log.Info("login rejected", map[string]any{"email": NormalizeEmail(req.Email)})
			writeJSON(w, http.StatusUnauthorized, loginResponse{Message: "Invalid credentials"})
			return
		default:
			log.Error("login failed", map[string]any{"err": err})
			writeJSON(w, http.StatusInternalServerError, loginResponse{Message: "Login failed"})
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{
			Success: true,
			Message: "Login successful",
			Token:   res.Token,
			User:    &userResponse{Email: res.Email},
		})
	}
}

// verifyTokenHandler godoc
// @Summary Verificar token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} verifyTokenResponse
// @Failure 401 {object} map[string]string "Authentication token required"
// @Failure 403 {object} map[string]string "Invalid or expired token"
// @Router /api/verify-token [get]
func verifyTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := middleware.GetClaims(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authentication token required"})
			return
		}
		email := c.Email
		if email == "" {
			email = c.UserID
		}
		writeJSON(w, http.StatusOK, verifyTokenResponse{User: userResponse{Email: email}})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
