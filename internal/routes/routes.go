package routes

import (
	"net/http"

	"github.com/gahigi/api/internal/config"
	"github.com/gahigi/api/internal/handler"
	"github.com/gahigi/api/internal/middleware"
	"github.com/gahigi/api/internal/service"
)

// New builds the HTTP handler tree: auth and user routes behind the
// shared middleware chain.
func New(
	cfg *config.Config,
	authService *service.AuthService,
	userService *service.UserService,
	fileService *service.FileService,
) http.Handler {
	mux := http.NewServeMux()

	authHandler := handler.NewAuthHandler(authService, cfg)
	userHandler := handler.NewUserHandler(userService, fileService)

	throttle := middleware.RateLimitAuth()

	// Auth
	mux.HandleFunc("POST /auth/signup", throttle(authHandler.Signup))
	mux.HandleFunc("POST /auth/signin", throttle(authHandler.Signin))
	mux.HandleFunc("POST /auth/verification-email", throttle(authHandler.RequestVerificationEmail))
	mux.HandleFunc("PATCH /auth/verification", throttle(authHandler.VerifyAccount))
	mux.HandleFunc("POST /auth/forgot-password", throttle(authHandler.ForgotPassword))
	mux.HandleFunc("PATCH /auth/forgot-password", throttle(authHandler.ResetPassword))
	mux.HandleFunc("GET /auth/google", authHandler.GoogleAuth)
	mux.HandleFunc("GET /auth/google/redirect", authHandler.GoogleCallback)
	mux.HandleFunc("POST /auth/nonce", throttle(authHandler.LoginWithNonce))

	// User
	mux.HandleFunc("GET /user/me", middleware.RequireAuth(userHandler.Me))
	mux.HandleFunc("POST /user/avatar", middleware.RequireAuth(userHandler.UploadAvatar))
	mux.HandleFunc("GET /user/{id}", userHandler.PublicProfile)

	// Health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.Auth(authService, userService),
	)
}
