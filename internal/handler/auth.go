package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gahigi/api/internal/config"
	"github.com/gahigi/api/internal/model"
	"github.com/gahigi/api/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type authHandler struct {
	authService       *service.AuthService
	googleOAuthConfig *oauth2.Config
	frontendURL       string
	isProduction      bool
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *authHandler {
	return &authHandler{
		authService: authService,
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/google/redirect",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		frontendURL:  cfg.FrontendURL,
		isProduction: cfg.IsProduction(),
	}
}

// Signup handles POST /auth/signup
func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	err := decodeJSON(r, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.Signup(service.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			respondError(w, http.StatusConflict, "user with that email already exists")
			return
		}
		if errors.Is(err, service.ErrInvalidEmail) || isInputError(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("signup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// Signin handles POST /auth/signin
func (h *authHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := decodeJSON(r, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.ValidateCredentials(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotVerified) {
			respondError(w, http.StatusForbidden, "account not verified")
			return
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		slog.Error("signin failed", "error", err)
		respondError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	session, err := h.authService.SessionToken(user)
	if err != nil {
		slog.Error("failed to mint session token", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	slog.Info("user signed in", "user_id", user.ID)
	respondJSON(w, http.StatusOK, session)
}

// RequestVerificationEmail handles POST /auth/verification-email
func (h *authHandler) RequestVerificationEmail(w http.ResponseWriter, r *http.Request) {
	h.requestOTP(w, r, model.TokenRoleAccountVerification, "Verification code", "Use this code to verify your account")
}

// ForgotPassword handles POST /auth/forgot-password
func (h *authHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.requestOTP(w, r, model.TokenRoleAccountRecovery, "Reset token", "Use this token to reset your password")
}

// requestOTP issues a one-time code. The response is the same whether or
// not the email maps to an account, to avoid account enumeration.
func (h *authHandler) requestOTP(w http.ResponseWriter, r *http.Request, role, title, description string) {
	var req struct {
		Email string `json:"email"`
	}
	err := decodeJSON(r, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.authService.IssueOTP(req.Email, role, title, description)
	if err != nil {
		slog.Error("failed to issue otp", "error", err, "role", role)
		respondError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	respondMessage(w, "if the email is registered, a code was sent")
}

// VerifyAccount handles PATCH /auth/verification
func (h *authHandler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	err := decodeJSON(r, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.authService.VerifyAccount(req.Email, req.OTP)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCode) {
			respondError(w, http.StatusBadRequest, "verification code is not valid")
			return
		}
		slog.Error("account verification failed", "error", err)
		respondError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	respondMessage(w, "account was verified successfully")
}

// ResetPassword handles PATCH /auth/forgot-password
func (h *authHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		OTP      string `json:"otp"`
		Password string `json:"password"`
	}
	err := decodeJSON(r, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.authService.ResetPassword(req.Email, req.OTP, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCode) {
			respondError(w, http.StatusBadRequest, "reset code is not valid")
			return
		}
		if isInputError(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("password reset failed", "error", err)
		respondError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	respondMessage(w, "password was changed successfully")
}

// GoogleAuth handles GET /auth/google, redirecting to the consent screen.
func (h *authHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	state := generateOAuthState()

	// Store state in a secure cookie for CSRF protection
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	url := h.googleOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback handles GET /auth/google/redirect. On success the browser
// is sent back to the frontend with a single-use nonce instead of a session
// token, so the redirect leg never carries a long-lived credential.
func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie("oauth_state")
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("google oauth state validation failed", "error", err)
		respondError(w, http.StatusUnauthorized, "oauth state validation failed")
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("google oauth callback missing code")
		respondError(w, http.StatusUnauthorized, "oauth authentication failed")
		return
	}

	oauthToken, err := h.googleOAuthConfig.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("google oauth token exchange failed", "error", err)
		respondError(w, http.StatusUnauthorized, "oauth authentication failed")
		return
	}

	profile, err := h.fetchGoogleProfile(r.Context(), oauthToken)
	if err != nil {
		slog.Error("failed to fetch google profile", "error", err)
		respondError(w, http.StatusUnauthorized, "oauth authentication failed")
		return
	}

	nonce, err := h.authService.CompleteOAuthLogin(*profile)
	if err != nil {
		slog.Error("oauth login failed", "error", err)
		respondError(w, http.StatusInternalServerError, "authentication failed, please try again")
		return
	}

	redirect := fmt.Sprintf("%s/auth-callback?nonce=%s_%s", h.frontendURL, nonce.Token, nonce.UserID)
	http.Redirect(w, r, redirect, http.StatusFound)
}

// LoginWithNonce handles POST /auth/nonce, exchanging the nonce from the
// OAuth redirect for a session token.
func (h *authHandler) LoginWithNonce(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nonce string `json:"nonce"`
	}
	err := decodeJSON(r, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	value, userID, ok := strings.Cut(req.Nonce, "_")
	if !ok || value == "" || userID == "" {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	session, err := h.authService.RedeemNonce(value, userID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidNonce) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		slog.Error("nonce redemption failed", "error", err)
		respondError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (h *authHandler) fetchGoogleProfile(ctx context.Context, t *oauth2.Token) (*service.ExternalProfile, error) {
	client := h.googleOAuthConfig.Client(ctx, t)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var userInfo struct {
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
		Picture    string `json:"picture"`
	}
	err = json.NewDecoder(resp.Body).Decode(&userInfo)
	if err != nil {
		return nil, err
	}
	if userInfo.Email == "" {
		return nil, errors.New("google profile has no email")
	}

	return &service.ExternalProfile{
		Email:      userInfo.Email,
		FirstName:  userInfo.GivenName,
		LastName:   userInfo.FamilyName,
		PictureURL: userInfo.Picture,
		Provider:   model.ProviderGoogle,
	}, nil
}

// generateOAuthState creates a cryptographically secure random state token
// for OAuth CSRF protection.
func generateOAuthState() string {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
