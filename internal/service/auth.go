package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/gahigi/api/internal/model"
	"github.com/gahigi/api/internal/repository"
	"github.com/gahigi/api/internal/token"
	"github.com/gahigi/api/internal/validation"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrAccountNotVerified = errors.New("account not verified")
	ErrInvalidCode        = errors.New("verification code is not valid")
	ErrInvalidNonce       = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// otpLength is the number of digits in one-time codes sent by email.
const otpLength = 6

// SignupInput carries everything needed to create an account, whether the
// identity comes from the signup form (LOCAL) or an external provider.
type SignupInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Provider   string // defaults to LOCAL
	PictureURL string // external profile picture, if any
}

// ExternalProfile is the payload an identity provider hands back after its
// redirect handshake. It is trusted as-is; the provider has already
// verified the email.
type ExternalProfile struct {
	Email      string
	FirstName  string
	LastName   string
	PictureURL string
	Provider   string
}

// SessionToken is the signed credential returned to clients on login.
type SessionToken struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type AuthService struct {
	userRepository           repository.UserRepository
	tokenRepository          repository.TokenRepository
	fileService              *FileService
	emailService             *EmailService
	jwtSecret                []byte
	jwtExpiry                time.Duration
	tokenEmailVerifyExpiry   time.Duration
	tokenPasswordResetExpiry time.Duration
	nonceExpiry              time.Duration
}

func NewAuthService(
	userRepository repository.UserRepository,
	tokenRepository repository.TokenRepository,
	fileService *FileService,
	emailService *EmailService,
	jwtSecret string,
	jwtExpiry time.Duration,
	tokenEmailVerifyExpiry time.Duration,
	tokenPasswordResetExpiry time.Duration,
	nonceExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository:           userRepository,
		tokenRepository:          tokenRepository,
		fileService:              fileService,
		emailService:             emailService,
		jwtSecret:                []byte(jwtSecret),
		jwtExpiry:                jwtExpiry,
		tokenEmailVerifyExpiry:   tokenEmailVerifyExpiry,
		tokenPasswordResetExpiry: tokenPasswordResetExpiry,
		nonceExpiry:              nonceExpiry,
	}
}

// Signup creates a user account. Accounts created through an external
// provider start verified and carry no password hash; LOCAL accounts start
// unverified and get a verification code by email. Avatar provisioning and
// the verification email are side effects that never roll back the created
// user.
func (s *AuthService) Signup(in SignupInput) (*model.User, error) {
	email := normalizeEmail(in.Email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	provider := in.Provider
	if provider == "" {
		provider = model.ProviderLocal
	}
	external := provider != model.ProviderLocal

	var passwordHash *string
	if !external {
		err = validation.ValidatePassword(in.Password)
		if err != nil {
			return nil, err
		}
		err = validation.ValidateName(in.FirstName)
		if err != nil {
			return nil, err
		}

		hash, hashErr := s.HashPassword(in.Password)
		if hashErr != nil {
			return nil, fmt.Errorf("failed to hash password: %w", hashErr)
		}
		passwordHash = &hash
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         model.RoleUser,
		Providers:    model.ProviderSet{provider},
		Verified:     external, // external providers have verified the email already
		CreatedAt:    time.Now(),
	}

	err = s.userRepository.Create(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	_, err = s.fileService.ProvisionAvatar(user.ID, email, in.PictureURL)
	if err != nil {
		slog.Warn("failed to provision avatar", "error", err, "user_id", user.ID)
	}

	if !external {
		err = s.IssueOTP(email, model.TokenRoleAccountVerification, "Verification code", "Use this code to verify your account")
		if err != nil {
			slog.Warn("failed to issue verification code on signup", "error", err, "user_id", user.ID)
		}
	}

	slog.Info("new user created", "user_id", user.ID, "provider", provider, "verified", user.Verified)
	return user, nil
}

// ValidateCredentials checks a password login. An unknown email, a
// provider-only account, and a wrong password are indistinguishable to the
// caller. The verification check runs only after the password matched, so
// wrong-password attempts learn nothing about verification state.
func (s *AuthService) ValidateCredentials(email, password string) (*model.User, error) {
	email = normalizeEmail(email)

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	err = s.ComparePassword(password, *user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.Verified {
		return nil, ErrAccountNotVerified
	}

	return user, nil
}

// IssueOTP generates a one-time code for the given role, supersedes any
// prior live code of that role, and emails it. The result is a generic
// acknowledgement: an unknown email is logged but not revealed to the
// caller, and an email delivery failure is logged, not propagated.
func (s *AuthService) IssueOTP(email, role, title, description string) error {
	email = normalizeEmail(email)

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			slog.Info("otp requested for unknown email", "role", role)
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	code, err := generateOTP(otpLength)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	t := &model.Token{
		UserID:    user.ID,
		Role:      role,
		Token:     code,
		ExpiresAt: time.Now().Add(s.otpExpiry(role)),
	}
	err = s.tokenRepository.Replace(t)
	if err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	err = s.emailService.SendOTPEmail(user.Email, code, title, description)
	if err != nil {
		slog.Error("failed to send otp email", "error", err, "user_id", user.ID, "role", role)
	}

	return nil
}

// VerifyAccount redeems an ACCOUNT_VERIFICATION code. The verified flag is
// committed before the code is consumed, so an interrupted request can
// never leave a consumed code with an unverified account. Consumption is
// atomic: the same code cannot verify twice.
func (s *AuthService) VerifyAccount(email, code string) error {
	user, t, err := s.findOTP(email, model.TokenRoleAccountVerification, code)
	if err != nil {
		return err
	}

	err = s.userRepository.SetVerified(user.ID)
	if err != nil {
		return fmt.Errorf("failed to mark account verified: %w", err)
	}

	_, err = s.tokenRepository.Consume(user.ID, t.Role, code)
	if err != nil {
		// A concurrent request consumed it after our flag update; the
		// account is verified either way.
		slog.Warn("verification code already consumed", "user_id", user.ID)
	}

	err = s.emailService.SendWelcomeEmail(user.Email, user.FirstName)
	if err != nil {
		slog.Warn("failed to send welcome email", "error", err, "user_id", user.ID)
	}

	slog.Info("account verified", "user_id", user.ID)
	return nil
}

// ResetPassword redeems an ACCOUNT_RECOVERY code and stores the new
// password hash. The recovery code is consumed after the password write, so
// it is single-use like every other token.
func (s *AuthService) ResetPassword(email, code, newPassword string) error {
	user, t, err := s.findOTP(email, model.TokenRoleAccountRecovery, code)
	if err != nil {
		return err
	}

	err = validation.ValidatePassword(newPassword)
	if err != nil {
		return err
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.userRepository.UpdatePassword(user.ID, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	_, err = s.tokenRepository.Consume(user.ID, t.Role, code)
	if err != nil {
		slog.Warn("recovery code already consumed", "user_id", user.ID)
	}

	slog.Info("password reset", "user_id", user.ID)
	return nil
}

// findOTP resolves the user and their live code for a role. Unknown email
// and missing/expired code collapse to ErrInvalidCode so redemption
// endpoints don't reveal whether an account exists.
func (s *AuthService) findOTP(email, role, code string) (*model.User, *model.Token, error) {
	email = normalizeEmail(email)

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, ErrInvalidCode
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	t, err := s.tokenRepository.Find(user.ID, role, code)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, nil, ErrInvalidCode
		}
		return nil, nil, fmt.Errorf("failed to look up code: %w", err)
	}

	return user, t, nil
}

// CompleteOAuthLogin reconciles an externally authenticated identity with
// the local user table and returns a fresh single-use nonce scoped to that
// user. The HTTP layer embeds the nonce in a redirect instead of a session
// token, so the browser round-trip never carries a long-lived credential.
func (s *AuthService) CompleteOAuthLogin(profile ExternalProfile) (*model.Token, error) {
	email := normalizeEmail(profile.Email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}

		user, err = s.Signup(SignupInput{
			Email:      email,
			FirstName:  profile.FirstName,
			LastName:   profile.LastName,
			Provider:   profile.Provider,
			PictureURL: profile.PictureURL,
		})
		if errors.Is(err, ErrEmailAlreadyExists) {
			// A concurrent callback created the account first; use it.
			user, err = s.userRepository.ByEmail(email)
		}
		if err != nil {
			return nil, err
		}
	}

	if !user.Providers.Has(profile.Provider) {
		err = s.userRepository.AddProvider(user.ID, profile.Provider)
		if err != nil {
			return nil, fmt.Errorf("failed to link provider: %w", err)
		}
		slog.Info("provider linked", "user_id", user.ID, "provider", profile.Provider)
	}

	// Nonces are issued with Create so concurrent logins from two browsers
	// each get their own; expired leftovers are purged here instead.
	err = s.tokenRepository.DeleteExpired(user.ID, model.TokenRoleNonce)
	if err != nil {
		slog.Warn("failed to purge expired nonces", "error", err, "user_id", user.ID)
	}

	nonce := &model.Token{
		UserID:    user.ID,
		Role:      model.TokenRoleNonce,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(s.nonceExpiry),
	}
	err = s.tokenRepository.Create(nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to create login nonce: %w", err)
	}

	return nonce, nil
}

// RedeemNonce exchanges a single-use login nonce for a session token.
// Unknown user, missing, expired, and already-consumed nonces are
// indistinguishable. The nonce is deleted atomically, so it redeems exactly
// once.
func (s *AuthService) RedeemNonce(nonceValue, userID string) (*SessionToken, error) {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidNonce
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	_, err = s.tokenRepository.Consume(userID, model.TokenRoleNonce, nonceValue)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrInvalidNonce
		}
		return nil, fmt.Errorf("failed to consume nonce: %w", err)
	}

	return s.SessionToken(user)
}

// SessionToken mints a signed session token for an authenticated user.
func (s *AuthService) SessionToken(user *model.User) (*SessionToken, error) {
	signed, err := token.Mint(user.ID, user.FirstName, user.Role, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &SessionToken{Token: signed, Role: user.Role}, nil
}

// VerifySession validates a signed session token and returns its claims.
func (s *AuthService) VerifySession(signed string) (*token.Claims, error) {
	return token.Verify(signed, s.jwtSecret)
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) otpExpiry(role string) time.Duration {
	if role == model.TokenRoleAccountRecovery {
		return s.tokenPasswordResetExpiry
	}
	return s.tokenEmailVerifyExpiry
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// generateOTP produces a fixed-length numeric code from crypto/rand.
func generateOTP(length int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
