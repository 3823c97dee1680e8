// AUTHENTICATION:
//
// AuthService sits between the HTTP handlers and the user store:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// Two ways in:
//   - handle/email + password (Register, Login)
//   - GitHub OAuth (LoginOrRegisterGitHub)
//
// Both end the same way: a user record plus a signed JWT whose subject is
// the internal user id. Everything downstream only ever sees that id.

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/playtrack/internal/apperror"
	"github.com/sakif/playtrack/internal/auth"
	"github.com/sakif/playtrack/internal/model"
	"github.com/sakif/playtrack/internal/repository"
)

var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → generate/validate JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// RegisterInput is the signup form.
type RegisterInput struct {
	Handle      string `json:"handle"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// Register creates a password account. A taken handle or email is a Conflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Handle = strings.TrimSpace(in.Handle)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if !handlePattern.MatchString(in.Handle) {
		return nil, apperror.ValidationFailed("handle", "handle must be 3-30 letters, digits, '_' or '-'")
	}
	if !strings.Contains(in.Email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	}
	if err := auth.CheckStrength(in.Password); err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = in.Handle
	}
	user := &model.User{
		Handle:       in.Handle,
		Email:        in.Email,
		PasswordHash: hash,
		DisplayName:  displayName,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if isConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user %s: %w", in.Handle, err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID), slog.String("handle", user.Handle))
	return s.issue(user)
}

// Login checks a handle-or-email and password. Every failure, including an
// unknown login, is the same Unauthenticated error.
func (s *AuthService) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, apperror.ValidationFailed("login", "login and password are required")
	}

	user, err := s.users.GetUserByLogin(ctx, login)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("service/auth: looking up %s: %w", login, err)
	}
	if user == nil || s.passwords.Verify(user.PasswordHash, password) != nil {
		return nil, apperror.Unauthenticated("invalid credentials")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user)
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback: upsert the user by
// GitHub id, then issue a token.
//
// The GitHub login becomes the handle on first sign-in. If a local account
// already holds that handle, the GitHub id is appended to make it unique. A
// GitHub account with no public email gets GitHub's noreply address.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	ghID := gh.ID
	email := strings.ToLower(gh.Email)
	if email == "" {
		email = fmt.Sprintf("%d+%s@users.noreply.github.com", gh.ID, strings.ToLower(gh.Login))
	}
	displayName := gh.Name
	if displayName == "" {
		displayName = gh.Login
	}
	user := &model.User{
		Handle:      gh.Login,
		Email:       email,
		GitHubID:    &ghID,
		DisplayName: displayName,
		AvatarURL:   gh.AvatarURL,
	}

	err := s.users.UpsertGitHubUser(ctx, user)
	if errors.Is(err, apperror.ErrConflict) {
		user.Handle = fmt.Sprintf("%s-%d", gh.Login, gh.ID)
		user.Email = fmt.Sprintf("%d+%s@users.noreply.github.com", gh.ID, strings.ToLower(gh.Login))
		err = s.users.UpsertGitHubUser(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", gh.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("handle", user.Handle),
	)
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID backs /api/me.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthenticated("no user in context")
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// ValidateToken returns the user id a JWT encodes.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}
