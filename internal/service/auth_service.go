package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"movie-watchlist/internal/metrics"
	"movie-watchlist/internal/model"
	"movie-watchlist/internal/repository"
	"movie-watchlist/internal/security"
	"movie-watchlist/pkg/apierror"
)

const tokenType = "bearer"

type AccountOptions struct {
	// EnforceSessionStatus makes Authenticate reject tokens whose login session
	// is no longer active, so logout revokes the token immediately.
	EnforceSessionStatus bool
}

type AccountService struct {
	users    repository.UserStore
	sessions repository.SessionStore
	hasher   *security.PasswordHasher
	tokens   *security.TokenManager
	audit    *AuditService
	metrics  *metrics.Metrics
	opts     AccountOptions
	now      func() time.Time
}

func NewAccountService(
	users repository.UserStore,
	sessions repository.SessionStore,
	hasher *security.PasswordHasher,
	tokens *security.TokenManager,
	audit *AuditService,
	m *metrics.Metrics,
	opts AccountOptions,
) *AccountService {
	return &AccountService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		audit:    audit,
		metrics:  m,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *AccountService) Register(ctx context.Context, req model.RegisterRequest, actor model.AuditActor) (model.PublicUser, error) {
	user, err := s.register(ctx, req)
	s.audit.Outcome(ctx, "register", actor, "user:"+strings.TrimSpace(req.Email), auditUser(user), err)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *AccountService) register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return model.User{}, apierror.InvalidInput("username, email and password are required", "").Wrap(model.ErrInvalidInput)
	}

	role, err := normalizeRole(req.Role)
	if err != nil {
		return model.User{}, err
	}

	taken, err := s.users.EmailTaken(ctx, email, 0)
	if err != nil {
		return model.User{}, err
	}
	if taken {
		return model.User{}, duplicateEmail(email)
	}

	taken, err = s.users.UsernameTaken(ctx, username, 0)
	if err != nil {
		return model.User{}, err
	}
	if taken {
		return model.User{}, duplicateUsername(username)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return model.User{}, err
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       model.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return model.User{}, translateUserError(err, username, email)
	}
	return created, nil
}

func (s *AccountService) Login(ctx context.Context, req model.LoginRequest, actor model.AuditActor) (model.AccessToken, error) {
	user, token, err := s.login(ctx, req)

	outcome := "success"
	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		outcome = "invalid_credentials"
	case err != nil:
		outcome = "error"
	}
	s.metrics.LoginAttempt(outcome)

	actor.UserID = user.ID
	actor.Username = user.Username
	actor.Role = user.Role
	s.audit.Outcome(ctx, "login", actor, "user:"+strings.TrimSpace(req.Email), nil, err)
	if err != nil {
		return model.AccessToken{}, err
	}

	return model.AccessToken{AccessToken: token, TokenType: tokenType}, nil
}

func (s *AccountService) login(ctx context.Context, req model.LoginRequest) (model.User, string, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, "", invalidCredentials()
	}
	if err != nil {
		return model.User{}, "", err
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return model.User{}, "", invalidCredentials()
	}
	if user.Status == model.StatusSuspended {
		return model.User{}, "", apierror.Unauthenticated("account is suspended").Wrap(model.ErrUnauthenticated)
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return model.User{}, "", err
	}

	if _, err := s.sessions.Create(ctx, model.LoginSession{
		UserID:    user.ID,
		Token:     token,
		Status:    model.StatusActive,
		CreatedAt: s.now().UTC(),
		ExpiresAt: expiresAt,
	}); err != nil {
		return model.User{}, "", err
	}

	return user, token, nil
}

// Logout marks the login session holding token as suspended. It does not need
// the session to be active, so repeating it on the same token succeeds.
func (s *AccountService) Logout(ctx context.Context, token string, actor model.AuditActor) (model.MessageResponse, error) {
	err := s.logout(ctx, token)
	s.audit.Outcome(ctx, "logout", actor, "session", nil, err)
	if err != nil {
		return model.MessageResponse{}, err
	}
	return model.MessageResponse{Message: "logged out successfully"}, nil
}

func (s *AccountService) logout(ctx context.Context, token string) error {
	session, err := s.sessions.FindByToken(ctx, token)
	if errors.Is(err, model.ErrSessionNotFound) {
		return apierror.InvalidInput("invalid session", "").Wrap(model.ErrSessionNotFound)
	}
	if err != nil {
		return err
	}

	err = s.sessions.UpdateStatus(ctx, session.ID, model.StatusSuspended)
	if errors.Is(err, model.ErrSessionNotFound) {
		return apierror.InvalidInput("invalid session", "").Wrap(model.ErrSessionNotFound)
	}
	return err
}

// Authenticate resolves the identity behind a bearer token. Every call re-reads
// the identity so role and status changes apply on the next request.
func (s *AccountService) Authenticate(ctx context.Context, token string) (model.Principal, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return model.Principal{}, apierror.Unauthenticated("invalid or expired token").Wrap(security.ErrInvalidToken)
	}

	if s.opts.EnforceSessionStatus {
		session, err := s.sessions.FindByToken(ctx, token)
		if errors.Is(err, model.ErrSessionNotFound) {
			return model.Principal{}, apierror.Unauthenticated("session is no longer active").Wrap(model.ErrSessionNotFound)
		}
		if err != nil {
			return model.Principal{}, err
		}
		if !session.IsActive() || session.UserID != claims.UserID {
			return model.Principal{}, apierror.Unauthenticated("session is no longer active").Wrap(model.ErrSessionNotFound)
		}
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.Principal{}, apierror.Unauthenticated("user no longer exists").Wrap(model.ErrUserNotFound)
	}
	if err != nil {
		return model.Principal{}, err
	}
	if user.Status == model.StatusSuspended {
		return model.Principal{}, apierror.Unauthenticated("account is suspended").Wrap(model.ErrUnauthenticated)
	}

	return model.Principal{User: user, Token: token, Claims: claims}, nil
}

func (s *AccountService) Profile(ctx context.Context, userID int64) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, translateUserError(err, "", "")
	}
	return user.Public(), nil
}

func (s *AccountService) ListUsers(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]model.PublicUser, 0, len(users))
	for _, user := range users {
		result = append(result, user.Public())
	}
	return result, nil
}

// UpdateProfile applies the supplied fields only. The password is re-hashed
// when a new one is given.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, changes model.UserChanges, actor model.AuditActor) (model.PublicUser, error) {
	user, err := s.updateProfile(ctx, userID, changes)
	s.audit.Outcome(ctx, "update_user", actor, "user:"+strconv.FormatInt(userID, 10), auditUser(user), err)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *AccountService) updateProfile(ctx context.Context, userID int64, changes model.UserChanges) (model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.User{}, translateUserError(err, "", "")
	}

	if changes.Email != nil {
		email := strings.TrimSpace(*changes.Email)
		if email == "" {
			return model.User{}, apierror.InvalidInput("email must not be empty", "email").Wrap(model.ErrInvalidInput)
		}
		if !strings.EqualFold(email, user.Email) {
			taken, err := s.users.EmailTaken(ctx, email, user.ID)
			if err != nil {
				return model.User{}, err
			}
			if taken {
				return model.User{}, duplicateEmail(email)
			}
		}
		user.Email = email
	}

	if changes.Username != nil {
		username := strings.TrimSpace(*changes.Username)
		if username == "" {
			return model.User{}, apierror.InvalidInput("username must not be empty", "username").Wrap(model.ErrInvalidInput)
		}
		if username != user.Username {
			taken, err := s.users.UsernameTaken(ctx, username, user.ID)
			if err != nil {
				return model.User{}, err
			}
			if taken {
				return model.User{}, duplicateUsername(username)
			}
		}
		user.Username = username
	}

	if changes.Role != nil {
		role, err := normalizeRole(*changes.Role)
		if err != nil {
			return model.User{}, err
		}
		user.Role = role
	}

	if changes.Password != nil {
		hash, err := s.hashPassword(*changes.Password)
		if err != nil {
			return model.User{}, err
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = s.now().UTC()
	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return model.User{}, translateUserError(err, user.Username, user.Email)
	}
	return updated, nil
}

func (s *AccountService) DeleteUser(ctx context.Context, userID int64, actor model.AuditActor) (model.MessageResponse, error) {
	deleted, err := s.users.Delete(ctx, userID)
	if err != nil {
		err = translateUserError(err, "", "")
	}
	s.audit.Outcome(ctx, "delete_user", actor, "user:"+strconv.FormatInt(userID, 10), deleted, err)
	if err != nil {
		return model.MessageResponse{}, err
	}

	return model.MessageResponse{Message: fmt.Sprintf("user '%s' deleted successfully", deleted.Username)}, nil
}

func (s *AccountService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if errors.Is(err, model.ErrWeakPassword) {
		return "", apierror.InvalidInput(
			"password must be at least 8 characters and contain an uppercase letter, a lowercase letter, a digit and a symbol",
			"password",
		).Wrap(model.ErrWeakPassword)
	}
	return hash, err
}

func normalizeRole(raw string) (string, error) {
	role := strings.ToLower(strings.TrimSpace(raw))
	switch role {
	case "":
		return model.RoleUser, nil
	case model.RoleAdmin, model.RoleUser:
		return role, nil
	default:
		return "", apierror.InvalidInput("invalid role", raw).Wrap(model.ErrInvalidRole)
	}
}

func translateUserError(err error, username string, email string) error {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return apierror.NotFound("user not found", "").Wrap(model.ErrUserNotFound)
	case errors.Is(err, model.ErrDuplicateEmail):
		return duplicateEmail(email)
	case errors.Is(err, model.ErrDuplicateUsername):
		return duplicateUsername(username)
	default:
		return err
	}
}

func duplicateEmail(email string) error {
	return apierror.Conflict("email already registered", email).Wrap(model.ErrDuplicateEmail)
}

func duplicateUsername(username string) error {
	return apierror.Conflict("username already taken", username).Wrap(model.ErrDuplicateUsername)
}

func invalidCredentials() error {
	return apierror.Unauthenticated("invalid credentials").Wrap(model.ErrInvalidCredentials)
}

func auditUser(user model.User) any {
	if user.ID == 0 {
		return nil
	}
	return map[string]any{"id": user.ID, "username": user.Username, "role": user.Role}
}
