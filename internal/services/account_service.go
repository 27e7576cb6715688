package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"maintrack/internal/auth"
	"maintrack/internal/core"
	"maintrack/internal/log"
	"maintrack/internal/ports"
)

// SignUp is the account creation form.
type SignUp struct {
	Email    string
	Password string
	Confirm  string
	Role     core.Role
	TenantID string
}

// Session is returned on a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      core.User
}

// AccountService is the identity provider: it creates login-capable users
// and exchanges credentials for session tokens.
type AccountService struct {
	users   ports.UserStore
	tenants ports.TenantStore
	tokens  *auth.TokenIssuer
}

func NewAccountService(users ports.UserStore, tenants ports.TenantStore, tokens *auth.TokenIssuer) *AccountService {
	return &AccountService{users: users, tenants: tenants, tokens: tokens}
}

// CreateAccount validates the form, hashes the password and stores the
// user. Tenant accounts must reference an existing tenant whose email is
// then set to the login email.
func (s *AccountService) CreateAccount(ctx context.Context, in SignUp) (core.User, error) {
	return s.create(ctx, in, s.users.CreateUser)
}

// Bootstrap creates the first account, which must be an admin. It fails
// with core.ErrAlreadyBootstrapped once any account exists, even when two
// calls race.
func (s *AccountService) Bootstrap(ctx context.Context, in SignUp) (core.User, error) {
	if in.Role != core.RoleAdmin {
		return core.User{}, fmt.Errorf("first account: %w", core.ErrInvalidRole)
	}
	return s.create(ctx, in, s.users.CreateFirstUser)
}

func (s *AccountService) create(ctx context.Context, in SignUp, insert func(context.Context, core.User) (core.User, error)) (core.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return core.User{}, core.ErrInvalidEmail
	}
	if !in.Role.Valid() {
		return core.User{}, core.ErrInvalidRole
	}
	if err := auth.ValidateSignUp(in.Password, in.Confirm); err != nil {
		return core.User{}, err
	}

	u := core.User{Email: email, Role: in.Role}
	if in.Role == core.RoleTenant {
		if in.TenantID == "" {
			return core.User{}, fmt.Errorf("tenant account: %w", core.ErrNotFound)
		}
		if _, err := s.tenants.GetTenant(ctx, in.TenantID); err != nil {
			return core.User{}, fmt.Errorf("tenant account: %w", err)
		}
		u.TenantID = in.TenantID
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash

	created, err := insert(ctx, u)
	if err != nil {
		return core.User{}, err
	}

	if created.Role == core.RoleTenant {
		if err := s.users.SetTenantEmail(ctx, created.TenantID, created.Email); err != nil {
			log.LogError(ctx, "Failed to copy login email to tenant", err, log.ComponentAccounts, log.OpUpdate, log.ErrorTypeDatabase)
		}
	}

	log.FromContext(ctx).WithComponent(log.ComponentAccounts).InfoContext(ctx, "Account created",
		log.FieldUserID, created.ID, log.FieldRole, string(created.Role))
	return created, nil
}

// Authenticate returns the user owning the credentials. Unknown emails and
// wrong passwords fail the same way.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (core.User, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, core.ErrInvalidCredentials
		}
		return core.User{}, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return core.User{}, core.ErrInvalidCredentials
	}
	return u, nil
}

// Login authenticates and issues a session token.
func (s *AccountService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentAccounts).WarnContext(ctx, "Login rejected",
			log.FieldOperation, log.OpLogin, log.FieldError, err.Error())
		return Session{}, err
	}
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp, User: u}, nil
}

// NeedsBootstrap reports whether no account exists yet.
func (s *AccountService) NeedsBootstrap(ctx context.Context) (bool, error) {
	n, err := s.users.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}
