package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NordCoder/Tokenus/internal/domain/audit"
	"github.com/NordCoder/Tokenus/internal/domain/user"
	"github.com/NordCoder/Tokenus/internal/platform"
	pg "github.com/NordCoder/Tokenus/internal/repository/postgres"
	"github.com/NordCoder/Tokenus/internal/token"
)

var (
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobileRe = regexp.MustCompile(`^[0-9]{10}$`)
)

type Usecase struct {
	users  user.Repo
	hasher Hasher
	tokens *token.Issuer
	events audit.Publisher
	log    *zap.Logger
	now    func() time.Time
}

func NewUsecase(users user.Repo, hasher Hasher, tokens *token.Issuer, events audit.Publisher, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		events: events,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Mobile   string
	Password string
}

func (in *RegisterInput) validate() *Error {
	switch {
	case in.Name == "" || in.Email == "" || in.Mobile == "" || in.Password == "":
		return errValidation("name, email, mobile and password are required")
	case len(strings.TrimSpace(in.Name)) < 3:
		return errValidation("name must be at least 3 characters")
	case !emailRe.MatchString(in.Email):
		return errValidation("email is malformed")
	case !mobileRe.MatchString(in.Mobile):
		return errValidation("mobile must be a 10-digit number")
	case len(in.Password) < 6:
		return errValidation("password must be at least 6 characters")
	}
	return nil
}

// Register creates a user record. No tokens are issued at registration.
func (u *Usecase) Register(ctx context.Context, in RegisterInput, p platform.Platform) (*user.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	digest, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, errInternal("hash password", err)
	}

	rec := &user.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		Mobile:       strings.TrimSpace(in.Mobile),
		PasswordHash: digest,
	}
	if err := u.users.Create(ctx, rec); err != nil {
		if errors.Is(err, pg.ErrConflict) {
			return nil, errConflict("email is already registered")
		}
		return nil, errInternal("create user", err)
	}

	u.publish(ctx, audit.EventUserRegistered, rec.ID, p)
	return rec, nil
}

type LoginResult struct {
	User         *user.User
	AccessToken  string
	RefreshToken string
}

// Login authenticates by email and password. Unknown email and wrong password
// are indistinguishable to the caller.
func (u *Usecase) Login(ctx context.Context, email, password string, p platform.Platform) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, errValidation("email and password are required")
	}

	rec, err := u.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return nil, errUnauthorized("invalid email or password")
		}
		return nil, errInternal("find user", err)
	}
	if !u.hasher.Verify(password, rec.PasswordHash) {
		return nil, errUnauthorized("invalid email or password")
	}

	access, err := u.tokens.IssueAccess(rec.ID, p)
	if err != nil {
		return nil, errInternal("issue access token", err)
	}
	refresh, err := u.tokens.IssueRefresh(rec.ID, p)
	if err != nil {
		return nil, errInternal("issue refresh token", err)
	}

	now := u.now()
	if err := u.users.UpdateLastLogin(ctx, rec.ID, now); err != nil {
		return nil, errInternal("update last login", err)
	}
	rec.LastLogin = &now

	u.publish(ctx, audit.EventUserLogin, rec.ID, p)
	return &LoginResult{User: rec, AccessToken: access, RefreshToken: refresh}, nil
}

// Profile resolves a bearer access token to the user it was issued for,
// together with the platform recorded in the claims.
func (u *Usecase) Profile(ctx context.Context, accessToken string) (*user.User, platform.Platform, error) {
	claims, err := u.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, "", errForbidden("TOKEN_INVALID", "access token is invalid or expired")
	}

	rec, err := u.userFromClaims(ctx, claims)
	if err != nil {
		return nil, "", err
	}
	return rec, platform.Platform(claims.Platform), nil
}

// Refresh mints a new access token from a still-valid refresh token. The
// refresh token itself is not rotated and stays valid until its own expiry.
// The new access token carries the platform recorded in the refresh claims,
// not the platform of the refresh request.
func (u *Usecase) Refresh(ctx context.Context, refreshToken string) (string, platform.Platform, error) {
	claims, err := u.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", "", errForbidden("REFRESH_TOKEN_INVALID", "refresh token is invalid or expired")
	}

	rec, err := u.userFromClaims(ctx, claims)
	if err != nil {
		return "", "", err
	}

	p := platform.Platform(claims.Platform)
	access, err := u.tokens.IssueAccess(rec.ID, p)
	if err != nil {
		return "", "", errInternal("issue access token", err)
	}
	return access, p, nil
}

// Logout has no server-side effect on issued tokens; cookie clearing is the
// transport's job. It only leaves an audit trail.
func (u *Usecase) Logout(ctx context.Context, p platform.Platform) {
	u.publish(ctx, audit.EventUserLogout, uuid.Nil, p)
}

func (u *Usecase) AccessTTL() time.Duration { return u.tokens.AccessTTL() }

func (u *Usecase) RefreshTTL(p platform.Platform) time.Duration { return u.tokens.RefreshTTL(p) }

func (u *Usecase) userFromClaims(ctx context.Context, claims *token.Claims) (*user.User, error) {
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		code := "TOKEN_INVALID"
		if claims.Type == token.TypeRefresh {
			code = "REFRESH_TOKEN_INVALID"
		}
		return nil, errForbidden(code, claims.Type+" token is invalid or expired")
	}
	rec, err := u.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pg.ErrNotFound) {
			return nil, errNotFound("user not found")
		}
		return nil, errInternal("find user", err)
	}
	return rec, nil
}

func (u *Usecase) publish(ctx context.Context, typ string, id uuid.UUID, p platform.Platform) {
	if u.events == nil {
		return
	}
	ev := audit.Event{Type: typ, UserID: id, Platform: p.String(), At: u.now()}
	if err := u.events.Publish(ctx, ev); err != nil {
		u.log.Warn("audit publish failed", zap.String("type", typ), zap.Error(err))
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
