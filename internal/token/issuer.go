// Package token mints and verifies the access/refresh JWT pair. Tokens are
// stateless: validity is decided by signature and expiry alone, no server-side
// record exists for an issued token.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/NordCoder/Tokenus/internal/platform"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrInvalidToken covers every verification failure: malformed input, bad
// signature, expiry, and wrong token type. Callers get no finer detail.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of both token kinds. Platform is embedded so a refresh
// exchange can re-assert the classification that produced the original pair
// without any server-side session state.
type Claims struct {
	UserID   string `json:"userId"`
	Platform string `json:"platform"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// Config carries the two signing secrets and the lifetime policy. The secrets
// must differ: a leaked access token must never verify as a refresh token.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	MobileTTL     time.Duration
	Now           func() time.Time
}

type Issuer struct {
	cfg Config
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token: both signing secrets are required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.MobileTTL <= 0 {
		cfg.MobileTTL = 30 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Issuer{cfg: cfg}, nil
}

func (i *Issuer) AccessTTL() time.Duration { return i.cfg.AccessTTL }

// RefreshTTL returns the refresh lifetime for a platform. Only mobile gets the
// long window; every other tag, web included, falls through to the short one.
func (i *Issuer) RefreshTTL(p platform.Platform) time.Duration {
	if p == platform.Mobile {
		return i.cfg.MobileTTL
	}
	return i.cfg.RefreshTTL
}

func (i *Issuer) IssueAccess(userID uuid.UUID, p platform.Platform) (string, error) {
	return i.sign(userID, p, TypeAccess, i.cfg.AccessTTL, i.cfg.AccessSecret)
}

func (i *Issuer) IssueRefresh(userID uuid.UUID, p platform.Platform) (string, error) {
	return i.sign(userID, p, TypeRefresh, i.RefreshTTL(p), i.cfg.RefreshSecret)
}

func (i *Issuer) VerifyAccess(raw string) (*Claims, error) {
	return i.verify(raw, TypeAccess, i.cfg.AccessSecret)
}

func (i *Issuer) VerifyRefresh(raw string) (*Claims, error) {
	return i.verify(raw, TypeRefresh, i.cfg.RefreshSecret)
}

func (i *Issuer) sign(userID uuid.UUID, p platform.Platform, typ string, ttl time.Duration, secret []byte) (string, error) {
	now := i.cfg.Now()
	claims := Claims{
		UserID:   userID.String(),
		Platform: p.String(),
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (i *Issuer) verify(raw, typ string, secret []byte) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.cfg.Now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Type != typ {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
