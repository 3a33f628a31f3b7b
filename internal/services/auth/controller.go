package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/NordCoder/Tokenus/internal/domain/user"
	"github.com/NordCoder/Tokenus/internal/obs"
	"github.com/NordCoder/Tokenus/internal/platform"
)

// Controller is the HTTP face of the auth service. It owns the transport
// selection policy: web clients exchange the refresh token through an HttpOnly
// cookie and never see it in a response body, everyone else gets it in the
// body and no cookie.
type Controller struct {
	log *zap.Logger
	uc  *Usecase

	cookieName   string
	cookieDomain string
	cookiePath   string
	cookieSecure bool
	devMode      bool
}

type Opts struct {
	Logger       *zap.Logger
	CookieName   string
	CookieDomain string
	CookiePath   string
	CookieSecure bool
	DevMode      bool
}

func NewController(uc *Usecase, o Opts) *Controller {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if o.CookieName == "" {
		o.CookieName = "refresh_token"
	}
	if o.CookiePath == "" {
		o.CookiePath = "/"
	}
	return &Controller{
		log:          log,
		uc:           uc,
		cookieName:   o.CookieName,
		cookieDomain: o.CookieDomain,
		cookiePath:   o.CookiePath,
		cookieSecure: o.CookieSecure,
		devMode:      o.DevMode,
	}
}

func (c *Controller) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", c.handleRegister)
	mux.HandleFunc("POST /api/auth/login", c.handleLogin)
	mux.HandleFunc("GET /api/auth/me", c.handleMe)
	mux.HandleFunc("GET /api/auth/refresh", c.handleRefresh)
	mux.HandleFunc("POST /api/auth/logout", c.handleLogout)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

func (c *Controller) handleRegister(w http.ResponseWriter, r *http.Request) {
	p := platform.FromContext(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeError(w, r, "register", errValidation("request body must be valid JSON"))
		return
	}

	rec, err := c.uc.Register(r.Context(), RegisterInput(req), p)
	if err != nil {
		c.writeError(w, r, "register", err)
		return
	}

	obs.AuthOps.WithLabelValues("register", "ok").Inc()
	c.writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "registration successful",
		"userId":    rec.ID,
		"platform":  p,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Controller) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := platform.FromContext(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeError(w, r, "login", errValidation("request body must be valid JSON"))
		return
	}

	res, err := c.uc.Login(r.Context(), req.Email, req.Password, p)
	if err != nil {
		c.writeError(w, r, "login", err)
		return
	}

	body := map[string]any{
		"message":     "login successful",
		"accessToken": res.AccessToken,
		"user":        publicProfile(res.User),
		"platform":    p,
		"expiresIn":   c.uc.AccessTTL().String(),
	}
	if p == platform.Web {
		c.setRefreshCookie(w, res.RefreshToken, c.uc.RefreshTTL(p))
	} else {
		body["refreshToken"] = res.RefreshToken
	}

	obs.AuthOps.WithLabelValues("login", "ok").Inc()
	c.writeJSON(w, http.StatusOK, body)
}

func (c *Controller) handleMe(w http.ResponseWriter, r *http.Request) {
	tok := bearer(r)
	if tok == "" {
		c.writeError(w, r, "profile", errUnauthorized("missing access token"))
		return
	}

	rec, p, err := c.uc.Profile(r.Context(), tok)
	if err != nil {
		c.writeError(w, r, "profile", err)
		return
	}

	body := publicProfile(rec)
	body["lastLogin"] = rec.LastLogin
	body["platform"] = p

	obs.AuthOps.WithLabelValues("profile", "ok").Inc()
	c.writeJSON(w, http.StatusOK, body)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (c *Controller) handleRefresh(w http.ResponseWriter, r *http.Request) {
	p := platform.FromContext(r.Context())

	raw := c.refreshFromRequest(r, p)
	if raw == "" {
		c.writeError(w, r, "refresh", errUnauthorized("missing refresh token"))
		return
	}

	access, tokenPlatform, err := c.uc.Refresh(r.Context(), raw)
	if err != nil {
		c.writeError(w, r, "refresh", err)
		return
	}

	obs.AuthOps.WithLabelValues("refresh", "ok").Inc()
	c.writeJSON(w, http.StatusOK, map[string]any{
		"accessToken": access,
		"platform":    tokenPlatform,
		"expiresIn":   c.uc.AccessTTL().String(),
	})
}

func (c *Controller) handleLogout(w http.ResponseWriter, r *http.Request) {
	p := platform.FromContext(r.Context())

	c.uc.Logout(r.Context(), p)
	if p == platform.Web {
		c.clearRefreshCookie(w)
	}

	obs.AuthOps.WithLabelValues("logout", "ok").Inc()
	c.writeJSON(w, http.StatusOK, map[string]any{
		"message":   "logout successful",
		"platform":  p,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// refreshFromRequest extracts the refresh token the way the platform is
// expected to send it: cookie for web, JSON body for everything else, with an
// X-Refresh-Token header as a fallback for clients that cannot send a body.
func (c *Controller) refreshFromRequest(r *http.Request, p platform.Platform) string {
	if p == platform.Web {
		if ck, err := r.Cookie(c.cookieName); err == nil {
			return ck.Value
		}
		return ""
	}
	var req refreshRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
			return req.RefreshToken
		}
	}
	return r.Header.Get("X-Refresh-Token")
}

func (c *Controller) setRefreshCookie(w http.ResponseWriter, raw string, ttl time.Duration) {
	sameSite := http.SameSiteLaxMode
	if c.cookieSecure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    raw,
		Path:     c.cookiePath,
		Domain:   c.cookieDomain,
		HttpOnly: true,
		Secure:   c.cookieSecure,
		SameSite: sameSite,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl).UTC(),
	})
}

func (c *Controller) clearRefreshCookie(w http.ResponseWriter) {
	sameSite := http.SameSiteLaxMode
	if c.cookieSecure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    "",
		Path:     c.cookiePath,
		Domain:   c.cookieDomain,
		HttpOnly: true,
		Secure:   c.cookieSecure,
		SameSite: sameSite,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

func (c *Controller) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.log.Error("write response", zap.Error(err))
	}
}

// writeError maps the closed error taxonomy onto HTTP statuses. Anything that
// is not a tagged *Error is logged in full and reported as a bare 500; error
// detail leaves the process only in dev mode.
func (c *Controller) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ae *Error
	if !errors.As(err, &ae) {
		ae = errInternal("internal server error", err)
	}

	var status int
	switch ae.Kind {
	case KindValidation:
		status = http.StatusBadRequest
	case KindConflict:
		status = http.StatusConflict
	case KindUnauthorized:
		status = http.StatusUnauthorized
	case KindForbidden:
		status = http.StatusForbidden
	case KindNotFound:
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
	}

	obs.AuthOps.WithLabelValues(op, "error").Inc()

	body := map[string]any{"message": ae.Message}
	if ae.Code != "" {
		body["code"] = ae.Code
	}
	if status == http.StatusInternalServerError {
		c.log.Error("request failed",
			zap.String("op", op),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		body["message"] = "internal server error"
		if c.devMode {
			body["detail"] = err.Error()
		}
	}
	c.writeJSON(w, status, body)
}

func publicProfile(u *user.User) map[string]any {
	return map[string]any{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"mobile":    u.Mobile,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
}

func bearer(r *http.Request) string {
	v := r.Header.Get("Authorization")
	if v == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(v), "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return v
}
