package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Tokenus/internal/platform"
)

const (
	uaWeb    = "Mozilla/5.0 (X11; Linux x86_64) Firefox/113.0"
	uaMobile = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_5 like Mac OS X)"
)

func newTestServer(t *testing.T) (*httptest.Server, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	uc := NewUsecase(repo, fakeHasher{}, testIssuer(t, nil), nil, nil)
	ctrl := NewController(uc, Opts{DevMode: true})

	mux := http.NewServeMux()
	ctrl.RegisterRoutes(mux)

	srv := httptest.NewServer(platform.Middleware(mux))
	t.Cleanup(srv.Close)
	return srv, repo
}

func doJSON(t *testing.T, method, url, ua string, body any, extra func(*http.Request)) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", ua)
	if extra != nil {
		extra(req)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func registerAna(t *testing.T, srv *httptest.Server) {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", uaWeb, map[string]string{
		"name": "Ana", "email": "ana@x.com", "mobile": "0123456789", "password": "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func refreshCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "refresh_token" {
			return c
		}
	}
	return nil
}

func TestLogin_WebGetsCookieNotBody(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAna(t, srv)

	resp, data := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", uaWeb, map[string]string{
		"email": "ana@x.com", "password": "secret1",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.NotEmpty(t, body["accessToken"])
	assert.NotContains(t, body, "refreshToken")
	assert.Equal(t, "web", body["platform"])

	ck := refreshCookie(resp)
	require.NotNil(t, ck, "web login must set the refresh cookie")
	assert.True(t, ck.HttpOnly)
	assert.NotEmpty(t, ck.Value)
	assert.InDelta(t, int(7*24*time.Hour/time.Second), ck.MaxAge, 5)
}

func TestLogin_MobileGetsBodyNotCookie(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAna(t, srv)

	resp, data := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", uaMobile, map[string]string{
		"email": "ana@x.com", "password": "secret1",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.NotEmpty(t, body["refreshToken"])
	assert.Equal(t, "mobile", body["platform"])
	assert.Nil(t, refreshCookie(resp))
}

func TestLogin_EnumerationResistance(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAna(t, srv)

	respNoUser, bodyNoUser := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", uaWeb, map[string]string{
		"email": "ghost@x.com", "password": "secret1",
	}, nil)
	respBadPass, bodyBadPass := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", uaWeb, map[string]string{
		"email": "ana@x.com", "password": "wrong",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, respNoUser.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, respBadPass.StatusCode)
	assert.Equal(t, bodyNoUser, bodyBadPass, "responses must be byte-identical")
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAna(t, srv)

	resp, data := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", uaWeb, map[string]string{
		"name": "Ana", "email": "ANA@X.COM", "mobile": "0123456789", "password": "secret1",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(data), "already registered")
}

func TestMe_RequiresToken(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", uaWeb, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, data := doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", uaWeb, nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer garbage")
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(data), "TOKEN_INVALID")
}

func TestAuthFlow_EndToEnd_Web(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAna(t, srv)

	loginResp, loginData := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", uaWeb, map[string]string{
		"email": "ana@x.com", "password": "secret1",
	}, nil)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)

	var login struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(loginData, &login))
	ck := refreshCookie(loginResp)
	require.NotNil(t, ck)

	// profile with the access token
	resp, data := doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", uaWeb, nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+login.AccessToken)
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile map[string]any
	require.NoError(t, json.Unmarshal(data, &profile))
	assert.Equal(t, "Ana", profile["name"])
	assert.Equal(t, "web", profile["platform"])
	assert.NotContains(t, profile, "password")
	assert.NotContains(t, profile, "passwordHash")

	// refresh via the cookie
	resp, data = doJSON(t, http.MethodGet, srv.URL+"/api/auth/refresh", uaWeb, nil, func(r *http.Request) {
		r.AddCookie(ck)
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var refreshed struct {
		AccessToken string `json:"accessToken"`
		Platform    string `json:"platform"`
	}
	require.NoError(t, json.Unmarshal(data, &refreshed))
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, "web", refreshed.Platform)

	// logout clears the cookie
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/logout", uaWeb, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cleared := refreshCookie(resp)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.MaxAge < 0 || cleared.Expires.Before(time.Now()))
}

func TestRefresh_MissingToken(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, data := doJSON(t, http.MethodGet, srv.URL+"/api/auth/refresh", uaWeb, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(data), "missing refresh token")
}

func TestRefresh_MobileSendsBody(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAna(t, srv)

	_, loginData := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", uaMobile, map[string]string{
		"email": "ana@x.com", "password": "secret1",
	}, nil)
	var login struct {
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(loginData, &login))
	require.NotEmpty(t, login.RefreshToken)

	resp, data := doJSON(t, http.MethodGet, srv.URL+"/api/auth/refresh", uaMobile, map[string]string{
		"refreshToken": login.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var refreshed struct {
		Platform string `json:"platform"`
	}
	require.NoError(t, json.Unmarshal(data, &refreshed))
	assert.Equal(t, "mobile", refreshed.Platform)
}

func TestRefresh_ExpiredCookieIsForbidden(t *testing.T) {
	srv, repo := newTestServer(t)
	registerAna(t, srv)

	past := time.Now().UTC().Add(-8 * 24 * time.Hour)
	expired, err := testIssuer(t, func() time.Time { return past }).
		IssueRefresh(repo.byEmail["ana@x.com"].ID, platform.Web)
	require.NoError(t, err)

	resp, data := doJSON(t, http.MethodGet, srv.URL+"/api/auth/refresh", uaWeb, nil, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "refresh_token", Value: expired})
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(data), "REFRESH_TOKEN_INVALID")
}

func TestLogout_NonWebIsAcknowledgementOnly(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, data := doJSON(t, http.MethodPost, srv.URL+"/api/auth/logout", uaMobile, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, refreshCookie(resp))
	assert.Contains(t, string(data), "logout successful")
}
