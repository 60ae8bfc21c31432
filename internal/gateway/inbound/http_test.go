package inbound

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	libotp "github.com/pquerna/otp"
	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
	"github.com/shandysiswandi/otpdash/internal/gateway/outbound/memory"
	"github.com/shandysiswandi/otpdash/internal/gateway/usecase"
	"github.com/shandysiswandi/otpdash/internal/pkg/clock"
	"github.com/shandysiswandi/otpdash/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpdash/internal/pkg/hash"
	"github.com/shandysiswandi/otpdash/internal/pkg/instrument"
	"github.com/shandysiswandi/otpdash/internal/pkg/otp"
	"github.com/shandysiswandi/otpdash/internal/pkg/router"
	"github.com/shandysiswandi/otpdash/internal/pkg/uid"
	"github.com/shandysiswandi/otpdash/internal/pkg/validator"
)

// werkzeug pbkdf2 hash of "pw123".
const pw123Hash = "pbkdf2:sha1:1000$Zx8kQpLm2aB4cD6e$174d3a0de458fdff4544d012605c98f0b61d9b71"

// RFC 6238 code of JBSWY3DPEHPK3PXP at unix 1700000000.
const wantCode = "324550"

func newServer(t *testing.T, cookie Cookie) http.Handler {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	mem := memory.New()
	mem.AddUser(entity.User{Email: "u@test.com", Password: pw123Hash})
	mem.AddUserAuthData(entity.UserAuthData{ID: "u@test.com", Email: "u@test.com", OTPSecret: "JBSWY3DPEHPK3PXP"})
	mem.AddUserAuthData(entity.UserAuthData{ID: "broken@test.com", Email: "broken@test.com", OTPSecret: "not base32!"})

	uc := usecase.New(usecase.Dependency{
		RepoUser:    mem,
		RepoSession: mem,
		Password:    hash.NewWerkzeug(),
		Token:       uid.NewToken(uid.DefaultTokenBytes),
		Totp:        otp.NewTOTP(30, 0, libotp.DigitsSix),
		Clock:       clock.NewManual(time.Unix(1700000000, 0)),
		Validator:   v,
		Goroutine:   goroutine.NewManager(1, time.Second),
		Instrument:  instrument.NewNoop(),
	})

	r := router.NewRouter(router.Config{Instrument: instrument.NewNoop()})
	RegisterHTTPEndpoint(r, uc, cookie)
	return r
}

func do(h http.Handler, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func formLogin(email, password string) *http.Request {
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, to string) {
	t.Helper()

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != to {
		t.Fatalf("expected 302 to %s, got %d %q", to, rec.Code, rec.Header().Get("Location"))
	}
}

func TestLoginToListingFlow(t *testing.T) {

	// Arrange
	h := newServer(t, Cookie{})

	// Act
	login := do(h, formLogin("u@test.com", "pw123"))

	// Assert
	assertRedirect(t, login, usecase.PathDashboard)
	sess := findCookie(login, DefaultCookieName)
	if sess == nil || sess.Value == "" {
		t.Fatalf("expected session cookie, got %v", login.Result().Cookies())
	}
	if !sess.HttpOnly || sess.SameSite != http.SameSiteLaxMode || sess.Secure || sess.Path != "/" {
		t.Fatalf("unexpected cookie attributes %+v", sess)
	}

	t.Run("APITOTP", func(t *testing.T) {

		// Act
		rec := do(h, httptest.NewRequest(http.MethodGet, "/api/totp", nil), sess)

		// Assert
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var body TOTPResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Data) != 1 || body.Data[0].Email != "u@test.com" || body.Data[0].TOTP != wantCode {
			t.Fatalf("unexpected listing %s", rec.Body.String())
		}
	})

	t.Run("APIGetTOTPs", func(t *testing.T) {

		// Act
		rec := do(h, httptest.NewRequest(http.MethodGet, "/api/get_totps", nil))

		// Assert
		if strings.TrimSpace(rec.Body.String()) != `{"users":[{"email":"u","otp":"`+wantCode+`"}]}` {
			t.Fatalf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("Dashboard", func(t *testing.T) {

		// Act
		rec := do(h, httptest.NewRequest(http.MethodGet, "/dashboard?search_query=U%40", nil), sess)

		// Assert
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var body DashboardResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.SearchQuery != "U@" || len(body.Users) != 1 || body.Users[0].OTP != wantCode {
			t.Fatalf("unexpected dashboard %s", rec.Body.String())
		}
	})

	t.Run("DashboardSearchKeepsSpaces", func(t *testing.T) {

		// Act
		rec := do(h, httptest.NewRequest(http.MethodGet, "/dashboard?search_query=%20u%40", nil), sess)

		// Assert
		var body DashboardResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.SearchQuery != " u@" || len(body.Users) != 0 {
			t.Fatalf("unexpected dashboard %s", rec.Body.String())
		}
	})

	t.Run("AlreadySignedIn", func(t *testing.T) {

		// Act
		page := do(h, httptest.NewRequest(http.MethodGet, "/login", nil), sess)
		again := do(h, formLogin("u@test.com", "whatever"), sess)
		home := do(h, httptest.NewRequest(http.MethodGet, "/", nil), sess)

		// Assert
		assertRedirect(t, page, usecase.PathDashboard)
		assertRedirect(t, again, usecase.PathDashboard)
		assertRedirect(t, home, usecase.PathDashboard)
		if findCookie(again, DefaultCookieName) != nil {
			t.Fatalf("expected no new cookie on repeated login")
		}
	})

	t.Run("LogoutThenStaleCookie", func(t *testing.T) {

		// Act
		logout := do(h, httptest.NewRequest(http.MethodGet, "/logout", nil), sess)
		dash := do(h, httptest.NewRequest(http.MethodGet, "/dashboard", nil), sess)

		// Assert
		assertRedirect(t, logout, usecase.PathLogin)
		if c := findCookie(logout, DefaultCookieName); c == nil || c.MaxAge >= 0 {
			t.Fatalf("expected cookie to be cleared, got %+v", c)
		}
		assertRedirect(t, dash, usecase.PathLogin)
		if c := findCookie(dash, DefaultCookieName); c == nil || c.MaxAge >= 0 {
			t.Fatalf("expected stale cookie to be cleared, got %+v", c)
		}
	})
}

func TestLoginFailure(t *testing.T) {
	tests := []struct {
		name string
		req  *http.Request
	}{
		{name: "WrongPassword", req: formLogin("u@test.com", "nope")},
		{name: "UnknownUser", req: formLogin("nobody@test.com", "pw123")},
		{name: "JSONWrongPassword", req: func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"u@test.com","password":"x"}`))
			req.Header.Set("Content-Type", "application/json")
			return req
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {

			// Arrange
			h := newServer(t, Cookie{})

			// Act
			rec := do(h, tt.req)

			// Assert
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if strings.TrimSpace(rec.Body.String()) != `{"message":"Invalid email or password"}` {
				t.Fatalf("unexpected body %s", rec.Body.String())
			}
			if findCookie(rec, DefaultCookieName) != nil {
				t.Fatalf("failed login must not set a cookie")
			}
		})
	}
}

func TestAnonymous(t *testing.T) {

	// Arrange
	h := newServer(t, Cookie{})

	// Act
	home := do(h, httptest.NewRequest(http.MethodGet, "/", nil))
	dash := do(h, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	page := do(h, httptest.NewRequest(http.MethodGet, "/login", nil))
	logout := do(h, httptest.NewRequest(http.MethodGet, "/logout", nil))

	// Assert
	assertRedirect(t, home, usecase.PathLogin)
	assertRedirect(t, dash, usecase.PathLogin)
	assertRedirect(t, logout, usecase.PathLogin)
	if page.Code != http.StatusOK || !strings.Contains(page.Body.String(), `"fields":["email","password"]`) {
		t.Fatalf("unexpected login page %d %s", page.Code, page.Body.String())
	}
	if findCookie(dash, DefaultCookieName) != nil {
		t.Fatalf("anonymous redirect must not touch cookies")
	}
}

func TestStaleCookieIsCleared(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{name: "Home", path: "/", wantCode: http.StatusFound},
		{name: "APITOTP", path: "/api/totp", wantCode: http.StatusOK},
		{name: "APIGetTOTPs", path: "/api/get_totps", wantCode: http.StatusOK},
		{name: "LoginPage", path: "/login", wantCode: http.StatusOK},
		{name: "Dashboard", path: "/dashboard", wantCode: http.StatusFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {

			// Arrange
			h := newServer(t, Cookie{})
			stale := &http.Cookie{Name: DefaultCookieName, Value: "unknown-token"}

			// Act
			rec := do(h, httptest.NewRequest(http.MethodGet, tt.path, nil), stale)

			// Assert
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if c := findCookie(rec, DefaultCookieName); c == nil || c.MaxAge >= 0 {
				t.Fatalf("expected stale cookie to be cleared, got %+v", c)
			}
		})
	}

	t.Run("ValidCookieIsKept", func(t *testing.T) {

		// Arrange
		h := newServer(t, Cookie{})
		sess := findCookie(do(h, formLogin("u@test.com", "pw123")), DefaultCookieName)

		// Act
		rec := do(h, httptest.NewRequest(http.MethodGet, "/api/totp", nil), sess)

		// Assert
		if findCookie(rec, DefaultCookieName) != nil {
			t.Fatalf("expected a valid session to leave the cookie alone")
		}
	})
}

func TestCookieSecure(t *testing.T) {
	tests := []struct {
		name   string
		secure string
		proto  string
		want   bool
	}{
		{name: "AutoPlain", secure: SecureAuto, want: false},
		{name: "AutoForwardedHTTPS", secure: SecureAuto, proto: "https", want: true},
		{name: "Always", secure: SecureAlways, want: true},
		{name: "NeverBehindHTTPS", secure: SecureNever, proto: "https", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {

			// Arrange
			h := newServer(t, Cookie{Name: "sid", Secure: tt.secure})
			req := formLogin("u@test.com", "pw123")
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}

			// Act
			rec := do(h, req)

			// Assert
			c := findCookie(rec, "sid")
			if c == nil {
				t.Fatalf("expected cookie named sid")
			}
			if c.Secure != tt.want {
				t.Fatalf("expected Secure=%v, got %v", tt.want, c.Secure)
			}
		})
	}
}
