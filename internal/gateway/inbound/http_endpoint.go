package inbound

import (
	"net/http"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
	"github.com/shandysiswandi/otpdash/internal/gateway/usecase"
	"github.com/shandysiswandi/otpdash/internal/pkg/authn"
	"github.com/shandysiswandi/otpdash/internal/pkg/router"
)

// HTTPEndpoint exposes the session and OTP listing handlers.
type HTTPEndpoint struct {
	uc     uc
	cookie Cookie
}

// staleCookies clears the session cookie when its token matched nothing.
func (h *HTTPEndpoint) staleCookies(r *router.Request) []*http.Cookie {
	if authn.GetSession(r.Context()).State != authn.Rejected {
		return nil
	}
	return []*http.Cookie{h.cookie.clear(r)}
}

func (h *HTTPEndpoint) Home(r *router.Request) (any, error) {
	return router.Redirect{To: h.uc.Home(r.Context()), SetCookies: h.staleCookies(r)}, nil
}

// LoginPage redirects signed-in visitors and otherwise describes the form.
func (h *HTTPEndpoint) LoginPage(r *router.Request) (any, error) {
	out := h.uc.LoginPage(r.Context())
	if out.RedirectTo != "" {
		return router.Redirect{To: out.RedirectTo}, nil
	}

	resp := LoginPageResponse{Action: usecase.PathLogin, Fields: []string{"email", "password"}}
	if out.ClearToken {
		resp.cookies = []*http.Cookie{h.cookie.clear(r)}
	}
	return resp, nil
}

// Login accepts form or JSON credentials. Success sets the session cookie
// and redirects; every failure answers 401 with the same message.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.FormOrJSON(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	if out.Token == "" {
		return router.Redirect{To: out.RedirectTo}, nil
	}

	return router.Redirect{
		To:         out.RedirectTo,
		SetCookies: []*http.Cookie{h.cookie.issue(r, out.Token, out.ExpiresAt)},
	}, nil
}

func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	out, err := h.uc.Logout(r.Context())
	if err != nil {
		return nil, err
	}

	return router.Redirect{
		To:         out.RedirectTo,
		SetCookies: []*http.Cookie{h.cookie.clear(r)},
	}, nil
}

func (h *HTTPEndpoint) Dashboard(r *router.Request) (any, error) {
	out, err := h.uc.Dashboard(r.Context(), usecase.DashboardInput{
		SearchQuery: r.GetQuery("search_query"),
	})
	if err != nil {
		return nil, err
	}

	if out.RedirectTo != "" {
		resp := router.Redirect{To: out.RedirectTo}
		if out.ClearToken {
			resp.SetCookies = []*http.Cookie{h.cookie.clear(r)}
		}
		return resp, nil
	}

	return DashboardResponse{
		Users: lo.Map(out.Users, func(u entity.UserOTP, _ int) DashboardUser {
			return DashboardUser{Email: u.Email, OTP: u.Code}
		}),
		SearchQuery: out.SearchQuery,
	}, nil
}

func (h *HTTPEndpoint) ListTOTP(r *router.Request) (any, error) {
	codes, err := h.uc.ListTOTP(r.Context())
	if err != nil {
		return nil, err
	}

	return TOTPResponse{
		Data: lo.Map(codes, func(c entity.UserOTP, _ int) TOTPItem {
			return TOTPItem{Email: c.Email, TOTP: c.Code}
		}),
		cookies: h.staleCookies(r),
	}, nil
}

func (h *HTTPEndpoint) ListTOTPByLocalPart(r *router.Request) (any, error) {
	codes, err := h.uc.ListTOTPByLocalPart(r.Context())
	if err != nil {
		return nil, err
	}

	return LocalPartResponse{
		Users: lo.Map(codes, func(c entity.UserOTP, _ int) LocalPartItem {
			return LocalPartItem{Email: c.Email, OTP: c.Code}
		}),
		cookies: h.staleCookies(r),
	}, nil
}
