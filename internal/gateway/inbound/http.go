package inbound

import (
	"context"

	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
	"github.com/shandysiswandi/otpdash/internal/gateway/usecase"
	"github.com/shandysiswandi/otpdash/internal/pkg/authn"
	"github.com/shandysiswandi/otpdash/internal/pkg/router"
)

type uc interface {
	Resolve(ctx context.Context, token string) (authn.Session, error)
	Home(ctx context.Context) string

	LoginPage(ctx context.Context) *usecase.LoginPageOutput
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Logout(ctx context.Context) (*usecase.LogoutOutput, error)

	Dashboard(ctx context.Context, in usecase.DashboardInput) (*usecase.DashboardOutput, error)
	ListTOTP(ctx context.Context) ([]entity.UserOTP, error)
	ListTOTPByLocalPart(ctx context.Context) ([]entity.UserOTP, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, cookie Cookie) {
	end := &HTTPEndpoint{uc: uc, cookie: cookie.withDefaults()}
	session := router.MiddlewareSession(uc, end.cookie.Name)

	r.GET("/", end.Home, session)

	// Session
	r.GET("/login", end.LoginPage, session)
	r.POST("/login", end.Login, session)
	r.GET("/logout", end.Logout, session)

	// OTP listings
	r.GET("/dashboard", end.Dashboard, session)
	r.GET("/api/totp", end.ListTOTP, session)
	r.GET("/api/get_totps", end.ListTOTPByLocalPart, session)
}
