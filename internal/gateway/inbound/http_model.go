package inbound

import "net/http"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPageResponse describes the login form in place of the rendered page.
type LoginPageResponse struct {
	Action string   `json:"action"`
	Fields []string `json:"fields"`

	cookies []*http.Cookie
}

func (LoginPageResponse) Message() string { return "Please sign in" }

func (r LoginPageResponse) Cookies() []*http.Cookie { return r.cookies }

type DashboardUser struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type DashboardResponse struct {
	Users       []DashboardUser `json:"users"`
	SearchQuery string          `json:"search_query"`
}

func (DashboardResponse) NoEnvelope() {}

type TOTPItem struct {
	Email string `json:"email"`
	TOTP  string `json:"totp"`
}

// TOTPResponse is the /api/totp document.
type TOTPResponse struct {
	Data []TOTPItem `json:"data"`

	cookies []*http.Cookie
}

func (TOTPResponse) NoEnvelope() {}

func (r TOTPResponse) Cookies() []*http.Cookie { return r.cookies }

type LocalPartItem struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// LocalPartResponse is the /api/get_totps document.
type LocalPartResponse struct {
	Users []LocalPartItem `json:"users"`

	cookies []*http.Cookie
}

func (LocalPartResponse) NoEnvelope() {}

func (r LocalPartResponse) Cookies() []*http.Cookie { return r.cookies }
