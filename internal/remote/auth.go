package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/fjod/go_cart/storefront/domain"
)

const countryPrefix = "+91"

var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NormalizeIdentifier prefixes bare ten-digit mobile numbers with the country code.
// Anything else (an email) is passed through trimmed.
func NormalizeIdentifier(identifier string) string {
	id := strings.TrimSpace(identifier)
	if mobilePattern.MatchString(id) {
		return countryPrefix + id
	}
	return id
}

func (c *Client) Login(ctx context.Context, identifier, password string) Result[domain.LoginResponse] {
	return call[domain.LoginResponse](ctx, c, "login", http.MethodPost, "/auth/login", nil,
		loginRequest{Email: NormalizeIdentifier(identifier), Password: password})
}

func (c *Client) CurrentUserInfo(ctx context.Context) Result[domain.CurrentUserInfo] {
	return call[domain.CurrentUserInfo](ctx, c, "current_user_info", http.MethodGet, "/api/users/current-user-info", nil, nil)
}

func (c *Client) GetUser(ctx context.Context, userID int64) Result[domain.User] {
	return call[domain.User](ctx, c, "get_user", http.MethodGet, fmt.Sprintf("/api/users/%d", userID), nil, nil)
}

func (c *Client) Register(ctx context.Context, in domain.Registration) Result[domain.User] {
	in.Role = "CUSTOMER"
	if !strings.HasPrefix(in.PhoneNumber, countryPrefix) {
		in.PhoneNumber = countryPrefix + strings.TrimSpace(in.PhoneNumber)
	}
	return call[domain.User](ctx, c, "register", http.MethodPost, "/api/users/", nil, in)
}

func (c *Client) SendOTP(ctx context.Context, phone string) Result[string] {
	return call[string](ctx, c, "send_otp", http.MethodPost, "/sms/sendOtp",
		url.Values{"to": {NormalizeIdentifier(phone)}}, nil)
}

func (c *Client) VerifyOTP(ctx context.Context, phone, code string) Result[string] {
	return call[string](ctx, c, "verify_otp", http.MethodPost, "/sms/verifyOtp",
		url.Values{"to": {NormalizeIdentifier(phone)}, "code": {code}}, nil)
}

func (c *Client) ResendOTP(ctx context.Context, phone string) Result[string] {
	return call[string](ctx, c, "resend_otp", http.MethodPost, "/sms/resend-otp",
		url.Values{"phone": {NormalizeIdentifier(phone)}}, nil)
}
