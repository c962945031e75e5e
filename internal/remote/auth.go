package remote

import (
	"context"
	"fmt"
	"net/http"

	"storefront/internal/domain"
)

// AuthResponse is the payload of a successful login or registration.
type AuthResponse struct {
	User   domain.Identity `json:"user"`
	Tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
}

// Credentials returns the issued token pair.
func (r AuthResponse) Credentials() domain.Credentials {
	return domain.Credentials{AccessToken: r.Tokens.Access, RefreshToken: r.Tokens.Refresh}
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile resolves the identity bound to an access token.
func (c *Client) Profile(ctx context.Context, accessToken string) (*domain.Identity, error) {
	var out domain.Identity
	if err := c.do(ctx, http.MethodGet, "/auth/profile/", accessToken, nil, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 && out.Email == "" && out.Username == "" {
		return nil, fmt.Errorf("%w: empty profile", ErrMalformedResponse)
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login/", "", loginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.Tokens.Access == "" {
		return nil, fmt.Errorf("%w: login without access token", ErrMalformedResponse)
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register/", "", in, &out); err != nil {
		return nil, err
	}
	if out.Tokens.Access == "" {
		return nil, fmt.Errorf("%w: registration without access token", ErrMalformedResponse)
	}
	return &out, nil
}
