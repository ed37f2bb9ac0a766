package api

import (
	"context"
	"strings"
)

// User is the authenticated identity record.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	Admin bool   `json:"is_admin,omitempty"`
}

// IsAdmin reports whether the user carries the admin role in either of
// the payload shapes the backend emits.
func (u User) IsAdmin() bool {
	return u.Admin || u.Role == "admin"
}

// AuthResponse is the login/register payload.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Login exchanges credentials for a token. The email is trimmed so stray
// whitespace does not read as incorrect credentials.
func (c *Client) Login(ctx context.Context, email, password string, remember bool) (AuthResponse, error) {
	var out AuthResponse
	err := c.post(ctx, "/auth/login", loginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
		Remember: remember,
	}, &out)
	return out, err
}

// Register creates an account and returns a token like Login does.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.post(ctx, "/auth/register", req, &out)
	return out, err
}

// Me returns the identity behind the current token. The backend wraps
// the record in {"user": ...} on some deployments and sends it bare on
// others; both are accepted.
func (c *Client) Me(ctx context.Context) (User, error) {
	var out struct {
		User
		Wrapped *User `json:"user"`
	}
	if err := c.get(ctx, "/auth/me", &out); err != nil {
		return User{}, err
	}
	if out.Wrapped != nil {
		return *out.Wrapped, nil
	}
	return out.User, nil
}

// Logout revokes the token server side. Best effort: callers clear local
// state regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/auth/logout", nil, nil)
}
