package api

import (
	"context"
	"net/http"
)

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// User is the authenticated upstream user.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// TokenResponse is the upstream auth payload.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Login authenticates with email + password and installs the returned
// tokens on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	var resp TokenResponse
	_, err := c.do(ctx, http.MethodPost, "/auth/login", nil,
		loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	c.SetTokens(resp.AccessToken, resp.RefreshToken)
	return &resp, nil
}

// Refresh exchanges the stored refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context) (*TokenResponse, error) {
	c.mu.RLock()
	refresh := c.refreshToken
	c.mu.RUnlock()

	var resp TokenResponse
	_, err := c.do(ctx, http.MethodPost, "/auth/refresh", nil,
		refreshRequest{RefreshToken: refresh}, &resp)
	if err != nil {
		return nil, err
	}
	c.SetTokens(resp.AccessToken, resp.RefreshToken)
	return &resp, nil
}
