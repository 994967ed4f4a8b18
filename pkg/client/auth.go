package client

import (
	"context"
	"encoding/json"
	"net/http"

	"bizdesk-service/internal/model"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, username, password string) (*model.User, error) {
	return c.signIn(ctx, "/api/auth/register", username, password)
}

// Login signs in. The session cookie is kept in the client's jar.
func (c *Client) Login(ctx context.Context, username, password string) (*model.User, error) {
	return c.signIn(ctx, "/api/auth/login", username, password)
}

// signIn drops every cached read: they belonged to the previous session.
func (c *Client) signIn(ctx context.Context, path, username, password string) (*model.User, error) {
	c.Purge()
	body, err := c.send(ctx, http.MethodPost, path, credentials{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Logout(ctx context.Context) error {
	defer c.Purge()
	_, err := c.send(ctx, http.MethodPost, "/api/auth/logout", nil)
	return err
}

// Me returns the signed-in user. It is never cached.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	body, err := c.send(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	_, err := c.send(ctx, http.MethodPost, "/api/auth/password", map[string]string{
		"currentPassword": current,
		"newPassword":     next,
	})
	return err
}
