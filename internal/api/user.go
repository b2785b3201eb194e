package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// UserClient covers the /user auth endpoints.
type UserClient struct {
	c *Client
}

func NewUserClient(c *Client) *UserClient { return &UserClient{c: c} }

// Login exchanges credentials for a bearer token. The envelope's data field
// carries the token string; an empty one is treated as a failed login.
func (uc *UserClient) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	var tok string
	if _, err := uc.c.getJSON(ctx, http.MethodPost, "/user/login", "application/json", bytes.NewReader(body), &tok); err != nil {
		return "", err
	}
	if tok == "" {
		return "", &APIError{Status: http.StatusOK, Message: "Login failed"}
	}
	return tok, nil
}

func (uc *UserClient) ChangePassword(ctx context.Context, current, next string) (string, error) {
	body, err := json.Marshal(map[string]string{"currentPassword": current, "newPassword": next})
	if err != nil {
		return "", err
	}
	return uc.c.getJSON(ctx, http.MethodPost, "/user/change-password", "application/json", bytes.NewReader(body), nil)
}
