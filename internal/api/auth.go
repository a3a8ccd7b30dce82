package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Identity is the authenticated user as reported by the backend.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Login exchanges credentials for a bearer token and installs it on the
// client. The backend expects an OAuth2 password form with the email in
// the username field.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := c.postForm(ctx, "/auth/token", form, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("backend returned an empty token")
	}
	c.token = out.AccessToken
	return out.AccessToken, nil
}

// Me returns the identity behind the current token.
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	var id Identity
	if err := c.getJSON(ctx, "/auth/me", &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// unmarshalFrame decodes a raw socket frame, shared by chat parsing.
func unmarshalFrame(frame []byte, out any) error {
	if err := json.Unmarshal(frame, out); err != nil {
		return fmt.Errorf("decoding frame: %w", err)
	}
	return nil
}
