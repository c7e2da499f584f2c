package orgclient

import (
	"context"
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates with the API and persists the returned token in the
// token store. Subsequent calls on this client are made as the logged-in
// user.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := c.post(ctx, "/api/org/auth/login", loginRequest{Email: email, Password: password}, &session)
	if err != nil {
		return nil, err
	}
	if err := c.tokens.SetToken(session.Token); err != nil {
		return nil, err
	}
	c.logger.Info("logged in", "user_id", session.User.ID, "org_id", session.User.OrgID)
	return &session, nil
}

// Logout ends the session. Revocation is best-effort: a failed request is
// logged and not returned, and the stored token is cleared either way so the
// local session always ends.
func (c *Client) Logout(ctx context.Context) {
	if c.tokens.Token() != "" {
		if _, err := c.do(ctx, http.MethodPost, "/api/org/auth/logout", nil, nil); err != nil {
			c.logger.Warn("logout request failed", "error", err)
		}
	}
	if err := c.tokens.Clear(); err != nil {
		c.logger.Warn("failed to clear session token", "error", err)
	}
}

// Refresh exchanges the current token for a fresh one and persists it.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	var session Session
	err := c.post(ctx, "/api/org/auth/refresh", nil, &session)
	if err != nil {
		return nil, err
	}
	if err := c.tokens.SetToken(session.Token); err != nil {
		return nil, err
	}
	return &session, nil
}
