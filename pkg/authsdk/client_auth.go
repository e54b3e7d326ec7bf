package authsdk

import (
	"context"
	"net/http"
)

// Register creates a USER account.
func (c *SDKClient) Register(ctx context.Context, email, password string) (*MessageResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/register", RegisterRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var msg MessageResponse
	if err := decodeJSON(resp, &msg, http.StatusOK); err != nil {
		return nil, err
	}

	return &msg, nil
}

// Login exchanges an email and password for a token pair.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	return c.login(ctx, "/auth/login", email, password)
}

// AdminLogin is Login restricted to ADMIN accounts.
func (c *SDKClient) AdminLogin(ctx context.Context, email, password string) (*TokenResponse, error) {
	return c.login(ctx, "/auth/admin/login", email, password)
}

func (c *SDKClient) login(ctx context.Context, path, email, password string) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, path, LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}

// Refresh consumes refreshToken and returns a new pair. A refresh token can
// be used only once.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}

// Logout revokes refreshToken. The server answers 200 whether or not the
// token was valid, so an error here means a transport failure.
func (c *SDKClient) Logout(ctx context.Context, refreshToken string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/logout", RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}

	var msg MessageResponse
	return decodeJSON(resp, &msg, http.StatusOK)
}
