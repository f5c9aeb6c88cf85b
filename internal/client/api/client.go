// Package api implements the HTTP client for the backend auth endpoints.
// Every call site funnels through the same response handling: a 401 or 403
// from any endpoint clears the local session and broadcasts an
// invalidation signal on the event bus.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arelunainstituto/financeerp/internal/api/dto"
	"github.com/arelunainstituto/financeerp/internal/client/events"
	"github.com/arelunainstituto/financeerp/internal/client/session"
	"github.com/arelunainstituto/financeerp/internal/domain"
)

var (
	// ErrUnauthorized marks an authentication-specific rejection (401/403).
	ErrUnauthorized = errors.New("server rejected credential")

	// ErrMalformedLoginResponse marks a login response missing the user or
	// the token. The whole login is treated as failed.
	ErrMalformedLoginResponse = errors.New("malformed login response")

	// ErrNetwork wraps transport and non-auth server failures.
	ErrNetwork = errors.New("network fault")
)

// Client talks to the backend API.
type Client struct {
	baseURL string
	http    *http.Client
	bus     *events.Bus
	store   session.Store
	logger  *zap.Logger
}

// New builds a client. The bus and store are the rejection side effects:
// they are owned elsewhere and only driven from here.
func New(baseURL string, timeout time.Duration, bus *events.Bus, store session.Store, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		bus:     bus,
		store:   store,
		logger:  logger,
	}
}

// Login authenticates and returns the identity with its credential.
func (c *Client) Login(ctx context.Context, email, password string) (string, *domain.Identity, error) {
	body, err := json.Marshal(dto.LoginRequest{Email: email, Password: password})
	if err != nil {
		return "", nil, err
	}

	var resp struct {
		Data dto.AuthResponse `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", bytes.NewReader(body), &resp); err != nil {
		return "", nil, err
	}

	if resp.Data.Token == "" || resp.Data.User.ID == "" || resp.Data.User.Email == "" {
		return "", nil, ErrMalformedLoginResponse
	}
	return resp.Data.Token, &domain.Identity{UserID: resp.Data.User.ID, Email: resp.Data.User.Email}, nil
}

// Verify asks the server whether the credential is still valid.
// Any non-2xx status or malformed body is a failure; (false, nil, nil)
// means the server answered and declined.
func (c *Client) Verify(ctx context.Context, token string) (bool, *domain.Identity, error) {
	var resp dto.VerifyResponse
	if err := c.do(ctx, http.MethodGet, "/auth/verify", token, nil, &resp); err != nil {
		return false, nil, err
	}
	if !resp.Valid || resp.User == nil {
		return false, nil, nil
	}
	return true, &domain.Identity{UserID: resp.User.ID, Email: resp.User.Email}, nil
}

// Me fetches the authenticated profile, a representative protected call
// site: a rejection here drives the same invalidation path as any other.
func (c *Client) Me(ctx context.Context, token string) (*domain.Identity, error) {
	var resp struct {
		Data dto.UserPayload `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &resp); err != nil {
		return nil, err
	}
	return &domain.Identity{UserID: resp.Data.ID, Email: resp.Data.Email}, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.handleAuthRejection(ctx, path)
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s: status %d", ErrNetwork, method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrNetwork, err)
		}
	}
	return nil
}

// handleAuthRejection clears the stored session, then broadcasts so the
// monitor drops its in-memory identity in the same tick. Clearing is the
// call site's responsibility; the bus handler deliberately does not do it.
func (c *Client) handleAuthRejection(ctx context.Context, path string) {
	c.logger.Info("server rejected credential, invalidating session", zap.String("path", path))
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear session after rejection", zap.Error(err))
	}
	c.bus.Emit()
}
