package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"applet_portal/internal/domain"
)

// WalletHeader mirrors the backend's identity header.
const WalletHeader = "x-wallet-address"

// APIError is a non-2xx response from the portal backend.
type APIError struct {
	Status  int    // HTTP status code
	Message string // Server-supplied error message
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// API is a thin JSON client for the portal's REST surface. The session
// supplies the wallet identity header on every request.
type API struct {
	baseURL string
	http    *http.Client
	session *Session
}

// NewAPI creates a client for the portal at baseURL
func NewAPI(baseURL string, session *Session) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		session: session,
	}
}

// do runs one JSON request and decodes the response into dest
func (a *API) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.session != nil && a.session.WalletAddress != "" {
		req.Header.Set(WalletHeader, a.session.WalletAddress)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// LoginResult is the user record plus the advisory session token.
type LoginResult struct {
	domain.User
	Token string `json:"token"`
}

// Login registers the wallet (first-login upsert) and updates the
// session with the returned identity.
func (a *API) Login(ctx context.Context, walletAddress string) (*LoginResult, error) {
	var result LoginResult
	payload := map[string]string{"walletAddress": walletAddress}
	if err := a.do(ctx, http.MethodPost, "/api/auth/login", payload, &result); err != nil {
		return nil, err
	}
	if a.session != nil {
		a.session.WalletAddress = result.WalletAddress
		a.session.Token = result.Token
	}
	return &result, nil
}

// Applets fetches the catalog.
func (a *API) Applets(ctx context.Context) ([]domain.Applet, error) {
	var applets []domain.Applet
	err := a.do(ctx, http.MethodGet, "/api/applets", nil, &applets)
	return applets, err
}

// Applet fetches a single catalog entry.
func (a *API) Applet(ctx context.Context, id string) (*domain.Applet, error) {
	var applet domain.Applet
	if err := a.do(ctx, http.MethodGet, "/api/applets/"+id, nil, &applet); err != nil {
		return nil, err
	}
	return &applet, nil
}

// CreateExecution records an invocation attempt for the applet.
func (a *API) CreateExecution(ctx context.Context, appletID, walletAddress string) (*domain.Execution, error) {
	var execution domain.Execution
	payload := map[string]string{"appletId": appletID, "walletAddress": walletAddress}
	if err := a.do(ctx, http.MethodPost, "/api/executions", payload, &execution); err != nil {
		return nil, err
	}
	return &execution, nil
}

// Executions fetches the wallet's recent history.
func (a *API) Executions(ctx context.Context) ([]domain.Execution, error) {
	var executions []domain.Execution
	err := a.do(ctx, http.MethodGet, "/api/executions", nil, &executions)
	return executions, err
}

// ClearExecutions wipes the wallet's history.
func (a *API) ClearExecutions(ctx context.Context) error {
	return a.do(ctx, http.MethodDelete, "/api/executions", nil, nil)
}

// Settings fetches the wallet's settings (created lazily server-side).
func (a *API) Settings(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	if err := a.do(ctx, http.MethodGet, "/api/settings", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings upserts the wallet's settings.
func (a *API) SaveSettings(ctx context.Context, settings domain.Settings) (*domain.Settings, error) {
	var stored domain.Settings
	if err := a.do(ctx, http.MethodPut, "/api/settings", settings, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}
