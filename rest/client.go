// Package rest issues the authenticated HTTP calls the app makes against the
// fleet backend: login, entity CRUD, profiles and the vehicle message history
// used for feed reconciliation.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fleetwatch/fleet-client/models"
	"github.com/fleetwatch/fleet-client/session"
)

// Client is an explicitly constructed REST client. It carries the base URL
// and the session store; there is no package-level singleton.
type Client struct {
	baseURL string
	http    *http.Client
	session session.Store
}

// New creates a REST client against baseURL using the given session store
func New(baseURL string, timeout time.Duration, store session.Store) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		session: store,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}, authed bool) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token := c.session.Token()
		if token == "" {
			return nil, models.ErrMissingToken
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do executes the request and decodes a 2xx body into out (when non-nil).
// Non-2xx statuses are mapped onto the shared error taxonomy.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		zap.S().Debugw("request failed",
			"url", req.URL.Path,
			"status", resp.StatusCode,
		)
		if resp.StatusCode == http.StatusUnauthorized {
			return models.ErrInvalidCredentials
		}
		body := string(b)
		var em models.ErrorMessageResponse
		if json.Unmarshal(b, &em) == nil && em.Text() != "" {
			body = em.Text()
		}
		return &models.ServerError{Status: resp.StatusCode, Body: body}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.DecodeError{Err: err}
	}
	return nil
}

// Login authenticates against the backend and, on success, writes the token
// and role into the session store. The role string is resolved into a tagged
// Role exactly once here; if the response omits it, the token claims are
// consulted instead.
func (c *Client) Login(ctx context.Context, store session.Writer, email, password string) (models.Role, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/login", models.LoginRequest{Email: email, Password: password}, false)
	if err != nil {
		return "", err
	}
	var lr models.LoginResponse
	if err := c.do(req, &lr); err != nil {
		if _, ok := err.(*models.ServerError); ok {
			// any non-200 on login means bad credentials to the app
			return "", models.ErrInvalidCredentials
		}
		return "", err
	}

	role, err := models.ParseRole(lr.Role)
	if err != nil {
		role, err = session.RoleFromToken(lr.Token)
		if err != nil {
			return "", fmt.Errorf("login succeeded but role is unknown: %w", err)
		}
	}
	if err := store.SetCredentials(lr.Token, role); err != nil {
		return "", err
	}
	zap.S().Infow("logged in", "role", role)
	return role, nil
}

// SignupLogisticsHead registers a new logistics head account
func (c *Client) SignupLogisticsHead(ctx context.Context, su models.LogisticsSignup) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/users/signup/logistics-head", su, false)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// FetchMessages returns the full message history for one vehicle. The batch
// replaces prior state wholesale; it is never an incremental diff. The
// endpoint takes no auth header, matching the deployed backend.
func (c *Client) FetchMessages(ctx context.Context, vehicleNumber string) ([]models.TruckMessage, error) {
	if vehicleNumber == "" {
		return nil, models.ErrEmptyVehicleNumber
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/vehicles/messages/"+vehicleNumber, nil, false)
	if err != nil {
		return nil, err
	}
	var batch []models.TruckMessage
	if err := c.do(req, &batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// FetchVehicles returns all vehicles visible to the signed-in logistics head
func (c *Client) FetchVehicles(ctx context.Context) ([]models.Vehicle, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/vehicles/getvehicles", nil, true)
	if err != nil {
		return nil, err
	}
	var vehicles []models.Vehicle
	if err := c.do(req, &vehicles); err != nil {
		return nil, err
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	return vehicles, nil
}

// AddVehicle registers a vehicle by number and returns the server message
func (c *Client) AddVehicle(ctx context.Context, vehicleNumber string) (string, error) {
	if vehicleNumber == "" {
		return "", models.ErrEmptyVehicleNumber
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/vehicles/add", map[string]string{"vehicleNumber": vehicleNumber}, true)
	if err != nil {
		return "", err
	}
	var resp map[string]string
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp["message"], nil
}

// FetchDrivers returns all drivers visible to the signed-in logistics head
func (c *Client) FetchDrivers(ctx context.Context) ([]models.Driver, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/drivers/getdrivers", nil, true)
	if err != nil {
		return nil, err
	}
	var drivers []models.Driver
	if err := c.do(req, &drivers); err != nil {
		return nil, err
	}
	if drivers == nil {
		drivers = []models.Driver{}
	}
	return drivers, nil
}

// AddDriver registers a driver and returns the server message
func (c *Client) AddDriver(ctx context.Context, add models.AddDriverRequest) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/drivers/add-driver", add, true)
	if err != nil {
		return "", err
	}
	var resp map[string]string
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp["message"], nil
}

// FetchRoutes returns all routes
func (c *Client) FetchRoutes(ctx context.Context) ([]models.Route, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/routes/getroutes", nil, true)
	if err != nil {
		return nil, err
	}
	var rr models.RouteResponse
	if err := c.do(req, &rr); err != nil {
		return nil, err
	}
	return rr.Routes, nil
}

// CreateRoute creates a route and returns the server message
func (c *Client) CreateRoute(ctx context.Context, cr models.CreateRouteRequest) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/routes/create-route", cr, true)
	if err != nil {
		return "", err
	}
	var resp map[string]string
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp["message"], nil
}

// FetchProfile returns the signed-in user's profile
func (c *Client) FetchProfile(ctx context.Context) (*models.UserProfile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/users/profile", nil, true)
	if err != nil {
		return nil, err
	}
	var p models.UserProfile
	if err := c.do(req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FetchDriverProfile returns the signed-in driver's detail record
func (c *Client) FetchDriverProfile(ctx context.Context) (*models.Driver, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/drivers/driverdetail", nil, true)
	if err != nil {
		return nil, err
	}
	var d models.Driver
	if err := c.do(req, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDriverProfile replaces the signed-in driver's detail record
func (c *Client) UpdateDriverProfile(ctx context.Context, d models.Driver) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/updateDriverProfile", d, true)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
