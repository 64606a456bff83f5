package rest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetwatch/fleet-client/backendtest"
	"github.com/fleetwatch/fleet-client/models"
	"github.com/fleetwatch/fleet-client/rest"
	"github.com/fleetwatch/fleet-client/session"
)

func newClient(t *testing.T, s *backendtest.Server) (*rest.Client, *session.MemStore) {
	t.Helper()
	store := session.NewMemStore()
	return rest.New(s.URL(), 5*time.Second, store), store
}

func TestLogin(t *testing.T) {
	s := backendtest.New()
	defer s.Close()
	c, store := newClient(t, s)

	role, err := c.Login(context.Background(), store, s.Email, s.Password)
	require.NoError(t, err)

	assert.Equal(t, models.RoleLogisticsHead, role)
	assert.Equal(t, s.Token, store.Token())
	assert.Equal(t, models.RoleLogisticsHead, store.Role())
}

func TestLoginInvalidCredentials(t *testing.T) {
	s := backendtest.New()
	defer s.Close()
	c, store := newClient(t, s)

	_, err := c.Login(context.Background(), store, s.Email, "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.False(t, store.Authenticated())
}

func TestFetchMessages(t *testing.T) {
	s := backendtest.New()
	defer s.Close()
	c, _ := newClient(t, s)

	s.SetHistory("KA01AB1234", []models.TruckMessage{{
		ID:          "t1",
		TruckNumber: "KA01AB1234",
		Messages: []models.Message{
			{ID: "m1", Text: "drowsiness alert", Timestamp: "2026-08-30T10:00:00Z"},
		},
	}})

	batch, err := c.FetchMessages(context.Background(), "KA01AB1234")
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "KA01AB1234", batch[0].TruckNumber)
	assert.Equal(t, "drowsiness alert", batch[0].Messages[0].Text)
}

func TestFetchMessagesEmptyVehicle(t *testing.T) {
	s := backendtest.New()
	defer s.Close()
	c, _ := newClient(t, s)

	_, err := c.FetchMessages(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrEmptyVehicleNumber)
	assert.Equal(t, 0, s.FetchCount(""))
}

func TestFetchVehiclesRequiresToken(t *testing.T) {
	s := backendtest.New()
	defer s.Close()
	c, _ := newClient(t, s)

	_, err := c.FetchVehicles(context.Background())
	assert.ErrorIs(t, err, models.ErrMissingToken)
}

func TestFetchVehicles(t *testing.T) {
	s := backendtest.New()
	defer s.Close()
	c, store := newClient(t, s)
	require.NoError(t, store.SetCredentials(s.Token, s.Role))

	s.SetVehicles([]models.Vehicle{{ID: "v1", VehicleNumber: "KA01AB1234"}})

	vehicles, err := c.FetchVehicles(context.Background())
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "KA01AB1234", vehicles[0].VehicleNumber)
}

func TestAddVehicle(t *testing.T) {
	s := backendtest.New()
	defer s.Close()
	c, store := newClient(t, s)
	require.NoError(t, store.SetCredentials(s.Token, s.Role))

	msg, err := c.AddVehicle(context.Background(), "KA05XY9999")
	require.NoError(t, err)
	assert.Equal(t, "Vehicle created successfully", msg)

	vehicles, err := c.FetchVehicles(context.Background())
	require.NoError(t, err)
	assert.Len(t, vehicles, 1)
}

func TestFetchRoutes(t *testing.T) {
	s := backendtest.New()
	defer s.Close()
	c, store := newClient(t, s)
	require.NoError(t, store.SetCredentials(s.Token, s.Role))

	s.SetRoutes([]models.Route{{
		ID: "r1", DriverName: "Asha", VehicleNumber: "KA01AB1234",
		FromLocation: "Bengaluru", ToLocation: "Chennai", Status: "scheduled",
	}})

	routes, err := c.FetchRoutes(context.Background())
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "Asha", routes[0].DriverName)
}

func TestCreateRoute(t *testing.T) {
	s := backendtest.New()
	defer s.Close()
	c, store := newClient(t, s)
	require.NoError(t, store.SetCredentials(s.Token, s.Role))

	msg, err := c.CreateRoute(context.Background(), models.CreateRouteRequest{
		DriverName: "Asha", VehicleNumber: "KA01AB1234",
		FromLocation: "Bengaluru", ToLocation: "Chennai", Date: "2026-09-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Route created successfully", msg)
}

func TestAddDriver(t *testing.T) {
	s := backendtest.New()
	defer s.Close()
	c, store := newClient(t, s)
	require.NoError(t, store.SetCredentials(s.Token, s.Role))

	msg, err := c.AddDriver(context.Background(), models.AddDriverRequest{
		Name: "Asha", MobileNumber: "9999999999", Email: "asha@fleet.test",
	})
	require.NoError(t, err)
	assert.Equal(t, "Driver created successfully", msg)
}

func TestFetchProfile(t *testing.T) {
	s := backendtest.New()
	defer s.Close()
	c, store := newClient(t, s)
	require.NoError(t, store.SetCredentials(s.Token, s.Role))

	p, err := c.FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, s.Email, p.Email)
}

func TestSignupLogisticsHead(t *testing.T) {
	s := backendtest.New()
	defer s.Close()
	c, _ := newClient(t, s)

	err := c.SignupLogisticsHead(context.Background(), models.LogisticsSignup{
		Name: "New Head", Email: "new@fleet.test", Password: "secret",
		MobileNumber: "8888888888", CompanyName: "Fleet Co",
	})
	require.NoError(t, err)

	signups := s.Signups()
	require.Len(t, signups, 1)
	assert.Equal(t, "new@fleet.test", signups[0].Email)
}

func TestFetchDrivers(t *testing.T) {
	s := backendtest.New()
	defer s.Close()
	c, store := newClient(t, s)
	require.NoError(t, store.SetCredentials(s.Token, s.Role))

	s.SetDrivers([]models.Driver{{ID: "d1", Name: "Asha", Email: "asha@fleet.test"}})

	drivers, err := c.FetchDrivers(context.Background())
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, "Asha", drivers[0].Name)
}

func TestDriverProfileRoundTrip(t *testing.T) {
	s := backendtest.New()
	defer s.Close()
	c, store := newClient(t, s)
	require.NoError(t, store.SetCredentials(s.Token, s.Role))

	err := c.UpdateDriverProfile(context.Background(), models.Driver{
		ID: "d1", Name: "Asha", Email: "asha@fleet.test", LicenseNo: "KA-123",
	})
	require.NoError(t, err)

	d, err := c.FetchDriverProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Asha", d.Name)
	assert.Equal(t, "KA-123", d.LicenseNo)
}

func TestDecodeErrorSurfaced(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("not json at all"))
	}))
	defer broken.Close()

	c := rest.New(broken.URL, 5*time.Second, session.NewMemStore())
	_, err := c.FetchMessages(context.Background(), "KA01AB1234")

	var decodeErr *models.DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestServerErrorParsesBackendPayload(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": "vehicle already exists"}`))
	}))
	defer broken.Close()

	c := rest.New(broken.URL, 5*time.Second, session.NewMemStore())
	_, err := c.FetchMessages(context.Background(), "KA01AB1234")

	var serverErr *models.ServerError
	require.True(t, errors.As(err, &serverErr))
	assert.Equal(t, http.StatusConflict, serverErr.Status)
	assert.Equal(t, "vehicle already exists", serverErr.Body)
}

func TestServerErrorCarriesStatus(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer broken.Close()

	c := rest.New(broken.URL, 5*time.Second, session.NewMemStore())
	_, err := c.FetchMessages(context.Background(), "KA01AB1234")

	var serverErr *models.ServerError
	require.True(t, errors.As(err, &serverErr))
	assert.Equal(t, http.StatusInternalServerError, serverErr.Status)
	assert.Equal(t, "boom", serverErr.Body)
}
