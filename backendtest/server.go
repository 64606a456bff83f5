// Package backendtest runs an in-process stand-in for the fleet backend:
// the REST surface the client consumes plus a websocket endpoint speaking
// the named-event envelope. Package tests point both clients at it.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/fleetwatch/fleet-client/models"
)

// Server is the fake backend. Fixture fields may be set before the first
// request; counters are safe to read at any time.
type Server struct {
	Email    string
	Password string
	Token    string
	Role     models.Role

	mu           sync.Mutex
	history      map[string][]models.TruckMessage
	vehicles     []models.Vehicle
	drivers      []models.Driver
	driverDetail models.Driver
	signups      []models.LogisticsSignup
	routes       []models.Route
	fetchCount   map[string]int
	dialCount    int
	joins        []string
	endRoutes    []string
	sent         []models.Envelope
	rooms        map[*websocket.Conn]string

	httpServer *httptest.Server
	upgrader   websocket.Upgrader
}

// New starts the fake backend with default credentials
func New() *Server {
	s := &Server{
		Email:      "head@fleet.test",
		Password:   "hunter2",
		Token:      "test-token-abc123",
		Role:       models.RoleLogisticsHead,
		history:    make(map[string][]models.TruckMessage),
		fetchCount: make(map[string]int),
		rooms:      make(map[*websocket.Conn]string),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/auth/login", s.loginHandler).Methods("POST")
	r.HandleFunc("/api/users/signup/logistics-head", s.signupHandler).Methods("POST")
	r.HandleFunc("/api/vehicles/messages/{vehicleNumber}", s.messagesHandler).Methods("GET")
	r.HandleFunc("/api/vehicles/getvehicles", s.authed(s.vehiclesHandler)).Methods("GET")
	r.HandleFunc("/api/vehicles/add", s.authed(s.addVehicleHandler)).Methods("POST")
	r.HandleFunc("/api/drivers/getdrivers", s.authed(s.driversHandler)).Methods("GET")
	r.HandleFunc("/api/drivers/add-driver", s.authed(s.addDriverHandler)).Methods("POST")
	r.HandleFunc("/api/drivers/driverdetail", s.authed(s.driverDetailHandler)).Methods("GET")
	r.HandleFunc("/api/updateDriverProfile", s.authed(s.updateDriverHandler)).Methods("POST")
	r.HandleFunc("/api/routes/getroutes", s.authed(s.routesHandler)).Methods("GET")
	r.HandleFunc("/api/routes/create-route", s.authed(s.createRouteHandler)).Methods("POST")
	r.HandleFunc("/api/users/profile", s.authed(s.profileHandler)).Methods("GET")
	r.HandleFunc("/socket", s.socketHandler)

	s.httpServer = httptest.NewServer(r)
	return s
}

// URL returns the http base URL
func (s *Server) URL() string { return s.httpServer.URL }

// WSURL returns the websocket endpoint URL
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.httpServer.URL, "http") + "/socket"
}

// Close shuts the backend down
func (s *Server) Close() { s.httpServer.Close() }

// SetHistory replaces the canned history batch for a vehicle
func (s *Server) SetHistory(vehicleNumber string, batch []models.TruckMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[vehicleNumber] = batch
}

// SetVehicles replaces the canned vehicle list
func (s *Server) SetVehicles(vehicles []models.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles = vehicles
}

// SetDrivers replaces the canned driver list
func (s *Server) SetDrivers(drivers []models.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers = drivers
}

// SetDriverDetail replaces the canned driver detail record
func (s *Server) SetDriverDetail(d models.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.driverDetail = d
}

// Signups returns every signup request received, in order
func (s *Server) Signups() []models.LogisticsSignup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LogisticsSignup(nil), s.signups...)
}

// SetRoutes replaces the canned route list
func (s *Server) SetRoutes(routes []models.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = routes
}

// FetchCount returns how many history fetches a vehicle has received
func (s *Server) FetchCount(vehicleNumber string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCount[vehicleNumber]
}

// DialCount returns how many websocket handshakes have completed
func (s *Server) DialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialCount
}

// Joins returns the vehicle numbers received via joinRoom, in order
func (s *Server) Joins() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.joins...)
}

// EndRoutes returns the vehicle numbers received via endRoute, in order
func (s *Server) EndRoutes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.endRoutes...)
}

// Sent returns every sendMessage envelope received, in order
func (s *Server) Sent() []models.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Envelope(nil), s.sent...)
}

// PushMessage delivers a server-originated message to every connection in
// the vehicle's room.
func (s *Server) PushMessage(vehicleNumber, text string) {
	s.broadcast(models.Envelope{
		Event:         models.EventMessage,
		VehicleNumber: vehicleNumber,
		Message:       text,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) broadcast(env models.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, room := range s.rooms {
		if room == env.VehicleNumber {
			_ = conn.WriteJSON(env)
		}
	}
}

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if req.Email != s.Email || req.Password != s.Password {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "invalid credentials"}`))
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{Token: s.Token, Role: string(s.Role)})
}

func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LogisticsSignup
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.signups = append(s.signups, req)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Signup successful"})
}

func (s *Server) messagesHandler(w http.ResponseWriter, r *http.Request) {
	vehicleNumber := mux.Vars(r)["vehicleNumber"]

	s.mu.Lock()
	s.fetchCount[vehicleNumber]++
	batch := s.history[vehicleNumber]
	s.mu.Unlock()

	if batch == nil {
		batch = []models.TruckMessage{}
	}
	writeJSON(w, http.StatusOK, batch)
}

func (s *Server) vehiclesHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	vehicles := append([]models.Vehicle(nil), s.vehicles...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, vehicles)
}

func (s *Server) addVehicleHandler(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["vehicleNumber"] == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.vehicles = append(s.vehicles, models.Vehicle{ID: body["vehicleNumber"], VehicleNumber: body["vehicleNumber"]})
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Vehicle created successfully"})
}

func (s *Server) driversHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	drivers := append([]models.Driver(nil), s.drivers...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, drivers)
}

func (s *Server) addDriverHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AddDriverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.drivers = append(s.drivers, models.Driver{ID: req.Email, Name: req.Name, Email: req.Email, MobileNumber: req.MobileNumber})
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Driver created successfully"})
}

func (s *Server) routesHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	routes := append([]models.Route(nil), s.routes...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, models.RouteResponse{Routes: routes})
}

func (s *Server) createRouteHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.routes = append(s.routes, models.Route{
		ID:            req.VehicleNumber + "/" + req.Date,
		DriverName:    req.DriverName,
		VehicleNumber: req.VehicleNumber,
		FromLocation:  req.FromLocation,
		ToLocation:    req.ToLocation,
		Date:          req.Date,
		Status:        "scheduled",
	})
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Route created successfully"})
}

func (s *Server) driverDetailHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	detail := s.driverDetail
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) updateDriverHandler(w http.ResponseWriter, r *http.Request) {
	var d models.Driver
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.driverDetail = d
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated successfully"})
}

func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.UserProfile{
		ID:    "u1",
		Name:  "Test Head",
		Email: s.Email,
		Role:  string(s.Role),
	})
}

func (s *Server) socketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.dialCount++
	s.rooms[conn] = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.rooms, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		var env models.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		switch env.Event {
		case models.EventJoinRoom:
			s.mu.Lock()
			s.joins = append(s.joins, env.VehicleNumber)
			s.rooms[conn] = env.VehicleNumber
			s.mu.Unlock()
		case models.EventSendMessage:
			s.mu.Lock()
			s.sent = append(s.sent, env)
			s.mu.Unlock()
			// echo to everyone in the room, sender included, keeping the
			// correlation id so the sender can reconcile its local copy
			s.broadcast(models.Envelope{
				Event:         models.EventMessage,
				VehicleNumber: env.VehicleNumber,
				Message:       env.Message,
				Timestamp:     env.Timestamp,
				CorrelationID: env.CorrelationID,
			})
		case models.EventEndRoute:
			s.mu.Lock()
			s.endRoutes = append(s.endRoutes, env.VehicleNumber)
			s.mu.Unlock()
		}
	}
}
