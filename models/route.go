package models

// Route holds the structure for a route as returned by GET /api/routes/getroutes
type Route struct {
	ID            string `json:"_id"`
	DriverName    string `json:"driverName"`
	VehicleNumber string `json:"vehicleNumber"`
	FromLocation  string `json:"fromLocation"`
	ToLocation    string `json:"toLocation"`
	Date          string `json:"date"`
	Status        string `json:"status"`
}

// RouteResponse wraps the routes list endpoint payload
type RouteResponse struct {
	Routes []Route `json:"routes"`
}

// CreateRouteRequest is the body for POST /api/routes/create-route
type CreateRouteRequest struct {
	DriverName    string `json:"driverName"`
	VehicleNumber string `json:"vehicleNumber"`
	FromLocation  string `json:"fromLocation"`
	ToLocation    string `json:"toLocation"`
	Date          string `json:"date"`
}
