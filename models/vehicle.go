package models

// Vehicle holds the structure for a vehicle as returned by
// GET /api/vehicles/getvehicles
type Vehicle struct {
	ID            string `json:"_id"`
	VehicleNumber string `json:"vehicleNumber"`
	AlertCount    int    `json:"alertCount,omitempty"`
}
