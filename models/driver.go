package models

// Driver holds the structure for a driver as returned by the drivers endpoints
type Driver struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
	LicenseNo    string `json:"licenseNo,omitempty"`
	Status       string `json:"status,omitempty"`
}

// AddDriverRequest is the body for POST /api/drivers/add-driver
type AddDriverRequest struct {
	Name         string `json:"name"`
	MobileNumber string `json:"mobileNumber"`
	Email        string `json:"email"`
}
