package models

// LoginRequest is the body for POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse holds the token and role returned on a successful login
type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// LogisticsSignup is the body for POST /api/users/signup/logistics-head
type LogisticsSignup struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	MobileNumber string `json:"mobileNumber"`
	CompanyName  string `json:"companyName"`
}

// UserProfile holds the structure returned by GET /api/users/profile
type UserProfile struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
	CompanyName  string `json:"companyName"`
	Role         string `json:"role"`
}
