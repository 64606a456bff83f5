package models

import "fmt"

// Role identifies which half of the product a signed-in user belongs to.
// It is resolved exactly once at login and carried in the session store;
// nothing downstream compares raw role strings.
type Role string

const (
	// RoleDriver is a driver account streaming monitoring data for one vehicle
	RoleDriver Role = "driver"
	// RoleLogisticsHead is a logistics head observing vehicles and routes
	RoleLogisticsHead Role = "logistics_head"
)

// ParseRole converts the backend's role string into a Role
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleDriver:
		return RoleDriver, nil
	case RoleLogisticsHead:
		return RoleLogisticsHead, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}
