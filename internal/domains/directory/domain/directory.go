package domain

import (
	"errors"
	"strings"
)

// Role is the approver role carried by a moderator.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleSiteSupervisor  Role = "site_supervisor"
	RoleHardwareManager Role = "hardware_store_manager"
	RoleWorkshopManager Role = "workshop_store_manager"
	RolePurchaseOfficer Role = "purchase_officer"
	RoleTransport       Role = "transport"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSiteSupervisor, RoleHardwareManager, RoleWorkshopManager, RolePurchaseOfficer, RoleTransport:
		return true
	default:
		return false
	}
}

// ParseRole normalises a raw role name.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

var (
	ErrInvalidRole = errors.New("moderator role is invalid")
	ErrEmptyName   = errors.New("name is required")
)

// Site is a construction site that places orders.
type Site struct {
	ID        int64
	Name      string
	Location  string
	ManagerID *int64
	Active    bool
}

// Supplier fulfils LPO lines.
type Supplier struct {
	ID     int64
	Name   string
	Phone  string
	Email  string
	Active bool
}

// Moderator is an approver account.
type Moderator struct {
	ID    int64
	Name  string
	Email string
	Role  Role
}

func (s *Site) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (s *Supplier) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (m *Moderator) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if !m.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}
