package domain

import (
	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	directory "github.com/Apurer/go-procurement-server/internal/domains/directory/domain"
)

// Actor is the moderator performing a command.
type Actor struct {
	ID   int64
	Role directory.Role
}

// Capability lists what a role may do to an order.
type Capability struct {
	// Approves holds the store types whose sub-status the role may approve or reject.
	Approves []catalog.StoreType
	Submit   bool
	Delete   bool
	Cancel   bool
	Dispatch bool
}

var capabilities = map[directory.Role]Capability{
	directory.RoleAdmin: {
		Approves: catalog.StoreTypes,
		Submit:   true,
		Delete:   true,
		Cancel:   true,
		Dispatch: true,
	},
	directory.RoleSiteSupervisor:  {Submit: true, Delete: true, Cancel: true},
	directory.RoleHardwareManager: {Approves: []catalog.StoreType{catalog.StoreHardware}},
	directory.RoleWorkshopManager: {Approves: []catalog.StoreType{catalog.StoreWorkshop}},
	directory.RolePurchaseOfficer: {Approves: []catalog.StoreType{catalog.StoreLPO}},
	directory.RoleTransport:       {Dispatch: true},
}

// CapabilityOf returns the capability of role; unknown roles may do nothing.
func CapabilityOf(role directory.Role) Capability {
	return capabilities[role]
}

// Owns reports whether the capability approves store type t.
func (c Capability) Owns(t catalog.StoreType) bool {
	for _, owned := range c.Approves {
		if owned == t {
			return true
		}
	}
	return false
}

// VisibleStoreTypes returns the store types whose orders role works on, or nil when the
// role sees every order.
func VisibleStoreTypes(role directory.Role) []catalog.StoreType {
	c := CapabilityOf(role)
	if len(c.Approves) == 0 || len(c.Approves) == len(catalog.StoreTypes) {
		return nil
	}
	return append([]catalog.StoreType(nil), c.Approves...)
}
