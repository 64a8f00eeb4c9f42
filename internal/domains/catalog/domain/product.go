package domain

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// StoreType classifies where a line item is fulfilled from.
type StoreType string

const (
	StoreHardware StoreType = "hardware"
	StoreWorkshop StoreType = "workshop"
	StoreLPO      StoreType = "lpo"
)

// DefaultStoreType is used when a stored value cannot be resolved.
const DefaultStoreType = StoreHardware

// StoreTypes lists every store type in canonical order.
var StoreTypes = []StoreType{StoreHardware, StoreWorkshop, StoreLPO}

// Valid reports whether t is a canonical store type.
func (t StoreType) Valid() bool {
	switch t {
	case StoreHardware, StoreWorkshop, StoreLPO:
		return true
	default:
		return false
	}
}

// ParseStoreType accepts canonical names only.
func ParseStoreType(raw string) (StoreType, error) {
	t := StoreType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", ErrInvalidStoreType
	}
	return t, nil
}

// ResolveStoreType maps a raw stored value onto a store type. Legacy rows mix
// numeric codes and older names; anything unrecognised falls back to DefaultStoreType.
func ResolveStoreType(raw string) StoreType {
	value := strings.ToLower(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(value); err == nil {
		switch n {
		case 1:
			return StoreHardware
		case 2:
			return StoreWorkshop
		case 3:
			return StoreLPO
		}
		return DefaultStoreType
	}
	switch value {
	case "hardware", "hardware_store", "hardware-store", "hardwarestore":
		return StoreHardware
	case "workshop", "workshop_store", "workshop-store", "workshopstore":
		return StoreWorkshop
	case "lpo", "local_purchase_order":
		return StoreLPO
	default:
		return DefaultStoreType
	}
}

// Usage controls whether a product may be consumed as a BOM component.
type Usage int

const (
	UsageMaterialOnly Usage = iota
	UsageProductOnly
	UsageBoth
)

// CanBeMaterial reports whether products with this usage may appear as BOM components.
func (u Usage) CanBeMaterial() bool {
	return u == UsageMaterialOnly || u == UsageBoth
}

var (
	ErrInvalidStoreType   = errors.New("store type is invalid")
	ErrEmptyName          = errors.New("product name is required")
	ErrInvalidUsage       = errors.New("product usage is invalid")
	ErrNegativeThreshold  = errors.New("low stock threshold must not be negative")
	ErrSelfReference      = errors.New("a product cannot be a material of itself")
	ErrNotAMaterial       = errors.New("referenced product cannot be used as a material")
	ErrDuplicateMaterial  = errors.New("material listed more than once")
	ErrInvalidBOMQuantity = errors.New("material quantity per unit must be greater than zero")
)

// Product is a catalog entry; material rows share the same shape.
type Product struct {
	ID                int64
	Name              string
	CategoryID        *int64
	CategoryName      string
	Unit              string
	StoreType         StoreType
	AvailableQuantity decimal.Decimal
	LowStockThreshold *decimal.Decimal
	Active            bool
	Usage             Usage
	Materials         []BOMItem
}

// BOMItem is one edge of a product's bill of materials.
type BOMItem struct {
	MaterialID      int64
	MaterialName    string
	QuantityPerUnit decimal.Decimal
	UnitType        string
}

// Validate enforces product invariants.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if !p.StoreType.Valid() {
		return ErrInvalidStoreType
	}
	if p.Usage < UsageMaterialOnly || p.Usage > UsageBoth {
		return ErrInvalidUsage
	}
	if p.LowStockThreshold != nil && p.LowStockThreshold.IsNegative() {
		return ErrNegativeThreshold
	}
	return nil
}

// ValidateBOM checks the edges of productID's bill of materials against the
// resolved material products.
func ValidateBOM(productID int64, items []BOMItem, materials map[int64]*Product) error {
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if item.MaterialID == productID {
			return ErrSelfReference
		}
		if _, dup := seen[item.MaterialID]; dup {
			return ErrDuplicateMaterial
		}
		seen[item.MaterialID] = struct{}{}
		if !item.QuantityPerUnit.IsPositive() {
			return ErrInvalidBOMQuantity
		}
		material, ok := materials[item.MaterialID]
		if !ok || material == nil || !material.Usage.CanBeMaterial() {
			return ErrNotAMaterial
		}
	}
	return nil
}

// IsLowStock reports whether balance is at or below the configured threshold.
func (p *Product) IsLowStock(balance decimal.Decimal) bool {
	if p.LowStockThreshold == nil {
		return false
	}
	return balance.LessThanOrEqual(*p.LowStockThreshold)
}
