package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Direction carries the sign of a ledger row; quantities are always non-negative.
type Direction string

const (
	DirectionIn         Direction = "in"
	DirectionOut        Direction = "out"
	DirectionAdjustment Direction = "adjustment"
)

func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut || d == DirectionAdjustment
}

// Kind separates finished-product movements from raw-material movements in the audit trail.
type Kind string

const (
	KindProduct  Kind = "product"
	KindMaterial Kind = "material"
)

// ReferenceOrder is the reference type stamped on rows caused by an order.
const ReferenceOrder = "order"

var (
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrInvalidDirection = errors.New("direction must be one of in, out, adjustment")
	ErrInvalidProduct   = errors.New("product id is required")
	ErrInvalidKind      = errors.New("kind must be product or material")
)

// Entry is one immutable ledger row.
type Entry struct {
	ID            int64
	ProductID     int64
	SiteID        *int64
	Direction     Direction
	Kind          Kind
	Quantity      decimal.Decimal
	ReferenceType string
	ReferenceID   *int64
	Label         string
	Reason        string
	CorrelationID string
	Active        bool
	CreatedAt     time.Time
}

func (e *Entry) Validate() error {
	if e.ProductID <= 0 {
		return ErrInvalidProduct
	}
	if !e.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if !e.Direction.Valid() {
		return ErrInvalidDirection
	}
	if e.Kind != KindProduct && e.Kind != KindMaterial {
		return ErrInvalidKind
	}
	return nil
}

// Signed returns the row's contribution to a balance.
func (e *Entry) Signed() decimal.Decimal {
	if e.Direction == DirectionOut {
		return e.Quantity.Neg()
	}
	return e.Quantity
}

// InScope reports whether the row counts towards the balance of siteID. General rows
// (no site) always count; site rows count only for their own site.
func (e *Entry) InScope(siteID *int64) bool {
	if e.SiteID == nil {
		return true
	}
	return siteID != nil && *e.SiteID == *siteID
}

// Balance sums the active rows of entries that are in scope for siteID.
func Balance(entries []*Entry, productID int64, siteID *int64) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		if entry.ProductID != productID || !entry.Active || !entry.InScope(siteID) {
			continue
		}
		total = total.Add(entry.Signed())
	}
	return total
}

// Outstanding is the net quantity still taken out of stock under one reference, per
// product, site and kind.
type Outstanding struct {
	ProductID int64
	SiteID    *int64
	Kind      Kind
	Quantity  decimal.Decimal
}
