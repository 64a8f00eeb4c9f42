package types

import (
	"time"

	"github.com/shopspring/decimal"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/domain"
)

// LineInput is one requested regular line.
type LineInput struct {
	ProductID int64 `validate:"required,gt=0"`
	Quantity  decimal.Decimal
}

// SubmitOrderInput carries a new order. A non-empty IdempotencyKey makes retries of the
// same submission return the order created by the first one.
type SubmitOrderInput struct {
	Actor                domain.Actor
	SiteID               int64  `validate:"required,gt=0"`
	Priority             string `validate:"omitempty,oneof=low normal high urgent"`
	Note                 string `validate:"max=2000"`
	IdempotencyKey       string `validate:"max=255"`
	ExpectedDeliveryDate *time.Time
	IsLPO                bool
	Suppliers            map[int64]int64
	Lines                []LineInput `validate:"dive"`
	CustomProducts       []domain.CustomProduct
}

// OrderCommand identifies an order and the actor acting on it.
type OrderCommand struct {
	OrderID int64 `validate:"required,gt=0"`
	Actor   domain.Actor
}

// ApproveOrderInput approves the given store types; empty means every type the actor owns.
type ApproveOrderInput struct {
	OrderID    int64               `validate:"required,gt=0"`
	StoreTypes []catalog.StoreType `validate:"dive,oneof=hardware workshop lpo"`
	Actor      domain.Actor
}

// RejectOrderInput rejects the given store types with a mandatory note.
type RejectOrderInput struct {
	OrderID    int64               `validate:"required,gt=0"`
	StoreTypes []catalog.StoreType `validate:"dive,oneof=hardware workshop lpo"`
	Note       string              `validate:"required,max=2000"`
	Actor      domain.Actor
}

// AdvanceDeliveryInput moves store types one step along the delivery progression.
type AdvanceDeliveryInput struct {
	OrderID    int64               `validate:"required,gt=0"`
	StoreTypes []catalog.StoreType `validate:"dive,oneof=hardware workshop lpo"`
	Status     domain.Status       `validate:"required,oneof=in_transit out_for_delivery delivered"`
	Actor      domain.Actor
}

// ListOrdersInput pages through the orders visible to the actor.
type ListOrdersInput struct {
	Actor    domain.Actor
	Status   string `validate:"omitempty,oneof=pending approved in_transit out_for_delivery delivered rejected cancelled"`
	SiteID   *int64
	Page     int `validate:"gte=0"`
	PageSize int `validate:"gte=0,lte=100"`
}

// MaterialQuantityInput is one fabricated material: its measurements and piece count.
type MaterialQuantityInput struct {
	Measurements []domain.Measurement
	Pieces       decimal.Decimal
}

// CustomQuantityInput carries a stateless quantity calculation.
type CustomQuantityInput struct {
	Materials []MaterialQuantityInput `validate:"required,min=1"`
}

// CustomQuantityResult holds one quantity per input material plus their total.
type CustomQuantityResult struct {
	Quantities []decimal.Decimal
	Total      decimal.Decimal
}
