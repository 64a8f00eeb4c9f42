package types

import (
	"time"

	"github.com/shopspring/decimal"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/domain"
)

// MaterialView is one BOM material expanded for an emitted quantity.
type MaterialView struct {
	MaterialID      int64
	Name            string
	UnitType        string
	QuantityPerUnit decimal.Decimal
	Quantity        decimal.Decimal
}

// ProductView is one product emitted by the order projection.
type ProductView struct {
	ProductID  int64
	Name       string
	Unit       string
	StoreType  catalog.StoreType
	Quantity   decimal.Decimal
	Balance    decimal.Decimal
	OutOfStock bool
	LowStock   bool
	SupplierID *int64
	Materials  []MaterialView
}

// CustomMaterialView echoes one fabricated material of a custom product.
type CustomMaterialView struct {
	ProductID          int64
	Name               string
	Measurements       []domain.Measurement
	Pieces             decimal.Decimal
	CalculatedQuantity decimal.Decimal
}

// CustomProductView is one custom product with its connected products nested.
type CustomProductView struct {
	ID                int64
	Note              string
	DisplayProductID  *int64
	DisplayName       string
	Images            []string
	Materials         []CustomMaterialView
	ConnectedProducts []ProductView
}

// OrderView is the outward view of one order. It is rebuilt on every read.
type OrderView struct {
	Order          *domain.Order
	Products       []ProductView
	CustomProducts []CustomProductView
	Metadata       Metadata
}

// Metadata carries the persistence timestamps of the projected order.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderPage is one page of order summaries.
type OrderPage struct {
	Orders   []*domain.Order
	Total    int64
	Page     int
	PageSize int
}
