package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	ordertypes "github.com/Apurer/go-procurement-server/internal/domains/orders/application/types"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/domain"
)

// OrderLine is one requested regular product.
type OrderLine struct {
	ProductID int64           `json:"productId" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CustomProduct is the transport shape of a fabricated line.
type CustomProduct struct {
	Note                string               `json:"note"`
	ConnectedProductIDs []int64              `json:"connectedProductIds,omitempty"`
	Payload             domain.CustomPayload `json:"payload"`
	Images              []string             `json:"images,omitempty"`
}

// SubmitOrder is the body of POST /v1/orders. Suppliers maps product id to supplier id.
type SubmitOrder struct {
	SiteID               int64           `json:"siteId" binding:"required"`
	Priority             string          `json:"priority"`
	Note                 string          `json:"note"`
	ExpectedDeliveryDate *time.Time      `json:"expectedDeliveryDate"`
	IsLPO                bool            `json:"isLpo"`
	Suppliers            map[int64]int64 `json:"suppliers,omitempty"`
	Products             []OrderLine     `json:"products"`
	CustomProducts       []CustomProduct `json:"customProducts,omitempty"`
}

// Decision is the body of the approve and reject endpoints.
type Decision struct {
	StoreTypes []string `json:"storeTypes"`
	Note       string   `json:"note"`
}

// Dispatch is the body of the dispatch endpoint.
type Dispatch struct {
	StoreTypes []string `json:"storeTypes"`
	Status     string   `json:"status" binding:"required"`
}

// MaterialQuantity is one material of a quantity calculation request.
type MaterialQuantity struct {
	Measurements []domain.Measurement `json:"measurements"`
	Pieces       decimal.Decimal      `json:"pieces"`
}

// QuantityRequest is the body of POST /v1/custom-products/quantity.
type QuantityRequest struct {
	Materials []MaterialQuantity `json:"materials" binding:"required"`
}

// QuantityResponse echoes one quantity per material and the total.
type QuantityResponse struct {
	Quantities []decimal.Decimal `json:"quantities"`
	Total      decimal.Decimal   `json:"total"`
}

// Material is one BOM material expanded for an emitted product quantity.
type Material struct {
	MaterialID      int64           `json:"materialId"`
	Name            string          `json:"name"`
	UnitType        string          `json:"unitType,omitempty"`
	QuantityPerUnit decimal.Decimal `json:"quantityPerUnit"`
	Quantity        decimal.Decimal `json:"quantity"`
}

// Product is one product row of an order response.
type Product struct {
	ProductID  int64           `json:"productId"`
	Name       string          `json:"name"`
	Unit       string          `json:"unit,omitempty"`
	StoreType  string          `json:"storeType"`
	Quantity   decimal.Decimal `json:"quantity"`
	Balance    decimal.Decimal `json:"balance"`
	OutOfStock bool            `json:"outOfStock"`
	LowStock   bool            `json:"lowStock"`
	SupplierID *int64          `json:"supplierId,omitempty"`
	Materials  []Material      `json:"materials,omitempty"`
}

// CustomMaterial echoes a fabricated material with its measurements.
type CustomMaterial struct {
	ProductID          int64                `json:"productId"`
	Name               string               `json:"name"`
	Measurements       []domain.Measurement `json:"measurements,omitempty"`
	Pieces             decimal.Decimal      `json:"pieces"`
	CalculatedQuantity decimal.Decimal      `json:"calculatedQuantity"`
}

// CustomProductView nests the connected products under their custom product.
type CustomProductView struct {
	ID                int64            `json:"id"`
	Note              string           `json:"note"`
	DisplayProductID  *int64           `json:"displayProductId,omitempty"`
	DisplayName       string           `json:"displayName,omitempty"`
	Images            []string         `json:"images,omitempty"`
	Materials         []CustomMaterial `json:"materials,omitempty"`
	ConnectedProducts []Product        `json:"connectedProducts,omitempty"`
}

// Order is the response body for a single order.
type Order struct {
	ID                   int64               `json:"id"`
	SiteID               int64               `json:"siteId"`
	SiteManagerID        *int64              `json:"siteManagerId,omitempty"`
	RequestedBy          int64               `json:"requestedBy"`
	OrderDate            time.Time           `json:"orderDate"`
	ExpectedDeliveryDate *time.Time          `json:"expectedDeliveryDate,omitempty"`
	Priority             string              `json:"priority"`
	Note                 string              `json:"note,omitempty"`
	RejectedNote         string              `json:"rejectedNote,omitempty"`
	Status               string              `json:"status"`
	SubStatuses          map[string]string   `json:"subStatuses"`
	IsLPO                bool                `json:"isLpo"`
	IsCustom             bool                `json:"isCustom"`
	ApprovedBy           *int64              `json:"approvedBy,omitempty"`
	ApprovedAt           *time.Time          `json:"approvedAt,omitempty"`
	RejectedBy           *int64              `json:"rejectedBy,omitempty"`
	RejectedAt           *time.Time          `json:"rejectedAt,omitempty"`
	Products             []Product           `json:"products,omitempty"`
	CustomProducts       []CustomProductView `json:"customProducts,omitempty"`
	CreatedAt            time.Time           `json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
}

// OrderPage is the response body of the list endpoint. Summaries carry no product rows.
type OrderPage struct {
	Orders   []Order `json:"orders"`
	Total    int64   `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

// ToSubmitInput converts a transport submission into the application input.
func ToSubmitInput(actor domain.Actor, idempotencyKey string, payload SubmitOrder) ordertypes.SubmitOrderInput {
	input := ordertypes.SubmitOrderInput{
		Actor:                actor,
		SiteID:               payload.SiteID,
		Priority:             payload.Priority,
		Note:                 payload.Note,
		IdempotencyKey:       idempotencyKey,
		ExpectedDeliveryDate: payload.ExpectedDeliveryDate,
		IsLPO:                payload.IsLPO,
		Suppliers:            payload.Suppliers,
	}
	for _, line := range payload.Products {
		input.Lines = append(input.Lines, ordertypes.LineInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	for _, custom := range payload.CustomProducts {
		input.CustomProducts = append(input.CustomProducts, domain.CustomProduct{
			Note:                custom.Note,
			ConnectedProductIDs: custom.ConnectedProductIDs,
			Payload:             custom.Payload,
			Images:              custom.Images,
		})
	}
	return input
}

// ToStoreTypes parses store type names. Unknown names are kept so validation can reject them.
func ToStoreTypes(names []string) []catalog.StoreType {
	if len(names) == 0 {
		return nil
	}
	types := make([]catalog.StoreType, 0, len(names))
	for _, name := range names {
		if t, err := catalog.ParseStoreType(name); err == nil {
			types = append(types, t)
			continue
		}
		types = append(types, catalog.StoreType(name))
	}
	return types
}

// ToQuantityInput converts a calculation request.
func ToQuantityInput(payload QuantityRequest) ordertypes.CustomQuantityInput {
	input := ordertypes.CustomQuantityInput{Materials: make([]ordertypes.MaterialQuantityInput, 0, len(payload.Materials))}
	for _, material := range payload.Materials {
		input.Materials = append(input.Materials, ordertypes.MaterialQuantityInput{
			Measurements: material.Measurements,
			Pieces:       material.Pieces,
		})
	}
	return input
}

// FromQuantityResult converts a calculation result.
func FromQuantityResult(result *ordertypes.CustomQuantityResult) QuantityResponse {
	if result == nil {
		return QuantityResponse{Quantities: []decimal.Decimal{}}
	}
	return QuantityResponse{Quantities: result.Quantities, Total: result.Total}
}

// FromView converts an order projection to the response body.
func FromView(view *ordertypes.OrderView) Order {
	if view == nil || view.Order == nil {
		return Order{}
	}
	out := fromOrder(view.Order)
	out.CreatedAt = view.Metadata.CreatedAt
	out.UpdatedAt = view.Metadata.UpdatedAt
	out.Products = make([]Product, 0, len(view.Products))
	for _, product := range view.Products {
		out.Products = append(out.Products, fromProduct(product))
	}
	for _, custom := range view.CustomProducts {
		entry := CustomProductView{
			ID:               custom.ID,
			Note:             custom.Note,
			DisplayProductID: custom.DisplayProductID,
			DisplayName:      custom.DisplayName,
			Images:           custom.Images,
		}
		for _, material := range custom.Materials {
			entry.Materials = append(entry.Materials, CustomMaterial{
				ProductID:          material.ProductID,
				Name:               material.Name,
				Measurements:       material.Measurements,
				Pieces:             material.Pieces,
				CalculatedQuantity: material.CalculatedQuantity,
			})
		}
		for _, connected := range custom.ConnectedProducts {
			entry.ConnectedProducts = append(entry.ConnectedProducts, fromProduct(connected))
		}
		out.CustomProducts = append(out.CustomProducts, entry)
	}
	return out
}

// FromPage converts a page of orders to the list response.
func FromPage(page *ordertypes.OrderPage) OrderPage {
	if page == nil {
		return OrderPage{Orders: []Order{}}
	}
	out := OrderPage{Orders: make([]Order, 0, len(page.Orders)), Total: page.Total, Page: page.Page, PageSize: page.PageSize}
	for _, order := range page.Orders {
		out.Orders = append(out.Orders, fromOrder(order))
	}
	return out
}

func fromOrder(order *domain.Order) Order {
	subStatuses := make(map[string]string, 3)
	for t, status := range order.SubStatuses.Map() {
		subStatuses[string(t)] = string(status)
	}
	return Order{
		ID:                   order.ID,
		SiteID:               order.SiteID,
		SiteManagerID:        order.SiteManagerID,
		RequestedBy:          order.RequestedBy,
		OrderDate:            order.OrderDate,
		ExpectedDeliveryDate: order.ExpectedDeliveryDate,
		Priority:             string(order.Priority),
		Note:                 order.Note,
		RejectedNote:         order.RejectedNote,
		Status:               string(order.Status),
		SubStatuses:          subStatuses,
		IsLPO:                order.IsLPO,
		IsCustom:             order.IsCustom,
		ApprovedBy:           order.ApprovedBy,
		ApprovedAt:           order.ApprovedAt,
		RejectedBy:           order.RejectedBy,
		RejectedAt:           order.RejectedAt,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}
}

func fromProduct(product ordertypes.ProductView) Product {
	out := Product{
		ProductID:  product.ProductID,
		Name:       product.Name,
		Unit:       product.Unit,
		StoreType:  string(product.StoreType),
		Quantity:   product.Quantity,
		Balance:    product.Balance,
		OutOfStock: product.OutOfStock,
		LowStock:   product.LowStock,
		SupplierID: product.SupplierID,
	}
	for _, material := range product.Materials {
		out.Materials = append(out.Materials, Material{
			MaterialID:      material.MaterialID,
			Name:            material.Name,
			UnitType:        material.UnitType,
			QuantityPerUnit: material.QuantityPerUnit,
			Quantity:        material.Quantity,
		})
	}
	return out
}
