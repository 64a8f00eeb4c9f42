package procurementserver

import (
	"github.com/shopspring/decimal"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
)

// BOMItem is one material of a product's bill of materials.
type BOMItem struct {
	MaterialID      int64           `json:"materialId" binding:"required"`
	MaterialName    string          `json:"materialName,omitempty"`
	QuantityPerUnit decimal.Decimal `json:"quantityPerUnit"`
	UnitType        string          `json:"unitType,omitempty"`
}

// BOMUpdate is the body of PUT /v1/products/:productId/bom; it replaces the whole BOM.
type BOMUpdate struct {
	Items []BOMItem `json:"items"`
}

// Product is the catalog view of a product.
type Product struct {
	ID                int64            `json:"id"`
	Name              string           `json:"name"`
	CategoryID        *int64           `json:"categoryId,omitempty"`
	CategoryName      string           `json:"categoryName,omitempty"`
	Unit              string           `json:"unit,omitempty"`
	StoreType         string           `json:"storeType"`
	AvailableQuantity decimal.Decimal  `json:"availableQuantity"`
	LowStockThreshold *decimal.Decimal `json:"lowStockThreshold,omitempty"`
	Active            bool             `json:"active"`
	Usage             string           `json:"usage"`
	Materials         []BOMItem        `json:"materials"`
}

var usageNames = map[catalog.Usage]string{
	catalog.UsageMaterialOnly: "material",
	catalog.UsageProductOnly:  "product",
	catalog.UsageBoth:         "both",
}

func fromProduct(product *catalog.Product) Product {
	out := Product{
		ID:                product.ID,
		Name:              product.Name,
		CategoryID:        product.CategoryID,
		CategoryName:      product.CategoryName,
		Unit:              product.Unit,
		StoreType:         string(product.StoreType),
		AvailableQuantity: product.AvailableQuantity,
		LowStockThreshold: product.LowStockThreshold,
		Active:            product.Active,
		Usage:             usageNames[product.Usage],
		Materials:         make([]BOMItem, 0, len(product.Materials)),
	}
	for _, item := range product.Materials {
		out.Materials = append(out.Materials, BOMItem{
			MaterialID:      item.MaterialID,
			MaterialName:    item.MaterialName,
			QuantityPerUnit: item.QuantityPerUnit,
			UnitType:        item.UnitType,
		})
	}
	return out
}

func (u BOMUpdate) toDomain() []catalog.BOMItem {
	items := make([]catalog.BOMItem, 0, len(u.Items))
	for _, item := range u.Items {
		items = append(items, catalog.BOMItem{
			MaterialID:      item.MaterialID,
			QuantityPerUnit: item.QuantityPerUnit,
			UnitType:        item.UnitType,
		})
	}
	return items
}
