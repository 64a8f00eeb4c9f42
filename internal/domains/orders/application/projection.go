package application

import (
	"context"

	"github.com/shopspring/decimal"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	ordertypes "github.com/Apurer/go-procurement-server/internal/domains/orders/application/types"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
)

// view builds the outward product list of order. A product reached only through custom
// products is listed under those custom products and not in the regular list; a product
// with a regular line appears in both, each with its own quantity.
func (s *Service) view(ctx context.Context, store ports.Store, order *domain.Order) (*ordertypes.OrderView, error) {
	ids := order.AllProductIDs()
	products, err := store.Catalog().ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	balances, err := store.Stock().Balances(ctx, ids, nil)
	if err != nil {
		return nil, err
	}
	return buildView(order, products, balances), nil
}

func buildView(order *domain.Order, products map[int64]*catalog.Product, balances map[int64]decimal.Decimal) *ordertypes.OrderView {
	view := &ordertypes.OrderView{
		Order:    order,
		Products: make([]ordertypes.ProductView, 0, len(order.Lines)),
		Metadata: ordertypes.Metadata{CreatedAt: order.CreatedAt, UpdatedAt: order.UpdatedAt},
	}
	for _, line := range order.Lines {
		if line.Origin == domain.OriginCustom {
			continue
		}
		item := productView(line.ProductID, line.Quantity, products, balances)
		item.StoreType = line.StoreType
		if supplierID, ok := order.Suppliers[line.ProductID]; ok {
			id := supplierID
			item.SupplierID = &id
		}
		view.Products = append(view.Products, item)
	}
	for _, custom := range order.CustomProducts {
		entry := ordertypes.CustomProductView{
			ID:     custom.ID,
			Note:   custom.Note,
			Images: append([]string(nil), custom.Images...),
		}
		if id, ok := custom.DisplayProductID(); ok {
			display := id
			entry.DisplayProductID = &display
			if product := products[id]; product != nil {
				entry.DisplayName = product.Name
			}
		}
		for _, material := range custom.Payload.Materials {
			item := ordertypes.CustomMaterialView{
				ProductID:          material.ProductID,
				Measurements:       append([]domain.Measurement(nil), material.Measurements...),
				Pieces:             material.Pieces,
				CalculatedQuantity: material.CalculatedQuantity,
			}
			if product := products[material.ProductID]; product != nil {
				item.Name = product.Name
			}
			entry.Materials = append(entry.Materials, item)
		}
		for _, id := range custom.ConnectedIDs() {
			item := productView(id, custom.ConnectedQuantity(id), products, balances)
			if line, ok := order.Line(id); ok {
				item.StoreType = line.StoreType
			}
			entry.ConnectedProducts = append(entry.ConnectedProducts, item)
		}
		view.CustomProducts = append(view.CustomProducts, entry)
	}
	return view
}

// productView never fails on missing catalog data; unknown products get empty metadata.
func productView(productID int64, quantity decimal.Decimal, products map[int64]*catalog.Product, balances map[int64]decimal.Decimal) ordertypes.ProductView {
	balance := balances[productID]
	item := ordertypes.ProductView{
		ProductID:  productID,
		Quantity:   quantity,
		Balance:    balance,
		OutOfStock: !balance.IsPositive(),
	}
	product := products[productID]
	if product == nil {
		return item
	}
	item.Name = product.Name
	item.Unit = product.Unit
	item.StoreType = product.StoreType
	item.LowStock = product.IsLowStock(balance)
	for _, material := range product.Materials {
		item.Materials = append(item.Materials, ordertypes.MaterialView{
			MaterialID:      material.MaterialID,
			Name:            material.MaterialName,
			UnitType:        material.UnitType,
			QuantityPerUnit: material.QuantityPerUnit,
			Quantity:        material.QuantityPerUnit.Mul(quantity),
		})
	}
	return item
}
