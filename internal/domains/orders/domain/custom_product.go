package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidMeasurement = errors.New("measurement needs a label and a non-negative value")
	ErrInvalidPieces      = errors.New("piece count must not be negative")
)

// Measurement is one named dimensional input of a fabricated material.
type Measurement struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// MaterialSpec describes one material cut for a custom product.
type MaterialSpec struct {
	ProductID          int64           `json:"product_id"`
	Measurements       []Measurement   `json:"measurements,omitempty"`
	Pieces             decimal.Decimal `json:"pieces"`
	CalculatedQuantity decimal.Decimal `json:"calculated_quantity"`
}

// ConnectedProduct is a catalog product consumed by a custom product.
type ConnectedProduct struct {
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CustomPayload is the structured body of a custom product. ProductID and Quantity
// are the older single-product form, read only when ConnectedProducts is empty.
type CustomPayload struct {
	Materials         []MaterialSpec     `json:"materials,omitempty"`
	ConnectedProducts []ConnectedProduct `json:"connected_products,omitempty"`
	ProductID         *int64             `json:"product_id,omitempty"`
	Quantity          decimal.Decimal    `json:"quantity"`
}

// CustomProduct is a fabricated order line.
type CustomProduct struct {
	ID                  int64
	Note                string
	ConnectedProductIDs []int64
	Payload             CustomPayload
	// Images are stored media paths, passed through untouched.
	Images []string
}

// CalculateQuantity is the sum of the measurement values multiplied by the piece count.
func CalculateQuantity(measurements []Measurement, pieces decimal.Decimal) (decimal.Decimal, error) {
	if pieces.IsNegative() {
		return decimal.Zero, ErrInvalidPieces
	}
	sum := decimal.Zero
	for _, m := range measurements {
		if strings.TrimSpace(m.Label) == "" || m.Value.IsNegative() {
			return decimal.Zero, ErrInvalidMeasurement
		}
		sum = sum.Add(m.Value)
	}
	return sum.Mul(pieces), nil
}

// Recalculate refreshes every material's calculated quantity from its measurements.
func (c *CustomProduct) Recalculate() error {
	for i := range c.Payload.Materials {
		material := &c.Payload.Materials[i]
		if len(material.Measurements) == 0 {
			continue
		}
		quantity, err := CalculateQuantity(material.Measurements, material.Pieces)
		if err != nil {
			return err
		}
		material.CalculatedQuantity = quantity
	}
	return nil
}

// ConnectedIDs lists every connected catalog product once, in first-seen order.
func (c CustomProduct) ConnectedIDs() []int64 {
	seen := map[int64]struct{}{}
	ids := make([]int64, 0, len(c.ConnectedProductIDs))
	add := func(id int64) {
		if id <= 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range c.ConnectedProductIDs {
		add(id)
	}
	for _, connected := range c.Payload.ConnectedProducts {
		add(connected.ProductID)
	}
	if c.Payload.ProductID != nil {
		add(*c.Payload.ProductID)
	}
	return ids
}

// ConnectedQuantity is the custom-specific quantity of productID. It falls back to the
// legacy single-product fields and is zero when neither source names the product.
func (c CustomProduct) ConnectedQuantity(productID int64) decimal.Decimal {
	if len(c.Payload.ConnectedProducts) > 0 {
		total := decimal.Zero
		for _, connected := range c.Payload.ConnectedProducts {
			if connected.ProductID == productID {
				total = total.Add(connected.Quantity)
			}
		}
		return total
	}
	if c.Payload.ProductID != nil && *c.Payload.ProductID == productID {
		return c.Payload.Quantity
	}
	if c.Payload.ProductID == nil && len(c.ConnectedProductIDs) == 1 && c.ConnectedProductIDs[0] == productID {
		return c.Payload.Quantity
	}
	return decimal.Zero
}

// MaterialIDs lists the products declared in the material payload.
func (c CustomProduct) MaterialIDs() []int64 {
	ids := make([]int64, 0, len(c.Payload.Materials))
	for _, material := range c.Payload.Materials {
		if material.ProductID > 0 {
			ids = append(ids, material.ProductID)
		}
	}
	return ids
}

// DisplayProductID is the first resolvable product id from any source. It labels the
// custom product and plays no part in quantity math.
func (c CustomProduct) DisplayProductID() (int64, bool) {
	if ids := c.ConnectedIDs(); len(ids) > 0 {
		return ids[0], true
	}
	if ids := c.MaterialIDs(); len(ids) > 0 {
		return ids[0], true
	}
	return 0, false
}
