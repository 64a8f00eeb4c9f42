package procurementserver

import (
	"time"

	"github.com/shopspring/decimal"

	stockdomain "github.com/Apurer/go-procurement-server/internal/domains/stock/domain"
	stockports "github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
)

// StockAdjustment is the body of POST /v1/stock/adjustments. Kind "material" records a
// raw-material movement; anything else is a finished-product movement.
type StockAdjustment struct {
	ProductID     int64           `json:"productId" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
	Direction     string          `json:"direction" binding:"required"`
	Kind          string          `json:"kind"`
	Reason        string          `json:"reason"`
	SiteID        *int64          `json:"siteId"`
	ReferenceType string          `json:"referenceType"`
	ReferenceID   *int64          `json:"referenceId"`
	Label         string          `json:"label"`
}

// StockEntry is one ledger row.
type StockEntry struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"productId"`
	SiteID        *int64          `json:"siteId,omitempty"`
	Direction     string          `json:"direction"`
	Kind          string          `json:"kind"`
	Quantity      decimal.Decimal `json:"quantity"`
	ReferenceType string          `json:"referenceType,omitempty"`
	ReferenceID   *int64          `json:"referenceId,omitempty"`
	Label         string          `json:"label,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// StockBalance is the current balance of a product.
type StockBalance struct {
	ProductID int64           `json:"productId"`
	SiteID    *int64          `json:"siteId,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
}

func (a StockAdjustment) toPort() stockports.Adjustment {
	return stockports.Adjustment{
		ProductID:     a.ProductID,
		Direction:     stockdomain.Direction(a.Direction),
		Reason:        a.Reason,
		ReferenceType: a.ReferenceType,
		Label:         a.Label,
		Quantity:      a.Quantity,
		SiteID:        a.SiteID,
		ReferenceID:   a.ReferenceID,
	}
}

func fromEntry(entry *stockdomain.Entry) StockEntry {
	return StockEntry{
		ID:            entry.ID,
		ProductID:     entry.ProductID,
		SiteID:        entry.SiteID,
		Direction:     string(entry.Direction),
		Kind:          string(entry.Kind),
		Quantity:      entry.Quantity,
		ReferenceType: entry.ReferenceType,
		ReferenceID:   entry.ReferenceID,
		Label:         entry.Label,
		Reason:        entry.Reason,
		CorrelationID: entry.CorrelationID,
		Active:        entry.Active,
		CreatedAt:     entry.CreatedAt,
	}
}

func fromEntries(entries []*stockdomain.Entry) []StockEntry {
	out := make([]StockEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, fromEntry(entry))
	}
	return out
}
