package domain

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
)

var (
	ErrInvalidSite         = errors.New("site is required")
	ErrEmptyOrder          = errors.New("order needs at least one line or custom product")
	ErrInvalidQuantity     = errors.New("line quantity must be greater than zero")
	ErrUnknownProduct      = errors.New("order references an unknown product")
	ErrInvalidPriority     = errors.New("priority is invalid")
	ErrSupplierNotOnOrder  = errors.New("supplier mapping references a product that is not on the order")
	ErrSupplierWithoutLPO  = errors.New("supplier mapping is only allowed on LPO orders")
	ErrInvalidDeliveryDate = errors.New("expected delivery date precedes the order date")
)

// Origin records why a line exists. Custom lines hold quantity contributed only by
// custom products and are hidden from the regular product list.
type Origin string

const (
	OriginRegular Origin = "regular"
	OriginCustom  Origin = "custom"
)

// Priority of an order.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Line is one product row of an order. Quantity is the running total for the product,
// including quantity contributed by custom products.
type Line struct {
	ProductID int64
	Quantity  decimal.Decimal
	StoreType catalog.StoreType
	Origin    Origin
}

// Order is the aggregate root for a purchase order. Suppliers maps product id to
// supplier id and is only set on LPO orders.
type Order struct {
	ID                   int64
	SiteID               int64
	SiteManagerID        *int64
	RequestedBy          int64
	OrderDate            time.Time
	ExpectedDeliveryDate *time.Time
	Priority             Priority
	Note                 string
	RejectedNote         string
	Status               Status
	SubStatuses          SubStatuses
	IsLPO                bool
	IsCustom             bool
	Suppliers            map[int64]int64
	Lines                []Line
	CustomProducts       []CustomProduct
	ApprovedBy           *int64
	ApprovedAt           *time.Time
	RejectedBy           *int64
	RejectedAt           *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// RequestedLine is one regular line of a submission.
type RequestedLine struct {
	ProductID int64
	Quantity  decimal.Decimal
}

// Draft carries the inputs of a new order.
type Draft struct {
	SiteID               int64
	SiteManagerID        *int64
	RequestedBy          int64
	OrderDate            time.Time
	ExpectedDeliveryDate *time.Time
	Priority             Priority
	Note                 string
	IsLPO                bool
	Suppliers            map[int64]int64
	Lines                []RequestedLine
	CustomProducts       []CustomProduct
}

// NewOrder assembles a pending order from draft. products must contain every product
// referenced by the draft lines and custom products.
func NewOrder(draft Draft, products map[int64]*catalog.Product) (*Order, error) {
	if draft.SiteID <= 0 {
		return nil, ErrInvalidSite
	}
	if len(draft.Lines) == 0 && len(draft.CustomProducts) == 0 {
		return nil, ErrEmptyOrder
	}
	priority := draft.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if draft.OrderDate.IsZero() {
		draft.OrderDate = time.Now().UTC()
	}
	if draft.ExpectedDeliveryDate != nil && draft.ExpectedDeliveryDate.Before(truncateDay(draft.OrderDate)) {
		return nil, ErrInvalidDeliveryDate
	}
	if len(draft.Suppliers) > 0 && !draft.IsLPO {
		return nil, ErrSupplierWithoutLPO
	}

	order := &Order{
		SiteID:               draft.SiteID,
		SiteManagerID:        draft.SiteManagerID,
		RequestedBy:          draft.RequestedBy,
		OrderDate:            draft.OrderDate,
		ExpectedDeliveryDate: draft.ExpectedDeliveryDate,
		Priority:             priority,
		Note:                 strings.TrimSpace(draft.Note),
		IsLPO:                draft.IsLPO,
		IsCustom:             len(draft.CustomProducts) > 0,
		Suppliers:            draft.Suppliers,
	}

	index := map[int64]int{}
	addLine := func(productID int64, quantity decimal.Decimal, origin Origin) error {
		if products[productID] == nil {
			return ErrUnknownProduct
		}
		if i, ok := index[productID]; ok {
			order.Lines[i].Quantity = order.Lines[i].Quantity.Add(quantity)
			if origin == OriginRegular {
				order.Lines[i].Origin = OriginRegular
			}
			return nil
		}
		index[productID] = len(order.Lines)
		order.Lines = append(order.Lines, Line{ProductID: productID, Quantity: quantity, Origin: origin})
		return nil
	}

	for _, line := range draft.Lines {
		if !line.Quantity.IsPositive() {
			return nil, ErrInvalidQuantity
		}
		if err := addLine(line.ProductID, line.Quantity, OriginRegular); err != nil {
			return nil, err
		}
	}
	for i := range draft.CustomProducts {
		custom := draft.CustomProducts[i]
		if err := custom.Recalculate(); err != nil {
			return nil, err
		}
		for _, id := range append(custom.ConnectedIDs(), custom.MaterialIDs()...) {
			if products[id] == nil {
				return nil, ErrUnknownProduct
			}
		}
		for _, id := range custom.ConnectedIDs() {
			quantity := custom.ConnectedQuantity(id)
			if quantity.IsNegative() {
				return nil, ErrInvalidQuantity
			}
			if quantity.IsZero() {
				continue
			}
			if err := addLine(id, quantity, OriginCustom); err != nil {
				return nil, err
			}
		}
		order.CustomProducts = append(order.CustomProducts, custom)
	}
	for productID := range order.Suppliers {
		if _, ok := index[productID]; !ok {
			return nil, ErrSupplierNotOnOrder
		}
	}

	for i := range order.Lines {
		order.Lines[i].StoreType = order.lineStoreType(order.Lines[i], products[order.Lines[i].ProductID])
		order.SubStatuses.Set(order.Lines[i].StoreType, StatusPending)
	}
	if order.IsCustom && !order.IsLPO {
		order.SubStatuses.Set(catalog.StoreWorkshop, StatusPending)
	}
	if order.IsCustom && order.IsLPO {
		order.SubStatuses.Set(catalog.StoreLPO, StatusPending)
	}
	order.Status, _ = order.Resolve()
	return order, nil
}

func (o *Order) lineStoreType(line Line, product *catalog.Product) catalog.StoreType {
	switch {
	case o.IsLPO:
		return catalog.StoreLPO
	case line.Origin == OriginCustom:
		return catalog.StoreWorkshop
	case product != nil && product.StoreType.Valid():
		return product.StoreType
	default:
		return catalog.DefaultStoreType
	}
}

// Resolve recomputes the overall status from the sub-statuses without storing it.
func (o *Order) Resolve() (Status, bool) {
	return ResolveOverallStatus(o.SubStatuses.Map())
}

// PresentTypes lists the store types the order carries.
func (o *Order) PresentTypes() []catalog.StoreType {
	return o.SubStatuses.Types()
}

// LinesOf returns the lines fulfilled by any of types.
func (o *Order) LinesOf(types []catalog.StoreType) []Line {
	wanted := make(map[catalog.StoreType]struct{}, len(types))
	for _, t := range types {
		wanted[t] = struct{}{}
	}
	lines := make([]Line, 0, len(o.Lines))
	for _, line := range o.Lines {
		if _, ok := wanted[line.StoreType]; ok {
			lines = append(lines, line)
		}
	}
	return lines
}

// Line returns the line of productID.
func (o *Order) Line(productID int64) (Line, bool) {
	for _, line := range o.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return Line{}, false
}

// AllProductIDs lists every product referenced by the order: lines, custom connected
// products, and custom material payloads. Sorted and unique.
func (o *Order) AllProductIDs() []int64 {
	seen := map[int64]struct{}{}
	for _, line := range o.Lines {
		seen[line.ProductID] = struct{}{}
	}
	for _, custom := range o.CustomProducts {
		for _, id := range custom.ConnectedIDs() {
			seen[id] = struct{}{}
		}
		for _, id := range custom.MaterialIDs() {
			seen[id] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CanDelete reports whether every sub-status is still pending.
func (o *Order) CanDelete() bool {
	return o.Status != StatusCancelled && o.SubStatuses.All(StatusPending)
}

// Approve sets the sub-status of types to approved and refreshes the overall status.
func (o *Order) Approve(types []catalog.StoreType, by int64, at time.Time) (bool, error) {
	for _, t := range types {
		o.SubStatuses.Set(t, StatusApproved)
	}
	o.ApprovedBy = &by
	o.ApprovedAt = &at
	return o.refresh(at)
}

// Reject sets the sub-status of types to rejected, stores note and refreshes the overall status.
func (o *Order) Reject(types []catalog.StoreType, note string, by int64, at time.Time) (bool, error) {
	for _, t := range types {
		o.SubStatuses.Set(t, StatusRejected)
	}
	o.RejectedNote = strings.TrimSpace(note)
	o.RejectedBy = &by
	o.RejectedAt = &at
	return o.refresh(at)
}

// Advance moves types along the delivery progression.
func (o *Order) Advance(types []catalog.StoreType, to Status, at time.Time) (bool, error) {
	for _, t := range types {
		o.SubStatuses.Set(t, to)
	}
	return o.refresh(at)
}

// Cancel marks every present type as cancelled.
func (o *Order) Cancel(at time.Time) {
	for _, t := range o.PresentTypes() {
		o.SubStatuses.Set(t, StatusCancelled)
	}
	o.Status = StatusCancelled
	o.UpdatedAt = at
}

// CanAdvance reports whether a sub-status may move to next in the delivery progression.
func CanAdvance(current, next Status) bool {
	from, to := current.deliveryRank(), next.deliveryRank()
	return from > 0 && to == from+1
}

// refresh writes the resolved status; the flag is false when the combination was ambiguous.
func (o *Order) refresh(at time.Time) (bool, error) {
	status, ok := o.Resolve()
	if !status.Valid() {
		return false, ErrInvalidStatus
	}
	o.Status = status
	o.UpdatedAt = at
	return ok, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
