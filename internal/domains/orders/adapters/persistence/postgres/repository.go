package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	catalog "github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists order aggregates in PostgreSQL.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// OrderRecord maps the order header to the orders table. Sub-statuses live in the
// product_status JSON document keyed by store type.
type OrderRecord struct {
	ID                   int64              `gorm:"primaryKey;column:id"`
	SiteID               int64              `gorm:"column:site_id;not null;index"`
	SiteManagerID        *int64             `gorm:"column:site_manager_id"`
	RequestedBy          int64              `gorm:"column:requested_by"`
	OrderDate            time.Time          `gorm:"column:order_date;not null"`
	ExpectedDeliveryDate *time.Time         `gorm:"column:expected_delivery_date"`
	Priority             string             `gorm:"column:priority;type:varchar(16);not null;default:normal"`
	Note                 string             `gorm:"column:note"`
	RejectedNote         string             `gorm:"column:rejected_note"`
	Status               string             `gorm:"column:status;type:varchar(32);not null;index"`
	ProductStatus        domain.SubStatuses `gorm:"column:product_status;type:jsonb;serializer:json"`
	IsLPO                bool               `gorm:"column:is_lpo;not null;default:false"`
	IsCustom             bool               `gorm:"column:is_custom;not null;default:false"`
	Suppliers            map[int64]int64    `gorm:"column:supplier_ids;type:jsonb;serializer:json"`
	ApprovedBy           *int64             `gorm:"column:approved_by"`
	ApprovedAt           *time.Time         `gorm:"column:approved_at"`
	RejectedBy           *int64             `gorm:"column:rejected_by"`
	RejectedAt           *time.Time         `gorm:"column:rejected_at"`
	CreatedAt            time.Time          `gorm:"column:created_at"`
	UpdatedAt            time.Time          `gorm:"column:updated_at"`
	DeletedAt            gorm.DeletedAt     `gorm:"column:deleted_at;index"`
}

func (OrderRecord) TableName() string { return "orders" }

// OrderProductRecord is one aggregated order line.
type OrderProductRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	OrderID   int64           `gorm:"column:order_id;not null;uniqueIndex:idx_order_products_pair"`
	ProductID int64           `gorm:"column:product_id;not null;uniqueIndex:idx_order_products_pair"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(18,4);not null"`
	StoreType string          `gorm:"column:store_type;type:varchar(16);not null"`
	Origin    string          `gorm:"column:origin;type:varchar(16);not null;default:regular"`
}

func (OrderProductRecord) TableName() string { return "order_products" }

// OrderCustomProductRecord is one fabricated product of an order.
type OrderCustomProductRecord struct {
	ID         int64                `gorm:"primaryKey;column:id"`
	OrderID    int64                `gorm:"column:order_id;not null;index"`
	Note       string               `gorm:"column:custom_note"`
	ProductIDs pq.Int64Array        `gorm:"column:product_ids;type:bigint[]"`
	Payload    domain.CustomPayload `gorm:"column:product_details;type:jsonb;serializer:json"`
	Images     pq.StringArray       `gorm:"column:images;type:text[]"`
}

func (OrderCustomProductRecord) TableName() string { return "order_custom_products" }

func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	lines := toLineRecords(order.Lines)
	customs := toCustomRecords(order.CustomProducts)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = record.ID
		}
		for i := range customs {
			customs[i].OrderID = record.ID
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		if len(customs) > 0 {
			if err := tx.Create(&customs).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record.toDomain(lines, customs), nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.get(ctx, r.db.WithContext(ctx), id)
}

// GetForUpdate takes a row lock that lasts until the surrounding transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return r.get(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *Repository) get(ctx context.Context, query *gorm.DB, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record OrderRecord
	if err := query.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.NotFound("order %d not found", id)
		}
		return nil, err
	}
	orders, err := r.hydrate(ctx, []OrderRecord{record})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

func (r *Repository) Update(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	record.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&OrderRecord{ID: order.ID}).
		Select("status", "product_status", "rejected_note", "approved_by", "approved_at", "rejected_by", "rejected_at", "updated_at").
		Updates(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, faults.NotFound("order %d not found", order.ID)
	}
	return r.GetByID(ctx, order.ID)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&OrderRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return faults.NotFound("order %d not found", id)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) (ports.Page, error) {
	page := ports.Page{Page: filter.Page, PageSize: filter.PageSize, Orders: make([]*domain.Order, 0)}
	if err := r.ensureDB(); err != nil {
		return page, err
	}
	query := r.db.WithContext(ctx).Model(&OrderRecord{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.SiteID != nil {
		query = query.Where("site_id = ?", *filter.SiteID)
	}
	if len(filter.StoreTypes) > 0 {
		keys := make([]string, 0, len(filter.StoreTypes))
		for _, t := range filter.StoreTypes {
			keys = append(keys, string(t))
		}
		query = query.Where("jsonb_exists_any(product_status, ?)", pq.StringArray(keys))
	}
	if err := query.Count(&page.Total).Error; err != nil {
		return page, err
	}
	query = query.Order("id DESC")
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset((max(filter.Page, 1) - 1) * filter.PageSize)
	}
	var records []OrderRecord
	if err := query.Find(&records).Error; err != nil {
		return page, err
	}
	if len(records) == 0 {
		return page, nil
	}
	orders, err := r.hydrate(ctx, records)
	if err != nil {
		return page, err
	}
	page.Orders = orders
	return page, nil
}

// hydrate loads lines and custom products for records in two queries.
func (r *Repository) hydrate(ctx context.Context, records []OrderRecord) ([]*domain.Order, error) {
	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	var lines []OrderProductRecord
	if err := r.db.WithContext(ctx).Where("order_id IN ?", ids).Order("id").Find(&lines).Error; err != nil {
		return nil, err
	}
	var customs []OrderCustomProductRecord
	if err := r.db.WithContext(ctx).Where("order_id IN ?", ids).Order("id").Find(&customs).Error; err != nil {
		return nil, err
	}
	linesByOrder := map[int64][]OrderProductRecord{}
	for _, line := range lines {
		linesByOrder[line.OrderID] = append(linesByOrder[line.OrderID], line)
	}
	customsByOrder := map[int64][]OrderCustomProductRecord{}
	for _, custom := range customs {
		customsByOrder[custom.OrderID] = append(customsByOrder[custom.OrderID], custom)
	}
	orders := make([]*domain.Order, 0, len(records))
	for _, record := range records {
		orders = append(orders, record.toDomain(linesByOrder[record.ID], customsByOrder[record.ID]))
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) OrderRecord {
	return OrderRecord{
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
		ProductStatus:        order.SubStatuses,
		IsLPO:                order.IsLPO,
		IsCustom:             order.IsCustom,
		Suppliers:            order.Suppliers,
		ApprovedBy:           order.ApprovedBy,
		ApprovedAt:           order.ApprovedAt,
		RejectedBy:           order.RejectedBy,
		RejectedAt:           order.RejectedAt,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}
}

func toLineRecords(lines []domain.Line) []OrderProductRecord {
	records := make([]OrderProductRecord, 0, len(lines))
	for _, line := range lines {
		records = append(records, OrderProductRecord{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			StoreType: string(line.StoreType),
			Origin:    string(line.Origin),
		})
	}
	return records
}

func toCustomRecords(customs []domain.CustomProduct) []OrderCustomProductRecord {
	records := make([]OrderCustomProductRecord, 0, len(customs))
	for _, custom := range customs {
		records = append(records, OrderCustomProductRecord{
			Note:       custom.Note,
			ProductIDs: pq.Int64Array(custom.ConnectedProductIDs),
			Payload:    custom.Payload,
			Images:     pq.StringArray(custom.Images),
		})
	}
	return records
}

func (r OrderRecord) toDomain(lines []OrderProductRecord, customs []OrderCustomProductRecord) *domain.Order {
	order := &domain.Order{
		ID:                   r.ID,
		SiteID:               r.SiteID,
		SiteManagerID:        r.SiteManagerID,
		RequestedBy:          r.RequestedBy,
		OrderDate:            r.OrderDate,
		ExpectedDeliveryDate: r.ExpectedDeliveryDate,
		Priority:             domain.Priority(r.Priority),
		Note:                 r.Note,
		RejectedNote:         r.RejectedNote,
		Status:               domain.Status(r.Status),
		SubStatuses:          r.ProductStatus,
		IsLPO:                r.IsLPO,
		IsCustom:             r.IsCustom,
		Suppliers:            r.Suppliers,
		ApprovedBy:           r.ApprovedBy,
		ApprovedAt:           r.ApprovedAt,
		RejectedBy:           r.RejectedBy,
		RejectedAt:           r.RejectedAt,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
		Lines:                make([]domain.Line, 0, len(lines)),
		CustomProducts:       make([]domain.CustomProduct, 0, len(customs)),
	}
	for _, line := range lines {
		order.Lines = append(order.Lines, domain.Line{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			StoreType: catalog.ResolveStoreType(line.StoreType),
			Origin:    domain.Origin(line.Origin),
		})
	}
	for _, custom := range customs {
		order.CustomProducts = append(order.CustomProducts, domain.CustomProduct{
			ID:                  custom.ID,
			Note:                custom.Note,
			ConnectedProductIDs: []int64(custom.ProductIDs),
			Payload:             custom.Payload,
			Images:              []string(custom.Images),
		})
	}
	return order
}
