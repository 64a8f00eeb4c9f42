package postgres

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/go-procurement-server/internal/domains/stock/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/stock/ports"
)

var _ ports.Repository = (*Repository)(nil)

const signedQuantity = "CASE WHEN type = 'out' THEN -quantity ELSE quantity END"

// Repository persists ledger rows in PostgreSQL. Rows are inserted, never updated.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// EntryRecord maps one ledger row to the stocks table.
type EntryRecord struct {
	ID            int64           `gorm:"primaryKey;column:id"`
	ProductID     int64           `gorm:"column:product_id;not null;index:idx_stocks_product_site"`
	SiteID        *int64          `gorm:"column:site_id;index:idx_stocks_product_site"`
	Type          string          `gorm:"column:type;type:varchar(16);not null"`
	Kind          string          `gorm:"column:kind;type:varchar(16);not null;default:product"`
	Quantity      decimal.Decimal `gorm:"column:quantity;type:numeric(18,4);not null"`
	ReferenceType string          `gorm:"column:stockable_type;type:varchar(64);index:idx_stocks_reference"`
	ReferenceID   *int64          `gorm:"column:stockable_id;index:idx_stocks_reference"`
	Label         string          `gorm:"column:label;type:varchar(128)"`
	Reason        string          `gorm:"column:reason"`
	CorrelationID string          `gorm:"column:correlation_id;type:varchar(64);index"`
	Active        bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;index"`
}

func (EntryRecord) TableName() string { return "stocks" }

func (r *Repository) Append(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, errors.New("entry is nil")
	}
	record := toRecord(entry)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// Lock takes a transaction-scoped advisory lock per product id. Outside a transaction
// the locks are released as soon as each statement completes.
func (r *Repository) Lock(ctx context.Context, productIDs []int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	ids := slices.Compact(slices.Sorted(slices.Values(productIDs)))
	for _, id := range ids {
		if err := r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", id).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) Balance(ctx context.Context, productID int64, siteID *int64) (decimal.Decimal, error) {
	balances, err := r.Balances(ctx, []int64{productID}, siteID)
	if err != nil {
		return decimal.Zero, err
	}
	return balances[productID], nil
}

func (r *Repository) Balances(ctx context.Context, productIDs []int64, siteID *int64) (map[int64]decimal.Decimal, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	result := make(map[int64]decimal.Decimal, len(productIDs))
	for _, id := range productIDs {
		result[id] = decimal.Zero
	}
	if len(productIDs) == 0 {
		return result, nil
	}
	var rows []struct {
		ProductID int64           `gorm:"column:product_id"`
		Balance   decimal.Decimal `gorm:"column:balance"`
	}
	query := r.scoped(r.db.WithContext(ctx).Model(&EntryRecord{}), siteID).
		Select("product_id, COALESCE(SUM(" + signedQuantity + "), 0) AS balance").
		Where("product_id IN ? AND is_active", productIDs).
		Group("product_id")
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ProductID] = row.Balance
	}
	return result, nil
}

func (r *Repository) History(ctx context.Context, filter ports.HistoryFilter) ([]*domain.Entry, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.scoped(r.db.WithContext(ctx), filter.SiteID).
		Where("product_id = ?", filter.ProductID).
		Order("created_at DESC, id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var records []EntryRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	entries := make([]*domain.Entry, 0, len(records))
	for i := range records {
		entries = append(entries, records[i].toDomain())
	}
	return entries, nil
}

func (r *Repository) Outstanding(ctx context.Context, referenceType string, referenceID int64, labels []string) ([]domain.Outstanding, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, nil
	}
	var rows []struct {
		ProductID int64           `gorm:"column:product_id"`
		SiteID    *int64          `gorm:"column:site_id"`
		Kind      string          `gorm:"column:kind"`
		Net       decimal.Decimal `gorm:"column:net"`
	}
	if err := r.db.WithContext(ctx).Model(&EntryRecord{}).
		Select("product_id, site_id, kind, SUM(-(" + signedQuantity + ")) AS net").
		Where("stockable_type = ? AND stockable_id = ? AND label IN ? AND is_active", referenceType, referenceID, labels).
		Group("product_id, site_id, kind").
		Having("SUM(-(" + signedQuantity + ")) > 0").
		Order("product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Outstanding, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.Outstanding{
			ProductID: row.ProductID,
			SiteID:    row.SiteID,
			Kind:      domain.Kind(row.Kind),
			Quantity:  row.Net,
		})
	}
	return result, nil
}

func (r *Repository) scoped(query *gorm.DB, siteID *int64) *gorm.DB {
	if siteID == nil {
		return query.Where("site_id IS NULL")
	}
	return query.Where("(site_id IS NULL OR site_id = ?)", *siteID)
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres stock repository not configured")
	}
	return nil
}

func toRecord(entry *domain.Entry) EntryRecord {
	return EntryRecord{
		ProductID:     entry.ProductID,
		SiteID:        entry.SiteID,
		Type:          string(entry.Direction),
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

func (r EntryRecord) toDomain() *domain.Entry {
	return &domain.Entry{
		ID:            r.ID,
		ProductID:     r.ProductID,
		SiteID:        r.SiteID,
		Direction:     domain.Direction(r.Type),
		Kind:          domain.Kind(r.Kind),
		Quantity:      r.Quantity,
		ReferenceType: r.ReferenceType,
		ReferenceID:   r.ReferenceID,
		Label:         r.Label,
		Reason:        r.Reason,
		CorrelationID: r.CorrelationID,
		Active:        r.Active,
		CreatedAt:     r.CreatedAt,
	}
}
