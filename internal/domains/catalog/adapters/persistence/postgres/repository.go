package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-procurement-server/internal/domains/catalog/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/catalog/ports"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists products and BOM edges in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed catalog. The handle may be a transaction.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ProductRecord maps a catalog product to the products table.
type ProductRecord struct {
	ID                int64            `gorm:"primaryKey;column:id"`
	Name              string           `gorm:"column:name;not null"`
	CategoryID        *int64           `gorm:"column:category_id;index"`
	CategoryName      string           `gorm:"column:category_name"`
	Unit              string           `gorm:"column:unit;type:varchar(32)"`
	StoreType         string           `gorm:"column:store_type;type:varchar(32);index"`
	AvailableQuantity decimal.Decimal  `gorm:"column:available_quantity;type:numeric(18,4);not null;default:0"`
	LowStockThreshold *decimal.Decimal `gorm:"column:low_stock_threshold;type:numeric(18,4)"`
	Active            bool             `gorm:"column:active;not null;default:true"`
	Usage             int              `gorm:"column:is_product;not null;default:0"`
	CreatedAt         time.Time        `gorm:"column:created_at"`
	UpdatedAt         time.Time        `gorm:"column:updated_at"`
}

func (ProductRecord) TableName() string { return "products" }

// ProductMaterialRecord is one BOM edge; (product_id, material_id) is unique.
type ProductMaterialRecord struct {
	ID              int64           `gorm:"primaryKey;column:id"`
	ProductID       int64           `gorm:"column:product_id;not null;uniqueIndex:idx_product_materials_pair"`
	MaterialID      int64           `gorm:"column:material_id;not null;uniqueIndex:idx_product_materials_pair;index"`
	QuantityPerUnit decimal.Decimal `gorm:"column:quantity;type:numeric(18,4);not null"`
	UnitType        string          `gorm:"column:unit_type;type:varchar(32)"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
}

func (ProductMaterialRecord) TableName() string { return "product_materials" }

type bomRow struct {
	ProductMaterialRecord
	MaterialName string `gorm:"column:material_name"`
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record ProductRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.NotFound("product %d not found", id)
		}
		return nil, err
	}
	products, err := r.attachMaterials(ctx, []ProductRecord{record})
	if err != nil {
		return nil, err
	}
	return products[0], nil
}

func (r *Repository) ListByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	result := make(map[int64]*domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var records []ProductRecord
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	products, err := r.attachMaterials(ctx, records)
	if err != nil {
		return nil, err
	}
	for _, product := range products {
		result[product.ID] = product
	}
	return result, nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []ProductRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	return r.attachMaterials(ctx, records)
}

// Save upserts the product row. The BOM is managed through ReplaceBOM.
func (r *Repository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	record := toRecord(product)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":                record.Name,
				"category_id":         record.CategoryID,
				"category_name":       record.CategoryName,
				"unit":                record.Unit,
				"store_type":          record.StoreType,
				"low_stock_threshold": record.LowStockThreshold,
				"active":              record.Active,
				"is_product":          record.Usage,
				"updated_at":          gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *Repository) ReplaceBOM(ctx context.Context, productID int64, items []domain.BOMItem) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&ProductMaterialRecord{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		records := make([]ProductMaterialRecord, 0, len(items))
		for _, item := range items {
			records = append(records, ProductMaterialRecord{
				ProductID:       productID,
				MaterialID:      item.MaterialID,
				QuantityPerUnit: item.QuantityPerUnit,
				UnitType:        item.UnitType,
			})
		}
		return tx.Create(&records).Error
	})
}

func (r *Repository) UpdateAvailableQuantity(ctx context.Context, productID int64, quantity decimal.Decimal) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&ProductRecord{}).
		Where("id = ?", productID).
		Updates(map[string]any{"available_quantity": quantity, "updated_at": gorm.Expr("NOW()")})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return faults.NotFound("product %d not found", productID)
	}
	return nil
}

func (r *Repository) attachMaterials(ctx context.Context, records []ProductRecord) ([]*domain.Product, error) {
	products := make([]*domain.Product, 0, len(records))
	if len(records) == 0 {
		return products, nil
	}
	ids := make([]int64, 0, len(records))
	for i := range records {
		ids = append(ids, records[i].ID)
	}
	var rows []bomRow
	if err := r.db.WithContext(ctx).
		Table("product_materials AS pm").
		Select("pm.*, m.name AS material_name").
		Joins("JOIN products AS m ON m.id = pm.material_id").
		Where("pm.product_id IN ?", ids).
		Order("pm.id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	byProduct := make(map[int64][]domain.BOMItem, len(records))
	for _, row := range rows {
		byProduct[row.ProductID] = append(byProduct[row.ProductID], domain.BOMItem{
			MaterialID:      row.MaterialID,
			MaterialName:    row.MaterialName,
			QuantityPerUnit: row.QuantityPerUnit,
			UnitType:        row.UnitType,
		})
	}
	for i := range records {
		product := records[i].toDomain()
		product.Materials = byProduct[product.ID]
		products = append(products, product)
	}
	return products, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres catalog repository not configured")
	}
	return nil
}

func toRecord(product *domain.Product) ProductRecord {
	return ProductRecord{
		ID:                product.ID,
		Name:              product.Name,
		CategoryID:        product.CategoryID,
		CategoryName:      product.CategoryName,
		Unit:              product.Unit,
		StoreType:         string(product.StoreType),
		AvailableQuantity: product.AvailableQuantity,
		LowStockThreshold: product.LowStockThreshold,
		Active:            product.Active,
		Usage:             int(product.Usage),
	}
}

func (r ProductRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:                r.ID,
		Name:              r.Name,
		CategoryID:        r.CategoryID,
		CategoryName:      r.CategoryName,
		Unit:              r.Unit,
		StoreType:         domain.ResolveStoreType(r.StoreType),
		AvailableQuantity: r.AvailableQuantity,
		LowStockThreshold: r.LowStockThreshold,
		Active:            r.Active,
		Usage:             domain.Usage(r.Usage),
	}
}
