package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-procurement-server/internal/domains/directory/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/directory/ports"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists directory data in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type SiteRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name;not null"`
	Location  string    `gorm:"column:location"`
	ManagerID *int64    `gorm:"column:site_manager_id;index"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (SiteRecord) TableName() string { return "sites" }

type SupplierRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name;not null"`
	Phone     string    `gorm:"column:phone"`
	Email     string    `gorm:"column:email"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (SupplierRecord) TableName() string { return "suppliers" }

type ModeratorRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;uniqueIndex"`
	Role      string    `gorm:"column:role;type:varchar(64);index"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (ModeratorRecord) TableName() string { return "moderators" }

func (r *Repository) GetSite(ctx context.Context, id int64) (*domain.Site, error) {
	var record SiteRecord
	if err := r.first(ctx, &record, id, "site"); err != nil {
		return nil, err
	}
	return &domain.Site{ID: record.ID, Name: record.Name, Location: record.Location, ManagerID: record.ManagerID, Active: record.Active}, nil
}

func (r *Repository) SaveSite(ctx context.Context, site *domain.Site) (*domain.Site, error) {
	if site == nil {
		return nil, errors.New("site is nil")
	}
	record := SiteRecord{ID: site.ID, Name: site.Name, Location: site.Location, ManagerID: site.ManagerID, Active: site.Active}
	if err := r.upsert(ctx, &record, map[string]any{
		"name":            record.Name,
		"location":        record.Location,
		"site_manager_id": record.ManagerID,
		"active":          record.Active,
	}); err != nil {
		return nil, err
	}
	return r.GetSite(ctx, record.ID)
}

func (r *Repository) GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error) {
	var record SupplierRecord
	if err := r.first(ctx, &record, id, "supplier"); err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) ListSuppliersByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Supplier, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	result := make(map[int64]*domain.Supplier, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var records []SupplierRecord
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	for i := range records {
		result[records[i].ID] = records[i].toDomain()
	}
	return result, nil
}

func (r *Repository) SaveSupplier(ctx context.Context, supplier *domain.Supplier) (*domain.Supplier, error) {
	if supplier == nil {
		return nil, errors.New("supplier is nil")
	}
	record := SupplierRecord{ID: supplier.ID, Name: supplier.Name, Phone: supplier.Phone, Email: supplier.Email, Active: supplier.Active}
	if err := r.upsert(ctx, &record, map[string]any{
		"name":   record.Name,
		"phone":  record.Phone,
		"email":  record.Email,
		"active": record.Active,
	}); err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) GetModerator(ctx context.Context, id int64) (*domain.Moderator, error) {
	var record ModeratorRecord
	if err := r.first(ctx, &record, id, "moderator"); err != nil {
		return nil, err
	}
	return &domain.Moderator{ID: record.ID, Name: record.Name, Email: record.Email, Role: domain.Role(record.Role)}, nil
}

func (r *Repository) SaveModerator(ctx context.Context, moderator *domain.Moderator) (*domain.Moderator, error) {
	if moderator == nil {
		return nil, errors.New("moderator is nil")
	}
	record := ModeratorRecord{ID: moderator.ID, Name: moderator.Name, Email: moderator.Email, Role: string(moderator.Role)}
	if err := r.upsert(ctx, &record, map[string]any{
		"name":  record.Name,
		"email": record.Email,
		"role":  record.Role,
	}); err != nil {
		return nil, err
	}
	return r.GetModerator(ctx, record.ID)
}

func (r *Repository) first(ctx context.Context, dest any, id int64, entity string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).First(dest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return faults.NotFound("%s %d not found", entity, id)
		}
		return err
	}
	return nil
}

func (r *Repository) upsert(ctx context.Context, record any, updates map[string]any) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	updates["updated_at"] = gorm.Expr("NOW()")
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(updates),
		}).Create(record).Error
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres directory repository not configured")
	}
	return nil
}

func (r SupplierRecord) toDomain() *domain.Supplier {
	return &domain.Supplier{ID: r.ID, Name: r.Name, Phone: r.Phone, Email: r.Email, Active: r.Active}
}
