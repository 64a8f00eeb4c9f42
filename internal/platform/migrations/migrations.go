package migrations

import (
	"gorm.io/gorm"

	catalogpostgres "github.com/Apurer/go-procurement-server/internal/domains/catalog/adapters/persistence/postgres"
	directorypostgres "github.com/Apurer/go-procurement-server/internal/domains/directory/adapters/persistence/postgres"
	orderspostgres "github.com/Apurer/go-procurement-server/internal/domains/orders/adapters/persistence/postgres"
	stockpostgres "github.com/Apurer/go-procurement-server/internal/domains/stock/adapters/persistence/postgres"
)

// Run applies the schema for the bounded contexts from the adapters' record types, then
// rewrites legacy store type names.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := db.AutoMigrate(
		&directorypostgres.ModeratorRecord{},
		&directorypostgres.SiteRecord{},
		&directorypostgres.SupplierRecord{},
		&catalogpostgres.ProductRecord{},
		&catalogpostgres.ProductMaterialRecord{},
		&stockpostgres.EntryRecord{},
		&orderspostgres.OrderRecord{},
		&orderspostgres.OrderProductRecord{},
		&orderspostgres.OrderCustomProductRecord{},
		&orderspostgres.IdempotencyRecord{},
	); err != nil {
		return err
	}
	return renameLegacyStoreTypes(db)
}
