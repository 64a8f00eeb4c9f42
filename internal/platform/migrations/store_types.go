package migrations

import (
	"gorm.io/gorm"
)

// legacyWorkshopKeys are the names the workshop store went by before it was renamed.
var legacyWorkshopKeys = []string{"warehouse", "warehouse_store"}

// renameLegacyStoreTypes rewrites the old workshop names in product rows, order lines and
// order sub-status documents. Running it again is a no-op.
func renameLegacyStoreTypes(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"products", "order_products"} {
			if err := tx.Table(table).
				Where("lower(trim(store_type)) IN ?", legacyWorkshopKeys).
				Update("store_type", "workshop").Error; err != nil {
				return err
			}
		}
		for _, key := range legacyWorkshopKeys {
			if err := tx.Exec(
				`UPDATE orders SET product_status = (product_status - ?::text) || jsonb_build_object('workshop', product_status -> ?::text)
				WHERE jsonb_exists(product_status, ?::text) AND NOT jsonb_exists(product_status, 'workshop')`,
				key, key, key,
			).Error; err != nil {
				return err
			}
			if err := tx.Exec(
				`UPDATE orders SET product_status = product_status - ?::text WHERE jsonb_exists(product_status, ?::text)`,
				key, key,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
