package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// snapshotTables maps each insert-only cache table to its identity key.
// Retention keeps the newest row per key regardless of age, so a stale but
// still-live cache entry is never lost.
var snapshotTables = []struct {
	table string
	key   string
}{
	{"market_data_snapshots", "address_id"},
	{"default_mortgage_assumptions", "property_id"},
	{"mortgage_calculations", "property_id"},
}

// PurgeStaleSnapshots deletes superseded cache rows older than the cutoff.
// It runs inside the caller's gorm transaction and returns the number of
// rows removed across all three tables.
func PurgeStaleSnapshots(tx *gorm.DB, cutoff time.Time) (int64, error) {
	var total int64
	for _, t := range snapshotTables {
		result := tx.Exec(fmt.Sprintf(`
			DELETE FROM %s
			WHERE inserted_at < ?
			  AND id NOT IN (SELECT MAX(id) FROM %s GROUP BY %s)`,
			t.table, t.table, t.key),
			cutoff.UTC(),
		)
		if result.Error != nil {
			return total, fmt.Errorf("failed to purge %s: %w", t.table, result.Error)
		}
		total += result.RowsAffected
	}
	return total, nil
}
