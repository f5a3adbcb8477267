package retention

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"flipcast/server/internal/database"
	"flipcast/server/internal/models"
)

func setupSweeper(t *testing.T, retentionDays int) (*database.Database, *Sweeper) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())

	gormDB, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	return db, NewSweeper(gormDB, retentionDays, log)
}

func insertSnapshot(t *testing.T, db *database.Database, addressID string, at time.Time) {
	t.Helper()
	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = tx.InsertMarketSnapshot(&models.MarketDataSnapshot{
		AddressID:     addressID,
		Address:       "123 Main St",
		PurchasePrice: 300000,
	}, at)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
}

func countRows(t *testing.T, db *database.Database, table string) int {
	t.Helper()
	var count int
	require.NoError(t, db.GetDB().QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&count))
	return count
}

func TestSweepKeepsNewestRowPerKey(t *testing.T) {
	// Zero retention days: everything superseded is eligible immediately.
	db, sweeper := setupSweeper(t, 0)

	old := time.Now().UTC().Add(-72 * time.Hour)
	insertSnapshot(t, db, "addr-1", old)
	insertSnapshot(t, db, "addr-1", old.Add(time.Hour))
	insertSnapshot(t, db, "addr-1", old.Add(2*time.Hour))
	insertSnapshot(t, db, "addr-2", old)

	sweeper.Sweep()

	// Two superseded addr-1 rows go; the newest per key survives even
	// though every row is past the cutoff.
	assert.Equal(t, 2, countRows(t, db, "market_data_snapshots"))

	var survivors int
	require.NoError(t, db.GetDB().QueryRow(
		`SELECT COUNT(*) FROM market_data_snapshots WHERE address_id = ?`, "addr-1").Scan(&survivors))
	assert.Equal(t, 1, survivors)
}

func TestSweepIgnoresRowsInsideRetention(t *testing.T) {
	db, sweeper := setupSweeper(t, 7)

	now := time.Now().UTC()
	insertSnapshot(t, db, "addr-1", now.Add(-48*time.Hour))
	insertSnapshot(t, db, "addr-1", now.Add(-time.Minute))

	sweeper.Sweep()

	// Both rows are younger than the retention period.
	assert.Equal(t, 2, countRows(t, db, "market_data_snapshots"))
}

func TestSweepCoversMortgageTables(t *testing.T) {
	db, sweeper := setupSweeper(t, 0)

	old := time.Now().UTC().Add(-72 * time.Hour)
	tx, err := db.Begin()
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = tx.InsertDefaultAssumptions(&models.DefaultMortgageAssumptions{
			PropertyID:   1,
			InterestRate: 5.5,
		}, old.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		_, err = tx.InsertMortgageCalculation(&models.MortgageCalculation{
			PropertyID:   1,
			InterestRate: 5.5,
		}, old.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())

	sweeper.Sweep()

	assert.Equal(t, 1, countRows(t, db, "default_mortgage_assumptions"))
	assert.Equal(t, 1, countRows(t, db, "mortgage_calculations"))
}
