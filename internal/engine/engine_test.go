package engine

import (
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipcast/server/internal/database"
	"flipcast/server/internal/finance"
	"flipcast/server/internal/providers/rentcast"
)

type stubMarket struct {
	valueCalls   int
	recordsCalls int
	listingCalls int

	value      *rentcast.ValueEstimate
	valueErr   error
	records    *rentcast.PropertyRecords
	recordsErr error
	listing    *rentcast.SaleListing
	listingErr error
}

func (s *stubMarket) GetValueEstimate(address string) (*rentcast.ValueEstimate, error) {
	s.valueCalls++
	return s.value, s.valueErr
}

func (s *stubMarket) GetRecords(address string) (*rentcast.PropertyRecords, error) {
	s.recordsCalls++
	return s.records, s.recordsErr
}

func (s *stubMarket) GetSaleListing(address string) (*rentcast.SaleListing, error) {
	s.listingCalls++
	return s.listing, s.listingErr
}

type stubRates struct {
	rateCalls     int
	interestCalls int

	rate          float64
	rateErr       error
	totalInterest float64
	interestErr   error
}

func (s *stubRates) GetCentralBankRate(country string) (float64, error) {
	s.rateCalls++
	return s.rate, s.rateErr
}

func (s *stubRates) GetTotalInterestPaid(loanAmount, ratePct float64, termYears float64, downPayment float64) (float64, error) {
	s.interestCalls++
	return s.totalInterest, s.interestErr
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestEngine wires an engine over a fresh sqlite file with stub providers
// returning the reference scenario: purchase 300000, ARV 400000, taxes 3600,
// quoted rate 5.5 and 504000 total interest (7.0% effective annual, 1400/mo
// interest payment on the 240000 base loan).
func newTestEngine(t *testing.T) (*Engine, *stubMarket, *stubRates) {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())

	taxYear := strconv.Itoa(baseTime.Year() - 1)
	market := &stubMarket{
		value: &rentcast.ValueEstimate{Price: 295000, PriceRangeHigh: 400000},
		records: &rentcast.PropertyRecords{
			FormattedAddress: "123 Main St, Springfield",
			PropertyType:     "Townhouse",
			Bedrooms:         2,
			Bathrooms:        1,
			SquareFootage:    950,
			PropertyTaxes:    map[string]rentcast.TaxYear{taxYear: {Total: 3600}},
		},
		listing: &rentcast.SaleListing{
			FormattedAddress: "123 Main St, Springfield",
			Price:            300000,
		},
	}
	rates := &stubRates{rate: 5.5, totalInterest: 504000}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	engine := New(db, market, rates, logger)
	engine.now = func() time.Time { return baseTime }
	return engine, market, rates
}

func TestCreateProperty(t *testing.T) {
	engine, market, rates := newTestEngine(t)

	snapshot, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)

	p := snapshot.Property
	assert.Equal(t, "123 Main St, Springfield", p.Address)
	assert.Equal(t, 300000.0, p.PurchasePrice)
	assert.Equal(t, 400000.0, p.AfterRepairValue)
	require.NotNil(t, p.TaxesYearly)
	assert.Equal(t, 3600.0, *p.TaxesYearly)
	assert.Equal(t, 6.0, p.HoldingPeriodMonths)

	require.NotNil(t, snapshot.Mortgage)
	assert.InDelta(t, 60000, snapshot.Mortgage.DownPayment, 0.01)
	assert.InDelta(t, 9000, snapshot.Mortgage.ClosingCosts, 0.01)
	assert.InDelta(t, 240000, snapshot.Mortgage.BaseLoanAmount, 0.01)
	assert.InDelta(t, 7.0, snapshot.Mortgage.InterestRateAnnual, 0.0001)
	assert.InDelta(t, 1400, snapshot.Mortgage.InterestPaymentMonthly, 0.01)

	// No default items yet: monthly holding is taxes/12 + interest payment.
	assert.Equal(t, 0.0, p.TotalRepairCost)
	assert.InDelta(t, 1700, p.MonthlyHoldingCost, 0.01)
	assert.InDelta(t, 69000, p.TotalUpfrontCost, 0.01)
	assert.InDelta(t, 10200, p.TotalHoldingCost, 0.01)
	assert.InDelta(t, 79200, p.TotalCost, 0.01)
	assert.InDelta(t, 320800, p.Profit, 0.01)
	assert.InDelta(t, 320800.0/6, p.MonthlyProfit, 0.01)

	assert.Equal(t, 1, market.valueCalls)
	assert.Equal(t, 1, market.recordsCalls)
	assert.Equal(t, 1, market.listingCalls)
	assert.Equal(t, 1, rates.rateCalls)
	assert.Equal(t, 1, rates.interestCalls)
}

func TestCreatePropertyReusesFreshMarketData(t *testing.T) {
	engine, market, _ := newTestEngine(t)

	_, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)

	// Just inside the window: the cached snapshot is reused verbatim.
	engine.now = func() time.Time { return baseTime.Add(24*time.Hour - time.Minute) }
	_, err = engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, market.valueCalls)
	assert.Equal(t, 1, market.recordsCalls)

	// Just outside: the chain runs again.
	engine.now = func() time.Time { return baseTime.Add(24*time.Hour + time.Minute) }
	_, err = engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, market.valueCalls)
	assert.Equal(t, 2, market.recordsCalls)
}

func TestCreatePropertyListingFallback(t *testing.T) {
	engine, market, _ := newTestEngine(t)
	market.listingErr = rentcast.ErrNotFound
	market.records.PropertyType = ""
	market.records.Bedrooms = 0
	market.records.Bathrooms = 0
	market.records.SquareFootage = 0

	snapshot, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)

	// Price comes from the value estimate, address from records.
	assert.Equal(t, 295000.0, snapshot.Property.PurchasePrice)
	assert.Equal(t, "123 Main St, Springfield", snapshot.Property.Address)

	var propertyType string
	var bedrooms, bathrooms, squareFootage float64
	err = engine.db.GetDB().QueryRow(`
		SELECT property_type, bedrooms, bathrooms, square_footage
		FROM market_data_snapshots WHERE address_id = ?`, "addr-1").
		Scan(&propertyType, &bedrooms, &bathrooms, &squareFootage)
	require.NoError(t, err)
	assert.Equal(t, "Single Family", propertyType)
	assert.Equal(t, 3.0, bedrooms)
	assert.Equal(t, 2.0, bathrooms)
	assert.Equal(t, 1500.0, squareFootage)
}

func TestCreatePropertyProviderFailureRollsBack(t *testing.T) {
	engine, market, _ := newTestEngine(t)
	market.valueErr = rentcast.ErrUnavailable

	_, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	var count int
	require.NoError(t, engine.db.GetDB().QueryRow(`SELECT COUNT(*) FROM properties`).Scan(&count))
	assert.Equal(t, 0, count)
	require.NoError(t, engine.db.GetDB().QueryRow(`SELECT COUNT(*) FROM market_data_snapshots`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestCreatePropertyMissingTaxYear(t *testing.T) {
	engine, market, _ := newTestEngine(t)
	market.records.PropertyTaxes = map[string]rentcast.TaxYear{"1999": {Total: 1200}}

	_, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	assert.ErrorIs(t, err, ErrMissingTaxYear)
}

func TestCreatePropertyNoTaxData(t *testing.T) {
	engine, market, _ := newTestEngine(t)
	market.records.PropertyTaxes = nil

	snapshot, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)
	assert.Nil(t, snapshot.Property.TaxesYearly)
	// Monthly holding is the interest payment alone.
	assert.InDelta(t, 1400, snapshot.Property.MonthlyHoldingCost, 0.01)
}

func TestAddAndDeleteRepairItem(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	created, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)

	snapshot, err := engine.AddRepairItem(created.Property.ID, "New roof", 5500)
	require.NoError(t, err)
	require.Len(t, snapshot.RepairItems, 1)
	assert.Equal(t, 5500.0, snapshot.Property.TotalRepairCost)
	assert.InDelta(t, 74500, snapshot.Property.TotalUpfrontCost, 0.01)
	assert.InDelta(t, 84700, snapshot.Property.TotalCost, 0.01)

	snapshot, err = engine.DeleteRepairItem(snapshot.RepairItems[0].ID)
	require.NoError(t, err)
	assert.Empty(t, snapshot.RepairItems)
	assert.Equal(t, 0.0, snapshot.Property.TotalRepairCost)
	assert.InDelta(t, 69000, snapshot.Property.TotalUpfrontCost, 0.01)
}

func TestAddAndDeleteHoldingItem(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	created, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)

	snapshot, err := engine.AddHoldingItem(created.Property.ID, "Utilities", 400)
	require.NoError(t, err)
	require.Len(t, snapshot.HoldingItems, 1)
	assert.InDelta(t, 2100, snapshot.Property.MonthlyHoldingCost, 0.01)
	assert.InDelta(t, 12600, snapshot.Property.TotalHoldingCost, 0.01)

	snapshot, err = engine.DeleteHoldingItem(snapshot.HoldingItems[0].ID)
	require.NoError(t, err)
	assert.Empty(t, snapshot.HoldingItems)
	assert.InDelta(t, 1700, snapshot.Property.MonthlyHoldingCost, 0.01)
	assert.InDelta(t, 10200, snapshot.Property.TotalHoldingCost, 0.01)
}

func TestDeleteItemMissing(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	_, err := engine.DeleteRepairItem(999)
	assert.ErrorIs(t, err, ErrMissingReference)
	_, err = engine.DeleteHoldingItem(999)
	assert.ErrorIs(t, err, ErrMissingReference)
}

func TestUpdateProperty(t *testing.T) {
	engine, _, rates := newTestEngine(t)
	created, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)

	snapshot, err := engine.UpdateProperty(created.Property.ID, 12, 300000, 450000)
	require.NoError(t, err)
	assert.Equal(t, 12.0, snapshot.Property.HoldingPeriodMonths)
	assert.Equal(t, 450000.0, snapshot.Property.AfterRepairValue)
	assert.InDelta(t, 20400, snapshot.Property.TotalHoldingCost, 0.01)
	assert.InDelta(t, 89400, snapshot.Property.TotalCost, 0.01)
	assert.InDelta(t, 360600, snapshot.Property.Profit, 0.01)
	assert.InDelta(t, 360600.0/12, snapshot.Property.MonthlyProfit, 0.01)

	// Editing inputs reuses the live mortgage row: no provider traffic.
	assert.Equal(t, 1, rates.rateCalls)
	assert.Equal(t, 1, rates.interestCalls)
}

func TestUpdatePropertyZeroHoldingPeriod(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	created, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)

	_, err = engine.UpdateProperty(created.Property.ID, 0, 300000, 400000)
	assert.ErrorIs(t, err, finance.ErrInvalidNumericInput)

	// The failed update left nothing behind.
	after, err := engine.GetProperty(created.Property.ID)
	require.NoError(t, err)
	assert.Equal(t, 6.0, after.Property.HoldingPeriodMonths)
	assert.InDelta(t, created.Property.TotalCost, after.Property.TotalCost, 0.01)
}

func TestResetTaxes(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	created, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)

	snapshot, err := engine.ResetTaxes(created.Property.ID)
	require.NoError(t, err)
	require.NotNil(t, snapshot.Property.TaxesYearly)
	assert.Equal(t, 0.0, *snapshot.Property.TaxesYearly)
	assert.InDelta(t, 1400, snapshot.Property.MonthlyHoldingCost, 0.01)
}

func TestUpdateMortgageTerms(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	created, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)

	pct := 25.0
	snapshot, err := engine.UpdateMortgageTerms(created.Property.ID, MortgageTermsUpdate{
		DownPaymentPercent: &pct,
	})
	require.NoError(t, err)

	require.NotNil(t, snapshot.Mortgage)
	assert.InDelta(t, 75000, snapshot.Mortgage.DownPayment, 0.01)
	assert.InDelta(t, 225000, snapshot.Mortgage.BaseLoanAmount, 0.01)
	assert.InDelta(t, 1312.5, snapshot.Mortgage.InterestPaymentMonthly, 0.01)
	assert.InDelta(t, 9000, snapshot.Mortgage.ClosingCosts, 0.01)

	// Monthly holding swaps the old interest payment for the new one.
	assert.InDelta(t, 1612.5, snapshot.Property.MonthlyHoldingCost, 0.01)
	assert.InDelta(t, 84000, snapshot.Property.TotalUpfrontCost, 0.01)
}

func TestUpdateMortgageTermsAmounts(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	created, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)

	down := 45000.0
	closing := 12000.0
	snapshot, err := engine.UpdateMortgageTerms(created.Property.ID, MortgageTermsUpdate{
		DownPayment:  &down,
		ClosingCosts: &closing,
	})
	require.NoError(t, err)
	assert.InDelta(t, 45000, snapshot.Mortgage.DownPayment, 0.01)
	assert.InDelta(t, 12000, snapshot.Mortgage.ClosingCosts, 0.01)
	assert.InDelta(t, 255000, snapshot.Mortgage.BaseLoanAmount, 0.01)
}

func TestRestoreDefaults(t *testing.T) {
	engine, market, _ := newTestEngine(t)
	created, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)

	_, err = engine.SetDefaultHoldingPeriod(1, 9)
	require.NoError(t, err)
	_, err = engine.AddDefaultRepairItem(1, "Paint", 1000)
	require.NoError(t, err)

	_, err = engine.UpdateProperty(created.Property.ID, 12, 280000, 350000)
	require.NoError(t, err)
	_, err = engine.AddHoldingItem(created.Property.ID, "Utilities", 400)
	require.NoError(t, err)

	snapshot, err := engine.RestoreDefaults(created.Property.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, 9.0, snapshot.Property.HoldingPeriodMonths)
	assert.Equal(t, 300000.0, snapshot.Property.PurchasePrice)
	assert.Equal(t, 400000.0, snapshot.Property.AfterRepairValue)
	assert.Equal(t, 1000.0, snapshot.Property.TotalRepairCost)
	require.Len(t, snapshot.RepairItems, 1)
	assert.Equal(t, "Paint", snapshot.RepairItems[0].Name)
	assert.Empty(t, snapshot.HoldingItems)
	assert.InDelta(t, 1700, snapshot.Property.MonthlyHoldingCost, 0.01)

	// The market snapshot was still fresh, so no provider traffic.
	assert.Equal(t, 1, market.valueCalls)
}

func TestListPropertiesOrdered(t *testing.T) {
	engine, market, _ := newTestEngine(t)
	first, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)

	market.listing.Price = 200000
	second, err := engine.CreateProperty("456 Oak Ave", "addr-2", 1)
	require.NoError(t, err)

	snapshots, err := engine.ListPropertiesOrdered(1, "total_cost", "ASC")
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, second.Property.ID, snapshots[0].Property.ID)
	assert.Equal(t, first.Property.ID, snapshots[1].Property.ID)

	_, err = engine.ListPropertiesOrdered(1, "profit; DROP TABLE properties", "ASC")
	assert.Error(t, err)
}

func TestDeleteProperty(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	created, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)
	_, err = engine.AddRepairItem(created.Property.ID, "New roof", 5500)
	require.NoError(t, err)

	require.NoError(t, engine.DeleteProperty(created.Property.ID))

	var count int
	require.NoError(t, engine.db.GetDB().QueryRow(`SELECT COUNT(*) FROM repair_items`).Scan(&count))
	assert.Equal(t, 0, count)

	err = engine.DeleteProperty(created.Property.ID)
	assert.ErrorIs(t, err, ErrMissingReference)
}

func TestUserDefaultsCRUD(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	defaults, err := engine.GetUserDefaults(1)
	require.NoError(t, err)
	assert.Equal(t, 6.0, defaults.HoldingPeriodMonths)
	assert.Empty(t, defaults.RepairItems)

	defaults, err = engine.SetDefaultHoldingPeriod(1, 9)
	require.NoError(t, err)
	assert.Equal(t, 9.0, defaults.HoldingPeriodMonths)

	_, err = engine.SetDefaultHoldingPeriod(1, 0)
	assert.ErrorIs(t, err, finance.ErrInvalidNumericInput)

	defaults, err = engine.AddDefaultRepairItem(1, "Paint", 1000)
	require.NoError(t, err)
	require.Len(t, defaults.RepairItems, 1)

	defaults, err = engine.AddDefaultHoldingItem(1, "Insurance", 150)
	require.NoError(t, err)
	require.Len(t, defaults.HoldingItems, 1)

	defaults, err = engine.DeleteDefaultRepairItem(1, defaults.RepairItems[0].ID)
	require.NoError(t, err)
	assert.Empty(t, defaults.RepairItems)

	defaults, err = engine.DeleteDefaultHoldingItem(1, defaults.HoldingItems[0].ID)
	require.NoError(t, err)
	assert.Empty(t, defaults.HoldingItems)
}

func TestMortgageGateReuse(t *testing.T) {
	engine, _, rates := newTestEngine(t)
	created, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	require.NoError(t, err)

	// Restore inside the window reuses assumptions and calculation rows.
	engine.now = func() time.Time { return baseTime.Add(time.Hour) }
	_, err = engine.RestoreDefaults(created.Property.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, rates.rateCalls)
	assert.Equal(t, 1, rates.interestCalls)

	// A day later both mortgage gates refresh.
	engine.now = func() time.Time { return baseTime.Add(25 * time.Hour) }
	_, err = engine.RestoreDefaults(created.Property.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, rates.rateCalls)
	assert.Equal(t, 2, rates.interestCalls)
}

func TestRatesFailureRollsBack(t *testing.T) {
	engine, _, rates := newTestEngine(t)
	rates.rateErr = errors.New("timeout")

	_, err := engine.CreateProperty("123 Main St", "addr-1", 1)
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	var count int
	require.NoError(t, engine.db.GetDB().QueryRow(`SELECT COUNT(*) FROM properties`).Scan(&count))
	assert.Equal(t, 0, count)
}
