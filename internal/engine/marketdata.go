package engine

import (
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"flipcast/server/internal/database"
	"flipcast/server/internal/freshness"
	"flipcast/server/internal/models"
	"flipcast/server/internal/providers/rentcast"
)

// Fallback values when the sale-listing lookup fails and public records leave
// a field empty.
const (
	fallbackPropertyType  = "Single Family"
	fallbackBedrooms      = 3.0
	fallbackBathrooms     = 2.0
	fallbackSquareFootage = 1500.0
)

// resolveMarketData returns the fresh market data snapshot for an address,
// reusing a cached row when one exists inside the freshness window and
// otherwise running the provider refresh chain.
func (e *Engine) resolveMarketData(tx *database.Tx, addressID, address string, now time.Time) (*models.MarketDataSnapshot, error) {
	snapshot, refreshed, err := freshness.GetOrRefresh(
		func(since time.Time) (*models.MarketDataSnapshot, error) {
			return tx.GetMarketSnapshot(addressID, since)
		},
		func() (*models.MarketDataSnapshot, error) {
			return e.fetchMarketData(tx, addressID, address, now)
		},
		now, freshness.Window,
	)
	if err != nil {
		return nil, err
	}
	if refreshed {
		e.logger.WithField("address_id", addressID).Info("Refreshed market data snapshot")
	}
	return snapshot, nil
}

// fetchMarketData runs the refresh chain: value estimate, then public
// records, then the active sale listing. The first two are required; a
// failed listing lookup falls back to records-derived values.
func (e *Engine) fetchMarketData(tx *database.Tx, addressID, address string, now time.Time) (*models.MarketDataSnapshot, error) {
	value, err := e.market.GetValueEstimate(address)
	if err != nil {
		e.logger.WithError(err).WithField("address", address).Error("Value estimate lookup failed")
		return nil, ErrProviderUnavailable
	}

	records, err := e.market.GetRecords(address)
	if err != nil {
		e.logger.WithError(err).WithField("address", address).Error("Public records lookup failed")
		return nil, ErrProviderUnavailable
	}

	taxes, err := taxesForLastYear(records.PropertyTaxes, now)
	if err != nil {
		e.logger.WithError(err).WithField("address", address).Error("Tax extraction failed")
		return nil, err
	}

	snapshot := &models.MarketDataSnapshot{
		AddressID:        addressID,
		Address:          records.FormattedAddress,
		PurchasePrice:    value.Price,
		TaxesYearly:      taxes,
		AfterRepairValue: value.PriceRangeHigh,
		PropertyType:     records.PropertyType,
		Bedrooms:         records.Bedrooms,
		Bathrooms:        records.Bathrooms,
		SquareFootage:    records.SquareFootage,
	}

	listing, err := e.market.GetSaleListing(records.FormattedAddress)
	if err != nil {
		// Tolerated partial result: no active listing is a normal state.
		e.logger.WithFields(logrus.Fields{
			"address": records.FormattedAddress,
			"error":   err.Error(),
		}).Warn("Sale listing lookup failed, using records data")
		applyListingFallbacks(snapshot)
	} else {
		snapshot.Address = listing.FormattedAddress
		snapshot.PurchasePrice = listing.Price
	}

	return tx.InsertMarketSnapshot(snapshot, now)
}

// taxesForLastYear indexes the per-year tax map by the previous calendar
// year. A nil map means the county reported no taxes (stored as NULL); a
// present map without that year is an error rather than a silent default.
func taxesForLastYear(byYear map[string]rentcast.TaxYear, now time.Time) (*float64, error) {
	if byYear == nil {
		return nil, nil
	}
	year := strconv.Itoa(now.Year() - 1)
	entry, ok := byYear[year]
	if !ok {
		return nil, ErrMissingTaxYear
	}
	total := entry.Total
	return &total, nil
}

func applyListingFallbacks(s *models.MarketDataSnapshot) {
	if s.PropertyType == "" {
		s.PropertyType = fallbackPropertyType
	}
	if s.Bedrooms == 0 {
		s.Bedrooms = fallbackBedrooms
	}
	if s.Bathrooms == 0 {
		s.Bathrooms = fallbackBathrooms
	}
	if s.SquareFootage == 0 {
		s.SquareFootage = fallbackSquareFootage
	}
}
