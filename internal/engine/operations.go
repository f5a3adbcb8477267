package engine

import (
	"database/sql"
	"errors"

	"github.com/sirupsen/logrus"

	"flipcast/server/internal/database"
	"flipcast/server/internal/models"
)

// loadAggregate reads the property row and its live mortgage calculation,
// both of which every mutating operation requires.
func (e *Engine) loadAggregate(tx *database.Tx, propertyID int64) (*models.PropertyFinancials, *models.MortgageCalculation, error) {
	property, err := tx.GetProperty(propertyID)
	if err != nil {
		return nil, nil, err
	}
	if property == nil {
		return nil, nil, ErrMissingReference
	}
	mortgage, err := tx.GetLiveMortgageCalculation(propertyID)
	if err != nil {
		return nil, nil, err
	}
	if mortgage == nil {
		return nil, nil, ErrMissingReference
	}
	return property, mortgage, nil
}

// seedItems copies the user's default line items onto a property and returns
// their cost sums.
func (e *Engine) seedItems(tx *database.Tx, propertyID int64, defaults *models.UserDefaults) (repairSum, holdingSum float64, err error) {
	for _, item := range defaults.RepairItems {
		if _, err := tx.InsertRepairItem(propertyID, item.Name, item.Cost); err != nil {
			return 0, 0, err
		}
		repairSum += item.Cost
	}
	for _, item := range defaults.HoldingItems {
		if _, err := tx.InsertHoldingItem(propertyID, item.Name, item.Cost); err != nil {
			return 0, 0, err
		}
		holdingSum += item.Cost
	}
	return repairSum, holdingSum, nil
}

// CreateProperty acquires market data for an address (through the freshness
// gate), creates the property seeded from the snapshot and the user's
// defaults, resolves its mortgage and persists the first full recompute.
func (e *Engine) CreateProperty(address, addressID string, userID int64) (*Snapshot, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	now := e.now()

	marketData, err := e.resolveMarketData(tx, addressID, address, now)
	if err != nil {
		return nil, err
	}

	defaults, err := tx.GetUserDefaults(userID)
	if err != nil {
		return nil, err
	}

	propertyID, err := tx.InsertProperty(userID, marketData, defaults.HoldingPeriodMonths, now)
	if err != nil {
		return nil, err
	}
	repairSum, holdingSum, err := e.seedItems(tx, propertyID, defaults)
	if err != nil {
		return nil, err
	}

	property, err := tx.GetProperty(propertyID)
	if err != nil {
		return nil, err
	}

	mortgage, err := e.resolveMortgage(tx, property, now)
	if err != nil {
		return nil, err
	}

	rc := newRecomputeContext(property, mortgage).
		WithRepairTotal(repairSum).
		WithMonthlyHoldingTotal(holdingSum + taxesOf(property)/12 + mortgage.InterestPaymentMonthly)
	if err := e.persistRecompute(tx, rc, now); err != nil {
		return nil, err
	}

	snapshot, err := e.snapshot(tx, propertyID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"property_id": propertyID,
		"user_id":     userID,
	}).Info("Created property")
	return snapshot, nil
}

// UpdateProperty saves the user-edited primitives and recomputes the derived
// fields from the stored totals. The live mortgage figures are reused as-is.
func (e *Engine) UpdateProperty(propertyID int64, holdingPeriodMonths, purchasePrice, afterRepairValue float64) (*Snapshot, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	now := e.now()

	property, mortgage, err := e.loadAggregate(tx, propertyID)
	if err != nil {
		return nil, err
	}

	rc := newRecomputeContext(property, mortgage).
		WithInputs(holdingPeriodMonths, purchasePrice, afterRepairValue)
	metrics, err := rc.Metrics()
	if err != nil {
		return nil, err
	}

	if err := tx.UpdatePropertyInputs(propertyID, holdingPeriodMonths, purchasePrice, afterRepairValue, now); err != nil {
		return nil, err
	}
	if err := tx.UpdateDerivedTotals(propertyID, metrics, now); err != nil {
		return nil, err
	}

	snapshot, err := e.snapshot(tx, propertyID)
	if err != nil {
		return nil, err
	}
	return snapshot, tx.Commit()
}

// AddRepairItem inserts a repair line item and folds its cost into the
// stored repair total without re-reading the item list.
func (e *Engine) AddRepairItem(propertyID int64, name string, cost float64) (*Snapshot, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	now := e.now()

	property, mortgage, err := e.loadAggregate(tx, propertyID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.InsertRepairItem(propertyID, name, cost); err != nil {
		return nil, err
	}

	rc := newRecomputeContext(property, mortgage).
		WithRepairTotal(property.TotalRepairCost + cost)
	if err := e.persistRecompute(tx, rc, now); err != nil {
		return nil, err
	}

	snapshot, err := e.snapshot(tx, propertyID)
	if err != nil {
		return nil, err
	}
	return snapshot, tx.Commit()
}

// DeleteRepairItem removes a repair line item and subtracts its cost from
// the stored repair total in the same transaction.
func (e *Engine) DeleteRepairItem(itemID int64) (*Snapshot, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	now := e.now()

	item, err := tx.GetRepairItem(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrMissingReference
	}
	property, mortgage, err := e.loadAggregate(tx, item.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := tx.DeleteRepairItem(itemID); err != nil {
		return nil, err
	}

	rc := newRecomputeContext(property, mortgage).
		WithRepairTotal(property.TotalRepairCost - item.Cost)
	if err := e.persistRecompute(tx, rc, now); err != nil {
		return nil, err
	}

	snapshot, err := e.snapshot(tx, item.PropertyID)
	if err != nil {
		return nil, err
	}
	return snapshot, tx.Commit()
}

// AddHoldingItem inserts a holding line item and folds its cost into the
// stored monthly holding total.
func (e *Engine) AddHoldingItem(propertyID int64, name string, cost float64) (*Snapshot, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	now := e.now()

	property, mortgage, err := e.loadAggregate(tx, propertyID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.InsertHoldingItem(propertyID, name, cost); err != nil {
		return nil, err
	}

	rc := newRecomputeContext(property, mortgage).
		WithMonthlyHoldingTotal(property.MonthlyHoldingCost + cost)
	if err := e.persistRecompute(tx, rc, now); err != nil {
		return nil, err
	}

	snapshot, err := e.snapshot(tx, propertyID)
	if err != nil {
		return nil, err
	}
	return snapshot, tx.Commit()
}

// DeleteHoldingItem removes a holding line item and subtracts its cost from
// the stored monthly holding total in the same transaction.
func (e *Engine) DeleteHoldingItem(itemID int64) (*Snapshot, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	now := e.now()

	item, err := tx.GetHoldingItem(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrMissingReference
	}
	property, mortgage, err := e.loadAggregate(tx, item.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := tx.DeleteHoldingItem(itemID); err != nil {
		return nil, err
	}

	rc := newRecomputeContext(property, mortgage).
		WithMonthlyHoldingTotal(property.MonthlyHoldingCost - item.Cost)
	if err := e.persistRecompute(tx, rc, now); err != nil {
		return nil, err
	}

	snapshot, err := e.snapshot(tx, item.PropertyID)
	if err != nil {
		return nil, err
	}
	return snapshot, tx.Commit()
}

// ResetTaxes zeroes the yearly taxes and removes their monthly share from
// the holding total.
func (e *Engine) ResetTaxes(propertyID int64) (*Snapshot, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	now := e.now()

	property, mortgage, err := e.loadAggregate(tx, propertyID)
	if err != nil {
		return nil, err
	}
	if err := tx.ResetTaxes(propertyID, now); err != nil {
		return nil, err
	}

	rc := newRecomputeContext(property, mortgage).
		WithMonthlyHoldingTotal(property.MonthlyHoldingCost - taxesOf(property)/12)
	if err := e.persistRecompute(tx, rc, now); err != nil {
		return nil, err
	}

	snapshot, err := e.snapshot(tx, propertyID)
	if err != nil {
		return nil, err
	}
	return snapshot, tx.Commit()
}

// RestoreDefaults rewinds a property to its market data snapshot and the
// user's default items and holding period, then re-runs the acquisition
// gates and recomputes.
func (e *Engine) RestoreDefaults(propertyID, userID int64) (*Snapshot, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	now := e.now()

	property, err := tx.GetProperty(propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, ErrMissingReference
	}
	origin, err := tx.GetMarketSnapshotByID(property.MarketDataID)
	if err != nil {
		return nil, err
	}
	if origin == nil {
		return nil, ErrMissingReference
	}

	marketData, err := e.resolveMarketData(tx, origin.AddressID, origin.Address, now)
	if err != nil {
		return nil, err
	}

	defaults, err := tx.GetUserDefaults(userID)
	if err != nil {
		return nil, err
	}
	if err := tx.DeleteRepairItemsForProperty(propertyID); err != nil {
		return nil, err
	}
	if err := tx.DeleteHoldingItemsForProperty(propertyID); err != nil {
		return nil, err
	}
	repairSum, holdingSum, err := e.seedItems(tx, propertyID, defaults)
	if err != nil {
		return nil, err
	}

	if err := tx.RestorePropertyInputs(propertyID, marketData, defaults.HoldingPeriodMonths, now); err != nil {
		return nil, err
	}
	property, err = tx.GetProperty(propertyID)
	if err != nil {
		return nil, err
	}

	mortgage, err := e.resolveMortgage(tx, property, now)
	if err != nil {
		return nil, err
	}

	rc := newRecomputeContext(property, mortgage).
		WithRepairTotal(repairSum).
		WithMonthlyHoldingTotal(holdingSum + taxesOf(property)/12 + mortgage.InterestPaymentMonthly)
	if err := e.persistRecompute(tx, rc, now); err != nil {
		return nil, err
	}

	snapshot, err := e.snapshot(tx, propertyID)
	if err != nil {
		return nil, err
	}
	return snapshot, tx.Commit()
}

// MortgageTermsUpdate carries the optional down payment and closing cost
// edits. Amount and percentage are paired forms: supplying one derives the
// other from the purchase price.
type MortgageTermsUpdate struct {
	DownPayment         *float64
	DownPaymentPercent  *float64
	ClosingCosts        *float64
	ClosingCostsPercent *float64
}

// UpdateMortgageTerms applies down payment / closing cost edits, inserts the
// resulting mortgage calculation as a new live row and recomputes.
func (e *Engine) UpdateMortgageTerms(propertyID int64, update MortgageTermsUpdate) (*Snapshot, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	now := e.now()

	property, mortgage, err := e.loadAggregate(tx, propertyID)
	if err != nil {
		return nil, err
	}

	inserted, err := tx.InsertMortgageCalculation(appliedTerms(property, mortgage, update), now)
	if err != nil {
		return nil, err
	}

	rc := newRecomputeContext(property, inserted).
		WithMonthlyHoldingTotal(property.MonthlyHoldingCost -
			mortgage.InterestPaymentMonthly + inserted.InterestPaymentMonthly)
	if err := e.persistRecompute(tx, rc, now); err != nil {
		return nil, err
	}

	snapshot, err := e.snapshot(tx, propertyID)
	if err != nil {
		return nil, err
	}
	return snapshot, tx.Commit()
}

// GetProperty returns the full aggregate for one property.
func (e *Engine) GetProperty(propertyID int64) (*Snapshot, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	snapshot, err := e.snapshot(tx, propertyID)
	if err != nil {
		return nil, err
	}
	return snapshot, tx.Commit()
}

// ListProperties returns a user's properties with their line items, newest
// first.
func (e *Engine) ListProperties(userID int64) ([]Snapshot, error) {
	return e.ListPropertiesOrdered(userID, "inserted_at", "DESC")
}

// ListPropertiesOrdered returns a user's properties sorted by one of the
// whitelisted columns.
func (e *Engine) ListPropertiesOrdered(userID int64, orderBy, direction string) ([]Snapshot, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	properties, err := tx.ListProperties(userID, orderBy, direction)
	if err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, 0, len(properties))
	for _, p := range properties {
		repairs, err := tx.ListRepairItems(p.ID)
		if err != nil {
			return nil, err
		}
		holdings, err := tx.ListHoldingItems(p.ID)
		if err != nil {
			return nil, err
		}
		mortgage, err := tx.GetLiveMortgageCalculation(p.ID)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, Snapshot{
			Property:     p,
			RepairItems:  repairs,
			HoldingItems: holdings,
			Mortgage:     mortgage,
		})
	}
	return snapshots, tx.Commit()
}

// DeleteProperty removes a property and its line items. Cached snapshot
// rows stay behind for the retention sweeper.
func (e *Engine) DeleteProperty(propertyID int64) error {
	tx, err := e.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.DeleteRepairItemsForProperty(propertyID); err != nil {
		return err
	}
	if err := tx.DeleteHoldingItemsForProperty(propertyID); err != nil {
		return err
	}
	if err := tx.DeleteProperty(propertyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMissingReference
		}
		return err
	}
	return tx.Commit()
}
