package database

import (
	"database/sql"
	"fmt"
	"time"

	"flipcast/server/internal/finance"
	"flipcast/server/internal/models"
)

const propertyColumns = `
	id, user_id, market_data_id, address, purchase_price, taxes_yearly,
	after_repair_value, holding_period_months, total_repair_cost,
	monthly_holding_cost, total_holding_cost, total_upfront_cost,
	total_cost, profit, monthly_profit, inserted_at, updated_at`

func scanProperty(row *sql.Row) (*models.PropertyFinancials, error) {
	var p models.PropertyFinancials
	var taxes sql.NullFloat64

	err := row.Scan(
		&p.ID, &p.UserID, &p.MarketDataID, &p.Address, &p.PurchasePrice, &taxes,
		&p.AfterRepairValue, &p.HoldingPeriodMonths, &p.TotalRepairCost,
		&p.MonthlyHoldingCost, &p.TotalHoldingCost, &p.TotalUpfrontCost,
		&p.TotalCost, &p.Profit, &p.MonthlyProfit, &p.InsertedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.TaxesYearly = floatPtr(taxes)
	return &p, nil
}

// InsertProperty creates the property row seeded from a market data snapshot.
// Derived fields start at zero; the creating operation recomputes them before
// its transaction commits.
func (t *Tx) InsertProperty(userID int64, snapshot *models.MarketDataSnapshot, holdingPeriodMonths float64, now time.Time) (int64, error) {
	ts := normalize(now)
	result, err := t.tx.Exec(`
		INSERT INTO properties
			(user_id, market_data_id, address, purchase_price, taxes_yearly,
			 after_repair_value, holding_period_months, inserted_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, snapshot.ID, snapshot.Address, snapshot.PurchasePrice,
		nullFloat(snapshot.TaxesYearly), snapshot.AfterRepairValue,
		holdingPeriodMonths, ts, ts,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert property: %w", err)
	}
	return result.LastInsertId()
}

func (t *Tx) GetProperty(propertyID int64) (*models.PropertyFinancials, error) {
	row := t.tx.QueryRow(`SELECT `+propertyColumns+` FROM properties WHERE id = ?`, propertyID)
	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return p, nil
}

// UpdatePropertyInputs saves the user-edited primitives. The caller recomputes
// the derived fields in the same transaction.
func (t *Tx) UpdatePropertyInputs(propertyID int64, holdingPeriodMonths, purchasePrice, afterRepairValue float64, now time.Time) error {
	_, err := t.tx.Exec(`
		UPDATE properties
		SET holding_period_months = ?, purchase_price = ?, after_repair_value = ?, updated_at = ?
		WHERE id = ?`,
		holdingPeriodMonths, purchasePrice, afterRepairValue, normalize(now), propertyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update property inputs: %w", err)
	}
	return nil
}

// ResetTaxes zeroes the yearly taxes ahead of a recompute.
func (t *Tx) ResetTaxes(propertyID int64, now time.Time) error {
	_, err := t.tx.Exec(`
		UPDATE properties SET taxes_yearly = 0, updated_at = ? WHERE id = ?`,
		normalize(now), propertyID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset taxes: %w", err)
	}
	return nil
}

// RestorePropertyInputs rewrites the primitives from a market snapshot and the
// user's default holding period, as part of restore-to-defaults.
func (t *Tx) RestorePropertyInputs(propertyID int64, snapshot *models.MarketDataSnapshot, holdingPeriodMonths float64, now time.Time) error {
	_, err := t.tx.Exec(`
		UPDATE properties
		SET purchase_price = ?, taxes_yearly = ?, after_repair_value = ?,
		    holding_period_months = ?, updated_at = ?
		WHERE id = ?`,
		snapshot.PurchasePrice, nullFloat(snapshot.TaxesYearly),
		snapshot.AfterRepairValue, holdingPeriodMonths, normalize(now), propertyID,
	)
	if err != nil {
		return fmt.Errorf("failed to restore property inputs: %w", err)
	}
	return nil
}

// UpdateDerivedTotals writes all seven derived fields in one statement. This
// is the only way derived fields change; partial writes are not expressible.
func (t *Tx) UpdateDerivedTotals(propertyID int64, m finance.Metrics, now time.Time) error {
	_, err := t.tx.Exec(`
		UPDATE properties
		SET total_repair_cost = ?,
		    total_upfront_cost = ?,
		    monthly_holding_cost = ?,
		    total_holding_cost = ?,
		    total_cost = ?,
		    profit = ?,
		    monthly_profit = ?,
		    updated_at = ?
		WHERE id = ?`,
		m.TotalRepairCost, m.TotalUpfrontCost, m.TotalMonthlyHoldingCost,
		m.TotalHoldingCost, m.TotalCost, m.Profit, m.MonthlyProfit,
		normalize(now), propertyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update derived totals: %w", err)
	}
	return nil
}

func (t *Tx) DeleteProperty(propertyID int64) error {
	result, err := t.tx.Exec(`DELETE FROM properties WHERE id = ?`, propertyID)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// orderColumns whitelists the sortable columns for filtered listings.
var orderColumns = map[string]string{
	"monthly_profit": "monthly_profit",
	"total_cost":     "total_cost",
	"inserted_at":    "inserted_at",
}

func (t *Tx) ListProperties(userID int64, orderBy, direction string) ([]models.PropertyFinancials, error) {
	col, ok := orderColumns[orderBy]
	if !ok {
		return nil, fmt.Errorf("unsupported order column: %s", orderBy)
	}
	dir := "DESC"
	if direction == "ASC" {
		dir = "ASC"
	}

	rows, err := t.tx.Query(
		`SELECT `+propertyColumns+` FROM properties WHERE user_id = ? ORDER BY `+col+` `+dir,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	var properties []models.PropertyFinancials
	for rows.Next() {
		var p models.PropertyFinancials
		var taxes sql.NullFloat64
		err := rows.Scan(
			&p.ID, &p.UserID, &p.MarketDataID, &p.Address, &p.PurchasePrice, &taxes,
			&p.AfterRepairValue, &p.HoldingPeriodMonths, &p.TotalRepairCost,
			&p.MonthlyHoldingCost, &p.TotalHoldingCost, &p.TotalUpfrontCost,
			&p.TotalCost, &p.Profit, &p.MonthlyProfit, &p.InsertedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		p.TaxesYearly = floatPtr(taxes)
		properties = append(properties, p)
	}
	return properties, rows.Err()
}
