package database

import (
	"database/sql"
	"fmt"
	"time"

	"flipcast/server/internal/models"
)

// Cached external data is insert-only. Freshness lookups return the single
// most recently inserted row for the identity key at or after a cutoff; the
// zero-value cutoff means "the latest row regardless of age".

// GetMarketSnapshot returns the newest snapshot for an address identity
// inserted at or after since, or nil when none qualifies.
func (t *Tx) GetMarketSnapshot(addressID string, since time.Time) (*models.MarketDataSnapshot, error) {
	var s models.MarketDataSnapshot
	var taxes sql.NullFloat64
	err := t.tx.QueryRow(`
		SELECT id, address_id, address, purchase_price, taxes_yearly,
		       after_repair_value, property_type, bedrooms, bathrooms,
		       square_footage, inserted_at
		FROM market_data_snapshots
		WHERE address_id = ? AND inserted_at >= ?
		ORDER BY inserted_at DESC, id DESC
		LIMIT 1`,
		addressID, normalize(since),
	).Scan(
		&s.ID, &s.AddressID, &s.Address, &s.PurchasePrice, &taxes,
		&s.AfterRepairValue, &s.PropertyType, &s.Bedrooms, &s.Bathrooms,
		&s.SquareFootage, &s.InsertedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market snapshot: %w", err)
	}
	s.TaxesYearly = floatPtr(taxes)
	return &s, nil
}

// GetMarketSnapshotByID fetches a specific snapshot row, used when restoring
// a property that still points at its original market data.
func (t *Tx) GetMarketSnapshotByID(id int64) (*models.MarketDataSnapshot, error) {
	var s models.MarketDataSnapshot
	var taxes sql.NullFloat64
	err := t.tx.QueryRow(`
		SELECT id, address_id, address, purchase_price, taxes_yearly,
		       after_repair_value, property_type, bedrooms, bathrooms,
		       square_footage, inserted_at
		FROM market_data_snapshots
		WHERE id = ?`, id,
	).Scan(
		&s.ID, &s.AddressID, &s.Address, &s.PurchasePrice, &taxes,
		&s.AfterRepairValue, &s.PropertyType, &s.Bedrooms, &s.Bathrooms,
		&s.SquareFootage, &s.InsertedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market snapshot by id: %w", err)
	}
	s.TaxesYearly = floatPtr(taxes)
	return &s, nil
}

func (t *Tx) InsertMarketSnapshot(s *models.MarketDataSnapshot, now time.Time) (*models.MarketDataSnapshot, error) {
	ts := normalize(now)
	result, err := t.tx.Exec(`
		INSERT INTO market_data_snapshots
			(address_id, address, purchase_price, taxes_yearly, after_repair_value,
			 property_type, bedrooms, bathrooms, square_footage, inserted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.AddressID, s.Address, s.PurchasePrice, nullFloat(s.TaxesYearly),
		s.AfterRepairValue, s.PropertyType, s.Bedrooms, s.Bathrooms,
		s.SquareFootage, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert market snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	inserted := *s
	inserted.ID = id
	inserted.InsertedAt = ts
	return &inserted, nil
}

func (t *Tx) GetDefaultAssumptions(propertyID int64, since time.Time) (*models.DefaultMortgageAssumptions, error) {
	var a models.DefaultMortgageAssumptions
	err := t.tx.QueryRow(`
		SELECT id, property_id, interest_rate, base_loan_amount,
		       interest_rate_annual, inserted_at
		FROM default_mortgage_assumptions
		WHERE property_id = ? AND inserted_at >= ?
		ORDER BY inserted_at DESC, id DESC
		LIMIT 1`,
		propertyID, normalize(since),
	).Scan(&a.ID, &a.PropertyID, &a.InterestRate, &a.BaseLoanAmount, &a.InterestRateAnnual, &a.InsertedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default assumptions: %w", err)
	}
	return &a, nil
}

func (t *Tx) InsertDefaultAssumptions(a *models.DefaultMortgageAssumptions, now time.Time) (*models.DefaultMortgageAssumptions, error) {
	ts := normalize(now)
	result, err := t.tx.Exec(`
		INSERT INTO default_mortgage_assumptions
			(property_id, interest_rate, base_loan_amount, interest_rate_annual, inserted_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.PropertyID, a.InterestRate, a.BaseLoanAmount, a.InterestRateAnnual, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert default assumptions: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	inserted := *a
	inserted.ID = id
	inserted.InsertedAt = ts
	return &inserted, nil
}

const mortgageColumns = `
	id, property_id, interest_rate, down_payment, base_loan_amount,
	closing_costs, interest_rate_annual, interest_rate_monthly,
	interest_decimal_monthly, interest_payment_monthly, inserted_at`

func (t *Tx) scanMortgage(row *sql.Row) (*models.MortgageCalculation, error) {
	var m models.MortgageCalculation
	err := row.Scan(
		&m.ID, &m.PropertyID, &m.InterestRate, &m.DownPayment, &m.BaseLoanAmount,
		&m.ClosingCosts, &m.InterestRateAnnual, &m.InterestRateMonthly,
		&m.InterestDecimalMonthly, &m.InterestPaymentMonthly, &m.InsertedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMortgageCalculation returns the newest calculation for a property
// inserted at or after since.
func (t *Tx) GetMortgageCalculation(propertyID int64, since time.Time) (*models.MortgageCalculation, error) {
	row := t.tx.QueryRow(`
		SELECT `+mortgageColumns+`
		FROM mortgage_calculations
		WHERE property_id = ? AND inserted_at >= ?
		ORDER BY inserted_at DESC, id DESC
		LIMIT 1`,
		propertyID, normalize(since),
	)
	m, err := t.scanMortgage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mortgage calculation: %w", err)
	}
	return m, nil
}

// GetLiveMortgageCalculation returns the latest calculation regardless of age.
func (t *Tx) GetLiveMortgageCalculation(propertyID int64) (*models.MortgageCalculation, error) {
	row := t.tx.QueryRow(`
		SELECT `+mortgageColumns+`
		FROM mortgage_calculations
		WHERE property_id = ?
		ORDER BY inserted_at DESC, id DESC
		LIMIT 1`,
		propertyID,
	)
	m, err := t.scanMortgage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get live mortgage calculation: %w", err)
	}
	return m, nil
}

func (t *Tx) InsertMortgageCalculation(m *models.MortgageCalculation, now time.Time) (*models.MortgageCalculation, error) {
	ts := normalize(now)
	result, err := t.tx.Exec(`
		INSERT INTO mortgage_calculations
			(property_id, interest_rate, down_payment, base_loan_amount,
			 closing_costs, interest_rate_annual, interest_rate_monthly,
			 interest_decimal_monthly, interest_payment_monthly, inserted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.PropertyID, m.InterestRate, m.DownPayment, m.BaseLoanAmount,
		m.ClosingCosts, m.InterestRateAnnual, m.InterestRateMonthly,
		m.InterestDecimalMonthly, m.InterestPaymentMonthly, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert mortgage calculation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	inserted := *m
	inserted.ID = id
	inserted.InsertedAt = ts
	return &inserted, nil
}
