package models

import "time"

// PropertyFinancials is one saved deal. The seven derived fields
// (TotalRepairCost through MonthlyProfit) are pure functions of the primitive
// fields plus the item lists and are only ever written together by a
// recompute; nothing else mutates them.
type PropertyFinancials struct {
	ID                  int64     `json:"id"`
	UserID              int64     `json:"user_id"`
	MarketDataID        int64     `json:"market_data_id"`
	Address             string    `json:"address"`
	PurchasePrice       float64   `json:"purchase_price"`
	TaxesYearly         *float64  `json:"taxes_yearly"`
	AfterRepairValue    float64   `json:"after_repair_value"`
	HoldingPeriodMonths float64   `json:"holding_period_months"`
	TotalRepairCost     float64   `json:"total_repair_cost"`
	MonthlyHoldingCost  float64   `json:"monthly_holding_cost"`
	TotalHoldingCost    float64   `json:"total_holding_cost"`
	TotalUpfrontCost    float64   `json:"total_upfront_cost"`
	TotalCost           float64   `json:"total_cost"`
	Profit              float64   `json:"profit"`
	MonthlyProfit       float64   `json:"monthly_profit"`
	InsertedAt          time.Time `json:"inserted_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// LineItem is a repair or holding cost entry attached to a property.
type LineItem struct {
	ID         int64   `json:"id"`
	PropertyID int64   `json:"property_id"`
	Name       string  `json:"name"`
	Cost       float64 `json:"cost"`
}

// MarketDataSnapshot is a cached external lookup keyed by address identity.
// Rows are insert-only: a snapshot is created on a cache miss and reused
// verbatim while fresh, never mutated.
type MarketDataSnapshot struct {
	ID               int64     `json:"id"`
	AddressID        string    `json:"address_id"`
	Address          string    `json:"address"`
	PurchasePrice    float64   `json:"purchase_price"`
	TaxesYearly      *float64  `json:"taxes_yearly"`
	AfterRepairValue float64   `json:"after_repair_value"`
	PropertyType     string    `json:"property_type"`
	Bedrooms         float64   `json:"bedrooms"`
	Bathrooms        float64   `json:"bathrooms"`
	SquareFootage    float64   `json:"square_footage"`
	InsertedAt       time.Time `json:"inserted_at"`
}

// DefaultMortgageAssumptions caches the quoted interest rate and the derived
// effective annual rate for a property, under the same 24-hour gate as
// market data.
type DefaultMortgageAssumptions struct {
	ID                 int64     `json:"id"`
	PropertyID         int64     `json:"property_id"`
	InterestRate       float64   `json:"interest_rate"`
	BaseLoanAmount     float64   `json:"base_loan_amount"`
	InterestRateAnnual float64   `json:"interest_rate_annual"`
	InsertedAt         time.Time `json:"inserted_at"`
}

// MortgageCalculation is an immutable derived snapshot; the most recently
// inserted row for a property is its live calculation.
type MortgageCalculation struct {
	ID                     int64     `json:"id"`
	PropertyID             int64     `json:"property_id"`
	InterestRate           float64   `json:"interest_rate"`
	DownPayment            float64   `json:"down_payment"`
	BaseLoanAmount         float64   `json:"base_loan_amount"`
	ClosingCosts           float64   `json:"closing_costs"`
	InterestRateAnnual     float64   `json:"interest_rate_annual"`
	InterestRateMonthly    float64   `json:"interest_rate_monthly"`
	InterestDecimalMonthly float64   `json:"interest_decimal_monthly"`
	InterestPaymentMonthly float64   `json:"interest_payment_monthly"`
	InsertedAt             time.Time `json:"inserted_at"`
}

// UserDefaults is the per-user template applied to newly created properties
// and on restore-to-defaults.
type UserDefaults struct {
	UserID              int64      `json:"user_id"`
	HoldingPeriodMonths float64    `json:"holding_period_months"`
	RepairItems         []LineItem `json:"repair_items"`
	HoldingItems        []LineItem `json:"holding_items"`
}
