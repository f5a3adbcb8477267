package database

import "fmt"

func (d *Database) RunMigrations() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS properties (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			market_data_id INTEGER NOT NULL,
			address TEXT NOT NULL,
			purchase_price REAL NOT NULL,
			taxes_yearly REAL,
			after_repair_value REAL NOT NULL,
			holding_period_months REAL NOT NULL DEFAULT 6,
			total_repair_cost REAL NOT NULL DEFAULT 0,
			monthly_holding_cost REAL NOT NULL DEFAULT 0,
			total_holding_cost REAL NOT NULL DEFAULT 0,
			total_upfront_cost REAL NOT NULL DEFAULT 0,
			total_cost REAL NOT NULL DEFAULT 0,
			profit REAL NOT NULL DEFAULT 0,
			monthly_profit REAL NOT NULL DEFAULT 0,
			inserted_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS repair_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			property_id INTEGER NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			cost REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS holding_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			property_id INTEGER NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			cost REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS market_data_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			address_id TEXT NOT NULL,
			address TEXT NOT NULL,
			purchase_price REAL NOT NULL,
			taxes_yearly REAL,
			after_repair_value REAL NOT NULL,
			property_type TEXT NOT NULL,
			bedrooms REAL NOT NULL,
			bathrooms REAL NOT NULL,
			square_footage REAL NOT NULL,
			inserted_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS default_mortgage_assumptions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			property_id INTEGER NOT NULL,
			interest_rate REAL NOT NULL,
			base_loan_amount REAL NOT NULL,
			interest_rate_annual REAL NOT NULL,
			inserted_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS mortgage_calculations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			property_id INTEGER NOT NULL,
			interest_rate REAL NOT NULL,
			down_payment REAL NOT NULL,
			base_loan_amount REAL NOT NULL,
			closing_costs REAL NOT NULL,
			interest_rate_annual REAL NOT NULL,
			interest_rate_monthly REAL NOT NULL,
			interest_decimal_monthly REAL NOT NULL,
			interest_payment_monthly REAL NOT NULL,
			inserted_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_defaults (
			user_id INTEGER PRIMARY KEY,
			holding_period_months REAL NOT NULL DEFAULT 6
		);`,
		`CREATE TABLE IF NOT EXISTS default_repair_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			cost REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS default_holding_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			cost REAL NOT NULL
		);`,
		// Freshness lookups are always "most recent row for this key since T".
		`CREATE INDEX IF NOT EXISTS idx_market_data_address
			ON market_data_snapshots(address_id, inserted_at);`,
		`CREATE INDEX IF NOT EXISTS idx_assumptions_property
			ON default_mortgage_assumptions(property_id, inserted_at);`,
		`CREATE INDEX IF NOT EXISTS idx_calculations_property
			ON mortgage_calculations(property_id, inserted_at);`,
		`CREATE INDEX IF NOT EXISTS idx_repair_items_property
			ON repair_items(property_id);`,
		`CREATE INDEX IF NOT EXISTS idx_holding_items_property
			ON holding_items(property_id);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_user
			ON properties(user_id, inserted_at);`,
	}

	for _, stmt := range statements {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
