package engine

import (
	"flipcast/server/internal/database"
	"flipcast/server/internal/finance"
	"flipcast/server/internal/models"
)

// withDefaults runs fn in a transaction and returns the user's defaults as
// they stand after it.
func (e *Engine) withDefaults(userID int64, fn func(tx *database.Tx) error) (*models.UserDefaults, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if fn != nil {
		if err := fn(tx); err != nil {
			return nil, err
		}
	}
	defaults, err := tx.GetUserDefaults(userID)
	if err != nil {
		return nil, err
	}
	return defaults, tx.Commit()
}

// GetUserDefaults returns the per-user template applied to new properties.
func (e *Engine) GetUserDefaults(userID int64) (*models.UserDefaults, error) {
	return e.withDefaults(userID, nil)
}

// SetDefaultHoldingPeriod updates the default holding period. Zero or
// negative months would make every later recompute divide by zero, so they
// are rejected up front.
func (e *Engine) SetDefaultHoldingPeriod(userID int64, months float64) (*models.UserDefaults, error) {
	if months <= 0 {
		return nil, finance.ErrInvalidNumericInput
	}
	return e.withDefaults(userID, func(tx *database.Tx) error {
		return tx.SetDefaultHoldingPeriod(userID, months)
	})
}

// AddDefaultRepairItem adds a repair line item to the user's template.
func (e *Engine) AddDefaultRepairItem(userID int64, name string, cost float64) (*models.UserDefaults, error) {
	return e.withDefaults(userID, func(tx *database.Tx) error {
		_, err := tx.InsertDefaultRepairItem(userID, name, cost)
		return err
	})
}

// AddDefaultHoldingItem adds a holding line item to the user's template.
func (e *Engine) AddDefaultHoldingItem(userID int64, name string, cost float64) (*models.UserDefaults, error) {
	return e.withDefaults(userID, func(tx *database.Tx) error {
		_, err := tx.InsertDefaultHoldingItem(userID, name, cost)
		return err
	})
}

// DeleteDefaultRepairItem removes a repair line item from the template.
func (e *Engine) DeleteDefaultRepairItem(userID, itemID int64) (*models.UserDefaults, error) {
	return e.withDefaults(userID, func(tx *database.Tx) error {
		return tx.DeleteDefaultRepairItem(itemID)
	})
}

// DeleteDefaultHoldingItem removes a holding line item from the template.
func (e *Engine) DeleteDefaultHoldingItem(userID, itemID int64) (*models.UserDefaults, error) {
	return e.withDefaults(userID, func(tx *database.Tx) error {
		return tx.DeleteDefaultHoldingItem(itemID)
	})
}
