package database

import (
	"database/sql"
	"fmt"

	"flipcast/server/internal/models"
)

// GetUserDefaults loads the per-user template: default holding period plus
// default repair and holding item lists. A user with no saved row gets the
// schema default holding period and empty lists.
func (t *Tx) GetUserDefaults(userID int64) (*models.UserDefaults, error) {
	defaults := &models.UserDefaults{UserID: userID, HoldingPeriodMonths: 6}

	err := t.tx.QueryRow(
		`SELECT holding_period_months FROM user_defaults WHERE user_id = ?`, userID,
	).Scan(&defaults.HoldingPeriodMonths)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get user defaults: %w", err)
	}

	defaults.RepairItems, err = t.listDefaultItems("default_repair_items", userID)
	if err != nil {
		return nil, err
	}
	defaults.HoldingItems, err = t.listDefaultItems("default_holding_items", userID)
	if err != nil {
		return nil, err
	}

	return defaults, nil
}

func (t *Tx) listDefaultItems(table string, userID int64) ([]models.LineItem, error) {
	rows, err := t.tx.Query(
		`SELECT id, user_id, name, cost FROM `+table+` WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var item models.LineItem
		var ownerID int64
		if err := rows.Scan(&item.ID, &ownerID, &item.Name, &item.Cost); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (t *Tx) SetDefaultHoldingPeriod(userID int64, months float64) error {
	_, err := t.tx.Exec(`
		INSERT INTO user_defaults (user_id, holding_period_months)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET holding_period_months = excluded.holding_period_months`,
		userID, months,
	)
	if err != nil {
		return fmt.Errorf("failed to set default holding period: %w", err)
	}
	return nil
}

func (t *Tx) InsertDefaultRepairItem(userID int64, name string, cost float64) (int64, error) {
	return t.insertDefaultItem("default_repair_items", userID, name, cost)
}

func (t *Tx) InsertDefaultHoldingItem(userID int64, name string, cost float64) (int64, error) {
	return t.insertDefaultItem("default_holding_items", userID, name, cost)
}

func (t *Tx) insertDefaultItem(table string, userID int64, name string, cost float64) (int64, error) {
	result, err := t.tx.Exec(
		`INSERT INTO `+table+` (user_id, name, cost) VALUES (?, ?, ?)`,
		userID, name, cost,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return result.LastInsertId()
}

func (t *Tx) DeleteDefaultRepairItem(itemID int64) error {
	return t.deleteItem("default_repair_items", itemID)
}

func (t *Tx) DeleteDefaultHoldingItem(itemID int64) error {
	return t.deleteItem("default_holding_items", itemID)
}
