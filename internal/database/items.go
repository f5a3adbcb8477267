package database

import (
	"database/sql"
	"fmt"

	"flipcast/server/internal/models"
)

// Repair and holding items share a schema; table names are fixed by the two
// exported method sets below rather than interpolated from caller input.

func (t *Tx) insertItem(table string, propertyID int64, name string, cost float64) (int64, error) {
	result, err := t.tx.Exec(
		`INSERT INTO `+table+` (property_id, name, cost) VALUES (?, ?, ?)`,
		propertyID, name, cost,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return result.LastInsertId()
}

func (t *Tx) getItem(table string, itemID int64) (*models.LineItem, error) {
	var item models.LineItem
	err := t.tx.QueryRow(
		`SELECT id, property_id, name, cost FROM `+table+` WHERE id = ?`, itemID,
	).Scan(&item.ID, &item.PropertyID, &item.Name, &item.Cost)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item from %s: %w", table, err)
	}
	return &item, nil
}

func (t *Tx) deleteItem(table string, itemID int64) error {
	_, err := t.tx.Exec(`DELETE FROM `+table+` WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

func (t *Tx) listItems(table string, propertyID int64) ([]models.LineItem, error) {
	rows, err := t.tx.Query(
		`SELECT id, property_id, name, cost FROM `+table+` WHERE property_id = ? ORDER BY id`,
		propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items from %s: %w", table, err)
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var item models.LineItem
		if err := rows.Scan(&item.ID, &item.PropertyID, &item.Name, &item.Cost); err != nil {
			return nil, fmt.Errorf("failed to scan item from %s: %w", table, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (t *Tx) sumItems(table string, propertyID int64) (float64, error) {
	var total sql.NullFloat64
	err := t.tx.QueryRow(
		`SELECT SUM(cost) FROM `+table+` WHERE property_id = ?`, propertyID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum %s: %w", table, err)
	}
	return total.Float64, nil
}

func (t *Tx) deleteItemsForProperty(table string, propertyID int64) error {
	_, err := t.tx.Exec(`DELETE FROM `+table+` WHERE property_id = ?`, propertyID)
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	return nil
}

// Repair items.

func (t *Tx) InsertRepairItem(propertyID int64, name string, cost float64) (int64, error) {
	return t.insertItem("repair_items", propertyID, name, cost)
}

func (t *Tx) GetRepairItem(itemID int64) (*models.LineItem, error) {
	return t.getItem("repair_items", itemID)
}

func (t *Tx) DeleteRepairItem(itemID int64) error {
	return t.deleteItem("repair_items", itemID)
}

func (t *Tx) ListRepairItems(propertyID int64) ([]models.LineItem, error) {
	return t.listItems("repair_items", propertyID)
}

func (t *Tx) SumRepairItems(propertyID int64) (float64, error) {
	return t.sumItems("repair_items", propertyID)
}

func (t *Tx) DeleteRepairItemsForProperty(propertyID int64) error {
	return t.deleteItemsForProperty("repair_items", propertyID)
}

// Holding items.

func (t *Tx) InsertHoldingItem(propertyID int64, name string, cost float64) (int64, error) {
	return t.insertItem("holding_items", propertyID, name, cost)
}

func (t *Tx) GetHoldingItem(itemID int64) (*models.LineItem, error) {
	return t.getItem("holding_items", itemID)
}

func (t *Tx) DeleteHoldingItem(itemID int64) error {
	return t.deleteItem("holding_items", itemID)
}

func (t *Tx) ListHoldingItems(propertyID int64) ([]models.LineItem, error) {
	return t.listItems("holding_items", propertyID)
}

func (t *Tx) SumHoldingItems(propertyID int64) (float64, error) {
	return t.sumItems("holding_items", propertyID)
}

func (t *Tx) DeleteHoldingItemsForProperty(propertyID int64) error {
	return t.deleteItemsForProperty("holding_items", propertyID)
}
