// Package shopping turns a user's shopping cart into a purchase list.
package shopping

import (
	"context"
	"fmt"
	"io"
	"sort"

	"gorm.io/gorm"

	"foodgram/models"
)

// Item is one line of the purchase list: the total amount of an ingredient
// across every recipe in the cart.
type Item struct {
	IngredientID    uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// Aggregator sums cart ingredient amounts in the database.
type Aggregator struct {
	db *gorm.DB
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// List returns the purchase list of userID ordered by ingredient name.
func (a *Aggregator) List(ctx context.Context, userID uint) ([]Item, error) {
	var items []Item
	err := a.db.WithContext(ctx).
		Model(&models.ShoppingCart{}).
		Select("ingredients.id AS ingredient_id, ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(ingredient_amounts.amount) AS amount").
		Joins("JOIN ingredient_amounts ON ingredient_amounts.recipe_id = shopping_carts.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = ingredient_amounts.ingredient_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.id, ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name asc, ingredients.measurement_unit asc").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate shopping cart: %w", err)
	}
	return items, nil
}

// Sum aggregates in-memory ingredient amounts the same way List does in SQL.
// Ingredient must be preloaded on every amount.
func Sum(amounts []models.IngredientAmount) []Item {
	totals := make(map[uint]*Item)
	for _, amount := range amounts {
		item, ok := totals[amount.IngredientID]
		if !ok {
			item = &Item{IngredientID: amount.IngredientID}
			if amount.Ingredient != nil {
				item.Name = amount.Ingredient.Name
				item.MeasurementUnit = string(amount.Ingredient.MeasurementUnit)
			}
			totals[amount.IngredientID] = item
		}
		item.Amount += amount.Amount
	}

	items := make([]Item, 0, len(totals))
	for _, item := range totals {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items
}

// WriteText renders items as a plain-text list, one "- name (unit): amount"
// line per ingredient.
func WriteText(w io.Writer, items []Item) error {
	if _, err := fmt.Fprintln(w, "Shopping list"); err != nil {
		return err
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "(empty)")
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(w, "- %s (%s): %d\n", item.Name, item.MeasurementUnit, item.Amount); err != nil {
			return err
		}
	}
	return nil
}
