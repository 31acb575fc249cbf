package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"foodgram/internal/models"
)

// ShoppingItem is one line of the downloadable shopping list.
type ShoppingItem struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"`
	Unit   string `json:"measurement_unit"`
}

// UnitConflict names an ingredient that appears in the cart under more than
// one measurement unit. Each unit keeps its own line in the list.
type UnitConflict struct {
	Name  string   `json:"name"`
	Units []string `json:"units"`
}

// ShoppingList is the aggregate of a user's shopping cart.
type ShoppingList struct {
	Items     []ShoppingItem `json:"items"`
	Conflicts []UnitConflict `json:"conflicts"`
}

type itemKey struct {
	name string
	unit string
}

// AggregateShoppingList sums amounts per ingredient id, then merges the
// ingredients that share both name and unit. Items are ordered by name,
// then unit.
func AggregateShoppingList(lines []models.IngredientLine) ShoppingList {
	byID := make(map[uint]*ShoppingItem)
	for _, l := range lines {
		item, ok := byID[l.IngredientID]
		if !ok {
			item = &ShoppingItem{Name: l.Name, Unit: l.MeasurementUnit}
			byID[l.IngredientID] = item
		}
		item.Amount += l.Amount
	}

	merged := make(map[itemKey]int)
	for _, item := range byID {
		merged[itemKey{item.Name, item.Unit}] += item.Amount
	}

	list := ShoppingList{Items: make([]ShoppingItem, 0, len(merged))}
	for k, amount := range merged {
		list.Items = append(list.Items, ShoppingItem{Name: k.name, Amount: amount, Unit: k.unit})
	}
	sort.Slice(list.Items, func(i, j int) bool {
		a, b := list.Items[i], list.Items[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Unit < b.Unit
	})

	for i := 0; i < len(list.Items); {
		j := i + 1
		for j < len(list.Items) && list.Items[j].Name == list.Items[i].Name {
			j++
		}
		if j-i > 1 {
			units := make([]string, 0, j-i)
			for _, item := range list.Items[i:j] {
				units = append(units, item.Unit)
			}
			list.Conflicts = append(list.Conflicts, UnitConflict{Name: list.Items[i].Name, Units: units})
		}
		i = j
	}
	return list
}

// WriteCSV writes one "name,amount,unit" record per item.
func (l ShoppingList) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	for _, item := range l.Items {
		if err := cw.Write([]string{item.Name, strconv.Itoa(item.Amount), item.Unit}); err != nil {
			return fmt.Errorf("failed to write shopping list: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write shopping list: %w", err)
	}
	return nil
}
