package database

import (
	"fmt"
	"log/slog"

	"finance-tracker/internal/models"

	"gorm.io/gorm"
)

type seedCategory struct {
	name     string
	nameDE   string
	isIncome bool
	icon     string
	color    string
	children [][2]string
}

// defaultCategories mirrors the main categories of the Finanzguru analysis columns
var defaultCategories = []seedCategory{
	{name: "Income", nameDE: "Einnahmen", isIncome: true, icon: "wallet", color: "#2E7D32",
		children: [][2]string{{"Salary", "Gehalt"}, {"Refunds", "Erstattungen"}, {"Other Income", "Sonstige Einnahmen"}}},
	{name: "Living", nameDE: "Lebenshaltung", icon: "cart", color: "#F9A825",
		children: [][2]string{{"Groceries", "Lebensmittel"}, {"Drugstore", "Drogerie"}, {"Clothing", "Kleidung"}}},
	{name: "Housing", nameDE: "Wohnen", icon: "home", color: "#6D4C41",
		children: [][2]string{{"Rent", "Miete"}, {"Utilities", "Nebenkosten"}, {"Internet & Phone", "Internet & Telefon"}}},
	{name: "Mobility", nameDE: "Mobilität", icon: "car", color: "#1565C0",
		children: [][2]string{{"Public Transport", "Öffentliche Verkehrsmittel"}, {"Fuel", "Tanken"}, {"Car", "Auto"}}},
	{name: "Leisure", nameDE: "Freizeit", icon: "ticket", color: "#AD1457",
		children: [][2]string{{"Restaurants", "Restaurants & Cafés"}, {"Entertainment", "Unterhaltung"}, {"Travel", "Reisen"}}},
	{name: "Insurance", nameDE: "Versicherungen", icon: "shield", color: "#00838F"},
	{name: "Health", nameDE: "Gesundheit", icon: "heart", color: "#C62828"},
	{name: "Savings", nameDE: "Sparen", icon: "piggy-bank", color: "#558B2F"},
	{name: "Transfers", nameDE: "Umbuchungen", icon: "swap", color: "#757575"},
	{name: "Other Expenses", nameDE: "Sonstige Ausgaben", icon: "dots", color: "#9E9E9E"},
}

// SeedCategories inserts the default category tree when the table is empty
func (db *DB) SeedCategories() error {
	var count int64
	if err := db.DB.Model(&models.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		for i, seed := range defaultCategories {
			parent := &models.Category{
				Name:      seed.name,
				NameDE:    seed.nameDE,
				IsIncome:  seed.isIncome,
				Icon:      seed.icon,
				Color:     seed.color,
				SortOrder: i,
			}
			if err := tx.Create(parent).Error; err != nil {
				return err
			}

			for j, child := range seed.children {
				if err := tx.Create(&models.Category{
					Name:      child[0],
					NameDE:    child[1],
					ParentID:  &parent.ID,
					IsIncome:  seed.isIncome,
					SortOrder: j,
				}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	slog.Info("seeded default categories", "top_level", len(defaultCategories))
	return nil
}
