package stock

import (
	"strings"

	"github.com/farmstock/backend/internal/domain/shared"
)

// ConsumableCategory classifies the kind of consumable material an entry
// holds. Lot codes are only unique within a category: "ARG001" for seed
// and "ARG001" for soil are different lots.
type ConsumableCategory string

const (
	// CategorySeed is seed stock, the primary consumable
	CategorySeed ConsumableCategory = "seed"
	// CategorySoil is growing medium
	CategorySoil ConsumableCategory = "soil"
	// CategoryNutrient is fertilizer and nutrient solutions
	CategoryNutrient ConsumableCategory = "nutrient"
	// CategoryPackaging is packaging material
	CategoryPackaging ConsumableCategory = "packaging"
)

// String returns the string representation of the category
func (c ConsumableCategory) String() string {
	return string(c)
}

// IsValid returns true if the category is known
func (c ConsumableCategory) IsValid() bool {
	switch c {
	case CategorySeed, CategorySoil, CategoryNutrient, CategoryPackaging:
		return true
	}
	return false
}

// AllConsumableCategories returns all valid categories
func AllConsumableCategories() []ConsumableCategory {
	return []ConsumableCategory{CategorySeed, CategorySoil, CategoryNutrient, CategoryPackaging}
}

// Lot identifies a physical batch of material. The category is a
// mandatory half of the identifier so that code reuse across categories
// can never aggregate unrelated stock.
type Lot struct {
	Category ConsumableCategory `json:"category"`
	Code     string             `json:"code"`
}

// NewLot creates a lot identifier, validating both halves
func NewLot(category ConsumableCategory, code string) (Lot, error) {
	if !category.IsValid() {
		return Lot{}, shared.NewDomainError("INVALID_CATEGORY", "Unknown consumable category: "+string(category))
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Lot{}, shared.NewDomainError("INVALID_LOT_CODE", "Lot code cannot be empty")
	}
	return Lot{Category: category, Code: code}, nil
}

// String returns a display form like "seed/ARG001"
func (l Lot) String() string {
	return string(l.Category) + "/" + l.Code
}

// IsZero returns true for the zero-value lot
func (l Lot) IsZero() bool {
	return l.Category == "" && l.Code == ""
}
