package models

import "fmt"

// Category identifies the kind of logged feeding/growth event.
type Category string

const (
	CategoryMPASI             Category = "mpasi"
	CategoryMilk              Category = "milk"
	CategoryWeight            Category = "weight"
	CategoryHeight            Category = "height"
	CategoryHeadCircumference Category = "head_circumference"
	CategoryPump              Category = "pump"
	CategoryBowel             Category = "bowel"
)

// Categories lists every valid record category.
var Categories = []Category{
	CategoryMPASI,
	CategoryMilk,
	CategoryWeight,
	CategoryHeight,
	CategoryHeadCircumference,
	CategoryPump,
	CategoryBowel,
}

// categoryAliases maps user-facing command words (Indonesian and English)
// to canonical categories.
var categoryAliases = map[string]Category{
	"mpasi":              CategoryMPASI,
	"milk":               CategoryMilk,
	"susu":               CategoryMilk,
	"asi":                CategoryMilk,
	"weight":             CategoryWeight,
	"berat":              CategoryWeight,
	"height":             CategoryHeight,
	"tinggi":             CategoryHeight,
	"head_circumference": CategoryHeadCircumference,
	"pump":               CategoryPump,
	"pumping":            CategoryPump,
	"bowel":              CategoryBowel,
	"bab":                CategoryBowel,
}

// ParseCategory resolves a user-supplied category name or alias.
func ParseCategory(s string) (Category, error) {
	if c, ok := categoryAliases[s]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// IntakeRecord represents one logged event in MongoDB. Records are
// immutable once the category is confirmed; the reporting pipeline only
// ever reads them.
type IntakeRecord struct {
	ID              string   `bson:"_id" json:"id"`
	Identity        string   `bson:"identity" json:"identity"`
	Category        Category `bson:"category,omitempty" json:"category,omitempty"`
	Quantity        float64  `bson:"quantity" json:"quantity"`
	CalorieEstimate *float64 `bson:"calorieEstimate,omitempty" json:"calorieEstimate,omitempty"`
	ButtonMessageID string   `bson:"buttonMessageId,omitempty" json:"buttonMessageId,omitempty"`
	CreatedAt       int64    `bson:"createdAt" json:"createdAt"`
}
