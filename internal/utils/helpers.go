package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ValidateVolume validates and parses a milk/MPASI volume in ml
func ValidateVolume(text string) (float64, error) {
	volume, err := parseNumber(text)
	if err != nil {
		return 0, fmt.Errorf("invalid volume format")
	}
	if volume < 1 || volume > 1000 {
		return 0, fmt.Errorf("volume must be between 1 and 1000 ml")
	}
	return volume, nil
}

// ValidateWeight validates and parses a body weight in kg
func ValidateWeight(text string) (float64, error) {
	weight, err := parseNumber(text)
	if err != nil {
		return 0, fmt.Errorf("invalid weight format")
	}
	if weight < 0.5 || weight > 50 {
		return 0, fmt.Errorf("weight must be between 0.5 and 50 kg")
	}
	return weight, nil
}

// ValidateHeight validates and parses a body height in cm
func ValidateHeight(text string) (float64, error) {
	height, err := parseNumber(text)
	if err != nil {
		return 0, fmt.Errorf("invalid height format")
	}
	if height < 30 || height > 150 {
		return 0, fmt.Errorf("height must be between 30 and 150 cm")
	}
	return height, nil
}

// ValidateCalories validates and parses a calorie estimate
func ValidateCalories(text string) (float64, error) {
	kcal, err := parseNumber(text)
	if err != nil {
		return 0, fmt.Errorf("invalid calorie format")
	}
	if kcal < 0 {
		return 0, fmt.Errorf("calories must not be negative")
	}
	return kcal, nil
}

var identityPattern = regexp.MustCompile(`^[A-Za-z0-9+:_-]{1,64}$`)

// ValidateIdentity checks that an identity is well formed before it reaches
// the pipeline or the filesystem
func ValidateIdentity(identity string) error {
	if !identityPattern.MatchString(identity) {
		return fmt.Errorf("malformed identity")
	}
	return nil
}

// parseNumber accepts both decimal separators ("7.5" and "7,5")
func parseNumber(text string) (float64, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	return strconv.ParseFloat(text, 64)
}

// BuildCategoryKeyboard builds the inline keyboard for category selection
func BuildCategoryKeyboard(categories []string, messageID string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	// Create 2 buttons per row for categories
	for i := 0; i < len(categories); i += 2 {
		var row []tgbotapi.InlineKeyboardButton

		btn1 := tgbotapi.NewInlineKeyboardButtonData(
			categories[i],
			fmt.Sprintf("category_%s_%s", categories[i], messageID),
		)
		row = append(row, btn1)

		if i+1 < len(categories) {
			btn2 := tgbotapi.NewInlineKeyboardButtonData(
				categories[i+1],
				fmt.Sprintf("category_%s_%s", categories[i+1], messageID),
			)
			row = append(row, btn2)
		}

		rows = append(rows, row)
	}

	// Add delete button as a separate row
	deleteBtn := tgbotapi.NewInlineKeyboardButtonData(
		"🗑️ Hapus Catatan",
		fmt.Sprintf("delete_%s", messageID),
	)
	rows = append(rows, []tgbotapi.InlineKeyboardButton{deleteBtn})

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
