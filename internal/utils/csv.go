package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"telegram-babylog-bot/internal/models"
	"telegram-babylog-bot/internal/report"
)

// GenerateWeeklyCSV writes the bucketed intake window as CSV: a summary
// section followed by one row per day and TOTAL/AVERAGE rows.
func GenerateWeeklyCSV(buckets []report.DailyBucket, subject string, w report.Window, writer io.Writer) error {
	if len(buckets) == 0 {
		return fmt.Errorf("no buckets provided for export")
	}

	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	header := [][]string{
		{"Weekly Intake Report"},
		{"Subject", subject},
		{"Period", w.String()},
		{"Generated", time.Now().Format("2006-01-02 15:04:05")},
		{}, // Empty row
		{"Date", "MPASI (ml)", "MPASI kcal", "Milk (ml)", "Milk kcal", "Total kcal"},
	}
	for _, row := range header {
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	var totMpasi, totMpasiCal, totMilk, totMilkCal float64
	for _, b := range buckets {
		mpasi := b.Totals[models.CategoryMPASI]
		mpasiCal := b.Calories[models.CategoryMPASI]
		milk := b.Totals[models.CategoryMilk]
		milkCal := b.Calories[models.CategoryMilk]

		row := []string{
			b.Date.Format("2006-01-02"),
			fmt.Sprintf("%.0f", mpasi),
			fmt.Sprintf("%.0f", mpasiCal),
			fmt.Sprintf("%.0f", milk),
			fmt.Sprintf("%.0f", milkCal),
			fmt.Sprintf("%.0f", mpasiCal+milkCal),
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}

		totMpasi += mpasi
		totMpasiCal += mpasiCal
		totMilk += milk
		totMilkCal += milkCal
	}

	days := float64(len(buckets))
	totals := []string{
		"TOTAL",
		fmt.Sprintf("%.0f", totMpasi),
		fmt.Sprintf("%.0f", totMpasiCal),
		fmt.Sprintf("%.0f", totMilk),
		fmt.Sprintf("%.0f", totMilkCal),
		fmt.Sprintf("%.0f", totMpasiCal+totMilkCal),
	}
	if err := csvWriter.Write(totals); err != nil {
		return err
	}

	averages := []string{
		"AVERAGE",
		fmt.Sprintf("%.1f", totMpasi/days),
		fmt.Sprintf("%.1f", totMpasiCal/days),
		fmt.Sprintf("%.1f", totMilk/days),
		fmt.Sprintf("%.1f", totMilkCal/days),
		fmt.Sprintf("%.1f", (totMpasiCal+totMilkCal)/days),
	}
	return csvWriter.Write(averages)
}
