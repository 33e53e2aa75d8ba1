package report

import (
	"fmt"
	"time"

	"telegram-babylog-bot/internal/models"
)

// Window is an inclusive calendar-date range. Start and End are local
// midnights in the reporting timezone.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the days-long window ending on the calendar day of end.
func NewWindow(end time.Time, days int, loc *time.Location) Window {
	last := midnight(end.In(loc))
	return Window{
		Start: last.AddDate(0, 0, -(days - 1)),
		End:   last,
	}
}

// Days returns the number of calendar days in the window, inclusive.
func (w Window) Days() int {
	days := 0
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}

// String formats the window bounds for display.
func (w Window) String() string {
	return fmt.Sprintf("%s to %s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}

// DailyBucket holds one calendar day's summed quantities and calories per
// category. Days with no records keep zero totals.
type DailyBucket struct {
	Date     time.Time
	Totals   map[models.Category]float64
	Calories map[models.Category]float64
}

// ValidationError reports malformed input rejected before aggregation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Msg
}

// Aggregate buckets records into one DailyBucket per calendar day of the
// window. Timestamps are normalized to calendar dates in loc; records
// outside the window are excluded. The result always has exactly
// window.Days() buckets in ascending date order.
func Aggregate(records []models.IntakeRecord, w Window, loc *time.Location) ([]DailyBucket, error) {
	buckets := make([]DailyBucket, 0, w.Days())
	index := make(map[string]int)
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		index[d.Format("2006-01-02")] = len(buckets)
		buckets = append(buckets, DailyBucket{
			Date:     d,
			Totals:   make(map[models.Category]float64),
			Calories: make(map[models.Category]float64),
		})
	}

	for _, rec := range records {
		if !models.ValidCategory(rec.Category) {
			return nil, &ValidationError{Msg: fmt.Sprintf("unknown category %q in record %s", rec.Category, rec.ID)}
		}
		if rec.Quantity < 0 {
			return nil, &ValidationError{Msg: fmt.Sprintf("negative quantity in record %s", rec.ID)}
		}

		day := midnight(time.Unix(rec.CreatedAt, 0).In(loc))
		i, ok := index[day.Format("2006-01-02")]
		if !ok {
			continue
		}

		buckets[i].Totals[rec.Category] += rec.Quantity
		if rec.CalorieEstimate != nil {
			buckets[i].Calories[rec.Category] += *rec.CalorieEstimate
		}
	}

	return buckets, nil
}

// AllZero reports whether no bucket in the sequence has any logged quantity.
func AllZero(buckets []DailyBucket) bool {
	for _, b := range buckets {
		for _, v := range b.Totals {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

// QuantitySeries extracts one category's daily quantities in bucket order.
func QuantitySeries(buckets []DailyBucket, c models.Category) []float64 {
	values := make([]float64, len(buckets))
	for i, b := range buckets {
		values[i] = b.Totals[c]
	}
	return values
}

// CalorieSeries extracts one category's daily calories in bucket order.
func CalorieSeries(buckets []DailyBucket, c models.Category) []float64 {
	values := make([]float64, len(buckets))
	for i, b := range buckets {
		values[i] = b.Calories[c]
	}
	return values
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
