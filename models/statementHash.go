package models

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// spreadsheet serial dates count days since 1899-12-30
var spreadsheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var statementDateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"01-02-2006",
	time.RFC3339,
}

// NormalizeDate coerces the raw cell value of a date column into a bare UTC
// date. It accepts strings in the common statement layouts, numeric
// spreadsheet serials and already-typed time values; anything else reports
// false instead of failing the row outright.
func NormalizeDate(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return truncateToDate(v), true
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return truncateToDate(*v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range statementDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return truncateToDate(t), true
			}
		}
		// spreadsheet serial stored as text
		if d, err := decimal.NewFromString(s); err == nil {
			return serialToDate(d)
		}
		return time.Time{}, false
	case float64:
		return serialToDate(decimal.NewFromFloat(v))
	case float32:
		return serialToDate(decimal.NewFromFloat32(v))
	case int:
		return serialToDate(decimal.NewFromInt(int64(v)))
	case int64:
		return serialToDate(decimal.NewFromInt(v))
	case decimal.Decimal:
		return serialToDate(v)
	default:
		return time.Time{}, false
	}
}

func serialToDate(serial decimal.Decimal) (time.Time, bool) {
	days := serial.IntPart()
	// serials below 1 predate the epoch and only appear in broken files
	if days < 1 || days > 200000 {
		return time.Time{}, false
	}
	return spreadsheetEpoch.AddDate(0, 0, int(days)), true
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ComputeRowHash derives the content-addressed identifier of one statement
// row. The canonical form joins the five normalized fields with "|" (empty
// string for missing values, ISO date, plain decimal rendering) so the hash
// is stable across re-imports and across files with reordered columns.
func ComputeRowHash(company string, reference string, date *time.Time, credit decimal.Decimal, debit decimal.Decimal) string {
	dateStr := ""
	if date != nil && !date.IsZero() {
		dateStr = date.Format("2006-01-02")
	}
	canonical := strings.Join([]string{
		strings.TrimSpace(company),
		strings.TrimSpace(reference),
		dateStr,
		credit.String(),
		debit.String(),
	}, "|")

	sum := md5.Sum([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
