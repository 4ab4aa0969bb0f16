package models_test

import (
	"testing"
	"time"

	"github.com/algocode/truebalance_backend/models"
	"github.com/shopspring/decimal"
)

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  string
		ok    bool
	}{
		{"iso string", "2024-01-10", "2024-01-10", true},
		{"day first dash", "10-01-2024", "2024-01-10", true},
		{"day first slash", "10/01/2024", "2024-01-10", true},
		{"year first slash", "2024/01/10", "2024-01-10", true},
		{"rfc3339", "2024-01-10T15:04:05Z", "2024-01-10", true},
		{"padded", "  2024-01-10  ", "2024-01-10", true},
		{"serial float", float64(45301), "2024-01-10", true},
		{"serial int", 45301, "2024-01-10", true},
		{"serial string", "45301", "2024-01-10", true},
		{"typed time", time.Date(2024, 1, 10, 18, 30, 0, 0, time.UTC), "2024-01-10", true},
		{"garbage", "not a date", "", false},
		{"empty", "", "", false},
		{"nil", nil, "", false},
		{"serial before epoch", float64(0), "", false},
		{"serial absurd", float64(9000000), "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := models.NormalizeDate(tc.input)
			if ok != tc.ok {
				t.Fatalf("NormalizeDate(%v) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if !tc.ok {
				return
			}
			if got.Format("2006-01-02") != tc.want {
				t.Fatalf("NormalizeDate(%v) = %s, want %s", tc.input, got.Format("2006-01-02"), tc.want)
			}
			if h, m, s := got.Clock(); h+m+s != 0 {
				t.Fatalf("NormalizeDate(%v) kept a time component: %v", tc.input, got)
			}
		})
	}
}

func TestComputeRowHashStability(t *testing.T) {
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	credit := decimal.NewFromFloat(1500.50)
	debit := decimal.Zero

	first := models.ComputeRowHash("ACME", "TXN-001", &date, credit, debit)
	second := models.ComputeRowHash("ACME", "TXN-001", &date, credit, debit)
	if first != second {
		t.Fatalf("hash is not stable: %s vs %s", first, second)
	}
	if len(first) != 32 {
		t.Fatalf("expected 32 hex chars, got %d (%s)", len(first), first)
	}

	// whitespace around company/reference must not change the identity
	padded := models.ComputeRowHash(" ACME ", " TXN-001 ", &date, credit, debit)
	if padded != first {
		t.Fatalf("padding changed the hash: %s vs %s", padded, first)
	}
}

func TestComputeRowHashFieldSeparation(t *testing.T) {
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(500)

	asCredit := models.ComputeRowHash("ACME", "TXN-001", &date, amount, decimal.Zero)
	asDebit := models.ComputeRowHash("ACME", "TXN-001", &date, decimal.Zero, amount)
	if asCredit == asDebit {
		t.Fatalf("credit and debit rows collide: %s", asCredit)
	}

	otherRef := models.ComputeRowHash("ACME", "TXN-002", &date, amount, decimal.Zero)
	if otherRef == asCredit {
		t.Fatalf("different references collide: %s", asCredit)
	}

	otherDay := date.AddDate(0, 0, 1)
	nextDay := models.ComputeRowHash("ACME", "TXN-001", &otherDay, amount, decimal.Zero)
	if nextDay == asCredit {
		t.Fatalf("different dates collide: %s", asCredit)
	}

	noDate := models.ComputeRowHash("ACME", "TXN-001", nil, amount, decimal.Zero)
	if noDate == asCredit {
		t.Fatalf("missing date collides with dated row: %s", asCredit)
	}
}
