package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStatusForAmounts(t *testing.T) {
	original := decimal.NewFromInt(100)

	cases := []struct {
		name        string
		unallocated decimal.Decimal
		want        StatementEntryStatus
	}{
		{"untouched", decimal.NewFromInt(100), StatementEntryStatusUnreconciled},
		{"partial", decimal.NewFromInt(40), StatementEntryStatusPartiallyReconciled},
		{"zero", decimal.Zero, StatementEntryStatusFullyReconciled},
		{"residual below epsilon", decimal.NewFromFloat(0.01), StatementEntryStatusFullyReconciled},
		{"residual above epsilon", decimal.NewFromFloat(0.02), StatementEntryStatusPartiallyReconciled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := statusForAmounts(tc.unallocated, original); got != tc.want {
				t.Fatalf("statusForAmounts(%s, %s) = %s, want %s", tc.unallocated, original, got, tc.want)
			}
		})
	}
}
