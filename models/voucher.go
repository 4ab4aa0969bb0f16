package models

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// VoucherRef is a tagged reference to one voucher in the closed set of
// voucher kinds.
type VoucherRef struct {
	Kind VoucherKind `json:"kind"`
	Id   int         `json:"id"`
}

func (r VoucherRef) IsZero() bool {
	return r.Kind == "" && r.Id == 0
}

func (r VoucherRef) String() string {
	return string(r.Kind) + ":" + fmt.Sprint(r.Id)
}

// cancelVoucher reverses an engine-created settlement voucher inside the
// caller's transaction. Sales invoices are never engine-created, so asking to
// cancel one is a programming error surfaced to the caller.
func cancelVoucher(tx *gorm.DB, ctx context.Context, businessId string, ref VoucherRef) error {
	switch ref.Kind {
	case VoucherKindPaymentEntry:
		return cancelPaymentEntry(tx, ctx, businessId, ref.Id)
	case VoucherKindJournal:
		return cancelJournal(tx, ctx, businessId, ref.Id)
	case VoucherKindSalesInvoice:
		return fmt.Errorf("sales invoice %d cannot be cancelled through reconciliation", ref.Id)
	default:
		return fmt.Errorf("unknown voucher kind %s", ref.Kind)
	}
}
