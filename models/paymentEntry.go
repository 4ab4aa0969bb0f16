package models

import (
	"context"
	"fmt"
	"time"

	"github.com/algocode/truebalance_backend/config"
	"github.com/algocode/truebalance_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentEntry records money received from or paid to a party, or moved
// between two bank accounts (internal transfer). The reconciliation engine
// creates them as settlement vouchers; pre-existing on-account entries can
// also be consumed directly against a statement entry.
type PaymentEntry struct {
	ID                int                     `gorm:"primary_key" json:"id"`
	BusinessId        string                  `gorm:"index;not null" json:"business_id"`
	PaymentType       PaymentType             `gorm:"not null;type:enum('Receive','Pay','InternalTransfer')" json:"payment_type"`
	CustomerId        int                     `gorm:"index" json:"customer_id"`
	PaymentNumber     string                  `gorm:"size:255;not null" json:"payment_number"`
	SequenceNo        decimal.Decimal         `gorm:"type:decimal(15);not null" json:"sequence_no"`
	PostingDate       time.Time               `gorm:"not null" json:"posting_date"`
	ReferenceDate     *time.Time              `json:"reference_date"`
	ReferenceNumber   string                  `gorm:"size:255" json:"reference_number"`
	ModeOfPayment     string                  `gorm:"size:100" json:"mode_of_payment"`
	PaidFromAccountId int                     `json:"paid_from_account_id"`
	PaidToAccountId   int                     `json:"paid_to_account_id"`
	Amount            decimal.Decimal         `gorm:"type:decimal(20,4);default:0" json:"amount"`
	UnallocatedAmount decimal.Decimal         `gorm:"type:decimal(20,4);default:0" json:"unallocated_amount"`
	ClearanceDate     *time.Time              `json:"clearance_date"`
	CurrentStatus     VoucherStatus           `gorm:"not null;type:enum('Confirmed','Cancelled');default:'Confirmed'" json:"current_status"`
	References        []PaymentEntryReference `gorm:"foreignKey:PaymentEntryId" json:"references"`
	CreatedAt         time.Time               `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time               `gorm:"autoUpdateTime" json:"updated_at"`
}

// PaymentEntryReference allocates part of the payment against another
// voucher, today always a sales invoice.
type PaymentEntryReference struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PaymentEntryId  int             `gorm:"index;not null" json:"payment_entry_id"`
	ReferenceKind   VoucherKind     `gorm:"size:50;not null" json:"reference_kind"`
	ReferenceId     int             `gorm:"not null" json:"reference_id"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"allocated_amount"`
}

type NewPaymentEntry struct {
	PaymentType       PaymentType           `json:"payment_type" binding:"required"`
	CustomerId        int                   `json:"customer_id"`
	PostingDate       time.Time             `json:"posting_date" binding:"required"`
	ReferenceDate     *time.Time            `json:"reference_date"`
	ReferenceNumber   string                `json:"reference_number"`
	ModeOfPayment     string                `json:"mode_of_payment"`
	PaidFromAccountId int                   `json:"paid_from_account_id"`
	PaidToAccountId   int                   `json:"paid_to_account_id"`
	Amount            decimal.Decimal       `json:"amount" binding:"required"`
	References        []NewPaymentReference `json:"references"`
}

type NewPaymentReference struct {
	ReferenceKind   VoucherKind     `json:"reference_kind" binding:"required"`
	ReferenceId     int             `json:"reference_id" binding:"required"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount" binding:"required"`
}

func (input *NewPaymentEntry) validate(ctx context.Context, businessId string) error {
	if !input.PaymentType.Valid() {
		return fmt.Errorf("invalid payment type %s", input.PaymentType)
	}
	if !input.Amount.IsPositive() {
		return fmt.Errorf("payment amount must be positive")
	}
	if input.CustomerId > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, businessId, input.CustomerId); err != nil {
			return wrapErr(ErrNotFound, "customer %d", input.CustomerId)
		}
	}
	if input.PaymentType == PaymentTypeInternalTransfer {
		if input.PaidFromAccountId == 0 || input.PaidToAccountId == 0 {
			return fmt.Errorf("internal transfer needs both paid-from and paid-to accounts")
		}
		if input.PaidFromAccountId == input.PaidToAccountId {
			return fmt.Errorf("internal transfer cannot use the same account on both sides")
		}
	}

	total := decimal.Zero
	for _, ref := range input.References {
		if ref.ReferenceKind != VoucherKindSalesInvoice {
			return fmt.Errorf("payment references only settle sales invoices, got %s", ref.ReferenceKind)
		}
		if !ref.AllocatedAmount.IsPositive() {
			return fmt.Errorf("reference allocation must be positive")
		}
		total = total.Add(ref.AllocatedAmount)
	}
	if total.GreaterThan(input.Amount.Add(allocationEpsilon)) {
		return wrapErr(ErrOverAllocation, "references total %s exceeds payment amount %s", total, input.Amount)
	}
	return nil
}

// createPaymentEntry builds the payment inside the caller's transaction,
// consuming the referenced invoices and writing the ledger outbox row. The
// remainder beyond the references stays on-account as UnallocatedAmount.
func createPaymentEntry(tx *gorm.DB, ctx context.Context, businessId string, input *NewPaymentEntry) (*PaymentEntry, error) {
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	seqNo, err := utils.GetSequence[PaymentEntry](ctx, businessId)
	if err != nil {
		return nil, err
	}

	allocatedTotal := decimal.Zero
	for _, ref := range input.References {
		allocatedTotal = allocatedTotal.Add(ref.AllocatedAmount)
	}
	unallocated := input.Amount.Sub(allocatedTotal)
	if unallocated.IsNegative() {
		unallocated = decimal.Zero
	}

	payment := PaymentEntry{
		BusinessId:        businessId,
		PaymentType:       input.PaymentType,
		CustomerId:        input.CustomerId,
		PaymentNumber:     "PAY-" + fmt.Sprint(seqNo),
		SequenceNo:        decimal.NewFromInt(seqNo),
		PostingDate:       input.PostingDate,
		ReferenceDate:     input.ReferenceDate,
		ReferenceNumber:   utils.TruncateReference(input.ReferenceNumber),
		ModeOfPayment:     input.ModeOfPayment,
		PaidFromAccountId: input.PaidFromAccountId,
		PaidToAccountId:   input.PaidToAccountId,
		Amount:            input.Amount,
		UnallocatedAmount: unallocated,
		CurrentStatus:     VoucherStatusConfirmed,
	}
	for _, ref := range input.References {
		payment.References = append(payment.References, PaymentEntryReference{
			ReferenceKind:   ref.ReferenceKind,
			ReferenceId:     ref.ReferenceId,
			AllocatedAmount: ref.AllocatedAmount,
		})
	}

	if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, wrapErr(ErrExternalService, "create payment entry: %s", err)
	}
	for _, ref := range payment.References {
		if err := settleInvoice(tx, ctx, businessId, ref.ReferenceId, ref.AllocatedAmount); err != nil {
			return nil, err
		}
	}

	if err := PublishToLedger(ctx, tx, businessId, payment.PostingDate, payment.ID,
		VoucherKindPaymentEntry, &payment, OutboxActionCreate); err != nil {
		return nil, wrapErr(ErrExternalService, "publish payment entry: %s", err)
	}
	return &payment, nil
}

// cancelPaymentEntry voids the payment inside the caller's transaction,
// releasing every invoice it had settled. Cancelling an already-cancelled
// payment is an error.
func cancelPaymentEntry(tx *gorm.DB, ctx context.Context, businessId string, id int) error {
	var payment PaymentEntry
	if err := tx.WithContext(ctx).Clauses(forUpdateLock).
		Where("business_id = ?", businessId).
		First(&payment, id).Error; err != nil {
		return wrapErr(ErrNotFound, "payment entry %d", id)
	}
	if payment.CurrentStatus == VoucherStatusCancelled {
		return wrapErr(ErrExternalService, "payment entry %s is already cancelled", payment.PaymentNumber)
	}
	if err := tx.WithContext(ctx).
		Where("payment_entry_id = ?", payment.ID).
		Find(&payment.References).Error; err != nil {
		return err
	}

	for _, ref := range payment.References {
		if ref.ReferenceKind != VoucherKindSalesInvoice {
			continue
		}
		if err := unsettleInvoice(tx, ctx, businessId, ref.ReferenceId, ref.AllocatedAmount); err != nil {
			return err
		}
	}

	payment.CurrentStatus = VoucherStatusCancelled
	payment.ClearanceDate = nil
	if err := tx.WithContext(ctx).Save(&payment).Error; err != nil {
		return err
	}
	return PublishToLedger(ctx, tx, businessId, payment.PostingDate, payment.ID,
		VoucherKindPaymentEntry, nil, OutboxActionCancel)
}

func CancelPaymentEntry(ctx context.Context, id int) error {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return err
	}
	db := config.GetDB()
	tx := db.Begin()
	if err := cancelPaymentEntry(tx, ctx, businessId, id); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// consumeOnAccountPayment allocates part of an existing payment's on-account
// remainder against a statement entry, stamping the clearance date.
func consumeOnAccountPayment(tx *gorm.DB, ctx context.Context, businessId string, paymentId int, amount decimal.Decimal, clearanceDate time.Time) error {
	var payment PaymentEntry
	if err := tx.WithContext(ctx).Clauses(forUpdateLock).
		Where("business_id = ?", businessId).
		First(&payment, paymentId).Error; err != nil {
		return wrapErr(ErrNotFound, "payment entry %d", paymentId)
	}
	if payment.CurrentStatus != VoucherStatusConfirmed {
		return wrapErr(ErrExternalService, "payment entry %s is not confirmed", payment.PaymentNumber)
	}
	if amount.GreaterThan(payment.UnallocatedAmount.Add(allocationEpsilon)) {
		return wrapErr(ErrOverAllocation, "amount %s exceeds unallocated %s of payment %s",
			amount, payment.UnallocatedAmount, payment.PaymentNumber)
	}

	payment.UnallocatedAmount = payment.UnallocatedAmount.Sub(amount)
	if payment.UnallocatedAmount.IsNegative() {
		payment.UnallocatedAmount = decimal.Zero
	}
	if payment.ClearanceDate == nil {
		payment.ClearanceDate = &clearanceDate
	}
	return tx.WithContext(ctx).Save(&payment).Error
}

// releaseOnAccountPayment restores the payment's full on-account amount.
// Like the entry-side reversal this is not amount-aware: the payment goes
// back to its full deposit regardless of how it was consumed.
func releaseOnAccountPayment(tx *gorm.DB, ctx context.Context, businessId string, paymentId int) error {
	var payment PaymentEntry
	if err := tx.WithContext(ctx).Clauses(forUpdateLock).
		Where("business_id = ?", businessId).
		First(&payment, paymentId).Error; err != nil {
		return wrapErr(ErrNotFound, "payment entry %d", paymentId)
	}
	if payment.CurrentStatus != VoucherStatusConfirmed {
		return wrapErr(ErrExternalService, "payment entry %s is not confirmed", payment.PaymentNumber)
	}

	referenced := decimal.Zero
	var refs []PaymentEntryReference
	if err := tx.WithContext(ctx).
		Where("payment_entry_id = ?", payment.ID).
		Find(&refs).Error; err != nil {
		return err
	}
	for _, ref := range refs {
		referenced = referenced.Add(ref.AllocatedAmount)
	}

	payment.UnallocatedAmount = payment.Amount.Sub(referenced)
	payment.ClearanceDate = nil
	return tx.WithContext(ctx).Save(&payment).Error
}

func GetPaymentEntry(ctx context.Context, id int) (*PaymentEntry, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	var payment PaymentEntry
	if err := db.WithContext(ctx).Preload("References").
		Where("business_id = ?", businessId).
		First(&payment, id).Error; err != nil {
		return nil, wrapErr(ErrNotFound, "payment entry %d", id)
	}
	return &payment, nil
}

// ClearVoucherClearanceDate nulls the clearance date of a settlement voucher
// so it shows up again in bank reconciliation worklists.
func ClearVoucherClearanceDate(ctx context.Context, ref VoucherRef) error {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return err
	}
	if ref.Kind != VoucherKindPaymentEntry {
		return fmt.Errorf("clearance dates only apply to payment entries, got %s", ref.Kind)
	}

	db := config.GetDB()
	result := db.WithContext(ctx).Model(&PaymentEntry{}).
		Where("business_id = ? AND id = ?", businessId, ref.Id).
		Update("clearance_date", nil)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return wrapErr(ErrNotFound, "payment entry %d", ref.Id)
	}
	return nil
}
