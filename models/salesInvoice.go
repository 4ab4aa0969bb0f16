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

// SalesInvoice is an outstanding receivable. The reconciliation engine only
// consumes invoices (reduces their remaining balance through payment entry
// references); it never creates or cancels them.
type SalesInvoice struct {
	ID               int                `gorm:"primary_key" json:"id"`
	BusinessId       string             `gorm:"index;not null" json:"business_id"`
	CustomerId       int                `gorm:"index;not null" json:"customer_id" binding:"required"`
	InvoiceNumber    string             `gorm:"size:255;not null" json:"invoice_number"`
	SequenceNo       decimal.Decimal    `gorm:"type:decimal(15);not null" json:"sequence_no"`
	InvoiceDate      time.Time          `gorm:"not null" json:"invoice_date" binding:"required"`
	DueDate          *time.Time         `json:"due_date"`
	CurrencyCode     string             `gorm:"size:10" json:"currency_code"`
	TotalAmount      decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"total_amount" binding:"required"`
	RemainingBalance decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"remaining_balance"`
	CurrentStatus    SalesInvoiceStatus `gorm:"not null;type:enum('Confirmed','PartialPaid','Paid','Cancelled');default:'Confirmed'" json:"current_status"`
	CreatedAt        time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSalesInvoice struct {
	CustomerId   int             `json:"customer_id" binding:"required"`
	InvoiceDate  time.Time       `json:"invoice_date" binding:"required"`
	DueDate      *time.Time      `json:"due_date"`
	CurrencyCode string          `json:"currency_code"`
	TotalAmount  decimal.Decimal `json:"total_amount" binding:"required"`
}

func CreateSalesInvoice(ctx context.Context, input *NewSalesInvoice) (*SalesInvoice, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Customer](ctx, businessId, input.CustomerId); err != nil {
		return nil, wrapErr(ErrNotFound, "customer %d", input.CustomerId)
	}
	if !input.TotalAmount.IsPositive() {
		return nil, fmt.Errorf("invoice total must be positive")
	}

	invoice := SalesInvoice{
		BusinessId:       businessId,
		CustomerId:       input.CustomerId,
		InvoiceDate:      input.InvoiceDate,
		DueDate:          input.DueDate,
		CurrencyCode:     input.CurrencyCode,
		TotalAmount:      input.TotalAmount,
		RemainingBalance: input.TotalAmount,
		CurrentStatus:    SalesInvoiceStatusConfirmed,
	}

	seqNo, err := utils.GetSequence[SalesInvoice](ctx, businessId)
	if err != nil {
		return nil, err
	}
	invoice.SequenceNo = decimal.NewFromInt(seqNo)
	invoice.InvoiceNumber = "INV-" + fmt.Sprint(seqNo)

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func GetSalesInvoice(ctx context.Context, id int) (*SalesInvoice, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[SalesInvoice](ctx, businessId, id)
}

// settleInvoice consumes part of the invoice's outstanding balance inside the
// caller's transaction. The row is locked so two settlements cannot both read
// the same remaining balance.
func settleInvoice(tx *gorm.DB, ctx context.Context, businessId string, invoiceId int, amount decimal.Decimal) error {
	var invoice SalesInvoice
	if err := tx.WithContext(ctx).Clauses(forUpdateLock).
		Where("business_id = ?", businessId).
		First(&invoice, invoiceId).Error; err != nil {
		return wrapErr(ErrNotFound, "sales invoice %d", invoiceId)
	}
	if invoice.CurrentStatus == SalesInvoiceStatusCancelled {
		return wrapErr(ErrExternalService, "sales invoice %s is cancelled", invoice.InvoiceNumber)
	}
	if amount.GreaterThan(invoice.RemainingBalance) {
		return wrapErr(ErrOverAllocation, "amount %s exceeds balance %s of invoice %s",
			amount, invoice.RemainingBalance, invoice.InvoiceNumber)
	}

	invoice.RemainingBalance = invoice.RemainingBalance.Sub(amount)
	if invoice.RemainingBalance.IsPositive() {
		invoice.CurrentStatus = SalesInvoiceStatusPartialPaid
	} else {
		invoice.CurrentStatus = SalesInvoiceStatusPaid
	}
	return tx.WithContext(ctx).Save(&invoice).Error
}

// unsettleInvoice gives the amount back when a settlement voucher is
// cancelled.
func unsettleInvoice(tx *gorm.DB, ctx context.Context, businessId string, invoiceId int, amount decimal.Decimal) error {
	var invoice SalesInvoice
	if err := tx.WithContext(ctx).Clauses(forUpdateLock).
		Where("business_id = ?", businessId).
		First(&invoice, invoiceId).Error; err != nil {
		return wrapErr(ErrNotFound, "sales invoice %d", invoiceId)
	}

	invoice.RemainingBalance = invoice.RemainingBalance.Add(amount)
	if invoice.RemainingBalance.GreaterThan(invoice.TotalAmount) {
		return fmt.Errorf("invoice %s balance would exceed its total", invoice.InvoiceNumber)
	}
	if invoice.RemainingBalance.Equal(invoice.TotalAmount) {
		invoice.CurrentStatus = SalesInvoiceStatusConfirmed
	} else {
		invoice.CurrentStatus = SalesInvoiceStatusPartialPaid
	}
	return tx.WithContext(ctx).Save(&invoice).Error
}
