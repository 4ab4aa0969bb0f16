package models

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/algocode/truebalance_backend/config"
	"github.com/shopspring/decimal"
)

const (
	candidateRankInvoice = 10
	candidateRankPayment = 5
)

// Candidate is one voucher a statement entry could be reconciled against.
type Candidate struct {
	VoucherRef        VoucherRef      `json:"voucher_ref"`
	VoucherNumber     string          `json:"voucher_number"`
	VoucherDate       time.Time       `json:"voucher_date"`
	AllocatableAmount decimal.Decimal `json:"allocatable_amount"`
	Rank              int             `json:"rank"`
}

// LinkedVoucherFinder supplies candidates for bank-account statement entries.
// The debtor-ledger search is built in; the bank-side search belongs to the
// bank reconciliation collaborator and is pluggable.
type LinkedVoucherFinder interface {
	FindLinkedVouchers(ctx context.Context, businessId string, entry *StatementEntry, fromDate *time.Time, toDate *time.Time) ([]Candidate, error)
}

var linkedVoucherFinder LinkedVoucherFinder = bankVoucherFinder{}

func SetLinkedVoucherFinder(finder LinkedVoucherFinder) {
	if finder != nil {
		linkedVoucherFinder = finder
	}
}

// bankVoucherFinder searches confirmed, uncleared payment entries touching
// the bank account's ledger account.
type bankVoucherFinder struct{}

func (bankVoucherFinder) FindLinkedVouchers(ctx context.Context, businessId string, entry *StatementEntry, fromDate *time.Time, toDate *time.Time) ([]Candidate, error) {
	db := config.GetDB()
	var bankAccount BankAccount
	if err := db.WithContext(ctx).Where("business_id = ?", businessId).
		First(&bankAccount, entry.BankAccountId).Error; err != nil {
		return nil, wrapErr(ErrNotFound, "bank account %d", entry.BankAccountId)
	}

	dbCtx := db.WithContext(ctx).
		Where("business_id = ? AND current_status = ?", businessId, VoucherStatusConfirmed).
		Where("clearance_date IS NULL").
		Where("paid_from_account_id = ? OR paid_to_account_id = ?", bankAccount.AccountId, bankAccount.AccountId)
	if fromDate != nil {
		dbCtx = dbCtx.Where("posting_date >= ?", *fromDate)
	}
	if toDate != nil {
		dbCtx = dbCtx.Where("posting_date <= ?", *toDate)
	}

	var payments []PaymentEntry
	if err := dbCtx.Order("posting_date asc, id asc").Find(&payments).Error; err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(payments))
	for _, payment := range payments {
		candidates = append(candidates, Candidate{
			VoucherRef:        VoucherRef{Kind: VoucherKindPaymentEntry, Id: payment.ID},
			VoucherNumber:     payment.PaymentNumber,
			VoucherDate:       payment.PostingDate,
			AllocatableAmount: payment.Amount,
			Rank:              candidateRankPayment,
		})
	}
	return candidates, nil
}

// FindReconciliationCandidates lists the vouchers the entry could settle
// against, ordered by descending rank then oldest first. Open invoices for
// the party outrank on-account payments.
func FindReconciliationCandidates(ctx context.Context, entryId int, fromDate *time.Time, toDate *time.Time) ([]Candidate, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := GetStatementEntry(ctx, entryId)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	switch entry.Source {
	case StatementSourceBankAccount:
		candidates, err = linkedVoucherFinder.FindLinkedVouchers(ctx, businessId, entry, fromDate, toDate)
		if err != nil {
			return nil, err
		}
	case StatementSourceDebtorLedger:
		candidates, err = findDebtorCandidates(ctx, businessId, entry, fromDate, toDate)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown statement source %s", entry.Source)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Rank != candidates[j].Rank {
			return candidates[i].Rank > candidates[j].Rank
		}
		return candidates[i].VoucherDate.Before(candidates[j].VoucherDate)
	})
	return candidates, nil
}

func findDebtorCandidates(ctx context.Context, businessId string, entry *StatementEntry, fromDate *time.Time, toDate *time.Time) ([]Candidate, error) {
	if entry.CustomerId == 0 {
		return nil, wrapErr(ErrConfiguration, "statement entry %d has no party", entry.ID)
	}
	db := config.GetDB()

	invoiceCtx := db.WithContext(ctx).
		Where("business_id = ? AND customer_id = ?", businessId, entry.CustomerId).
		Where("current_status IN ?", []SalesInvoiceStatus{SalesInvoiceStatusConfirmed, SalesInvoiceStatusPartialPaid}).
		Where("remaining_balance > 0")
	if fromDate != nil {
		invoiceCtx = invoiceCtx.Where("invoice_date >= ?", *fromDate)
	}
	if toDate != nil {
		invoiceCtx = invoiceCtx.Where("invoice_date <= ?", *toDate)
	}
	var invoices []SalesInvoice
	if err := invoiceCtx.Order("invoice_date asc, id asc").Find(&invoices).Error; err != nil {
		return nil, err
	}

	paymentCtx := db.WithContext(ctx).
		Where("business_id = ? AND customer_id = ?", businessId, entry.CustomerId).
		Where("current_status = ?", VoucherStatusConfirmed).
		Where("unallocated_amount > 0")
	if fromDate != nil {
		paymentCtx = paymentCtx.Where("posting_date >= ?", *fromDate)
	}
	if toDate != nil {
		paymentCtx = paymentCtx.Where("posting_date <= ?", *toDate)
	}
	var payments []PaymentEntry
	if err := paymentCtx.Order("posting_date asc, id asc").Find(&payments).Error; err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(invoices)+len(payments))
	for _, invoice := range invoices {
		candidates = append(candidates, Candidate{
			VoucherRef:        VoucherRef{Kind: VoucherKindSalesInvoice, Id: invoice.ID},
			VoucherNumber:     invoice.InvoiceNumber,
			VoucherDate:       invoice.InvoiceDate,
			AllocatableAmount: invoice.RemainingBalance,
			Rank:              candidateRankInvoice,
		})
	}
	for _, payment := range payments {
		candidates = append(candidates, Candidate{
			VoucherRef:        VoucherRef{Kind: VoucherKindPaymentEntry, Id: payment.ID},
			VoucherNumber:     payment.PaymentNumber,
			VoucherDate:       payment.PostingDate,
			AllocatableAmount: payment.UnallocatedAmount,
			Rank:              candidateRankPayment,
		})
	}
	return candidates, nil
}
