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

// StatementEntry is one imported line of a bank or debtor-ledger statement.
// Entries are created by the importer, mutated only by the reconciliation
// engine and never physically deleted; reversal resets state instead.
type StatementEntry struct {
	ID                 int                      `gorm:"primary_key" json:"id"`
	BusinessId         string                   `gorm:"index;not null;uniqueIndex:idx_statement_entries_hash" json:"business_id"`
	Source             StatementSourceType      `gorm:"not null;type:enum('BankAccount','DebtorLedger')" json:"source"`
	CompanyName        string                   `gorm:"size:255" json:"company_name"`
	CustomerId         int                      `gorm:"index" json:"customer_id"`
	BankAccountId      int                      `gorm:"index" json:"bank_account_id"`
	StatementDate      time.Time                `gorm:"not null" json:"statement_date"`
	CurrencyCode       string                   `gorm:"size:10" json:"currency_code"`
	CreditAmount       decimal.Decimal          `gorm:"type:decimal(20,4);default:0" json:"credit_amount"`
	DebitAmount        decimal.Decimal          `gorm:"type:decimal(20,4);default:0" json:"debit_amount"`
	OriginalAmount     decimal.Decimal          `gorm:"type:decimal(20,4);default:0" json:"original_amount"`
	AllocatedAmount    decimal.Decimal          `gorm:"type:decimal(20,4);default:0" json:"allocated_amount"`
	UnallocatedAmount  decimal.Decimal          `gorm:"type:decimal(20,4);default:0" json:"unallocated_amount"`
	CustomerReference  string                   `gorm:"size:140" json:"customer_reference"`
	Description        string                   `gorm:"size:500" json:"description"`
	TransactionType    StatementTransactionType `gorm:"not null;type:enum('Deposit','Withdrawal')" json:"transaction_type"`
	CurrentStatus      StatementEntryStatus     `gorm:"not null;type:enum('Unreconciled','PartiallyReconciled','FullyReconciled');default:'Unreconciled'" json:"current_status"`
	MatchedVoucherKind VoucherKind              `gorm:"size:50" json:"matched_voucher_kind"`
	MatchedVoucherId   int                      `json:"matched_voucher_id"`
	// set when the engine built the settlement voucher itself; reversal
	// cancels such vouchers instead of releasing them
	VoucherCreatedByEngine bool       `gorm:"default:0" json:"voucher_created_by_engine"`
	ReconciledAt           *time.Time `json:"reconciled_at"`
	ReconciledBy           string     `gorm:"size:100" json:"reconciled_by"`
	SourceImportId         int        `gorm:"index" json:"source_import_id"`
	UniqueHash             string     `gorm:"size:32;not null;uniqueIndex:idx_statement_entries_hash" json:"unique_hash"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// LinkedVoucher returns the settlement reference, zero when unreconciled.
func (e *StatementEntry) LinkedVoucher() VoucherRef {
	return VoucherRef{Kind: e.MatchedVoucherKind, Id: e.MatchedVoucherId}
}

type NewStatementEntry struct {
	Source            StatementSourceType `json:"source" binding:"required"`
	CompanyName       string              `json:"company_name"`
	CustomerId        int                 `json:"customer_id"`
	BankAccountId     int                 `json:"bank_account_id"`
	StatementDate     time.Time           `json:"statement_date" binding:"required"`
	CurrencyCode      string              `json:"currency_code"`
	CreditAmount      decimal.Decimal     `json:"credit_amount"`
	DebitAmount       decimal.Decimal     `json:"debit_amount"`
	CustomerReference string              `json:"customer_reference"`
	Description       string              `json:"description"`
	SourceImportId    int                 `json:"source_import_id"`
}

func (input *NewStatementEntry) validate(ctx context.Context, businessId string) error {
	if !input.Source.Valid() {
		return fmt.Errorf("invalid statement source %s", input.Source)
	}
	if input.Source == StatementSourceDebtorLedger {
		if input.CustomerId == 0 {
			return fmt.Errorf("debtor ledger entries need a customer")
		}
		if err := utils.ValidateResourceId[Customer](ctx, businessId, input.CustomerId); err != nil {
			return wrapErr(ErrNotFound, "customer %d", input.CustomerId)
		}
	}
	if input.Source == StatementSourceBankAccount {
		if input.BankAccountId == 0 {
			return fmt.Errorf("bank statement entries need a bank account")
		}
		if err := utils.ValidateResourceId[BankAccount](ctx, businessId, input.BankAccountId); err != nil {
			return wrapErr(ErrNotFound, "bank account %d", input.BankAccountId)
		}
	}
	if input.CreditAmount.IsNegative() || input.DebitAmount.IsNegative() {
		return fmt.Errorf("statement amounts cannot be negative")
	}
	if !input.CreditAmount.IsPositive() && !input.DebitAmount.IsPositive() {
		return fmt.Errorf("statement entry needs a credit or debit amount")
	}
	return nil
}

// createStatementEntry builds and persists the entry inside the caller's
// transaction. The content hash is the dedup key: an existing row with the
// same hash yields ErrDuplicate.
func createStatementEntry(tx *gorm.DB, ctx context.Context, businessId string, input *NewStatementEntry) (*StatementEntry, error) {
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	statementDate := input.StatementDate
	hash := ComputeRowHash(input.CompanyName, input.CustomerReference,
		&statementDate, input.CreditAmount, input.DebitAmount)

	var existing int64
	if err := tx.WithContext(ctx).Model(&StatementEntry{}).
		Where("business_id = ? AND unique_hash = ?", businessId, hash).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, wrapErr(ErrDuplicate, "statement entry with hash %s already exists", hash)
	}

	original := input.CreditAmount
	transactionType := StatementTransactionTypeDeposit
	if input.DebitAmount.GreaterThan(input.CreditAmount) {
		original = input.DebitAmount
		transactionType = StatementTransactionTypeWithdrawal
	}

	entry := StatementEntry{
		BusinessId:        businessId,
		Source:            input.Source,
		CompanyName:       input.CompanyName,
		CustomerId:        input.CustomerId,
		BankAccountId:     input.BankAccountId,
		StatementDate:     statementDate,
		CurrencyCode:      input.CurrencyCode,
		CreditAmount:      input.CreditAmount,
		DebitAmount:       input.DebitAmount,
		OriginalAmount:    original,
		AllocatedAmount:   decimal.Zero,
		UnallocatedAmount: original,
		CustomerReference: utils.TruncateReference(input.CustomerReference),
		Description:       input.Description,
		TransactionType:   transactionType,
		CurrentStatus:     StatementEntryStatusUnreconciled,
		SourceImportId:    input.SourceImportId,
		UniqueHash:        hash,
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func CreateStatementEntry(ctx context.Context, input *NewStatementEntry) (*StatementEntry, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	tx := db.Begin()
	entry, err := createStatementEntry(tx, ctx, businessId, input)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func GetStatementEntry(ctx context.Context, id int) (*StatementEntry, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := utils.FetchModel[StatementEntry](ctx, businessId, id)
	if err != nil {
		return nil, wrapErr(ErrNotFound, "statement entry %d", id)
	}
	return entry, nil
}

type StatementEntryFilter struct {
	CustomerId    int
	BankAccountId int
	FromDate      *time.Time
	ToDate        *time.Time
	All           bool
}

// GetStatementEntries lists entries, unreconciled-first worklist style: unless
// All is set, fully reconciled entries are excluded.
func GetStatementEntries(ctx context.Context, filter StatementEntryFilter) ([]StatementEntry, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if filter.CustomerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", filter.CustomerId)
	}
	if filter.BankAccountId > 0 {
		dbCtx = dbCtx.Where("bank_account_id = ?", filter.BankAccountId)
	}
	if filter.FromDate != nil {
		dbCtx = dbCtx.Where("statement_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		dbCtx = dbCtx.Where("statement_date <= ?", *filter.ToDate)
	}
	if !filter.All {
		dbCtx = dbCtx.Where("current_status <> ?", StatementEntryStatusFullyReconciled)
	}

	var entries []StatementEntry
	if err := dbCtx.Order("statement_date asc, id asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// applyAllocation atomically consumes delta from the entry's unallocated
// amount and links the settlement voucher. The row is locked for the rest of
// the caller's transaction so concurrent reconciles on the same entry cannot
// both read a stale amount.
func applyAllocation(tx *gorm.DB, ctx context.Context, businessId string, entryId int, delta decimal.Decimal, ref VoucherRef, createdByEngine bool, reconciledBy string) (*StatementEntry, error) {
	var entry StatementEntry
	if err := tx.WithContext(ctx).Clauses(forUpdateLock).
		Where("business_id = ?", businessId).
		First(&entry, entryId).Error; err != nil {
		return nil, wrapErr(ErrNotFound, "statement entry %d", entryId)
	}
	if delta.GreaterThan(entry.UnallocatedAmount.Add(allocationEpsilon)) {
		return nil, wrapErr(ErrOverAllocation, "delta %s exceeds unallocated %s on entry %d",
			delta, entry.UnallocatedAmount, entryId)
	}

	entry.UnallocatedAmount = entry.UnallocatedAmount.Sub(delta)
	if entry.UnallocatedAmount.IsNegative() {
		entry.UnallocatedAmount = decimal.Zero
	}
	entry.AllocatedAmount = entry.OriginalAmount.Sub(entry.UnallocatedAmount)
	entry.CurrentStatus = statusForAmounts(entry.UnallocatedAmount, entry.OriginalAmount)
	entry.MatchedVoucherKind = ref.Kind
	entry.MatchedVoucherId = ref.Id
	entry.VoucherCreatedByEngine = createdByEngine
	now := time.Now()
	entry.ReconciledAt = &now
	entry.ReconciledBy = reconciledBy

	if err := tx.WithContext(ctx).Save(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// reverseAllocation restores the entry to its pre-reconciliation state. It is
// all-or-nothing: the full original amount comes back regardless of how many
// increments it took to allocate. Only the entry side is restored here; an
// on-account payment consumed during reconciliation keeps its reduced
// unallocated amount unless the caller releases it separately.
func reverseAllocation(tx *gorm.DB, ctx context.Context, businessId string, entryId int) (*StatementEntry, error) {
	var entry StatementEntry
	if err := tx.WithContext(ctx).Clauses(forUpdateLock).
		Where("business_id = ?", businessId).
		First(&entry, entryId).Error; err != nil {
		return nil, wrapErr(ErrNotFound, "statement entry %d", entryId)
	}
	if entry.MatchedVoucherKind == "" {
		return nil, wrapErr(ErrNotReconciled, "statement entry %d has no linked voucher", entryId)
	}

	entry.UnallocatedAmount = entry.OriginalAmount
	entry.AllocatedAmount = decimal.Zero
	entry.CurrentStatus = StatementEntryStatusUnreconciled
	entry.MatchedVoucherKind = ""
	entry.MatchedVoucherId = 0
	entry.VoucherCreatedByEngine = false
	entry.ReconciledAt = nil
	entry.ReconciledBy = ""

	if err := tx.WithContext(ctx).Save(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// statusForAmounts implements the threshold rule: fully reconciled below the
// epsilon, unreconciled at the full original amount, partial in between.
func statusForAmounts(unallocated, original decimal.Decimal) StatementEntryStatus {
	switch {
	case unallocated.LessThanOrEqual(allocationEpsilon):
		return StatementEntryStatusFullyReconciled
	case unallocated.GreaterThanOrEqual(original):
		return StatementEntryStatusUnreconciled
	default:
		return StatementEntryStatusPartiallyReconciled
	}
}
