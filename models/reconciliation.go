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

// ReconciliationAllocation assigns part of a statement entry's unallocated
// amount. A nil VoucherRef is a create-and-settle request: the engine builds
// the settlement voucher itself.
type ReconciliationAllocation struct {
	VoucherRef *VoucherRef     `json:"voucher_ref"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
}

// ReconcileStatementEntry allocates the given amounts against the entry.
// Validation happens before any write so a rejected request leaves the entry
// untouched; voucher creation and the entry mutation then share one
// transaction, making the operation all-or-nothing.
func ReconcileStatementEntry(ctx context.Context, entryId int, allocations []ReconciliationAllocation) (*StatementEntry, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	if len(allocations) == 0 {
		return nil, fmt.Errorf("at least one allocation is required")
	}

	entry, err := GetStatementEntry(ctx, entryId)
	if err != nil {
		return nil, err
	}
	if entry.UnallocatedAmount.LessThanOrEqual(allocationEpsilon) {
		return nil, wrapErr(ErrAlreadyReconciled, "statement entry %d is fully reconciled", entryId)
	}

	total := decimal.Zero
	for _, allocation := range allocations {
		if !allocation.Amount.IsPositive() {
			return nil, fmt.Errorf("allocation amounts must be positive")
		}
		if allocation.VoucherRef != nil && !allocation.VoucherRef.Kind.Valid() {
			return nil, fmt.Errorf("unknown voucher kind %s", allocation.VoucherRef.Kind)
		}
		total = total.Add(allocation.Amount)
	}
	if total.GreaterThan(entry.UnallocatedAmount) {
		return nil, wrapErr(ErrOverAllocation, "allocations total %s exceeds unallocated %s on entry %d",
			total, entry.UnallocatedAmount, entryId)
	}

	// split the batch: invoice and create-and-settle allocations need a new
	// settlement voucher; existing payments are consumed in place
	var invoiceRefs []NewPaymentReference
	var paymentAllocations []ReconciliationAllocation
	var journalAllocations []ReconciliationAllocation
	settlementAmount := decimal.Zero
	for _, allocation := range allocations {
		if allocation.VoucherRef == nil {
			settlementAmount = settlementAmount.Add(allocation.Amount)
			continue
		}
		switch allocation.VoucherRef.Kind {
		case VoucherKindSalesInvoice:
			invoiceRefs = append(invoiceRefs, NewPaymentReference{
				ReferenceKind:   VoucherKindSalesInvoice,
				ReferenceId:     allocation.VoucherRef.Id,
				AllocatedAmount: allocation.Amount,
			})
			settlementAmount = settlementAmount.Add(allocation.Amount)
		case VoucherKindPaymentEntry:
			paymentAllocations = append(paymentAllocations, allocation)
		case VoucherKindJournal:
			journalAllocations = append(journalAllocations, allocation)
		}
	}

	db := config.GetDB()
	tx := db.Begin()

	var settlementRef VoucherRef
	createdByEngine := false
	if settlementAmount.IsPositive() {
		settlementRef, err = createSettlementVoucher(tx, ctx, businessId, entry, settlementAmount, invoiceRefs)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		createdByEngine = true
	}

	for _, allocation := range paymentAllocations {
		if err := consumeOnAccountPayment(tx, ctx, businessId, allocation.VoucherRef.Id,
			allocation.Amount, entry.StatementDate); err != nil {
			tx.Rollback()
			return nil, err
		}
		if settlementRef.IsZero() {
			settlementRef = *allocation.VoucherRef
		}
	}
	for _, allocation := range journalAllocations {
		var journal Journal
		if err := tx.WithContext(ctx).Where("business_id = ? AND current_status = ?",
			businessId, VoucherStatusConfirmed).First(&journal, allocation.VoucherRef.Id).Error; err != nil {
			tx.Rollback()
			return nil, wrapErr(ErrNotFound, "journal %d", allocation.VoucherRef.Id)
		}
		if settlementRef.IsZero() {
			settlementRef = *allocation.VoucherRef
		}
	}

	updated, err := applyAllocation(tx, ctx, businessId, entryId, total, settlementRef,
		createdByEngine, userNameFromContext(ctx))
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return updated, nil
}

// createSettlementVoucher builds the single settlement voucher of a reconcile
// batch: a payment against the configured bank or cash account when one
// exists, otherwise a journal that debits and credits the party's receivable
// symmetrically. The journal records no cash movement, only the allocation.
func createSettlementVoucher(tx *gorm.DB, ctx context.Context, businessId string, entry *StatementEntry, amount decimal.Decimal, invoiceRefs []NewPaymentReference) (VoucherRef, error) {
	settlementAccount, err := GetSettlementAccount(ctx, businessId)
	if err != nil {
		return VoucherRef{}, err
	}

	if settlementAccount != nil {
		business, err := GetBusinessById(ctx, businessId)
		if err != nil {
			return VoucherRef{}, err
		}
		input := NewPaymentEntry{
			PaymentType:     PaymentTypeReceive,
			CustomerId:      entry.CustomerId,
			PostingDate:     entry.StatementDate,
			ReferenceNumber: entry.CustomerReference,
			ModeOfPayment:   business.DefaultModeOfPayment,
			PaidToAccountId: settlementAccount.ID,
			Amount:          amount,
			References:      invoiceRefs,
		}
		if entry.TransactionType == StatementTransactionTypeWithdrawal {
			input.PaymentType = PaymentTypePay
			input.PaidToAccountId = 0
			input.PaidFromAccountId = settlementAccount.ID
		}
		payment, err := createPaymentEntry(tx, ctx, businessId, &input)
		if err != nil {
			return VoucherRef{}, err
		}
		return VoucherRef{Kind: VoucherKindPaymentEntry, Id: payment.ID}, nil
	}

	if entry.CustomerId == 0 {
		return VoucherRef{}, wrapErr(ErrConfiguration,
			"no settlement account configured and statement entry %d has no party", entry.ID)
	}
	receivableId, err := GetPartyReceivableAccount(ctx, businessId, entry.CustomerId)
	if err != nil {
		return VoucherRef{}, err
	}

	journalInput := NewJournal{
		VoucherType:     JournalVoucherTypeSettlement,
		PostingDate:     entry.StatementDate,
		ReferenceNumber: entry.CustomerReference,
		Remark:          fmt.Sprintf("Settlement of statement entry %d", entry.ID),
		Transactions: []NewJournalTransaction{
			{AccountId: receivableId, CustomerId: entry.CustomerId, Debit: amount},
			{AccountId: receivableId, CustomerId: entry.CustomerId, Credit: amount},
		},
	}
	journal, err := createJournal(tx, ctx, businessId, &journalInput)
	if err != nil {
		return VoucherRef{}, err
	}
	return VoucherRef{Kind: VoucherKindJournal, Id: journal.ID}, nil
}

// UnreconcileStatementEntry reverses a reconciliation in full. Vouchers the
// engine created itself are cancelled; a pre-existing payment the entry was
// matched against is released back to its full on-account amount instead.
// The reversal is not amount-aware: however many increments it took to
// allocate, the entry comes back with its whole original amount.
func UnreconcileStatementEntry(ctx context.Context, entryId int) (*StatementEntry, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := GetStatementEntry(ctx, entryId)
	if err != nil {
		return nil, err
	}
	linked := entry.LinkedVoucher()
	if linked.Kind == "" {
		return nil, wrapErr(ErrNotReconciled, "statement entry %d has no linked voucher", entryId)
	}

	db := config.GetDB()
	tx := db.Begin()

	if entry.VoucherCreatedByEngine {
		if err := cancelVoucher(tx, ctx, businessId, linked); err != nil {
			tx.Rollback()
			return nil, err
		}
	} else if linked.Kind == VoucherKindPaymentEntry {
		if err := releaseOnAccountPayment(tx, ctx, businessId, linked.Id); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	updated, err := reverseAllocation(tx, ctx, businessId, entryId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return updated, nil
}

// BulkOperationResult reports one entry's outcome in a bulk run. Failures are
// isolated: one entry failing never aborts the rest of the batch.
type BulkOperationResult struct {
	EntryId int         `json:"entry_id"`
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Voucher *VoucherRef `json:"voucher,omitempty"`
}

type EntryAllocations struct {
	EntryId     int                        `json:"entry_id" binding:"required"`
	Allocations []ReconciliationAllocation `json:"allocations" binding:"required"`
}

func ReconcileStatementEntries(ctx context.Context, items []EntryAllocations) []BulkOperationResult {
	logger := config.GetLogger()
	results := make([]BulkOperationResult, 0, len(items))
	for _, item := range items {
		updated, err := ReconcileStatementEntry(ctx, item.EntryId, item.Allocations)
		if err != nil {
			config.LogError(logger, "models", "ReconcileStatementEntries", "entry failed", item.EntryId, err)
			results = append(results, BulkOperationResult{EntryId: item.EntryId, Error: err.Error()})
			continue
		}
		linked := updated.LinkedVoucher()
		results = append(results, BulkOperationResult{EntryId: item.EntryId, Success: true, Voucher: &linked})
	}
	return results
}

type NewInternalTransfer struct {
	EntryId           int           `json:"entry_id" binding:"required"`
	MirrorEntryId     int           `json:"mirror_entry_id"`
	PaidFromAccountId int           `json:"paid_from_account_id"`
	PaidToAccountId   int           `json:"paid_to_account_id"`
	ReferenceNumber   string        `json:"reference_number"`
	PostingDate       *MyDateString `json:"posting_date"`
	ReferenceDate     *MyDateString `json:"reference_date"`
}

// CreateInternalTransfer settles a bank statement entry as one leg of a
// money movement between two own accounts. When a mirror leg exists (given
// or detected), both legs are reconciled against the same transfer payment.
func CreateInternalTransfer(ctx context.Context, input *NewInternalTransfer) (*PaymentEntry, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := GetStatementEntry(ctx, input.EntryId)
	if err != nil {
		return nil, err
	}
	if entry.Source != StatementSourceBankAccount {
		return nil, fmt.Errorf("internal transfers apply to bank statement entries only")
	}
	if entry.UnallocatedAmount.LessThanOrEqual(allocationEpsilon) {
		return nil, wrapErr(ErrAlreadyReconciled, "statement entry %d is fully reconciled", entry.ID)
	}

	var mirror *StatementEntry
	if input.MirrorEntryId > 0 {
		mirror, err = GetStatementEntry(ctx, input.MirrorEntryId)
		if err != nil {
			return nil, err
		}
		if mirror.CurrentStatus != StatementEntryStatusUnreconciled {
			return nil, wrapErr(ErrAlreadyReconciled, "mirror entry %d is not unreconciled", mirror.ID)
		}
		if mirror.BankAccountId == entry.BankAccountId {
			return nil, fmt.Errorf("mirror entry %d is on the same bank account", mirror.ID)
		}
		if !mirror.CreditAmount.Equal(entry.DebitAmount) || !mirror.DebitAmount.Equal(entry.CreditAmount) {
			return nil, fmt.Errorf("mirror entry %d amounts do not mirror entry %d", mirror.ID, entry.ID)
		}
	} else {
		mirror, err = FindMirrorTransaction(ctx, entry.ID)
		if err != nil {
			return nil, err
		}
	}

	paidFrom, paidTo := input.PaidFromAccountId, input.PaidToAccountId
	if mirror != nil {
		withdrawalLeg, depositLeg := entry, mirror
		if entry.TransactionType == StatementTransactionTypeDeposit {
			withdrawalLeg, depositLeg = mirror, entry
		}
		fromAccount, err := GetBankAccount(ctx, withdrawalLeg.BankAccountId)
		if err != nil {
			return nil, err
		}
		toAccount, err := GetBankAccount(ctx, depositLeg.BankAccountId)
		if err != nil {
			return nil, err
		}
		paidFrom, paidTo = fromAccount.AccountId, toAccount.AccountId
	}
	if paidFrom == 0 || paidTo == 0 {
		return nil, wrapErr(ErrConfiguration,
			"no mirror leg found for entry %d and no accounts given", entry.ID)
	}

	amount := entry.UnallocatedAmount
	if mirror != nil && !mirror.UnallocatedAmount.Sub(amount).Abs().LessThanOrEqual(allocationEpsilon) {
		return nil, fmt.Errorf("mirror entry %d has %s unallocated but entry %d has %s, the legs must settle the same amount",
			mirror.ID, mirror.UnallocatedAmount, entry.ID, amount)
	}
	reference := input.ReferenceNumber
	if reference == "" {
		reference = entry.CustomerReference
	}
	postingDate := entry.StatementDate
	if input.PostingDate != nil && !input.PostingDate.IsZero() {
		postingDate = input.PostingDate.Time()
	}

	db := config.GetDB()
	tx := db.Begin()

	payment, err := createPaymentEntry(tx, ctx, businessId, &NewPaymentEntry{
		PaymentType:       PaymentTypeInternalTransfer,
		PostingDate:       postingDate,
		ReferenceDate:     (*time.Time)(input.ReferenceDate),
		ReferenceNumber:   reference,
		PaidFromAccountId: paidFrom,
		PaidToAccountId:   paidTo,
		Amount:            amount,
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	transferRef := VoucherRef{Kind: VoucherKindPaymentEntry, Id: payment.ID}
	reconciledBy := userNameFromContext(ctx)
	if _, err := applyAllocation(tx, ctx, businessId, entry.ID, amount, transferRef, true, reconciledBy); err != nil {
		tx.Rollback()
		return nil, err
	}
	if mirror != nil {
		if _, err := applyAllocation(tx, ctx, businessId, mirror.ID, amount,
			transferRef, true, reconciledBy); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return payment, nil
}

// CreateInternalTransfers runs mirror detection per entry and creates a
// transfer wherever exactly one counterpart exists.
func CreateInternalTransfers(ctx context.Context, entryIds []int) []BulkOperationResult {
	logger := config.GetLogger()
	results := make([]BulkOperationResult, 0, len(entryIds))
	for _, entryId := range entryIds {
		mirror, err := FindMirrorTransaction(ctx, entryId)
		if err == nil && mirror == nil {
			err = fmt.Errorf("no unambiguous mirror leg for entry %d", entryId)
		}
		var payment *PaymentEntry
		if err == nil {
			payment, err = CreateInternalTransfer(ctx, &NewInternalTransfer{
				EntryId:       entryId,
				MirrorEntryId: mirror.ID,
			})
		}
		if err != nil {
			config.LogError(logger, "models", "CreateInternalTransfers", "entry failed", entryId, err)
			results = append(results, BulkOperationResult{EntryId: entryId, Error: err.Error()})
			continue
		}
		results = append(results, BulkOperationResult{
			EntryId: entryId,
			Success: true,
			Voucher: &VoucherRef{Kind: VoucherKindPaymentEntry, Id: payment.ID},
		})
	}
	return results
}

type BankEntryContra struct {
	AccountId int             `json:"account_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

type NewBankEntry struct {
	EntryId         int               `json:"entry_id" binding:"required"`
	ContraEntries   []BankEntryContra `json:"contra_entries" binding:"required"`
	ReferenceNumber string            `json:"reference_number"`
	Remark          string            `json:"remark"`
}

// CreateBankEntryAndReconcile posts a statement line straight to the ledger
// as a journal voucher: the bank account on one side, the given contra
// accounts on the other. Credit-card statements produce a CreditCardEntry.
func CreateBankEntryAndReconcile(ctx context.Context, input *NewBankEntry) (*Journal, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := GetStatementEntry(ctx, input.EntryId)
	if err != nil {
		return nil, err
	}
	if entry.Source != StatementSourceBankAccount {
		return nil, fmt.Errorf("bank entries apply to bank statement entries only")
	}
	if entry.UnallocatedAmount.LessThanOrEqual(allocationEpsilon) {
		return nil, wrapErr(ErrAlreadyReconciled, "statement entry %d is fully reconciled", entry.ID)
	}

	bankAccount, err := GetBankAccount(ctx, entry.BankAccountId)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, contra := range input.ContraEntries {
		if !contra.Amount.IsPositive() {
			return nil, fmt.Errorf("contra amounts must be positive")
		}
		total = total.Add(contra.Amount)
	}
	if total.GreaterThan(entry.UnallocatedAmount) {
		return nil, wrapErr(ErrOverAllocation, "contra total %s exceeds unallocated %s on entry %d",
			total, entry.UnallocatedAmount, entry.ID)
	}

	voucherType := JournalVoucherTypeBankEntry
	if bankAccount.IsCreditCard != nil && *bankAccount.IsCreditCard {
		voucherType = JournalVoucherTypeCreditCardEntry
	}

	// deposits debit the bank and credit the contra side, withdrawals the
	// reverse
	lines := []NewJournalTransaction{{AccountId: bankAccount.AccountId, Debit: total}}
	contraDebit := false
	if entry.TransactionType == StatementTransactionTypeWithdrawal {
		lines = []NewJournalTransaction{{AccountId: bankAccount.AccountId, Credit: total}}
		contraDebit = true
	}
	for _, contra := range input.ContraEntries {
		line := NewJournalTransaction{AccountId: contra.AccountId, Credit: contra.Amount}
		if contraDebit {
			line = NewJournalTransaction{AccountId: contra.AccountId, Debit: contra.Amount}
		}
		lines = append(lines, line)
	}

	reference := input.ReferenceNumber
	if reference == "" {
		reference = entry.CustomerReference
	}

	db := config.GetDB()
	tx := db.Begin()

	journal, err := createJournal(tx, ctx, businessId, &NewJournal{
		VoucherType:     voucherType,
		PostingDate:     entry.StatementDate,
		ReferenceNumber: reference,
		Remark:          input.Remark,
		Transactions:    lines,
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	journalRef := VoucherRef{Kind: VoucherKindJournal, Id: journal.ID}
	if _, err := applyAllocation(tx, ctx, businessId, entry.ID, total, journalRef,
		true, userNameFromContext(ctx)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return journal, nil
}

// CreateBankEntriesAndReconcile posts every entry in full against a single
// contra account.
func CreateBankEntriesAndReconcile(ctx context.Context, entryIds []int, contraAccountId int) []BulkOperationResult {
	logger := config.GetLogger()
	results := make([]BulkOperationResult, 0, len(entryIds))
	for _, entryId := range entryIds {
		var journal *Journal
		entry, err := GetStatementEntry(ctx, entryId)
		if err == nil {
			journal, err = CreateBankEntryAndReconcile(ctx, &NewBankEntry{
				EntryId:       entryId,
				ContraEntries: []BankEntryContra{{AccountId: contraAccountId, Amount: entry.UnallocatedAmount}},
			})
		}
		if err != nil {
			config.LogError(logger, "models", "CreateBankEntriesAndReconcile", "entry failed", entryId, err)
			results = append(results, BulkOperationResult{EntryId: entryId, Error: err.Error()})
			continue
		}
		results = append(results, BulkOperationResult{
			EntryId: entryId,
			Success: true,
			Voucher: &VoucherRef{Kind: VoucherKindJournal, Id: journal.ID},
		})
	}
	return results
}

type NewStatementPayment struct {
	EntryId       int    `json:"entry_id" binding:"required"`
	AccountId     int    `json:"account_id"`
	CustomerId    int    `json:"customer_id"`
	ModeOfPayment string `json:"mode_of_payment"`
}

// CreatePaymentAndReconcile settles a statement entry with a fresh on-account
// payment. The bank or cash side is the caller's AccountId when given,
// otherwise the business's configured settlement account. Debtor-ledger
// entries must be deposits: money the party sent us is the only thing a
// receivable payment can record.
func CreatePaymentAndReconcile(ctx context.Context, input *NewStatementPayment) (*PaymentEntry, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := GetStatementEntry(ctx, input.EntryId)
	if err != nil {
		return nil, err
	}
	if entry.UnallocatedAmount.LessThanOrEqual(allocationEpsilon) {
		return nil, wrapErr(ErrAlreadyReconciled, "statement entry %d is fully reconciled", entry.ID)
	}
	if entry.Source == StatementSourceDebtorLedger && entry.TransactionType != StatementTransactionTypeDeposit {
		return nil, fmt.Errorf("debtor ledger entry %d is a withdrawal, only deposits can become payments", entry.ID)
	}

	customerId := entry.CustomerId
	if input.CustomerId > 0 {
		customerId = input.CustomerId
	}

	settlementAccountId := input.AccountId
	if settlementAccountId > 0 {
		if err := utils.ValidateResourceId[Account](ctx, businessId, settlementAccountId); err != nil {
			return nil, wrapErr(ErrNotFound, "account %d", settlementAccountId)
		}
	} else {
		settlementAccount, err := GetSettlementAccount(ctx, businessId)
		if err != nil {
			return nil, err
		}
		if settlementAccount == nil {
			return nil, wrapErr(ErrConfiguration, "no bank or cash account configured")
		}
		settlementAccountId = settlementAccount.ID
	}
	modeOfPayment := input.ModeOfPayment
	if modeOfPayment == "" {
		if business, err := GetBusinessById(ctx, businessId); err == nil {
			modeOfPayment = business.DefaultModeOfPayment
		}
	}

	paymentInput := NewPaymentEntry{
		PaymentType:     PaymentTypeReceive,
		CustomerId:      customerId,
		PostingDate:     entry.StatementDate,
		ReferenceNumber: entry.CustomerReference,
		ModeOfPayment:   modeOfPayment,
		PaidToAccountId: settlementAccountId,
		Amount:          entry.UnallocatedAmount,
	}
	if entry.TransactionType == StatementTransactionTypeWithdrawal {
		paymentInput.PaymentType = PaymentTypePay
		paymentInput.PaidToAccountId = 0
		paymentInput.PaidFromAccountId = settlementAccountId
	}

	db := config.GetDB()
	tx := db.Begin()

	payment, err := createPaymentEntry(tx, ctx, businessId, &paymentInput)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	paymentRef := VoucherRef{Kind: VoucherKindPaymentEntry, Id: payment.ID}
	if _, err := applyAllocation(tx, ctx, businessId, entry.ID, entry.UnallocatedAmount,
		paymentRef, true, userNameFromContext(ctx)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return payment, nil
}

// CreatePaymentsAndReconcile settles every entry in full with its own
// payment, all for the same party and bank or cash account.
func CreatePaymentsAndReconcile(ctx context.Context, entryIds []int, accountId int, customerId int, modeOfPayment string) []BulkOperationResult {
	logger := config.GetLogger()
	results := make([]BulkOperationResult, 0, len(entryIds))
	for _, entryId := range entryIds {
		payment, err := CreatePaymentAndReconcile(ctx, &NewStatementPayment{
			EntryId:       entryId,
			AccountId:     accountId,
			CustomerId:    customerId,
			ModeOfPayment: modeOfPayment,
		})
		if err != nil {
			config.LogError(logger, "models", "CreatePaymentsAndReconcile", "entry failed", entryId, err)
			results = append(results, BulkOperationResult{EntryId: entryId, Error: err.Error()})
			continue
		}
		results = append(results, BulkOperationResult{
			EntryId: entryId,
			Success: true,
			Voucher: &VoucherRef{Kind: VoucherKindPaymentEntry, Id: payment.ID},
		})
	}
	return results
}
