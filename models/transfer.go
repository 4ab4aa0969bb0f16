package models

import (
	"context"

	"github.com/algocode/truebalance_backend/config"
)

const defaultTransferMatchDays = 4

// FindMirrorTransaction looks for the opposite leg of an internal transfer:
// same company, a different bank account, credit and debit amounts swapped,
// still unreconciled, dated within the business's match window. Exactly one
// match is returned; zero or several yield nil, never a guess.
func FindMirrorTransaction(ctx context.Context, entryId int) (*StatementEntry, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := GetStatementEntry(ctx, entryId)
	if err != nil {
		return nil, err
	}

	matchDays := defaultTransferMatchDays
	if business, err := GetBusinessById(ctx, businessId); err == nil && business.TransferMatchDays > 0 {
		matchDays = business.TransferMatchDays
	}
	fromDate := entry.StatementDate.AddDate(0, 0, -matchDays)
	toDate := entry.StatementDate.AddDate(0, 0, matchDays)

	db := config.GetDB()
	var mirrors []StatementEntry
	err = db.WithContext(ctx).
		Where("business_id = ? AND id <> ?", businessId, entry.ID).
		Where("source = ?", StatementSourceBankAccount).
		Where("company_name = ?", entry.CompanyName).
		Where("bank_account_id <> ?", entry.BankAccountId).
		Where("credit_amount = ? AND debit_amount = ?", entry.DebitAmount, entry.CreditAmount).
		Where("current_status = ?", StatementEntryStatusUnreconciled).
		Where("statement_date BETWEEN ? AND ?", fromDate, toDate).
		Limit(2).
		Find(&mirrors).Error
	if err != nil {
		return nil, err
	}
	if len(mirrors) != 1 {
		return nil, nil
	}
	return &mirrors[0], nil
}
