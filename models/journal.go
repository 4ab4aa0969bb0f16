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

// Journal is a manual voucher of balanced debit/credit lines. The engine
// creates them in two places: the settlement fallback when no bank or cash
// account is configured, and bank/credit-card entries posted straight from a
// statement line.
type Journal struct {
	ID              int                  `gorm:"primary_key" json:"id"`
	BusinessId      string               `gorm:"index;not null" json:"business_id"`
	VoucherType     JournalVoucherType   `gorm:"not null;type:enum('JournalSettlement','BankEntry','CreditCardEntry')" json:"voucher_type"`
	JournalNumber   string               `gorm:"size:255;not null" json:"journal_number"`
	SequenceNo      decimal.Decimal      `gorm:"type:decimal(15);not null" json:"sequence_no"`
	PostingDate     time.Time            `gorm:"not null" json:"posting_date"`
	ReferenceNumber string               `gorm:"size:255" json:"reference_number"`
	Remark          string               `gorm:"size:500" json:"remark"`
	CurrentStatus   VoucherStatus        `gorm:"not null;type:enum('Confirmed','Cancelled');default:'Confirmed'" json:"current_status"`
	Transactions    []JournalTransaction `gorm:"foreignKey:JournalId" json:"transactions"`
	CreatedAt       time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type JournalTransaction struct {
	ID          int             `gorm:"primary_key" json:"id"`
	JournalId   int             `gorm:"index;not null" json:"journal_id"`
	AccountId   int             `gorm:"not null" json:"account_id"`
	CustomerId  int             `json:"customer_id"`
	Debit       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debit"`
	Credit      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit"`
	Description string          `gorm:"size:255" json:"description"`
}

type NewJournal struct {
	VoucherType     JournalVoucherType      `json:"voucher_type" binding:"required"`
	PostingDate     time.Time               `json:"posting_date" binding:"required"`
	ReferenceNumber string                  `json:"reference_number"`
	Remark          string                  `json:"remark"`
	Transactions    []NewJournalTransaction `json:"transactions" binding:"required"`
}

type NewJournalTransaction struct {
	AccountId   int             `json:"account_id" binding:"required"`
	CustomerId  int             `json:"customer_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

func (input *NewJournal) validate() error {
	if len(input.Transactions) < 2 {
		return fmt.Errorf("journal needs at least two transactions")
	}
	debitTotal := decimal.Zero
	creditTotal := decimal.Zero
	for _, line := range input.Transactions {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("journal amounts cannot be negative")
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return fmt.Errorf("a journal line is either debit or credit, not both")
		}
		debitTotal = debitTotal.Add(line.Debit)
		creditTotal = creditTotal.Add(line.Credit)
	}
	if !debitTotal.Equal(creditTotal) {
		return fmt.Errorf("journal is unbalanced: debit %s, credit %s", debitTotal, creditTotal)
	}
	return nil
}

// createJournal writes the voucher inside the caller's transaction.
func createJournal(tx *gorm.DB, ctx context.Context, businessId string, input *NewJournal) (*Journal, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	seqNo, err := utils.GetSequence[Journal](ctx, businessId)
	if err != nil {
		return nil, err
	}

	journal := Journal{
		BusinessId:      businessId,
		VoucherType:     input.VoucherType,
		JournalNumber:   "JNL-" + fmt.Sprint(seqNo),
		SequenceNo:      decimal.NewFromInt(seqNo),
		PostingDate:     input.PostingDate,
		ReferenceNumber: utils.TruncateReference(input.ReferenceNumber),
		Remark:          input.Remark,
		CurrentStatus:   VoucherStatusConfirmed,
	}
	for _, line := range input.Transactions {
		journal.Transactions = append(journal.Transactions, JournalTransaction{
			AccountId:   line.AccountId,
			CustomerId:  line.CustomerId,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}

	if err := tx.WithContext(ctx).Create(&journal).Error; err != nil {
		return nil, wrapErr(ErrExternalService, "create journal: %s", err)
	}
	if err := PublishToLedger(ctx, tx, businessId, journal.PostingDate, journal.ID,
		VoucherKindJournal, &journal, OutboxActionCreate); err != nil {
		return nil, wrapErr(ErrExternalService, "publish journal: %s", err)
	}
	return &journal, nil
}

func cancelJournal(tx *gorm.DB, ctx context.Context, businessId string, id int) error {
	var journal Journal
	if err := tx.WithContext(ctx).Clauses(forUpdateLock).
		Where("business_id = ?", businessId).
		First(&journal, id).Error; err != nil {
		return wrapErr(ErrNotFound, "journal %d", id)
	}
	if journal.CurrentStatus == VoucherStatusCancelled {
		return wrapErr(ErrExternalService, "journal %s is already cancelled", journal.JournalNumber)
	}

	journal.CurrentStatus = VoucherStatusCancelled
	if err := tx.WithContext(ctx).Save(&journal).Error; err != nil {
		return err
	}
	return PublishToLedger(ctx, tx, businessId, journal.PostingDate, journal.ID,
		VoucherKindJournal, nil, OutboxActionCancel)
}

func GetJournal(ctx context.Context, id int) (*Journal, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	var journal Journal
	db := config.GetDB()
	if err := db.WithContext(ctx).Preload("Transactions").
		Where("business_id = ?", businessId).
		First(&journal, id).Error; err != nil {
		return nil, wrapErr(ErrNotFound, "journal %d", id)
	}
	return &journal, nil
}
