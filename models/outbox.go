package models

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// AccountingOutboxRecord is one posting request for the general-ledger
// engine. Records are written inside the caller's DB transaction
// (transactional outbox); the posting engine consumes them after commit and
// turns each voucher into balanced debit/credit postings. This service never
// posts to the ledger directly.
type AccountingOutboxRecord struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	BusinessId          string          `gorm:"index" json:"business_id"`
	TransactionDateTime time.Time       `json:"transaction_date_time"`
	ReferenceId         int             `gorm:"index" json:"reference_id"`
	ReferenceKind       VoucherKind     `gorm:"index;size:50" json:"reference_kind"`
	Action              OutboxAction    `gorm:"size:20" json:"action"`
	Payload             json.RawMessage `gorm:"type:json" json:"payload"`
	IsProcessed         bool            `gorm:"index;default:0" json:"is_processed"`
	CorrelationId       string          `gorm:"size:64" json:"correlation_id"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// PublishToLedger writes the outbox record inside the caller's DB transaction
// but does NOT notify the posting engine; dispatch happens asynchronously
// after commit.
func PublishToLedger(ctx context.Context, tx *gorm.DB, businessId string, transactionDateTime time.Time, refId int, refKind VoucherKind, obj interface{}, action OutboxAction) error {

	var payload json.RawMessage
	if obj != nil {
		b, err := json.Marshal(obj)
		if err != nil {
			return err
		}
		payload = b
	}

	record := AccountingOutboxRecord{
		BusinessId:          businessId,
		TransactionDateTime: transactionDateTime,
		ReferenceId:         refId,
		ReferenceKind:       refKind,
		Action:              action,
		Payload:             payload,
		IsProcessed:         false,
		CorrelationId:       correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}
