package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

type StatementSourceType string

const (
	StatementSourceBankAccount  StatementSourceType = "BankAccount"
	StatementSourceDebtorLedger StatementSourceType = "DebtorLedger"
)

func (t StatementSourceType) Valid() bool {
	return t == StatementSourceBankAccount || t == StatementSourceDebtorLedger
}

type StatementEntryStatus string

const (
	StatementEntryStatusUnreconciled        StatementEntryStatus = "Unreconciled"
	StatementEntryStatusPartiallyReconciled StatementEntryStatus = "PartiallyReconciled"
	StatementEntryStatusFullyReconciled     StatementEntryStatus = "FullyReconciled"
)

type StatementTransactionType string

const (
	StatementTransactionTypeDeposit    StatementTransactionType = "Deposit"
	StatementTransactionTypeWithdrawal StatementTransactionType = "Withdrawal"
)

type VoucherKind string

const (
	VoucherKindSalesInvoice VoucherKind = "SalesInvoice"
	VoucherKindPaymentEntry VoucherKind = "PaymentEntry"
	VoucherKindJournal      VoucherKind = "Journal"
)

func (k VoucherKind) Valid() bool {
	switch k {
	case VoucherKindSalesInvoice, VoucherKindPaymentEntry, VoucherKindJournal:
		return true
	}
	return false
}

type ImportStatus string

const (
	ImportStatusQueued    ImportStatus = "Queued"
	ImportStatusParsing   ImportStatus = "Parsing"
	ImportStatusCompleted ImportStatus = "Completed"
	ImportStatusFailed    ImportStatus = "Failed"
)

type ImportLogType string

const (
	ImportLogTypeInfo    ImportLogType = "Info"
	ImportLogTypeWarning ImportLogType = "Warning"
	ImportLogTypeError   ImportLogType = "Error"
)

type PaymentType string

const (
	PaymentTypeReceive          PaymentType = "Receive"
	PaymentTypePay              PaymentType = "Pay"
	PaymentTypeInternalTransfer PaymentType = "InternalTransfer"
)

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypeReceive, PaymentTypePay, PaymentTypeInternalTransfer:
		return true
	}
	return false
}

type VoucherStatus string

const (
	VoucherStatusConfirmed VoucherStatus = "Confirmed"
	VoucherStatusCancelled VoucherStatus = "Cancelled"
)

type SalesInvoiceStatus string

const (
	SalesInvoiceStatusConfirmed   SalesInvoiceStatus = "Confirmed"
	SalesInvoiceStatusPartialPaid SalesInvoiceStatus = "PartialPaid"
	SalesInvoiceStatusPaid        SalesInvoiceStatus = "Paid"
	SalesInvoiceStatusCancelled   SalesInvoiceStatus = "Cancelled"
)

type JournalVoucherType string

const (
	JournalVoucherTypeSettlement      JournalVoucherType = "JournalSettlement"
	JournalVoucherTypeBankEntry       JournalVoucherType = "BankEntry"
	JournalVoucherTypeCreditCardEntry JournalVoucherType = "CreditCardEntry"
)

type AccountDetailType string

const (
	AccountDetailTypeBank       AccountDetailType = "Bank"
	AccountDetailTypeCash       AccountDetailType = "Cash"
	AccountDetailTypeReceivable AccountDetailType = "Receivable"
	AccountDetailTypeClearing   AccountDetailType = "Clearing"
	AccountDetailTypeOther      AccountDetailType = "Other"
)

type OutboxAction string

const (
	OutboxActionCreate OutboxAction = "Create"
	OutboxActionCancel OutboxAction = "Cancel"
)

// MyDateString accepts bare dates ("2006-01-02") in JSON and query params
// while storing a full timestamp.
type MyDateString time.Time

func (d *MyDateString) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*d = MyDateString(time.Time{})
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			*d = MyDateString(t)
			return nil
		}
	}
	return fmt.Errorf("invalid date string %q", s)
}

func (d MyDateString) MarshalJSON() ([]byte, error) {
	t := time.Time(d)
	if t.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + t.Format("2006-01-02") + `"`), nil
}

func (d MyDateString) Value() (driver.Value, error) {
	return time.Time(d), nil
}

func (d *MyDateString) Scan(value interface{}) error {
	t, ok := value.(time.Time)
	if !ok {
		return errors.New("cannot scan value into MyDateString")
	}
	*d = MyDateString(t)
	return nil
}

func (d MyDateString) Time() time.Time {
	return time.Time(d)
}

func (d MyDateString) IsZero() bool {
	return time.Time(d).IsZero()
}
