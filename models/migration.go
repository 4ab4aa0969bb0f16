package models

import "github.com/algocode/truebalance_backend/config"

// MigrateTable creates or updates every table of the service.
func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&Business{},
		&User{},
		&Account{},
		&BankAccount{},
		&Customer{},
		&SalesInvoice{},
		&PaymentEntry{},
		&PaymentEntryReference{},
		&Journal{},
		&JournalTransaction{},
		&StatementEntry{},
		&StatementImport{},
		&StatementImportPreview{},
		&StatementImportLog{},
		&AccountingOutboxRecord{},
	)
}
