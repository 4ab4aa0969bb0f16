package models

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/algocode/truebalance_backend/config"
	"github.com/algocode/truebalance_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// StatementImport is one uploaded statement file moving through
// Queued → Parsing → Completed/Failed. The raw bytes stay on the batch so a
// failed parse can be retried without re-uploading.
type StatementImport struct {
	ID              int                      `gorm:"primary_key" json:"id"`
	BusinessId      string                   `gorm:"index;not null" json:"business_id"`
	FileName        string                   `gorm:"size:255;not null" json:"file_name"`
	FileData        []byte                   `gorm:"type:longblob" json:"-"`
	Source          StatementSourceType      `gorm:"not null;type:enum('BankAccount','DebtorLedger')" json:"source"`
	CustomerId      int                      `gorm:"index" json:"customer_id"`
	BankAccountId   int                      `gorm:"index" json:"bank_account_id"`
	ImportStatus    ImportStatus             `gorm:"not null;type:enum('Queued','Parsing','Completed','Failed');default:'Queued'" json:"import_status"`
	ImportStartTime *time.Time               `json:"import_start_time"`
	ImportEndTime   *time.Time               `json:"import_end_time"`
	ParsedRows      int                      `gorm:"default:0" json:"parsed_rows"`
	Previews        []StatementImportPreview `gorm:"foreignKey:StatementImportId" json:"previews"`
	Logs            []StatementImportLog     `gorm:"foreignKey:StatementImportId" json:"logs"`
	CreatedAt       time.Time                `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                `gorm:"autoUpdateTime" json:"updated_at"`
}

// StatementImportPreview is one parsed row as the user will see it before
// commit. Duplicate rows stay visible but are excluded from commit.
type StatementImportPreview struct {
	ID                int             `gorm:"primary_key" json:"id"`
	StatementImportId int             `gorm:"index;not null" json:"statement_import_id"`
	RowIndex          int             `json:"row_index"`
	CompanyName       string          `gorm:"size:255" json:"company_name"`
	CustomerReference string          `gorm:"size:140" json:"customer_reference"`
	StatementDate     *time.Time      `json:"statement_date"`
	CurrencyCode      string          `gorm:"size:10" json:"currency_code"`
	CreditAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit_amount"`
	DebitAmount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debit_amount"`
	UniqueHash        string          `gorm:"size:32;index" json:"unique_hash"`
	IsDuplicate       bool            `gorm:"default:0" json:"is_duplicate"`
}

type StatementImportLog struct {
	ID                int           `gorm:"primary_key" json:"id"`
	StatementImportId int           `gorm:"index;not null" json:"statement_import_id"`
	LogType           ImportLogType `gorm:"not null;type:enum('Info','Warning','Error')" json:"log_type"`
	RowIndex          int           `json:"row_index"`
	Message           string        `gorm:"size:500" json:"message"`
	CreatedAt         time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

type NewStatementImport struct {
	FileName      string
	FileData      []byte
	Source        StatementSourceType
	CustomerId    int
	BankAccountId int
}

func CreateStatementImport(ctx context.Context, input *NewStatementImport) (*StatementImport, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	if !input.Source.Valid() {
		return nil, fmt.Errorf("invalid statement source %s", input.Source)
	}
	if input.Source == StatementSourceDebtorLedger && input.CustomerId > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, businessId, input.CustomerId); err != nil {
			return nil, wrapErr(ErrNotFound, "customer %d", input.CustomerId)
		}
	}
	if input.Source == StatementSourceBankAccount {
		if input.BankAccountId == 0 {
			return nil, fmt.Errorf("bank statement imports need a bank account")
		}
		if err := utils.ValidateResourceId[BankAccount](ctx, businessId, input.BankAccountId); err != nil {
			return nil, wrapErr(ErrNotFound, "bank account %d", input.BankAccountId)
		}
	}
	if len(input.FileData) == 0 {
		return nil, fmt.Errorf("empty statement file")
	}

	batch := StatementImport{
		BusinessId:    businessId,
		FileName:      input.FileName,
		FileData:      input.FileData,
		Source:        input.Source,
		CustomerId:    input.CustomerId,
		BankAccountId: input.BankAccountId,
		ImportStatus:  ImportStatusQueued,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func GetStatementImport(ctx context.Context, id int) (*StatementImport, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	var batch StatementImport
	if err := db.WithContext(ctx).
		Preload("Previews").Preload("Logs").
		Where("business_id = ?", businessId).
		First(&batch, id).Error; err != nil {
		return nil, wrapErr(ErrNotFound, "statement import %d", id)
	}
	return &batch, nil
}

// ParsedRow is one raw statement line after header mapping and type coercion.
type ParsedRow struct {
	RowIndex          int
	CompanyName       string
	CustomerReference string
	StatementDate     time.Time
	CurrencyCode      string
	CreditAmount      decimal.Decimal
	DebitAmount       decimal.Decimal
}

type ImportLogEntry struct {
	LogType  ImportLogType
	RowIndex int
	Message  string
}

// headerAliases maps the lowercased header cell to its canonical column.
// Files from different banks label the same column differently.
var headerAliases = map[string]string{
	"statement_date": "date",
	"statement date": "date",
	"date":           "date",
	"posting_date":   "date",

	"customer_reference": "reference",
	"reference":          "reference",
	"reference number":   "reference",
	"reference_no":       "reference",

	"debit":                "debit",
	"debit amount":         "debit",
	"withdrawal":           "debit",
	"payment_amount_debit": "debit",

	"credit":                "credit",
	"credit amount":         "credit",
	"deposit":               "credit",
	"payment_amount_credit": "credit",

	"company": "company",

	"currency": "currency",
}

// ParseStatementFile turns the uploaded bytes into rows plus a row-granular
// log. A file-level problem (unreadable workbook, no date column) is fatal
// and yields zero rows with one Error entry; a bad individual row is skipped
// with a Warning and parsing continues.
func ParseStatementFile(data []byte, fileName string) ([]ParsedRow, []ImportLogEntry) {
	ext := strings.ToLower(filepath.Ext(fileName))

	var cells [][]string
	switch ext {
	case ".xlsx", ".xlsm":
		workbook, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, []ImportLogEntry{fatalLog("cannot open workbook: " + err.Error())}
		}
		defer workbook.Close()
		sheets := workbook.GetSheetList()
		if len(sheets) == 0 {
			return nil, []ImportLogEntry{fatalLog("workbook has no sheets")}
		}
		cells, err = workbook.GetRows(sheets[0])
		if err != nil {
			return nil, []ImportLogEntry{fatalLog("cannot read sheet: " + err.Error())}
		}
	default:
		reader := csv.NewReader(bytes.NewReader(data))
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		var err error
		cells, err = reader.ReadAll()
		if err != nil {
			return nil, []ImportLogEntry{fatalLog("cannot read delimited file: " + err.Error())}
		}
	}
	return parseStatementRows(cells)
}

func fatalLog(message string) ImportLogEntry {
	return ImportLogEntry{LogType: ImportLogTypeError, Message: message}
}

func parseStatementRows(cells [][]string) ([]ParsedRow, []ImportLogEntry) {
	var logs []ImportLogEntry

	headerIdx := -1
	for i, row := range cells {
		if len(row) > 0 && strings.TrimSpace(strings.Join(row, "")) != "" {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, []ImportLogEntry{fatalLog("file is empty")}
	}

	columns := map[string]int{}
	for col, cell := range cells[headerIdx] {
		canonical, ok := headerAliases[strings.ToLower(strings.TrimSpace(cell))]
		if !ok {
			continue
		}
		if _, taken := columns[canonical]; !taken {
			columns[canonical] = col
		}
	}
	if _, ok := columns["date"]; !ok {
		return nil, []ImportLogEntry{fatalLog("no date column found in header")}
	}

	var rows []ParsedRow
	for i := headerIdx + 1; i < len(cells); i++ {
		rowIndex := i + 1 // 1-based, as the user counts rows in the file
		raw := cells[i]
		if strings.TrimSpace(strings.Join(raw, "")) == "" {
			continue
		}

		date, ok := parseCellDate(cellAt(raw, columns, "date"))
		if !ok {
			logs = append(logs, ImportLogEntry{
				LogType:  ImportLogTypeWarning,
				RowIndex: rowIndex,
				Message:  fmt.Sprintf("row %d: unparseable date %q, row skipped", rowIndex, cellAt(raw, columns, "date")),
			})
			continue
		}

		credit, creditOk := parseCellAmount(cellAt(raw, columns, "credit"))
		debit, debitOk := parseCellAmount(cellAt(raw, columns, "debit"))
		if !creditOk || !debitOk {
			logs = append(logs, ImportLogEntry{
				LogType:  ImportLogTypeWarning,
				RowIndex: rowIndex,
				Message:  fmt.Sprintf("row %d: unparseable amount, row skipped", rowIndex),
			})
			continue
		}
		if credit.IsZero() && debit.IsZero() {
			logs = append(logs, ImportLogEntry{
				LogType:  ImportLogTypeWarning,
				RowIndex: rowIndex,
				Message:  fmt.Sprintf("row %d: no credit or debit amount, row skipped", rowIndex),
			})
			continue
		}

		rows = append(rows, ParsedRow{
			RowIndex:          rowIndex,
			CompanyName:       strings.TrimSpace(cellAt(raw, columns, "company")),
			CustomerReference: utils.TruncateReference(cellAt(raw, columns, "reference")),
			StatementDate:     date,
			CurrencyCode:      strings.ToUpper(strings.TrimSpace(cellAt(raw, columns, "currency"))),
			CreditAmount:      credit,
			DebitAmount:       debit,
		})
	}
	return rows, logs
}

func cellAt(row []string, columns map[string]int, name string) string {
	col, ok := columns[name]
	if !ok || col >= len(row) {
		return ""
	}
	return row[col]
}

func parseCellDate(cell string) (time.Time, bool) {
	return NormalizeDate(cell)
}

// parseCellAmount is tolerant of the noise statement exports carry: blanks
// mean zero, thousand separators are stripped.
func parseCellAmount(cell string) (decimal.Decimal, bool) {
	cell = strings.TrimSpace(strings.ReplaceAll(cell, ",", ""))
	if cell == "" || cell == "-" {
		return decimal.Zero, true
	}
	value, err := utils.ParseDecimal(cell)
	if err != nil {
		return decimal.Zero, false
	}
	if value.IsNegative() {
		return decimal.Zero, false
	}
	return value, true
}

// BuildPreview computes each row's hash and flags within-batch duplicates:
// the first occurrence of a hash is accepted, every later occurrence is kept
// visible but excluded from commit.
func BuildPreview(rows []ParsedRow) ([]StatementImportPreview, []ImportLogEntry) {
	var logs []ImportLogEntry
	seen := make(map[string]int, len(rows))
	previews := make([]StatementImportPreview, 0, len(rows))

	for _, row := range rows {
		date := row.StatementDate
		hash := ComputeRowHash(row.CompanyName, row.CustomerReference, &date,
			row.CreditAmount, row.DebitAmount)

		preview := StatementImportPreview{
			RowIndex:          row.RowIndex,
			CompanyName:       row.CompanyName,
			CustomerReference: row.CustomerReference,
			StatementDate:     &date,
			CurrencyCode:      row.CurrencyCode,
			CreditAmount:      row.CreditAmount,
			DebitAmount:       row.DebitAmount,
			UniqueHash:        hash,
		}
		if firstRow, dup := seen[hash]; dup {
			preview.IsDuplicate = true
			logs = append(logs, ImportLogEntry{
				LogType:  ImportLogTypeWarning,
				RowIndex: row.RowIndex,
				Message:  fmt.Sprintf("row %d duplicates row %d within this file", row.RowIndex, firstRow),
			})
		} else {
			seen[hash] = row.RowIndex
		}
		previews = append(previews, preview)
	}
	return previews, logs
}

// ProcessStatementImport parses the stored file and persists the preview rows
// and log. A fatal parse leaves the batch Failed with its Error log; partial
// success is the default for row-level problems.
func ProcessStatementImport(ctx context.Context, importId int) (*StatementImport, error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	logger := config.GetLogger()

	db := config.GetDB()
	var batch StatementImport
	if err := db.WithContext(ctx).Where("business_id = ?", businessId).
		First(&batch, importId).Error; err != nil {
		return nil, wrapErr(ErrNotFound, "statement import %d", importId)
	}

	now := time.Now()
	batch.ImportStatus = ImportStatusParsing
	batch.ImportStartTime = &now
	if err := db.WithContext(ctx).Save(&batch).Error; err != nil {
		return nil, err
	}

	rows, parseLogs := ParseStatementFile(batch.FileData, batch.FileName)
	previews, dupLogs := BuildPreview(rows)

	fatal := len(rows) == 0 && hasErrorLog(parseLogs)

	tx := db.Begin()
	// re-parse replaces any previous preview and log
	if err := tx.WithContext(ctx).Where("statement_import_id = ?", batch.ID).
		Delete(&StatementImportPreview{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("statement_import_id = ?", batch.ID).
		Delete(&StatementImportLog{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i := range previews {
		previews[i].StatementImportId = batch.ID
	}
	if len(previews) > 0 {
		if err := tx.WithContext(ctx).Create(&previews).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	allLogs := append(parseLogs, dupLogs...)
	logRecords, err := insertImportLogs(tx, ctx, batch.ID, allLogs)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	end := time.Now()
	batch.ImportEndTime = &end
	batch.ParsedRows = len(rows)
	if fatal {
		batch.ImportStatus = ImportStatusFailed
	} else {
		batch.ImportStatus = ImportStatusCompleted
	}
	if err := tx.WithContext(ctx).Save(&batch).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	batch.Logs = logRecords

	if fatal {
		config.LogError(logger, "models", "ProcessStatementImport", "fatal parse", batch.FileName, wrapErr(ErrFatalParse, "import %d", batch.ID))
		return &batch, wrapErr(ErrFatalParse, "import %d: %s", batch.ID, allLogs[0].Message)
	}
	logger.WithField("import_id", batch.ID).WithField("rows", len(rows)).
		WithField("warnings", len(allLogs)).Info("statement file parsed")
	return &batch, nil
}

func hasErrorLog(logs []ImportLogEntry) bool {
	for _, l := range logs {
		if l.LogType == ImportLogTypeError {
			return true
		}
	}
	return false
}

func insertImportLogs(tx *gorm.DB, ctx context.Context, importId int, logs []ImportLogEntry) ([]StatementImportLog, error) {
	records := make([]StatementImportLog, 0, len(logs))
	for _, l := range logs {
		record := StatementImportLog{
			StatementImportId: importId,
			LogType:           l.LogType,
			RowIndex:          l.RowIndex,
			Message:           l.Message,
		}
		if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// CommitStatementImport turns every non-duplicate preview row into a
// statement entry. A redis lock serializes concurrent commits of the same
// batch. Re-invoking after a partial failure counts rows that already landed
// as skipped, never duplicated.
func CommitStatementImport(ctx context.Context, importId int) (created int, skipped int, err error) {
	businessId, err := requireBusinessId(ctx)
	if err != nil {
		return 0, 0, err
	}

	release, err := utils.AcquireBusinessLock(ctx, businessId, "statement-import-commit", fmt.Sprint(importId))
	if err != nil {
		return 0, 0, err
	}
	defer release()

	batch, err := GetStatementImport(ctx, importId)
	if err != nil {
		return 0, 0, err
	}
	if batch.ImportStatus != ImportStatusCompleted {
		return 0, 0, fmt.Errorf("statement import %d is %s, not Completed", importId, batch.ImportStatus)
	}

	db := config.GetDB()
	tx := db.Begin()
	for _, preview := range batch.Previews {
		if preview.IsDuplicate {
			continue
		}
		input := NewStatementEntry{
			Source:            batch.Source,
			CompanyName:       preview.CompanyName,
			CustomerId:        batch.CustomerId,
			BankAccountId:     batch.BankAccountId,
			StatementDate:     *preview.StatementDate,
			CurrencyCode:      preview.CurrencyCode,
			CreditAmount:      preview.CreditAmount,
			DebitAmount:       preview.DebitAmount,
			CustomerReference: preview.CustomerReference,
			SourceImportId:    batch.ID,
		}
		_, createErr := createStatementEntry(tx, ctx, businessId, &input)
		if createErr != nil {
			if errors.Is(createErr, ErrDuplicate) {
				skipped++
				if _, err := insertImportLogs(tx, ctx, batch.ID, []ImportLogEntry{{
					LogType:  ImportLogTypeInfo,
					RowIndex: preview.RowIndex,
					Message:  fmt.Sprintf("row %d already imported, skipped", preview.RowIndex),
				}}); err != nil {
					tx.Rollback()
					return 0, 0, err
				}
				continue
			}
			tx.Rollback()
			return 0, 0, createErr
		}
		created++
	}
	if err := tx.Commit().Error; err != nil {
		return 0, 0, err
	}

	config.GetLogger().WithField("import_id", batch.ID).
		WithField("created", created).WithField("skipped", skipped).
		Info("statement import committed")
	return created, skipped, nil
}
