package models_test

import (
	"strings"
	"testing"

	"github.com/algocode/truebalance_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestParseStatementFileCSV(t *testing.T) {
	csvData := strings.Join([]string{
		"Statement Date,Reference Number,Company,Currency,Deposit,Withdrawal",
		"2024-01-10,TXN-001,ACME,MMK,\"1,500.50\",",
		"2024-01-11,TXN-002,ACME,MMK,,200",
		"not-a-date,TXN-003,ACME,MMK,300,",
		"2024-01-12,TXN-004,ACME,MMK,,",
	}, "\n")

	rows, logs := models.ParseStatementFile([]byte(csvData), "statement.csv")

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].CustomerReference != "TXN-001" {
		t.Fatalf("row 1 reference = %q", rows[0].CustomerReference)
	}
	if !rows[0].CreditAmount.Equal(decimal.NewFromFloat(1500.50)) {
		t.Fatalf("row 1 credit = %s", rows[0].CreditAmount)
	}
	if rows[0].StatementDate.Format("2006-01-02") != "2024-01-10" {
		t.Fatalf("row 1 date = %s", rows[0].StatementDate)
	}
	if !rows[1].DebitAmount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("row 2 debit = %s", rows[1].DebitAmount)
	}

	// one warning for the bad date, one for the empty-amount row
	if len(logs) != 2 {
		t.Fatalf("expected 2 log entries, got %d: %+v", len(logs), logs)
	}
	for _, l := range logs {
		if l.LogType != models.ImportLogTypeWarning {
			t.Fatalf("expected Warning, got %s: %s", l.LogType, l.Message)
		}
	}
	if logs[0].RowIndex != 4 {
		t.Fatalf("bad-date warning points at row %d, want 4", logs[0].RowIndex)
	}
}

func TestParseStatementFileMissingDateColumnIsFatal(t *testing.T) {
	csvData := strings.Join([]string{
		"Reference,Company,Credit,Debit",
		"TXN-001,ACME,100,",
	}, "\n")

	rows, logs := models.ParseStatementFile([]byte(csvData), "statement.csv")
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
	if len(logs) != 1 || logs[0].LogType != models.ImportLogTypeError {
		t.Fatalf("expected a single Error log, got %+v", logs)
	}
}

func TestParseStatementFileWorkbook(t *testing.T) {
	workbook := excelize.NewFile()
	sheet := workbook.GetSheetName(0)
	rows := [][]interface{}{
		{"date", "reference", "company", "credit", "debit"},
		{"2024-01-10", "TXN-001", "ACME", 1500.5, ""},
		{45302, "TXN-002", "ACME", "", 200}, // spreadsheet serial for 2024-01-11
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := workbook.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := workbook.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	parsed, logs := models.ParseStatementFile(buf.Bytes(), "statement.xlsx")
	if len(logs) != 0 {
		t.Fatalf("unexpected logs: %+v", logs)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(parsed))
	}
	if parsed[1].StatementDate.Format("2006-01-02") != "2024-01-11" {
		t.Fatalf("serial date parsed as %s", parsed[1].StatementDate)
	}
	if !parsed[1].DebitAmount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("row 2 debit = %s", parsed[1].DebitAmount)
	}
}

func TestBuildPreviewFlagsWithinBatchDuplicates(t *testing.T) {
	csvData := strings.Join([]string{
		"date,reference,company,credit,debit",
		"2024-01-10,TXN-001,ACME,100,",
		"2024-01-10,TXN-002,ACME,100,",
		"2024-01-10,TXN-001,ACME,100,",
	}, "\n")

	rows, _ := models.ParseStatementFile([]byte(csvData), "statement.csv")
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	previews, logs := models.BuildPreview(rows)
	if len(previews) != 3 {
		t.Fatalf("duplicates must stay visible as preview rows, got %d", len(previews))
	}
	if previews[0].IsDuplicate || previews[1].IsDuplicate {
		t.Fatalf("first occurrences wrongly flagged: %+v", previews[:2])
	}
	if !previews[2].IsDuplicate {
		t.Fatalf("repeat of row 2 not flagged as duplicate")
	}
	if len(logs) != 1 || logs[0].LogType != models.ImportLogTypeWarning {
		t.Fatalf("expected one Warning for the duplicate, got %+v", logs)
	}
	if logs[0].RowIndex != 4 {
		t.Fatalf("duplicate warning points at row %d, want 4", logs[0].RowIndex)
	}
}
