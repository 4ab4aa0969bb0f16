package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/algocode/truebalance_backend/config"
	"github.com/algocode/truebalance_backend/models"
	"github.com/algocode/truebalance_backend/utils"
	"github.com/shopspring/decimal"
)

// End-to-end regression over the reconciliation engine against real MySQL and
// Redis: import idempotency, the monetary invariants, the reversal round
// trip, the journal fallback and mirror detection.
func TestReconciliationEngineRegression(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "truebalance_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	biz, err := models.CreateBusiness(ctx, &models.NewBusiness{
		Name:  "Test Biz",
		Email: "owner@test.local",
	})
	if err != nil {
		t.Fatalf("CreateBusiness: %v", err)
	}
	ctx = utils.SetBusinessIdInContext(ctx, biz.ID.String())

	bankLedger, err := models.CreateAccount(ctx, &models.NewAccount{
		Name:       "KBZ Current",
		Code:       "1010",
		DetailType: models.AccountDetailTypeBank,
	})
	if err != nil {
		t.Fatalf("CreateAccount(bank): %v", err)
	}
	otherLedger, err := models.CreateAccount(ctx, &models.NewAccount{
		Name:       "AYA Current",
		Code:       "1011",
		DetailType: models.AccountDetailTypeBank,
	})
	if err != nil {
		t.Fatalf("CreateAccount(other bank): %v", err)
	}
	bankAccount, err := models.CreateBankAccount(ctx, &models.NewBankAccount{
		Name:      "KBZ",
		AccountId: bankLedger.ID,
	})
	if err != nil {
		t.Fatalf("CreateBankAccount: %v", err)
	}
	otherBankAccount, err := models.CreateBankAccount(ctx, &models.NewBankAccount{
		Name:      "AYA",
		AccountId: otherLedger.ID,
	})
	if err != nil {
		t.Fatalf("CreateBankAccount(other): %v", err)
	}

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "ACME Ltd"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	t.Run("ImportCommitIdempotency", func(t *testing.T) {
		csvData := strings.Join([]string{
			"date,reference,company,credit,debit",
			"2024-01-10,IMP-001,ACME,100,",
			"2024-01-11,IMP-002,ACME,250,",
			"2024-01-11,IMP-002,ACME,250,",
		}, "\n")

		batch, err := models.CreateStatementImport(ctx, &models.NewStatementImport{
			FileName:   "acme.csv",
			FileData:   []byte(csvData),
			Source:     models.StatementSourceDebtorLedger,
			CustomerId: customer.ID,
		})
		if err != nil {
			t.Fatalf("CreateStatementImport: %v", err)
		}
		parsed, err := models.ProcessStatementImport(ctx, batch.ID)
		if err != nil {
			t.Fatalf("ProcessStatementImport: %v", err)
		}
		if parsed.ParsedRows != 3 {
			t.Fatalf("parsed rows = %d, want 3", parsed.ParsedRows)
		}
		// the in-file duplicate row produces exactly one warning log
		if len(parsed.Logs) != 1 || parsed.Logs[0].LogType != models.ImportLogTypeWarning {
			t.Fatalf("parse logs = %+v, want one warning", parsed.Logs)
		}

		created, skipped, err := models.CommitStatementImport(ctx, batch.ID)
		if err != nil {
			t.Fatalf("CommitStatementImport: %v", err)
		}
		if created != 2 || skipped != 0 {
			t.Fatalf("first commit: created=%d skipped=%d, want 2/0", created, skipped)
		}

		// re-invoking the commit must not create anything new
		created, skipped, err = models.CommitStatementImport(ctx, batch.ID)
		if err != nil {
			t.Fatalf("CommitStatementImport(again): %v", err)
		}
		if created != 0 || skipped != 2 {
			t.Fatalf("second commit: created=%d skipped=%d, want 0/2", created, skipped)
		}
	})

	t.Run("OverAllocationLeavesEntryUntouched", func(t *testing.T) {
		entry, err := models.CreateStatementEntry(ctx, &models.NewStatementEntry{
			Source:            models.StatementSourceDebtorLedger,
			CompanyName:       "ACME",
			CustomerId:        customer.ID,
			StatementDate:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			CreditAmount:      decimal.NewFromInt(100),
			CustomerReference: "OVER-001",
		})
		if err != nil {
			t.Fatalf("CreateStatementEntry: %v", err)
		}

		_, err = models.ReconcileStatementEntry(ctx, entry.ID, []models.ReconciliationAllocation{
			{Amount: decimal.NewFromFloat(100.01)},
		})
		if !errors.Is(err, models.ErrOverAllocation) {
			t.Fatalf("expected ErrOverAllocation, got %v", err)
		}

		after, err := models.GetStatementEntry(ctx, entry.ID)
		if err != nil {
			t.Fatalf("GetStatementEntry: %v", err)
		}
		if !after.UnallocatedAmount.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("unallocated changed to %s after rejected reconcile", after.UnallocatedAmount)
		}
		if after.CurrentStatus != models.StatementEntryStatusUnreconciled {
			t.Fatalf("status changed to %s after rejected reconcile", after.CurrentStatus)
		}
	})

	t.Run("ReconcileAndReverseRoundTrip", func(t *testing.T) {
		invoiceA, err := models.CreateSalesInvoice(ctx, &models.NewSalesInvoice{
			CustomerId:  customer.ID,
			InvoiceDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			TotalAmount: decimal.NewFromInt(200),
		})
		if err != nil {
			t.Fatalf("CreateSalesInvoice: %v", err)
		}
		invoiceB, err := models.CreateSalesInvoice(ctx, &models.NewSalesInvoice{
			CustomerId:  customer.ID,
			InvoiceDate: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC),
			TotalAmount: decimal.NewFromInt(300),
		})
		if err != nil {
			t.Fatalf("CreateSalesInvoice: %v", err)
		}

		entry, err := models.CreateStatementEntry(ctx, &models.NewStatementEntry{
			Source:            models.StatementSourceDebtorLedger,
			CompanyName:       "ACME",
			CustomerId:        customer.ID,
			StatementDate:     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			CreditAmount:      decimal.NewFromInt(500),
			CustomerReference: "RT-001",
		})
		if err != nil {
			t.Fatalf("CreateStatementEntry: %v", err)
		}

		candidates, err := models.FindReconciliationCandidates(ctx, entry.ID, nil, nil)
		if err != nil {
			t.Fatalf("FindReconciliationCandidates: %v", err)
		}
		if len(candidates) < 2 {
			t.Fatalf("expected both invoices as candidates, got %d", len(candidates))
		}
		if candidates[0].Rank != 10 || candidates[0].VoucherRef.Id != invoiceA.ID {
			t.Fatalf("oldest invoice should rank first, got %+v", candidates[0])
		}

		updated, err := models.ReconcileStatementEntry(ctx, entry.ID, []models.ReconciliationAllocation{
			{VoucherRef: &models.VoucherRef{Kind: models.VoucherKindSalesInvoice, Id: invoiceA.ID}, Amount: decimal.NewFromInt(200)},
			{VoucherRef: &models.VoucherRef{Kind: models.VoucherKindSalesInvoice, Id: invoiceB.ID}, Amount: decimal.NewFromInt(300)},
		})
		if err != nil {
			t.Fatalf("ReconcileStatementEntry: %v", err)
		}
		if updated.CurrentStatus != models.StatementEntryStatusFullyReconciled {
			t.Fatalf("status = %s, want FullyReconciled", updated.CurrentStatus)
		}
		if !updated.UnallocatedAmount.IsZero() {
			t.Fatalf("unallocated = %s, want 0", updated.UnallocatedAmount)
		}
		if updated.MatchedVoucherKind != models.VoucherKindPaymentEntry {
			t.Fatalf("settlement voucher kind = %s, want PaymentEntry", updated.MatchedVoucherKind)
		}

		payment, err := models.GetPaymentEntry(ctx, updated.MatchedVoucherId)
		if err != nil {
			t.Fatalf("GetPaymentEntry: %v", err)
		}
		if !payment.Amount.Equal(decimal.NewFromInt(500)) {
			t.Fatalf("settlement payment amount = %s, want 500", payment.Amount)
		}
		if len(payment.References) != 2 {
			t.Fatalf("settlement payment references = %d, want 2", len(payment.References))
		}
		gotInvoiceA, err := models.GetSalesInvoice(ctx, invoiceA.ID)
		if err != nil {
			t.Fatalf("GetSalesInvoice: %v", err)
		}
		if gotInvoiceA.CurrentStatus != models.SalesInvoiceStatusPaid {
			t.Fatalf("invoice A status = %s, want Paid", gotInvoiceA.CurrentStatus)
		}

		reversed, err := models.UnreconcileStatementEntry(ctx, entry.ID)
		if err != nil {
			t.Fatalf("UnreconcileStatementEntry: %v", err)
		}
		if reversed.CurrentStatus != models.StatementEntryStatusUnreconciled {
			t.Fatalf("status after reversal = %s", reversed.CurrentStatus)
		}
		if !reversed.UnallocatedAmount.Equal(decimal.NewFromInt(500)) {
			t.Fatalf("unallocated after reversal = %s, want 500", reversed.UnallocatedAmount)
		}
		if reversed.MatchedVoucherKind != "" {
			t.Fatalf("linked voucher survived reversal: %s", reversed.MatchedVoucherKind)
		}

		cancelled, err := models.GetPaymentEntry(ctx, payment.ID)
		if err != nil {
			t.Fatalf("GetPaymentEntry(after reversal): %v", err)
		}
		if cancelled.CurrentStatus != models.VoucherStatusCancelled {
			t.Fatalf("settlement voucher status = %s, want Cancelled", cancelled.CurrentStatus)
		}
		restoredA, err := models.GetSalesInvoice(ctx, invoiceA.ID)
		if err != nil {
			t.Fatalf("GetSalesInvoice(after reversal): %v", err)
		}
		if !restoredA.RemainingBalance.Equal(decimal.NewFromInt(200)) {
			t.Fatalf("invoice A balance after reversal = %s, want 200", restoredA.RemainingBalance)
		}

		// double reversal must surface, not pass quietly
		if _, err := models.UnreconcileStatementEntry(ctx, entry.ID); !errors.Is(err, models.ErrNotReconciled) {
			t.Fatalf("expected ErrNotReconciled on second reversal, got %v", err)
		}
		if err := models.CancelPaymentEntry(ctx, payment.ID); !errors.Is(err, models.ErrExternalService) {
			t.Fatalf("expected error cancelling an already-cancelled voucher, got %v", err)
		}
	})

	t.Run("MirrorDetectionAndInternalTransfer", func(t *testing.T) {
		out, err := models.CreateStatementEntry(ctx, &models.NewStatementEntry{
			Source:            models.StatementSourceBankAccount,
			CompanyName:       "ACME",
			BankAccountId:     bankAccount.ID,
			StatementDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			DebitAmount:       decimal.NewFromInt(1000),
			CustomerReference: "TRF-OUT",
		})
		if err != nil {
			t.Fatalf("CreateStatementEntry(out): %v", err)
		}

		// no counterpart yet
		mirror, err := models.FindMirrorTransaction(ctx, out.ID)
		if err != nil {
			t.Fatalf("FindMirrorTransaction: %v", err)
		}
		if mirror != nil {
			t.Fatalf("unexpected mirror before counterpart exists: %+v", mirror)
		}

		in, err := models.CreateStatementEntry(ctx, &models.NewStatementEntry{
			Source:            models.StatementSourceBankAccount,
			CompanyName:       "ACME",
			BankAccountId:     otherBankAccount.ID,
			StatementDate:     time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
			CreditAmount:      decimal.NewFromInt(1000),
			CustomerReference: "TRF-IN",
		})
		if err != nil {
			t.Fatalf("CreateStatementEntry(in): %v", err)
		}

		mirror, err = models.FindMirrorTransaction(ctx, out.ID)
		if err != nil {
			t.Fatalf("FindMirrorTransaction: %v", err)
		}
		if mirror == nil || mirror.ID != in.ID {
			t.Fatalf("expected entry %d as mirror, got %+v", in.ID, mirror)
		}

		// a second identical counterpart makes the match ambiguous
		_, err = models.CreateStatementEntry(ctx, &models.NewStatementEntry{
			Source:            models.StatementSourceBankAccount,
			CompanyName:       "ACME",
			BankAccountId:     otherBankAccount.ID,
			StatementDate:     time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			CreditAmount:      decimal.NewFromInt(1000),
			CustomerReference: "TRF-IN-2",
		})
		if err != nil {
			t.Fatalf("CreateStatementEntry(ambiguous counterpart): %v", err)
		}
		mirror, err = models.FindMirrorTransaction(ctx, out.ID)
		if err != nil {
			t.Fatalf("FindMirrorTransaction(ambiguous): %v", err)
		}
		if mirror != nil {
			t.Fatalf("ambiguous mirror must yield none, got entry %d", mirror.ID)
		}

		postingDate := models.MyDateString(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
		payment, err := models.CreateInternalTransfer(ctx, &models.NewInternalTransfer{
			EntryId:       out.ID,
			MirrorEntryId: in.ID,
			PostingDate:   &postingDate,
		})
		if err != nil {
			t.Fatalf("CreateInternalTransfer: %v", err)
		}
		if payment.PaymentType != models.PaymentTypeInternalTransfer {
			t.Fatalf("payment type = %s", payment.PaymentType)
		}
		if !payment.PostingDate.Equal(postingDate.Time()) {
			t.Fatalf("posting date = %s, want %s", payment.PostingDate, postingDate.Time())
		}

		for _, entryId := range []int{out.ID, in.ID} {
			leg, err := models.GetStatementEntry(ctx, entryId)
			if err != nil {
				t.Fatalf("GetStatementEntry(leg %d): %v", entryId, err)
			}
			if leg.CurrentStatus != models.StatementEntryStatusFullyReconciled {
				t.Fatalf("leg %d status = %s, want FullyReconciled", entryId, leg.CurrentStatus)
			}
			if leg.MatchedVoucherId != payment.ID {
				t.Fatalf("leg %d linked to voucher %d, want %d", entryId, leg.MatchedVoucherId, payment.ID)
			}
		}
	})

	t.Run("InternalTransferRejectsMismatchedLegs", func(t *testing.T) {
		out, err := models.CreateStatementEntry(ctx, &models.NewStatementEntry{
			Source:            models.StatementSourceBankAccount,
			CompanyName:       "ACME",
			BankAccountId:     bankAccount.ID,
			StatementDate:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			DebitAmount:       decimal.NewFromInt(400),
			CustomerReference: "TRF-PART-OUT",
		})
		if err != nil {
			t.Fatalf("CreateStatementEntry(out): %v", err)
		}
		in, err := models.CreateStatementEntry(ctx, &models.NewStatementEntry{
			Source:            models.StatementSourceBankAccount,
			CompanyName:       "ACME",
			BankAccountId:     otherBankAccount.ID,
			StatementDate:     time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			CreditAmount:      decimal.NewFromInt(400),
			CustomerReference: "TRF-PART-IN",
		})
		if err != nil {
			t.Fatalf("CreateStatementEntry(in): %v", err)
		}

		// leave the out leg partially allocated
		partial, err := models.ReconcileStatementEntry(ctx, out.ID, []models.ReconciliationAllocation{
			{Amount: decimal.NewFromInt(150)},
		})
		if err != nil {
			t.Fatalf("ReconcileStatementEntry(partial): %v", err)
		}
		if partial.CurrentStatus != models.StatementEntryStatusPartiallyReconciled {
			t.Fatalf("status = %s, want PartiallyReconciled", partial.CurrentStatus)
		}

		if _, err := models.CreateInternalTransfer(ctx, &models.NewInternalTransfer{
			EntryId:       out.ID,
			MirrorEntryId: in.ID,
		}); err == nil {
			t.Fatalf("expected error for legs with different unallocated amounts")
		}

		untouched, err := models.GetStatementEntry(ctx, in.ID)
		if err != nil {
			t.Fatalf("GetStatementEntry(mirror): %v", err)
		}
		if untouched.CurrentStatus != models.StatementEntryStatusUnreconciled {
			t.Fatalf("mirror leg status = %s after rejected transfer", untouched.CurrentStatus)
		}
	})

	t.Run("PaymentPaidToChosenAccount", func(t *testing.T) {
		entry, err := models.CreateStatementEntry(ctx, &models.NewStatementEntry{
			Source:            models.StatementSourceDebtorLedger,
			CompanyName:       "ACME",
			CustomerId:        customer.ID,
			StatementDate:     time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
			CreditAmount:      decimal.NewFromInt(320),
			CustomerReference: "PAY-ACC-001",
		})
		if err != nil {
			t.Fatalf("CreateStatementEntry: %v", err)
		}

		if _, err := models.CreatePaymentAndReconcile(ctx, &models.NewStatementPayment{
			EntryId:   entry.ID,
			AccountId: 999999,
		}); !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unknown account, got %v", err)
		}

		// the caller's account wins over the default settlement account
		payment, err := models.CreatePaymentAndReconcile(ctx, &models.NewStatementPayment{
			EntryId:   entry.ID,
			AccountId: otherLedger.ID,
		})
		if err != nil {
			t.Fatalf("CreatePaymentAndReconcile: %v", err)
		}
		if payment.PaidToAccountId != otherLedger.ID {
			t.Fatalf("paid-to account = %d, want %d", payment.PaidToAccountId, otherLedger.ID)
		}
		reconciled, err := models.GetStatementEntry(ctx, entry.ID)
		if err != nil {
			t.Fatalf("GetStatementEntry: %v", err)
		}
		if reconciled.CurrentStatus != models.StatementEntryStatusFullyReconciled {
			t.Fatalf("status = %s, want FullyReconciled", reconciled.CurrentStatus)
		}
	})

	t.Run("JournalFallbackWithoutSettlementAccount", func(t *testing.T) {
		// a business with no bank or cash account must still reconcile
		bareBiz, err := models.CreateBusiness(ctx, &models.NewBusiness{
			Name:  "Bare Biz",
			Email: "bare@test.local",
		})
		if err != nil {
			t.Fatalf("CreateBusiness(bare): %v", err)
		}
		bareCtx := utils.SetBusinessIdInContext(ctx, bareBiz.ID.String())

		bareCustomer, err := models.CreateCustomer(bareCtx, &models.NewCustomer{Name: "Solo Ltd"})
		if err != nil {
			t.Fatalf("CreateCustomer(bare): %v", err)
		}
		entry, err := models.CreateStatementEntry(bareCtx, &models.NewStatementEntry{
			Source:            models.StatementSourceDebtorLedger,
			CompanyName:       "SOLO",
			CustomerId:        bareCustomer.ID,
			StatementDate:     time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			CreditAmount:      decimal.NewFromInt(750),
			CustomerReference: "JF-001",
		})
		if err != nil {
			t.Fatalf("CreateStatementEntry(bare): %v", err)
		}

		updated, err := models.ReconcileStatementEntry(bareCtx, entry.ID, []models.ReconciliationAllocation{
			{Amount: decimal.NewFromInt(750)},
		})
		if err != nil {
			t.Fatalf("ReconcileStatementEntry(fallback): %v", err)
		}
		if updated.MatchedVoucherKind != models.VoucherKindJournal {
			t.Fatalf("fallback voucher kind = %s, want Journal", updated.MatchedVoucherKind)
		}

		journal, err := models.GetJournal(bareCtx, updated.MatchedVoucherId)
		if err != nil {
			t.Fatalf("GetJournal: %v", err)
		}
		if journal.VoucherType != models.JournalVoucherTypeSettlement {
			t.Fatalf("journal type = %s, want JournalSettlement", journal.VoucherType)
		}
		if len(journal.Transactions) != 2 {
			t.Fatalf("journal lines = %d, want 2", len(journal.Transactions))
		}
		debit := journal.Transactions[0].Debit.Add(journal.Transactions[1].Debit)
		credit := journal.Transactions[0].Credit.Add(journal.Transactions[1].Credit)
		if !debit.Equal(credit) || !debit.Equal(decimal.NewFromInt(750)) {
			t.Fatalf("journal not symmetric: debit=%s credit=%s", debit, credit)
		}
	})
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("truebalance-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("truebalance-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=truebalance_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
