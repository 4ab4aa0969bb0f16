package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/algocode/truebalance_backend/config"
	"github.com/algocode/truebalance_backend/middlewares"
	"github.com/algocode/truebalance_backend/models"
	"github.com/algocode/truebalance_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("truebalance-reconciliation")

// RateLimiter throttles by client IP with a redis counter per window.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func getRedisClient(redisAddress string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
}

// httpStatusForError maps the domain error kinds onto HTTP statuses.
func httpStatusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicate),
		errors.Is(err, models.ErrAlreadyReconciled),
		errors.Is(err, models.ErrNotReconciled):
		return http.StatusConflict
	case errors.Is(err, models.ErrOverAllocation),
		errors.Is(err, models.ErrConfiguration),
		errors.Is(err, models.ErrFatalParse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	c.JSON(httpStatusForError(err), gin.H{"error": err.Error()})
}

// requireBusiness rejects requests whose token carries no tenant scope.
func requireBusiness(c *gin.Context) (context.Context, bool) {
	ctx := c.Request.Context()
	if businessId, ok := utils.GetBusinessIdFromContext(ctx); !ok || businessId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return ctx, true
}

func parseDateParam(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q, expected YYYY-MM-DD", name, raw)
	}
	return &t, nil
}

func loginHandler() gin.HandlerFunc {
	type loginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		token, err := models.Signin(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

func reconcileHandler() gin.HandlerFunc {
	type reconcileRequest struct {
		EntryId     int                               `json:"entry_id" binding:"required"`
		Allocations []models.ReconciliationAllocation `json:"allocations" binding:"required"`
	}
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var req reconcileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		ctx, span := tracer.Start(ctx, "reconcile-statement-entry")
		defer span.End()
		entry, err := models.ReconcileStatementEntry(ctx, req.EntryId, req.Allocations)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func reconcileBulkHandler() gin.HandlerFunc {
	type reconcileBulkRequest struct {
		Items []models.EntryAllocations `json:"items" binding:"required"`
	}
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var req reconcileBulkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": models.ReconcileStatementEntries(ctx, req.Items)})
	}
}

func unreconcileHandler() gin.HandlerFunc {
	type unreconcileRequest struct {
		EntryId int `json:"entry_id" binding:"required"`
	}
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var req unreconcileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		entry, err := models.UnreconcileStatementEntry(ctx, req.EntryId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func internalTransferHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var req models.NewInternalTransfer
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		payment, err := models.CreateInternalTransfer(ctx, &req)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

func internalTransferBulkHandler() gin.HandlerFunc {
	type bulkRequest struct {
		EntryIds []int `json:"entry_ids" binding:"required"`
	}
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var req bulkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": models.CreateInternalTransfers(ctx, req.EntryIds)})
	}
}

func bankEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var req models.NewBankEntry
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		journal, err := models.CreateBankEntryAndReconcile(ctx, &req)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, journal)
	}
}

func bankEntryBulkHandler() gin.HandlerFunc {
	type bulkRequest struct {
		EntryIds  []int `json:"entry_ids" binding:"required"`
		AccountId int   `json:"account_id" binding:"required"`
	}
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var req bulkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": models.CreateBankEntriesAndReconcile(ctx, req.EntryIds, req.AccountId)})
	}
}

func paymentBulkHandler() gin.HandlerFunc {
	type bulkRequest struct {
		EntryIds      []int  `json:"entry_ids" binding:"required"`
		AccountId     int    `json:"account_id"`
		CustomerId    int    `json:"customer_id"`
		ModeOfPayment string `json:"mode_of_payment"`
	}
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var req bulkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": models.CreatePaymentsAndReconcile(ctx, req.EntryIds, req.AccountId, req.CustomerId, req.ModeOfPayment)})
	}
}

func candidatesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		entryId, err := strconv.Atoi(c.Query("entry_id"))
		if err != nil || entryId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "entry_id is required"})
			return
		}
		fromDate, err := parseDateParam(c, "from_date")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		toDate, err := parseDateParam(c, "to_date")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		candidates, err := models.FindReconciliationCandidates(ctx, entryId, fromDate, toDate)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"candidates": candidates})
	}
}

func mirrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		entryId, err := strconv.Atoi(c.Query("entry_id"))
		if err != nil || entryId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "entry_id is required"})
			return
		}
		mirror, err := models.FindMirrorTransaction(ctx, entryId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"mirror": mirror})
	}
}

func partyDetailsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		customerId, err := strconv.Atoi(c.Param("id"))
		if err != nil || customerId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
			return
		}
		details, err := models.GetPartyDetails(ctx, customerId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, details)
	}
}

func clearClearanceDateHandler() gin.HandlerFunc {
	type clearRequest struct {
		VoucherKind models.VoucherKind `json:"voucher_kind" binding:"required"`
		VoucherId   int                `json:"voucher_id" binding:"required"`
	}
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var req clearRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		ref := models.VoucherRef{Kind: req.VoucherKind, Id: req.VoucherId}
		if err := models.ClearVoucherClearanceDate(ctx, ref); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func statementEntriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		var filter models.StatementEntryFilter
		if v := c.Query("customer_id"); v != "" {
			filter.CustomerId, _ = strconv.Atoi(v)
		}
		if v := c.Query("bank_account_id"); v != "" {
			filter.BankAccountId, _ = strconv.Atoi(v)
		}
		var err error
		if filter.FromDate, err = parseDateParam(c, "from_date"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if filter.ToDate, err = parseDateParam(c, "to_date"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.All = strings.EqualFold(c.Query("all"), "true")

		entries, err := models.GetStatementEntries(ctx, filter)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

const maxStatementFileSize = 20 << 20 // 20 MB

func importUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fileHeader.Size > maxStatementFileSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds 20 MB"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			abortWithError(c, err)
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			abortWithError(c, err)
			return
		}

		input := models.NewStatementImport{
			FileName: fileHeader.Filename,
			FileData: data,
			Source:   models.StatementSourceType(c.PostForm("source")),
		}
		if v := c.PostForm("customer_id"); v != "" {
			input.CustomerId, _ = strconv.Atoi(v)
		}
		if v := c.PostForm("bank_account_id"); v != "" {
			input.BankAccountId, _ = strconv.Atoi(v)
		}

		batch, err := models.CreateStatementImport(ctx, &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, batch)
	}
}

func importParseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		importId, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid import id"})
			return
		}
		ctx, span := tracer.Start(ctx, "parse-statement-import")
		defer span.End()
		batch, err := models.ProcessStatementImport(ctx, importId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"import_status": batch.ImportStatus,
			"parsed_rows":   batch.ParsedRows,
			"log_count":     len(batch.Logs),
		})
	}
}

func importCommitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		importId, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid import id"})
			return
		}
		created, skipped, err := models.CommitStatementImport(ctx, importId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"created": created, "skipped": skipped})
	}
}

func importGetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := requireBusiness(c)
		if !ok {
			return
		}
		importId, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid import id"})
			return
		}
		batch, err := models.GetStatementImport(ctx, importId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, batch)
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the platform considers the revision
	// healthy. Until DB/Redis are ready, app endpoints return 503.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production require an explicit allowlist; allow all elsewhere.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/auth/login", loginHandler())

	r.POST("/reconciliation/reconcile", reconcileHandler())
	r.POST("/reconciliation/reconcile/bulk", reconcileBulkHandler())
	r.POST("/reconciliation/unreconcile", unreconcileHandler())
	r.POST("/reconciliation/internal-transfer", internalTransferHandler())
	r.POST("/reconciliation/internal-transfer/bulk", internalTransferBulkHandler())
	r.POST("/reconciliation/bank-entry", bankEntryHandler())
	r.POST("/reconciliation/bank-entry/bulk", bankEntryBulkHandler())
	r.POST("/reconciliation/payment-entry/bulk", paymentBulkHandler())
	r.POST("/reconciliation/clearance-date/clear", clearClearanceDateHandler())
	r.GET("/reconciliation/candidates", candidatesHandler())
	r.GET("/reconciliation/mirror", mirrorHandler())

	r.GET("/statement-entries", statementEntriesHandler())
	r.GET("/parties/:id", partyDetailsHandler())

	r.POST("/imports", importUploadHandler())
	r.POST("/imports/:id/parse", importParseHandler())
	r.POST("/imports/:id/commit", importCommitHandler())
	r.GET("/imports/:id", importGetHandler())

	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running migrations as
	// a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.MigrateTable(); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Panic(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Row locks in the reconcile path assume READ COMMITTED.
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger logs only requests that collected errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
