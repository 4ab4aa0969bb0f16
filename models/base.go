package models

import (
	"context"
	"errors"

	"github.com/algocode/truebalance_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// forUpdateLock row-locks the fetched record for the rest of the transaction.
var forUpdateLock = clause.Locking{Strength: "UPDATE"}

// allocationEpsilon is the tolerance below which a residual amount counts as
// fully settled (0.01 of the currency unit).
var allocationEpsilon = decimal.NewFromFloat(0.01)

func businessIdFromContext(ctx context.Context) (string, bool) {
	return utils.GetBusinessIdFromContext(ctx)
}

func requireBusinessId(ctx context.Context) (string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return "", errors.New("business id is required")
	}
	return businessId, nil
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func userNameFromContext(ctx context.Context) string {
	if v, ok := utils.GetUserNameFromContext(ctx); ok {
		return v
	}
	return ""
}
