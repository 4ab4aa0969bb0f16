package utils

import (
	"context"
	"errors"

	"github.com/algocode/truebalance_backend/config"
)

// check if id exists, using ctx's business_id in WHERE, return RecordNotFound Error
func ValidateResourceId[T any](ctx context.Context, businessId string, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, businessId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

func ResourceCountWhere[T any](ctx context.Context, businessId string, cond string, values ...interface{}) (int64, error) {
	db := config.GetDB()
	var model T
	var count int64
	dbCtx := db.WithContext(ctx).Model(&model).Where("business_id = ?", businessId)
	if err := dbCtx.Where(cond, values...).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// check if the field value is unique within the business, excluding excludeId
func ValidateUnique[T any](ctx context.Context, businessId string, field string, value interface{}, excludeId int) error {
	count, err := ResourceCountWhere[T](ctx, businessId, field+" = ? AND id != ?", value, excludeId)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New(field + " already exists")
	}
	return nil
}
