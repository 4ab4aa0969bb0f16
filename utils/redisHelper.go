package utils

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/algocode/truebalance_backend/config"
	"github.com/bsm/redislock"
)

var mutex sync.Mutex

func GetTypeName[T any]() string {
	var model T
	t := reflect.TypeOf(model)
	if t == nil {
		t = reflect.TypeOf(&model).Elem()
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// next document sequence number for T within the business,
// redis INCR backed by a max(sequence_no) db fallback
func GetSequence[T any](ctx context.Context, businessId string) (int64, error) {
	var model T
	mutex.Lock()
	defer mutex.Unlock()
	cacheKey := businessId + "-" + strings.ToLower(GetTypeName[T]()) + "_seq"
	var seqNo int64
	var err error
	db := config.GetDB()

	for {
		seqNo, err = config.GetRedisCounter(ctx, cacheKey)
		if err != nil {
			return 0, err
		}
		// if not found in redis, get from db
		if seqNo <= 1 {
			// get max seq no from db
			var dbSeq *int64
			if err := db.WithContext(ctx).Model(&model).Select("max(sequence_no)").
				Where("business_id = ?", businessId).
				Scan(&dbSeq).Error; err != nil {
				return 0, err
			}
			if dbSeq == nil {
				seqNo = 0
			} else {
				seqNo = *dbSeq
			}
			seqNo++
			if err := config.SetRedisObject(cacheKey, &seqNo, 0); err != nil {
				return 0, err
			}
		}
		// check if sequence number exists in db
		err = ValidateUnique[T](ctx, businessId, "sequence_no", seqNo, 0)
		if err == nil {
			break
		}
	}
	return seqNo, nil
}

// AcquireBusinessLock obtains a short-lived redis lock scoped to the business.
// The returned release func must be called (usually deferred) when the guarded
// section ends. Redis lock is a best-effort optimization; correctness must not
// depend on it (db-level uniqueness and row locking stay authoritative).
func AcquireBusinessLock(ctx context.Context, businessId string, lockType string, key string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lockKey := fmt.Sprintf("%s:%s:%s", lockType, businessId, key)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, "utils", "AcquireBusinessLock", "lock not obtained", lockKey, err)
		return nil, errors.New("operation already in progress")
	} else if err != nil {
		config.LogError(logger, "utils", "AcquireBusinessLock", "lock error", lockKey, err)
		return nil, err
	}
	return func() { _ = lock.Release(ctx) }, nil
}
