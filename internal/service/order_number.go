package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agrimart/ordercore/internal/cache"
	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/metrics"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	defaultOrderNumberPrefix = "ORD"
	orderCounterTTL          = 48 * time.Hour
)

// incrIfPresentScript returns -1 when the day key is missing so the caller can seed it
var incrIfPresentScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
return redis.call("INCR", KEYS[1])
`)

// seedAndIncrScript seeds a missing key with the persisted maximum, then increments
var seedAndIncrScript = redis.NewScript(`
redis.call("SET", KEYS[1], ARGV[2], "NX", "EX", ARGV[1])
return redis.call("INCR", KEYS[1])
`)

// OrderNumberAllocator issues ORD-YYYYMMDD-NNNN numbers from an atomic per-day counter
type OrderNumberAllocator struct {
	orderRepo repository.OrderRepository
	seqRepo   repository.OrderSequenceRepository
	prefix    string
	location  *time.Location
}

// NewOrderNumberAllocator creates the allocator; the day boundary follows the configured UTC offset
func NewOrderNumberAllocator(orderRepo repository.OrderRepository, seqRepo repository.OrderSequenceRepository, prefix string, tzOffsetMinutes int) *OrderNumberAllocator {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultOrderNumberPrefix
	}
	return &OrderNumberAllocator{
		orderRepo: orderRepo,
		seqRepo:   seqRepo,
		prefix:    prefix,
		location:  time.FixedZone("order", tzOffsetMinutes*60),
	}
}

// Day returns the counter day of t
func (a *OrderNumberAllocator) Day(t time.Time) string {
	return t.In(a.location).Format("20060102")
}

// FormatOrderNumber renders a counter value
func FormatOrderNumber(prefix, day string, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day, seq)
}

// Allocate returns a candidate number. Redis is tried first, then the database counter;
// the timestamp form is the degraded path. Callers must still check the number inside
// their transaction with OrderNumberExists.
func (a *OrderNumberAllocator) Allocate(ctx context.Context, now time.Time) string {
	day := a.Day(now)

	if cache.Enabled() {
		seq, err := a.nextFromRedis(ctx, day)
		if err == nil {
			metrics.OrderNumberSource.WithLabelValues("redis").Inc()
			return FormatOrderNumber(a.prefix, day, seq)
		}
		logger.Warnw("order_number_redis_failed", "day", day, "error", err)
	}

	var seq int64
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		seq, err = a.seqRepo.WithTx(tx).Next(day)
		return err
	})
	if err == nil && seq > 0 {
		metrics.OrderNumberSource.WithLabelValues("database").Inc()
		return FormatOrderNumber(a.prefix, day, seq)
	}
	logger.Errorw("order_number_counter_failed", "day", day, "error", err)

	metrics.OrderNumberSource.WithLabelValues("fallback").Inc()
	return a.fallback(day, now)
}

// Resync moves both counters past every stored number of the day after a collision
func (a *OrderNumberAllocator) Resync(ctx context.Context, day string) {
	maxSeq, err := a.orderRepo.MaxDailySequence(a.prefix, day)
	if err != nil {
		logger.Warnw("order_number_resync_failed", "day", day, "error", err)
		return
	}
	if err := a.seqRepo.AdvanceTo(day, maxSeq); err != nil {
		logger.Warnw("order_number_resync_failed", "day", day, "error", err)
	}
	if cache.Enabled() {
		if err := cache.Del(ctx, a.counterKey(day)); err != nil {
			logger.Warnw("order_number_redis_reset_failed", "day", day, "error", err)
		}
	}
}

func (a *OrderNumberAllocator) nextFromRedis(ctx context.Context, day string) (int64, error) {
	client := cache.Client()
	key := cache.Key(a.counterKey(day))
	seq, err := incrIfPresentScript.Run(ctx, client, []string{key}).Int64()
	if err != nil {
		return 0, err
	}
	if seq > 0 {
		return seq, nil
	}
	seed, err := a.orderRepo.MaxDailySequence(a.prefix, day)
	if err != nil {
		return 0, err
	}
	if current, err := a.seqRepo.Current(day); err == nil && current > seed {
		seed = current
	}
	return seedAndIncrScript.Run(ctx, client, []string{key}, int64(orderCounterTTL/time.Second), seed).Int64()
}

func (a *OrderNumberAllocator) counterKey(day string) string {
	return "order_seq:" + day
}

func (a *OrderNumberAllocator) fallback(day string, now time.Time) string {
	entropy := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("%s-%s-T%s%s", a.prefix, day, now.In(a.location).Format("150405"), entropy)
}
