package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore serializes booking creation per vehicle. The availability check
// and the booking insert are not covered by one database transaction, so two
// concurrent creations for the same hour could both pass validation; holding
// a short TTL-bounded lock for the duration of check+insert closes that
// window across processes.
type LockStore struct {
	client *redis.Client
}

func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireVehicleLock attempts to take the creation lock for a vehicle.
// Returns false when another request currently holds it.
func (s *LockStore) AcquireVehicleLock(ctx context.Context, vehicleID int64, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:vehicle:%d", vehicleID)
	return s.client.SetNX(ctx, key, "1", ttl).Result()
}

// ReleaseVehicleLock releases the creation lock. The TTL is the safety net
// should a release be lost.
func (s *LockStore) ReleaseVehicleLock(ctx context.Context, vehicleID int64) error {
	key := fmt.Sprintf("lock:vehicle:%d", vehicleID)
	return s.client.Del(ctx, key).Err()
}
