package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrSlotHeld is returned when another client already holds the slot.
var ErrSlotHeld = errors.New("slot is held by another client")

// acquireHoldScript acquires or re-enters a slot hold atomically.
// Redis Go client automatically uses EVALSHA (send SHA hash only) after the
// first call, instead of EVAL (send full script text every time).
//
// Logic:
// 1. If the key is absent → SET it to the holder with TTL, return 1
// 2. If the key holds the same holder → refresh TTL, return 1 (re-entrant)
// 3. Otherwise → return 0 (someone else holds it)
var acquireHoldScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[1])
	if current == false then
		redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
		return 1
	end
	if current == ARGV[1] then
		redis.call('PEXPIRE', KEYS[1], ARGV[2])
		return 1
	end
	return 0
`)

// releaseHoldScript deletes the hold only if it still belongs to the holder,
// so an expired-and-reacquired hold is never released by the old owner.
var releaseHoldScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

const (
	RedisHoldKeyPrefix  = "slot:hold:"
	RedisEventKeyPrefix = "payment:event:"

	// Default lifetime of a checkout hold. DB state is authoritative; holds
	// only shrink the double-booking race window during checkout.
	defaultHoldTTL = 5 * time.Minute

	// Processed-event markers outlive any plausible webhook retry schedule.
	eventMarkerTTL = 72 * time.Hour

	// Interval for cleaning up stale mutexes
	mutexCleanupInterval = 10 * time.Minute

	// How long a mutex must be unused before cleanup
	mutexStaleThreshold = 10 * time.Minute
)

// SlotHoldService keeps short-lived Redis holds on provider time slots while
// a client is mid-checkout, and records processed payment event IDs so
// webhook retries are idempotent.
//
// Redis here is advisory: losing a hold never corrupts bookings, it only
// widens the race window that the DB-level conflict check then closes.
type SlotHoldService struct {
	redisClient *redis.Client
	log         *logrus.Logger
	holdTTL     time.Duration

	// Per-slot mutex for concurrent safety within this process
	slotMu sync.Map // map[string]*mutexWithTimestamp

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// mutexWithTimestamp tracks mutex usage for cleanup
type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix timestamp
}

// NewSlotHoldService creates a new SlotHoldService.
// Starts background goroutine for mutex cleanup.
// Call Stop() during graceful shutdown.
func NewSlotHoldService(redisClient *redis.Client, log *logrus.Logger, holdTTL time.Duration) *SlotHoldService {
	if holdTTL <= 0 {
		holdTTL = defaultHoldTTL
	}

	svc := &SlotHoldService{
		redisClient: redisClient,
		log:         log,
		holdTTL:     holdTTL,
		stopChan:    make(chan struct{}),
	}

	svc.wg.Add(1)
	go svc.cleanupMutexMapLoop()

	return svc
}

// Stop gracefully shuts down the service.
// Safe to call multiple times.
func (s *SlotHoldService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("SlotHoldService stopped")
	}
}

// AcquireHold reserves the provider's slot for the given client while they
// complete checkout. Re-entrant for the same client (refreshes the TTL).
// Returns ErrSlotHeld when another client holds the slot.
func (s *SlotHoldService) AcquireHold(ctx context.Context, providerID uuid.UUID, startAt time.Time, clientID uuid.UUID) error {
	key := s.holdKey(providerID, startAt)

	mt := s.getSlotMutex(key)
	mt.mu.Lock()
	defer mt.mu.Unlock()

	result, err := acquireHoldScript.Run(ctx, s.redisClient,
		[]string{key}, clientID.String(), s.holdTTL.Milliseconds()).Int()
	if err != nil {
		s.log.Warnf("Failed Lua script AcquireHold for %s: %+v", key, err)
		return fmt.Errorf("acquire hold %s: %w", key, err)
	}

	if result == 0 {
		return ErrSlotHeld
	}

	s.log.Debugf("Acquired hold %s for client %s (TTL=%v)", key, clientID, s.holdTTL)
	return nil
}

// ReleaseHold drops the client's hold on the slot. Releasing a hold that
// expired or belongs to someone else is a no-op.
func (s *SlotHoldService) ReleaseHold(ctx context.Context, providerID uuid.UUID, startAt time.Time, clientID uuid.UUID) error {
	key := s.holdKey(providerID, startAt)

	mt := s.getSlotMutex(key)
	mt.mu.Lock()
	defer func() {
		mt.mu.Unlock()
		s.slotMu.Delete(key)
	}()

	if err := releaseHoldScript.Run(ctx, s.redisClient, []string{key}, clientID.String()).Err(); err != nil {
		s.log.Warnf("Failed to release hold %s: %+v", key, err)
		return fmt.Errorf("release hold %s: %w", key, err)
	}

	s.log.Debugf("Released hold %s for client %s", key, clientID)
	return nil
}

// HeldByOther reports whether the slot currently carries a hold that does not
// belong to the given client. Used by the availability calculator to hide
// slots mid-checkout.
func (s *SlotHoldService) HeldByOther(ctx context.Context, providerID uuid.UUID, startAt time.Time, clientID uuid.UUID) (bool, error) {
	key := s.holdKey(providerID, startAt)

	holder, err := s.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get hold %s: %w", key, err)
	}
	return holder != clientID.String(), nil
}

// EventProcessed reports whether the payment event ID has already been
// claimed, without claiming it.
func (s *SlotHoldService) EventProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := s.redisClient.Exists(ctx, RedisEventKeyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("check event %s: %w", eventID, err)
	}
	return n > 0, nil
}

// MarkEventProcessed records a payment event ID the first time it is seen.
// Returns true when this call claimed the event, false when a prior delivery
// already processed it. SET NX makes the claim atomic across instances.
func (s *SlotHoldService) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	key := RedisEventKeyPrefix + eventID

	claimed, err := s.redisClient.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), eventMarkerTTL).Result()
	if err != nil {
		s.log.Warnf("Failed to mark event %s processed: %+v", eventID, err)
		return false, fmt.Errorf("mark event %s: %w", eventID, err)
	}

	if !claimed {
		s.log.Debugf("Payment event %s already processed, skipping", eventID)
	}
	return claimed, nil
}

func (s *SlotHoldService) holdKey(providerID uuid.UUID, startAt time.Time) string {
	return fmt.Sprintf("%s%s:%d", RedisHoldKeyPrefix, providerID, startAt.UTC().Unix())
}

// getSlotMutex returns mutex for a specific hold key
func (s *SlotHoldService) getSlotMutex(key string) *mutexWithTimestamp {
	mt, _ := s.slotMu.LoadOrStore(key, &mutexWithTimestamp{})
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

// cleanupMutexMapLoop runs in background to clean stale mutexes
func (s *SlotHoldService) cleanupMutexMapLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			s.log.Debug("Mutex cleanup goroutine stopping")
			return
		case <-ticker.C:
			s.cleanupStaleMutexes()
		}
	}
}

// cleanupStaleMutexes removes unused mutexes using TryLock for safety
func (s *SlotHoldService) cleanupStaleMutexes() {
	cutoffTime := time.Now().Add(-mutexStaleThreshold).Unix()
	var cleaned int

	s.slotMu.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}

		// TryLock first - if we can't get lock, someone is using it
		if mt.mu.TryLock() {
			if mt.lastUsed.Load() < cutoffTime {
				s.slotMu.Delete(key)
				cleaned++
			}
			mt.mu.Unlock()
		}
		return true
	})

	if cleaned > 0 {
		s.log.Debugf("Cleaned up %d stale mutexes", cleaned)
	}
}
