package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"squadlink_server/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

const (
	// queueStateKey is the durable KV key holding the serialized operation table.
	queueStateKey = "squadlink:retry_queue:state"
	// maxOperationsPerTick bounds how many eligible operations one scheduling
	// tick may attempt.
	maxOperationsPerTick = 5
	// jitterFraction is the upper bound of the random slice added to each
	// backoff delay, to avoid synchronized retry storms.
	jitterFraction = 0.3

	completedRetention = 60 * time.Second
	failedRetention    = 24 * time.Hour
)

// KVStore is the durable local key-value storage the queue persists into.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error) // returns "" when absent
	Set(ctx context.Context, key, value string) error
}

// RedisKVStore backs KVStore with a Redis client.
type RedisKVStore struct {
	Client *redis.Client
}

func (r *RedisKVStore) Get(ctx context.Context, key string) (string, error) {
	value, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return value, err
}

func (r *RedisKVStore) Set(ctx context.Context, key, value string) error {
	return r.Client.Set(ctx, key, value, 0).Err()
}

// RetryExecutor applies one operation type against its backing store. It must
// be idempotent: a crashed tick may replay an already-applied write.
type RetryExecutor func(ctx context.Context, op *models.RetryOperation) error

// RetryQueueService is the resilient operation queue: a priority-ordered,
// exponential-backoff retry table for writes that may transiently fail. The
// table is guarded by a mutex and serialized to the KV store after every
// mutation so queued work survives a restart. Executor errors are swallowed
// into rescheduling and never reach the original caller.
type RetryQueueService struct {
	KV    KVStore
	Clock clockwork.Clock

	mu         sync.Mutex
	processing bool
	operations map[string]*models.RetryOperation
	executors  map[string]RetryExecutor
}

// NewRetryQueueService builds an empty queue. Call Load before starting the
// tick to restore persisted operations.
func NewRetryQueueService(kv KVStore, clock clockwork.Clock) *RetryQueueService {
	return &RetryQueueService{
		KV:         kv,
		Clock:      clock,
		operations: make(map[string]*models.RetryOperation),
		executors:  make(map[string]RetryExecutor),
	}
}

// RegisterExecutor wires the apply routine for one operation type.
func (s *RetryQueueService) RegisterExecutor(opType string, exec RetryExecutor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executors[opType] = exec
}

// Load restores the operation table from durable storage.
func (s *RetryQueueService) Load(ctx context.Context) error {
	raw, err := s.KV.Get(ctx, queueStateKey)
	if err != nil {
		return fmt.Errorf("failed to load retry queue state: %w", err)
	}
	if raw == "" {
		return nil
	}

	var ops []*models.RetryOperation
	if err := json.Unmarshal([]byte(raw), &ops); err != nil {
		return fmt.Errorf("failed to decode retry queue state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		s.operations[op.ID] = op
	}
	log.Printf("✅ Restored %d queued operations from storage", len(ops))
	return nil
}

// Enqueue records a failed write for eventual delivery and returns its
// operation id.
func (s *RetryQueueService) Enqueue(ctx context.Context, opType string, payload json.RawMessage, ownerID, priority string) (string, error) {
	policy, ok := models.RetryPolicies[opType]
	if !ok {
		return "", fmt.Errorf("%w: unknown operation type %q", ErrInvalidInput, opType)
	}
	if _, ok := models.PriorityRank[priority]; !ok {
		priority = models.PriorityMedium
	}

	now := s.Clock.Now()
	op := &models.RetryOperation{
		ID:          uuid.NewString(),
		Type:        opType,
		Payload:     payload,
		OwnerID:     ownerID,
		MaxAttempts: policy.MaxAttempts,
		NextRetry:   now,
		Priority:    priority,
		Status:      models.OpStatusPending,
	}

	s.mu.Lock()
	s.operations[op.ID] = op
	s.persistLocked(ctx)
	s.mu.Unlock()

	log.Printf("📥 Queued %s operation %s for %s (priority %s)", opType, op.ID, ownerID, priority)
	return op.ID, nil
}

// ProcessQueue runs one scheduling tick: pick up to maxOperationsPerTick
// eligible operations ordered by priority then earliest nextRetry, attempt
// each, and reschedule or finalize. A non-reentrant flag keeps overlapping
// ticks from processing concurrently.
func (s *RetryQueueService) ProcessQueue(ctx context.Context) {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return
	}
	s.processing = true

	now := s.Clock.Now()
	var batch []*models.RetryOperation
	for _, op := range s.operations {
		if op.Status != models.OpStatusPending && op.Status != models.OpStatusRetrying {
			continue
		}
		if op.Attempts >= op.MaxAttempts || now.Before(op.NextRetry) {
			continue
		}
		batch = append(batch, op)
	}
	sort.Slice(batch, func(i, j int) bool {
		if batch[i].Priority != batch[j].Priority {
			return models.PriorityRank[batch[i].Priority] < models.PriorityRank[batch[j].Priority]
		}
		return batch[i].NextRetry.Before(batch[j].NextRetry)
	})
	if len(batch) > maxOperationsPerTick {
		batch = batch[:maxOperationsPerTick]
	}

	for _, op := range batch {
		op.Attempts++
		op.LastAttempt = now
		op.Status = models.OpStatusRetrying
	}
	s.mu.Unlock()

	// Execute outside the lock; store calls can block.
	outcomes := make(map[string]error, len(batch))
	for _, op := range batch {
		outcomes[op.ID] = s.execute(ctx, op)
	}

	s.mu.Lock()
	for _, op := range batch {
		err := outcomes[op.ID]
		if err == nil {
			op.Status = models.OpStatusCompleted
			op.FinishedAt = now
			log.Printf("✅ Operation %s (%s) delivered after %d attempt(s)", op.ID, op.Type, op.Attempts)
			continue
		}

		if op.Attempts >= op.MaxAttempts {
			op.Status = models.OpStatusFailed
			op.FinishedAt = now
			log.Printf("❌ Operation %s (%s) failed permanently after %d attempts: %v", op.ID, op.Type, op.Attempts, err)
			continue
		}

		op.NextRetry = now.Add(s.backoffDelay(op))
		log.Printf("🔄 Operation %s (%s) attempt %d/%d failed, next retry at %s: %v",
			op.ID, op.Type, op.Attempts, op.MaxAttempts, op.NextRetry.Format(time.RFC3339), err)
	}
	if len(batch) > 0 {
		s.persistLocked(ctx)
	}
	s.processing = false
	s.mu.Unlock()
}

// CleanupExpired prunes terminal operations past their retention window.
func (s *RetryQueueService) CleanupExpired(ctx context.Context) {
	now := s.Clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, op := range s.operations {
		var retention time.Duration
		switch op.Status {
		case models.OpStatusCompleted:
			retention = completedRetention
		case models.OpStatusFailed:
			retention = failedRetention
		default:
			continue
		}
		if now.Sub(op.FinishedAt) > retention {
			delete(s.operations, id)
			removed++
		}
	}
	if removed > 0 {
		s.persistLocked(ctx)
		log.Printf("🧹 Pruned %d finished operations", removed)
	}
}

// Stats returns the queue counters snapshot.
func (s *RetryQueueService) Stats() models.QueueStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.QueueStats{Total: len(s.operations)}
	for _, op := range s.operations {
		switch op.Status {
		case models.OpStatusPending:
			stats.Pending++
		case models.OpStatusRetrying:
			stats.Retrying++
		case models.OpStatusCompleted:
			stats.Completed++
		case models.OpStatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// GetOperation returns a copy of one operation, for retryId correlation.
func (s *RetryQueueService) GetOperation(id string) (models.RetryOperation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.operations[id]
	if !ok {
		return models.RetryOperation{}, false
	}
	return *op, true
}

func (s *RetryQueueService) execute(ctx context.Context, op *models.RetryOperation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()

	s.mu.Lock()
	exec, ok := s.executors[op.Type]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no executor registered for type %q", op.Type)
	}
	return exec(ctx, op)
}

// backoffDelay computes min(base × multiplier^attempts, maxDelay) plus 0-30%
// jitter.
func (s *RetryQueueService) backoffDelay(op *models.RetryOperation) time.Duration {
	policy := models.RetryPolicies[op.Type]
	delay := time.Duration(float64(policy.BaseDelay) * math.Pow(policy.Multiplier, float64(op.Attempts)))
	if delay > policy.MaxDelay {
		delay = policy.MaxDelay
	}
	jitter := time.Duration(rand.Float64() * jitterFraction * float64(delay))
	return delay + jitter
}

// persistLocked serializes the full operation table to durable storage.
// Callers must hold s.mu. Persistence failures are logged, not propagated: the
// in-memory table stays authoritative until the next successful write.
func (s *RetryQueueService) persistLocked(ctx context.Context) {
	ops := make([]*models.RetryOperation, 0, len(s.operations))
	for _, op := range s.operations {
		ops = append(ops, op)
	}
	raw, err := json.Marshal(ops)
	if err != nil {
		log.Printf("❌ Failed to serialize retry queue state: %v", err)
		return
	}
	if err := s.KV.Set(ctx, queueStateKey, string(raw)); err != nil {
		log.Printf("❌ Failed to persist retry queue state: %v", err)
	}
}
