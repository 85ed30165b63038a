package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gatekeepr/src/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store holds pending verification records keyed by user identity. Put
// replaces any existing record for the same user; one active code per user is
// a structural invariant, not an enforced check.
type Store interface {
	Put(ctx context.Context, rec *models.PendingVerification) error
	Get(ctx context.Context, userID uuid.UUID) (*models.PendingVerification, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

type RedisStore struct {
	rd *redis.Client
}

func NewRedisStore(rd *redis.Client) *RedisStore {
	return &RedisStore{rd: rd}
}

func otpKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:otp", userID)
}

func (s *RedisStore) Put(ctx context.Context, rec *models.PendingVerification) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	// The key outlives the code itself so Verify can still observe and report
	// an expired record before redis garbage-collects it.
	retain := time.Until(rec.ExpiresAt) + rec.ExpiresAt.Sub(rec.IssuedAt)
	return s.rd.SetEx(ctx, otpKey(rec.UserID), string(b), retain).Err()
}

func (s *RedisStore) Get(ctx context.Context, userID uuid.UUID) (*models.PendingVerification, error) {
	val, err := s.rd.Get(ctx, otpKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var rec models.PendingVerification
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.rd.Del(ctx, otpKey(userID)).Err()
}

// Sweep drops records whose codes expired, so abandoned sign-ups do not
// linger for the full retention window. Run periodically from the scheduler.
func (s *RedisStore) Sweep(ctx context.Context) {
	var cursor uint64
	now := time.Now()
	for {
		keys, next, err := s.rd.Scan(ctx, cursor, "*:otp", 100).Result()
		if err != nil {
			log.Printf("[otp] sweep scan error: %s\n", err.Error())
			return
		}
		for _, key := range keys {
			val, err := s.rd.Get(ctx, key).Result()
			if err != nil {
				continue
			}
			var rec models.PendingVerification
			if err := json.Unmarshal([]byte(val), &rec); err != nil {
				continue
			}
			if rec.Expired(now) {
				s.rd.Del(ctx, key)
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// MemoryStore is an in-process Store for tests and local runs without redis.
type MemoryStore struct {
	mu   sync.Mutex
	recs map[uuid.UUID]models.PendingVerification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[uuid.UUID]models.PendingVerification)}
}

func (s *MemoryStore) Put(ctx context.Context, rec *models.PendingVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.UserID] = *rec
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, userID uuid.UUID) (*models.PendingVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, userID)
	return nil
}
