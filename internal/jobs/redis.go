package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"docintel/internal/entity"
)

// RedisStore keeps job state in Redis so that status polling survives restarts
// and works across replicas. Entries expire after the configured TTL.
type RedisStore struct {
	rdb       *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis addr is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(password),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	slog.Info("jobs.store.redis_enabled", "addr", addr, "db", db, "ttl", ttl.String())

	return &RedisStore{
		rdb:       rdb,
		keyPrefix: "docintel:job:",
		ttl:       ttl,
	}, nil
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + strings.TrimSpace(id)
}

func (s *RedisStore) Create(ctx context.Context, job *entity.Job) error {
	if job == nil || strings.TrimSpace(job.ID) == "" {
		return errors.New("job id is empty")
	}
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.rdb.SetNX(ctx, s.key(job.ID), b, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*entity.Job, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false, nil
	}
	val, err := s.rdb.Get(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var job entity.Job
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		return nil, false, err
	}
	return &job, true, nil
}

// Update applies fn under an optimistic WATCH transaction so concurrent
// per-file updates from processor goroutines don't clobber each other.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(j *entity.Job)) (*entity.Job, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false, nil
	}
	if fn == nil {
		return nil, false, errors.New("update fn is nil")
	}

	key := s.key(id)
	var out *entity.Job
	var found bool

	for i := 0; i < 8; i++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			val, err := tx.Get(ctx, key).Result()
			if errors.Is(err, redis.Nil) {
				found = false
				out = nil
				return nil
			}
			if err != nil {
				return err
			}
			var job entity.Job
			if err := json.Unmarshal([]byte(val), &job); err != nil {
				return err
			}
			fn(&job)
			b, err := json.Marshal(&job)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, b, s.ttl)
				return nil
			})
			if err == nil {
				found = true
				out = &job
			}
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return out, found, nil
	}
	return nil, false, errors.New("redis update contention: retries exhausted")
}
