package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// MemoryJobStore keeps jobs in memory. Suitable for tests and single-node
// deployments where restart durability is not required.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

// NewMemoryJobStore creates a new in-memory job store instance
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]Job)}
}

func (s *MemoryJobStore) SaveJob(_ context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = job
	return nil
}

func (s *MemoryJobStore) ListJobs(_ context.Context, status JobStatus) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0)
	for _, job := range s.jobs {
		if job.Status == status {
			jobs = append(jobs, job)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].EnqueuedAt.Before(jobs[j].EnqueuedAt) })
	return jobs, nil
}

const redisJobKeyPrefix = "mail:job:"

// RedisJobStore persists jobs in Redis so queued work survives a process
// restart.
type RedisJobStore struct {
	client *redis.Client
}

// NewRedisJobStore creates a new Redis-backed job store instance
func NewRedisJobStore(addr, password string, db int) *RedisJobStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisJobStore{client: client}
}

// Ping verifies connectivity.
func (s *RedisJobStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.JobID, err)
	}
	return s.client.Set(ctx, redisJobKeyPrefix+job.JobID, data, 0).Err()
}

func (s *RedisJobStore) ListJobs(ctx context.Context, status JobStatus) ([]Job, error) {
	keys, err := s.client.Keys(ctx, redisJobKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []Job{}, nil
	}

	// Fetch all values in a pipeline for efficiency
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(keys))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue // key expired between Keys and Get
		}
		var job Job
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job: %w", err)
		}
		if job.Status == status {
			jobs = append(jobs, job)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].EnqueuedAt.Before(jobs[j].EnqueuedAt) })
	return jobs, nil
}
