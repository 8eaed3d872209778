package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Folder states recorded by batch runs.
const (
	StateRunning = "running"
	StateDone    = "done"
	StateFailed  = "failed"
)

// FolderStatus is the last known outcome of repaginating one folder.
type FolderStatus struct {
	State    string            `json:"state"`
	Pages    int               `json:"pages"`
	Message  string            `json:"message"`
	Start    *time.Time        `json:"start_time,omitempty"`
	End      *time.Time        `json:"end_time,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type RedisStatus struct {
	client *redis.Client
	keyNS  string
}

func NewRedisStatus(redisURL string) (*RedisStatus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStatus{client: c, keyNS: "repage:folder"}, nil
}

func (s *RedisStatus) key(folder string) string { return fmt.Sprintf("%s:%s:status", s.keyNS, folder) }

func (s *RedisStatus) Set(ctx context.Context, folder string, st FolderStatus) error {
	m := map[string]interface{}{
		"state":   st.State,
		"pages":   st.Pages,
		"message": st.Message,
	}
	if st.Start != nil {
		m["start"] = st.Start.Format(time.RFC3339Nano)
	}
	if st.End != nil {
		m["end"] = st.End.Format(time.RFC3339Nano)
	}
	if st.Metadata != nil {
		b, _ := json.Marshal(st.Metadata)
		m["metadata"] = string(b)
	}
	return s.client.HSet(ctx, s.key(folder), m).Err()
}

func (s *RedisStatus) Get(ctx context.Context, folder string) (FolderStatus, bool, error) {
	res, err := s.client.HGetAll(ctx, s.key(folder)).Result()
	if err != nil {
		return FolderStatus{}, false, err
	}
	if len(res) == 0 {
		return FolderStatus{}, false, nil
	}
	st := FolderStatus{State: res["state"], Message: res["message"]}
	if p, err := strconv.Atoi(res["pages"]); err == nil {
		st.Pages = p
	}
	if v := res["start"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.Start = &t
		}
	}
	if v := res["end"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.End = &t
		}
	}
	if v := res["metadata"]; v != "" {
		_ = json.Unmarshal([]byte(v), &st.Metadata)
	}
	return st, true, nil
}

// Forget drops the recorded status of folder so the next resume run redoes it.
func (s *RedisStatus) Forget(ctx context.Context, folder string) error {
	return s.client.Del(ctx, s.key(folder)).Err()
}

// Ping checks the connection.
func (s *RedisStatus) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStatus) Close() error { return s.client.Close() }
