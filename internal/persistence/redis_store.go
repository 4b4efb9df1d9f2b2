package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/jlaakso/deskflow/pkg/api"
)

// RedisStore implements SessionStore and LogStore on Redis.
// It uses a simple key structure:
//
//	<prefix>sess:<id>            => JSON-encoded session progress
//	<prefix>idx:all              => SET of all session IDs
//	<prefix>idx:status:<status>  => SET of session IDs for a given status
//	<prefix>log:<id>             => LIST of JSON-encoded execution log entries
//
// The status indexes are best-effort; they are always updated on
// Save/Update, and ListSessions uses them for filtering. Log entries use
// RPUSH, which preserves the append-only ordering guarantee.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// Ensure RedisStore implements the interfaces.
var _ SessionStore = (*RedisStore)(nil)

var _ LogStore = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore.
// prefix is optional but recommended (e.g. "deskflow:").
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "deskflow:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) keySession(id string) string {
	return s.prefix + "sess:" + id
}

func (s *RedisStore) keyAll() string {
	return s.prefix + "idx:all"
}

func (s *RedisStore) keyStatus(status api.SessionStatus) string {
	return s.prefix + "idx:status:" + string(status)
}

func (s *RedisStore) keyLog(id string) string {
	return s.prefix + "log:" + id
}

func (s *RedisStore) SaveSession(prog api.Progress) error {
	return s.writeSession(context.Background(), prog, "")
}

func (s *RedisStore) UpdateSession(prog api.Progress) error {
	ctx := context.Background()

	prev, err := s.GetSession(prog.SessionID)
	if err != nil {
		return err
	}
	return s.writeSession(ctx, prog, prev.Status)
}

func (s *RedisStore) writeSession(ctx context.Context, prog api.Progress, prevStatus api.SessionStatus) error {
	payload, err := json.Marshal(prog)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keySession(prog.SessionID), payload, 0)
	pipe.SAdd(ctx, s.keyAll(), prog.SessionID)
	if prevStatus != "" && prevStatus != prog.Status {
		pipe.SRem(ctx, s.keyStatus(prevStatus), prog.SessionID)
	}
	pipe.SAdd(ctx, s.keyStatus(prog.Status), prog.SessionID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) GetSession(id string) (api.Progress, error) {
	ctx := context.Background()

	payload, err := s.client.Get(ctx, s.keySession(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return api.Progress{}, ErrSessionNotFound
		}
		return api.Progress{}, err
	}

	var prog api.Progress
	if err := json.Unmarshal(payload, &prog); err != nil {
		return api.Progress{}, err
	}
	return prog, nil
}

func (s *RedisStore) ListSessions(filter SessionFilter) ([]api.Progress, error) {
	ctx := context.Background()

	key := s.keyAll()
	if filter.Status != "" {
		key = s.keyStatus(filter.Status)
	}

	ids, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var sessions []api.Progress
	for _, id := range ids {
		prog, err := s.GetSession(id)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				// Stale index entry; skip.
				continue
			}
			return nil, err
		}
		// Filter double-check: the status index can lag behind the record.
		if filter.Status != "" && prog.Status != filter.Status {
			continue
		}
		sessions = append(sessions, prog)
	}
	return sessions, nil
}

func (s *RedisStore) AppendEntry(ctx context.Context, entry api.ExecutionLogEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, s.keyLog(entry.SessionID), payload).Err()
}

func (s *RedisStore) ListEntries(ctx context.Context, sessionID string) ([]api.ExecutionLogEntry, error) {
	payloads, err := s.client.LRange(ctx, s.keyLog(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var out []api.ExecutionLogEntry
	for _, payload := range payloads {
		var entry api.ExecutionLogEntry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}
