package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gridrivals/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore is the production Store. Queue mutations run as Lua scripts so
// concurrent dequeues, enqueues and cancellations serialize inside Redis; a
// cancel that lands before a pop completes always wins.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func queueKey(gameType string) string {
	return "queue:" + gameType
}

func entryKey(gameType, userID string) string {
	return "queue:entry:" + gameType + ":" + userID
}

func sessionKey(roomID string) string {
	return "session:" + roomID
}

func userRoomKey(userID string) string {
	return "userroom:" + userID
}

func residencyKey(roomID string) string {
	return "residency:" + roomID
}

const reclaimDeadlineKey = "reclaim_deadlines"

// enqueueScript removes any prior entry for the user, then pushes the user
// to the head of the list (service order is the tail, via RPOP).
const enqueueScript = `
redis.call('LREM', KEYS[1], 0, ARGV[1])
redis.call('LPUSH', KEYS[1], ARGV[1])
redis.call('SET', KEYS[2], ARGV[2])
return 1`

func (r *RedisStore) Enqueue(ctx context.Context, gameType string, entry models.QueueEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return r.rdb.Eval(ctx, enqueueScript,
		[]string{queueKey(gameType), entryKey(gameType, entry.UserID)},
		entry.UserID, string(data)).Err()
}

func (r *RedisStore) QueueLen(ctx context.Context, gameType string) (int, error) {
	n, err := r.rdb.LLen(ctx, queueKey(gameType)).Result()
	return int(n), err
}

// dequeueScript pops up to ARGV[1] users from the service end and returns
// their entry payloads, deleting each entry key as it goes. Entries whose
// payload vanished (expired mid-flight) are skipped, not returned.
const dequeueScript = `
local out = {}
local n = tonumber(ARGV[1])
local prefix = ARGV[2]
while n > 0 do
  local id = redis.call('RPOP', KEYS[1])
  if not id then break end
  local data = redis.call('GET', prefix .. id)
  if data then
    redis.call('DEL', prefix .. id)
    table.insert(out, data)
    n = n - 1
  end
end
return out`

func (r *RedisStore) DequeueUpTo(ctx context.Context, gameType string, n int) ([]models.QueueEntry, error) {
	res, err := r.rdb.Eval(ctx, dequeueScript,
		[]string{queueKey(gameType)},
		n, "queue:entry:"+gameType+":").Result()
	if err != nil {
		return nil, err
	}
	items, ok := res.([]interface{})
	if !ok {
		return nil, fmt.Errorf("store: unexpected dequeue result type %T", res)
	}
	entries := make([]models.QueueEntry, 0, len(items))
	for _, item := range items {
		raw, ok := item.(string)
		if !ok {
			continue
		}
		var e models.QueueEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("store: corrupt queue entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *RedisStore) Requeue(ctx context.Context, gameType string, entries []models.QueueEntry) error {
	// Restore in reverse so the first entry ends up closest to the
	// service end, preserving FIFO order.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		pipe := r.rdb.TxPipeline()
		pipe.RPush(ctx, queueKey(gameType), e.UserID)
		pipe.Set(ctx, entryKey(gameType, e.UserID), data, 0)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

const removeQueuedScript = `
local removed = redis.call('LREM', KEYS[1], 0, ARGV[1])
redis.call('DEL', KEYS[2])
return removed`

func (r *RedisStore) RemoveQueued(ctx context.Context, gameType, userID string) (bool, error) {
	removed, err := r.rdb.Eval(ctx, removeQueuedScript,
		[]string{queueKey(gameType), entryKey(gameType, userID)}, userID).Int()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

func (r *RedisStore) IsQueued(ctx context.Context, gameType, userID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, entryKey(gameType, userID)).Result()
	return n > 0, err
}

func (r *RedisStore) PutSession(ctx context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, sessionKey(s.RoomID), data, 0).Err()
}

func (r *RedisStore) GetSession(ctx context.Context, roomID string) (*models.Session, error) {
	data, err := r.rdb.Get(ctx, sessionKey(roomID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s models.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("store: corrupt session %s: %w", roomID, err)
	}
	return &s, nil
}

func (r *RedisStore) DeleteSession(ctx context.Context, roomID string) error {
	return r.rdb.Del(ctx, sessionKey(roomID)).Err()
}

func (r *RedisStore) SetUserRoom(ctx context.Context, userID, roomID string) error {
	return r.rdb.Set(ctx, userRoomKey(userID), roomID, 0).Err()
}

func (r *RedisStore) GetUserRoom(ctx context.Context, userID string) (string, error) {
	roomID, err := r.rdb.Get(ctx, userRoomKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return roomID, err
}

func (r *RedisStore) DeleteUserRoom(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, userRoomKey(userID)).Err()
}

// initResidencyScript creates the residency set exactly once and schedules
// the reclaim deadline in one step.
const initResidencyScript = `
if redis.call('EXISTS', KEYS[1]) == 1 then return 0 end
for i = 2, #ARGV do
  redis.call('SADD', KEYS[1], ARGV[i])
end
redis.call('ZADD', KEYS[2], ARGV[1], KEYS[1])
return 1`

func (r *RedisStore) InitResidency(ctx context.Context, roomID string, userIDs []string, deadline time.Time) (bool, error) {
	args := make([]interface{}, 0, len(userIDs)+1)
	args = append(args, deadline.UnixMilli())
	for _, id := range userIDs {
		args = append(args, id)
	}
	created, err := r.rdb.Eval(ctx, initResidencyScript,
		[]string{residencyKey(roomID), reclaimDeadlineKey}, args...).Int()
	if err != nil {
		return false, err
	}
	return created == 1, nil
}

const removeResidentScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
redis.call('SREM', KEYS[1], ARGV[1])
return redis.call('SCARD', KEYS[1])`

func (r *RedisStore) RemoveResident(ctx context.Context, roomID, userID string) (int, bool, error) {
	remaining, err := r.rdb.Eval(ctx, removeResidentScript,
		[]string{residencyKey(roomID)}, userID).Int()
	if err != nil {
		return 0, false, err
	}
	if remaining < 0 {
		return 0, false, nil
	}
	return remaining, true, nil
}

func (r *RedisStore) ResidencyExists(ctx context.Context, roomID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, residencyKey(roomID)).Result()
	return n > 0, err
}

func (r *RedisStore) DeleteResidency(ctx context.Context, roomID string) error {
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, residencyKey(roomID))
	pipe.ZRem(ctx, reclaimDeadlineKey, residencyKey(roomID))
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) DueReclaims(ctx context.Context, now time.Time) ([]string, error) {
	members, err := r.rdb.ZRangeByScore(ctx, reclaimDeadlineKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.UnixMilli()),
	}).Result()
	if err != nil {
		return nil, err
	}
	rooms := make([]string, 0, len(members))
	for _, m := range members {
		// members are residency keys: residency:<roomID>
		const prefix = "residency:"
		if len(m) > len(prefix) && m[:len(prefix)] == prefix {
			rooms = append(rooms, m[len(prefix):])
		}
	}
	return rooms, nil
}
