package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/failure"
	"clinical-scribe-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis pub/sub channel the WebSocket hub listens
// on. Every instance subscribes; each forwards only to its own clients.
const EventsChannel = "scribe_events"

// notificationEvent is the cross-instance push payload.
type notificationEvent struct {
	SessionID string                  `json:"session_id"`
	Kind      entity.NotificationKind `json:"kind"`
	Data      entity.Notification     `json:"data"`
}

type notificationRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewNotificationRepository(rdb *redis.Client, ttl time.Duration) contract.NotificationRepository {
	return &notificationRepository{rdb: rdb, ttl: ttl}
}

// Add writes the ledger entry, then publishes it for live WebSocket
// delivery. The ledger write is the source of truth; the publish is
// best-effort (polling clients see the entry regardless).
func (r *notificationRepository) Add(ctx context.Context, sessionID string, kind entity.NotificationKind, n entity.Notification) error {
	if len(n.Messages) == 0 {
		return nil
	}

	key := sessionKey(sessionID, notificationSuffix(string(kind)))

	data, err := json.Marshal(n)
	if err != nil {
		return err
	}

	if err := r.rdb.HSet(ctx, key, strconv.Itoa(n.ChunkIndex), data).Err(); err != nil {
		return failure.Transient(err)
	}
	if err := r.rdb.Expire(ctx, key, r.ttl).Err(); err != nil {
		return failure.Transient(err)
	}

	event, err := json.Marshal(notificationEvent{SessionID: sessionID, Kind: kind, Data: n})
	if err == nil {
		// Fire-and-forget: a failed publish must not fail the chunk.
		_ = r.rdb.Publish(ctx, EventsChannel, event).Err()
	}

	return nil
}

func (r *notificationRepository) Get(ctx context.Context, sessionID string, kind entity.NotificationKind, chunkIndex *int) ([]entity.Notification, error) {
	key := sessionKey(sessionID, notificationSuffix(string(kind)))

	if chunkIndex != nil {
		// Pinpoint check: single field, one round-trip.
		raw, err := r.rdb.HGet(ctx, key, strconv.Itoa(*chunkIndex)).Result()
		if errors.Is(err, redis.Nil) {
			return []entity.Notification{}, nil
		}
		if err != nil {
			return nil, failure.Transient(err)
		}

		var n entity.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			return nil, err
		}
		return []entity.Notification{n}, nil
	}

	// Bulk read: HGETALL fetches the whole hash in one round-trip instead
	// of N HGETs.
	all, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, failure.Transient(err)
	}

	notifications := make([]entity.Notification, 0, len(all))
	for _, raw := range all {
		var n entity.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			continue
		}
		notifications = append(notifications, n)
	}

	// Hash iteration order is random; present chunks in timeline order.
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].ChunkIndex < notifications[j].ChunkIndex
	})

	return notifications, nil
}
