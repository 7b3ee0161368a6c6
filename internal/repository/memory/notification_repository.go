package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type NotificationRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewNotificationRepository(ttl time.Duration) contract.NotificationRepository {
	return &NotificationRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func notificationKey(sessionID string, kind entity.NotificationKind) string {
	return fmt.Sprintf("%s:%s", sessionID, kind)
}

func (r *NotificationRepository) ledger(sessionID string, kind entity.NotificationKind) map[int]entity.Notification {
	key := notificationKey(sessionID, kind)
	if x, found := r.cache.Get(key); found {
		return x.(map[int]entity.Notification)
	}
	m := make(map[int]entity.Notification)
	r.cache.Set(key, m, cache.DefaultExpiration)
	return m
}

func (r *NotificationRepository) Add(_ context.Context, sessionID string, kind entity.NotificationKind, n entity.Notification) error {
	if len(n.Messages) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.ledger(sessionID, kind)[n.ChunkIndex] = n
	return nil
}

func (r *NotificationRepository) Get(_ context.Context, sessionID string, kind entity.NotificationKind, chunkIndex *int) ([]entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger := r.ledger(sessionID, kind)

	if chunkIndex != nil {
		if n, ok := ledger[*chunkIndex]; ok {
			return []entity.Notification{n}, nil
		}
		return []entity.Notification{}, nil
	}

	notifications := make([]entity.Notification, 0, len(ledger))
	for _, n := range ledger {
		notifications = append(notifications, n)
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].ChunkIndex < notifications[j].ChunkIndex
	})
	return notifications, nil
}
