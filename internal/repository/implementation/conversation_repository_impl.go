package implementation

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/failure"
	"clinical-scribe-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

type conversationRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewConversationRepository(rdb *redis.Client, ttl time.Duration) contract.ConversationRepository {
	return &conversationRepository{rdb: rdb, ttl: ttl}
}

func (r *conversationRepository) AppendChunk(ctx context.Context, sessionID string, chunkIndex int, turns []entity.DialogueTurn, segments []entity.SegmentInfo) error {
	// Turn-taking means only the on-turn worker writes here, so a plain
	// read-check-write is race-free. The marker survives a retried
	// attempt whose first try died between the append and the advance.
	markerKey := sessionKey(sessionID, suffixHistoryChunk)
	marker, err := r.rdb.Get(ctx, markerKey).Result()
	if err != nil && err != redis.Nil {
		return failure.Transient(err)
	}
	if err == nil {
		if last, convErr := strconv.Atoi(marker); convErr == nil && last == chunkIndex {
			log.Printf("[INFO] History for chunk %d of session %s already appended, skipping", chunkIndex, sessionID)
			return nil
		}
	}

	if err := r.appendTurns(ctx, sessionID, turns); err != nil {
		return err
	}
	if err := r.appendSegments(ctx, sessionID, segments); err != nil {
		return err
	}

	if err := r.rdb.Set(ctx, markerKey, chunkIndex, r.ttl).Err(); err != nil {
		return failure.Transient(err)
	}

	return nil
}

func (r *conversationRepository) appendTurns(ctx context.Context, sessionID string, turns []entity.DialogueTurn) error {
	if len(turns) == 0 {
		return nil
	}

	key := sessionKey(sessionID, suffixHistory)

	values := make([]interface{}, 0, len(turns))
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			return err
		}
		values = append(values, data)
	}

	if err := r.rdb.RPush(ctx, key, values...).Err(); err != nil {
		return failure.Transient(err)
	}
	if err := r.rdb.Expire(ctx, key, r.ttl).Err(); err != nil {
		return failure.Transient(err)
	}

	return nil
}

func (r *conversationRepository) History(ctx context.Context, sessionID string) ([]entity.DialogueTurn, error) {
	key := sessionKey(sessionID, suffixHistory)

	// 0 to -1 means everything
	raw, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, failure.Transient(err)
	}

	turns := make([]entity.DialogueTurn, 0, len(raw))
	for _, item := range raw {
		var turn entity.DialogueTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}

	return turns, nil
}

func (r *conversationRepository) appendSegments(ctx context.Context, sessionID string, segments []entity.SegmentInfo) error {
	if len(segments) == 0 {
		return nil
	}

	key := sessionKey(sessionID, suffixUITranscript)

	values := make([]interface{}, 0, len(segments))
	for _, seg := range segments {
		data, err := json.Marshal(seg)
		if err != nil {
			return err
		}
		values = append(values, data)
	}

	if err := r.rdb.RPush(ctx, key, values...).Err(); err != nil {
		return failure.Transient(err)
	}
	if err := r.rdb.Expire(ctx, key, r.ttl).Err(); err != nil {
		return failure.Transient(err)
	}

	return nil
}

func (r *conversationRepository) Segments(ctx context.Context, sessionID string) ([]entity.SegmentInfo, error) {
	key := sessionKey(sessionID, suffixUITranscript)

	raw, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, failure.Transient(err)
	}

	segments := make([]entity.SegmentInfo, 0, len(raw))
	for _, item := range raw {
		var seg entity.SegmentInfo
		if err := json.Unmarshal([]byte(item), &seg); err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}

	return segments, nil
}
