package relay

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/bcroc/teamchat/internal/core"
)

const roomKeyPrefix = "call:room:"

// Rooms tracks which users sit in which call's signaling room so
// room-scoped RPCs can fan out without the relay holding state in memory.
// Membership is shared through redis, so relays can scale horizontally.
type Rooms interface {
	// Add reports whether the user was newly added; a re-join of a present
	// member returns false.
	Add(ctx context.Context, callID core.CallID, userID core.UserID) (bool, error)
	Remove(ctx context.Context, callID core.CallID, userID core.UserID) error
	Members(ctx context.Context, callID core.CallID) ([]core.UserID, error)
	Clear(ctx context.Context, callID core.CallID) error
}

type redisRooms struct {
	rdb *redis.Client
}

func NewRedisRooms(rdb *redis.Client) Rooms {
	return &redisRooms{rdb: rdb}
}

func roomKey(callID core.CallID) string {
	return roomKeyPrefix + string(callID)
}

func (r *redisRooms) Add(ctx context.Context, callID core.CallID, userID core.UserID) (bool, error) {
	added, err := r.rdb.SAdd(ctx, roomKey(callID), string(userID)).Result()
	if err != nil {
		return false, err
	}
	return added > 0, nil
}

func (r *redisRooms) Remove(ctx context.Context, callID core.CallID, userID core.UserID) error {
	return r.rdb.SRem(ctx, roomKey(callID), string(userID)).Err()
}

func (r *redisRooms) Members(ctx context.Context, callID core.CallID) ([]core.UserID, error) {
	members, err := r.rdb.SMembers(ctx, roomKey(callID)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]core.UserID, 0, len(members))
	for _, m := range members {
		out = append(out, core.UserID(m))
	}
	return out, nil
}

func (r *redisRooms) Clear(ctx context.Context, callID core.CallID) error {
	return r.rdb.Del(ctx, roomKey(callID)).Err()
}
