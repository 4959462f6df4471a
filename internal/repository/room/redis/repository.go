package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/watchparty/server/internal/repository/room"
)

type repo struct {
	rc                  *redis.Client
	expireDuration      time.Duration
	ensureRoomScript    *redis.Script
	removeIfEmptyScript *redis.Script
	logger              *slog.Logger
}

// NewRepo returns a room repository that keeps every room in two hashes. Keys
// are refreshed with expireDuration on every write so that rooms of crashed
// processes do not live forever.
func NewRepo(rc *redis.Client, expireDuration time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
		ensureRoomScript: redis.NewScript(`
			if redis.call('EXISTS', KEYS[1]) == 1 then
				redis.call('EXPIRE', KEYS[1], ARGV[1])
				return 0
			end
			redis.call('HSET', KEYS[1], 'video_url', '', 'is_playing', '0', 'current_time', '0')
			redis.call('EXPIRE', KEYS[1], ARGV[1])
			return 1
		`),
		removeIfEmptyScript: redis.NewScript(`
			if redis.call('EXISTS', KEYS[1]) == 0 then
				return 0
			end
			if redis.call('HLEN', KEYS[2]) > 0 then
				return 0
			end
			redis.call('DEL', KEYS[1], KEYS[2])
			return 1
		`),
		logger: logger.With("component", "room.redis"),
	}
}

func (r repo) expireSeconds() int64 {
	return int64(r.expireDuration / time.Second)
}

func (r repo) EnsureRoom(ctx context.Context, roomId string) (bool, error) {
	created, err := r.ensureRoomScript.Run(ctx, r.rc, []string{r.getPlayerKey(roomId)}, r.expireSeconds()).Int()
	if err != nil {
		return false, err
	}

	if created == 1 {
		r.logger.DebugContext(ctx, "room created", "room_id", roomId)
	}

	return created == 1, nil
}

func (r repo) IsRoomExists(ctx context.Context, roomId string) (bool, error) {
	res, err := r.rc.Exists(ctx, r.getPlayerKey(roomId)).Result()
	if err != nil {
		return false, err
	}

	return res > 0, nil
}

func (r repo) RemoveIfEmpty(ctx context.Context, roomId string) (bool, error) {
	removed, err := r.removeIfEmptyScript.Run(ctx, r.rc, []string{
		r.getPlayerKey(roomId),
		r.getMembersKey(roomId),
	}).Int()
	if err != nil {
		return false, err
	}

	if removed == 1 {
		r.logger.DebugContext(ctx, "room removed", "room_id", roomId)
	}

	return removed == 1, nil
}

// TouchRoom pushes the expiry of a live room's keys forward. The expiry only
// reclaims rooms of a process that died without cleaning up.
func (r repo) TouchRoom(ctx context.Context, roomId string) error {
	pipe := r.rc.TxPipeline()
	playerExpire := pipe.Expire(ctx, r.getPlayerKey(roomId), r.expireDuration)
	pipe.Expire(ctx, r.getMembersKey(roomId), r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to touch room: %w", err)
	}

	if !playerExpire.Val() {
		return room.ErrRoomNotFound
	}

	return nil
}
