package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/watchparty/server/internal/repository/room"
)

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}

func (r repo) checkRoomExists(ctx context.Context, roomId string) error {
	exists, err := r.IsRoomExists(ctx, roomId)
	if err != nil {
		return err
	}

	if !exists {
		return room.ErrRoomNotFound
	}

	return nil
}

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
