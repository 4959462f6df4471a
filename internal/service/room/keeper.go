package room

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RefreshRooms touches every room that has a connection of this process, so
// store-side expiry never reclaims a room that is still in use.
func (s service) RefreshRooms(ctx context.Context) error {
	var errs []error
	for _, roomId := range s.connRepo.RoomIds() {
		if err := s.roomRepo.TouchRoom(ctx, roomId); err != nil {
			errs = append(errs, fmt.Errorf("room %s: %w", roomId, err))
		}
	}

	return errors.Join(errs...)
}

// RunRoomKeeper calls RefreshRooms every interval until ctx is done.
func (s service) RunRoomKeeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshRooms(ctx); err != nil {
				s.logger.WarnContext(ctx, "failed to refresh rooms", "error", err)
			}
		}
	}
}
