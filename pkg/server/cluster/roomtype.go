package cluster

import (
	"context"

	"github.com/hotelbook/booking-server/pkg/server/model"
)

type RoomType interface {
	CreateRoomType(ctx context.Context, param *model.CreateRoomTypeParam) (*model.RoomType, error)
	ListRoomTypes(ctx context.Context) ([]*model.RoomType, error)
	UpdateRoomType(ctx context.Context, param *model.UpdateRoomTypeParam) (*model.RoomType, error)
	DeleteRoomType(ctx context.Context, roomTypeID uint64) (*model.RoomType, error)
}

// CreateRoomType creates a room type with the lowest available id.
// It returns model.ErrInvalidArgument if the param is invalid.
func (c *Cluster) CreateRoomType(ctx context.Context, param *model.CreateRoomTypeParam) (*model.RoomType, error) {
	if err := param.Validate(); err != nil {
		return nil, err
	}
	return c.storage.CreateRoomType(ctx, param)
}

func (c *Cluster) ListRoomTypes(ctx context.Context) ([]*model.RoomType, error) {
	return c.storage.ListRoomTypes(ctx)
}

// UpdateRoomType updates the fields set in param.
// It returns model.ErrInvalidArgument if the param is invalid, and model.ErrRoomTypeNotFound if the room type does not exist.
func (c *Cluster) UpdateRoomType(ctx context.Context, param *model.UpdateRoomTypeParam) (*model.RoomType, error) {
	if err := param.Validate(); err != nil {
		return nil, err
	}
	return c.storage.UpdateRoomType(ctx, param)
}

// DeleteRoomType deletes the room type. It returns model.ErrRoomTypeNotFound if the room type does not exist.
func (c *Cluster) DeleteRoomType(ctx context.Context, roomTypeID uint64) (*model.RoomType, error) {
	return c.storage.DeleteRoomType(ctx, roomTypeID)
}
