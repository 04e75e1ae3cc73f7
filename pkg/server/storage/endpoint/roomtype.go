package endpoint

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/server/id"
	"github.com/hotelbook/booking-server/pkg/server/model"
	"github.com/hotelbook/booking-server/pkg/server/storage/kv"
	"github.com/hotelbook/booking-server/pkg/util/jsonutil"
	"github.com/hotelbook/booking-server/pkg/util/traceutil"
)

const (
	_roomTypePath   = "room-types"
	_roomTypePrefix = _roomTypePath + kv.KeySeparator
)

// RoomTypeNamespace is the id namespace of room types.
var RoomTypeNamespace = id.Namespace{Name: "room-type", Prefix: _roomTypePrefix}

// RoomTypeEndpoint defines operations on room type.
type RoomTypeEndpoint interface {
	CreateRoomType(ctx context.Context, param *model.CreateRoomTypeParam) (*model.RoomType, error)
	ListRoomTypes(ctx context.Context) ([]*model.RoomType, error)
	GetRoomType(ctx context.Context, roomTypeID uint64) (*model.RoomType, error)
	UpdateRoomType(ctx context.Context, param *model.UpdateRoomTypeParam) (*model.RoomType, error)
	DeleteRoomType(ctx context.Context, roomTypeID uint64) (*model.RoomType, error)
}

// CreateRoomType creates a room type with the lowest available id and returns it.
// It returns model.ErrHotelNotFound if the hotel of the room type does not exist.
func (e *Endpoint) CreateRoomType(ctx context.Context, param *model.CreateRoomTypeParam) (*model.RoomType, error) {
	logger := e.lg.With(traceutil.TraceLogField(ctx))

	hotelID := *param.HotelID
	var roomType *model.RoomType
	_, err := e.Allocator(RoomTypeNamespace).CreateIf(ctx, func(ctx context.Context, basicKV kv.BasicKV) error {
		return hotelExists(ctx, basicKV, hotelID)
	}, func(id uint64) ([]byte, error) {
		roomType = param.RoomType(id)
		return jsonutil.Marshal(roomType)
	})
	if err != nil {
		logger.Error("failed to create room type", zap.Error(err))
		return nil, errors.Wrap(err, "create room type")
	}

	return roomType, nil
}

// ListRoomTypes returns all room types in ascending order of id.
func (e *Endpoint) ListRoomTypes(ctx context.Context) ([]*model.RoomType, error) {
	logger := e.lg.With(traceutil.TraceLogField(ctx))

	roomTypes, err := list[model.RoomType](ctx, e, []byte(_roomTypePrefix))
	if err != nil {
		logger.Error("failed to list room types", zap.Error(err))
		return nil, errors.Wrap(err, "list room types")
	}
	return roomTypes, nil
}

// GetRoomType returns nil and no error if the room type does not exist.
func (e *Endpoint) GetRoomType(ctx context.Context, roomTypeID uint64) (*model.RoomType, error) {
	logger := e.lg.With(zap.Uint64("room-type-id", roomTypeID), traceutil.TraceLogField(ctx))

	roomType, err := get[model.RoomType](ctx, e.KV, roomTypePath(roomTypeID))
	if err != nil {
		logger.Error("failed to get room type", zap.Error(err))
		return nil, errors.Wrap(err, "get room type")
	}
	return roomType, nil
}

// UpdateRoomType updates the fields set in param and returns the updated room type.
// It returns model.ErrRoomTypeNotFound if the room type does not exist,
// and model.ErrHotelNotFound if the room type is moved to a hotel which does not exist.
func (e *Endpoint) UpdateRoomType(ctx context.Context, param *model.UpdateRoomTypeParam) (*model.RoomType, error) {
	logger := e.lg.With(zap.Uint64("room-type-id", param.RoomTypeID), traceutil.TraceLogField(ctx))

	var roomType *model.RoomType
	err := e.KV.ExecInTxn(ctx, func(basicKV kv.BasicKV) error {
		key := roomTypePath(param.RoomTypeID)
		r, err := get[model.RoomType](ctx, basicKV, key)
		if err != nil {
			return errors.Wrap(err, "get room type")
		}
		if r == nil {
			return errors.WithMessagef(model.ErrRoomTypeNotFound, "room type %d", param.RoomTypeID)
		}
		if param.HotelID != nil && *param.HotelID != r.HotelID {
			if err := hotelExists(ctx, basicKV, *param.HotelID); err != nil {
				return err
			}
		}

		param.Apply(r)
		roomType = r
		return put(ctx, basicKV, key, r)
	})
	if err != nil {
		logger.Error("failed to update room type", zap.Error(err))
		return nil, errors.Wrap(err, "update room type")
	}

	return roomType, nil
}

// DeleteRoomType deletes the room type and returns it.
// It returns model.ErrRoomTypeNotFound if the room type does not exist.
func (e *Endpoint) DeleteRoomType(ctx context.Context, roomTypeID uint64) (*model.RoomType, error) {
	logger := e.lg.With(zap.Uint64("room-type-id", roomTypeID), traceutil.TraceLogField(ctx))

	prevV, err := e.KV.Delete(ctx, roomTypePath(roomTypeID), true)
	if err != nil {
		logger.Error("failed to delete room type", zap.Error(err))
		return nil, errors.Wrap(err, "delete room type")
	}
	if prevV == nil {
		logger.Warn("room type not found when delete room type")
		return nil, errors.WithMessagef(model.ErrRoomTypeNotFound, "room type %d", roomTypeID)
	}

	roomType, err := unmarshal[model.RoomType](prevV)
	if err != nil {
		logger.Error("failed to parse deleted room type", zap.Error(err))
		return nil, errors.Wrap(err, "delete room type")
	}
	return roomType, nil
}

func roomTypePath(roomTypeID uint64) []byte {
	return RoomTypeNamespace.RecordKey(roomTypeID)
}
