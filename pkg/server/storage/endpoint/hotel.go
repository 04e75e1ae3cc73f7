package endpoint

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/server/model"
	"github.com/hotelbook/booking-server/pkg/server/storage/kv"
	"github.com/hotelbook/booking-server/pkg/util/traceutil"
)

const (
	_hotelPath   = "hotels"
	_hotelPrefix = _hotelPath + kv.KeySeparator
)

// HotelEndpoint defines operations on hotel.
type HotelEndpoint interface {
	CreateHotel(ctx context.Context, hotel *model.Hotel) (*model.Hotel, error)
	ListHotels(ctx context.Context) ([]*model.Hotel, error)
	GetHotel(ctx context.Context, hotelID string) (*model.Hotel, error)
	UpdateHotel(ctx context.Context, param *model.UpdateHotelParam) (*model.Hotel, error)
	DeleteHotel(ctx context.Context, hotelID string) (*model.Hotel, error)
}

// CreateHotel saves the given hotel and returns it.
func (e *Endpoint) CreateHotel(ctx context.Context, hotel *model.Hotel) (*model.Hotel, error) {
	logger := e.lg.With(zap.String("hotel-id", hotel.ID), traceutil.TraceLogField(ctx))

	ok, err := e.putIfAbsent(ctx, hotelPath(hotel.ID), hotel)
	if err != nil {
		logger.Error("failed to save hotel", zap.Error(err))
		return nil, errors.Wrap(err, "save hotel")
	}
	if !ok {
		logger.Error("hotel already exists")
		return nil, errors.Errorf("hotel %s already exists", hotel.ID)
	}

	return hotel, nil
}

// ListHotels returns all hotels in ascending order of id.
func (e *Endpoint) ListHotels(ctx context.Context) ([]*model.Hotel, error) {
	logger := e.lg.With(traceutil.TraceLogField(ctx))

	hotels, err := list[model.Hotel](ctx, e, []byte(_hotelPrefix))
	if err != nil {
		logger.Error("failed to list hotels", zap.Error(err))
		return nil, errors.Wrap(err, "list hotels")
	}
	return hotels, nil
}

// GetHotel returns nil and no error if the hotel does not exist.
func (e *Endpoint) GetHotel(ctx context.Context, hotelID string) (*model.Hotel, error) {
	logger := e.lg.With(zap.String("hotel-id", hotelID), traceutil.TraceLogField(ctx))

	hotel, err := get[model.Hotel](ctx, e.KV, hotelPath(hotelID))
	if err != nil {
		logger.Error("failed to get hotel", zap.Error(err))
		return nil, errors.Wrap(err, "get hotel")
	}
	return hotel, nil
}

// UpdateHotel updates the fields set in param and returns the updated hotel.
// It returns model.ErrHotelNotFound if the hotel does not exist.
func (e *Endpoint) UpdateHotel(ctx context.Context, param *model.UpdateHotelParam) (*model.Hotel, error) {
	logger := e.lg.With(zap.String("hotel-id", param.ID), traceutil.TraceLogField(ctx))

	var hotel *model.Hotel
	err := e.KV.ExecInTxn(ctx, func(basicKV kv.BasicKV) error {
		key := hotelPath(param.ID)
		h, err := get[model.Hotel](ctx, basicKV, key)
		if err != nil {
			return errors.Wrap(err, "get hotel")
		}
		if h == nil {
			return errors.WithMessagef(model.ErrHotelNotFound, "hotel %s", param.ID)
		}

		param.Apply(h)
		hotel = h
		return put(ctx, basicKV, key, h)
	})
	if err != nil {
		logger.Error("failed to update hotel", zap.Error(err))
		return nil, errors.Wrap(err, "update hotel")
	}

	return hotel, nil
}

// DeleteHotel deletes the hotel and returns it.
// It returns model.ErrHotelNotFound if the hotel does not exist,
// and model.ErrHotelInUse if any room type belongs to the hotel.
func (e *Endpoint) DeleteHotel(ctx context.Context, hotelID string) (*model.Hotel, error) {
	logger := e.lg.With(zap.String("hotel-id", hotelID), traceutil.TraceLogField(ctx))

	var hotel *model.Hotel
	err := e.KV.ExecInTxn(ctx, func(basicKV kv.BasicKV) error {
		key := hotelPath(hotelID)
		h, err := get[model.Hotel](ctx, basicKV, key)
		if err != nil {
			return errors.Wrap(err, "get hotel")
		}
		if h == nil {
			return errors.WithMessagef(model.ErrHotelNotFound, "hotel %s", hotelID)
		}

		err = e.forEach(ctx, basicKV, []byte(_roomTypePrefix), func(keyValue kv.KeyValue) error {
			roomType, err := unmarshal[model.RoomType](keyValue.Value)
			if err != nil {
				return errors.WithMessagef(err, "key %s", keyValue.Key)
			}
			if roomType.HotelID == hotelID {
				return errors.WithMessagef(model.ErrHotelInUse, "hotel %s has room type %d", hotelID, roomType.RoomTypeID)
			}
			return nil
		})
		if err != nil {
			return err
		}

		hotel = h
		_, _ = basicKV.Delete(ctx, key, false)
		return nil
	})
	if err != nil {
		logger.Error("failed to delete hotel", zap.Error(err))
		return nil, errors.Wrap(err, "delete hotel")
	}

	return hotel, nil
}

func hotelPath(hotelID string) []byte {
	return []byte(_hotelPrefix + hotelID)
}

// hotelExists returns model.ErrHotelNotFound if the hotel does not exist.
func hotelExists(ctx context.Context, basicKV kv.BasicKV, hotelID string) error {
	v, err := basicKV.Get(ctx, hotelPath(hotelID))
	if err != nil {
		return errors.Wrap(err, "get hotel")
	}
	if v == nil {
		return errors.WithMessagef(model.ErrHotelNotFound, "hotel %s", hotelID)
	}
	return nil
}
