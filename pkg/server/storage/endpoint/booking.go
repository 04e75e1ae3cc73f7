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
	_bookingPath   = "bookings"
	_bookingPrefix = _bookingPath + kv.KeySeparator

	// user-bookings/<user-id>/<booking-id> -> <booking-id>
	_userBookingPath = "user-bookings"
)

// BookingEndpoint defines operations on booking.
type BookingEndpoint interface {
	CreateBooking(ctx context.Context, booking *model.Booking) (*model.Booking, error)
	ListBookings(ctx context.Context, userID string) ([]*model.Booking, error)
}

// CreateBooking saves the given booking and indexes it by its user.
// It returns model.ErrRoomTypeNotFound if the room type does not exist,
// and model.ErrDiscountNotFound if the booking references a discount which does not exist.
func (e *Endpoint) CreateBooking(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	logger := e.lg.With(zap.String("booking-id", booking.BookingID), zap.String("user-id", booking.UserID), traceutil.TraceLogField(ctx))

	err := e.KV.ExecInTxn(ctx, func(basicKV kv.BasicKV) error {
		v, err := basicKV.Get(ctx, roomTypePath(booking.RoomTypeID))
		if err != nil {
			return errors.Wrap(err, "get room type")
		}
		if v == nil {
			return errors.WithMessagef(model.ErrRoomTypeNotFound, "room type %d", booking.RoomTypeID)
		}

		if booking.DiscountID != nil {
			v, err = basicKV.Get(ctx, discountPath(*booking.DiscountID))
			if err != nil {
				return errors.Wrap(err, "get discount")
			}
			if v == nil {
				return errors.WithMessagef(model.ErrDiscountNotFound, "discount %d", *booking.DiscountID)
			}
		}

		if err := put(ctx, basicKV, bookingPath(booking.BookingID), booking); err != nil {
			return err
		}
		_, _ = basicKV.Put(ctx, userBookingPath(booking.UserID, booking.BookingID), []byte(booking.BookingID), false)
		return nil
	})
	if err != nil {
		logger.Error("failed to create booking", zap.Error(err))
		return nil, errors.Wrap(err, "create booking")
	}

	return booking, nil
}

// ListBookings returns all bookings of the user in ascending order of booking id.
func (e *Endpoint) ListBookings(ctx context.Context, userID string) ([]*model.Booking, error) {
	logger := e.lg.With(zap.String("user-id", userID), traceutil.TraceLogField(ctx))

	var keys [][]byte
	err := e.forEach(ctx, e.KV, userBookingPrefix(userID), func(keyValue kv.KeyValue) error {
		keys = append(keys, bookingPath(string(keyValue.Value)))
		return nil
	})
	if err != nil {
		logger.Error("failed to list booking ids", zap.Error(err))
		return nil, errors.Wrap(err, "list booking ids")
	}

	kvs, err := e.KV.BatchGet(ctx, keys, false)
	if err != nil {
		logger.Error("failed to get bookings", zap.Int("count", len(keys)), zap.Error(err))
		return nil, errors.Wrap(err, "get bookings")
	}

	bookings := make([]*model.Booking, 0, len(kvs))
	for _, keyValue := range kvs {
		booking, err := unmarshal[model.Booking](keyValue.Value)
		if err != nil {
			logger.Error("failed to parse booking", zap.ByteString("key", keyValue.Key), zap.Error(err))
			return nil, errors.Wrapf(err, "parse booking %s", keyValue.Key)
		}
		bookings = append(bookings, booking)
	}
	return bookings, nil
}

func bookingPath(bookingID string) []byte {
	return []byte(_bookingPrefix + bookingID)
}

func userBookingPrefix(userID string) []byte {
	return []byte(_userBookingPath + kv.KeySeparator + userID + kv.KeySeparator)
}

func userBookingPath(userID, bookingID string) []byte {
	return append(userBookingPrefix(userID), bookingID...)
}
