package cluster

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/hotelbook/booking-server/pkg/server/model"
)

type Booking interface {
	CreateBooking(ctx context.Context, userID string, param *model.CreateBookingParam) (*model.Booking, error)
	ListBookings(ctx context.Context, userID string) ([]*model.Booking, error)
}

// CreateBooking creates a booking made by the user.
// It returns model.ErrInvalidArgument if the param is invalid, model.ErrUserNotFound if the user does not exist,
// model.ErrRoomTypeNotFound if the room type does not exist, and model.ErrDiscountNotFound if the discount does not exist.
func (c *Cluster) CreateBooking(ctx context.Context, userID string, param *model.CreateBookingParam) (*model.Booking, error) {
	if err := param.Validate(); err != nil {
		return nil, err
	}

	user, err := c.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	booking := param.Booking(xid.New().String(), user, time.Now().UTC())
	return c.storage.CreateBooking(ctx, booking)
}

// ListBookings returns the bookings made by the user.
func (c *Cluster) ListBookings(ctx context.Context, userID string) ([]*model.Booking, error) {
	return c.storage.ListBookings(ctx, userID)
}
