package cluster

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/server/model"
	"github.com/hotelbook/booking-server/pkg/util/traceutil"
)

type Hotel interface {
	CreateHotel(ctx context.Context, param *model.CreateHotelParam) (*model.Hotel, error)
	ListHotels(ctx context.Context) ([]*model.HotelSummary, error)
	GetHotel(ctx context.Context, hotelID string) (*model.Hotel, error)
	UpdateHotel(ctx context.Context, param *model.UpdateHotelParam) (*model.Hotel, error)
	DeleteHotel(ctx context.Context, hotelID string) (*model.Hotel, error)
}

// CreateHotel creates a hotel with a new globally unique id.
// It returns model.ErrInvalidArgument if the param is invalid.
func (c *Cluster) CreateHotel(ctx context.Context, param *model.CreateHotelParam) (*model.Hotel, error) {
	if err := param.Validate(); err != nil {
		return nil, err
	}
	return c.storage.CreateHotel(ctx, param.Hotel(xid.New().String()))
}

// ListHotels returns the summaries of all hotels.
// The price of a hotel is the price by night of its room type with the lowest id, or 0 if it has no room type.
func (c *Cluster) ListHotels(ctx context.Context) ([]*model.HotelSummary, error) {
	logger := c.lg.With(traceutil.TraceLogField(ctx))

	hotels, err := c.storage.ListHotels(ctx)
	if err != nil {
		return nil, err
	}
	roomTypes, err := c.storage.ListRoomTypes(ctx)
	if err != nil {
		return nil, err
	}

	// room types are in ascending order of id
	prices := make(map[string]float64, len(hotels))
	for _, roomType := range roomTypes {
		if _, ok := prices[roomType.HotelID]; !ok {
			prices[roomType.HotelID] = roomType.PriceByNight
		}
	}

	summaries := make([]*model.HotelSummary, 0, len(hotels))
	for _, hotel := range hotels {
		summaries = append(summaries, hotel.Summary(prices[hotel.ID]))
	}
	logger.Debug("list hotels", zap.Int("hotel-count", len(hotels)), zap.Int("room-type-count", len(roomTypes)))
	return summaries, nil
}

// GetHotel returns model.ErrHotelNotFound if the hotel does not exist.
func (c *Cluster) GetHotel(ctx context.Context, hotelID string) (*model.Hotel, error) {
	hotel, err := c.storage.GetHotel(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	if hotel == nil {
		return nil, errors.WithMessagef(model.ErrHotelNotFound, "hotel %s", hotelID)
	}
	return hotel, nil
}

// UpdateHotel updates the fields set in param.
// It returns model.ErrInvalidArgument if the param is invalid, and model.ErrHotelNotFound if the hotel does not exist.
func (c *Cluster) UpdateHotel(ctx context.Context, param *model.UpdateHotelParam) (*model.Hotel, error) {
	if err := param.Validate(); err != nil {
		return nil, err
	}
	return c.storage.UpdateHotel(ctx, param)
}

// DeleteHotel deletes the hotel.
// It returns model.ErrHotelNotFound if the hotel does not exist, and model.ErrHotelInUse if it has room types.
func (c *Cluster) DeleteHotel(ctx context.Context, hotelID string) (*model.Hotel, error) {
	return c.storage.DeleteHotel(ctx, hotelID)
}
