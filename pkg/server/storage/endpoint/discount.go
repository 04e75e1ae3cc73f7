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
	_discountPath   = "discounts"
	_discountPrefix = _discountPath + kv.KeySeparator
)

// DiscountNamespace is the id namespace of discounts.
var DiscountNamespace = id.Namespace{Name: "discount", Prefix: _discountPrefix}

// DiscountEndpoint defines operations on discount.
type DiscountEndpoint interface {
	CreateDiscount(ctx context.Context, param *model.CreateDiscountParam) (*model.Discount, error)
	ListDiscounts(ctx context.Context) ([]*model.Discount, error)
	GetDiscount(ctx context.Context, discountID uint64) (*model.Discount, error)
	UpdateDiscount(ctx context.Context, param *model.UpdateDiscountParam) (*model.Discount, error)
	DeleteDiscount(ctx context.Context, discountID uint64) (*model.Discount, error)
}

// CreateDiscount creates a discount with the lowest available id and returns it.
func (e *Endpoint) CreateDiscount(ctx context.Context, param *model.CreateDiscountParam) (*model.Discount, error) {
	logger := e.lg.With(traceutil.TraceLogField(ctx))

	var discount *model.Discount
	_, err := e.Allocator(DiscountNamespace).Create(ctx, func(id uint64) ([]byte, error) {
		discount = param.Discount(id)
		return jsonutil.Marshal(discount)
	})
	if err != nil {
		logger.Error("failed to create discount", zap.Error(err))
		return nil, errors.Wrap(err, "create discount")
	}

	return discount, nil
}

// ListDiscounts returns all discounts in ascending order of id.
func (e *Endpoint) ListDiscounts(ctx context.Context) ([]*model.Discount, error) {
	logger := e.lg.With(traceutil.TraceLogField(ctx))

	discounts, err := list[model.Discount](ctx, e, []byte(_discountPrefix))
	if err != nil {
		logger.Error("failed to list discounts", zap.Error(err))
		return nil, errors.Wrap(err, "list discounts")
	}
	return discounts, nil
}

// GetDiscount returns nil and no error if the discount does not exist.
func (e *Endpoint) GetDiscount(ctx context.Context, discountID uint64) (*model.Discount, error) {
	logger := e.lg.With(zap.Uint64("discount-id", discountID), traceutil.TraceLogField(ctx))

	discount, err := get[model.Discount](ctx, e.KV, discountPath(discountID))
	if err != nil {
		logger.Error("failed to get discount", zap.Error(err))
		return nil, errors.Wrap(err, "get discount")
	}
	return discount, nil
}

// UpdateDiscount updates the fields set in param and returns the updated discount.
// It returns model.ErrDiscountNotFound if the discount does not exist.
func (e *Endpoint) UpdateDiscount(ctx context.Context, param *model.UpdateDiscountParam) (*model.Discount, error) {
	logger := e.lg.With(zap.Uint64("discount-id", param.DiscountID), traceutil.TraceLogField(ctx))

	var discount *model.Discount
	err := e.KV.ExecInTxn(ctx, func(basicKV kv.BasicKV) error {
		key := discountPath(param.DiscountID)
		d, err := get[model.Discount](ctx, basicKV, key)
		if err != nil {
			return errors.Wrap(err, "get discount")
		}
		if d == nil {
			return errors.WithMessagef(model.ErrDiscountNotFound, "discount %d", param.DiscountID)
		}

		param.Apply(d)
		discount = d
		return put(ctx, basicKV, key, d)
	})
	if err != nil {
		logger.Error("failed to update discount", zap.Error(err))
		return nil, errors.Wrap(err, "update discount")
	}

	return discount, nil
}

// DeleteDiscount deletes the discount and returns it.
// It returns model.ErrDiscountNotFound if the discount does not exist,
// and model.ErrDiscountInUse if any booking references the discount.
func (e *Endpoint) DeleteDiscount(ctx context.Context, discountID uint64) (*model.Discount, error) {
	logger := e.lg.With(zap.Uint64("discount-id", discountID), traceutil.TraceLogField(ctx))

	var discount *model.Discount
	err := e.KV.ExecInTxn(ctx, func(basicKV kv.BasicKV) error {
		key := discountPath(discountID)
		d, err := get[model.Discount](ctx, basicKV, key)
		if err != nil {
			return errors.Wrap(err, "get discount")
		}
		if d == nil {
			return errors.WithMessagef(model.ErrDiscountNotFound, "discount %d", discountID)
		}

		err = e.forEach(ctx, basicKV, []byte(_bookingPrefix), func(keyValue kv.KeyValue) error {
			booking, err := unmarshal[model.Booking](keyValue.Value)
			if err != nil {
				return errors.WithMessagef(err, "key %s", keyValue.Key)
			}
			if booking.DiscountID != nil && *booking.DiscountID == discountID {
				return errors.WithMessagef(model.ErrDiscountInUse, "discount %d used by booking %s", discountID, booking.BookingID)
			}
			return nil
		})
		if err != nil {
			return err
		}

		discount = d
		_, _ = basicKV.Delete(ctx, key, false)
		return nil
	})
	if err != nil {
		logger.Error("failed to delete discount", zap.Error(err))
		return nil, errors.Wrap(err, "delete discount")
	}

	return discount, nil
}

func discountPath(discountID uint64) []byte {
	return DiscountNamespace.RecordKey(discountID)
}
