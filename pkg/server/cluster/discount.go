package cluster

import (
	"context"

	"github.com/hotelbook/booking-server/pkg/server/model"
)

type Discount interface {
	CreateDiscount(ctx context.Context, param *model.CreateDiscountParam) (*model.Discount, error)
	ListDiscounts(ctx context.Context) ([]*model.Discount, error)
	UpdateDiscount(ctx context.Context, param *model.UpdateDiscountParam) (*model.Discount, error)
	DeleteDiscount(ctx context.Context, discountID uint64) (*model.Discount, error)
}

// CreateDiscount creates a discount with the lowest available id.
// It returns model.ErrInvalidArgument if the param is invalid.
func (c *Cluster) CreateDiscount(ctx context.Context, param *model.CreateDiscountParam) (*model.Discount, error) {
	if err := param.Validate(); err != nil {
		return nil, err
	}
	return c.storage.CreateDiscount(ctx, param)
}

func (c *Cluster) ListDiscounts(ctx context.Context) ([]*model.Discount, error) {
	return c.storage.ListDiscounts(ctx)
}

// UpdateDiscount updates the fields set in param.
// It returns model.ErrInvalidArgument if the param is invalid, and model.ErrDiscountNotFound if the discount does not exist.
func (c *Cluster) UpdateDiscount(ctx context.Context, param *model.UpdateDiscountParam) (*model.Discount, error) {
	if err := param.Validate(); err != nil {
		return nil, err
	}
	return c.storage.UpdateDiscount(ctx, param)
}

// DeleteDiscount deletes the discount.
// It returns model.ErrDiscountNotFound if the discount does not exist, and model.ErrDiscountInUse if any booking references it.
func (c *Cluster) DeleteDiscount(ctx context.Context, discountID uint64) (*model.Discount, error) {
	return c.storage.DeleteDiscount(ctx, discountID)
}
