package model

import (
	"strings"

	"github.com/pkg/errors"
)

func requireString(name string, v *string) error {
	if v == nil || strings.TrimSpace(*v) == "" {
		return errors.Wrapf(ErrInvalidArgument, "%s is required", name)
	}
	return nil
}

func optionalString(name string, v *string) error {
	if v != nil && strings.TrimSpace(*v) == "" {
		return errors.Wrapf(ErrInvalidArgument, "%s must not be empty", name)
	}
	return nil
}

type number interface {
	~int | ~int64 | ~uint64 | ~float64
}

func requireNonNegative[T number](name string, v *T) error {
	if v == nil {
		return errors.Wrapf(ErrInvalidArgument, "%s is required", name)
	}
	return optionalNonNegative(name, v)
}

func optionalNonNegative[T number](name string, v *T) error {
	if v != nil && *v < 0 {
		return errors.Wrapf(ErrInvalidArgument, "%s must not be negative, got %v", name, *v)
	}
	return nil
}

func requirePositive[T number](name string, v *T) error {
	if v == nil {
		return errors.Wrapf(ErrInvalidArgument, "%s is required", name)
	}
	if *v <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "%s must be positive, got %v", name, *v)
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
