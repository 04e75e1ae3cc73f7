package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hotelbook/booking-server/pkg/server/id"
)

const (
	_defaultAllocatorMode            = string(id.ModeRelaxed)
	_defaultAllocatorDetectCollision = false
	_defaultAllocatorListLimit       = 10000
)

// Allocator is the configuration for the id allocators of discounts, issues and room types.
type Allocator struct {
	// Mode is either "relaxed" or "serialized".
	Mode string
	// DetectCollision makes a relaxed allocator fail instead of overwriting a record with the same id.
	DetectCollision bool
	// ListLimit is the page size used when listing the ids in use.
	ListLimit int64
}

func NewAllocator() *Allocator {
	return &Allocator{}
}

func (a *Allocator) Validate() error {
	if !id.Mode(a.Mode).Valid() {
		return errors.Errorf("invalid allocator mode `%s`", a.Mode)
	}
	if a.ListLimit <= 0 {
		return errors.Errorf("invalid list limit `%d`", a.ListLimit)
	}
	return nil
}

func allocatorConfigure(v *viper.Viper, fs *pflag.FlagSet) {
	fs.String("allocator-mode", _defaultAllocatorMode, "id allocation mode, one of: relaxed|serialized")
	fs.Bool("allocator-detect-collision", _defaultAllocatorDetectCollision, "whether to reject a record whose id is taken instead of overwriting it, in relaxed mode")
	fs.Int64("allocator-list-limit", _defaultAllocatorListLimit, "page size when listing the ids in use")
	_ = v.BindPFlag("allocator.mode", fs.Lookup("allocator-mode"))
	_ = v.BindPFlag("allocator.detectCollision", fs.Lookup("allocator-detect-collision"))
	_ = v.BindPFlag("allocator.listLimit", fs.Lookup("allocator-list-limit"))
}
